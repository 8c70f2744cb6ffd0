package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve index mapping for video documents.
// Titles get English stemming; scoping fields are exact keywords.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = en.AnalyzerName
	titleFieldMapping.Store = true
	titleFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", titleFieldMapping)

	for _, field := range []string{"id", "user_id", "channel", "content_type"} {
		keywordFieldMapping := bleve.NewTextFieldMapping()
		keywordFieldMapping.Analyzer = keyword.Name
		keywordFieldMapping.Store = field == "id"
		docMapping.AddFieldMappingsAt(field, keywordFieldMapping)
	}

	removedFieldMapping := bleve.NewBooleanFieldMapping()
	docMapping.AddFieldMappingsAt("is_removed", removedFieldMapping)

	seqFieldMapping := bleve.NewNumericFieldMapping()
	seqFieldMapping.Store = true
	docMapping.AddFieldMappingsAt("seq", seqFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}
