package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/normalize"
)

// MaxHits caps how many ids one bleve request returns.
const MaxHits = 10000

// hitsPerRequest is the page size used when collecting every match.
var hitsPerRequest = MaxHits

// TitleQuery configures a title search. UserID is required.
type TitleQuery struct {
	UserID      string
	Query       string
	Channel     string             // exact, optional
	ContentType domain.ContentType // optional
	Removed     *bool              // nil matches both

	// Limit bounds the result to one page of at most MaxHits ids.
	// Zero collects every match, paging through the index as needed.
	Limit  int
	Offset int
}

// TitleResult lists matching record ids, best match first.
type TitleResult struct {
	IDs   []string `json:"ids"`
	Total uint64   `json:"total"`
}

// SearchTitles runs a title query scoped to one user.
func (s *SearchIndex) SearchTitles(ctx context.Context, q TitleQuery) (*TitleResult, error) {
	if q.UserID == "" {
		return nil, fmt.Errorf("search titles: user id is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if q.Limit > 0 {
		return s.searchPage(ctx, q, min(q.Limit, MaxHits), q.Offset)
	}

	result := &TitleResult{IDs: []string{}}
	for offset := q.Offset; ; offset += hitsPerRequest {
		page, err := s.searchPage(ctx, q, hitsPerRequest, offset)
		if err != nil {
			return nil, err
		}
		result.Total = page.Total
		result.IDs = append(result.IDs, page.IDs...)
		if len(page.IDs) < hitsPerRequest || uint64(offset+len(page.IDs)) >= page.Total {
			return result, nil
		}
	}
}

// searchPage runs one bleve request. The caller holds mu.
func (s *SearchIndex) searchPage(ctx context.Context, q TitleQuery, size, from int) (*TitleResult, error) {
	req := bleve.NewSearchRequestOptions(buildTitleQuery(q), size, from, false)
	req.SortBy([]string{"-_score", "-seq", "_id"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &TitleResult{
		IDs:   make([]string, 0, len(res.Hits)),
		Total: res.Total,
	}
	for _, hit := range res.Hits {
		result.IDs = append(result.IDs, hit.ID)
	}
	return result, nil
}

// buildTitleQuery combines the text query with the scoping filters.
func buildTitleQuery(q TitleQuery) query.Query {
	queries := []query.Query{keywordQuery("user_id", q.UserID)}

	if text := textQuery(q.Query); text != nil {
		queries = append(queries, text)
	}
	if q.Channel != "" {
		queries = append(queries, keywordQuery("channel", q.Channel))
	}
	if q.ContentType != "" {
		queries = append(queries, keywordQuery("content_type", string(q.ContentType)))
	}
	if q.Removed != nil {
		removed := bleve.NewBoolFieldQuery(*q.Removed)
		removed.SetField("is_removed")
		queries = append(queries, removed)
	}

	if len(queries) == 1 {
		return queries[0]
	}
	return bleve.NewConjunctionQuery(queries...)
}

// textQuery matches every term of text against titles, tolerating one typo
// per single-term query and completing the last term as a prefix.
func textQuery(text string) query.Query {
	folded := normalize.Fold(text)
	terms := strings.Fields(folded)
	if len(terms) == 0 {
		return nil
	}

	match := bleve.NewMatchQuery(folded)
	match.SetField("title")
	match.SetOperator(query.MatchQueryOperatorAnd)
	match.SetBoost(3.0)
	textQueries := []query.Query{match}

	last := terms[len(terms)-1]

	if len(terms) == 1 {
		fuzzy := bleve.NewFuzzyQuery(last)
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("title")
		fuzzy.SetBoost(0.8)
		textQueries = append(textQueries, fuzzy)
	}

	// Prefix query for autocomplete (minimum 2 chars)
	if len(last) >= 2 {
		prefix := bleve.NewPrefixQuery(last)
		prefix.SetField("title")
		prefix.SetBoost(0.5)

		if len(terms) == 1 {
			textQueries = append(textQueries, prefix)
		} else {
			head := bleve.NewMatchQuery(strings.Join(terms[:len(terms)-1], " "))
			head.SetField("title")
			head.SetOperator(query.MatchQueryOperatorAnd)
			textQueries = append(textQueries, bleve.NewConjunctionQuery(head, prefix))
		}
	}

	return bleve.NewDisjunctionQuery(textQueries...)
}

func keywordQuery(field, value string) query.Query {
	tq := bleve.NewTermQuery(value)
	tq.SetField(field)
	return tq
}
