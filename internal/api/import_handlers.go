package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tubearchive/tubearchive-server/internal/domain"
	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
)

func (s *Server) registerImportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:  "importVideos",
		Method:       http.MethodPost,
		Path:         "/api/v1/videos/import",
		Summary:      "Import videos",
		Description:  "Reconciles a batch of exported records against the caller's list for one category. Body: {\"videos\": [...], \"contentType\": \"History\"}.",
		Tags:         []string{tagImports},
		Security:     bearerSecurity,
		MaxBodyBytes: s.opts.MaxBodyBytes,
	}, s.handleImportVideos)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importVideosFile",
		Method:       http.MethodPost,
		Path:         "/api/v1/videos/import/file",
		Summary:      "Import an export file",
		Description:  "Reconciles a raw export array. The category is inferred from the file name.",
		Tags:         []string{tagImports},
		Security:     bearerSecurity,
		MaxBodyBytes: s.opts.MaxBodyBytes,
	}, s.handleImportFile)

	huma.Register(s.api, huma.Operation{
		OperationID: "listImports",
		Method:      http.MethodGet,
		Path:        "/api/v1/imports",
		Summary:     "List imports",
		Description: "Returns the caller's import receipts, newest first",
		Tags:        []string{tagImports},
		Security:    bearerSecurity,
	}, s.handleListImports)
}

// === DTOs ===

// ImportInput carries the raw import payload. The videos array is decoded
// by the import service so a non-array is reported as malformed input.
type ImportInput struct {
	RawBody []byte
}

// importPayload is the JSON shape of ImportInput.
type importPayload struct {
	Videos      json.RawMessage `json:"videos"`
	ContentType string          `json:"contentType"`
}

// ImportFileInput carries an export file as the request body.
type ImportFileInput struct {
	Filename string `query:"filename" maxLength:"255" doc:"Original file name, used to infer the category"`
	RawBody  []byte
}

// ImportOutput wraps an import result for Huma.
type ImportOutput struct {
	Body *domain.ImportResult
}

// ImportsOutput wraps import receipts for Huma.
type ImportsOutput struct {
	Body []*domain.ImportReceipt
}

// === Handlers ===

func (s *Server) handleImportVideos(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	var payload importPayload
	if err := json.Unmarshal(input.RawBody, &payload); err != nil {
		return nil, domainerrors.MalformedInput("invalid JSON format: expected an object with a videos array").WithCause(err)
	}

	result, err := s.services.Import.ImportJSON(ctx, userID, payload.Videos, payload.ContentType)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: result}, nil
}

func (s *Server) handleImportFile(ctx context.Context, input *ImportFileInput) (*ImportOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.services.Import.ImportFile(ctx, userID, input.Filename, input.RawBody)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: result}, nil
}

func (s *Server) handleListImports(ctx context.Context, _ *struct{}) (*ImportsOutput, error) {
	receipts, err := s.services.Import.Imports(ctx, userIDFrom(ctx))
	if err != nil {
		return nil, err
	}
	return &ImportsOutput{Body: receipts}, nil
}
