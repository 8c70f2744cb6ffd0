package api

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/tubearchive/tubearchive-server/internal/http/response"
)

// EnvelopeVersion is the response envelope format version.
const EnvelopeVersion = response.Version

// APIEnvelope wraps successful responses and message-only errors.
type APIEnvelope = response.Envelope //nolint:revive // API prefix is intentional for clarity

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope = response.ErrorEnvelope //nolint:revive // API prefix is intentional for clarity

// EnvelopeTransformer wraps every huma response body in the versioned envelope.
// Status is the response status code as a string.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if isErrorStatus(status) {
		var apiErr *APIError
		if errors.As(asError(v), &apiErr) && apiErr.Code != "" {
			return APIErrorEnvelope{
				Version: EnvelopeVersion,
				Success: false,
				Code:    apiErr.Code,
				Message: apiErr.Message,
				Details: apiErr.Details,
			}, nil
		}

		env := APIEnvelope{Version: EnvelopeVersion, Success: false}
		if err := asError(v); err != nil {
			env.Error = err.Error()
		}
		return env, nil
	}

	return APIEnvelope{
		Version: EnvelopeVersion,
		Success: true,
		Data:    v,
	}, nil
}

func isErrorStatus(status string) bool {
	return len(status) == 3 && (status[0] == '4' || status[0] == '5')
}

func asError(v any) error {
	if err, ok := v.(error); ok {
		return err
	}
	return nil
}
