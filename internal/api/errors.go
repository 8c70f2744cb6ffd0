package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/tubearchive/tubearchive-server/internal/errors"
	"github.com/tubearchive/tubearchive-server/internal/http/response"
	"github.com/tubearchive/tubearchive-server/internal/store"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = newAPIError
}

func newAPIError(status int, message string, errs ...error) huma.StatusError {
	for _, err := range errs {
		var domainErr *domainerrors.Error
		if errors.As(err, &domainErr) {
			return &APIError{
				status:  domainErr.HTTPStatus(),
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Details: domainErr.Details,
			}
		}

		var storeErr *store.Error
		if errors.As(err, &storeErr) {
			return &APIError{
				status:  storeErr.HTTPCode(),
				Code:    string(response.CodeForStatus(storeErr.HTTPCode())),
				Message: storeErr.Message,
			}
		}
	}

	// Huma reports schema violations as 422 with one ErrorDetail per field.
	if status == http.StatusUnprocessableEntity {
		return &APIError{
			status:  http.StatusBadRequest,
			Code:    string(domainerrors.CodeValidation),
			Message: message,
			Details: fieldDetails(errs),
		}
	}

	return &APIError{
		status:  status,
		Code:    string(response.CodeForStatus(status)),
		Message: message,
		Details: fieldDetails(errs),
	}
}

// fieldDetails flattens huma error details into a location -> message map.
// It returns nil when errs carries no details.
func fieldDetails(errs []error) any {
	var details map[string]string
	for _, err := range errs {
		var d *huma.ErrorDetail
		if !errors.As(err, &d) {
			continue
		}
		if details == nil {
			details = make(map[string]string)
		}
		loc := strings.TrimPrefix(d.Location, "body.")
		if loc == "" {
			loc = "body"
		}
		details[loc] = d.Message
	}
	if details == nil {
		return nil
	}
	return details
}
