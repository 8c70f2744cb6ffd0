package api

import (
	"github.com/tubearchive/tubearchive-server/internal/service"
)

// SearchStats reports on the title index for health checks.
type SearchStats interface {
	DocumentCount() (uint64, error)
}

// Services groups all business logic services used by the API server.
// This reduces the parameter count for NewServer and improves testability.
type Services struct {
	Auth   *service.AuthService
	Import *service.ImportService
	Video  *service.VideoService
	Search SearchStats // optional, nil when running without a title index
}
