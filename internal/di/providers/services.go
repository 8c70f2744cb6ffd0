package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/tubearchive/tubearchive-server/internal/auth"
	"github.com/tubearchive/tubearchive-server/internal/config"
	"github.com/tubearchive/tubearchive-server/internal/domain"
	"github.com/tubearchive/tubearchive-server/internal/ingest"
	"github.com/tubearchive/tubearchive-server/internal/logger"
	"github.com/tubearchive/tubearchive-server/internal/service"
	"github.com/tubearchive/tubearchive-server/internal/validation"
)

// ProvideValidator provides the shared request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideDecoder provides the export decoder used by every import path.
func ProvideDecoder(i do.Injector) (*ingest.Decoder, error) {
	v := do.MustInvoke[*validation.Validator](i)
	return ingest.NewDecoder(v), nil
}

// ProvideSessionService provides the session management service.
func ProvideSessionService(i do.Injector) (*service.SessionService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSessionService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideAuthService provides the authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	sessionService := do.MustInvoke[*service.SessionService](i)
	hasher := do.MustInvoke[*auth.PasswordHasher](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(
		storeHandle.Store,
		tokenService,
		sessionService,
		hasher,
		v,
		service.AuthOptions{AllowAnonymous: cfg.Auth.AllowAnonymous},
		log.Logger,
	), nil
}

// ProvideImportService provides the import reconciler.
func ProvideImportService(i do.Injector) (*service.ImportService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	decoder := do.MustInvoke[*ingest.Decoder](i)
	log := do.MustInvoke[*logger.Logger](i)

	opts := service.ImportOptions{MaxBatch: cfg.Import.MaxBatch}
	if cfg.Import.DefaultContentType != "" {
		ct, ok := domain.ParseContentType(cfg.Import.DefaultContentType)
		if !ok {
			return nil, fmt.Errorf("invalid default import content type %q", cfg.Import.DefaultContentType)
		}
		opts.DefaultContentType = ct
	}

	return service.NewImportService(storeHandle.Store, indexHandle.SearchIndex, decoder, opts, log.Logger), nil
}

// ProvideVideoService provides the archive query service.
func ProvideVideoService(i do.Injector) (*service.VideoService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	indexHandle := do.MustInvoke[*SearchIndexHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewVideoService(storeHandle.Store, indexHandle.SearchIndex, log.Logger), nil
}
