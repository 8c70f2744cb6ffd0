package providers

import (
	"aidanwoods.dev/go-paseto"
	"github.com/samber/do/v2"

	"github.com/tubearchive/tubearchive-server/internal/auth"
	"github.com/tubearchive/tubearchive-server/internal/config"
	"github.com/tubearchive/tubearchive-server/internal/logger"
)

// AuthKey wraps the token signing key.
type AuthKey struct {
	paseto.V4SymmetricKey
}

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		return AuthKey{}, err
	}

	log.Info("Authentication key loaded",
		"access_token_duration", cfg.Auth.AccessTokenDuration,
		"refresh_token_duration", cfg.Auth.RefreshTokenDuration,
	)

	return AuthKey{V4SymmetricKey: key}, nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(authKey.V4SymmetricKey, cfg.Auth.AccessTokenDuration, cfg.Auth.RefreshTokenDuration), nil
}

// ProvidePasswordHasher provides the Argon2id password hasher.
func ProvidePasswordHasher(i do.Injector) (*auth.PasswordHasher, error) {
	return auth.NewPasswordHasher(auth.DefaultArgon2Params), nil
}
