// Package auth issues and verifies access tokens, refresh tokens and password hashes.
package auth

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aidanwoods.dev/go-paseto"
)

// KeyFileName is the file under the data directory holding the token key.
const KeyFileName = "auth.key"

// LoadOrGenerateKey returns the PASETO v4 local key stored at <dataPath>/auth.key,
// creating and persisting a fresh key on first start.
func LoadOrGenerateKey(dataPath string) (paseto.V4SymmetricKey, error) {
	keyPath := filepath.Join(dataPath, KeyFileName)

	raw, err := os.ReadFile(keyPath) //#nosec G304 -- derived from the configured data path
	switch {
	case err == nil:
		key, err := paseto.V4SymmetricKeyFromHex(strings.TrimSpace(string(raw)))
		if err != nil {
			return paseto.V4SymmetricKey{}, fmt.Errorf("invalid auth key in %s: %w", keyPath, err)
		}
		return key, nil
	case !errors.Is(err, os.ErrNotExist):
		return paseto.V4SymmetricKey{}, fmt.Errorf("read auth key: %w", err)
	}

	key := paseto.NewV4SymmetricKey()

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(key.ExportHex()), 0o600); err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("save auth key: %w", err)
	}

	return key, nil
}
