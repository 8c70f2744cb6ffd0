package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Environment: "development"},
		Logger:  LoggerConfig{Level: "info"},
		Storage: StorageConfig{Backend: BackendSQLite, DataPath: "/some/path"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_StoreBackend(t *testing.T) {
	tests := []struct {
		backend string
		valid   bool
	}{
		{BackendSQLite, true},
		{BackendBadger, true},
		{"postgres", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			cfg := validConfig()
			cfg.Storage.Backend = tt.backend

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_EmptyDataPath(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.DataPath = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data path cannot be empty")
}

func TestValidate_InboxNeedsUser(t *testing.T) {
	cfg := validConfig()
	cfg.Inbox.Path = "/inbox"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INBOX_USER_ID")

	cfg.Inbox.UserID = "user-1"
	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Inbox.Enabled())
}

func TestExpandDataPath(t *testing.T) {
	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty uses default", "", filepath.Join(homeDir, "TubeArchive", "data")},
		{"tilde expansion", "~/archive", filepath.Join(homeDir, "archive")},
		{"absolute unchanged", "/absolute/path/to/data", "/absolute/path/to/data"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Storage: StorageConfig{DataPath: tt.input}}
			require.NoError(t, cfg.expandDataPath())
			assert.Equal(t, tt.expected, cfg.Storage.DataPath)
		})
	}
}

func TestExpandDataPath_RelativePath(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{DataPath: "relative/path"}}

	require.NoError(t, cfg.expandDataPath())
	assert.True(t, filepath.IsAbs(cfg.Storage.DataPath))
	assert.Contains(t, cfg.Storage.DataPath, "relative/path")
}

func TestGetConfigValue_Precedence(t *testing.T) {
	assert.Equal(t, "flag-value", getConfigValue("flag-value", "TEST_ENV_KEY", "default-value"))

	t.Setenv("TEST_ENV_KEY", "env-value")
	assert.Equal(t, "env-value", getConfigValue("", "TEST_ENV_KEY", "default-value"))

	assert.Equal(t, "default-value", getConfigValue("", "NONEXISTENT_KEY", "default-value"))
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ENV", "")
	t.Setenv("STORE_BACKEND", "")
	t.Setenv("IMPORT_DEFAULT_CONTENT_TYPE", "")
	t.Setenv("INBOX_PATH", "")

	cfg, err := LoadConfig([]string{"-data-path", dir, "-env-file", filepath.Join(dir, "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, dir, cfg.Storage.DataPath)
	assert.Equal(t, "History", cfg.Import.DefaultContentType)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenDuration)
	assert.Equal(t, 720*time.Hour, cfg.Auth.RefreshTokenDuration)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, int64(64<<20), cfg.Server.MaxBodyBytes)
	assert.True(t, cfg.Auth.AllowAnonymous)
	assert.False(t, cfg.Inbox.Enabled())
}

func TestLoadConfig_FlagsOverrideEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("IMPORT_DEFAULT_CONTENT_TYPE", "Likes")

	cfg, err := LoadConfig([]string{
		"-data-path", dir,
		"-env-file", filepath.Join(dir, "missing.env"),
		"-store", "badger",
		"-cors-origins", "http://localhost:5173, https://archive.example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, "Likes", cfg.Import.DefaultContentType)
	assert.Equal(t, []string{"http://localhost:5173", "https://archive.example.com"}, cfg.Server.AllowedOrigins)
}

func TestLoadConfig_InvalidDuration(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig([]string{
		"-data-path", dir,
		"-env-file", filepath.Join(dir, "missing.env"),
		"-access-token-duration", "soon",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access_token_duration")
}

func TestLoadEnvFile_ValidFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := `# Test env file
TA_TEST_ENV=staging
TA_TEST_LEVEL=debug
# Comment line
TA_TEST_QUOTED="some value"
TA_TEST_SINGLE='another value'
`
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o644))

	for _, key := range []string{"TA_TEST_ENV", "TA_TEST_LEVEL", "TA_TEST_QUOTED", "TA_TEST_SINGLE"} {
		t.Setenv(key, "")
		os.Unsetenv(key) //nolint:errcheck // Test setup
	}

	require.NoError(t, loadEnvFile(envFile))

	assert.Equal(t, "staging", os.Getenv("TA_TEST_ENV"))
	assert.Equal(t, "debug", os.Getenv("TA_TEST_LEVEL"))
	assert.Equal(t, "some value", os.Getenv("TA_TEST_QUOTED"))
	assert.Equal(t, "another value", os.Getenv("TA_TEST_SINGLE"))
}

func TestLoadEnvFile_InvalidFormat(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("BAD-KEY=value\n"), 0o644))

	assert.Error(t, loadEnvFile(envFile))
}

func TestLoadEnvFile_NonExistentFile(t *testing.T) {
	assert.Error(t, loadEnvFile("/nonexistent/file/.env"))
}

func TestLoadEnvFile_ExistingEnvVarsNotOverwritten(t *testing.T) {
	t.Setenv("TA_TEST_VAR", "original-value")

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(`TA_TEST_VAR=new-value`), 0o644))

	require.NoError(t, loadEnvFile(envFile))
	assert.Equal(t, "original-value", os.Getenv("TA_TEST_VAR"))
}
