package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears variables for the test; t.Setenv restores them afterwards.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "BACKEND_URL", "BACKEND_KEY", "BACKEND_DRIVER", "ADMIN_ACCESS_KEY",
		"HTTP_SERVER_PORT", "GRPC_SERVER_PORT", "PRESENCE_INTERVAL", "CAROUSEL_AUTOPLAY", "CAROUSEL_TRANSITION")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HttpServer.Port)
	assert.Equal(t, "9090", cfg.GrpcServer.Port)
	assert.Equal(t, DriverREST, cfg.Backend.Driver)
	assert.False(t, cfg.Backend.Configured(), "missing credentials must not count as configured")
	assert.Equal(t, 10*time.Second, cfg.Presence.Interval)
	assert.Equal(t, 6*time.Second, cfg.Carousel.Autoplay)
	assert.Equal(t, 500*time.Millisecond, cfg.Carousel.Transition)
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("BACKEND_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKEND_DRIVER")
}

func TestLoad_AccessKeyNeedsSecret(t *testing.T) {
	unsetEnv(t, "BACKEND_DRIVER", "ADMIN_TOKEN_SECRET")
	t.Setenv("ADMIN_ACCESS_KEY", "open-sesame")

	_, err := Load()
	require.Error(t, err)
}

func TestBackendConfig_Configured(t *testing.T) {
	assert.True(t, BackendConfig{Driver: DriverREST, URL: "https://x.example.co", Key: "k"}.Configured())
	assert.False(t, BackendConfig{Driver: DriverREST, URL: "https://placeholder.example.co", Key: "k"}.Configured())
	assert.False(t, BackendConfig{Driver: DriverPostgres, URL: "https://x.example.co", Key: "k"}.Configured())
	assert.True(t, BackendConfig{Driver: DriverPostgres, PostgresDSN: "postgres://u@h/db"}.Configured())
}

func TestLoadProfile_Default(t *testing.T) {
	p, err := LoadProfile("")

	require.NoError(t, err)
	assert.Equal(t, "CB BUSINESS", p.StoreName)
	assert.Equal(t, "258820386282", p.ContactDigits())
	assert.Len(t, p.Categories, 7)
	require.NotEmpty(t, p.PaymentMethods)
	assert.Equal(t, "M-pesa", p.PaymentMethods[0].Name)
}

func TestLoadProfile_Override(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store_name: Loja Teste\ncategories: [Educação]\n"), 0o600))

	p, err := LoadProfile(path)

	require.NoError(t, err)
	assert.Equal(t, "Loja Teste", p.StoreName)
	assert.Equal(t, []string{"Educação"}, p.Categories)
	assert.Equal(t, "MT", p.Currency, "fields absent from the file keep defaults")
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
