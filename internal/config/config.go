package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Backend drivers understood by BACKEND_DRIVER.
const (
	DriverREST     = "rest"
	DriverPostgres = "postgres"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // e.g., development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // e.g., debug, info, warn, error
	HttpServer ServerConfig
	GrpcServer GrpcServerConfig
	Backend    BackendConfig
	Generator  GeneratorConfig
	Access     AccessConfig
	Storefront StorefrontConfig
	Presence   PresenceConfig
	Carousel   CarouselConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// GrpcServerConfig holds gRPC server-specific configurations. The gRPC listener only serves
// the standard health and reflection services.
type GrpcServerConfig struct {
	Port string `envconfig:"GRPC_SERVER_PORT" default:"9090"`
}

// BackendConfig points at the hosted backend. Leaving it empty is allowed: the service then
// runs disconnected and read-only instead of failing to start.
type BackendConfig struct {
	Driver      string `envconfig:"BACKEND_DRIVER" default:"rest"` // rest or postgres
	URL         string `envconfig:"BACKEND_URL"`
	Key         string `envconfig:"BACKEND_KEY"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`
}

// Configured reports whether enough settings are present to reach the backend.
func (bc BackendConfig) Configured() bool {
	switch bc.Driver {
	case DriverPostgres:
		return bc.PostgresDSN != ""
	default:
		return bc.URL != "" && bc.Key != "" && !strings.Contains(bc.URL, "placeholder")
	}
}

// GeneratorConfig configures the text generator. An empty key disables it; suggestions then
// return the fallback text.
type GeneratorConfig struct {
	APIKey string `envconfig:"GEMINI_API_KEY"`
	Model  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash"`
}

// AccessConfig configures the admin access gate. With no access key every login is rejected.
type AccessConfig struct {
	AdminKey    string        `envconfig:"ADMIN_ACCESS_KEY"`
	TokenSecret string        `envconfig:"ADMIN_TOKEN_SECRET"`
	TokenTTL    time.Duration `envconfig:"ADMIN_TOKEN_TTL" default:"8h"`
}

// StorefrontConfig holds public-facing settings.
type StorefrontConfig struct {
	PublicBaseURL string        `envconfig:"PUBLIC_BASE_URL" default:"http://localhost:8080"`
	SessionTTL    time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	ProfilePath   string        `envconfig:"PROFILE_PATH"` // optional YAML merchant profile override
}

// PresenceConfig tunes the simulated live-visitor counter.
type PresenceConfig struct {
	Interval time.Duration `envconfig:"PRESENCE_INTERVAL" default:"10s"`
}

// CarouselConfig tunes the promotional carousel rotation.
type CarouselConfig struct {
	Autoplay   time.Duration `envconfig:"CAROUSEL_AUTOPLAY" default:"6s"`
	Transition time.Duration `envconfig:"CAROUSEL_TRANSITION" default:"500ms"`
}

// Load initializes the configuration from environment variables.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}

	switch cfg.Backend.Driver {
	case DriverREST, DriverPostgres:
	default:
		return nil, fmt.Errorf("invalid BACKEND_DRIVER: %q (want %s or %s)", cfg.Backend.Driver, DriverREST, DriverPostgres)
	}
	if cfg.Access.AdminKey != "" && cfg.Access.TokenSecret == "" {
		return nil, fmt.Errorf("ADMIN_TOKEN_SECRET is required when ADMIN_ACCESS_KEY is set")
	}
	return &cfg, nil
}
