package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is populated from the environment. The two secrets are required;
// everything else has workable defaults for local development.
type Config struct {
	// InviteTokenSecret keys the HMAC fingerprint of invite tokens.
	InviteTokenSecret string `env:"INVITE_TOKEN_SECRET"`

	// JWTSecret signs stateless access tokens (HS256).
	JWTSecret string `env:"JWT_SECRET"`

	Issuer string        `env:"AUTH_ISSUER" envDefault:"authgate"`
	JWTTTL time.Duration `env:"JWT_TTL" envDefault:"12h"`

	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"4h"`

	// SessionBackend selects where sessions live: "memory" or "redis".
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"memory"`
	RedisAddr      string `env:"REDIS_ADDR" envDefault:"localhost:6379"`

	// IdentityMode selects the account backend: "local" or "federated".
	IdentityMode string `env:"IDENTITY_MODE" envDefault:"local"`
	DirectoryURL string `env:"DIRECTORY_URL"`
	DirectoryKey string `env:"DIRECTORY_API_KEY"`

	// BootstrapOwnerEmail, when set, seeds an owner account at startup if
	// the user table is empty. Local identity mode only.
	BootstrapOwnerEmail    string `env:"BOOTSTRAP_OWNER_EMAIL"`
	BootstrapOwnerName     string `env:"BOOTSTRAP_OWNER_NAME" envDefault:"Owner"`
	BootstrapOwnerPassword string `env:"BOOTSTRAP_OWNER_PASSWORD"`

	DatabaseFile string `env:"AUTH_DATABASE_FILE" envDefault:"auth.db"`
	PepperFile   string `env:"AUTH_PEPPER_FILE" envDefault:"pepper"`

	// CookieSecure should only be disabled for plain-HTTP local setups.
	CookieSecure bool `env:"COOKIE_SECURE" envDefault:"true"`

	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.InviteTokenSecret == "" {
		return errors.New("INVITE_TOKEN_SECRET is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	switch c.SessionBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}

	if c.BootstrapOwnerEmail != "" && c.BootstrapOwnerPassword == "" {
		return errors.New("BOOTSTRAP_OWNER_PASSWORD is required when BOOTSTRAP_OWNER_EMAIL is set")
	}

	switch c.IdentityMode {
	case "local":
	case "federated":
		if c.DirectoryURL == "" {
			return errors.New("DIRECTORY_URL is required in federated identity mode")
		}
	default:
		return fmt.Errorf("unknown identity mode %q", c.IdentityMode)
	}

	return nil
}
