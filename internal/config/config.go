// Package config reads the admin server and CLI settings from METABOX_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/goliatone/go-metabox/pkg/security"
)

// Config holds every setting the binary reads. Cobra flags override the
// parsed values.
type Config struct {
	Addr string `env:"METABOX_ADDR" envDefault:":8080"`
	// DB is a sqlite path. Empty keeps everything in memory.
	DB string `env:"METABOX_DB"`
	// Definitions is a directory of box definition files.
	Definitions string `env:"METABOX_DEFINITIONS"`
	// NonceSecret signs nonces. Empty generates a per-process secret.
	NonceSecret string        `env:"METABOX_NONCE_SECRET"`
	NonceTTL    time.Duration `env:"METABOX_NONCE_TTL" envDefault:"24h"`

	UserID    int64  `env:"METABOX_USER_ID" envDefault:"1"`
	UserLogin string `env:"METABOX_USER_LOGIN" envDefault:"admin"`
	UserRole  string `env:"METABOX_USER_ROLE" envDefault:"administrator"`

	LogLevel string `env:"METABOX_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("config: METABOX_ADDR is required"))
	}
	if c.NonceTTL <= 0 {
		errs = append(errs, fmt.Errorf("config: METABOX_NONCE_TTL must be positive, got %s", c.NonceTTL))
	}
	if c.NonceSecret != "" && len(c.NonceSecret) < 16 {
		errs = append(errs, errors.New("config: METABOX_NONCE_SECRET must be at least 16 bytes"))
	}
	if _, ok := security.ParseRole(c.UserRole); !ok {
		errs = append(errs, fmt.Errorf("config: unknown METABOX_USER_ROLE %q", c.UserRole))
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("config: METABOX_LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// User is the signed-in user every request and terminal edit runs as.
func (c Config) User() (security.User, error) {
	role, ok := security.ParseRole(c.UserRole)
	if !ok {
		return security.User{}, fmt.Errorf("config: unknown role %q", c.UserRole)
	}
	return security.User{ID: c.UserID, Login: c.UserLogin, Role: role}, nil
}

// Nonces builds the nonce signer, generating a secret when none is set.
func (c Config) Nonces() (*security.JWTNonces, error) {
	secret := []byte(c.NonceSecret)
	if len(secret) == 0 {
		generated, err := security.RandomSecret()
		if err != nil {
			return nil, fmt.Errorf("config: nonce secret: %w", err)
		}
		secret = generated
	}
	return security.NewJWTNonces(secret, security.WithNonceTTL(c.NonceTTL))
}

// Logger builds a production zap logger at LogLevel.
func (c Config) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("config: log level: %w", err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("config: build logger: %w", err)
	}
	return logger, nil
}
