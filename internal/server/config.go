// config.go - Immutable process configuration.
//
// Everything is read from the environment exactly once at startup,
// validated, and then passed by value into the components that need it.
// Nothing here mutates at runtime; the signing secret in particular is
// process-wide read-only material.
package server

import (
	"os"
	"strconv"
	"time"
)

// Defaults for the tunable TTLs and cost parameters.
const (
	defaultSessionTTLMinutes   = 30
	defaultVerificationTTLSecs = 3600
	defaultSigningAlgorithm    = "HS256"
)

// Config is the full configuration surface consumed by the exchange.
type Config struct {
	Addr    string
	BaseURL string

	DatabaseURL string

	// SigningSecret signs both token namespaces. Required, no default.
	SigningSecret    []byte
	SigningAlgorithm string

	SessionTTL      time.Duration
	VerificationTTL time.Duration
	BcryptCost      int

	S3    S3Config
	Email EmailConfig
}

// S3Config locates the object storage holding file contents.
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
}

// LoadConfig reads and validates configuration from the environment.
// Validation errors are collected and reported together so a misconfigured
// deployment fails fast with one complete message.
func LoadConfig() (Config, error) {
	if err := ValidateAllConfiguration(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Addr:             getenvDefault("SFX_ADDR", ":8080"),
		BaseURL:          getenvDefault("SFX_BASE_URL", "http://localhost:8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SigningSecret:    []byte(os.Getenv("SFX_SECRET_KEY")),
		SigningAlgorithm: getenvDefault("SFX_ALGORITHM", defaultSigningAlgorithm),
		SessionTTL:       time.Duration(getenvInt("SFX_SESSION_TTL_MINUTES", defaultSessionTTLMinutes)) * time.Minute,
		VerificationTTL:  time.Duration(getenvInt("SFX_VERIFICATION_TTL_SECONDS", defaultVerificationTTLSecs)) * time.Second,
		BcryptCost:       getenvInt("SFX_BCRYPT_COST", defaultBcryptCost),
		S3: S3Config{
			Endpoint:  os.Getenv("SFX_S3_ENDPOINT"),
			AccessKey: os.Getenv("SFX_S3_ACCESS_KEY"),
			SecretKey: os.Getenv("SFX_S3_SECRET_KEY"),
			Bucket:    os.Getenv("SFX_BUCKET"),
		},
		Email: LoadEmailConfig(),
	}
	return cfg, nil
}

// getenvDefault reads an environment variable with a fallback.
func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

// getenvInt reads an integer environment variable with a fallback.
// Non-numeric values are caught earlier by validation.
func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
