// config_validation.go - Startup validation of the environment surface.
//
// Collects every problem before reporting so a misconfigured deployment
// fails fast with one clear message rather than dying on the first
// runtime use.
package server

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// ConfigValidationError represents a single configuration problem.
type ConfigValidationError struct {
	Field   string
	Message string
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// ConfigValidator accumulates validation errors.
type ConfigValidator struct {
	errors []ConfigValidationError
}

// NewConfigValidator creates an empty validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{errors: make([]ConfigValidationError, 0)}
}

// AddError records a validation error.
func (v *ConfigValidator) AddError(field, message string) {
	v.errors = append(v.errors, ConfigValidationError{Field: field, Message: message})
}

// HasErrors reports whether any validation errors were recorded.
func (v *ConfigValidator) HasErrors() bool {
	return len(v.errors) > 0
}

// ErrorString formats every recorded error into one message.
func (v *ConfigValidator) ErrorString() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(v.errors)))
	for i, err := range v.errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidateRequired checks that a required environment variable is set.
func (v *ConfigValidator) ValidateRequired(key string) string {
	value := os.Getenv(key)
	if value == "" {
		v.AddError(key, "required environment variable not set")
	}
	return value
}

// ValidateURL checks that a non-empty value parses as an http(s) URL.
func (v *ConfigValidator) ValidateURL(key, value string) {
	if value == "" {
		return
	}
	parsed, err := url.Parse(value)
	if err != nil {
		v.AddError(key, fmt.Sprintf("invalid URL format: %v", err))
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		v.AddError(key, "URL must use http or https scheme")
	}
}

// ValidatePort checks a ":port" or "host:port" listen address.
func (v *ConfigValidator) ValidatePort(key, value string) {
	if value == "" {
		return
	}
	portStr := value
	if i := strings.LastIndexByte(value, ':'); i >= 0 {
		portStr = value[i+1:]
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		v.AddError(key, "port must be a number")
		return
	}
	if port < 1 || port > 65535 {
		v.AddError(key, "port must be between 1 and 65535")
	}
}

// ValidateMinLength checks a minimum string length on non-empty values.
func (v *ConfigValidator) ValidateMinLength(key, value string, minLen int) {
	if value == "" {
		return
	}
	if len(value) < minLen {
		v.AddError(key, fmt.Sprintf("must be at least %d characters long (got %d)", minLen, len(value)))
	}
}

// ValidateEnum checks that a non-empty value is one of the allowed options.
func (v *ConfigValidator) ValidateEnum(key, value string, allowed []string) {
	if value == "" {
		return
	}
	for _, opt := range allowed {
		if value == opt {
			return
		}
	}
	v.AddError(key, fmt.Sprintf("must be one of: %s (got: %s)", strings.Join(allowed, ", "), value))
}

// ValidatePositiveInt checks that a non-empty value is a positive integer.
func (v *ConfigValidator) ValidatePositiveInt(key, value string) {
	if value == "" {
		return
	}
	num, err := strconv.Atoi(value)
	if err != nil {
		v.AddError(key, "must be a valid integer")
		return
	}
	if num <= 0 {
		v.AddError(key, "must be a positive integer")
	}
}

// ValidateAllConfiguration validates the whole environment surface.
func ValidateAllConfiguration() error {
	v := NewConfigValidator()

	// The signing secret has no default anywhere: refusing to start is
	// the only safe behavior.
	secret := v.ValidateRequired("SFX_SECRET_KEY")
	v.ValidateMinLength("SFX_SECRET_KEY", secret, 32)

	// Only HMAC-SHA256 is implemented; the tag exists so a future
	// rotation to another algorithm is an explicit config change.
	v.ValidateEnum("SFX_ALGORITHM", os.Getenv("SFX_ALGORITHM"), []string{"HS256"})

	dbURL := v.ValidateRequired("DATABASE_URL")
	if dbURL != "" && !strings.HasPrefix(dbURL, "postgres://") && !strings.HasPrefix(dbURL, "postgresql://") {
		v.AddError("DATABASE_URL", "must be a valid PostgreSQL connection string")
	}

	if addr := os.Getenv("SFX_ADDR"); addr != "" {
		v.ValidatePort("SFX_ADDR", addr)
	}
	if baseURL := os.Getenv("SFX_BASE_URL"); baseURL != "" {
		v.ValidateURL("SFX_BASE_URL", baseURL)
	}

	v.ValidatePositiveInt("SFX_SESSION_TTL_MINUTES", os.Getenv("SFX_SESSION_TTL_MINUTES"))
	v.ValidatePositiveInt("SFX_VERIFICATION_TTL_SECONDS", os.Getenv("SFX_VERIFICATION_TTL_SECONDS"))
	v.ValidatePositiveInt("SFX_BCRYPT_COST", os.Getenv("SFX_BCRYPT_COST"))

	if endpoint := os.Getenv("SFX_S3_ENDPOINT"); endpoint != "" && strings.Contains(endpoint, "://") {
		v.ValidateURL("SFX_S3_ENDPOINT", endpoint)
	}

	if smtpPort := os.Getenv("SFX_SMTP_PORT"); smtpPort != "" {
		v.ValidatePositiveInt("SFX_SMTP_PORT", smtpPort)
	}

	if maxUpload := os.Getenv("SFX_MAX_UPLOAD_BYTES"); maxUpload != "" {
		v.ValidatePositiveInt("SFX_MAX_UPLOAD_BYTES", maxUpload)
	}

	if v.HasErrors() {
		return fmt.Errorf("%s", v.ErrorString())
	}
	return nil
}
