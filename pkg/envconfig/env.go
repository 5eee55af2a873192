package envconfig

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Get returns the value of the requested environment variable or the supplied fallback when empty.
func Get(name string, fallback string) string {
	if value, ok := os.LookupEnv(name); ok && value != "" {
		return value
	}
	return fallback
}

// GetDuration parses a Go duration string ("90s", "5m") and falls back on absent or malformed input.
func GetDuration(name string, fallback time.Duration) time.Duration {
	raw := Get(name, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Validate validates a struct using validator tags.
func Validate(v any) error {
	return validate.Struct(v)
}
