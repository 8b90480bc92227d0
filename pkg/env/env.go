package env

import (
	"os"
	"strings"
)

// Get reads key from the process environment. Unset or blank values fall back
// to the provided default.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && strings.TrimSpace(val) != "" {
		return val
	}
	return fallback
}
