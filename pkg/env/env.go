package env

import (
	"os"
	"strings"
)

const prefix = "PIZZERIA_"

// Get returns the first non-blank value among key and PIZZERIA_<key>, or
// fallback when neither is set.
func Get(key, fallback string) string {
	for _, name := range []string{key, prefix + key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
