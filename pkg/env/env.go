package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// First returns the first trimmed, non-empty value among the provided keys.
func First(keys ...string) string {
	return FirstFrom(os.LookupEnv, keys...)
}

// FirstFrom is First over an arbitrary lookup function.
func FirstFrom(lookup func(string) (string, bool), keys ...string) string {
	if lookup == nil {
		return ""
	}
	for _, key := range keys {
		if val, ok := lookup(key); ok {
			if trimmed := strings.TrimSpace(val); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}
