// Package env reads the handful of settings needed before config.Load runs
// or that hosting platforms inject under their own names.
package env

import (
	"os"
	"strings"
)

// Get returns the first non-blank value among keys, else fallback.
func Get(fallback string, keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return fallback
}
