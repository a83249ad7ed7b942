// Package env reads the few settings needed before config.Load runs.
package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when unset or blank.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		if val = strings.TrimSpace(val); val != "" {
			return val
		}
	}
	return fallback
}
