package instance

import (
	"os"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/env"
)

const envInstanceID = "PORTAL_INSTANCE_ID"

// ID names this process in logs: PORTAL_INSTANCE_ID, else the hostname.
func ID() string {
	if id := env.Get(envInstanceID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "portal-0"
}
