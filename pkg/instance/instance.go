package instance

import "os"

// GetID identifies this daemon in logs: CAMPUSMARKET_INSTANCE_ID, then the
// hostname, then "marketd-0".
func GetID() string {
	if id := os.Getenv("CAMPUSMARKET_INSTANCE_ID"); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "marketd-0"
}
