package instance

import "os"

// GetID returns the process instance identifier used in log fields.
func GetID() string {
	for _, key := range []string{"INSTANCE_ID", "DYNO", "WORKER_ID"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "local"
}
