package config

import "time"

type APIConfig interface {
	GetAPIBaseURL() string
	GetRequestTimeout() time.Duration
}

type API struct{}

var _ APIConfig = API{}

// GetAPIBaseURL returns the REST backend root, e.g. "http://localhost:3000/api"
func (API) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", "http://localhost:3000/api")
}

func (API) GetRequestTimeout() time.Duration {
	return GetEnvDuration("API_REQUEST_TIMEOUT", 30*time.Second)
}
