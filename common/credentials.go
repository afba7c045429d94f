package common

import (
	"os"
)

const (
	EnvAPIToken      = "STOCKPULSE_API_TOKEN"
	EnvRESTBaseURL   = "STOCKPULSE_REST_URL"
	EnvStreamBaseURL = "STOCKPULSE_STREAM_URL"

	DefaultRESTBaseURL   = "https://finnhub.io/api/v1"
	DefaultStreamBaseURL = "wss://ws.finnhub.io"
)

type APIKey struct {
	Token string
}

// Credentials returns the user's API token for use through the SDK.
func Credentials() *APIKey {
	return &APIKey{
		Token: os.Getenv(EnvAPIToken),
	}
}

// RESTBaseURL returns the REST base URL, honoring the environment override.
func RESTBaseURL() string {
	if s := os.Getenv(EnvRESTBaseURL); s != "" {
		return s
	}
	return DefaultRESTBaseURL
}

// StreamBaseURL returns the trade stream base URL, honoring the environment override.
func StreamBaseURL() string {
	if s := os.Getenv(EnvStreamBaseURL); s != "" {
		return s
	}
	return DefaultStreamBaseURL
}
