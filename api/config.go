// Package api provides the HTTP API server for the Fable narrative service.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8080")
	ListenAddr string

	// Upstream is the base URL of the model server (e.g., "http://localhost:11434")
	Upstream string

	// APIKey is the bearer token sent to the upstream, when required.
	APIKey string
}
