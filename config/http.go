package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// BaseURL is the base URL of the API (e.g., "https://api.example.com").
	BaseURL string `env:"APP_BASE_URL" envDefault:"http://localhost:8080"`

	// ClientBaseURL is the frontend origin login redirects return to.
	ClientBaseURL string `env:"CLIENT_BASE_URL" envDefault:"http://localhost:5173"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	h.BaseURL = strings.TrimRight(h.BaseURL, "/")
	h.ClientBaseURL = strings.TrimRight(h.ClientBaseURL, "/")
}
