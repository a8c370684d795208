// Package security provides response hardening and client IP resolution for
// the API surface.
package security

import "net/http"

// HeadersConfig holds security and CORS header configuration.
type HeadersConfig struct {
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string

	// CORS. The mobile client runs on a different origin, so the API
	// defaults to a permissive policy.
	AllowOrigin  string
	AllowMethods string
	AllowHeaders string
}

// DefaultHeadersConfig returns defaults for a bearer-token JSON API.
func DefaultHeadersConfig() HeadersConfig {
	return HeadersConfig{
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",

		AllowOrigin:  "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Authorization, Content-Type",
	}
}

// Headers applies security and CORS headers to responses.
type Headers struct {
	config HeadersConfig
}

func NewHeaders(config HeadersConfig) *Headers {
	return &Headers{config: config}
}

// Apply sets the configured headers. It returns true when the request was a
// CORS preflight that has been fully answered.
func (h *Headers) Apply(w http.ResponseWriter, r *http.Request) bool {
	headers := w.Header()

	headers.Set("X-Content-Type-Options", h.config.XContentTypeOptions)
	headers.Set("X-Frame-Options", h.config.XFrameOptions)
	headers.Set("Referrer-Policy", h.config.ReferrerPolicy)

	headers.Set("Access-Control-Allow-Origin", h.config.AllowOrigin)
	headers.Set("Access-Control-Allow-Methods", h.config.AllowMethods)
	headers.Set("Access-Control-Allow-Headers", h.config.AllowHeaders)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}
