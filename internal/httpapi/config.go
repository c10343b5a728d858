package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes configures the maximum request body size. Non-positive restores 1 MiB.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// requestTimeout bounds how long a /predict or /recommend call may run.
// Zero means no additional timeout beyond server/connection timeouts.
var requestTimeout = int64(0) // seconds

// SetRequestTimeoutSeconds sets the request timeout in seconds (0 disables).
func SetRequestTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	requestTimeout = sec
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
// Empty methods or headers fall back to the ones the API needs.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// Per-client rate limiting (opt-in).
var (
	rateLimitRequests int
	rateLimitWindow   time.Duration
)

// SetRateLimit limits each client IP to requests per window. requests <= 0 disables.
func SetRateLimit(requests int, window time.Duration) {
	if window <= 0 {
		window = time.Minute
	}
	rateLimitRequests = requests
	rateLimitWindow = window
}
