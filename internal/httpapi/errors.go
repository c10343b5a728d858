package httpapi

import (
	"context"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"sentirec/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// publicMessager is implemented by errors whose Error() carries internal
// detail that must not reach clients.
type publicMessager interface {
	PublicMessage() string
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusForError maps a service error to an HTTP status and client message.
func statusForError(err error) (int, string) {
	var he HTTPError
	if errors.As(err, &he) {
		var pm publicMessager
		if errors.As(err, &pm) {
			return he.StatusCode(), pm.PublicMessage()
		}
		return he.StatusCode(), he.Error()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusInternalServerError, "request timed out"
	}
	return http.StatusInternalServerError, "internal error"
}
