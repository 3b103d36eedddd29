package http

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fairmed-lab/fairmed/pkg/utils/logging"
)

const (
	requestIDHeader    = "X-Request-Id"
	maxRequestIDLength = 128
)

// requestID propagates the caller's X-Request-Id, or assigns a new one, and
// attaches a logger tagged with it to the request context
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		logger := logging.Default().With("request_id", id)
		ctx := logging.With(r.Context(), logger)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
