package main

import (
	"context"
	"net/http"

	"github.com/gofrs/uuid/v5"
)

const requestIDHeader = "X-Request-Id"

type contextKey string

const requestIDKey contextKey = "request_id"

// requestIDMiddleware tags every request with an id so log lines from one
// game client's submit/check sequence can be tied together. A caller-supplied
// id is kept; otherwise one is minted and echoed back.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.Must(uuid.NewV4()).String()
			w.Header().Set(requestIDHeader, reqID)
		}
		ctx := context.WithValue(r.Context(), requestIDKey, reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}
