package middleware

import (
	"net/http"
	"time"

	"basket/pkg/requestcontext"
)

// RequestTime pins a single instant for the whole request. Every recency
// stamp taken during one request observes the same clock reading, so a list
// and its touched parent can never disagree about when a mutation happened.
func RequestTime(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
