package middleware

import (
	"fmt"
	"net/http"

	"github.com/cloo-solutions/ragengine/internal/api"
)

// TooLargeMessage is the 413 error text for a body over limit bytes.
func TooLargeMessage(limit int64) string {
	return fmt.Sprintf("request body exceeds the %d byte limit", limit)
}

// MaxBodyBytes rejects bodies declared larger than limit up front and caps
// the rest with http.MaxBytesReader, so streamed uploads fail once they
// cross the limit. A limit <= 0 disables the check.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit {
				api.Error(w, http.StatusRequestEntityTooLarge, TooLargeMessage(limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
