package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/cloo-solutions/ragengine/internal/api"
	"github.com/cloo-solutions/ragengine/internal/domain"
)

type contextKey string

const ClientKey contextKey = "client"

// TokenValidator resolves a bearer token to the name of the calling client.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (string, error)
}

// StaticTokenValidator accepts a single configured token.
type StaticTokenValidator struct {
	Token  string
	Client string
}

func (v StaticTokenValidator) ValidateToken(_ context.Context, token string) (string, error) {
	if v.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(v.Token)) != 1 {
		return "", domain.ErrInvalidAPIToken
	}
	if v.Client == "" {
		return "default", nil
	}
	return v.Client, nil
}

func BearerAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			client, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid api token")
				return
			}

			ctx := context.WithValue(r.Context(), ClientKey, client)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetClient(ctx context.Context) string {
	client, _ := ctx.Value(ClientKey).(string)
	return client
}
