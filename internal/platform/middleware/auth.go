package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	id "basket/pkg/domain"
	"basket/pkg/requestcontext"
)

// TokenClaims is what the auth middleware needs from a validated token.
type TokenClaims struct {
	UserID id.UserID
	Admin  bool
	JTI    string
}

// TokenValidator validates a bearer token string and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*TokenClaims, error)
}

// RevocationChecker reports whether a token has been revoked by its JTI.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

// RequireAuth parses the Authorization header, validates the bearer token and
// injects the principal into the request context. Requests with missing,
// invalid or revoked tokens never reach the handler.
func RequireAuth(validator TokenValidator, revocations RevocationChecker, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeUnauthorized(w, "missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", requestID,
					"error", err,
				)
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			if revocations != nil {
				revoked, err := revocations.IsRevoked(ctx, claims.JTI)
				if err != nil {
					logger.ErrorContext(ctx, "revocation check failed",
						"request_id", requestID,
						"error", err,
					)
					// Fail closed: an unverifiable token grants nothing.
					writeUnauthorized(w, "invalid or expired token")
					return
				}
				if revoked {
					logger.WarnContext(ctx, "unauthorized access - revoked token",
						"request_id", requestID,
					)
					writeUnauthorized(w, "invalid or expired token")
					return
				}
			}

			ctx = requestcontext.WithUserID(ctx, claims.UserID)
			ctx = requestcontext.WithAdmin(ctx, claims.Admin)
			ctx = requestcontext.WithTokenID(ctx, claims.JTI)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
