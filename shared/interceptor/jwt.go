package interceptor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vasapolrittideah/jobfeed-api/shared/auth"
)

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrInvalidAuthorization = errors.New("invalid authorization header format")
)

// TokenParser validates a session token and returns its claims.
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// VerificationChecker reports whether the account behind userID has confirmed its email.
type VerificationChecker interface {
	IsVerified(ctx context.Context, userID string) (bool, error)
}

type contextKey struct{}

var UserClaimsKey = contextKey{}

// WithClaims returns a copy of ctx carrying claims.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, UserClaimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireAuth or OptionalAuth.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*auth.Claims)
	return claims, ok && claims != nil
}

// RequireAuth rejects requests without a valid bearer token.
func RequireAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, parser)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "You are not authorized to perform this action")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth attaches claims when a valid bearer token is present.
// Requests with a missing or invalid token continue anonymously.
func OptionalAuth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := extractAndValidateJWT(r, parser)
			if err == nil {
				r = r.WithContext(WithClaims(r.Context(), claims))
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireVerified must run after RequireAuth.
func RequireVerified(checker VerificationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "You are not authorized to perform this action")
				return
			}

			verified, err := checker.IsVerified(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "You are not authorized to perform this action")
				return
			}
			if !verified {
				writeError(w, http.StatusForbidden, "Check your email for account verification")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", ErrInvalidAuthorization
	}

	return parts[1], nil
}

func extractAndValidateJWT(r *http.Request, parser TokenParser) (*auth.Claims, error) {
	tokenString, err := BearerToken(r)
	if err != nil {
		return nil, err
	}

	return parser.ParseToken(tokenString)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  status,
		"message": message,
	})
}
