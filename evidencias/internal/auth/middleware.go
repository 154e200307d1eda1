package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/transvepo/evidencias-stack/common/httputil"
)

type contextKey string

const subjectKey contextKey = "subject"

// Validator checks a bearer token.
type Validator interface {
	Validate(token string) (*Claims, error)
}

// RequireBearer rejects requests without a valid "Authorization: Bearer"
// token. The token subject is stored in the request context.
func RequireBearer(v Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="evidencias"`)
				httputil.WriteError(w, http.StatusUnauthorized, "Missing authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httputil.WriteError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := v.Validate(strings.TrimSpace(token))
			if err != nil {
				httputil.WriteError(w, http.StatusUnauthorized, "Invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), subjectKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Subject returns the authenticated operator, or "" for anonymous requests.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey).(string)
	return s
}
