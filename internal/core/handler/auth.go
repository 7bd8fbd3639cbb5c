package handler

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	apperrors "wallet-service/internal/core/errors"
)

// AdminOnly guards review routes with a static bearer token. An empty token
// leaves authorization to whatever sits in front of the service.
func AdminOnly(token string) func(http.Handler) http.Handler {
	if token == "" {
		return func(next http.Handler) http.Handler { return next }
	}

	want := sha256.Sum256([]byte(token))
	base := &BaseHandler{}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			got := sha256.Sum256([]byte(strings.TrimSpace(presented)))

			if !ok || subtle.ConstantTimeCompare(got[:], want[:]) != 1 {
				w.Header().Set("WWW-Authenticate", `Bearer realm="wallet-admin"`)
				base.RespondWithException(w, r, apperrors.Unauthorized(
					apperrors.WithMessage("a valid admin bearer token is required"),
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
