package middleware

import (
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
)

// UserContext adds the caller's role and tenant to the request logger. It must
// run after the auth middleware.
func UserContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.UserFromContext(r.Context())
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		ctx := logger.With(r.Context(), "role", p.Role, "tenantID", p.TenantID())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
