package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
)

// RBACAuthorization gates whole routes on a single matrix flag or on the admin role.
type RBACAuthorization struct {
	*transport.BaseHandler
	checker PermissionChecker
	logger  *slog.Logger
}

func NewRBACAuthorization(checker PermissionChecker, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		BaseHandler: transport.NewBaseHandler(logger),
		checker:     checker,
		logger:      logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, resource permission.Resource, action permission.Action, deniedMessage string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			ra.logger.WarnContext(r.Context(), "authorization check failed: user not found in context")
			ra.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		if !ra.checker.HasPermission(r.Context(), user, resource, action) {
			ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.UserID,
				"resource", resource,
				"action", action)
			ra.WriteError(w, http.StatusForbidden, deniedMessage)
			return
		}

		next.ServeHTTP(w, r)
	}
}

// Require builds middleware for one resource/action pair.
func (ra *RBACAuthorization) Require(resource permission.Resource, action permission.Action, deniedMessage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, resource, action, deniedMessage)
	}
}

func (ra *RBACAuthorization) RequireAdmin(deniedMessage string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if !ra.checker.IsAdmin(r.Context(), user) {
				ra.logger.WarnContext(r.Context(), "access denied: admin role required", "user_id", user.UserID, "role", user.Role)
				ra.WriteError(w, http.StatusForbidden, deniedMessage)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
