package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/frahmantamala/dialer-dashboard/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (*LoginResult, error)
	RefreshTokens(ctx context.Context, refreshToken string) (*AuthTokens, error)
	Logout(ctx context.Context, userID string) error
	Authorize(ctx context.Context, accessToken string) (*Principal, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	result, err := h.Service.Authenticate(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Login: authentication failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	if appErr := dto.Validate(); appErr != nil {
		h.HandleError(w, r, appErr)
		return
	}

	tokens, err := h.Service.RefreshTokens(r.Context(), dto.RefreshToken)
	if err != nil {
		h.Logger.Warn("RefreshToken: token refresh failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrUnauthorized)
		return
	}

	if err := h.Service.Logout(r.Context(), user.UserID); err != nil {
		h.Logger.Error("Logout: failed to revoke sessions", "user_id", user.UserID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.NoContent(w)
}

// Me returns the current principal with its role, tenant and permission matrix.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.HandleError(w, r, internal.ErrUnauthorized)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.ExtractTokenFromHeader(r)
		if token == "" {
			h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		principal, err := h.Service.Authorize(r.Context(), token)
		if err != nil {
			if appErr, ok := internal.IsAppError(err); ok && appErr.StatusCode < http.StatusInternalServerError {
				h.Logger.Debug("auth middleware: token rejected", "error", err)
				h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			h.HandleError(w, r, err)
			return
		}

		ctx := WithPrincipal(r.Context(), principal)
		ctx = internal.ContextWithUserID(ctx, principal.UserID)
		ctx = logger.With(ctx, "userID", principal.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
