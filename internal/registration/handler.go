package registration

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/transport"
)

type ServiceAPI interface {
	Register(ctx context.Context, dto RegisterDTO) (*Account, error)
	Signup(ctx context.Context, dto SignupDTO) (int, error)
	VerifySignup(ctx context.Context, dto VerifyDTO) (*Account, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(lg), Service: svc}
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto RegisterDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	account, err := h.Service.Register(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Register: failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"user": account})
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var dto SignupDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	queueLength, err := h.Service.Signup(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("Signup: failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message":     "Verification code sent",
		"queueLength": queueLength,
	})
}

func (h *Handler) VerifySignup(w http.ResponseWriter, r *http.Request) {
	var dto VerifyDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	account, err := h.Service.VerifySignup(r.Context(), dto)
	if err != nil {
		h.Logger.Warn("VerifySignup: failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Email verified successfully",
		"user":    account,
	})
}
