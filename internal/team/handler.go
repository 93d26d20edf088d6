package team

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	ListEmployees(ctx context.Context, p *auth.Principal) ([]*Member, error)
	CreateEmployee(ctx context.Context, p *auth.Principal, dto CreateEmployeeDTO) (*Member, error)
	UpdateEmployee(ctx context.Context, p *auth.Principal, employeeID string, dto UpdateEmployeeDTO) (*Member, error)
	DeleteEmployee(ctx context.Context, p *auth.Principal, employeeID string) error
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(lg), Service: svc}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return p, ok
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	members, err := h.Service.ListEmployees(r.Context(), p)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, members)
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	member, err := h.Service.CreateEmployee(r.Context(), p, dto)
	if err != nil {
		h.Logger.Warn("CreateEmployee: failed", "admin_id", p.UserID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, member)
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	member, err := h.Service.UpdateEmployee(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, member)
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.Service.DeleteEmployee(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.NoContent(w)
}
