package appointment

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, p *auth.Principal, q ListQuery) ([]*Appointment, error)
	Get(ctx context.Context, p *auth.Principal, id string) (*Appointment, error)
	Create(ctx context.Context, p *auth.Principal, dto CreateAppointmentDTO) (*Appointment, error)
	Update(ctx context.Context, p *auth.Principal, id string, dto UpdateAppointmentDTO) (*Appointment, error)
	Delete(ctx context.Context, p *auth.Principal, id string) error
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

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	start, err := transport.QueryTime(r, "startDate")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	end, err := transport.QueryTime(r, "endDate")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	appts, err := h.Service.List(r.Context(), p, ListQuery{
		CampaignID: r.URL.Query().Get("campaignId"),
		ContactID:  r.URL.Query().Get("contactId"),
		Status:     r.URL.Query().Get("status"),
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, appts)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	a, err := h.Service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateAppointmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	a, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.Logger.Warn("CreateAppointment: failed", "user_id", p.UserID, "campaign_id", dto.CampaignID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, a)
}

func (h *Handler) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateAppointmentDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	a, err := h.Service.Update(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), p, chi.URLParam(r, "id")); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.NoContent(w)
}
