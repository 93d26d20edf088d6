package calllog

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, p *auth.Principal, q ListQuery) ([]*CallLog, error)
	Get(ctx context.Context, p *auth.Principal, id string) (*CallLog, error)
	Create(ctx context.Context, p *auth.Principal, dto CreateCallLogDTO) (*CallLog, error)
	Update(ctx context.Context, p *auth.Principal, id string, dto UpdateCallLogDTO) (*CallLog, error)
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

// ListCallLogs handles GET /call-logs
func (h *Handler) ListCallLogs(w http.ResponseWriter, r *http.Request) {
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

	logs, err := h.Service.List(r.Context(), p, ListQuery{
		CampaignID: r.URL.Query().Get("campaignId"),
		ContactID:  r.URL.Query().Get("contactId"),
		StartDate:  start,
		EndDate:    end,
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) GetCallLog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	c, err := h.Service.Get(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) CreateCallLog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateCallLogDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	c, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.Logger.Warn("CreateCallLog: failed", "user_id", p.UserID, "call_sid", dto.CallSid, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) UpdateCallLog(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateCallLogDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	c, err := h.Service.Update(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCallLog(w http.ResponseWriter, r *http.Request) {
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
