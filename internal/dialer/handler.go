package dialer

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	Passthrough(ctx context.Context, req StartCallRequest) (int, interface{}, error)
	Start(ctx context.Context, toNumber string) (map[string]interface{}, error)
	CallContact(ctx context.Context, p *auth.Principal, campaignID, contactID string) (*CallResult, error)
	CampaignCallLogs(ctx context.Context, p *auth.Principal, campaignID string) ([]CallLogItem, error)
	CampaignTranscript(ctx context.Context, p *auth.Principal, campaignID, callSid string) (map[string]interface{}, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(lg), Service: svc}
}

// StartCall handles POST /calls/start_call
func (h *Handler) StartCall(w http.ResponseWriter, r *http.Request) {
	var req StartCallRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, r, err)
		return
	}

	status, body, err := h.Service.Passthrough(r.Context(), req)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, status, body)
}

// Start handles POST /calls/start
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartCallRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleError(w, r, err)
		return
	}

	doc, err := h.Service.Start(r.Context(), req.ToNumber)
	if err != nil {
		h.Logger.Warn("Start: call failed", "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, doc)
}

// CallContact handles POST /campaigns/{id}/contacts/{contactId}/call
func (h *Handler) CallContact(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.Service.CallContact(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "contactId"))
	if err != nil {
		h.Logger.Warn("CallContact: failed", "user_id", p.UserID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) CampaignCallLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	items, err := h.Service.CampaignCallLogs(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"callLogs": items})
}

func (h *Handler) CampaignTranscript(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	doc, err := h.Service.CampaignTranscript(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "callSid"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, doc)
}
