package campaign

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

type ServiceAPI interface {
	List(ctx context.Context, p *auth.Principal) ([]*Campaign, error)
	Create(ctx context.Context, p *auth.Principal, dto CreateCampaignDTO) (*Campaign, error)
	Get(ctx context.Context, p *auth.Principal, id string) (*Campaign, error)
	Update(ctx context.Context, p *auth.Principal, id string, dto UpdateCampaignDTO) (*Campaign, error)
	Delete(ctx context.Context, p *auth.Principal, id string) error
	Messages(ctx context.Context, p *auth.Principal, id string) (Messages, error)
	UpdateMessages(ctx context.Context, p *auth.Principal, id string, dto UpdateMessagesDTO) (Messages, error)
	Employees(ctx context.Context, p *auth.Principal, id string) ([]AssignedEmployee, error)
	AssignEmployee(ctx context.Context, p *auth.Principal, id string, dto AssignEmployeeDTO) ([]AssignedEmployee, error)
	UnassignEmployee(ctx context.Context, p *auth.Principal, id, employeeID string) error
	Contacts(ctx context.Context, p *auth.Principal, id string) ([]*Member, error)
	AddContact(ctx context.Context, p *auth.Principal, id string, dto AddContactDTO) (*Member, bool, error)
	RemoveContact(ctx context.Context, p *auth.Principal, id, contactID string) error
	Leads(ctx context.Context, p *auth.Principal, id string) ([]*Lead, error)
	Stats(ctx context.Context, p *auth.Principal, id string) (*Stats, error)
	Appointments(ctx context.Context, p *auth.Principal, id string, q AppointmentQuery) (*AppointmentPage, error)
	CalendarEvents(ctx context.Context, p *auth.Principal, id string, start, end time.Time) ([]CalendarEvent, error)
	ScheduledCalls(ctx context.Context, p *auth.Principal, id string) ([]*ScheduledCall, error)
	ScheduleCall(ctx context.Context, p *auth.Principal, id string, dto ScheduleCallDTO) (*ScheduledCall, error)
	CancelScheduledCall(ctx context.Context, p *auth.Principal, id, callID string) error
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

// ListCampaigns handles GET /campaigns
func (h *Handler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	campaigns, err := h.Service.List(r.Context(), p)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, campaigns)
}

// CreateCampaign handles POST /campaigns
func (h *Handler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateCampaignDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	c, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.Logger.Warn("CreateCampaign: failed", "user_id", p.UserID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetCampaign(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateCampaignDTO
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

func (h *Handler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
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

// GetSettings handles GET /campaigns/{id}/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	m, err := h.Service.Messages(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateMessagesDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	m, err := h.Service.UpdateMessages(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	employees, err := h.Service.Employees(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, employees)
}

func (h *Handler) AssignEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto AssignEmployeeDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	employees, err := h.Service.AssignEmployee(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, employees)
}

func (h *Handler) UnassignEmployee(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.Service.UnassignEmployee(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "employeeId")); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.NoContent(w)
}

// ListContacts handles GET /campaigns/{id}/contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	members, err := h.Service.Contacts(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, members)
}

// AddContact answers 201 when a contact was created and 200 when an existing one was linked.
func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto AddContactDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	member, created, err := h.Service.AddContact(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	h.WriteJSON(w, status, member)
}

func (h *Handler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.Service.RemoveContact(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "contactId")); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.NoContent(w)
}

func (h *Handler) ListLeads(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	leads, err := h.Service.Leads(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, leads)
}

func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	stats, err := h.Service.Stats(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, stats)
}

// ListAppointments handles GET /campaigns/{id}/appointments
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

	page, err := h.Service.Appointments(r.Context(), p, chi.URLParam(r, "id"), AppointmentQuery{
		Status:    r.URL.Query().Get("status"),
		StartDate: start,
		EndDate:   end,
		Page:      transport.QueryInt(r, "page", 1),
		Limit:     transport.QueryInt(r, "limit", defaultAppointmentLimit),
	})
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}

// CalendarEvents handles GET /campaigns/{id}/calendar-events?start=&end=
func (h *Handler) CalendarEvents(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("start") == "" || r.URL.Query().Get("end") == "" {
		h.HandleError(w, r, ErrDatesRequired)
		return
	}
	start, err := transport.QueryTime(r, "start")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}
	end, err := transport.QueryTime(r, "end")
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	events, err := h.Service.CalendarEvents(r.Context(), p, chi.URLParam(r, "id"), *start, *end)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (h *Handler) ListScheduledCalls(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	calls, err := h.Service.ScheduledCalls(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, calls)
}

func (h *Handler) ScheduleCall(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto ScheduleCallDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	sc, err := h.Service.ScheduleCall(r.Context(), p, chi.URLParam(r, "id"), dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, sc)
}

func (h *Handler) CancelScheduledCall(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	if err := h.Service.CancelScheduledCall(r.Context(), p, chi.URLParam(r, "id"), chi.URLParam(r, "callId")); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.NoContent(w)
}
