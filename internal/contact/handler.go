package contact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/transport"
	"github.com/go-chi/chi"
)

const maxUploadSize = 10 << 20

type ServiceAPI interface {
	List(ctx context.Context, p *auth.Principal, q ListQuery) (*ListResult, error)
	Create(ctx context.Context, p *auth.Principal, dto CreateContactDTO) (*Contact, error)
	Update(ctx context.Context, p *auth.Principal, id string, dto UpdateContactDTO) (*Contact, error)
	Delete(ctx context.Context, p *auth.Principal, id string) error
	Export(ctx context.Context, p *auth.Principal, w io.Writer, q ListQuery, campaignID string) error
	Import(ctx context.Context, p *auth.Principal, r io.Reader, campaignID string) (*ImportResult, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
	now     func() time.Time
}

func NewHandler(svc ServiceAPI, lg *slog.Logger) *Handler {
	return &Handler{BaseHandler: transport.NewBaseHandler(lg), Service: svc, now: time.Now}
}

var errNoFile = internal.NewValidationError("No file uploaded", internal.ErrCodeInvalidRequest)

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, ok := auth.UserFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "Unauthorized")
	}
	return p, ok
}

func listQuery(r *http.Request) ListQuery {
	q := r.URL.Query()
	return ListQuery{
		Search: q.Get("search"),
		Tags:   SplitTags(q.Get("tags")),
		Page:   transport.QueryInt(r, "page", 1),
	}
}

// ListContacts handles GET /contacts
func (h *Handler) ListContacts(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	result, err := h.Service.List(r.Context(), p, listQuery(r))
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) CreateContact(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto CreateContactDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}

	c, err := h.Service.Create(r.Context(), p, dto)
	if err != nil {
		h.Logger.Warn("CreateContact: failed", "user_id", p.UserID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, c)
}

// UpdateContact serves both PUT /contacts/{id} and PUT /contacts with the id in the body.
func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var dto UpdateContactDTO
	if err := h.DecodeJSON(r, &dto); err != nil {
		h.HandleError(w, r, err)
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		id = dto.ID
	}

	c, err := h.Service.Update(r.Context(), p, id, dto)
	if err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, c)
}

// DeleteContact serves DELETE /contacts/{id} and DELETE /contacts?id=
func (h *Handler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		id = r.URL.Query().Get("id")
	}

	if err := h.Service.Delete(r.Context(), p, id); err != nil {
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"message": "Contact deleted successfully"})
}

func (h *Handler) ExportContacts(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "", "contacts")
}

// ExportCampaignContacts handles GET /campaigns/{id}/contacts/export
func (h *Handler) ExportCampaignContacts(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, chi.URLParam(r, "id"), "campaign-contacts")
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, campaignID, prefix string) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.Service.Export(r.Context(), p, &buf, listQuery(r), campaignID); err != nil {
		h.HandleError(w, r, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", prefix, h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) ImportContacts(w http.ResponseWriter, r *http.Request) {
	h.importFile(w, r, "")
}

// ImportCampaignContacts handles POST /campaigns/{id}/contacts/import
func (h *Handler) ImportCampaignContacts(w http.ResponseWriter, r *http.Request) {
	h.importFile(w, r, chi.URLParam(r, "id"))
}

func (h *Handler) importFile(w http.ResponseWriter, r *http.Request, campaignID string) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			h.HandleError(w, r, errNoFile)
			return
		}
		h.HandleError(w, r, errNoFile.WithCause(err))
		return
	}
	defer file.Close()

	result, err := h.Service.Import(r.Context(), p, file, campaignID)
	if err != nil {
		h.Logger.Warn("ImportContacts: failed", "user_id", p.UserID, "campaign_id", campaignID, "error", err)
		h.HandleError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}
