package dialer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
	"github.com/frahmantamala/dialer-dashboard/internal/auth"
	"github.com/frahmantamala/dialer-dashboard/internal/calllog"
	"github.com/frahmantamala/dialer-dashboard/internal/campaign"
	"github.com/frahmantamala/dialer-dashboard/internal/contact"
	"github.com/frahmantamala/dialer-dashboard/internal/core/events"
	"github.com/frahmantamala/dialer-dashboard/internal/core/permission"
)

type Caller interface {
	Configured() bool
	StartCall(ctx context.Context, req StartCallRequest) (*Response, error)
	AllTranscripts(ctx context.Context) ([]TranscriptSummary, error)
	Transcript(ctx context.Context, callSid string) (map[string]interface{}, error)
}

type Store interface {
	// Campaign returns (nil, nil) when the campaign does not exist.
	Campaign(ctx context.Context, id string) (*CampaignInfo, error)
	// Target returns (nil, nil) when the contact is not linked to the campaign.
	Target(ctx context.Context, campaignID, contactID string) (*Target, error)
	// RecordCall stores the call log and bumps the link's attempts and last call time.
	RecordCall(ctx context.Context, c *calllog.CallLog) error

	// DueCalls claims up to limit pending calls due by now, moving them to DIALING.
	DueCalls(ctx context.Context, now time.Time, limit int) ([]*campaign.ScheduledCall, error)
	CompleteScheduled(ctx context.Context, id, callSid string) error
	// RetryScheduled puts the call back to PENDING, or FAILED when final.
	RetryScheduled(ctx context.Context, id string, attempts int, lastErr string, final bool) error
}

type Policy interface {
	AuthorizeCampaign(ctx context.Context, u *auth.Principal, c *auth.CampaignRef, action permission.Action) error
}

var (
	errMissingNumber  = internal.NewValidationError("Missing required field: to_number", internal.ErrCodeInvalidRequest)
	errPhoneRequired  = internal.NewValidationError("Phone number is required", internal.ErrCodeInvalidRequest)
	errNotConfigured  = internal.NewInternalError("AI Dialer URL is not configured", ErrNotConfigured)
	errInactive       = internal.NewValidationError("Campaign is not active", internal.ErrCodeCampaignInactive)
	errNotLinked      = internal.NewValidationError("Contact is not linked to this campaign", internal.ErrCodeInvalidRequest)
	errBlocked        = internal.NewValidationError("Contact is blocked", internal.ErrCodeContactBlocked)
	errNoCallLogs     = internal.NewForbiddenError("No permission to view call logs", internal.ErrCodePermissionDenied)
	errNoDownload     = internal.NewForbiddenError("No permission to download call logs", internal.ErrCodePermissionDenied)
	errDialerRejected = errors.New("dialer rejected the call")
)

type Service struct {
	caller    Caller
	store     Store
	policy    Policy
	publisher events.Publisher
	logger    *slog.Logger
}

func NewService(caller Caller, store Store, policy Policy, publisher events.Publisher, logger *slog.Logger) *Service {
	return &Service{caller: caller, store: store, policy: policy, publisher: publisher, logger: logger}
}

// Passthrough forwards a raw start_call and hands back the dialer's status and body.
// A body that is not JSON is wrapped as {error: body}.
func (s *Service) Passthrough(ctx context.Context, req StartCallRequest) (int, interface{}, error) {
	req.ToNumber = strings.TrimSpace(req.ToNumber)
	if req.ToNumber == "" {
		return 0, nil, errMissingNumber
	}

	resp, err := s.caller.StartCall(ctx, req)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return 0, nil, errNotConfigured
		}
		return 0, nil, internal.NewInternalError(err.Error(), err)
	}

	s.logger.InfoContext(ctx, "dialer start_call forwarded", "status", resp.Status)
	if doc, ok := resp.JSON(); ok {
		return resp.Status, doc, nil
	}
	msg := string(resp.Body)
	if msg == "" {
		msg = "Invalid response from AI-Dialer"
	}
	return resp.Status, internal.Response{Error: msg}, nil
}

// Start places a bare call to toNumber.
func (s *Service) Start(ctx context.Context, toNumber string) (map[string]interface{}, error) {
	toNumber = strings.TrimSpace(toNumber)
	if toNumber == "" {
		return nil, errPhoneRequired
	}
	if !s.caller.Configured() {
		return nil, errNotConfigured
	}

	resp, err := s.caller.StartCall(ctx, StartCallRequest{ToNumber: toNumber})
	if err != nil {
		return nil, internal.NewInternalError("Failed to initiate call: "+err.Error(), err)
	}
	if !resp.OK() {
		return nil, internal.NewInternalError("Failed to initiate call: "+string(resp.Body), errDialerRejected)
	}
	doc, ok := resp.JSON()
	if !ok {
		return nil, internal.NewInternalError("Failed to initiate call: invalid dialer response", errDialerRejected)
	}
	return doc, nil
}

// CallContact dials a campaign contact with the campaign's messages.
func (s *Service) CallContact(ctx context.Context, p *auth.Principal, campaignID, contactID string) (*CallResult, error) {
	info, err := s.store.Campaign(ctx, campaignID)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaign", err)
	}
	var ref *auth.CampaignRef
	if info != nil {
		ref = &auth.CampaignRef{ID: info.ID, AdminID: info.AdminID}
	}
	if err := s.policy.AuthorizeCampaign(ctx, p, ref, permission.ActionView); err != nil {
		return nil, err
	}

	result, err := s.dial(ctx, info, contactID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "campaign call started",
		"campaign_id", campaignID,
		"contact_id", contactID,
		"call_sid", result.CallLog.CallSid,
		"user_id", p.UserID)
	return result, nil
}

// dial runs the checks shared by interactive and scheduled calls, then places the call.
func (s *Service) dial(ctx context.Context, info *CampaignInfo, contactID string) (*CallResult, error) {
	if info.Status != campaign.StatusActive {
		return nil, errInactive
	}
	target, err := s.store.Target(ctx, info.ID, contactID)
	if err != nil {
		return nil, internal.NewInternalError("failed to fetch campaign contact", err)
	}
	if target == nil {
		return nil, errNotLinked
	}
	if target.Status == contact.StatusBlocked || target.LinkStatus == contact.StatusBlocked {
		return nil, errBlocked
	}
	if !s.caller.Configured() {
		return nil, errNotConfigured
	}

	resp, err := s.caller.StartCall(ctx, StartCallRequest{
		ToNumber:       target.Phone,
		SystemMessage:  info.SystemMessage,
		InitialMessage: info.InitialMessage,
	})
	if err != nil {
		return nil, internal.NewExternalError("Failed to initiate call", http.StatusBadGateway, err)
	}
	doc, _ := resp.JSON()
	if !resp.OK() {
		s.publish(ctx, events.NewCallFailedEvent(info.ID, contactID, string(resp.Body)))
		return nil, internal.NewExternalError("Failed to initiate call: "+string(resp.Body), http.StatusBadGateway, errDialerRejected)
	}
	sid := CallSid(doc)
	if sid == "" {
		s.publish(ctx, events.NewCallFailedEvent(info.ID, contactID, "missing call sid"))
		return nil, internal.NewExternalError("Dialer response did not include a call SID", http.StatusBadGateway, errDialerRejected)
	}

	now := time.Now().UTC()
	log := (&calllog.CallLog{
		CampaignID: info.ID,
		ContactID:  contactID,
		CallSid:    sid,
		Status:     calllog.StatusInitiated,
		StartedAt:  &now,
	}).WithAdminID(info.AdminID)
	if err := s.store.RecordCall(ctx, log); err != nil {
		if errors.Is(err, calllog.ErrDuplicateCallSid) {
			return nil, internal.NewConflictError("Call log with this call SID already exists", internal.ErrCodeDuplicateCallSid)
		}
		return nil, internal.NewInternalError("failed to record call", err)
	}
	log.Contact = &calllog.ContactSummary{ID: target.ContactID, Name: target.Name, Phone: target.Phone}

	s.publish(ctx, events.NewCallStartedEvent(log.ID, sid, info.ID, contactID))
	return &CallResult{CallLog: log, Dialer: doc}, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

// outcomeTimeout bounds the status write of a scheduled call once its dial context is gone.
const outcomeTimeout = 10 * time.Second

// DialScheduled places one claimed scheduled call and records the outcome.
// The outcome is written even when ctx was cancelled mid-call, so the row never stays DIALING.
func (s *Service) DialScheduled(ctx context.Context, sc *campaign.ScheduledCall, maxAttempts int) error {
	attempts := sc.Attempts + 1

	info, err := s.store.Campaign(ctx, sc.CampaignID)
	if err == nil && info == nil {
		err = internal.ErrCampaignNotFound
	}
	var result *CallResult
	if err == nil {
		result, err = s.dial(ctx, info, sc.ContactID)
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), outcomeTimeout)
	defer cancel()

	if err == nil {
		s.logger.InfoContext(ctx, "scheduled call placed", "scheduled_call_id", sc.ID, "call_sid", result.CallLog.CallSid)
		return s.store.CompleteScheduled(writeCtx, sc.ID, result.CallLog.CallSid)
	}

	final := attempts >= maxAttempts
	var appErr *internal.AppError
	switch {
	case ctx.Err() != nil:
		// cut off by shutdown: back to the queue whatever the count
		final = false
	case errors.As(err, &appErr) && appErr.StatusCode < 500:
		// a refused campaign or contact will not change by retrying
		final = true
	}
	s.logger.WarnContext(ctx, "scheduled call failed",
		"scheduled_call_id", sc.ID,
		"attempt", attempts,
		"final", final,
		"error", err)
	if final {
		s.publish(writeCtx, events.NewCallFailedEvent(sc.CampaignID, sc.ContactID, err.Error()))
	}
	return s.store.RetryScheduled(writeCtx, sc.ID, attempts, err.Error(), final)
}

func (s *Service) campaignFor(ctx context.Context, p *auth.Principal, campaignID string) error {
	info, err := s.store.Campaign(ctx, campaignID)
	if err != nil {
		return internal.NewInternalError("failed to fetch campaign", err)
	}
	var ref *auth.CampaignRef
	if info != nil {
		ref = &auth.CampaignRef{ID: info.ID, AdminID: info.AdminID}
	}
	return s.policy.AuthorizeCampaign(ctx, p, ref, permission.ActionView)
}

// CampaignCallLogs lists the dialer's transcripts as call log rows, newest first.
func (s *Service) CampaignCallLogs(ctx context.Context, p *auth.Principal, campaignID string) ([]CallLogItem, error) {
	if err := s.campaignFor(ctx, p, campaignID); err != nil {
		return nil, err
	}
	if !p.Can(permission.ResourceCallLogs, permission.ActionView) {
		return nil, errNoCallLogs
	}
	if !s.caller.Configured() {
		return nil, errNotConfigured
	}

	transcripts, err := s.caller.AllTranscripts(ctx)
	if err != nil {
		return nil, internal.NewInternalError("Failed to fetch transcripts", err)
	}

	items := make([]CallLogItem, 0, len(transcripts))
	for _, t := range transcripts {
		ts, err := parseTimestamp(t.LastUpdated)
		if err != nil {
			s.logger.WarnContext(ctx, "transcript with unreadable timestamp", "call_sid", t.CallSid, "last_updated", t.LastUpdated)
		}
		items = append(items, CallLogItem{
			ID:            string(t.ID),
			CallSid:       t.CallSid,
			PhoneNumber:   t.PhoneNumber,
			Timestamp:     ts,
			Status:        "completed",
			Duration:      "00:00",
			HasRecording:  true,
			HasTranscript: true,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Timestamp.After(items[j].Timestamp) })
	return items, nil
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02 15:04:05.999999"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unknown timestamp layout %q", raw)
}

// CampaignTranscript returns one transcript. The AI summary is removed for
// employees without aiSummary.view.
func (s *Service) CampaignTranscript(ctx context.Context, p *auth.Principal, campaignID, callSid string) (map[string]interface{}, error) {
	if err := s.campaignFor(ctx, p, campaignID); err != nil {
		return nil, err
	}
	if !p.Can(permission.ResourceCallLogs, permission.ActionDownload) {
		return nil, errNoDownload
	}
	if !s.caller.Configured() {
		return nil, errNotConfigured
	}

	doc, err := s.caller.Transcript(ctx, callSid)
	if err != nil {
		if errors.Is(err, ErrTranscriptNotFound) {
			return nil, internal.ErrTranscriptNotFound
		}
		return nil, internal.NewInternalError("Failed to fetch transcript", err)
	}
	if !p.Can(permission.ResourceAISummary, permission.ActionView) {
		delete(doc, "summary")
	}
	return doc, nil
}
