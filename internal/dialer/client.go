package dialer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/frahmantamala/dialer-dashboard/internal"
)

var (
	ErrNotConfigured      = errors.New("dialer base url is not configured")
	ErrTranscriptNotFound = errors.New("transcript not found")
)

// Response is the dialer's raw answer.
type Response struct {
	Status int
	Body   []byte
}

func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// JSON decodes the body, or reports false when it is not JSON.
func (r *Response) JSON() (map[string]interface{}, bool) {
	var out map[string]interface{}
	if err := json.Unmarshal(r.Body, &out); err != nil {
		return nil, false
	}
	return out, true
}

type StartCallRequest struct {
	ToNumber       string  `json:"to_number"`
	SystemMessage  *string `json:"system_message,omitempty"`
	InitialMessage *string `json:"initial_message,omitempty"`
}

// TranscriptSummary is one entry of /all_transcripts.
type TranscriptSummary struct {
	ID          TranscriptID `json:"id"`
	CallSid     string       `json:"call_sid"`
	PhoneNumber string       `json:"phone_number"`
	LastUpdated string       `json:"last_updated"`
}

// TranscriptID is the dialer's transcript id, sent either as a string or a number.
type TranscriptID string

func (id *TranscriptID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*id = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TranscriptID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return fmt.Errorf("transcript id: %w", err)
		}
		*id = TranscriptID(n.String())
	}
	return nil
}

// Client talks to the AI dialer over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

func NewClient(cfg internal.DialerConfig, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != ""
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}) (*Response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal dialer request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read dialer response: %w", err)
	}

	c.logger.Debug("dialer request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())
	return &Response{Status: resp.StatusCode, Body: data}, nil
}

func (c *Client) StartCall(ctx context.Context, req StartCallRequest) (*Response, error) {
	return c.do(ctx, http.MethodPost, "/start_call", req)
}

func (c *Client) AllTranscripts(ctx context.Context) ([]TranscriptSummary, error) {
	resp, err := c.do(ctx, http.MethodGet, "/all_transcripts", nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("dialer returned status %d", resp.Status)
	}

	var out struct {
		Transcripts []TranscriptSummary `json:"transcripts"`
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode transcripts: %w", err)
	}
	return out.Transcripts, nil
}

// Transcript returns the dialer document for callSid with the transcript
// normalised to an array; the dialer sometimes sends it JSON-encoded.
func (c *Client) Transcript(ctx context.Context, callSid string) (map[string]interface{}, error) {
	resp, err := c.do(ctx, http.MethodGet, "/transcript/"+url.PathEscape(callSid), nil)
	if err != nil {
		return nil, err
	}
	if resp.Status == http.StatusNotFound {
		return nil, ErrTranscriptNotFound
	}
	if !resp.OK() {
		return nil, fmt.Errorf("dialer returned status %d", resp.Status)
	}

	doc, ok := resp.JSON()
	if !ok {
		return nil, errors.New("failed to decode transcript")
	}
	if raw, isString := doc["transcript"].(string); isString {
		var parsed []interface{}
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode transcript: %w", err)
		}
		doc["transcript"] = parsed
	}
	if doc["transcript"] == nil {
		doc["transcript"] = []interface{}{}
	}
	return doc, nil
}

// CallSid reads the call identifier under any of the names the dialer uses.
func CallSid(doc map[string]interface{}) string {
	for _, key := range []string{"call_sid", "callSid", "sid"} {
		if v, ok := doc[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
