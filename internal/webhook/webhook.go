// Package webhook provides a sample handler.Handler that fires an HTTP
// request for each run — the one concrete job kind cmd/agenda registers so
// the engine has something to execute, and a template for writing other
// handlers against the same interface.
package webhook

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/agendahq/agenda-go/internal/requestid"
)

// Payload is the decoded form of a webhook job's document data.
// TimeoutSeconds is a plain number rather than a time.Duration so a
// document's JSON data ({"timeoutSeconds": 30}) round-trips as 30
// seconds instead of being read as 30 nanoseconds.
type Payload struct {
	Method         string            `json:"method"`
	URL            string            `json:"url"`
	Headers        map[string]string `json:"headers"`
	Body           string            `json:"body"`
	TimeoutSeconds int               `json:"timeoutSeconds"`
}

func (p Payload) timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// Handler fires one HTTP request per run, adapted from the teacher's
// executor client configuration (TLS floor, redirect cap, connection
// pooling) but wired as a handler.Handler instead of a scheduler-internal
// type.
type Handler struct {
	client *http.Client
	logger *slog.Logger
}

const name = "webhook"

func New(logger *slog.Logger) *Handler {
	return &Handler{
		client: &http.Client{
			Timeout: 5 * time.Minute,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				return nil
			},
		},
		logger: logger.With("component", "webhook"),
	}
}

func (h *Handler) Name() string { return name }

// DecodePayload turns a document's generic data map into a typed Payload.
func (h *Handler) DecodePayload(data map[string]any) (any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal webhook payload: %w", err)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal webhook payload: %w", err)
	}
	if p.Method == "" {
		p.Method = http.MethodGet
	}
	if p.URL == "" {
		return nil, fmt.Errorf("webhook payload missing url")
	}
	if p.TimeoutSeconds <= 0 {
		p.TimeoutSeconds = 30
	}
	return p, nil
}

func (h *Handler) Execute(ctx context.Context, payload any) error {
	p, ok := payload.(Payload)
	if !ok {
		return fmt.Errorf("webhook handler received unexpected payload type %T", payload)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	var bodyReader io.Reader
	if p.Body != "" {
		bodyReader = strings.NewReader(p.Body)
	}

	req, err := http.NewRequestWithContext(ctx, p.Method, p.URL, bodyReader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range p.Headers {
		req.Header.Set(k, v)
	}

	reqID := requestid.New()
	req.Header.Set("X-Request-ID", reqID)
	ctx = requestid.WithRequestID(ctx, reqID)

	start := time.Now()
	h.logger.InfoContext(ctx, "sending webhook request", "method", p.Method, "url", p.URL)

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.ErrorContext(ctx, "webhook request failed", "error", err, "duration", time.Since(start))
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	h.logger.InfoContext(ctx, "webhook response received", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
