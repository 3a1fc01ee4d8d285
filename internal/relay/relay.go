// Package relay performs the single outbound clip submission and normalizes
// its outcome into a clip.Result.
package relay

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/clipper/internal/clip"
	"github.com/hpungsan/clipper/internal/config"
)

// maxResponseBytes caps how much of the endpoint's reply is read.
const maxResponseBytes = 1 << 20

// RequestIDHeader carries a per-submission ULID to the endpoint.
const RequestIDHeader = "X-Request-ID"

// Relay posts clips to the configured endpoint.
type Relay struct {
	endpoint  string
	timeout   time.Duration
	userAgent string
	client    *http.Client
	logger    *zap.Logger
	newID     func() string
}

// Option configures a Relay.
type Option func(*Relay)

// WithHTTPClient sets the HTTP client used for submissions.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) { r.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Relay) { r.logger = l }
}

// WithVersion sets the version reported in the User-Agent header.
func WithVersion(v string) Option {
	return func(r *Relay) { r.userAgent = "clipper/" + v }
}

// New creates a Relay for cfg.Endpoint.
// Returns ENDPOINT_NOT_CONFIGURED if the endpoint is missing or invalid.
func New(cfg *config.Config, opts ...Option) (*Relay, error) {
	if err := cfg.ValidateEndpoint(); err != nil {
		return nil, err
	}
	r := &Relay{
		endpoint:  cfg.Endpoint,
		timeout:   cfg.RequestTimeout(),
		userAgent: "clipper/dev",
		client:    http.DefaultClient,
		logger:    zap.NewNop(),
		newID:     newRequestID,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Endpoint returns the URL clips are posted to.
func (r *Relay) Endpoint() string {
	return r.endpoint
}

// Submit starts the submission of pending on its own goroutine.
// Exactly one Result is delivered on the returned channel.
func (r *Relay) Submit(ctx context.Context, pending clip.PendingClip) <-chan clip.Result {
	ch := make(chan clip.Result, 1)
	go func() {
		ch <- r.Clip(ctx, pending.SourceURL, pending.SelectedText)
	}()
	return ch
}

// Clip POSTs {url, text} to the endpoint and waits for the reply.
// Every failure is reported in the Result; Clip never retries.
func (r *Relay) Clip(ctx context.Context, url, text string) clip.Result {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	requestID := r.newID()
	log := r.logger.With(zap.String("request_id", requestID), zap.String("endpoint", r.endpoint))

	body, err := json.Marshal(clip.Request{URL: url, Text: text})
	if err != nil {
		return clip.Failed(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return clip.Failed(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		log.Warn("clip request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return clip.Failed(err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("reading clip response failed", zap.Error(err), zap.Int("status", resp.StatusCode))
		return clip.Failed(fmt.Sprintf("read response: %v", err))
	}

	result := interpret(resp, data)
	if result.Success {
		log.Info("clip stored",
			zap.Int("status", resp.StatusCode),
			zap.Int("chars", clip.CountChars(text)),
			zap.Duration("elapsed", time.Since(start)))
	} else {
		log.Warn("clip rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("error", result.Error),
			zap.Duration("elapsed", time.Since(start)))
	}
	return result
}

// interpret maps an HTTP reply to a Result.
// 2xx replies must carry JSON; the "message" field is passed through.
// Non-2xx replies fail with the body's "error" or "message" field, or the HTTP status.
func interpret(resp *http.Response, data []byte) clip.Result {
	var payload any
	jsonErr := json.Unmarshal(data, &payload)
	fields, _ := payload.(map[string]any)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if msg := stringField(fields, "error"); msg != "" {
			return clip.Failed(msg)
		}
		if msg := stringField(fields, "message"); msg != "" {
			return clip.Failed(msg)
		}
		return clip.Failed("HTTP " + resp.Status)
	}

	if jsonErr != nil {
		return clip.Failed(fmt.Sprintf("invalid JSON response: %v", jsonErr))
	}
	return clip.Succeeded(stringField(fields, "message"))
}

// stringField returns m[key] as a string, formatting non-string values.
func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

// newRequestID returns a fresh ULID.
func newRequestID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
