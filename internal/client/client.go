package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/zhouzirui/moodflow/backend/internal/model/content"
	"github.com/zhouzirui/moodflow/backend/internal/model/session"
)

// APIError is returned for any non-2xx response from the session API.
type APIError struct {
	Status  int
	Message string
	Details []string
}

func (e *APIError) Error() string {
	if len(e.Details) > 0 {
		return fmt.Sprintf("api error %d: %s (%s)", e.Status, e.Message, strings.Join(e.Details, "; "))
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the moodflow HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds every request. Zero leaves requests bounded only by their context.
// The HTTP client itself is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.timeout = d
		}
	}
}

// WithLogger attaches a logger for request tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client rooted at baseURL, e.g. http://localhost:8080.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type createRequest struct {
	Mood      session.Mood `json:"mood"`
	Step      session.Step `json:"step"`
	Completed bool         `json:"completed"`
}

// CreateSession opens a session for mood at step 1.
func (c *Client) CreateSession(ctx context.Context, mood session.Mood) (session.Session, error) {
	var out session.Session
	body := createRequest{Mood: mood, Step: session.StepFirst, Completed: false}
	err := c.do(ctx, http.MethodPost, "/api/sessions", body, &out)
	return out, err
}

// UpdateSession sends a partial update for id.
func (c *Client) UpdateSession(ctx context.Context, id int64, patch session.Patch) (session.Session, error) {
	var out session.Session
	err := c.do(ctx, http.MethodPatch, "/api/sessions/"+strconv.FormatInt(id, 10), patch, &out)
	return out, err
}

// GetSession fetches a single session.
func (c *Client) GetSession(ctx context.Context, id int64) (session.Session, error) {
	var out session.Session
	err := c.do(ctx, http.MethodGet, "/api/sessions/"+strconv.FormatInt(id, 10), nil, &out)
	return out, err
}

// ListSessions returns every session.
func (c *Client) ListSessions(ctx context.Context) ([]session.Session, error) {
	return c.list(ctx, "/api/sessions")
}

// ListByMood returns sessions started with mood.
func (c *Client) ListByMood(ctx context.Context, mood session.Mood) ([]session.Session, error) {
	return c.list(ctx, "/api/sessions/mood/"+url.PathEscape(string(mood)))
}

// ListByStep returns sessions currently at step.
func (c *Client) ListByStep(ctx context.Context, step session.Step) ([]session.Session, error) {
	return c.list(ctx, "/api/sessions/step/"+strconv.Itoa(int(step)))
}

// ListCompleted returns completed sessions.
func (c *Client) ListCompleted(ctx context.Context) ([]session.Session, error) {
	return c.list(ctx, "/api/sessions/completed")
}

// Moods returns the moods the server offers content for.
func (c *Client) Moods(ctx context.Context) ([]session.Mood, error) {
	var out []session.Mood
	err := c.do(ctx, http.MethodGet, "/api/moods", nil, &out)
	return out, err
}

// Content fetches the scripted messages for (mood, step).
func (c *Client) Content(ctx context.Context, mood session.Mood, step session.Step) ([]content.Message, error) {
	var out []content.Message
	path := fmt.Sprintf("/api/content/%s/%d", url.PathEscape(string(mood)), step)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) list(ctx context.Context, path string) ([]session.Session, error) {
	var out []session.Session
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []session.Session{}
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("requestID", requestID),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("request completed",
		zap.String("requestID", requestID),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		apiErr.Message = body.Error
		apiErr.Details = body.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
