// Package api provides a REST client for the learning platform backend.
// It hides the JSON envelope, bearer authentication and error shapes behind
// typed methods returning domain values.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/robby/learnhub/internal/auth"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// RequestIDHeader carries a per-request UUID for backend log correlation.
const RequestIDHeader = "X-Request-ID"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 10 << 20

// Client is a REST API client for the learning platform backend.
type Client struct {
	http    *http.Client
	baseURL string
	session *auth.Session
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for baseURL. session may be nil for anonymous use.
func New(baseURL string, session *auth.Session, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session the client authenticates with.
func (c *Client) Session() *auth.Session {
	return c.session
}

// newRequest builds a request against the base URL.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends payload (may be nil) as JSON and returns the decoded envelope.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, payload interface{}) (gjson.Result, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return gjson.Result{}, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return gjson.Result{}, err
	}
	return c.send(req)
}

// send attaches authentication (outside public routes) and a request ID, executes the request and
// maps the response onto either the envelope or an *Error.
func (c *Client) send(req *http.Request) (gjson.Result, error) {
	// Applicant-facing screens never send credentials
	if c.session != nil && !c.session.OnPublicRoute() {
		if token := c.session.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	log := c.logger.With(
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return gjson.Result{}, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		log.Warn("failed to read response", zap.Error(err))
		return gjson.Result{}, fmt.Errorf("%w: failed to read response: %v", ErrNetwork, err)
	}

	log.Debug("request completed",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	var envelope gjson.Result
	if gjson.ValidBytes(raw) {
		envelope = gjson.ParseBytes(raw)
	}

	failed := envelope.Get("success").Exists() && !envelope.Get("success").Bool()
	if resp.StatusCode >= 400 || failed {
		apiErr := newError(resp.StatusCode, envelope)
		if resp.StatusCode == http.StatusUnauthorized && c.session != nil {
			expired, expErr := c.session.Expire()
			apiErr.SessionExpired = expired
			if expErr != nil {
				log.Warn("failed to clear expired session", zap.Error(expErr))
			}
		}
		log.Warn("request rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", apiErr.Message),
		)
		return gjson.Result{}, apiErr
	}

	return envelope, nil
}
