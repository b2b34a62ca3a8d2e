// Package client is the authenticated REST client of the fuel tracker API.
//
// Every call makes exactly one attempt. Failures are returned as
// *apperror.Error values; nothing panics past this package.
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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/fuel-tracker/internal/apperror"
)

// Session is the token lifecycle the client depends on.
// *session.Manager implements it.
type Session interface {
	CurrentToken(ctx context.Context) (string, error)
	Login(ctx context.Context, token string) error
	Logout(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

// Client performs JSON requests against the API base URL.
type Client struct {
	baseURL string
	http    *http.Client
	session Session
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. The default is a
// zero-value http.Client, so no timeout is imposed beyond the transport's.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger. Defaults to the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a client for baseURL, e.g. "https://api.example.com/api".
func New(baseURL string, session Session, opts ...Option) (*Client, error) {
	if session == nil {
		return nil, errors.New("client: session is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("client: invalid base URL %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		session: session,
		log:     logrus.StandardLogger(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Get decodes the response of GET path into out.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

// Delete issues DELETE path. out may be nil when no body is expected.
func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

// do performs a single request. When out is nil the response body is not
// parsed.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return apperror.Validation(apperror.FieldError{Field: "body", Message: err.Error()})
		}
		reader = bytes.NewReader(data)
	}

	requestID := uuid.NewString()
	logger := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperror.Validation(apperror.FieldError{Field: "path", Message: err.Error()})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	token, err := c.session.CurrentToken(ctx)
	if err != nil {
		logger.WithError(err).Warn("Failed to read session token, sending request without credentials")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithError(err).Error("Request failed before a response was received")
		return apperror.Network(err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		logger.WithError(err).Error("Failed to read response body")
		return apperror.Network(err)
	}

	logger = logger.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": c.now().Sub(start),
	})

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		if err := c.session.Invalidate(ctx); err != nil {
			logger.WithError(err).Error("Failed to clear expired session token")
		}
		if token != "" {
			logger.Warn("Session expired")
		}
		return apperror.SessionExpired()

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(payload, &msg)
		logger.WithField("message", msg.Message).Warn("Request rejected by server")
		return apperror.RequestFailed(resp.StatusCode, msg.Message)
	}

	logger.Debug("Request completed")
	if out == nil {
		return nil
	}
	if trimmed := bytes.TrimSpace(payload); len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return apperror.MalformedResponse(errors.New("empty response body"))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperror.MalformedResponse(err)
	}
	return nil
}

// segment escapes one path segment such as an id.
func segment(s string) string {
	return url.PathEscape(s)
}

func requireID(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation(apperror.FieldError{Field: field, Message: "is required"})
	}
	return nil
}

var errNoData = errors.New("no data received")
