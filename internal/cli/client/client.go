package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/auburnhacks/sponsor-portal/internal/session"
)

const requestIDHeader = "X-Request-ID"

// Client represents an HTTP client for the sponsor portal Auth API
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ session.AuthAPI = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger requests are traced to
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a new API client for the server at baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx answer from the Auth API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
}

// IsStatus reports whether err is an APIError with the given status code
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := ulid.Make().String()
	req.Header.Set(requestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Err(err).
			Msg("Auth API request failed")
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("Auth API request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func transportError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", session.ErrNetworkTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", session.ErrNetworkTimeout, err)
	}
	return fmt.Errorf("%w: %w", session.ErrNetwork, err)
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(data))
	if err := json.Unmarshal(data, &payload); err == nil && payload.Error != "" {
		msg = payload.Error
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}

// login posts credentials and decodes {<field>: identity, token}
func (c *Client) login(ctx context.Context, path, field string, body any) (*session.LoginResult, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodPost, path, "", body, &raw); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %s", session.ErrAuth, apiErr.Message)
		}
		if errors.Is(err, session.ErrNetwork) || errors.Is(err, session.ErrNetworkTimeout) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: malformed login response: %w", session.ErrAuth, err)
	}

	var res session.LoginResult
	if err := json.Unmarshal(raw["token"], &res.Token); err != nil {
		return nil, fmt.Errorf("%w: login response has no token", session.ErrAuth)
	}
	if err := json.Unmarshal(raw[field], &res.Identity); err != nil {
		return nil, fmt.Errorf("%w: login response has no %s", session.ErrAuth, field)
	}
	return &res, nil
}

// LoginAdmin authenticates an admin account
func (c *Client) LoginAdmin(ctx context.Context, email, password string) (*session.LoginResult, error) {
	return c.login(ctx, "/admin/login", "admin", map[string]string{
		"email":    email,
		"password": password,
	})
}

// LoginSponsor authenticates a sponsor account
func (c *Client) LoginSponsor(ctx context.Context, email, password string) (*session.LoginResult, error) {
	return c.login(ctx, "/sponsor/login", "sponsor", map[string]string{
		"email":               email,
		"password_plain_text": password,
	})
}

// LookupAdmin succeeds when the admin exists and token may see it
func (c *Client) LookupAdmin(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodGet, "/admin/"+url.PathEscape(id), token, nil, nil)
}

// LookupSponsor succeeds when the sponsor exists and token may see it
func (c *Client) LookupSponsor(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodGet, "/sponsor/"+url.PathEscape(id)+"/info", token, nil, nil)
}
