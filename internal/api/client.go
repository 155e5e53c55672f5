package api

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
)

// ErrUnauthorized is returned (wrapped in *Error) when the API answers 401.
var ErrUnauthorized = errors.New("api: unauthorized")

const maxResponseBytes = 10 << 20

// Error is a non-2xx answer from the API.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string // message from the response envelope, may be empty
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Unwrap lets errors.Is(err, ErrUnauthorized) match 401 answers.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Message extracts the server-provided message from err, if any.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Session is the per-caller authentication context. The client reads the bearer token
// from it on every request and clears it when the API rejects the token.
type Session interface {
	Token(ctx context.Context) (*oauth2.Token, error)
	Clear(ctx context.Context)
}

// Options configures a Client.
type Options struct {
	Timeout        time.Duration
	UploadTimeout  time.Duration
	Session        Session
	OnUnauthorized func(ctx context.Context)
	Transport      http.RoundTripper
}

// Client talks to the news REST API.
type Client struct {
	baseURL        string
	http           *http.Client
	timeout        time.Duration
	uploadTimeout  time.Duration
	session        Session
	onUnauthorized func(ctx context.Context)
}

// New creates a Client for the API rooted at baseURL.
func New(baseURL string, opts Options) *Client {
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	if opts.Timeout == 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.UploadTimeout == 0 {
		opts.UploadTimeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Transport: otelhttp.NewTransport(transport),
		},
		timeout:        opts.Timeout,
		uploadTimeout:  opts.UploadTimeout,
		session:        opts.Session,
		onUnauthorized: opts.OnUnauthorized,
	}
}

type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	timeout     time.Duration
}

func (c *Client) jsonRequest(method, path string, payload interface{}) (request, error) {
	req := request{method: method, path: path}
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return req, fmt.Errorf("failed to encode %s %s payload: %w", method, path, err)
		}
		req.body = bytes.NewReader(b)
		req.contentType = "application/json"
	}
	return req, nil
}

// send performs r and returns the raw 2xx response body.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	timeout := r.timeout
	if timeout == 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target := c.baseURL + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, r.method, target, r.body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if c.session != nil {
		if tok, err := c.session.Token(ctx); err == nil && tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", r.method, r.path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.session != nil {
			c.session.Clear(ctx)
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{Method: r.method, Path: r.path, Status: resp.StatusCode, Message: envelopeMessage(body)}
	}

	var env envelope
	if json.Unmarshal(body, &env) == nil && env.Success != nil && !*env.Success {
		return nil, &Error{Method: r.method, Path: r.path, Status: resp.StatusCode, Message: env.Message}
	}
	return body, nil
}

// do performs r and decodes the payload into out (which may be nil).
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	body, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := decodePayload(body, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}

type envelope struct {
	Success    *bool           `json:"success"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
	TotalCount int             `json:"totalCount"`
}

func (e envelope) hasData() bool {
	return len(e.Data) > 0 && !bytes.Equal(e.Data, []byte("null"))
}

// decodePayload reads the "data" member of the envelope, falling back to the whole
// body for endpoints that answer without the wrapper.
func decodePayload(body []byte, out interface{}) error {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.hasData() {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(body, out)
}

func decodePage[T any](body []byte) (*Page[T], error) {
	page := &Page[T]{Page: 1, TotalPages: 1}
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && env.hasData() {
		if err := json.Unmarshal(env.Data, &page.Items); err != nil {
			return nil, err
		}
		if env.Page > 0 {
			page.Page = env.Page
		}
		if env.TotalPages > 0 {
			page.TotalPages = env.TotalPages
		}
		page.PageSize = env.PageSize
		page.TotalCount = env.TotalCount
		return page, nil
	}
	if err := json.Unmarshal(body, &page.Items); err != nil {
		return nil, err
	}
	page.TotalCount = len(page.Items)
	return page, nil
}

func envelopeMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	return env.Message
}
