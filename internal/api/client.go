// Package api is the single point of outbound request construction for the
// Nullscape backend: base URL, bearer token from cookie storage, request ids,
// request logging and error normalisation.
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

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/and161185/nullscape-admin/internal/cookies"
	"github.com/and161185/nullscape-admin/internal/model"
)

// DefaultTimeout bounds a single HTTP exchange.
const DefaultTimeout = 30 * time.Second

// Response is a successful (2xx) reply.
type Response struct {
	Status int
	Header http.Header
	Data   json.RawMessage
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	if len(r.Data) == 0 {
		return errors.New("empty response body")
	}
	return json.Unmarshal(r.Data, v)
}

// DecodeAs unmarshals a response into a fresh T, passing through err.
func DecodeAs[T any](r *Response, err error) (T, error) {
	var out T
	if err != nil {
		return out, err
	}
	if err := r.Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// Client talks to the backend.
type Client struct {
	baseURL     string
	hc          *http.Client
	jar         cookies.Store
	log         *zap.Logger
	autoRefresh bool
	refreshes   singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Its transport is wrapped for logging.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.hc = &cp
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *zap.Logger) Option { return func(c *Client) { c.log = l } }

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(c *Client) { c.hc.Timeout = d } }

// WithAutoRefresh enables a single refresh-and-retry on the first 401 of a request.
// Concurrent failures share one refresh call.
func WithAutoRefresh() Option { return func(c *Client) { c.autoRefresh = true } }

// New builds a client rooted at baseURL that reads its bearer token from jar.
func New(baseURL string, jar cookies.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: DefaultTimeout},
		jar:     jar,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	next := c.hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	c.hc.Transport = &loggingTransport{next: next, log: c.log}
	return c
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string { return c.baseURL }

// SiteURL returns the public site root, i.e. the base URL without its /api/v1 suffix.
func (c *Client) SiteURL() string { return strings.TrimSuffix(c.baseURL, "/api/v1") }

// URL resolves path (optionally carrying its own query string) against the
// base URL. Escaped segments stay escaped, so an id holding '/', '?' or '#'
// still names one entity.
func (c *Client) URL(path string, query url.Values) (string, error) {
	rel, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("bad path %q: %w", path, err)
	}
	u, err := url.Parse(c.baseURL + "/" + strings.TrimPrefix(rel.EscapedPath(), "/"))
	if err != nil {
		return "", err
	}
	q := rel.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Get issues a GET.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, http.MethodPut, path, nil, body)
}

// Delete issues a DELETE.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, path, nil, nil)
}

// payload is a fully buffered request body so that a request can be replayed.
type payload struct {
	data        []byte
	contentType string
}

// Do sends a request with an optional JSON body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	var p *payload
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		p = &payload{data: b, contentType: "application/json"}
	}
	return c.send(ctx, method, path, query, p, c.autoRefresh)
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, p *payload, mayRefresh bool) (*Response, error) {
	resp, err := c.once(ctx, method, path, query, p)
	var apiErr *Error
	if !mayRefresh || !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized || isAuthPath(path) {
		return resp, err
	}
	if rerr := c.refresh(ctx); rerr != nil {
		c.log.Debug("token refresh failed", zap.Error(rerr))
		return nil, err
	}
	return c.once(ctx, method, path, query, p)
}

func (c *Client) once(ctx context.Context, method, path string, query url.Values, p *payload) (*Response, error) {
	target, err := c.URL(path, query)
	if err != nil {
		return nil, err
	}
	var rd io.Reader
	if p != nil {
		rd = bytes.NewReader(p.data)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p != nil {
		req.Header.Set("Content-Type", p.contentType)
	}
	if id, err := uuid.NewV4(); err == nil {
		req.Header.Set(requestIDHeader, id.String())
	}

	if token := c.accessToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, &Error{Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Status: res.StatusCode, Err: err}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, newHTTPError(res.StatusCode, data)
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Data: data}, nil
}

func (c *Client) accessToken(ctx context.Context) string {
	if c.jar == nil {
		return ""
	}
	token, err := cookies.Lookup(ctx, c.jar, model.AccessTokenCookie)
	if err != nil {
		c.log.Warn("read access token", zap.Error(err))
		return ""
	}
	return token
}

func isAuthPath(path string) bool {
	return strings.HasPrefix(strings.TrimPrefix(path, "/"), "auth/")
}
