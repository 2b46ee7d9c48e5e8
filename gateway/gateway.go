package gateway

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
)

// Channel selects whether a request carries the bearer credential.
type Channel uint8

const (
	// Public never attaches a credential.
	Public Channel = iota
	// Authenticated attaches the current bearer token when one exists.
	Authenticated
)

func (c Channel) String() string {
	if c == Authenticated {
		return "authenticated"
	}
	return "public"
}

const (
	defaultRequestIDHeader  = "X-Request-ID"
	defaultMaxResponseBytes = 1 << 20
)

// HTTPDoer is the subset of *http.Client the gateway needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource yields the bearer token to attach on the authenticated channel.
// An empty string means "no token".
type TokenSource interface {
	CurrentToken() string
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func() string

// CurrentToken calls f.
func (f TokenSourceFunc) CurrentToken() string { return f() }

// Config controls request construction.
type Config struct {
	// BaseURL is the absolute root of the remote service, e.g. http://localhost:8080.
	BaseURL string
	// Timeout bounds each call. Zero disables the gateway-level deadline.
	Timeout time.Duration
	// UserAgent is sent on every request when non-empty.
	UserAgent string
	// RequestIDHeader names the per-call correlation header. Defaults to X-Request-ID.
	RequestIDHeader string
	// MaxResponseBytes caps how much of a response body is read. Defaults to 1 MiB.
	MaxResponseBytes int64
}

// Options carries the gateway's collaborators.
type Options struct {
	Doer   HTTPDoer
	Tokens TokenSource
	// ObserveLatency, when set, receives the round-trip time of every call
	// that reached the transport, successful or not.
	ObserveLatency func(Channel, time.Duration)
}

// Gateway sends JSON requests to the remote service.
//
// A Gateway is safe for concurrent use once constructed.
type Gateway struct {
	config  Config
	base    *url.URL
	doer    HTTPDoer
	tokens  TokenSource
	observe func(Channel, time.Duration)
}

// Response is a fully-read 2xx response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the JSON body into v. A body that is not valid JSON is
// reported as a MalformedError.
func (r *Response) Decode(v any) error {
	if r == nil {
		return Malformed("empty response")
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return Malformed("empty body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return Malformed("invalid json: %v", err)
	}
	return nil
}

type bearerOverrideKey struct{}

// WithBearer pins the token the authenticated channel sends for calls made
// with the returned context, bypassing the TokenSource. It is used when a
// token must be checked before it is committed anywhere.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerOverrideKey{}, token)
}

func bearerFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(bearerOverrideKey{}).(string)
	return token, ok
}

// New validates cfg and returns a Gateway. A nil Doer falls back to a fresh
// *http.Client; timeouts are applied per call through the request context.
func New(cfg Config, opts Options) (*Gateway, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.New("gateway: base url must be http or https")
	}
	if base.Host == "" {
		return nil, errors.New("gateway: base url must include a host")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("gateway: timeout must be >= 0")
	}
	if cfg.RequestIDHeader == "" {
		cfg.RequestIDHeader = defaultRequestIDHeader
	}
	if cfg.MaxResponseBytes <= 0 {
		cfg.MaxResponseBytes = defaultMaxResponseBytes
	}

	doer := opts.Doer
	if doer == nil {
		doer = &http.Client{}
	}

	return &Gateway{
		config:  cfg,
		base:    base,
		doer:    doer,
		tokens:  opts.Tokens,
		observe: opts.ObserveLatency,
	}, nil
}

// BaseURL returns the configured service root.
func (g *Gateway) BaseURL() string {
	return g.base.String()
}

// Send issues one request and returns the fully-read response.
//
// body is JSON-encoded when non-nil. path may carry a query string; it is
// resolved against the base URL. Non-2xx responses come back as *HTTPError,
// failures before a response as *TransportError. Send never retries.
func (g *Gateway) Send(ctx context.Context, channel Channel, method, path string, body any) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("gateway: encode %s %s: %w", method, path, err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.resolve(path), payload)
	if err != nil {
		return nil, fmt.Errorf("gateway: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.config.UserAgent != "" {
		req.Header.Set("User-Agent", g.config.UserAgent)
	}
	req.Header.Set(g.config.RequestIDHeader, uuid.NewString())

	if channel == Authenticated {
		if token := g.bearer(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := g.doer.Do(req)
	if g.observe != nil {
		g.observe(channel, time.Since(started))
	}
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.config.MaxResponseBytes))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: fmt.Errorf("read body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPError(resp.StatusCode, data)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   data,
	}, nil
}

func (g *Gateway) bearer(ctx context.Context) string {
	if token, ok := bearerFromContext(ctx); ok {
		return token
	}
	if g.tokens == nil {
		return ""
	}
	return g.tokens.CurrentToken()
}

func (g *Gateway) resolve(path string) string {
	root := strings.TrimRight(g.base.String(), "/")
	return root + "/" + strings.TrimLeft(path, "/")
}
