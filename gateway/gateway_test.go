package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, tokens TokenSource) (*Gateway, func()) {
	t.Helper()
	srv := httptest.NewServer(handler)
	gw, err := New(Config{BaseURL: srv.URL, Timeout: 2 * time.Second, UserAgent: "gateway-test"}, Options{Tokens: tokens})
	if err != nil {
		srv.Close()
		t.Fatalf("new gateway: %v", err)
	}
	return gw, srv.Close
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	cases := []string{"", "localhost:8080", "ftp://example.com", "http://"}
	for _, raw := range cases {
		if _, err := New(Config{BaseURL: raw}, Options{}); err == nil {
			t.Fatalf("expected error for base url %q", raw)
		}
	}
	if _, err := New(Config{BaseURL: "http://localhost", Timeout: -time.Second}, Options{}); err == nil {
		t.Fatal("expected error for negative timeout")
	}
}

func TestSendBearerPerChannel(t *testing.T) {
	var lastAuth atomic.Value
	gw, done := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		lastAuth.Store(r.Header.Get("Authorization"))
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("missing request id header")
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}, TokenSourceFunc(func() string { return "tok-1" }))
	defer done()

	ctx := context.Background()

	if _, err := gw.Send(ctx, Public, http.MethodGet, "/users/me", nil); err != nil {
		t.Fatalf("public send: %v", err)
	}
	if got := lastAuth.Load().(string); got != "" {
		t.Fatalf("public channel must not carry a credential, got %q", got)
	}

	if _, err := gw.Send(ctx, Authenticated, http.MethodGet, "/users/me", nil); err != nil {
		t.Fatalf("authenticated send: %v", err)
	}
	if got := lastAuth.Load().(string); got != "Bearer tok-1" {
		t.Fatalf("expected bearer tok-1, got %q", got)
	}

	if _, err := gw.Send(WithBearer(ctx, "tok-override"), Authenticated, http.MethodGet, "/users/me", nil); err != nil {
		t.Fatalf("override send: %v", err)
	}
	if got := lastAuth.Load().(string); got != "Bearer tok-override" {
		t.Fatalf("expected override bearer, got %q", got)
	}
}

func TestSendAuthenticatedWithoutTokenOmitsHeader(t *testing.T) {
	var sawHeader atomic.Bool
	gw, done := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			sawHeader.Store(true)
		}
		w.WriteHeader(http.StatusNoContent)
	}, TokenSourceFunc(func() string { return "" }))
	defer done()

	resp, err := gw.Send(context.Background(), Authenticated, http.MethodPost, "/auth/jwt/logout", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Status != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Status)
	}
	if sawHeader.Load() {
		t.Fatal("authorization header must be absent when no token is available")
	}
}

func TestSendEncodesJSONBody(t *testing.T) {
	gw, done := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]string{"echo": body["email"]})
	}, nil)
	defer done()

	resp, err := gw.Send(context.Background(), Public, http.MethodPost, "auth/request-verify-token", map[string]string{"email": "a@example.com"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if resp.Status != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.Status)
	}
	var out struct {
		Echo string `json:"echo"`
	}
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Echo != "a@example.com" {
		t.Fatalf("unexpected echo %q", out.Echo)
	}
}

func TestSendHTTPErrorDetailForms(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
		wantCode   string
		wantReason string
	}{
		{
			name:       "string detail",
			status:     http.StatusBadRequest,
			body:       `{"detail":"REGISTER_USER_ALREADY_EXISTS"}`,
			wantDetail: "REGISTER_USER_ALREADY_EXISTS",
			wantReason: "REGISTER_USER_ALREADY_EXISTS",
		},
		{
			name:       "object detail",
			status:     http.StatusBadRequest,
			body:       `{"detail":{"code":"REGISTER_INVALID_PASSWORD","reason":"too short"}}`,
			wantCode:   "REGISTER_INVALID_PASSWORD",
			wantReason: "REGISTER_INVALID_PASSWORD",
		},
		{
			name:   "non json body",
			status: http.StatusInternalServerError,
			body:   `upstream exploded`,
		},
		{
			name:   "list detail",
			status: http.StatusUnprocessableEntity,
			body:   `{"detail":[{"loc":["body","email"]}]}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gw, done := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}, nil)
			defer done()

			_, err := gw.Send(context.Background(), Public, http.MethodPost, "/auth/register-json", map[string]string{})
			if Kind(err) != KindRejected {
				t.Fatalf("expected rejected kind, got %v (%v)", Kind(err), err)
			}
			httpErr, ok := AsHTTPError(err)
			if !ok {
				t.Fatalf("expected *HTTPError, got %T", err)
			}
			if httpErr.Status != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, httpErr.Status)
			}
			if httpErr.Detail != tc.wantDetail || httpErr.DetailCode != tc.wantCode {
				t.Fatalf("unexpected detail %q / code %q", httpErr.Detail, httpErr.DetailCode)
			}
			if httpErr.Reason() != tc.wantReason {
				t.Fatalf("expected reason %q, got %q", tc.wantReason, httpErr.Reason())
			}
		})
	}
}

func TestSendTransportErrorOnClosedServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	gw, err := New(Config{BaseURL: base}, Options{})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	_, err = gw.Send(context.Background(), Public, http.MethodGet, "/users/me", nil)
	if Kind(err) != KindTransport {
		t.Fatalf("expected transport kind, got %v (%v)", Kind(err), err)
	}
	var transportErr *TransportError
	if !errors.As(err, &transportErr) || transportErr.Path != "/users/me" {
		t.Fatalf("expected *TransportError for /users/me, got %v", err)
	}
}

func TestSendTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	gw, err := New(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, Options{})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	_, err = gw.Send(context.Background(), Public, http.MethodGet, "/slow", nil)
	if Kind(err) != KindTransport {
		t.Fatalf("expected transport kind, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded in chain, got %v", err)
	}
}

func TestSendObservesLatency(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	var calls atomic.Int32
	var lastChannel atomic.Value
	gw, err := New(Config{BaseURL: srv.URL}, Options{ObserveLatency: func(c Channel, d time.Duration) {
		calls.Add(1)
		lastChannel.Store(c)
		if d < 0 {
			t.Errorf("negative latency %v", d)
		}
	}})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if _, err := gw.Send(context.Background(), Authenticated, http.MethodGet, "/users/me", nil); err != nil {
		t.Fatalf("send: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected one observation, got %d", calls.Load())
	}
	if lastChannel.Load().(Channel) != Authenticated {
		t.Fatalf("expected authenticated channel observation")
	}
}

func TestResponseDecodeMalformed(t *testing.T) {
	for _, body := range []string{"", "   ", "not-json"} {
		resp := &Response{Status: 200, Body: []byte(body)}
		var out map[string]any
		err := resp.Decode(&out)
		if Kind(err) != KindMalformed {
			t.Fatalf("body %q: expected malformed, got %v", body, err)
		}
	}
}

func TestResolveJoinsPaths(t *testing.T) {
	gw, err := New(Config{BaseURL: "http://api.local/v1/"}, Options{})
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	if got := gw.resolve("/auth/google/callback?code=c&state=s"); got != "http://api.local/v1/auth/google/callback?code=c&state=s" {
		t.Fatalf("unexpected resolved url %q", got)
	}
}
