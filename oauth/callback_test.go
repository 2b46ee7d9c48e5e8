package oauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newServer(t *testing.T, complete CompleteFunc) *CallbackServer {
	t.Helper()
	srv, err := NewCallbackServer("127.0.0.1:0", "/oauth/google/callback", complete, nil)
	if err != nil {
		t.Fatalf("NewCallbackServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestCallbackServedOnce(t *testing.T) {
	var calls atomic.Int32
	srv := newServer(t, func(_ context.Context, rawQuery string) (string, error) {
		calls.Add(1)
		if rawQuery != "code=abc&state=xyz" {
			t.Errorf("rawQuery = %q", rawQuery)
		}
		return "Signed in as <a@example.com>", nil
	})

	status, body := get(t, srv.URL()+"?code=abc&state=xyz")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if !strings.Contains(body, "&lt;a@example.com&gt;") {
		t.Fatalf("message must be html-escaped: %s", body)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	res, err := srv.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if res.Err != nil || res.RawQuery != "code=abc&state=xyz" {
		t.Fatalf("result = %+v", res)
	}

	status, _ = get(t, srv.URL()+"?code=abc&state=xyz")
	if status != http.StatusGone {
		t.Fatalf("second callback status = %d, want 410", status)
	}
	if calls.Load() != 1 {
		t.Fatalf("complete called %d times", calls.Load())
	}
}

func TestCallbackFailureReported(t *testing.T) {
	failure := errors.New("callback incomplete")
	srv := newServer(t, func(context.Context, string) (string, error) {
		return "Kirjautuminen epäonnistui", failure
	})

	status, _ := get(t, srv.URL())
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	res, err := srv.Wait(context.Background())
	if err != nil || !errors.Is(res.Err, failure) {
		t.Fatalf("Wait = %+v, %v", res, err)
	}
}

func TestCallbackOtherPathsNotFound(t *testing.T) {
	srv := newServer(t, func(context.Context, string) (string, error) { return "", nil })
	status, _ := get(t, "http://"+srv.Addr()+"/other")
	if status != http.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
}

func TestWaitHonoursContext(t *testing.T) {
	srv := newServer(t, func(context.Context, string) (string, error) { return "", nil })
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := srv.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Wait err = %v", err)
	}
}

func TestNewCallbackServerValidates(t *testing.T) {
	if _, err := NewCallbackServer("127.0.0.1:0", "/cb", nil, nil); err == nil {
		t.Fatal("expected error for nil complete")
	}
	if _, err := NewCallbackServer("127.0.0.1:0", "cb", func(context.Context, string) (string, error) { return "", nil }, nil); err == nil {
		t.Fatal("expected error for relative path")
	}
}
