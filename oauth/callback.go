package oauth

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"
)

// CompleteFunc finishes the sign-in for a callback query. The returned text
// is shown in the browser.
type CompleteFunc func(ctx context.Context, rawQuery string) (message string, err error)

// Result is what the single callback request produced.
type Result struct {
	RawQuery string
	Message  string
	Err      error
}

// CallbackServer is a loopback HTTP listener for one OAuth redirect.
type CallbackServer struct {
	path     string
	complete CompleteFunc
	logger   *slog.Logger

	listener net.Listener
	server   *http.Server

	once    sync.Once
	served  chan Result
	closeMu sync.Mutex
	closed  bool
}

// NewCallbackServer listens on addr (use port 0 for an ephemeral port) and
// routes GET path to complete.
func NewCallbackServer(addr, path string, complete CompleteFunc, logger *slog.Logger) (*CallbackServer, error) {
	if complete == nil {
		return nil, errors.New("oauth: complete func is required")
	}
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("oauth: callback path %q must start with /", path)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("oauth: listen %s: %w", addr, err)
	}

	s := &CallbackServer{
		path:     path,
		complete: complete,
		logger:   logger,
		listener: listener,
		served:   make(chan Result, 1),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+path, s.handleCallback)
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("oauth callback server stopped", slog.String("error", err.Error()))
		}
	}()
	return s, nil
}

// Addr is the bound listener address.
func (s *CallbackServer) Addr() string {
	return s.listener.Addr().String()
}

// URL is the absolute callback URL to register as redirect target.
func (s *CallbackServer) URL() string {
	return "http://" + s.Addr() + s.path
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	handled := false
	s.once.Do(func() {
		handled = true
		message, err := s.complete(r.Context(), r.URL.RawQuery)
		s.served <- Result{RawQuery: r.URL.RawQuery, Message: message, Err: err}

		status := http.StatusOK
		if err != nil {
			status = http.StatusBadRequest
			s.logger.Warn("oauth callback failed", slog.String("error", err.Error()))
		}
		renderPage(w, status, message)
	})
	if !handled {
		http.Error(w, "callback already handled", http.StatusGone)
	}
}

// Wait blocks until the callback has been handled or ctx ends. The result
// is delivered to one caller only.
func (s *CallbackServer) Wait(ctx context.Context) (Result, error) {
	select {
	case res := <-s.served:
		return res, nil
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close stops the listener, letting an in-flight callback finish.
func (s *CallbackServer) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

var page = template.Must(template.New("callback").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>Painepartneri</title></head>
<body><p>{{.}}</p><p>You can close this window.</p></body></html>
`))

func renderPage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = page.Execute(w, message)
}
