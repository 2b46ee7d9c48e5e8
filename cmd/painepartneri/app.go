package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/pflag"
)

// globalOptions are the flags accepted before the command name.
type globalOptions struct {
	configPath     string
	baseURL        string
	sessionBackend string
	locale         string
	verbose        bool
	redisDemo      bool
}

func (o *globalOptions) register(fs *pflag.FlagSet) {
	fs.StringVarP(&o.configPath, "config", "c", "", "config file (.yaml, .yml, .json, .jsonc)")
	fs.StringVar(&o.baseURL, "base-url", "", "remote service base URL")
	fs.StringVar(&o.sessionBackend, "session-backend", "", "token storage: file, sealed, redis or memory")
	fs.StringVar(&o.locale, "locale", "", "message language: fi or en")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging and audit events on stderr")
	fs.BoolVar(&o.redisDemo, "redis-demo", false, "use an in-process Redis for the session (lost on exit)")
}

// app is the per-invocation state shared by commands.
type app struct {
	cfg    goAuthClient.Config
	client *goAuthClient.Client
	logger *slog.Logger
	styles styles

	in     io.Reader
	out    io.Writer
	errOut io.Writer

	closers []func()
}

func newApp(opts globalOptions, in io.Reader, out, errOut io.Writer) (*app, error) {
	logger := newCommandLogger(errOut, opts.verbose)

	cfg, err := goAuthClient.LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.baseURL != "" {
		cfg.API.BaseURL = opts.baseURL
	}
	if opts.sessionBackend != "" {
		cfg.Session.Backend = goAuthClient.SessionBackend(strings.ToLower(opts.sessionBackend))
	}
	if opts.locale != "" {
		cfg.Locale = strings.ToLower(opts.locale)
	}
	if opts.verbose {
		cfg.Audit.Enabled = true
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		styles: newStyles(isTerminal(out)),
		in:     in,
		out:    out,
		errOut: errOut,
	}

	if opts.redisDemo {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("start in-process redis: %w", err)
		}
		a.closers = append(a.closers, mr.Close)
		a.cfg.Session.Backend = goAuthClient.SessionBackendRedis
		a.cfg.Session.RedisAddr = mr.Addr()
		a.cfg.Session.RedisPassword = ""
		logger.Warn("session stored in in-process redis; it is lost when the command exits",
			slog.String("addr", mr.Addr()))
	}

	if err := a.cfg.Validate(); err != nil {
		a.close()
		return nil, err
	}
	for _, w := range a.cfg.Lint() {
		logger.Debug("config warning", slog.String("code", w.Code), slog.String("message", w.Message))
	}

	b := goAuthClient.New().
		WithConfig(a.cfg).
		WithLogger(logger)
	if opts.verbose {
		b = b.WithAuditSink(goAuthClient.NewSlogSink(logger))
	}
	client, err := b.Build()
	if err != nil {
		a.close()
		return nil, err
	}
	a.client = client
	// Client first: it may still flush audit events to the logger.
	a.closers = append([]func(){client.Close}, a.closers...)
	return a, nil
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
	a.closers = nil
}

// describe renders err for the user in the configured locale.
func (a *app) describe(err error) string {
	return a.client.Describe(err)
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
