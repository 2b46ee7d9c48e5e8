package goAuthClient

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MrEthical07/goAuthClient/gateway"
	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/redis/go-redis/v9"
)

// Builder assembles a [Client].
//
// Builder instances are used once: configure with the With methods, then
// call [Builder.Build].
type Builder struct {
	config Config
	logger *slog.Logger
	doer   gateway.HTTPDoer
	slot   session.TokenSlot
	redis  redis.UniversalClient
	clock  func() time.Time

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithLogger sets the structured logger. The default discards output.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithHTTPDoer sets the transport used by the gateway, e.g. an
// *http.Client with custom TLS settings or a test double.
func (b *Builder) WithHTTPDoer(doer gateway.HTTPDoer) *Builder {
	b.doer = doer
	return b
}

// WithTokenSlot overrides the durable slot selected by Session.Backend.
func (b *Builder) WithTokenSlot(slot session.TokenSlot) *Builder {
	b.slot = slot
	return b
}

// WithRedis supplies the client used by the redis backend. Without it,
// Build dials Session.RedisAddr itself and Close releases that connection.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithAuditSink sets where audit events go when Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles per-channel gateway latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source used for audit timestamps and local
// expiry checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and wires the client. No network call
// is made; use [Client.Bootstrap] to reconcile the stored token.
func (b *Builder) Build() (*Client, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client := &Client{
		config:   cfg,
		logger:   logger,
		clock:    b.clock,
		consumed: make(map[[32]byte]struct{}),
	}

	// -------- TOKEN SLOT --------
	slot := b.slot
	if slot == nil {
		switch cfg.Session.Backend {
		case SessionBackendFile:
			slot = session.NewFileSlot(cfg.Session.FilePath)
		case SessionBackendSealed:
			slot = session.NewSealedFileSlot(cfg.Session.FilePath, cfg.Session.KeyPath)
		case SessionBackendMemory:
			slot = session.NewMemorySlot()
		case SessionBackendRedis:
			rdb := b.redis
			if rdb == nil {
				rdb = redis.NewClient(&redis.Options{
					Addr:     cfg.Session.RedisAddr,
					Password: cfg.Session.RedisPassword,
					DB:       cfg.Session.RedisDB,
				})
				client.ownedRedis = rdb
			}
			slot = session.NewRedisSlot(rdb, cfg.Session.RedisPrefix, cfg.Session.RedisTTL)
		default:
			return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
		}
	}
	client.store = session.NewStore(slot)

	// -------- METRICS / AUDIT --------
	client.metrics = NewMetrics(cfg.Metrics)
	client.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.auditSink)

	// -------- GATEWAY --------
	gw, err := gateway.New(gateway.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.Gateway.Timeout,
		UserAgent: cfg.Gateway.UserAgent,
	}, gateway.Options{
		Doer:           b.doer,
		Tokens:         client.store,
		ObserveLatency: client.observeGatewayLatency,
	})
	if err != nil {
		client.Close()
		return nil, err
	}
	client.gateway = gw

	b.built = true
	logger.Debug("client built",
		slog.String("base_url", gw.BaseURL()),
		slog.String("session_backend", string(cfg.Session.Backend)),
		slog.Bool("audit", cfg.Audit.Enabled),
		slog.Bool("metrics", cfg.Metrics.Enabled),
	)
	return client, nil
}
