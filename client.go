package goAuthClient

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goAuthClient/gateway"
	"github.com/MrEthical07/goAuthClient/internal"
	internalaudit "github.com/MrEthical07/goAuthClient/internal/audit"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/redis/go-redis/v9"
)

// Client drives the authentication lifecycle against one remote service.
//
// A Client is safe for concurrent use. Bootstrap, Login, Logout and
// CompleteOAuth are non-reentrant: a call made while the previous one of the
// same kind is still running returns [ErrOperationPending] without touching
// the network.
type Client struct {
	config     Config
	store      *session.Store
	gateway    *gateway.Gateway
	metrics    *Metrics
	audit      *internalaudit.Dispatcher
	logger     *slog.Logger
	clock      func() time.Time
	ownedRedis redis.UniversalClient

	bootstrapping atomic.Bool
	loggingIn     atomic.Bool
	loggingOut    atomic.Bool
	completing    atomic.Bool

	consumedMu sync.Mutex
	consumed   map[[32]byte]struct{}

	closed    atomic.Bool
	closeOnce sync.Once
}

// Close flushes pending audit events and releases a Redis connection the
// client dialed itself. The session is left as it is; later operations
// return [ErrClientNotReady].
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.audit != nil {
			c.audit.Close()
		}
		if c.ownedRedis != nil {
			if err := c.ownedRedis.Close(); err != nil {
				c.logger.Warn("closing redis client failed", slog.Any("error", err))
			}
		}
	})
}

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() Config {
	if c == nil {
		return Config{}
	}
	return cloneConfig(c.config)
}

// Store exposes the session store, e.g. for the route guard.
func (c *Client) Store() *session.Store {
	if c == nil {
		return nil
	}
	return c.store
}

// Session returns a copy of the current session, or nil when anonymous.
func (c *Client) Session() *session.Session {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Get()
}

// Identity returns the signed-in identity.
func (c *Client) Identity() (session.Identity, bool) {
	if c == nil || c.store == nil {
		return session.Identity{}, false
	}
	return c.store.Identity()
}

// Subscribe registers fn for every session change. See [session.Store.Subscribe].
func (c *Client) Subscribe(fn func(*session.Session)) (unsubscribe func()) {
	if c == nil || c.store == nil {
		return func() {}
	}
	return c.store.Subscribe(fn)
}

// Describe renders err in the client's configured locale.
func (c *Client) Describe(err error) string {
	locale := LocaleFinnish
	if c != nil {
		locale = c.config.Locale
	}
	return Describe(err, locale)
}

// AuditDropped reports how many audit events were dropped because the
// buffer was full.
func (c *Client) AuditDropped() uint64 {
	if c == nil || c.audit == nil {
		return 0
	}
	return c.audit.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of the client's metrics.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// usable reports whether c is non-nil and not closed.
func (c *Client) usable() bool {
	return c != nil && !c.closed.Load()
}

// acquire claims flag for one run of op. It reports false, after counting
// the suppression, when a run is already in progress.
func (c *Client) acquire(ctx context.Context, flag *atomic.Bool, op string) bool {
	if flag.CompareAndSwap(false, true) {
		return true
	}
	c.emitSuppressed(ctx, op)
	c.logger.Debug("operation suppressed", slog.String("operation", op))
	return false
}

// consumeCode records an OAuth authorization code as used. Only a digest is
// kept in memory.
func (c *Client) consumeCode(code string) bool {
	digest := internal.Digest(code)

	c.consumedMu.Lock()
	defer c.consumedMu.Unlock()

	if _, seen := c.consumed[digest]; seen {
		return false
	}
	c.consumed[digest] = struct{}{}
	return true
}

func (c *Client) commonFlowDeps() flows.Common {
	common := flows.Common{
		Now:          c.now,
		InspectToken: jwt.Inspect,
		MetricInc: func(id int) {
			c.metricInc(MetricID(id))
		},
		EmitAudit: c.emitAudit,
		Logger:    c.logger,
	}
	if c.gateway != nil {
		common.Sender = c.gateway
	}
	return common
}

// sessionStore returns the store as the flows' interface, nil when absent.
func (c *Client) sessionStore() flows.SessionStore {
	if c.store == nil {
		return nil
	}
	return c.store
}
