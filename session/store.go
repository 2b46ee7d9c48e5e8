package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrEmptyToken is returned when Set is called with a session lacking a token.
var ErrEmptyToken = errors.New("session token is empty")

// Observer receives the store's new value after every Set or Clear. A nil
// session means anonymous. Observers must not call Set or Clear.
type Observer func(*Session)

type subscription struct {
	id uint64
	fn Observer
}

// Store is the single writer path for the current session.
//
// Readers never block: Get and CurrentToken read an atomically published
// snapshot. Writers hold mu for the whole slot-write, publish, notify sequence.
type Store struct {
	slot TokenSlot

	mu      sync.Mutex
	current atomic.Pointer[Session]

	subsMu sync.Mutex
	subs   []subscription
	nextID uint64
}

// NewStore creates a [Store] over slot. A nil slot gets a [MemorySlot].
func NewStore(slot TokenSlot) *Store {
	if slot == nil {
		slot = NewMemorySlot()
	}
	return &Store{slot: slot}
}

// Slot returns the durable token slot backing the store.
func (s *Store) Slot() TokenSlot {
	return s.slot
}

// Get returns a copy of the current session, or nil when anonymous.
func (s *Store) Get() *Session {
	return s.current.Load().Clone()
}

// Identity returns the current identity and whether a session exists.
func (s *Store) Identity() (Identity, bool) {
	cur := s.current.Load()
	if cur == nil {
		return Identity{}, false
	}
	return cur.Identity, true
}

// Set persists sess.Token to the slot, then publishes sess and notifies
// observers. When the slot write fails the published session is unchanged.
func (s *Store) Set(ctx context.Context, sess Session) error {
	if strings.TrimSpace(sess.Token) == "" {
		return ErrEmptyToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.slot.WriteToken(ctx, sess.Token); err != nil {
		return fmt.Errorf("session: write token: %w", err)
	}
	next := sess.Clone()
	s.current.Store(next)
	s.notify(next)
	return nil
}

// Clear erases the durable token and drops the in-memory session as one step.
// Memory is cleared even when the erase fails; the erase error is returned.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eraseErr := s.slot.EraseToken(ctx)
	s.current.Store(nil)
	s.notify(nil)

	if eraseErr != nil {
		return fmt.Errorf("session: erase token: %w", eraseErr)
	}
	return nil
}

// ReadToken reads the durable token. Absence is ("", nil).
func (s *Store) ReadToken(ctx context.Context) (string, error) {
	return s.slot.ReadToken(ctx)
}

// WriteToken writes the durable token without touching the in-memory session.
func (s *Store) WriteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.WriteToken(ctx, token)
}

// EraseToken erases the durable token without touching the in-memory session.
func (s *Store) EraseToken(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.EraseToken(ctx)
}

// CurrentToken returns the in-memory token when a session exists and falls
// back to the durable slot otherwise. Slot errors read as "no token".
func (s *Store) CurrentToken() string {
	if cur := s.current.Load(); cur != nil {
		return cur.Token
	}
	token, err := s.slot.ReadToken(context.Background())
	if err != nil {
		return ""
	}
	return token
}

// Subscribe registers fn and returns a function that removes it. Calling the
// returned function more than once is a no-op.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.subsMu.Lock()
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			defer s.subsMu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) notify(next *Session) {
	s.subsMu.Lock()
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.Unlock()

	for _, sub := range subs {
		sub.fn(next.Clone())
	}
}
