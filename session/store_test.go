package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type failingSlot struct {
	MemorySlot
	writeErr error
	eraseErr error
}

func (f *failingSlot) WriteToken(ctx context.Context, token string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	return f.MemorySlot.WriteToken(ctx, token)
}

func (f *failingSlot) EraseToken(ctx context.Context) error {
	if f.eraseErr != nil {
		return f.eraseErr
	}
	return f.MemorySlot.EraseToken(ctx)
}

func TestStoreSetThenGet(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	if store.Get() != nil {
		t.Fatal("new store must be anonymous")
	}
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	if err := store.Set(ctx, Session{Token: "tok", Identity: Identity{Email: "a@example.com"}, ExpiresAt: exp}); err != nil {
		t.Fatalf("set: %v", err)
	}

	got := store.Get()
	if got == nil || got.Token != "tok" || got.Identity.Email != "a@example.com" || !got.ExpiresAt.Equal(exp) {
		t.Fatalf("unexpected session %+v", got)
	}
	token, err := store.ReadToken(ctx)
	if err != nil || token != "tok" {
		t.Fatalf("durable token mismatch: %q %v", token, err)
	}
	id, ok := store.Identity()
	if !ok || id.Email != "a@example.com" {
		t.Fatalf("unexpected identity %+v %v", id, ok)
	}

	got.Token = "mutated"
	if store.Get().Token != "tok" {
		t.Fatal("Get must return a copy")
	}
}

func TestStoreSetRejectsEmptyToken(t *testing.T) {
	store := NewStore(nil)
	if err := store.Set(context.Background(), Session{Token: "  "}); !errors.Is(err, ErrEmptyToken) {
		t.Fatalf("expected ErrEmptyToken, got %v", err)
	}
}

func TestStoreSetSlotFailureLeavesMemoryUnchanged(t *testing.T) {
	slot := &failingSlot{}
	store := NewStore(slot)
	ctx := context.Background()

	if err := store.Set(ctx, Session{Token: "first", Identity: Identity{Email: "a@example.com"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	slot.writeErr = ErrSlotUnavailable

	notified := 0
	store.Subscribe(func(*Session) { notified++ })

	if err := store.Set(ctx, Session{Token: "second"}); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected slot error, got %v", err)
	}
	if store.Get().Token != "first" {
		t.Fatalf("memory changed on failed write: %+v", store.Get())
	}
	if notified != 0 {
		t.Fatalf("observers must not run on failed write, ran %d", notified)
	}
}

func TestStoreClearErasesDurableToken(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	if err := store.Set(ctx, Session{Token: "tok", Identity: Identity{Email: "a@example.com"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Get() != nil {
		t.Fatal("expected anonymous after clear")
	}
	token, err := store.ReadToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("expected erased token, got %q %v", token, err)
	}
	if store.CurrentToken() != "" {
		t.Fatal("CurrentToken must be empty after clear")
	}
}

func TestStoreClearDropsMemoryEvenWhenEraseFails(t *testing.T) {
	slot := &failingSlot{}
	store := NewStore(slot)
	ctx := context.Background()

	if err := store.Set(ctx, Session{Token: "tok"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	slot.eraseErr = ErrSlotUnavailable

	var seen []*Session
	store.Subscribe(func(s *Session) { seen = append(seen, s) })

	if err := store.Clear(ctx); !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected erase error, got %v", err)
	}
	if store.Get() != nil {
		t.Fatal("memory must be cleared even when erase fails")
	}
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("expected one nil notification, got %v", seen)
	}
}

func TestStoreEraseThenReadIsAbsent(t *testing.T) {
	ctx := context.Background()
	for _, token := range []string{"a", "token-with-dots.a.b", "x"} {
		store := NewStore(nil)
		if err := store.WriteToken(ctx, token); err != nil {
			t.Fatalf("write: %v", err)
		}
		if err := store.EraseToken(ctx); err != nil {
			t.Fatalf("erase: %v", err)
		}
		got, err := store.ReadToken(ctx)
		if err != nil || got != "" {
			t.Fatalf("token %q: expected absent after erase, got %q %v", token, got, err)
		}
		if store.Get() != nil {
			t.Fatalf("token %q: expected nil session", token)
		}
	}
}

func TestStoreCurrentTokenFallsBackToSlot(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	if err := store.WriteToken(ctx, "durable"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if store.Get() != nil {
		t.Fatal("durable token alone must not create a session")
	}
	if got := store.CurrentToken(); got != "durable" {
		t.Fatalf("expected durable fallback, got %q", got)
	}
	if err := store.Set(ctx, Session{Token: "memory"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := store.CurrentToken(); got != "memory" {
		t.Fatalf("expected in-memory token, got %q", got)
	}
}

func TestStoreObserversRunInOrderBeforeReturn(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var order []string
	store.Subscribe(func(s *Session) { order = append(order, "first") })
	unsubscribe := store.Subscribe(func(s *Session) { order = append(order, "second") })
	unsubscribeThird := store.Subscribe(func(s *Session) {
		if s == nil || s.Token != "tok" {
			t.Errorf("observer saw %+v", s)
		}
		if store.Get() == nil {
			t.Errorf("new value must be readable inside the observer")
		}
		order = append(order, "third")
	})

	if err := store.Set(ctx, Session{Token: "tok"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "third" {
		t.Fatalf("unexpected notify order %v", order)
	}

	unsubscribe()
	unsubscribe()
	unsubscribeThird()
	order = nil
	_ = store.Clear(ctx)
	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("unsubscribed observer still ran: %v", order)
	}
}

func TestStoreConcurrentReadersSeeConsistentPairs(t *testing.T) {
	store := NewStore(nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := store.Get()
				if s == nil {
					continue
				}
				if (s.Token == "tok-a") != (s.Identity.Email == "a@example.com") {
					t.Errorf("mixed pair observed: %+v", s)
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			_ = store.Set(ctx, Session{Token: "tok-a", Identity: Identity{Email: "a@example.com"}})
		} else {
			_ = store.Set(ctx, Session{Token: "tok-b", Identity: Identity{Email: "b@example.com"}})
		}
		if i%10 == 0 {
			_ = store.Clear(ctx)
		}
	}
	close(stop)
	wg.Wait()
}

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name string
		sess *Session
		want bool
	}{
		{"nil", nil, false},
		{"no expiry", &Session{Token: "t"}, false},
		{"future", &Session{Token: "t", ExpiresAt: now.Add(time.Minute)}, false},
		{"past", &Session{Token: "t", ExpiresAt: now.Add(-time.Minute)}, true},
		{"exact", &Session{Token: "t", ExpiresAt: now}, true},
	}
	for _, tc := range tests {
		if got := tc.sess.Expired(now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}
