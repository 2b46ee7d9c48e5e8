package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisSlotTest(t *testing.T) (*RedisSlot, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	slot := NewRedisSlot(rdb, "gac-test", 0)
	return slot, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func exerciseSlot(t *testing.T, slot TokenSlot) {
	t.Helper()
	ctx := context.Background()

	got, err := slot.ReadToken(ctx)
	if err != nil || got != "" {
		t.Fatalf("empty slot: expected absent, got %q %v", got, err)
	}
	if err := slot.EraseToken(ctx); err != nil {
		t.Fatalf("erase on empty slot: %v", err)
	}
	if err := slot.WriteToken(ctx, "tok-1"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := slot.WriteToken(ctx, "tok-2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err = slot.ReadToken(ctx)
	if err != nil || got != "tok-2" {
		t.Fatalf("expected tok-2, got %q %v", got, err)
	}
	if err := slot.EraseToken(ctx); err != nil {
		t.Fatalf("erase: %v", err)
	}
	got, err = slot.ReadToken(ctx)
	if err != nil || got != "" {
		t.Fatalf("expected absent after erase, got %q %v", got, err)
	}
}

func TestSlotRoundTrips(t *testing.T) {
	dir := t.TempDir()

	t.Run("memory", func(t *testing.T) {
		exerciseSlot(t, NewMemorySlot())
	})
	t.Run("file", func(t *testing.T) {
		exerciseSlot(t, NewFileSlot(filepath.Join(dir, "plain", "token.json")))
	})
	t.Run("sealed", func(t *testing.T) {
		exerciseSlot(t, NewSealedFileSlot(filepath.Join(dir, "sealed", "token.json"), ""))
	})
	t.Run("redis", func(t *testing.T) {
		slot, _, done := newRedisSlotTest(t)
		defer done()
		exerciseSlot(t, slot)
	})
}

func TestFileSlotPermissionsAndLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "goauthclient", "token.json")
	slot := NewFileSlot(path)
	if err := slot.WriteToken(context.Background(), "tok"); err != nil {
		t.Fatalf("write: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected 0600, got %v", info.Mode().Perm())
	}
	dirInfo, err := os.Stat(filepath.Dir(path))
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if dirInfo.Mode().Perm() != 0o700 {
		t.Fatalf("expected dir 0700, got %v", dirInfo.Mode().Perm())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), `"access_token": "tok"`) {
		t.Fatalf("unexpected file layout: %s", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %v", entries)
	}
}

func TestFileSlotCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err := NewFileSlot(path).ReadToken(context.Background())
	if !errors.Is(err, ErrSlotCorrupt) {
		t.Fatalf("expected ErrSlotCorrupt, got %v", err)
	}
}

func TestSealedFileSlotDoesNotStorePlaintext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	slot := NewSealedFileSlot(path, "")
	ctx := context.Background()

	if err := slot.WriteToken(ctx, "very-secret-token"); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if strings.Contains(string(data), "very-secret-token") {
		t.Fatal("sealed file contains plaintext token")
	}
	key, err := os.ReadFile(slot.KeyPath())
	if err != nil {
		t.Fatalf("read key: %v", err)
	}
	if !strings.HasPrefix(string(key), "AGE-SECRET-KEY-1") {
		t.Fatalf("unexpected key file contents")
	}

	// A fresh slot over the same files reads the token back.
	reopened := NewSealedFileSlot(path, slot.KeyPath())
	got, err := reopened.ReadToken(ctx)
	if err != nil || got != "very-secret-token" {
		t.Fatalf("reopen: got %q %v", got, err)
	}
}

func TestSealedFileSlotWrongKeyIsCorrupt(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "token.json")
	ctx := context.Background()

	if err := NewSealedFileSlot(path, filepath.Join(dir, "a.key")).WriteToken(ctx, "tok"); err != nil {
		t.Fatalf("write: %v", err)
	}
	// Generate an unrelated identity by sealing a token elsewhere.
	if err := NewSealedFileSlot(filepath.Join(dir, "other.json"), filepath.Join(dir, "b.key")).WriteToken(ctx, "x"); err != nil {
		t.Fatalf("seed other key: %v", err)
	}

	_, err := NewSealedFileSlot(path, filepath.Join(dir, "b.key")).ReadToken(ctx)
	if !errors.Is(err, ErrSlotCorrupt) {
		t.Fatalf("expected ErrSlotCorrupt with wrong key, got %v", err)
	}

	_, err = NewSealedFileSlot(path, filepath.Join(dir, "missing.key")).ReadToken(ctx)
	if !errors.Is(err, ErrSlotCorrupt) {
		t.Fatalf("expected ErrSlotCorrupt with missing key, got %v", err)
	}
}

func TestRedisSlotKeyAndTTL(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	slot := NewRedisSlot(rdb, "", time.Hour)
	if slot.Key() != "gac:access_token" {
		t.Fatalf("unexpected key %q", slot.Key())
	}
	if err := slot.WriteToken(context.Background(), "tok"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got, _ := mr.Get("gac:access_token"); got != "tok" {
		t.Fatalf("unexpected stored value %q", got)
	}
	if ttl := mr.TTL("gac:access_token"); ttl != time.Hour {
		t.Fatalf("expected 1h ttl, got %v", ttl)
	}
	if _, err := slot.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestRedisSlotUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	slot := NewRedisSlot(rdb, "gac-test", 0)
	mr.Close()

	_, err = slot.ReadToken(context.Background())
	if !errors.Is(err, ErrSlotUnavailable) {
		t.Fatalf("expected ErrSlotUnavailable, got %v", err)
	}
}

func TestDefaultTokenPath(t *testing.T) {
	t.Setenv("GOAUTHCLIENT_TOKEN_FILE", "")
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultTokenPath(); got != filepath.Join("/tmp/xdg", "goauthclient", "token.json") {
		t.Fatalf("unexpected xdg path %q", got)
	}
	t.Setenv("GOAUTHCLIENT_TOKEN_FILE", "/tmp/override.json")
	if got := DefaultTokenPath(); got != "/tmp/override.json" {
		t.Fatalf("unexpected override path %q", got)
	}
}
