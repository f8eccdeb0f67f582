package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "layout:abc", []byte("geometry"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, hit, err := c.Get(ctx, "layout:abc")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit || !bytes.Equal(data, []byte("geometry")) {
		t.Errorf("Get = (%q, %v), want stored value", data, hit)
	}

	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "layout:abc"); hit {
		t.Error("deleted key should miss")
	}

	// Deleting again is fine.
	if err := c.Delete(ctx, "layout:abc"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	if err := c.Set(ctx, "k", []byte("v"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("expired entry should miss")
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestDefaultKeyer(t *testing.T) {
	k := NewDefaultKeyer()

	// Layout keys must change with any settings change.
	lk1 := k.LayoutKey("snap123", LayoutKeyOpts{Algorithm: "grid", Margin: 1})
	lk2 := k.LayoutKey("snap123", LayoutKeyOpts{Algorithm: "flow", Margin: 1})
	lk3 := k.LayoutKey("snap123", LayoutKeyOpts{Algorithm: "grid", Margin: 2})
	if lk1 == lk2 || lk1 == lk3 {
		t.Error("different layout settings should produce different keys")
	}
	if lk1 != k.LayoutKey("snap123", LayoutKeyOpts{Algorithm: "grid", Margin: 1}) {
		t.Error("LayoutKey should be deterministic")
	}

	ak1 := k.ArtifactKey("layout123", ArtifactKeyOpts{Format: "svg", GridUnitPx: 12})
	ak2 := k.ArtifactKey("layout123", ArtifactKeyOpts{Format: "dot", GridUnitPx: 12})
	if ak1 == ak2 {
		t.Error("different artifact formats should produce different keys")
	}
}

func TestScopedKeyer(t *testing.T) {
	inner := NewDefaultKeyer()
	scoped := NewScopedKeyer(inner, "session:123:")

	key := scoped.LayoutKey("snap", LayoutKeyOpts{Algorithm: "grid"})
	want := "session:123:" + inner.LayoutKey("snap", LayoutKeyOpts{Algorithm: "grid"})
	if key != want {
		t.Errorf("ScopedKeyer LayoutKey = %s, want %s", key, want)
	}
}

func TestScopedKeyerNilInner(t *testing.T) {
	scoped := NewScopedKeyer(nil, "prefix:")
	plain := NewDefaultKeyer().ArtifactKey("h", ArtifactKeyOpts{Format: "svg"})
	if got := scoped.ArtifactKey("h", ArtifactKeyOpts{Format: "svg"}); got != "prefix:"+plain {
		t.Errorf("unexpected key with nil inner: %s", got)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	c, err := Open(ctx, "", dir)
	if err != nil {
		t.Fatalf("Open(\"\"): %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open(\"\") = %T, want NullCache", c)
	}

	c, err = Open(ctx, "null", dir)
	if err != nil {
		t.Fatalf("Open(null): %v", err)
	}
	if _, ok := c.(NullCache); !ok {
		t.Errorf("Open(null) = %T, want NullCache", c)
	}

	c, err = Open(ctx, "file", dir)
	if err != nil {
		t.Fatalf("Open(file): %v", err)
	}
	if _, ok := c.(*FileCache); !ok {
		t.Errorf("Open(file) = %T, want FileCache", c)
	}

	if _, err := Open(ctx, "carrier-pigeon", dir); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("Open(carrier-pigeon) error = %v, want ErrUnknownBackend", err)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(ErrNetwork)
	if err == nil {
		t.Fatal("Retryable should return wrapped error")
	}
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != ErrNetwork.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}

	if IsRetryable(ErrUnknownBackend) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := RetryWithBackoff(ctx, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		return ErrUnknownBackend
	})
	if err != ErrUnknownBackend {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}

	calls = 0
	err = RetryWithBackoff(ctx, func() error {
		calls++
		if calls < 2 {
			return Retryable(ErrNetwork)
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("Should retry once: %d", calls)
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
