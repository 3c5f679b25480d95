package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"

	gerrors "github.com/matzehuels/gauzecut/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "key")
	if err != nil || hit || data != nil {
		t.Errorf("Get() = %q, %v, %v, want miss", data, hit, err)
	}
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}

	if _, hit, _ := c.Get(ctx, "trial:a"); hit {
		t.Error("Get() on empty cache hit")
	}
	if err := c.Set(ctx, "trial:a", []byte(`{"score":3}`), 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	data, hit, err := c.Get(ctx, "trial:a")
	if err != nil || !hit || string(data) != `{"score":3}` {
		t.Errorf("Get() = %q, %v, %v, want stored value", data, hit, err)
	}

	if err := c.Delete(ctx, "trial:a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, hit, _ := c.Get(ctx, "trial:a"); hit {
		t.Error("Get() hit after Delete")
	}
	if err := c.Delete(ctx, "trial:a"); err != nil {
		t.Errorf("Delete() missing key error = %v", err)
	}
}

func TestFileCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	time.Sleep(time.Millisecond)
	if _, hit, _ := c.Get(ctx, "k"); hit {
		t.Error("Get() hit an expired entry")
	}
}

func TestFileCacheClear(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())
	for _, k := range []string{"a", "b", "c"} {
		if err := c.Set(ctx, k, []byte(k), 0); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}
	n, err := c.Clear()
	if err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Clear() = %d, want 3", n)
	}
	if _, hit, _ := c.Get(ctx, "a"); hit {
		t.Error("Get() hit after Clear")
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	c, _ := NewFileCache(t.TempDir())

	type outcome struct {
		Score float64 `json:"score"`
		Trace []int   `json:"trace"`
	}
	in := outcome{Score: 4.5, Trace: []int{3, 1, 2}}
	if err := SetJSON(ctx, c, "k", in, TTLTrial); err != nil {
		t.Fatalf("SetJSON() error = %v", err)
	}
	var out outcome
	hit, err := GetJSON(ctx, c, "k", &out)
	if err != nil || !hit {
		t.Fatalf("GetJSON() = %v, %v, want hit", hit, err)
	}
	if out.Score != in.Score || len(out.Trace) != 3 || out.Trace[0] != 3 {
		t.Errorf("GetJSON() = %+v, want %+v", out, in)
	}

	// Undecodable values are misses.
	_ = c.Set(ctx, "bad", []byte("not json"), 0)
	if hit, err := GetJSON(ctx, c, "bad", &out); hit || err != nil {
		t.Errorf("GetJSON(bad) = %v, %v, want miss", hit, err)
	}
}

func TestHash(t *testing.T) {
	h1 := Hash([]byte("hello"))
	if h1 != Hash([]byte("hello")) {
		t.Error("Hash should be deterministic")
	}
	if h1 == Hash([]byte("world")) {
		t.Error("Different inputs should produce different hashes")
	}
	if len(h1) != 64 {
		t.Errorf("len(Hash()) = %d, want 64", len(h1))
	}
}

func TestTrialKey(t *testing.T) {
	k := NewDefaultKeyer()
	anchor := orb.Point{10, 10}
	base := TrialKeyOpts{
		Config:  map[string]int{"settle": 3},
		Strokes: [][]orb.Point{{{0, 0}, {1, 0}}},
		Offset:  4,
	}
	key := k.TrialKey("shape", base)
	if !strings.HasPrefix(key, "trial:") {
		t.Errorf("TrialKey() = %q, want trial: prefix", key)
	}
	if key != k.TrialKey("shape", base) {
		t.Error("TrialKey should be deterministic")
	}

	variants := map[string]func(o TrialKeyOpts) (string, TrialKeyOpts){
		"shape":   func(o TrialKeyOpts) (string, TrialKeyOpts) { return "other", o },
		"config":  func(o TrialKeyOpts) (string, TrialKeyOpts) { o.Config = map[string]int{"settle": 4}; return "shape", o },
		"strokes": func(o TrialKeyOpts) (string, TrialKeyOpts) { o.Strokes = [][]orb.Point{{{1, 0}, {0, 0}}}; return "shape", o },
		"anchor":  func(o TrialKeyOpts) (string, TrialKeyOpts) { o.Anchor = &anchor; return "shape", o },
		"offset":  func(o TrialKeyOpts) (string, TrialKeyOpts) { o.Offset = 5; return "shape", o },
	}
	for name, mutate := range variants {
		t.Run(name, func(t *testing.T) {
			shape, opts := mutate(base)
			if k.TrialKey(shape, opts) == key {
				t.Errorf("changing %s did not change the key", name)
			}
		})
	}
}

func TestScopedKeyer(t *testing.T) {
	scoped := NewScopedKeyer(nil, "gauzecut:")
	key := scoped.TrialKey("shape", TrialKeyOpts{})
	want := "gauzecut:" + NewDefaultKeyer().TrialKey("shape", TrialKeyOpts{})
	if key != want {
		t.Errorf("TrialKey() = %q, want %q", key, want)
	}
}

func TestNewRedisCacheBadURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), "http://localhost:6379")
	if !gerrors.Is(err, gerrors.ErrCodeInvalidInput) {
		t.Errorf("NewRedisCache() error = %v, want %v", err, gerrors.ErrCodeInvalidInput)
	}
}

func TestRetryableError(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}
	err := Retryable(ErrNetwork)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if !errors.Is(err, ErrNetwork) {
		t.Error("Retryable should keep the wrapped error in the chain")
	}
	if IsRetryable(ErrNetwork) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()
	retryDelay = time.Millisecond
	t.Cleanup(func() { retryDelay = 100 * time.Millisecond })

	tests := []struct {
		name      string
		failures  int
		retryable bool
		wantCalls int
		wantErr   bool
	}{
		{"success", 0, true, 1, false},
		{"non-retryable", 5, false, 1, true},
		{"recovers", 1, true, 2, false},
		{"exhausted", 5, true, 3, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := RetryWithBackoff(ctx, func() error {
				calls++
				if calls <= tt.failures {
					if tt.retryable {
						return Retryable(ErrNetwork)
					}
					return ErrNetwork
				}
				return nil
			})
			if (err != nil) != tt.wantErr {
				t.Errorf("RetryWithBackoff() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryWithBackoffContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := RetryWithBackoff(ctx, func() error {
		return Retryable(ErrNetwork)
	})
	if err != context.Canceled {
		t.Errorf("RetryWithBackoff() error = %v, want %v", err, context.Canceled)
	}
}
