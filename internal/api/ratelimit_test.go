package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time { return f.t }

func (f *fakeClock) advance(d time.Duration) { f.t = f.t.Add(d) }

func TestSlidingWindowStore(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	store := newSlidingWindowStore(3, time.Minute)
	store.now = clock.now

	allow := func(id string) bool {
		ok, err := store.Allow(id)
		require.NoError(t, err)
		return ok
	}

	assert.True(t, allow("a"))
	clock.advance(10 * time.Second)
	assert.True(t, allow("a"))
	clock.advance(10 * time.Second)
	assert.True(t, allow("a"))
	assert.False(t, allow("a"), "fourth request inside the window")
	assert.True(t, allow("b"), "identifiers are counted separately")

	// The first request has left the window
	clock.advance(41 * time.Second)
	assert.True(t, allow("a"))
	assert.False(t, allow("a"))

	// Rejected requests do not extend the window
	clock.advance(20 * time.Second)
	assert.True(t, allow("a"))
}

func TestSlidingWindowStoreSweepsExpired(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	store := newSlidingWindowStore(1, time.Second)
	store.now = clock.now

	for _, id := range []string{"a", "b", "c"} {
		ok, err := store.Allow(id)
		require.NoError(t, err)
		require.True(t, ok)
	}

	// go-cache expiry is wall-clock based, so wait out the TTL for real
	time.Sleep(1100 * time.Millisecond)
	clock.advance(2 * time.Second)

	ok, err := store.Allow("d")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, store.hits.ItemCount())
}

func TestNewSlidingWindowStoreClampsLimit(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 1, newSlidingWindowStore(0, time.Minute).limit)
}

func TestDecodeBase64Audio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{"padded", "aGVsbG8=", "hello", false},
		{"unpadded", "aGVsbG8", "hello", false},
		{"data uri", "data:audio/mpeg;base64,aGVsbG8=", "hello", false},
		{"embedded whitespace", "aGVs\nbG8=\n", "hello", false},
		{"garbage", "!!!", "", true},
		{"empty after prefix", "data:audio/wav;base64,", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := decodeBase64Audio(tt.payload)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"ephemeral port", func(c *Config) { c.Port = 0 }, false},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"no upload budget", func(c *Config) { c.MaxUploadBytes = 0 }, true},
		{"zero rpm", func(c *Config) { c.RateLimitRPM = 0 }, true},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}

func TestConfigString(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.APIKey = "secret-value"
	s := cfg.String()
	assert.Contains(t, s, "auth=api-key")
	assert.NotContains(t, s, "secret-value")
}
