package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitalmine-server/internal/risk"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "vitalmine:status:abc", Key("abc"))
}

func TestMemory(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	want := Status{ReadingID: "r1", Label: risk.Warning, Advice: "warm", RecordedAt: time.Now()}
	require.NoError(t, c.Set(ctx, "s1", want))

	got, ok, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}

func TestMemory_KeepsNewest(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	newer := Status{ReadingID: "r2", Label: risk.Stable, RecordedAt: base.Add(time.Millisecond)}
	older := Status{ReadingID: "r1", Label: risk.High, RecordedAt: base}
	require.NoError(t, c.Set(ctx, "s1", newer))
	require.NoError(t, c.Set(ctx, "s1", older))

	got, ok, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r2", got.ReadingID)
	assert.Equal(t, risk.Stable, got.Label)
}

func TestRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedis(client, time.Hour)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	_, ok, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok)

	newer := Status{ReadingID: "r2", Label: risk.Stable, Advice: "ok", RecordedAt: base.Add(time.Millisecond)}
	older := Status{ReadingID: "r1", Label: risk.High, Advice: "act", RecordedAt: base}
	require.NoError(t, c.Set(ctx, "s1", newer))
	require.NoError(t, c.Set(ctx, "s1", older))

	got, ok, err := c.Get(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "r2", got.ReadingID)
	assert.Equal(t, risk.Stable, got.Label)
	assert.True(t, got.RecordedAt.Equal(newer.RecordedAt))
	assert.True(t, mr.TTL(Key("s1")) > 0)

	latest := Status{ReadingID: "r3", Label: risk.Warning, RecordedAt: base.Add(time.Second)}
	require.NoError(t, c.Set(ctx, "s1", latest))
	got, _, err = c.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "r3", got.ReadingID)
}

func TestNoop(t *testing.T) {
	var c StatusCache = Noop{}
	require.NoError(t, c.Set(context.Background(), "s1", Status{Label: risk.High}))
	_, ok, err := c.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedis_UnreachableServerErrors(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedis(client, time.Minute)
	ctx := context.Background()

	require.Error(t, c.Set(ctx, "s1", Status{Label: risk.Stable}))
	_, ok, err := c.Get(ctx, "s1")
	require.Error(t, err)
	assert.False(t, ok)
}
