package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_PutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "phone_verification_8147111701", "786334", 300*time.Second))

	val, err := m.Get(ctx, "phone_verification_8147111701")
	require.NoError(t, err)
	assert.Equal(t, "786334", val)
}

func TestMemory_GetMissing(t *testing.T) {
	m := NewMemory()

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_ExpiryOnRead(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now()
	m.SetClock(func() time.Time { return now })

	require.NoError(t, m.Put(ctx, "k", "v", 300*time.Second))

	// Just inside the TTL
	now = now.Add(299 * time.Second)
	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	// Past the TTL the entry must never be returned
	now = now.Add(2 * time.Second)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_OverwriteLastWriteWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "k", "old", time.Minute))
	require.NoError(t, m.Put(ctx, "k", "new", time.Minute))

	val, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", val)
}

func TestMemory_GetDelConsumesOnce(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "k", "v", time.Minute))

	val, err := m.GetDel(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", val)

	_, err = m.GetDel(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_Delete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Put(ctx, "a", "1", time.Minute))
	require.NoError(t, m.Put(ctx, "b", "2", time.Minute))

	require.NoError(t, m.Delete(ctx, "a", "b", "missing"))

	_, err := m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_IncrWithExpire(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	now := time.Now()
	m.SetClock(func() time.Time { return now })

	for want := int64(1); want <= 3; want++ {
		got, err := m.IncrWithExpire(ctx, "attempts", 300*time.Second)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Counter resets after its window lapses
	now = now.Add(301 * time.Second)
	got, err := m.IncrWithExpire(ctx, "attempts", 300*time.Second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
