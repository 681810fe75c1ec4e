package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_GetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, ok, err := m.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Set(ctx, "AAPL", decimal.RequireFromString("195.50"), time.Minute))
	v, ok, err := m.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, v.Equal(decimal.RequireFromString("195.5")))
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "MSFT", decimal.NewFromInt(420), 30*time.Second))

	now = now.Add(29 * time.Second)
	_, ok, _ := m.Get(ctx, "MSFT")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok, _ = m.Get(ctx, "MSFT")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_ZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	m := NewMemory()
	m.now = func() time.Time { return now }

	require.NoError(t, m.Set(ctx, "V", decimal.NewFromInt(285), 0))
	now = now.Add(24 * time.Hour)

	_, ok, _ := m.Get(ctx, "V")
	assert.True(t, ok)
}

func TestMemory_Concurrent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Set(ctx, "K", decimal.NewFromInt(int64(i)), time.Minute)
			_, _, _ = m.Get(ctx, "K")
		}(i)
	}
	wg.Wait()

	_, ok, _ := m.Get(ctx, "K")
	assert.True(t, ok)
}
