package quotecache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avstrong/bungalows/internal/pricing"
)

func sampleQuote() *pricing.QuoteResult {
	return &pricing.QuoteResult{
		UnitID:       "u1",
		CheckIn:      pricing.Day(2024, time.June, 10),
		CheckOut:     pricing.Day(2024, time.June, 12),
		Nights:       2,
		Guests:       2,
		BaseAmount:   decimal.RequireFromString("2000.00"),
		ExtrasAmount: decimal.Zero,
		TaxAmount:    decimal.RequireFromString("200.00"),
		TotalAmount:  decimal.RequireFromString("2200.00"),
		TaxRate:      decimal.RequireFromString("0.1"),
	}
}

func TestMemory_SetGet(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(time.Minute)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	quote := sampleQuote()
	require.NoError(t, cache.Set(ctx, "k", quote))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)

	want, err := json.Marshal(quote)
	require.NoError(t, err)

	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)

	assert.JSONEq(t, string(want), string(gotJSON))
	assert.NotSame(t, quote, got)
}

func TestMemory_Expiry(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(20 * time.Millisecond)

	require.NoError(t, cache.Set(ctx, "a", sampleQuote()))

	_, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok, err = cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Eventually(t, func() bool { return cache.Len() == 0 }, time.Second, 10*time.Millisecond)
}

func TestMemory_WithoutTTLKeepsEntries(t *testing.T) {
	ctx := context.Background()
	cache := NewMemory(0)

	require.NoError(t, cache.Set(ctx, "a", sampleQuote()))

	_, ok, err := cache.Get(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Len())
}
