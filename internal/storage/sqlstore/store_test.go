package sqlstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/avstrong/bungalows/internal/idgen/uuidgen"
	"github.com/avstrong/bungalows/internal/logger"
	"github.com/avstrong/bungalows/internal/pricing"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "bungalows.db"))
	require.NoError(t, err)

	store := New(db, Config{L: logger.New(zap.NewNop()), IDGen: uuidgen.New("")})
	require.NoError(t, store.Migrate(context.Background()))

	return store
}

func day(d int) time.Time {
	return pricing.Day(2024, time.June, d)
}

func TestStore_GetUnit(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveUnits(ctx, []*pricing.Unit{{
		ID:           "pine",
		Name:         "Pine bungalow",
		BasePrice:    decimal.RequireFromString("1000.50"),
		TaxInclusive: true,
		MaxGuests:    4,
	}}))

	unit, err := store.GetUnit(ctx, "pine")
	require.NoError(t, err)
	assert.Equal(t, "Pine bungalow", unit.Name)
	assert.True(t, unit.BasePrice.Equal(decimal.RequireFromString("1000.5")), unit.BasePrice.String())
	assert.True(t, unit.TaxInclusive)
	assert.Equal(t, 4, unit.MaxGuests)

	_, err = store.GetUnit(ctx, "missing")
	assert.ErrorIs(t, err, pricing.ErrRecordNotFound)
}

func TestStore_FindBlockingReservations(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveReservations(ctx, []*pricing.Reservation{
		{UnitID: "pine", CheckIn: day(10), CheckOut: day(12), Status: pricing.StatusConfirmed},
		{UnitID: "pine", CheckIn: day(12), CheckOut: day(14), Status: pricing.StatusCancelled},
		{UnitID: "pine", CheckIn: day(14), CheckOut: day(16), Status: pricing.StatusPending},
		{UnitID: "oak", CheckIn: day(10), CheckOut: day(20), Status: pricing.StatusCheckedIn},
	}))

	found, err := store.FindBlockingReservations(ctx, "pine", day(11), day(15))
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, day(10), found[0].CheckIn)
	assert.Equal(t, day(12), found[0].CheckOut)
	assert.Equal(t, pricing.StatusPending, found[1].Status)

	found, err = store.FindBlockingReservations(ctx, "pine", day(12), day(14))
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestStore_SaveReservationsRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	require.NoError(t, store.SaveReservations(ctx, []*pricing.Reservation{
		{UnitID: "pine", CheckIn: day(10), CheckOut: day(12), Status: pricing.StatusConfirmed},
	}))

	err := store.SaveReservations(ctx, []*pricing.Reservation{
		{UnitID: "pine", CheckIn: day(11), CheckOut: day(13), Status: pricing.StatusPending},
	})
	assert.ErrorIs(t, err, ErrReservationOverlap)

	err = store.SaveReservations(ctx, []*pricing.Reservation{
		{UnitID: "pine", CheckIn: day(12), CheckOut: day(13), Status: pricing.StatusPending},
	})
	assert.NoError(t, err)

	err = store.SaveReservations(ctx, []*pricing.Reservation{
		{UnitID: "pine", CheckIn: day(13), CheckOut: day(13), Status: pricing.StatusPending},
	})
	assert.ErrorIs(t, err, ErrInvalidReservation)
}

func TestStore_RulesAndVersion(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	v0, err := store.RulesVersion(ctx)
	require.NoError(t, err)

	start := day(1)
	weekends := pricing.Weekends

	require.NoError(t, store.SaveRules(ctx, []*pricing.PriceRule{
		{
			ID:         "summer",
			Name:       "Summer",
			Kind:       pricing.KindSeasonal,
			AmountType: pricing.AmountPercentage,
			Amount:     decimal.NewFromInt(15),
			Scope:      pricing.ScopeGlobal,
			DateStart:  &start,
			Weekdays:   &weekends,
			Active:     true,
			CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:         "pine-discount",
			Name:       "Pine discount",
			Kind:       pricing.KindBase,
			AmountType: pricing.AmountFixed,
			Amount:     decimal.NewFromInt(-50),
			Scope:      pricing.ScopeUnit,
			UnitID:     "pine",
			Active:     true,
			CreatedAt:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:         "retired",
			Name:       "Retired",
			Kind:       pricing.KindBase,
			AmountType: pricing.AmountFixed,
			Amount:     decimal.NewFromInt(10),
			Scope:      pricing.ScopeGlobal,
			Active:     false,
			CreatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		},
	}))

	v1, err := store.RulesVersion(ctx)
	require.NoError(t, err)
	assert.Greater(t, v1, v0)

	rules, err := store.AllActiveRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "summer", rules[0].ID)
	require.NotNil(t, rules[0].DateStart)
	assert.Equal(t, start, *rules[0].DateStart)
	assert.Nil(t, rules[0].DateEnd)
	require.NotNil(t, rules[0].Weekdays)
	assert.Equal(t, pricing.Weekends, *rules[0].Weekdays)
	assert.Empty(t, rules[0].UnitID)

	assert.Equal(t, "pine-discount", rules[1].ID)
	assert.Equal(t, "pine", rules[1].UnitID)
	assert.True(t, rules[1].Amount.Equal(decimal.NewFromInt(-50)))
	assert.Nil(t, rules[1].Weekdays)
}

func TestStore_SaveRulesRejectsScopeViolation(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	err := store.SaveRules(ctx, []*pricing.PriceRule{{
		Name:       "broken",
		AmountType: pricing.AmountFixed,
		Scope:      pricing.ScopeUnit,
		Active:     true,
	}})
	require.Error(t, err)
	assert.NotNil(t, pricing.IsComputationError(err))

	v, err := store.RulesVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)
}

func TestStore_Transaction(t *testing.T) {
	ctx := context.Background()
	store := setupStore(t)

	trxCtx, err := store.BeginTransaction(ctx, "")
	require.NoError(t, err)

	require.NoError(t, store.SaveUnits(trxCtx, []*pricing.Unit{{ID: "birch", BasePrice: decimal.NewFromInt(700)}}))
	require.NoError(t, store.RollbackTransaction(trxCtx))

	_, err = store.GetUnit(ctx, "birch")
	assert.ErrorIs(t, err, pricing.ErrRecordNotFound)

	trxCtx, err = store.BeginTransaction(ctx, "")
	require.NoError(t, err)

	require.NoError(t, store.SaveUnits(trxCtx, []*pricing.Unit{{ID: "birch", BasePrice: decimal.NewFromInt(700)}}))
	require.NoError(t, store.CommitTransaction(trxCtx))

	unit, err := store.GetUnit(ctx, "birch")
	require.NoError(t, err)
	assert.True(t, unit.BasePrice.Equal(decimal.NewFromInt(700)))

	assert.ErrorIs(t, store.CommitTransaction(ctx), ErrTransactionNotFoundInCtx)
}
