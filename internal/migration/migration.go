package migration

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/bungalows/internal/logger"
	"github.com/avstrong/bungalows/internal/pricing"
)

type storage interface {
	BeginTransaction(ctx context.Context, level string) (context.Context, error)
	CommitTransaction(ctx context.Context) error
	RollbackTransaction(ctx context.Context) error
	SaveUnits(ctx context.Context, units []*pricing.Unit) error
	SaveRules(ctx context.Context, rules []*pricing.PriceRule) error
	SaveReservations(ctx context.Context, reservations []*pricing.Reservation) error
}

func date(year, month, day int) time.Time {
	return pricing.Day(year, time.Month(month), day)
}

func ptr[T any](v T) *T {
	return &v
}

func units() []*pricing.Unit {
	return []*pricing.Unit{
		{
			ID:        "dune",
			Name:      "Dune bungalow",
			BasePrice: decimal.NewFromInt(1000), //nolint:gomnd
			MaxGuests: 4,                        //nolint:gomnd
		},
		{
			ID:           "lagoon",
			Name:         "Lagoon bungalow",
			BasePrice:    decimal.RequireFromString("1450.00"),
			TaxInclusive: true,
			MaxGuests:    6, //nolint:gomnd
		},
	}
}

func rules() []*pricing.PriceRule {
	created := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	return []*pricing.PriceRule{
		{
			ID:         "high-season",
			Name:       "High season",
			Kind:       pricing.KindSeasonal,
			AmountType: pricing.AmountPercentage,
			Amount:     decimal.NewFromInt(20), //nolint:gomnd
			Scope:      pricing.ScopeGlobal,
			DateStart:  ptr(date(2024, 7, 1)),
			DateEnd:    ptr(date(2024, 8, 31)),
			Active:     true,
			CreatedAt:  created,
		},
		{
			ID:         "weekend",
			Name:       "Weekend surcharge",
			Kind:       pricing.KindBase,
			AmountType: pricing.AmountFixed,
			Amount:     decimal.NewFromInt(150), //nolint:gomnd
			Scope:      pricing.ScopeGlobal,
			Weekdays:   ptr(pricing.Weekends),
			Active:     true,
			CreatedAt:  created.Add(time.Hour),
		},
		{
			ID:         "dune-midweek",
			Name:       "Dune midweek discount",
			Kind:       pricing.KindBase,
			AmountType: pricing.AmountPercentage,
			Amount:     decimal.NewFromInt(-10), //nolint:gomnd
			Scope:      pricing.ScopeUnit,
			UnitID:     "dune",
			Weekdays:   ptr(pricing.MaskOf(time.Monday, time.Tuesday, time.Wednesday, time.Thursday)),
			Active:     true,
			CreatedAt:  created.Add(2 * time.Hour), //nolint:gomnd
		},
		{
			ID:         "cleaning",
			Name:       "Cleaning fee",
			Kind:       pricing.KindExtra,
			AmountType: pricing.AmountFixed,
			Amount:     decimal.NewFromInt(40), //nolint:gomnd
			Scope:      pricing.ScopeGlobal,
			Active:     false,
			CreatedAt:  created.Add(3 * time.Hour), //nolint:gomnd
		},
	}
}

func reservations() []*pricing.Reservation {
	return []*pricing.Reservation{
		{ID: "res-1", UnitID: "dune", CheckIn: date(2024, 6, 10), CheckOut: date(2024, 6, 12), Status: pricing.StatusConfirmed},
		{ID: "res-2", UnitID: "dune", CheckIn: date(2024, 6, 12), CheckOut: date(2024, 6, 15), Status: pricing.StatusPending},
		{ID: "res-3", UnitID: "dune", CheckIn: date(2024, 6, 20), CheckOut: date(2024, 6, 22), Status: pricing.StatusCancelled},
		{ID: "res-4", UnitID: "lagoon", CheckIn: date(2024, 7, 5), CheckOut: date(2024, 7, 9), Status: pricing.StatusCheckedIn},
	}
}

// Up seeds the demo catalog, rules and reservations in a single transaction.
func Up(ctx context.Context, l *logger.Logger, storage storage) (err error) {
	ctx, err = storage.BeginTransaction(ctx, "")
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			if err = storage.RollbackTransaction(ctx); err != nil {
				l.LogErrorf("Could not rollback migration transaction after panic %v", p)
			}

			l.LogInfo("Migration transaction has been roll backed after panic")

			panic(p)
		}

		if err != nil {
			if rbErr := storage.RollbackTransaction(ctx); rbErr != nil {
				l.LogErrorf("Could not rollback migration transaction after error %v", rbErr.Error())
			}

			l.LogInfo("Migration transaction has been roll backed after error")

			return
		}

		if err = storage.CommitTransaction(ctx); err != nil {
			l.LogErrorf("Could not commit migration transaction, err %v", err.Error())

			return
		}

		l.LogInfo("Migration transaction has been committed")
	}()

	if err = storage.SaveUnits(ctx, units()); err != nil {
		return fmt.Errorf("save units to storage: %w", err)
	}

	if err = storage.SaveRules(ctx, rules()); err != nil {
		return fmt.Errorf("save rules to storage: %w", err)
	}

	if err = storage.SaveReservations(ctx, reservations()); err != nil {
		return fmt.Errorf("save reservations to storage: %w", err)
	}

	return nil
}
