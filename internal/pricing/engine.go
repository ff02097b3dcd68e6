package pricing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/bungalows/internal/logger"
)

type ruleReader interface {
	AllActiveRules(ctx context.Context) ([]PriceRule, error)
	RulesVersion(ctx context.Context) (int64, error)
}

type unitReader interface {
	GetUnit(ctx context.Context, unitID string) (*Unit, error)
}

type storage interface {
	reservationReader
	ruleReader
	unitReader
}

type quoteCache interface {
	Get(ctx context.Context, key string) (*QuoteResult, bool, error)
	Set(ctx context.Context, key string, quote *QuoteResult) error
}

type Conf struct {
	TaxRate decimal.Decimal
	// CurrencyDecimals is the precision of reported amounts; zero prices in whole units. Negative
	// values select DefaultCurrencyDecimals.
	CurrencyDecimals int32
	// Cache is optional. It is consulted only after the availability check.
	Cache quoteCache
}

// Engine answers availability and quote requests. It keeps no state between calls; everything it
// reads comes from the storage collaborators.
type Engine struct {
	l        *logger.Logger
	storage  storage
	calendar *Calendar
	policy   TaxPolicy
	cache    quoteCache
}

func New(l *logger.Logger, storage storage, conf Conf) *Engine {
	decimals := conf.CurrencyDecimals
	if decimals < 0 {
		decimals = DefaultCurrencyDecimals
	}

	return &Engine{
		l:        l,
		storage:  storage,
		calendar: NewCalendar(storage),
		policy:   TaxPolicy{Rate: conf.TaxRate, Decimals: decimals},
		cache:    conf.Cache,
	}
}

func (e *Engine) getUnit(ctx context.Context, unitID string) (*Unit, error) {
	unit, err := e.storage.GetUnit(ctx, unitID)
	if errors.Is(err, ErrRecordNotFound) {
		inputErr := newValidationError()
		inputErr.addError("unit_id", fmt.Sprintf("unknown unit %q", unitID))

		return nil, inputErr
	}

	if err != nil {
		return nil, fmt.Errorf("get unit %v: %w", unitID, err)
	}

	return unit, nil
}

func (e *Engine) CheckAvailability(ctx context.Context, unitID string, start, end time.Time) (*AvailabilityResult, error) {
	inputErr := newValidationError()

	if unitID == "" {
		inputErr.addError("unit_id", "provide unit_id")
	}

	inputErr.checkRange(start, end)

	if err := inputErr.orNil(); err != nil {
		return nil, err
	}

	if _, err := e.getUnit(ctx, unitID); err != nil {
		return nil, err
	}

	start, end = DateOf(start), DateOf(end)

	blocked, err := e.calendar.BlockedDates(ctx, unitID, start, end)
	if err != nil {
		return nil, fmt.Errorf("get blocked dates: %w", err)
	}

	result := &AvailabilityResult{
		UnitID:       unitID,
		Start:        start,
		End:          end,
		Status:       Available,
		BlockedDates: blocked,
	}

	if len(blocked) > 0 {
		result.Status = Unavailable
	}

	return result, nil
}

func (r *QuoteRequest) validate() error {
	inputErr := newValidationError()

	if r.UnitID == "" {
		inputErr.addError("unit_id", "provide unit_id")
	}

	inputErr.checkRange(r.CheckIn, r.CheckOut)

	if r.Guests < 1 {
		inputErr.addError("guests", "provide at least one guest")
	}

	for _, extra := range r.Extras {
		if extra.Name == "" {
			inputErr.addError("extras.name", "provide extras.name")
		}

		switch extra.Type {
		case ExtraFlat, ExtraPerNight, ExtraPerGuest:
		default:
			inputErr.addError("extras.type", fmt.Sprintf("unknown extra type %q", extra.Type))
		}

		if extra.Amount.IsNegative() {
			inputErr.addError("extras.amount", "extras.amount must not be negative")
		}

		if extra.Quantity < 0 {
			inputErr.addError("extras.quantity", "extras.quantity must not be negative")
		}
	}

	return inputErr.orNil()
}

func (r *QuoteRequest) prepareDates() QuoteRequest {
	prepared := *r
	prepared.CheckIn = DateOf(r.CheckIn)
	prepared.CheckOut = DateOf(r.CheckOut)

	return prepared
}

func (e *Engine) quoteKey(unit *Unit, req *QuoteRequest, version int64) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s|%s|%t|%s|%d|", unit.BasePrice, e.policy.Rate, unit.TaxInclusive, FormatDate(req.CheckIn), req.Guests)
	fmt.Fprintf(h, "%s|", FormatDate(req.CheckOut))

	for _, extra := range req.Extras {
		fmt.Fprintf(h, "%q|%s|%s|%d|", extra.Name, extra.Type, extra.Amount, extra.Quantity)
	}

	return fmt.Sprintf("quote:%s:v%d:%s", unit.ID, version, hex.EncodeToString(h.Sum(nil)))
}

func (e *Engine) cachedQuote(ctx context.Context, key string) *QuoteResult {
	quote, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.l.LogWarnf("Could not read quote %v from cache: %v", key, err.Error())

		return nil
	}

	if !ok {
		return nil
	}

	return quote
}

// CalculatePricing prices a stay. An unavailable range fails with *ConflictError before any rule is
// evaluated.
//
//nolint:cyclop // linear pipeline
func (e *Engine) CalculatePricing(ctx context.Context, input *QuoteRequest) (*QuoteResult, error) {
	if input == nil {
		inputErr := newValidationError()
		inputErr.addError("request", "provide quote request")

		return nil, inputErr
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	req := input.prepareDates()

	unit, err := e.getUnit(ctx, req.UnitID)
	if err != nil {
		return nil, err
	}

	if unit.MaxGuests > 0 && req.Guests > unit.MaxGuests {
		inputErr := newValidationError()
		inputErr.addError("guests", fmt.Sprintf("unit %v hosts at most %d guests", unit.ID, unit.MaxGuests))

		return nil, inputErr
	}

	blocked, err := e.calendar.BlockedDates(ctx, req.UnitID, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}

	if len(blocked) > 0 {
		return nil, &ConflictError{
			UnitID:       req.UnitID,
			Start:        req.CheckIn,
			End:          req.CheckOut,
			BlockedDates: blocked,
		}
	}

	var cacheKey string

	if e.cache != nil {
		version, err := e.storage.RulesVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("get rules version: %w", err)
		}

		cacheKey = e.quoteKey(unit, &req, version)

		if quote := e.cachedQuote(ctx, cacheKey); quote != nil {
			e.l.LogDebugf("Quote %v served from cache", cacheKey)

			return quote, nil
		}
	}

	rules, err := e.storage.AllActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active rules: %w", err)
	}

	schedule, err := SelectApplicableRules(req.UnitID, req.CheckIn, req.CheckOut, rules)
	if err != nil {
		return nil, fmt.Errorf("select rules for unit %v: %w", req.UnitID, err)
	}

	quote, err := ComputeBreakdown(unit, schedule, req.Guests, req.Extras, e.policy)
	if err != nil {
		return nil, fmt.Errorf("compute breakdown for unit %v: %w", req.UnitID, err)
	}

	if len(quote.ClampedNights) > 0 {
		e.l.LogWarnf("Night price clamped at zero for unit %v on %d night(s) starting %v",
			unit.ID, len(quote.ClampedNights), FormatDate(quote.ClampedNights[0]))
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, cacheKey, quote); err != nil {
			e.l.LogWarnf("Could not store quote %v in cache: %v", cacheKey, err.Error())
		}
	}

	return quote, nil
}
