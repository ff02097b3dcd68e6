package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCurrencyDecimals int32 = 2

type TaxPolicy struct {
	Rate     decimal.Decimal
	Decimals int32
}

type ruleContribution struct {
	rule   PriceRule
	delta  decimal.Decimal
	nights []time.Time
}

func ruleKey(r *PriceRule) string {
	if r.ID != "" {
		return r.ID
	}

	return "name:" + r.Name
}

func ruleLabel(r *PriceRule) string {
	if r.AmountType == AmountPercentage {
		return fmt.Sprintf("%s (%s, %s%%)", r.Name, r.Kind, r.Amount.String())
	}

	return fmt.Sprintf("%s (%s)", r.Name, r.Kind)
}

// applyRule returns the change r makes to the running night price. Percentages of a price already
// below zero are taken of zero.
func applyRule(running decimal.Decimal, r *PriceRule) decimal.Decimal {
	if r.AmountType == AmountPercentage {
		return decimal.Max(running, decimal.Zero).Mul(r.Amount).Shift(-2) //nolint:gomnd // percent
	}

	return r.Amount
}

func extraAmount(e *Extra, nights, guests int) (decimal.Decimal, error) {
	qty := e.Quantity
	if qty == 0 {
		qty = 1
	}

	amount := e.Amount.Mul(decimal.NewFromInt(int64(qty)))

	switch e.Type {
	case ExtraFlat:
		return amount, nil
	case ExtraPerNight:
		return amount.Mul(decimal.NewFromInt(int64(nights))), nil
	case ExtraPerGuest:
		return amount.Mul(decimal.NewFromInt(int64(nights * guests))), nil
	default:
		return decimal.Zero, newComputationError("extra %q has unknown type %q", e.Name, e.Type)
	}
}

// ComputeBreakdown folds the scheduled rules into every night's price, adds extras and tax and
// rounds the aggregates to the currency precision. Intermediate sums keep full precision.
//
//nolint:funlen,cyclop // linear fold over nights, extras and tax
func ComputeBreakdown(unit *Unit, schedule Schedule, guests int, extras []Extra, policy TaxPolicy) (*QuoteResult, error) {
	if len(schedule.Nights) == 0 {
		return nil, newComputationError("no nights to price for unit %q", unit.ID)
	}

	if schedule.UnitID != "" && schedule.UnitID != unit.ID {
		return nil, newComputationError("schedule for unit %q used to price unit %q", schedule.UnitID, unit.ID)
	}

	round := func(d decimal.Decimal) decimal.Decimal { return d.Round(policy.Decimals) }

	var (
		lines         []BreakdownLine
		contributions []*ruleContribution
		clamped       []time.Time
	)

	byRule := make(map[string]*ruleContribution)
	baseAmount := decimal.Zero
	clampAmount := decimal.Zero

	for _, night := range schedule.Nights {
		running := unit.BasePrice

		lines = append(lines, BreakdownLine{
			Category: LineNight,
			Label:    "Nightly rate",
			Amount:   round(unit.BasePrice),
			Nights:   []time.Time{night.Date},
		})

		for i := range night.Rules {
			rule := &night.Rules[i]

			if !rule.appliesToUnit(unit.ID) {
				return nil, newComputationError("rule %q of unit %q leaked into a quote for unit %q", rule.ID, rule.UnitID, unit.ID)
			}

			delta := applyRule(running, rule)
			running = running.Add(delta)

			key := ruleKey(rule)

			c, ok := byRule[key]
			if !ok {
				c = &ruleContribution{rule: *rule, delta: decimal.Zero}
				byRule[key] = c
				contributions = append(contributions, c)
			}

			c.delta = c.delta.Add(delta)
			c.nights = append(c.nights, night.Date)
		}

		if running.IsNegative() {
			clampAmount = clampAmount.Add(running.Neg())
			clamped = append(clamped, night.Date)
			running = decimal.Zero
		}

		baseAmount = baseAmount.Add(running)
	}

	discountAmount := decimal.Zero

	for _, c := range contributions {
		if c.delta.IsNegative() {
			discountAmount = discountAmount.Add(c.delta.Neg())
		}

		lines = append(lines, BreakdownLine{
			Category: LineRule,
			Label:    ruleLabel(&c.rule),
			Amount:   round(c.delta),
			Nights:   c.nights,
			RuleID:   c.rule.ID,
		})
	}

	if len(clamped) > 0 {
		lines = append(lines, BreakdownLine{
			Category: LineClamp,
			Label:    "Night price clamped at zero",
			Amount:   round(clampAmount),
			Nights:   clamped,
		})
	}

	nights := len(schedule.Nights)
	extrasAmount := decimal.Zero

	for i := range extras {
		amount, err := extraAmount(&extras[i], nights, guests)
		if err != nil {
			return nil, err
		}

		extrasAmount = extrasAmount.Add(amount)

		lines = append(lines, BreakdownLine{
			Category: LineExtra,
			Label:    fmt.Sprintf("%s (%s)", extras[i].Name, extras[i].Type),
			Amount:   round(amount),
		})
	}

	gross := baseAmount.Add(extrasAmount)

	var tax decimal.Decimal
	if unit.TaxInclusive {
		tax = gross.Sub(gross.Div(decimal.NewFromInt(1).Add(policy.Rate)))
	} else {
		tax = gross.Mul(policy.Rate)
	}

	taxLabel := fmt.Sprintf("Tax %s%%", policy.Rate.Shift(2).String()) //nolint:gomnd // percent
	if unit.TaxInclusive {
		taxLabel += " (included)"
	}

	lines = append(lines, BreakdownLine{
		Category: LineTax,
		Label:    taxLabel,
		Amount:   round(tax),
	})

	result := &QuoteResult{
		UnitID:         unit.ID,
		CheckIn:        schedule.Nights[0].Date,
		CheckOut:       schedule.Nights[nights-1].Date.AddDate(0, 0, 1),
		Nights:         nights,
		Guests:         guests,
		BaseAmount:     round(baseAmount),
		ExtrasAmount:   round(extrasAmount),
		DiscountAmount: round(discountAmount),
		TaxAmount:      round(tax),
		TaxInclusive:   unit.TaxInclusive,
		TaxRate:        policy.Rate,
		Lines:          lines,
		ClampedNights:  clamped,
	}

	result.TotalAmount = result.BaseAmount.Add(result.ExtrasAmount)
	if !unit.TaxInclusive {
		result.TotalAmount = result.TotalAmount.Add(result.TaxAmount)
	}

	if result.TotalAmount.IsNegative() {
		return nil, newComputationError("negative total %s for unit %q", result.TotalAmount, unit.ID)
	}

	return result, nil
}
