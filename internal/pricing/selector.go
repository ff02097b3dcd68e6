package pricing

import (
	"sort"
	"time"
)

// Night is one night of a stay with the rules that apply to it, in application order.
type Night struct {
	Date  time.Time   `json:"date"`
	Rules []PriceRule `json:"rules"`
}

// Schedule is an ordered mapping from night to applicable rules.
type Schedule struct {
	UnitID string  `json:"unit_id"`
	Nights []Night `json:"nights"`
}

func (s Schedule) RulesOn(date time.Time) []PriceRule {
	date = DateOf(date)

	for _, n := range s.Nights {
		if n.Date.Equal(date) {
			return n.Rules
		}
	}

	return nil
}

func (r *PriceRule) Validate() error {
	switch r.Scope {
	case ScopeUnit:
		if r.UnitID == "" {
			return newComputationError("unit-scoped rule %q has no unit id", r.ID)
		}
	case ScopeGlobal:
		if r.UnitID != "" {
			return newComputationError("global rule %q is bound to unit %q", r.ID, r.UnitID)
		}
	default:
		return newComputationError("rule %q has unknown scope %q", r.ID, r.Scope)
	}

	switch r.AmountType {
	case AmountFixed, AmountPercentage:
	default:
		return newComputationError("rule %q has unknown amount type %q", r.ID, r.AmountType)
	}

	return nil
}

func (r *PriceRule) appliesToUnit(unitID string) bool {
	switch r.Scope {
	case ScopeGlobal:
		return true
	case ScopeUnit:
		return r.UnitID == unitID
	default:
		return false
	}
}

func (r *PriceRule) activeOn(night time.Time) bool {
	if r.DateStart != nil && night.Before(DateOf(*r.DateStart)) {
		return false
	}

	if r.DateEnd != nil && night.After(DateOf(*r.DateEnd)) {
		return false
	}

	if r.Weekdays != nil && !r.Weekdays.Has(night.Weekday()) {
		return false
	}

	return true
}

// rulePrecedes orders unit rules before global ones, then older rules first.
func rulePrecedes(a, b *PriceRule) bool {
	if a.Scope != b.Scope {
		return a.Scope == ScopeUnit
	}

	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}

	return a.ID < b.ID
}

// SelectApplicableRules resolves, for every night of [start, end), the rules that apply to the
// unit in the order they must be folded into the night price.
func SelectApplicableRules(unitID string, start, end time.Time, rules []PriceRule) (Schedule, error) {
	if err := validateRange(start, end); err != nil {
		return Schedule{}, err
	}

	candidates := make([]PriceRule, 0, len(rules))

	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return Schedule{}, err
		}

		if rules[i].appliesToUnit(unitID) {
			candidates = append(candidates, rules[i])
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return rulePrecedes(&candidates[i], &candidates[j])
	})

	schedule := Schedule{UnitID: unitID}

	for _, night := range nightsBetween(DateOf(start), DateOf(end)) {
		applicable := make([]PriceRule, 0)

		for i := range candidates {
			if candidates[i].activeOn(night) {
				applicable = append(applicable, candidates[i])
			}
		}

		schedule.Nights = append(schedule.Nights, Night{Date: night, Rules: applicable})
	}

	return schedule, nil
}
