package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	StatusPending    ReservationStatus = "PENDING"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

// BlockingStatuses reserve calendar capacity.
var BlockingStatuses = []ReservationStatus{StatusPending, StatusConfirmed, StatusCheckedIn}

func (s ReservationStatus) Blocking() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCheckedIn:
		return true
	case StatusCheckedOut, StatusCancelled:
		return false
	default:
		return false
	}
}

type RuleKind string

const (
	KindBase     RuleKind = "BASE"
	KindSeasonal RuleKind = "SEASONAL"
	KindExtra    RuleKind = "EXTRA"
)

type AmountType string

const (
	AmountFixed      AmountType = "FIXED"
	AmountPercentage AmountType = "PERCENTAGE"
)

type Scope string

const (
	ScopeGlobal Scope = "GLOBAL"
	ScopeUnit   Scope = "UNIT"
)

type ExtraType string

const (
	ExtraFlat     ExtraType = "FLAT"
	ExtraPerNight ExtraType = "PER_NIGHT"
	ExtraPerGuest ExtraType = "PER_GUEST"
)

type LineCategory string

const (
	LineNight LineCategory = "NIGHT"
	LineRule  LineCategory = "RULE"
	LineClamp LineCategory = "CLAMP"
	LineExtra LineCategory = "EXTRA"
	LineTax   LineCategory = "TAX"
)

type Availability string

const (
	Available   Availability = "AVAILABLE"
	Unavailable Availability = "UNAVAILABLE"
)

type Unit struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	BasePrice    decimal.Decimal `json:"base_price"`
	TaxInclusive bool            `json:"tax_inclusive"`
	MaxGuests    int             `json:"max_guests"`
}

type Reservation struct {
	ID       string            `json:"id"`
	UnitID   string            `json:"unit_id"`
	CheckIn  time.Time         `json:"check_in"`
	CheckOut time.Time         `json:"check_out"`
	Status   ReservationStatus `json:"status"`
}

type PriceRule struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Kind       RuleKind        `json:"kind"`
	AmountType AmountType      `json:"amount_type"`
	Amount     decimal.Decimal `json:"amount"`
	Scope      Scope           `json:"scope"`
	UnitID     string          `json:"unit_id,omitempty"`
	DateStart  *time.Time      `json:"date_start,omitempty"`
	DateEnd    *time.Time      `json:"date_end,omitempty"`
	Weekdays   *WeekdayMask    `json:"weekdays,omitempty"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
}

type Extra struct {
	Name     string          `json:"name"`
	Type     ExtraType       `json:"type"`
	Amount   decimal.Decimal `json:"amount"`
	Quantity int             `json:"quantity"`
}

type QuoteRequest struct {
	UnitID   string    `json:"unit_id"`
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
	Guests   int       `json:"guests"`
	Extras   []Extra   `json:"extras"`
}

type BreakdownLine struct {
	Category LineCategory    `json:"category"`
	Label    string          `json:"label"`
	Amount   decimal.Decimal `json:"amount"`
	Nights   []time.Time     `json:"nights,omitempty"`
	RuleID   string          `json:"rule_id,omitempty"`
}

type QuoteResult struct {
	UnitID         string          `json:"unit_id"`
	CheckIn        time.Time       `json:"check_in"`
	CheckOut       time.Time       `json:"check_out"`
	Nights         int             `json:"nights"`
	Guests         int             `json:"guests"`
	BaseAmount     decimal.Decimal `json:"base_amount"`
	ExtrasAmount   decimal.Decimal `json:"extras_amount"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	TaxInclusive   bool            `json:"tax_inclusive"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	Lines          []BreakdownLine `json:"lines"`
	ClampedNights  []time.Time     `json:"clamped_nights,omitempty"`
}

type AvailabilityResult struct {
	UnitID       string       `json:"unit_id"`
	Start        time.Time    `json:"start"`
	End          time.Time    `json:"end"`
	Status       Availability `json:"status"`
	BlockedDates []time.Time  `json:"blocked_dates"`
}

func (a *AvailabilityResult) Available() bool {
	return a.Status == Available
}
