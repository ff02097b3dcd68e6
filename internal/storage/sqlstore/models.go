package sqlstore

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/avstrong/bungalows/internal/pricing"
)

type unitModel struct {
	ID           string          `gorm:"column:id;primaryKey"`
	Name         string          `gorm:"column:name"`
	BasePrice    decimal.Decimal `gorm:"column:base_price;type:decimal(12,4)"`
	TaxInclusive bool            `gorm:"column:tax_inclusive"`
	MaxGuests    int             `gorm:"column:max_guests"`
	CreatedAt    time.Time       `gorm:"column:created_at"`
	UpdatedAt    time.Time       `gorm:"column:updated_at"`
}

func (unitModel) TableName() string { return "units" }

type ruleModel struct {
	ID         string          `gorm:"column:id;primaryKey"`
	Name       string          `gorm:"column:name"`
	Kind       string          `gorm:"column:kind"`
	AmountType string          `gorm:"column:amount_type"`
	Amount     decimal.Decimal `gorm:"column:amount;type:decimal(12,4)"`
	Scope      string          `gorm:"column:scope"`
	UnitID     *string         `gorm:"column:unit_id;index"`
	DateStart  *time.Time      `gorm:"column:date_start"`
	DateEnd    *time.Time      `gorm:"column:date_end"`
	Weekdays   *int            `gorm:"column:weekdays"`
	Active     bool            `gorm:"column:active;index"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
	UpdatedAt  time.Time       `gorm:"column:updated_at"`
}

func (ruleModel) TableName() string { return "price_rules" }

type reservationModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UnitID    string    `gorm:"column:unit_id;index:idx_reservations_unit_stay"`
	CheckIn   time.Time `gorm:"column:check_in;index:idx_reservations_unit_stay"`
	CheckOut  time.Time `gorm:"column:check_out"`
	Status    string    `gorm:"column:status"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (reservationModel) TableName() string { return "reservations" }

// ruleSetVersion is a single-row counter bumped by every rule write.
type ruleSetVersion struct {
	ID      int   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Version int64 `gorm:"column:version"`
}

func (ruleSetVersion) TableName() string { return "rule_set_versions" }

func toDomainUnit(m unitModel) *pricing.Unit {
	return &pricing.Unit{
		ID:           m.ID,
		Name:         m.Name,
		BasePrice:    m.BasePrice,
		TaxInclusive: m.TaxInclusive,
		MaxGuests:    m.MaxGuests,
	}
}

func toUnitModel(u *pricing.Unit) unitModel {
	return unitModel{
		ID:           u.ID,
		Name:         u.Name,
		BasePrice:    u.BasePrice,
		TaxInclusive: u.TaxInclusive,
		MaxGuests:    u.MaxGuests,
	}
}

func toDomainRule(m ruleModel) pricing.PriceRule {
	rule := pricing.PriceRule{
		ID:         m.ID,
		Name:       m.Name,
		Kind:       pricing.RuleKind(m.Kind),
		AmountType: pricing.AmountType(m.AmountType),
		Amount:     m.Amount,
		Scope:      pricing.Scope(m.Scope),
		Active:     m.Active,
		CreatedAt:  m.CreatedAt.UTC(),
	}

	if m.UnitID != nil {
		rule.UnitID = *m.UnitID
	}

	if m.DateStart != nil {
		d := pricing.DateOf(m.DateStart.UTC())
		rule.DateStart = &d
	}

	if m.DateEnd != nil {
		d := pricing.DateOf(m.DateEnd.UTC())
		rule.DateEnd = &d
	}

	if m.Weekdays != nil {
		mask := pricing.WeekdayMask(*m.Weekdays)
		rule.Weekdays = &mask
	}

	return rule
}

func toRuleModel(r *pricing.PriceRule) ruleModel {
	m := ruleModel{
		ID:         r.ID,
		Name:       r.Name,
		Kind:       string(r.Kind),
		AmountType: string(r.AmountType),
		Amount:     r.Amount,
		Scope:      string(r.Scope),
		DateStart:  r.DateStart,
		DateEnd:    r.DateEnd,
		Active:     r.Active,
		CreatedAt:  r.CreatedAt,
	}

	if r.UnitID != "" {
		unitID := r.UnitID
		m.UnitID = &unitID
	}

	if r.Weekdays != nil {
		mask := int(*r.Weekdays)
		m.Weekdays = &mask
	}

	return m
}

func toDomainReservation(m reservationModel) pricing.Reservation {
	return pricing.Reservation{
		ID:       m.ID,
		UnitID:   m.UnitID,
		CheckIn:  pricing.DateOf(m.CheckIn.UTC()),
		CheckOut: pricing.DateOf(m.CheckOut.UTC()),
		Status:   pricing.ReservationStatus(m.Status),
	}
}

func toReservationModel(r *pricing.Reservation) reservationModel {
	return reservationModel{
		ID:       r.ID,
		UnitID:   r.UnitID,
		CheckIn:  pricing.DateOf(r.CheckIn),
		CheckOut: pricing.DateOf(r.CheckOut),
		Status:   string(r.Status),
	}
}
