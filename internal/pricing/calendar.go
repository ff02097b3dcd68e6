package pricing

import (
	"context"
	"fmt"
	"time"
)

type reservationReader interface {
	FindBlockingReservations(ctx context.Context, unitID string, start, end time.Time) ([]Reservation, error)
}

// Calendar answers which days of a unit are taken by blocking reservations.
type Calendar struct {
	reservations reservationReader
}

func NewCalendar(reservations reservationReader) *Calendar {
	return &Calendar{reservations: reservations}
}

func (ve *ValidationError) checkRange(start, end time.Time) {
	if start.IsZero() {
		ve.addError("start", "provide start date")
	}

	if end.IsZero() {
		ve.addError("end", "provide end date")
	}

	if start.IsZero() || end.IsZero() {
		return
	}

	start, end = DateOf(start), DateOf(end)

	if !start.Before(end) {
		ve.addError("start", "start must be before end")

		return
	}

	if end.After(start.AddDate(0, 0, MaxStayNights)) {
		ve.addError("end", fmt.Sprintf("range must not exceed %d nights", MaxStayNights))
	}
}

func validateRange(start, end time.Time) error {
	inputErr := newValidationError()
	inputErr.checkRange(start, end)

	return inputErr.orNil()
}

func (c *Calendar) IsAvailable(ctx context.Context, unitID string, start, end time.Time) (bool, error) {
	blocked, err := c.BlockedDates(ctx, unitID, start, end)
	if err != nil {
		return false, err
	}

	return len(blocked) == 0, nil
}

// BlockedDates returns the sorted days of [start, end) covered by a blocking reservation.
func (c *Calendar) BlockedDates(ctx context.Context, unitID string, start, end time.Time) ([]time.Time, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}

	start, end = DateOf(start), DateOf(end)

	reservations, err := c.reservations.FindBlockingReservations(ctx, unitID, start, end)
	if err != nil {
		return nil, fmt.Errorf("find blocking reservations for unit %v: %w", unitID, err)
	}

	taken := make(map[time.Time]struct{})

	for _, r := range reservations {
		if r.UnitID != unitID || !r.Status.Blocking() {
			continue
		}

		checkIn, checkOut := DateOf(r.CheckIn), DateOf(r.CheckOut)
		if !checkIn.Before(end) || !checkOut.After(start) {
			continue
		}

		for _, d := range nightsBetween(checkIn, checkOut) {
			taken[d] = struct{}{}
		}
	}

	blocked := make([]time.Time, 0)

	for _, d := range nightsBetween(start, end) {
		if _, ok := taken[d]; ok {
			blocked = append(blocked, d)
		}
	}

	return blocked, nil
}
