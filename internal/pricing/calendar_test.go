package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalendar_BlockedDates(t *testing.T) {
	storage := newFakeStorage()
	storage.reservations = []Reservation{
		{ID: "a", UnitID: "dune", CheckIn: june(10), CheckOut: june(12), Status: StatusConfirmed},
		{ID: "b", UnitID: "dune", CheckIn: june(12), CheckOut: june(14), Status: StatusCancelled},
		{ID: "c", UnitID: "dune", CheckIn: june(14), CheckOut: june(15), Status: StatusCheckedOut},
		{ID: "d", UnitID: "lagoon", CheckIn: june(12), CheckOut: june(14), Status: StatusPending},
	}

	blocked, err := NewCalendar(storage).BlockedDates(context.Background(), "dune", june(11), june(16))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{june(11)}, blocked)
}

func TestCalendar_UnavailableRange(t *testing.T) {
	storage := newFakeStorage()
	storage.reservations = []Reservation{
		{ID: "a", UnitID: "dune", CheckIn: june(10), CheckOut: june(12), Status: StatusConfirmed},
	}

	ok, err := NewCalendar(storage).IsAvailable(context.Background(), "dune", june(11), june(13))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCalendar_AdjacentStaysCoexist(t *testing.T) {
	storage := newFakeStorage()
	storage.reservations = []Reservation{
		{ID: "a", UnitID: "dune", CheckIn: june(10), CheckOut: june(12), Status: StatusConfirmed},
		{ID: "b", UnitID: "dune", CheckIn: june(15), CheckOut: june(18), Status: StatusCheckedIn},
	}

	calendar := NewCalendar(storage)

	ok, err := calendar.IsAvailable(context.Background(), "dune", june(12), june(15))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = calendar.IsAvailable(context.Background(), "dune", june(8), june(10))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCalendar_AgreesWithDayByDayCheck(t *testing.T) {
	storage := newFakeStorage()
	storage.reservations = []Reservation{
		{ID: "a", UnitID: "dune", CheckIn: june(3), CheckOut: june(5), Status: StatusPending},
		{ID: "b", UnitID: "dune", CheckIn: june(5), CheckOut: june(6), Status: StatusConfirmed},
		{ID: "c", UnitID: "dune", CheckIn: june(9), CheckOut: june(13), Status: StatusCheckedIn},
		{ID: "d", UnitID: "dune", CheckIn: june(13), CheckOut: june(20), Status: StatusCancelled},
		{ID: "e", UnitID: "dune", CheckIn: june(22), CheckOut: june(25), Status: StatusConfirmed},
	}

	taken := func(d time.Time) bool {
		for _, r := range storage.reservations {
			if r.Status.Blocking() && !d.Before(r.CheckIn) && d.Before(r.CheckOut) {
				return true
			}
		}

		return false
	}

	calendar := NewCalendar(storage)

	for from := 1; from < 28; from++ {
		for to := from + 1; to <= 28; to++ {
			expected := true

			for d := from; d < to; d++ {
				if taken(june(d)) {
					expected = false
				}
			}

			ok, err := calendar.IsAvailable(context.Background(), "dune", june(from), june(to))
			require.NoError(t, err)
			assert.Equal(t, expected, ok, "range %d..%d", from, to)
		}
	}
}

func TestCalendar_RejectsEmptyRange(t *testing.T) {
	calendar := NewCalendar(newFakeStorage())

	_, err := calendar.BlockedDates(context.Background(), "dune", june(12), june(12))
	require.Error(t, err)

	inputErr := IsValidationError(err)
	require.NotNil(t, inputErr)
	assert.Contains(t, inputErr.Fields(), "start")

	_, err = calendar.BlockedDates(context.Background(), "dune", june(12), june(10))
	assert.NotNil(t, IsValidationError(err))
}
