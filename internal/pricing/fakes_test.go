package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func june(d int) time.Time {
	return Day(2024, time.June, d)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeStorage struct {
	units        map[string]*Unit
	reservations []Reservation
	rules        []PriceRule
	version      int64
	ruleReads    int
}

func newFakeStorage(units ...*Unit) *fakeStorage {
	s := &fakeStorage{units: make(map[string]*Unit)}
	for _, u := range units {
		s.units[u.ID] = u
	}

	return s
}

// FindBlockingReservations returns every reservation of the unit; the calendar does the filtering.
func (s *fakeStorage) FindBlockingReservations(_ context.Context, unitID string, _, _ time.Time) ([]Reservation, error) {
	var result []Reservation

	for _, r := range s.reservations {
		if r.UnitID == unitID {
			result = append(result, r)
		}
	}

	return result, nil
}

func (s *fakeStorage) AllActiveRules(_ context.Context) ([]PriceRule, error) {
	s.ruleReads++

	var result []PriceRule

	for _, r := range s.rules {
		if r.Active {
			result = append(result, r)
		}
	}

	return result, nil
}

func (s *fakeStorage) RulesVersion(_ context.Context) (int64, error) {
	return s.version, nil
}

func (s *fakeStorage) GetUnit(_ context.Context, unitID string) (*Unit, error) {
	unit, ok := s.units[unitID]
	if !ok {
		return nil, fmt.Errorf("unit %v: %w", unitID, ErrRecordNotFound)
	}

	result := *unit

	return &result, nil
}

func (s *fakeStorage) addRule(r PriceRule) {
	s.rules = append(s.rules, r)
	s.version++
}

// mapCache keeps quotes JSON-encoded like the real caches do.
type mapCache struct {
	entries map[string][]byte
	hits    int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) (*QuoteResult, bool, error) {
	data, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}

	var quote QuoteResult
	if err := json.Unmarshal(data, &quote); err != nil {
		return nil, false, fmt.Errorf("decode quote: %w", err)
	}

	c.hits++

	return &quote, true, nil
}

func (c *mapCache) Set(_ context.Context, key string, quote *QuoteResult) error {
	data, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("encode quote: %w", err)
	}

	c.entries[key] = data

	return nil
}

type cacheMock struct {
	mock.Mock
}

func (m *cacheMock) Get(ctx context.Context, key string) (*QuoteResult, bool, error) {
	args := m.Called(ctx, key)
	quote, _ := args.Get(0).(*QuoteResult)

	return quote, args.Bool(1), args.Error(2) //nolint:wrapcheck
}

func (m *cacheMock) Set(ctx context.Context, key string, quote *QuoteResult) error {
	args := m.Called(ctx, key, quote)

	return args.Error(0) //nolint:wrapcheck
}
