package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avstrong/bungalows/internal/logger"
	"github.com/avstrong/bungalows/internal/pricing"
)

type idGenerator interface {
	GetID(ctx context.Context) (string, error)
}

type Config struct {
	L     *logger.Logger
	IDGen idGenerator
}

type transaction struct {
	id           string
	units        map[string]*pricing.Unit
	rules        map[string]*pricing.PriceRule
	reservations map[string]*pricing.Reservation
}

// DB keeps units, price rules and reservations in memory. Writes are staged in a transaction and
// become visible on commit.
type DB struct {
	mu           sync.Mutex
	l            *logger.Logger
	idGen        idGenerator
	units        map[string]*pricing.Unit
	rules        map[string]*pricing.PriceRule
	reservations map[string]*pricing.Reservation
	transactions map[string]*transaction
	nextTrxID    int64
	rulesVersion int64
}

func New(conf Config) *DB {
	//nolint:exhaustruct
	return &DB{
		l:            conf.L,
		idGen:        conf.IDGen,
		units:        make(map[string]*pricing.Unit),
		rules:        make(map[string]*pricing.PriceRule),
		reservations: make(map[string]*pricing.Reservation),
		transactions: make(map[string]*transaction),
	}
}

func (db *DB) BeginTransaction(ctx context.Context, _ string) (context.Context, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	trxID := fmt.Sprintf("trx-%d", db.nextTrxID)
	db.nextTrxID++

	db.transactions[trxID] = &transaction{
		id:           trxID,
		units:        make(map[string]*pricing.Unit),
		rules:        make(map[string]*pricing.PriceRule),
		reservations: make(map[string]*pricing.Reservation),
	}

	return withTransactionID(ctx, trxID), nil
}

func (db *DB) CommitTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionFromContext(ctx)
	if err != nil {
		return err
	}

	// Another transaction may have committed a conflicting stay since this one staged its writes.
	for _, r := range trx.reservations {
		if err := db.checkOverlap(r, nil); err != nil {
			delete(db.transactions, trx.id)

			return err
		}
	}

	for id, unit := range trx.units {
		db.units[id] = unit
	}

	for id, rule := range trx.rules {
		db.rules[id] = rule
	}

	if len(trx.rules) > 0 {
		db.rulesVersion++
	}

	for id, r := range trx.reservations {
		db.reservations[id] = r
	}

	delete(db.transactions, trx.id)

	return nil
}

func (db *DB) RollbackTransaction(ctx context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionFromContext(ctx)
	if err != nil {
		return err
	}

	delete(db.transactions, trx.id)

	return nil
}

func (db *DB) nextID(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}

	if db.idGen == nil {
		return "", fmt.Errorf("no id generator configured: %w", pricing.ErrLogic)
	}

	next, err := db.idGen.GetID(ctx)
	if err != nil {
		return "", fmt.Errorf("get next id: %w", err)
	}

	return next, nil
}

func (db *DB) SaveUnits(ctx context.Context, units []*pricing.Unit) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionFromContext(ctx)
	if err != nil {
		return err
	}

	for _, unit := range units {
		id, err := db.nextID(ctx, unit.ID)
		if err != nil {
			return err
		}

		unit.ID = id
		stored := *unit
		trx.units[id] = &stored
	}

	return nil
}

func (db *DB) SaveRules(ctx context.Context, rules []*pricing.PriceRule) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionFromContext(ctx)
	if err != nil {
		return err
	}

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("validate rule %q: %w", rule.Name, err)
		}

		id, err := db.nextID(ctx, rule.ID)
		if err != nil {
			return err
		}

		rule.ID = id
		stored := *rule
		trx.rules[id] = &stored
	}

	return nil
}

// checkOverlap must be called with db.mu held. pending holds staged reservations to check besides
// the committed ones.
func (db *DB) checkOverlap(r *pricing.Reservation, pending map[string]*pricing.Reservation) error {
	if !r.Status.Blocking() {
		return nil
	}

	conflicts := func(other *pricing.Reservation) bool {
		return other.ID != r.ID &&
			other.UnitID == r.UnitID &&
			other.Status.Blocking() &&
			other.CheckIn.Before(r.CheckOut) &&
			other.CheckOut.After(r.CheckIn)
	}

	for _, other := range db.reservations {
		if conflicts(other) {
			return fmt.Errorf("reservation %v conflicts with %v: %w", r.ID, other.ID, ErrReservationOverlap)
		}
	}

	for _, other := range pending {
		if conflicts(other) {
			return fmt.Errorf("reservation %v conflicts with %v: %w", r.ID, other.ID, ErrReservationOverlap)
		}
	}

	return nil
}

// SaveReservations stages reservations, rejecting blocking stays that overlap another blocking
// stay of the same unit.
func (db *DB) SaveReservations(ctx context.Context, reservations []*pricing.Reservation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	trx, err := db.transactionFromContext(ctx)
	if err != nil {
		return err
	}

	for _, r := range reservations {
		id, err := db.nextID(ctx, r.ID)
		if err != nil {
			return err
		}

		stored := *r
		stored.ID = id
		stored.CheckIn = pricing.DateOf(r.CheckIn)
		stored.CheckOut = pricing.DateOf(r.CheckOut)

		if !stored.CheckIn.Before(stored.CheckOut) {
			return fmt.Errorf("save reservation %v: %w", id, ErrInvalidReservation)
		}

		if err := db.checkOverlap(&stored, trx.reservations); err != nil {
			return err
		}

		r.ID = id
		trx.reservations[id] = &stored
	}

	return nil
}

func (db *DB) FindBlockingReservations(_ context.Context, unitID string, start, end time.Time) ([]pricing.Reservation, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var result []pricing.Reservation

	for _, r := range db.reservations {
		if r.UnitID != unitID || !r.Status.Blocking() {
			continue
		}

		if r.CheckIn.Before(end) && r.CheckOut.After(start) {
			result = append(result, *r)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].CheckIn.Before(result[j].CheckIn) })

	return result, nil
}

func (db *DB) AllActiveRules(_ context.Context) ([]pricing.PriceRule, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]pricing.PriceRule, 0, len(db.rules))

	for _, rule := range db.rules {
		if rule.Active {
			result = append(result, *rule)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}

		return result[i].ID < result[j].ID
	})

	return result, nil
}

func (db *DB) RulesVersion(_ context.Context) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	return db.rulesVersion, nil
}

func (db *DB) GetUnit(_ context.Context, unitID string) (*pricing.Unit, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	unit, ok := db.units[unitID]
	if !ok {
		return nil, fmt.Errorf("unit %v: %w", unitID, pricing.ErrRecordNotFound)
	}

	result := *unit

	return &result, nil
}
