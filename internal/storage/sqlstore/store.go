package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/avstrong/bungalows/internal/logger"
	"github.com/avstrong/bungalows/internal/pricing"
)

var (
	ErrTransactionNotFoundInCtx = errors.New("no transaction found in ctx")
	ErrReservationOverlap       = errors.New("reservation overlaps a blocking reservation")
	ErrInvalidReservation       = errors.New("reservation check-in must be before check-out")
)

const ruleSetVersionRow = 1

type idGenerator interface {
	GetID(ctx context.Context) (string, error)
}

type Config struct {
	L     *logger.Logger
	IDGen idGenerator
}

// Store implements the reservation store, rule store and unit catalog on top of GORM.
type Store struct {
	db    *gorm.DB
	l     *logger.Logger
	idGen idGenerator
}

// Open connects to postgres for postgres:// DSNs and to sqlite for anything else.
func Open(dsn string) (*gorm.DB, error) {
	conf := &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		db, err := gorm.Open(postgres.Open(dsn), conf)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		return db, nil
	}

	db, err := gorm.Open(sqlite.Open(dsn), conf)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %v: %w", dsn, err)
	}

	return db, nil
}

func New(db *gorm.DB, conf Config) *Store {
	return &Store{db: db, l: conf.L, idGen: conf.IDGen}
}

func (s *Store) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)

	if err := db.AutoMigrate(&unitModel{}, &ruleModel{}, &reservationModel{}, &ruleSetVersion{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	row := ruleSetVersion{ID: ruleSetVersionRow}
	if err := db.FirstOrCreate(&row, ruleSetVersion{ID: ruleSetVersionRow}).Error; err != nil {
		return fmt.Errorf("init rule set version: %w", err)
	}

	s.l.LogInfo("SQL schema is up to date, rule set version %d", row.Version)

	return nil
}

type contextKey string

const transactionKey contextKey = "sqlStoreTx"

func isolation(level string) *sql.TxOptions {
	switch strings.ToUpper(level) {
	case "SERIALIZABLE":
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	case "READ COMMITTED":
		return &sql.TxOptions{Isolation: sql.LevelReadCommitted}
	default:
		return nil
	}
}

func (s *Store) BeginTransaction(ctx context.Context, level string) (context.Context, error) {
	var tx *gorm.DB
	if opts := isolation(level); opts != nil {
		tx = s.db.WithContext(ctx).Begin(opts)
	} else {
		tx = s.db.WithContext(ctx).Begin()
	}

	if tx.Error != nil {
		return ctx, fmt.Errorf("begin transaction: %w", tx.Error)
	}

	return context.WithValue(ctx, transactionKey, tx), nil
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(transactionKey).(*gorm.DB)

	return tx, ok
}

func (s *Store) CommitTransaction(ctx context.Context) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return ErrTransactionNotFoundInCtx
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

func (s *Store) RollbackTransaction(ctx context.Context) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return ErrTransactionNotFoundInCtx
	}

	if err := tx.Rollback().Error; err != nil {
		return fmt.Errorf("rollback: %w", err)
	}

	return nil
}

// inTx runs fn in the transaction carried by ctx, or in a new one.
func (s *Store) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if tx, ok := txFromContext(ctx); ok {
		return fn(tx)
	}

	return s.db.WithContext(ctx).Transaction(fn) //nolint:wrapcheck
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}

	return s.db.WithContext(ctx)
}

func (s *Store) nextID(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}

	if s.idGen == nil {
		return "", fmt.Errorf("no id generator configured: %w", pricing.ErrLogic)
	}

	next, err := s.idGen.GetID(ctx)
	if err != nil {
		return "", fmt.Errorf("get next id: %w", err)
	}

	return next, nil
}

func (s *Store) SaveUnits(ctx context.Context, units []*pricing.Unit) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		for _, unit := range units {
			id, err := s.nextID(ctx, unit.ID)
			if err != nil {
				return err
			}

			unit.ID = id
			m := toUnitModel(unit)

			if err := tx.Save(&m).Error; err != nil {
				return fmt.Errorf("save unit %v: %w", id, err)
			}
		}

		return nil
	})
}

func (s *Store) SaveRules(ctx context.Context, rules []*pricing.PriceRule) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		for _, rule := range rules {
			if err := rule.Validate(); err != nil {
				return fmt.Errorf("validate rule %q: %w", rule.Name, err)
			}

			id, err := s.nextID(ctx, rule.ID)
			if err != nil {
				return err
			}

			rule.ID = id
			m := toRuleModel(rule)

			if err := tx.Save(&m).Error; err != nil {
				return fmt.Errorf("save rule %v: %w", id, err)
			}
		}

		err := tx.Model(&ruleSetVersion{}).
			Where("id = ?", ruleSetVersionRow).
			UpdateColumn("version", gorm.Expr("version + ?", 1)).Error
		if err != nil {
			return fmt.Errorf("bump rule set version: %w", err)
		}

		return nil
	})
}

// SaveReservations rejects blocking stays that overlap another blocking stay of the same unit.
// Only a database exclusion constraint makes this airtight under concurrent writers.
func (s *Store) SaveReservations(ctx context.Context, reservations []*pricing.Reservation) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		for _, r := range reservations {
			id, err := s.nextID(ctx, r.ID)
			if err != nil {
				return err
			}

			r.ID = id
			m := toReservationModel(r)

			if !m.CheckIn.Before(m.CheckOut) {
				return fmt.Errorf("save reservation %v: %w", id, ErrInvalidReservation)
			}

			if r.Status.Blocking() {
				var cnt int64

				err := tx.Model(&reservationModel{}).
					Where("id <> ? AND unit_id = ? AND status IN ?", id, m.UnitID, blockingStatuses()).
					Where("check_in < ? AND check_out > ?", m.CheckOut, m.CheckIn).
					Count(&cnt).Error
				if err != nil {
					return fmt.Errorf("count overlapping reservations: %w", err)
				}

				if cnt > 0 {
					return fmt.Errorf("reservation %v: %w", id, ErrReservationOverlap)
				}
			}

			if err := tx.Save(&m).Error; err != nil {
				return fmt.Errorf("save reservation %v: %w", id, err)
			}
		}

		return nil
	})
}

func blockingStatuses() []string {
	statuses := make([]string, 0, len(pricing.BlockingStatuses))
	for _, s := range pricing.BlockingStatuses {
		statuses = append(statuses, string(s))
	}

	return statuses
}

func (s *Store) FindBlockingReservations(ctx context.Context, unitID string, start, end time.Time) ([]pricing.Reservation, error) {
	var rows []reservationModel

	err := s.conn(ctx).
		Where("unit_id = ? AND status IN ?", unitID, blockingStatuses()).
		Where("check_in < ? AND check_out > ?", end, start).
		Order("check_in").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("find reservations of unit %v: %w", unitID, err)
	}

	result := make([]pricing.Reservation, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainReservation(row))
	}

	return result, nil
}

func (s *Store) AllActiveRules(ctx context.Context) ([]pricing.PriceRule, error) {
	var rows []ruleModel

	if err := s.conn(ctx).Where("active = ?", true).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("find active rules: %w", err)
	}

	result := make([]pricing.PriceRule, 0, len(rows))
	for _, row := range rows {
		result = append(result, toDomainRule(row))
	}

	return result, nil
}

func (s *Store) RulesVersion(ctx context.Context) (int64, error) {
	var row ruleSetVersion

	if err := s.conn(ctx).First(&row, ruleSetVersionRow).Error; err != nil {
		return 0, fmt.Errorf("get rule set version: %w", err)
	}

	return row.Version, nil
}

func (s *Store) GetUnit(ctx context.Context, unitID string) (*pricing.Unit, error) {
	var m unitModel

	err := s.conn(ctx).Where("id = ?", unitID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("unit %v: %w", unitID, pricing.ErrRecordNotFound)
	}

	if err != nil {
		return nil, fmt.Errorf("get unit %v: %w", unitID, err)
	}

	return toDomainUnit(m), nil
}
