package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/avstrong/bungalows/internal/config"
	"github.com/avstrong/bungalows/internal/idgen/uuidgen"
	"github.com/avstrong/bungalows/internal/logger"
	"github.com/avstrong/bungalows/internal/migration"
	"github.com/avstrong/bungalows/internal/pricing"
	"github.com/avstrong/bungalows/internal/quotecache"
	"github.com/avstrong/bungalows/internal/storage/memory"
	"github.com/avstrong/bungalows/internal/storage/sqlstore"
	"github.com/avstrong/bungalows/internal/transport/web"
)

type storage interface {
	FindBlockingReservations(ctx context.Context, unitID string, start, end time.Time) ([]pricing.Reservation, error)
	AllActiveRules(ctx context.Context) ([]pricing.PriceRule, error)
	RulesVersion(ctx context.Context) (int64, error)
	GetUnit(ctx context.Context, unitID string) (*pricing.Unit, error)
}

func openStorage(ctx context.Context, conf *config.Config, l *logger.Logger) (storage, func(), error) {
	idGen := uuidgen.New("")

	if conf.DatabaseURL == "" {
		db := memory.New(memory.Config{L: l, IDGen: idGen})
		if err := migration.Up(ctx, l, db); err != nil {
			return nil, nil, fmt.Errorf("up seed migration: %w", err)
		}

		l.LogInfo("In-memory storage has been seeded")

		return db, func() {}, nil
	}

	gdb, err := sqlstore.Open(conf.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}

	closeDB := func() {
		if sqlDB, err := gdb.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				l.LogErrorf("Failed to close database: %v", err.Error())
			}
		}
	}

	store := sqlstore.New(gdb, sqlstore.Config{L: l, IDGen: idGen})
	if err := store.Migrate(ctx); err != nil {
		closeDB()

		return nil, nil, fmt.Errorf("migrate database: %w", err)
	}

	if err := migration.Up(ctx, l, store); err != nil {
		closeDB()

		return nil, nil, fmt.Errorf("up seed migration: %w", err)
	}

	return store, closeDB, nil
}

type quoteCache interface {
	Get(ctx context.Context, key string) (*pricing.QuoteResult, bool, error)
	Set(ctx context.Context, key string, quote *pricing.QuoteResult) error
}

func openCache(ctx context.Context, conf *config.Config, l *logger.Logger) (quoteCache, func(), error) {
	if conf.RedisAddr == "" {
		return quotecache.NewMemory(conf.QuoteCacheTTL), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.RedisAddr,
		Password: conf.RedisPassword,
		DB:       conf.RedisCacheDB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, nil, fmt.Errorf("ping redis %v: %w", conf.RedisAddr, err)
	}

	l.LogInfo("Quotes are cached in redis at %v", conf.RedisAddr)

	closeClient := func() {
		if err := client.Close(); err != nil {
			l.LogErrorf("Failed to close redis client: %v", err.Error())
		}
	}

	return quotecache.NewRedis(client, conf.QuoteCacheTTL), closeClient, nil
}

// NewEngine wires the pricing engine to the configured storage and quote cache. The returned func
// releases the connections.
func NewEngine(ctx context.Context, conf *config.Config, l *logger.Logger) (*pricing.Engine, func(), error) {
	store, closeStore, err := openStorage(ctx, conf, l)
	if err != nil {
		return nil, nil, err
	}

	cache, closeCache, err := openCache(ctx, conf, l)
	if err != nil {
		closeStore()

		return nil, nil, err
	}

	engineConf := pricing.Conf{
		TaxRate:          conf.TaxRate,
		CurrencyDecimals: conf.CurrencyDecimals,
		Cache:            cache,
	}

	cleanup := func() {
		closeCache()
		closeStore()
	}

	return pricing.New(l, store, engineConf), cleanup, nil
}

func Run(conf *config.Config, l *logger.Logger) error {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGHUP,
	)
	defer cancel()

	engine, cleanup, err := NewEngine(ctx, conf, l)
	if err != nil {
		return fmt.Errorf("init pricing engine: %w", err)
	}
	defer cleanup()

	webConf := web.Conf{
		L:                 l,
		ServerLogger:      l.StdLogger(),
		Host:              conf.AppHost,
		Port:              conf.AppPort,
		ReadHeaderTimeout: conf.ReadHeaderTimeout,
		LivenessEndpoint:  conf.LivenessEndpoint,
		MaxRequestsPerMin: conf.MaxRequestsPerMin,
	}

	srv, err := web.New(ctx, webConf, engine)
	if err != nil {
		return fmt.Errorf("init http server: %w", err)
	}

	//nolint:contextcheck
	go func() {
		<-ctx.Done()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*4) //nolint:gomnd
		defer cancel()

		if err := srv.Srv().Shutdown(ctx); err != nil {
			l.LogErrorf("Failed to stop http server: %v", err.Error())
		}
	}()

	l.LogInfo("Application is running on %v:%v...", webConf.Host, webConf.Port)

	if err := srv.Srv().ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		l.LogErrorf("Failed to run http server: %v", err.Error())

		cancel()
	}

	l.LogInfo("Application stopped gracefully")

	return nil
}
