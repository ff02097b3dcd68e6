package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	AppHost           string        `mapstructure:"APP_HOST"`
	AppPort           string        `mapstructure:"APP_PORT"`
	Env               string        `mapstructure:"ENV"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	ReadHeaderTimeout time.Duration `mapstructure:"READ_HEADER_TIMEOUT"`
	LivenessEndpoint  string        `mapstructure:"LIVENESS_ENDPOINT"`
	MaxRequestsPerMin int           `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Empty DATABASE_URL selects the in-memory store seeded with demo data.
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Empty REDIS_ADDR selects the in-process quote cache.
	RedisAddr     string        `mapstructure:"REDIS_ADDR"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int           `mapstructure:"REDIS_CACHE_DB"`
	QuoteCacheTTL time.Duration `mapstructure:"QUOTE_CACHE_TTL"`

	TaxRateRaw       string `mapstructure:"TAX_RATE"`
	CurrencyDecimals int32  `mapstructure:"CURRENCY_DECIMALS"`

	TaxRate decimal.Decimal `mapstructure:"-"`
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_HOST", "localhost")
	v.SetDefault("APP_PORT", "8092")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("READ_HEADER_TIMEOUT", "20s")
	v.SetDefault("LIVENESS_ENDPOINT", "/liveness")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 600) //nolint:gomnd
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CACHE_DB", 0)
	v.SetDefault("QUOTE_CACHE_TTL", "5m")
	v.SetDefault("TAX_RATE", "0.10")
	v.SetDefault("CURRENCY_DECIMALS", 2) //nolint:gomnd
}

// Load reads an optional .env file, an optional config.yaml from the given directories (the working
// directory and ./config when none are given) and the environment, in increasing priority.
func Load(dirs ...string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if len(dirs) == 0 {
		dirs = []string{".", "./config"}
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}

	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var conf Config
	if err := v.Unmarshal(&conf); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	rate, err := decimal.NewFromString(strings.TrimSpace(conf.TaxRateRaw))
	if err != nil {
		return nil, fmt.Errorf("parse TAX_RATE %q: %w", conf.TaxRateRaw, err)
	}

	if rate.IsNegative() {
		return nil, fmt.Errorf("TAX_RATE %v must not be negative: %w", rate, ErrInvalidConfig)
	}

	conf.TaxRate = rate

	if conf.CurrencyDecimals < 0 {
		return nil, fmt.Errorf("CURRENCY_DECIMALS %d must not be negative: %w", conf.CurrencyDecimals, ErrInvalidConfig)
	}

	return &conf, nil
}
