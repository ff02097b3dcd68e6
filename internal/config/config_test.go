package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	conf, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8092", conf.AppPort)
	assert.Equal(t, 20*time.Second, conf.ReadHeaderTimeout)
	assert.Equal(t, 5*time.Minute, conf.QuoteCacheTTL)
	assert.True(t, conf.TaxRate.Equal(decimal.RequireFromString("0.1")))
	assert.Equal(t, int32(2), conf.CurrencyDecimals)
	assert.Empty(t, conf.DatabaseURL)
	assert.False(t, conf.IsProduction())
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := "APP_PORT: \"9000\"\nTAX_RATE: \"0.07\"\nDATABASE_URL: bungalows.db\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("TAX_RATE", "0.21")
	t.Setenv("ENV", "production")

	conf, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "9000", conf.AppPort)
	assert.Equal(t, "bungalows.db", conf.DatabaseURL)
	assert.True(t, conf.TaxRate.Equal(decimal.RequireFromString("0.21")), conf.TaxRate.String())
	assert.True(t, conf.IsProduction())
}

func TestLoad_InvalidTaxRate(t *testing.T) {
	t.Setenv("TAX_RATE", "ten percent")

	_, err := Load(t.TempDir())
	require.Error(t, err)

	t.Setenv("TAX_RATE", "-0.1")

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad_WholeUnitCurrency(t *testing.T) {
	t.Setenv("CURRENCY_DECIMALS", "0")

	conf, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int32(0), conf.CurrencyDecimals)

	t.Setenv("CURRENCY_DECIMALS", "-1")

	_, err = Load(t.TempDir())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
