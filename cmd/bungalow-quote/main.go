// Command bungalow-quote answers availability and quote questions from the shell.
//
// Usage:
//
//	bungalow-quote availability --unit dune --from 2024-06-10 --to 2024-06-14
//	bungalow-quote quote --unit dune --from 2024-06-10 --to 2024-06-14 --guests 2 --extra kayak:FLAT:25
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/avstrong/bungalows/internal/app"
	"github.com/avstrong/bungalows/internal/config"
	"github.com/avstrong/bungalows/internal/logger"
	"github.com/avstrong/bungalows/internal/pricing"
)

var errBadExtra = errors.New("extra must look like name:type:amount[:qty]")

func main() {
	cliApp := &cli.App{
		Name:  "bungalow-quote",
		Usage: "Check bungalow availability and price stays",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Postgres URL or sqlite file; empty uses the seeded in-memory catalog",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.StringFlag{
				Name:    "tax-rate",
				Usage:   "Tax rate as a decimal fraction, e.g. 0.10",
				EnvVars: []string{"TAX_RATE"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Commands: []*cli.Command{
			availabilityCommand(),
			quoteCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rangeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "unit", Aliases: []string{"u"}, Usage: "Unit id", Required: true},
		&cli.StringFlag{Name: "from", Usage: "First night, YYYY-MM-DD", Required: true},
		&cli.StringFlag{Name: "to", Usage: "Checkout day, YYYY-MM-DD", Required: true},
	}
}

func availabilityCommand() *cli.Command {
	return &cli.Command{
		Name:  "availability",
		Usage: "Show the blocked days of a unit in a date range",
		Flags: rangeFlags(),
		Action: func(c *cli.Context) error {
			start, end, err := parseRange(c)
			if err != nil {
				return err
			}

			return withEngine(c, func(ctx context.Context, engine *pricing.Engine) error {
				result, err := engine.CheckAvailability(ctx, c.String("unit"), start, end)
				if err != nil {
					return fmt.Errorf("check availability: %w", err)
				}

				return printJSON(result)
			})
		},
	}
}

func quoteCommand() *cli.Command {
	flags := append(rangeFlags(),
		&cli.IntFlag{Name: "guests", Aliases: []string{"g"}, Value: 1, Usage: "Number of guests"},
		&cli.StringSliceFlag{Name: "extra", Aliases: []string{"x"}, Usage: "Extra as name:FLAT|PER_NIGHT|PER_GUEST:amount[:qty]"},
	)

	return &cli.Command{
		Name:  "quote",
		Usage: "Price a stay",
		Flags: flags,
		Action: func(c *cli.Context) error {
			start, end, err := parseRange(c)
			if err != nil {
				return err
			}

			req := &pricing.QuoteRequest{
				UnitID:   c.String("unit"),
				CheckIn:  start,
				CheckOut: end,
				Guests:   c.Int("guests"),
			}

			for _, raw := range c.StringSlice("extra") {
				extra, err := parseExtra(raw)
				if err != nil {
					return err
				}

				req.Extras = append(req.Extras, extra)
			}

			return withEngine(c, func(ctx context.Context, engine *pricing.Engine) error {
				quote, err := engine.CalculatePricing(ctx, req)
				if err != nil {
					return fmt.Errorf("calculate pricing: %w", err)
				}

				return printJSON(quote)
			})
		},
	}
}

func withEngine(c *cli.Context, fn func(ctx context.Context, engine *pricing.Engine) error) error {
	conf, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if c.IsSet("database-url") {
		conf.DatabaseURL = c.String("database-url")
	}

	if c.IsSet("tax-rate") {
		rate, err := decimal.NewFromString(c.String("tax-rate"))
		if err != nil {
			return fmt.Errorf("parse tax rate: %w", err)
		}

		conf.TaxRate = rate
	}

	// The CLI never talks to redis; every run starts with a cold cache.
	conf.RedisAddr = ""

	l, err := logger.NewZap(conf.Env, c.String("log-level"))
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	defer func() { _ = l.Sync() }()

	engine, cleanup, err := app.NewEngine(c.Context, conf, l)
	if err != nil {
		return fmt.Errorf("init pricing engine: %w", err)
	}
	defer cleanup()

	return fn(c.Context, engine)
}

func parseRange(c *cli.Context) (start, end time.Time, err error) {
	start, err = pricing.ParseDate(c.String("from"))
	if err != nil {
		return start, end, fmt.Errorf("parse --from: %w", err)
	}

	end, err = pricing.ParseDate(c.String("to"))
	if err != nil {
		return start, end, fmt.Errorf("parse --to: %w", err)
	}

	return start, end, nil
}

func parseExtra(raw string) (pricing.Extra, error) {
	parts := strings.Split(raw, ":")
	if len(parts) < 3 || len(parts) > 4 { //nolint:gomnd
		return pricing.Extra{}, fmt.Errorf("%q: %w", raw, errBadExtra)
	}

	amount, err := decimal.NewFromString(parts[2])
	if err != nil {
		return pricing.Extra{}, fmt.Errorf("%q amount: %w", raw, err)
	}

	extra := pricing.Extra{
		Name:   parts[0],
		Type:   pricing.ExtraType(strings.ToUpper(parts[1])),
		Amount: amount,
	}

	if len(parts) == 4 { //nolint:gomnd
		qty, err := strconv.Atoi(parts[3])
		if err != nil {
			return pricing.Extra{}, fmt.Errorf("%q quantity: %w", raw, err)
		}

		extra.Quantity = qty
	}

	return extra, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	return nil
}
