package quote

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/ryanuber/columnize"
	"github.com/shopspring/decimal"

	"github.com/sig-0/fxcompare/cmd/env"
	"github.com/sig-0/fxcompare/cmd/setup"
	"github.com/sig-0/fxcompare/config"
	fxquote "github.com/sig-0/fxcompare/quote"
)

// quoteCfg wraps the quote configuration
type quoteCfg struct {
	configPath string
	source     string
	target     string
	amount     string
	verbose    bool
}

// NewQuoteCmd creates the quote subcommand
func NewQuoteCmd() *ffcli.Command {
	cfg := &quoteCfg{}

	fs := flag.NewFlagSet("quote", flag.ExitOnError)
	cfg.registerFlags(fs)

	return &ffcli.Command{
		Name:       "quote",
		ShortUsage: "quote -from USD -to EUR -amount 100 [flags]",
		LongHelp:   "Runs a single quote round against the configured providers",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *quoteCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.source, "from", "USD", "the source currency code")
	fs.StringVar(&c.target, "to", "EUR", "the target currency code")
	fs.StringVar(&c.amount, "amount", "100", "the amount to convert")

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)

	fs.BoolVar(&c.verbose, "verbose", false, "log the round progress to stderr")
}

func (c *quoteCfg) exec(ctx context.Context, _ []string) error {
	cfg := config.DefaultConfig()

	// Read the service configuration, if any
	if c.configPath != "" {
		serviceCfg, err := config.Read(c.configPath)
		if err != nil {
			return fmt.Errorf("unable to read service config, %w", err)
		}

		cfg = serviceCfg
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if c.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	// Load .env
	if err := godotenv.Load(); err != nil {
		logger.Warn("unable to load .env file")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(c.amount))
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", c.amount, err)
	}

	req, err := fxquote.NewRequest(c.source, c.target, amount)
	if err != nil {
		return err
	}

	svc, err := setup.NewService(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("unable to set up service, %w", err)
	}

	result, err := svc.Aggregator.Quote(ctx, req, nil)
	if err != nil {
		var qErr *fxquote.Error
		if errors.As(err, &qErr) && len(qErr.Failures) > 0 {
			fmt.Println(formatFailures(qErr.Failures))
		}

		return err
	}

	fmt.Println(formatResult(result))

	return nil
}

// formatResult renders the round outcomes as a table, best offer marked
func formatResult(result *fxquote.Result) string {
	lines := []string{"PROVIDER | STATUS | RATE | CONVERTED | ELAPSED | BEST"}

	for _, o := range result.Outcomes {
		var (
			status    = "ok"
			rate      = "-"
			converted = "-"
			best      = ""
		)

		if o.Success {
			rate = o.Rate.String()
			converted = o.ConvertedAmount.StringFixed(2)
		} else {
			status = o.Kind.String()
		}

		if o.Success && o.Provider == result.Best.Provider {
			best = "*"
		}

		lines = append(lines, fmt.Sprintf(
			"%s | %s | %s | %s | %s | %s",
			o.Provider,
			status,
			rate,
			converted,
			o.Elapsed.Round(time.Millisecond),
			best,
		))
	}

	return columnize.SimpleFormat(lines) + "\n\n" + result.Summary()
}

// formatFailures renders the failures of an all-failed round as a table
func formatFailures(failures []fxquote.Failure) string {
	lines := []string{"PROVIDER | ERROR | MESSAGE"}

	for _, f := range failures {
		message := f.Message
		if message == "" {
			message = "-"
		}

		lines = append(lines, fmt.Sprintf("%s | %s | %s", f.Provider, f.Kind, message))
	}

	return columnize.SimpleFormat(lines)
}
