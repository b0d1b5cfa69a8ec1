package serve

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"golang.org/x/sync/errgroup"

	"github.com/sig-0/fxcompare/cmd/env"
	"github.com/sig-0/fxcompare/cmd/setup"
	"github.com/sig-0/fxcompare/config"
	"github.com/sig-0/fxcompare/server"
	"github.com/sig-0/fxcompare/storage"
)

// serveCfg wraps the serve configuration
type serveCfg struct {
	config *config.Config

	configPath string
}

// NewServeCmd creates the serve subcommand
func NewServeCmd() *ffcli.Command {
	cfg := &serveCfg{
		config: config.DefaultConfig(),
	}

	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg.registerFlags(fs)

	cmd := &ffcli.Command{
		Name:       "serve",
		ShortUsage: "serve <subcommand> [flags]",
		LongHelp:   "Serves the fxcompare backend",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newServeSQLCmd(cfg),
		newServeMemoryCmd(cfg),
	}

	return cmd
}

func (c *serveCfg) registerFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.config.ListenAddress,
		"listen",
		config.DefaultListenAddress,
		"the IP:PORT URL for the server",
	)

	fs.StringVar(
		&c.configPath,
		"config",
		"",
		"the path to the service TOML configuration, if any",
	)
}

// loadConfig reads the service configuration, if any
func (c *serveCfg) loadConfig() error {
	if c.configPath == "" {
		return nil
	}

	serviceCfg, err := config.Read(c.configPath)
	if err != nil {
		return fmt.Errorf("unable to read service config, %w", err)
	}

	c.config = serviceCfg

	return nil
}

// run wires the quote service over the given audit trail,
// and serves it until the context is cancelled
func (c *serveCfg) run(
	ctx context.Context,
	logger *slog.Logger,
	store storage.Storage,
) error {
	svc, err := setup.NewService(c.config, logger, store)
	if err != nil {
		return fmt.Errorf("unable to set up service, %w", err)
	}

	s, err := server.New(
		svc.Aggregator,
		svc.Registry,
		svc.Stats,
		svc.Prober,
		server.WithLogger(logger),
		server.WithConfig(c.config),
		server.WithStorage(store),
		server.WithMonitor(svc.Monitor),
		server.WithMetrics(svc.Metrics),
	)
	if err != nil {
		return fmt.Errorf("unable to create server, %w", err)
	}

	runCtx, cancelFn := signal.NotifyContext(
		ctx,
		os.Interrupt,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT,
	)
	defer cancelFn()

	group, gCtx := errgroup.WithContext(runCtx)

	// Start the HTTP server
	group.Go(func() error {
		return s.Serve(gCtx)
	})

	// Start the background health monitor
	group.Go(func() error {
		return svc.Monitor.Start(gCtx)
	})

	return group.Wait()
}
