package sql

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxcompare/cmd/env"
	dbpkg "github.com/sig-0/fxcompare/storage/sql"
)

// migrateCfg wraps the migrate configuration
type migrateCfg struct {
	rootCfg *sqlCfg
}

// newMigrateCmd creates the migrate command
func newMigrateCmd(rootCfg *sqlCfg) *ffcli.Command {
	cfg := &migrateCfg{
		rootCfg: rootCfg,
	}

	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	rootCfg.RegisterFlags(fs)

	return &ffcli.Command{
		Name:       "migrate",
		ShortUsage: "sql migrate [flags] [migration.sql ...]",
		LongHelp:   "Applies the named migrations, or every embedded migration when none are named",
		FlagSet:    fs,
		Exec:       cfg.exec,
		Options: []ff.Option{
			// Allow using ENV variables
			ff.WithEnvVars(),
			ff.WithEnvVarPrefix(env.Prefix),
		},
	}
}

func (c *migrateCfg) exec(ctx context.Context, args []string) error {
	names := args
	if len(names) == 0 {
		all, err := migrationNames(dbpkg.SchemaFS)
		if err != nil {
			return err
		}

		names = all
	}

	if len(names) == 0 {
		return fmt.Errorf("no migrations to run")
	}

	// Load every migration before touching the DB
	statements := make([]string, 0, len(names))

	for _, name := range names {
		stmt, err := readMigration(dbpkg.SchemaFS, name)
		if err != nil {
			return err
		}

		statements = append(statements, stmt)
	}

	dsn, err := c.rootCfg.resolveDSN()
	if err != nil {
		return err
	}

	// Open the DB
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("unable to open DB connection: %w", err)
	}

	defer func() {
		closeCtx, cancelFn := context.WithTimeout(context.Background(), time.Second*5)
		defer cancelFn()

		if err := conn.Close(closeCtx); err != nil {
			fmt.Printf("Unable to gracefully close DB: %s\n", err.Error())
		}
	}()

	// Ping the DB
	if err = conn.Ping(ctx); err != nil {
		return fmt.Errorf("unable to ping DB: %w", err)
	}

	for i, name := range names {
		fmt.Printf("Running migration %s...\n", name)

		if _, err := conn.Exec(ctx, statements[i]); err != nil {
			return fmt.Errorf("unable to run migration %q: %w", name, err)
		}

		fmt.Printf("Migration %q complete\n", name)
	}

	fmt.Println("All migrations complete!")

	return nil
}
