package sql

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v3/ffcli"

	"github.com/sig-0/fxcompare/cmd/env"
	dbpkg "github.com/sig-0/fxcompare/storage/sql"
)

const schemaDir = "schema"

// sqlCfg holds the flags shared by the sql subcommands
type sqlCfg struct {
	dbURL string
}

// NewSQLCmd creates the sql subcommand
func NewSQLCmd() *ffcli.Command {
	cfg := &sqlCfg{}

	fs := flag.NewFlagSet("sql", flag.ExitOnError)
	cfg.RegisterFlags(fs)

	cmd := &ffcli.Command{
		Name:       "sql",
		ShortUsage: "sql <migrate|migrations> [flags]",
		LongHelp:   "Manages the Postgres schema that stores quote rounds",
		FlagSet:    fs,
		Exec: func(_ context.Context, _ []string) error {
			return flag.ErrHelp
		},
	}

	cmd.Subcommands = []*ffcli.Command{
		newMigrateCmd(cfg),
		newMigrationsCmd(),
	}

	return cmd
}

func (c *sqlCfg) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(
		&c.dbURL,
		"db-url",
		"",
		fmt.Sprintf("the Postgres connection URL (falls back to %s)", env.Prefix+env.DBURLSuffix),
	)
}

// resolveDSN returns the flag value, or the DSN from the environment (.env included)
func (c *sqlCfg) resolveDSN() (string, error) {
	if c.dbURL != "" {
		return c.dbURL, nil
	}

	if err := godotenv.Load(); err != nil {
		fmt.Println("Unable to load .env file, using the environment")
	}

	dsn := os.Getenv(env.Prefix + env.DBURLSuffix)
	if dsn == "" {
		return "", fmt.Errorf("missing --db-url or %s", env.Prefix+env.DBURLSuffix)
	}

	return dsn, nil
}

// newMigrationsCmd creates the migrations command, which lists the embedded schema files
func newMigrationsCmd() *ffcli.Command {
	return &ffcli.Command{
		Name:       "migrations",
		ShortUsage: "sql migrations",
		LongHelp:   "Lists the embedded migrations, in the order migrate applies them",
		Exec: func(_ context.Context, _ []string) error {
			names, err := migrationNames(dbpkg.SchemaFS)
			if err != nil {
				return err
			}

			for _, name := range names {
				fmt.Println(name)
			}

			return nil
		},
	}
}

// migrationNames returns the .sql files under schema/, sorted by name
func migrationNames(schema fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(schema, schemaDir)
	if err != nil {
		return nil, fmt.Errorf("unable to read embedded migrations: %w", err)
	}

	names := make([]string, 0, len(entries))

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".sql") {
			continue
		}

		names = append(names, e.Name())
	}

	sort.Strings(names)

	return names, nil
}

// readMigration loads a single migration by its file name
func readMigration(schema fs.FS, name string) (string, error) {
	if name != path.Base(name) {
		return "", fmt.Errorf("invalid migration name %q", name)
	}

	raw, err := fs.ReadFile(schema, path.Join(schemaDir, name))
	if err != nil {
		return "", fmt.Errorf("unable to read migration %q: %w", name, err)
	}

	return string(raw), nil
}
