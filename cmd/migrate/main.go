package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"postboard/config"
	"postboard/db"
	"postboard/logger"
)

// app holds what the subcommands share. openDB is replaced in tests.
type app struct {
	log    *zap.Logger
	openDB func(ctx context.Context) (*sql.DB, db.Dialect, error)
}

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{openDB: openConfiguredDB}
	return a.rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Apply or roll back postboard schema migrations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.log != nil {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a.log, err = logger.New(cfg.Environment, cfg.LogLevel)
			return err
		},
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withMigrator(cmd.Context(), func(m *db.Migrator) error {
					applied, err := m.Up(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(applied))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the latest applied migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withMigrator(cmd.Context(), func(m *db.Migrator) error {
					version, err := m.Down(cmd.Context())
					if errors.Is(err, db.ErrNoMigrations) {
						fmt.Fprintln(cmd.OutOrStdout(), "nothing to roll back")
						return nil
					}
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d\n", version)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withMigrator(cmd.Context(), func(m *db.Migrator) error {
					statuses, err := m.Status(cmd.Context())
					if err != nil {
						return err
					}
					printStatus(cmd.OutOrStdout(), statuses)
					return nil
				})
			},
		},
	)
	return root
}

func openConfiguredDB(ctx context.Context) (*sql.DB, db.Dialect, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return nil, "", err
	}
	dialect, err := db.ParseDialect(cfg.DBDriver)
	if err != nil {
		return nil, "", err
	}
	database, err := db.Open(ctx, dialect, cfg.DSN())
	if err != nil {
		return nil, "", err
	}
	return database, dialect, nil
}

func (a *app) withMigrator(ctx context.Context, fn func(m *db.Migrator) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	database, dialect, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(db.NewMigrator(database, dialect, a.log))
}

func printStatus(w io.Writer, statuses []db.MigrationStatus) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STATUS\tVERSION\tNAME")
	for _, s := range statuses {
		state := "down"
		if s.Applied {
			state = "up"
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\n", state, s.Version, s.Name)
	}
	tw.Flush()
}
