package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"catapult/internal/platform/config"
	"catapult/internal/platform/postgres"
)

type MigrateOptions struct {
	*RootOptions
	DatabaseURL string
}

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MigrateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect the database schema",
	}
	cmd.PersistentFlags().StringVar(&opts.DatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL DSN")

	cmd.AddCommand(&cobra.Command{
		Use:           "up",
		Short:         "Apply pending migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeDB, err := opts.migrator(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			applied, err := m.Up(cmd.Context())
			if err != nil {
				return err
			}
			return opts.printList(cmd, "applied", applied)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:           "status",
		Short:         "List applied migrations",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, closeDB, err := opts.migrator(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			history, err := m.Status(cmd.Context())
			if err != nil {
				return err
			}
			return opts.printList(cmd, "migrations", history)
		},
	})

	return cmd
}

func (o *MigrateOptions) migrator(cmd *cobra.Command) (*postgres.Migrator, func(), error) {
	if o.DatabaseURL == "" {
		return nil, nil, fmt.Errorf("missing DSN: provide via --database-url or DATABASE_URL")
	}
	db, err := postgres.Open(cmd.Context(), config.DatabaseConfig{URL: o.DatabaseURL, MaxOpenConns: 2})
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewMigrator(db), func() { _ = db.Close() }, nil
}

func (o *MigrateOptions) printList(cmd *cobra.Command, key string, items []string) error {
	out := cmd.OutOrStdout()
	if o.Format == "json" {
		if items == nil {
			items = []string{}
		}
		return json.NewEncoder(out).Encode(map[string][]string{key: items})
	}
	if len(items) == 0 {
		fmt.Fprintf(out, "no %s\n", key)
		return nil
	}
	for _, item := range items {
		fmt.Fprintln(out, item)
	}
	return nil
}
