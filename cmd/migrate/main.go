// migrate applies the embedded SQL migrations: go run ./cmd/migrate up|down|version.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"slot-booking/backend/internal/config"
	"slot-booking/backend/internal/db/migrate"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the booking database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newApplyCmd("up", "Apply all pending migrations"),
		newApplyCmd("down", "Roll back all migrations"),
		newVersionCmd(),
	)
	return root
}

func newApplyCmd(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			if err := migrate.Run(dsn, direction); err != nil && !errors.Is(err, migrate.ErrNoChange) {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", direction)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn, err := databaseURL()
			if err != nil {
				return err
			}
			v, dirty, err := migrate.Version(dsn)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty=%t)\n", v, dirty)
			return nil
		},
	}
}

func databaseURL() (string, error) {
	cfg, err := config.Load()
	if err != nil {
		return "", err
	}
	if cfg.DatabaseURL == "" {
		return "", errors.New("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	return cfg.DatabaseURL, nil
}
