package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/heron-guild/guildhall/internal/infrastructure/persistence/postgres"
)

var (
	migrateStatus   bool
	migrateRollback bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations for guild_sync storage",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if current.cfg.Database.URL == "" {
			return errors.New("DATABASE_URL is not set")
		}
		conn, err := current.openDatabase(cmd.Context())
		if err != nil {
			return err
		}
		m := postgres.NewMigrator(conn)

		switch {
		case migrateRollback:
			if err := m.Rollback(cmd.Context()); err != nil {
				return err
			}
		case !migrateStatus:
			if err := m.Migrate(cmd.Context()); err != nil {
				return err
			}
		}

		status, err := m.Status(cmd.Context())
		if err != nil {
			return err
		}
		health, err := conn.Health(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"database": health, "migrations": status})
		}

		w := cmd.OutOrStdout()
		fmt.Fprintf(w, "database: ping %s, %d/%d connections in use\n\n",
			health.PingLatency.Round(time.Microsecond), health.AcquiredConns, health.MaxConns)
		tw := newTable(w)
		for _, s := range status {
			applied := "pending"
			if s.IsApplied {
				applied = "applied " + s.AppliedAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Name, applied)
		}
		return tw.Flush()
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Only show which migrations are applied")
	migrateCmd.Flags().BoolVar(&migrateRollback, "rollback", false, "Roll back the latest migration")
}
