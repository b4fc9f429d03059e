// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/olegiv/geoadmin/internal/config"
	"github.com/olegiv/geoadmin/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, dialect, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := store.MigrateDialect(db, dialect); err != nil {
			return err
		}
		v, err := store.MigrationVersion(db, dialect)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "database at version %d\n", v)
		return nil
	},
}

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	Long: `Create an administrator account. The password is read from the
GEOADMIN_ADMIN_PASSWORD environment variable when --password is omitted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		username, _ := cmd.Flags().GetString("username")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("GEOADMIN_ADMIN_PASSWORD")
		}

		db, dialect, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := store.MigrateDialect(db, dialect); err != nil {
			return err
		}

		admin, err := store.CreateAdminUser(cmd.Context(), db, username, email, password)
		if errors.Is(err, store.ErrAdminExists) {
			return fmt.Errorf("%w: %s", err, username)
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created admin %q (id %d)\n", admin.Username, admin.ID)
		return nil
	},
}

var checkDBCmd = &cobra.Command{
	Use:   "check-db",
	Short: "Report schema version and administrators",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		db, dialect, err := openDatabase()
		if err != nil {
			return err
		}
		defer closeDB(db)

		report, err := store.CheckSchema(cmd.Context(), db, dialect)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "schema version: %d\n", report.Version)
		_, _ = fmt.Fprintf(out, "countries:      %d\n", report.Countries)
		_, _ = fmt.Fprintf(out, "admins:         %d\n", report.AdminCount)
		if report.AdminCount == 0 {
			_, _ = fmt.Fprintln(out, "no administrators; run: geoadmin create-admin --username NAME --email EMAIL")
			return nil
		}

		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "ID\tUSERNAME\tEMAIL\tCREATED")
		for _, a := range report.Admins {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", a.ID, a.Username, a.Email, a.CreatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	},
}

func init() {
	createAdminCmd.Flags().String("username", "", "admin username (required)")
	createAdminCmd.Flags().String("email", "", "admin email (required)")
	createAdminCmd.Flags().String("password", "", "admin password, at least 6 characters")
	_ = createAdminCmd.MarkFlagRequired("username")
	_ = createAdminCmd.MarkFlagRequired("email")
}

// openDatabase connects using only the DATABASE_* settings.
func openDatabase() (*sql.DB, store.Dialect, error) {
	cfg, err := config.LoadDatabase()
	if err != nil {
		return nil, "", err
	}
	dialect, _ := cfg.Dialect()
	if err := ensureDataDir(dialect, cfg.URL); err != nil {
		return nil, "", err
	}
	db, err := store.Open(dialect, cfg.URL)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}
	return db, dialect, nil
}

// ensureDataDir creates the directory holding a SQLite database file.
func ensureDataDir(dialect store.Dialect, dsn string) error {
	if dialect != store.DialectSQLite || dsn == "" || dsn == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o750); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	return nil
}

func closeDB(db *sql.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database connection", "error", err)
	}
}
