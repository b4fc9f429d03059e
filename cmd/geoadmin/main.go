// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Command geoadmin serves the reference-data and accounts admin service and
// runs its maintenance tasks.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "geoadmin",
	Short: "Countries, states and accounts administration service",
	Long: `geoadmin serves the public country/state lookups and the admin panel
for countries, states and user accounts.

Configuration is read from environment variables, optionally loaded from a
.env file in the working directory.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		// Load .env files if present (development)
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, createAdminCmd, checkDBCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
