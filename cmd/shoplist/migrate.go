package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/familycart/internal/config"
	"github.com/dukerupert/familycart/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations and exit",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lock, err := database.AcquireLock(cfg.DBPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	// Open migrates.
	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	v, err := database.Version(db)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d\n", cfg.DBPath, v)
	return nil
}
