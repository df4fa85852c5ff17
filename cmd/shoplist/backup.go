package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/familycart/internal/backup"
	"github.com/dukerupert/familycart/internal/config"
	"github.com/dukerupert/familycart/internal/database"
	"github.com/dukerupert/familycart/internal/logging"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the database into the backup directory",
	Long: `Backup writes a consistent copy of the database to backup.dir and
keeps the newest backup.keep snapshots. With backup.passphrase set the
snapshot is encrypted. It is safe to run while the server is up.`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <snapshot>",
	Short: "Replace the database with a snapshot (server must be stopped)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func init() {
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

func runBackup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	path, err := backup.Create(cmd.Context(), db, backup.Options{
		Dir:        cfg.Backup.Dir,
		Passphrase: cfg.Backup.Passphrase,
		Keep:       cfg.Backup.Keep,
		Logger:     logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat).With("component", "backup"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lock, err := database.AcquireLock(cfg.DBPath)
	if err != nil {
		return err
	}
	defer lock.Release()

	if err := backup.Restore(args[0], cfg.DBPath, cfg.Backup.Passphrase); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "restored %s from %s\n", cfg.DBPath, args[0])
	return nil
}
