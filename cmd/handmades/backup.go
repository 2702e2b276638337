package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/backup"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/config"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/logging"
)

var (
	backupDir      string
	backupKeep     int
	backupType     string
	backupInterval time.Duration
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot every collection to a timestamped directory",
	Long: `backup writes one JSON file per collection plus manifest.json into
<dir>/backup-<timestamp>, then removes all but the newest --keep backups.

With --interval the backup repeats until interrupted.`,
	RunE: runBackup,
}

func init() {
	backupCmd.Flags().StringVar(&backupDir, "dir", "", "backup directory (default BACKUP_DIR)")
	backupCmd.Flags().IntVar(&backupKeep, "keep", 0, "number of backups to keep (default BACKUP_KEEP)")
	backupCmd.Flags().StringVar(&backupType, "type", backup.TypeManual, "backup type recorded in the manifest")
	backupCmd.Flags().DurationVar(&backupInterval, "interval", 0, "repeat the backup on this interval until interrupted")
	rootCmd.AddCommand(backupCmd)
}

func runBackup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if backupDir != "" {
		cfg.Backup.Dir = backupDir
	}
	if backupKeep > 0 {
		cfg.Backup.Keep = backupKeep
	}
	if backupInterval < 0 {
		return fmt.Errorf("--interval must not be negative")
	}

	logger, cleanup, err := logging.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.File)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg.DB, logger)
	if err != nil {
		logger.Error("failed to open database", "backend", cfg.DB.Backend, "error", err)
		return err
	}
	defer closeStore(store, logger)

	svc := backup.NewService(store, cfg.Backup.Dir, cfg.Backup.Keep, logger)

	if backupInterval > 0 {
		logger.Info("starting scheduled backups", "interval", backupInterval, "dir", cfg.Backup.Dir)
		svc.Schedule(ctx, backupInterval)
		return nil
	}

	path, err := svc.Run(ctx, backupType)
	if err != nil {
		logger.Error("backup failed", "error", err)
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Backup written to %s\n", path)
	return nil
}
