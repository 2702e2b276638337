package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/config"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/imagestore/local"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/logging"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/seed"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/service"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/session"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/web"
)

const sessionSweepInterval = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API and static file server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateAuth(); err != nil {
		return err
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

	if cfg.Server.SeedOnStart {
		seeded, err := seed.Run(ctx, store, logger)
		if err != nil {
			logger.Error("failed to seed database", "error", err)
			return err
		}
		if seeded {
			logger.Info("database seeded with starter data")
		}
	}

	sessions := session.NewMemoryStore(sessionSweepInterval)
	defer sessions.Close()

	manager, err := session.NewManager(sessions, cfg.Auth.SessionSecret, session.Options{
		TTL:    cfg.Auth.SessionTTL,
		Secure: cfg.Server.CookieSecure,
	})
	if err != nil {
		return err
	}

	images, err := local.New(cfg.Storage.UploadDir)
	if err != nil {
		logger.Error("failed to initialize image store", "error", err)
		return fmt.Errorf("failed to initialize image store: %w", err)
	}

	server := web.NewServer(web.Deps{
		Collections: service.NewCollectionService(store, logger),
		Auth:        service.NewAuthenticator(cfg.Auth.Username, cfg.Auth.Password),
		Sessions:    manager,
		Images:      images,
		StaticDir:   cfg.Server.StaticDir,
		Logger:      logger,
	})

	if err := server.ListenAndServe(ctx, cfg.Server.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}
