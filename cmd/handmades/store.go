package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/config"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/db"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/docstore"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/docstore/mongo"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/docstore/sqlite"
)

// openStore connects the document store selected by DB_BACKEND.
func openStore(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (docstore.DocumentStore, error) {
	switch cfg.Backend {
	case "mongo":
		store, err := mongo.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		database, err := db.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("opened SQLite database", "path", cfg.Path)
		return sqlite.New(database), nil
	default:
		return nil, fmt.Errorf("unknown database backend %q", cfg.Backend)
	}
}

func closeStore(store docstore.DocumentStore, logger *slog.Logger) {
	if err := store.Close(); err != nil {
		logger.Error("failed to close database", "error", err)
	}
}
