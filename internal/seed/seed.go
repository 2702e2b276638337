// Package seed loads the bundled starter records into an empty database.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

//go:embed data/*.json
var dataFS embed.FS

// seeded lists the collections that ship with starter data.
var seeded = []domain.Collection{domain.Inventory, domain.Customers, domain.Sales, domain.Gallery}

type repository interface {
	Count(ctx context.Context, c domain.Collection) (int64, error)
	InsertMany(ctx context.Context, c domain.Collection, records []domain.Record) error
}

// Run inserts the bundled records when the inventory collection is empty and
// reports whether it did.
func Run(ctx context.Context, repo repository, logger *slog.Logger) (bool, error) {
	n, err := repo.Count(ctx, domain.Inventory)
	if err != nil {
		return false, fmt.Errorf("failed to count inventory: %w", err)
	}
	if n > 0 {
		logger.Debug("seed skipped, inventory not empty", "records", n)
		return false, nil
	}

	for _, c := range seeded {
		records, err := Load(c)
		if err != nil {
			return false, err
		}
		if err := repo.InsertMany(ctx, c, records); err != nil {
			return false, fmt.Errorf("failed to seed %s: %w", c, err)
		}
		logger.Info("seeded collection", "collection", c, "records", len(records))
	}
	return true, nil
}

// Load decodes the bundled records for c.
func Load(c domain.Collection) ([]domain.Record, error) {
	data, err := dataFS.ReadFile(fmt.Sprintf("data/%s.json", c))
	if err != nil {
		return nil, fmt.Errorf("failed to read seed data for %s: %w", c, err)
	}
	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode seed data for %s: %w", c, err)
	}
	return records, nil
}
