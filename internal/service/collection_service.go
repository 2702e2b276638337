package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

// documentRepository is the subset of docstore.DocumentStore that
// CollectionService requires.
type documentRepository interface {
	FindAll(ctx context.Context, c domain.Collection) ([]domain.Record, error)
	ReplaceAll(ctx context.Context, c domain.Collection, records []domain.Record) error
	UpdateByID(ctx context.Context, c domain.Collection, id string, fields domain.Record) error
	Ping(ctx context.Context) error
}

type CollectionService struct {
	store  documentRepository
	logger *slog.Logger
}

func NewCollectionService(store documentRepository, logger *slog.Logger) *CollectionService {
	return &CollectionService{store: store, logger: logger}
}

// List returns every record in c, never nil.
func (s *CollectionService) List(ctx context.Context, c domain.Collection) ([]domain.Record, error) {
	records, err := s.store.FindAll(ctx, c)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// Replace overwrites c with records. Whatever c held before is lost, so
// concurrent callers get last-writer-wins.
func (s *CollectionService) Replace(ctx context.Context, c domain.Collection, records []domain.Record) error {
	if err := validateRecords(records); err != nil {
		return err
	}
	if err := s.store.ReplaceAll(ctx, c, records); err != nil {
		return err
	}
	s.logger.Info("collection replaced", "collection", c, "records", len(records))
	return nil
}

// UpdateInventoryItem merges fields into the inventory record with id.
func (s *CollectionService) UpdateInventoryItem(ctx context.Context, id string, fields domain.Record) error {
	if id == "" {
		return domain.ErrNotFound
	}
	if len(fields) == 0 {
		return fmt.Errorf("%w: update has no fields", domain.ErrInvalidRecord)
	}
	if err := s.store.UpdateByID(ctx, domain.Inventory, id, fields); err != nil {
		return err
	}
	s.logger.Info("inventory item updated", "id", id, "fields", len(fields))
	return nil
}

func (s *CollectionService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// validateRecords enforces the only shape rules the API applies: every
// element is an object and any supplied identifier is a unique non-empty
// string.
func validateRecords(records []domain.Record) error {
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		if rec == nil {
			return fmt.Errorf("%w: element %d is not an object", domain.ErrInvalidRecord, i)
		}
		raw, ok := rec[domain.IDField]
		if !ok {
			continue
		}
		id, isString := raw.(string)
		if !isString || id == "" {
			return fmt.Errorf("%w: element %d has a non-string or empty %s", domain.ErrInvalidRecord, i, domain.IDField)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate %s %q", domain.ErrInvalidRecord, domain.IDField, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
