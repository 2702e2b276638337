package docstore

import (
	"context"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

// DocumentStore persists schema-less records grouped into named collections.
// Implementations assign an identifier to records that lack one on insert.
type DocumentStore interface {
	FindAll(ctx context.Context, c domain.Collection) ([]domain.Record, error)
	// ReplaceAll deletes every record in c, then inserts records.
	ReplaceAll(ctx context.Context, c domain.Collection, records []domain.Record) error
	InsertMany(ctx context.Context, c domain.Collection, records []domain.Record) error
	// UpdateByID merges fields into the record with the given id and returns
	// domain.ErrNotFound when no record matches.
	UpdateByID(ctx context.Context, c domain.Collection, id string, fields domain.Record) error
	Count(ctx context.Context, c domain.Collection) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}
