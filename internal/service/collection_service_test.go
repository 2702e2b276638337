package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/db"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/docstore/sqlite"
	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

func newTestService(t *testing.T) *CollectionService {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	store := sqlite.New(d)
	t.Cleanup(func() { _ = store.Close() })
	return NewCollectionService(store, slog.Default())
}

// failingRepo returns err from every call.
type failingRepo struct{ err error }

func (f failingRepo) FindAll(context.Context, domain.Collection) ([]domain.Record, error) {
	return nil, f.err
}
func (f failingRepo) ReplaceAll(context.Context, domain.Collection, []domain.Record) error {
	return f.err
}
func (f failingRepo) UpdateByID(context.Context, domain.Collection, string, domain.Record) error {
	return f.err
}
func (f failingRepo) Ping(context.Context) error { return f.err }

func TestListEmptyCollection(t *testing.T) {
	svc := newTestService(t)

	for _, c := range domain.Collections {
		records, err := svc.List(context.Background(), c)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	}
}

func TestReplaceThenList(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	in := []domain.Record{
		{"name": "Ann", "contact": "ann@example.com", "location": "Springfield"},
		{"name": "Bea"},
		{"name": "Cat"},
	}
	require.NoError(t, svc.Replace(ctx, domain.Customers, in))

	out, err := svc.List(ctx, domain.Customers)
	require.NoError(t, err)
	require.Len(t, out, 3)
	names := []any{out[0]["name"], out[1]["name"], out[2]["name"]}
	assert.ElementsMatch(t, []any{"Ann", "Bea", "Cat"}, names)
}

func TestReplaceWithNothingEmptiesCollection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, domain.Ideas, []domain.Record{{"note": "lace shawl"}}))
	require.NoError(t, svc.Replace(ctx, domain.Ideas, nil))

	out, err := svc.List(ctx, domain.Ideas)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestReplaceRejectsInvalidRecords(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		records []domain.Record
	}{
		{"null element", []domain.Record{{"a": 1.0}, nil}},
		{"numeric id", []domain.Record{{domain.IDField: 7.0}}},
		{"empty id", []domain.Record{{domain.IDField: ""}}},
		{"duplicate id", []domain.Record{{domain.IDField: "x"}, {domain.IDField: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Replace(ctx, domain.Sales, tt.records)
			assert.ErrorIs(t, err, domain.ErrInvalidRecord)
		})
	}
}

func TestUpdateInventoryItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, domain.Inventory, []domain.Record{
		{domain.IDField: "wip-1", "description": "Chunky Knit Blanket", "status": domain.StatusInProgress, "price": 145.0},
	}))

	require.NoError(t, svc.UpdateInventoryItem(ctx, "wip-1", domain.Record{"status": domain.StatusCompleted}))

	out, err := svc.List(ctx, domain.Inventory)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, domain.StatusCompleted, out[0]["status"])
	assert.Equal(t, "Chunky Knit Blanket", out[0]["description"])
	assert.Equal(t, 145.0, out[0]["price"])
}

func TestUpdateInventoryItemNotFound(t *testing.T) {
	svc := newTestService(t)

	err := svc.UpdateInventoryItem(context.Background(), "nope", domain.Record{"quantity": 1.0})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = svc.UpdateInventoryItem(context.Background(), "", domain.Record{"quantity": 1.0})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateInventoryItemRequiresFields(t *testing.T) {
	svc := newTestService(t)

	err := svc.UpdateInventoryItem(context.Background(), "x", domain.Record{})
	assert.ErrorIs(t, err, domain.ErrInvalidRecord)
}

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewCollectionService(failingRepo{err: boom}, slog.Default())
	ctx := context.Background()

	_, err := svc.List(ctx, domain.Inventory)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Replace(ctx, domain.Inventory, nil), boom)
	assert.ErrorIs(t, svc.UpdateInventoryItem(ctx, "x", domain.Record{"a": 1.0}), boom)
	assert.ErrorIs(t, svc.Ping(ctx), boom)
}
