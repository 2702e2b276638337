package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

func TestDecodeRecord_FlattensObjectID(t *testing.T) {
	oid := primitive.NewObjectID()
	raw, err := bson.Marshal(bson.D{
		{Key: "_id", Value: oid},
		{Key: "description", Value: "Green Yarn"},
		{Key: "quantity", Value: int32(5)},
		{Key: "price", Value: 12.99},
	})
	require.NoError(t, err)

	rec, err := decodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, oid.Hex(), rec.ID())
	assert.Equal(t, "Green Yarn", rec["description"])
	assert.Equal(t, 5.0, rec["quantity"])
	assert.Equal(t, 12.99, rec["price"])
}

func TestDecodeRecord_StringID(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": "abc", "name": "Ann"})
	require.NoError(t, err)

	rec, err := decodeRecord(raw)
	require.NoError(t, err)
	assert.Equal(t, "abc", rec.ID())
}

func TestIDFilter(t *testing.T) {
	plain := idFilter("item-1")
	assert.Equal(t, "item-1", plain["_id"])

	oid := primitive.NewObjectID()
	withOID := idFilter(oid.Hex())
	in, ok := withOID["_id"].(bson.M)
	require.True(t, ok)
	assert.Len(t, in["$in"], 2)
}

// openTestStore connects to the server named by MONGODB_TEST_URI using a
// throwaway database, or skips the test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGODB_TEST_URI")
	if uri == "" {
		t.Skip("MONGODB_TEST_URI not set")
	}
	dbName := fmt.Sprintf("handmades_test_%d", time.Now().UnixNano())
	s, err := Connect(context.Background(), uri, dbName)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	return s
}

func TestConnectFailsWhenServerUnreachable(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping connection test in short mode")
	}
	start := time.Now()
	s, err := Connect(context.Background(), "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=200&connectTimeoutMS=200", "handmades_test")
	require.Error(t, err)
	assert.Nil(t, s)
	assert.Contains(t, err.Error(), "failed to ping MongoDB")
	assert.Less(t, time.Since(start), connectTimeout)
}

func TestIntegration_ReplaceFindUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	records, err := s.FindAll(ctx, domain.Inventory)
	require.NoError(t, err)
	assert.Empty(t, records)

	require.NoError(t, s.ReplaceAll(ctx, domain.Inventory, []domain.Record{
		{"description": "Green Yarn", "quantity": 5.0, "price": 12.99},
	}))

	records, err = s.FindAll(ctx, domain.Inventory)
	require.NoError(t, err)
	require.Len(t, records, 1)
	id := records[0].ID()
	assert.NotEmpty(t, id)

	require.NoError(t, s.UpdateByID(ctx, domain.Inventory, id, domain.Record{"quantity": 2.0}))
	assert.ErrorIs(t, s.UpdateByID(ctx, domain.Inventory, "missing", domain.Record{"quantity": 2.0}), domain.ErrNotFound)

	records, err = s.FindAll(ctx, domain.Inventory)
	require.NoError(t, err)
	assert.Equal(t, 2.0, records[0]["quantity"])
	assert.Equal(t, "Green Yarn", records[0]["description"])

	require.NoError(t, s.ReplaceAll(ctx, domain.Inventory, nil))
	n, err := s.Count(ctx, domain.Inventory)
	require.NoError(t, err)
	assert.Zero(t, n)
}
