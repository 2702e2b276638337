package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	driver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

const (
	connectTimeout    = 10 * time.Second
	disconnectTimeout = 5 * time.Second
)

type Store struct {
	client *driver.Client
	db     *driver.Database
}

// Connect dials uri, verifies the connection with a ping and returns a store
// bound to database dbName. The single client is shared by all callers.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := driver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		if derr := client.Disconnect(context.Background()); derr != nil {
			slog.Error("failed to disconnect from MongoDB", "error", derr)
		}
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	slog.Info("connected to MongoDB", "database", dbName)

	return &Store{client: client, db: client.Database(dbName)}, nil
}

func (s *Store) collection(c domain.Collection) (*driver.Collection, error) {
	if err := domain.CheckCollection(c); err != nil {
		return nil, err
	}
	return s.db.Collection(string(c)), nil
}

func (s *Store) FindAll(ctx context.Context, c domain.Collection) ([]domain.Record, error) {
	coll, err := s.collection(c)
	if err != nil {
		return nil, err
	}

	cursor, err := coll.Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", c, err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			slog.Error("failed to close cursor", "error", err)
		}
	}()

	records := make([]domain.Record, 0)
	for cursor.Next(ctx) {
		rec, err := decodeRecord(cursor.Current)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", c, err)
		}
		records = append(records, rec)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error on %s: %w", c, err)
	}

	return records, nil
}

// ReplaceAll is not atomic: a failure after the delete leaves c empty or
// partially filled.
func (s *Store) ReplaceAll(ctx context.Context, c domain.Collection, records []domain.Record) error {
	coll, err := s.collection(c)
	if err != nil {
		return err
	}

	if _, err := coll.DeleteMany(ctx, bson.D{}); err != nil {
		return fmt.Errorf("failed to clear %s: %w", c, err)
	}
	return insertAll(ctx, coll, records)
}

func (s *Store) InsertMany(ctx context.Context, c domain.Collection, records []domain.Record) error {
	coll, err := s.collection(c)
	if err != nil {
		return err
	}
	return insertAll(ctx, coll, records)
}

func (s *Store) UpdateByID(ctx context.Context, c domain.Collection, id string, fields domain.Record) error {
	coll, err := s.collection(c)
	if err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range fields {
		if k == domain.IDField {
			continue
		}
		set[k] = v
	}

	filter := idFilter(id)
	if len(set) == 0 {
		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return fmt.Errorf("failed to look up %s record: %w", c, err)
		}
		if n == 0 {
			return domain.ErrNotFound
		}
		return nil
	}

	res, err := coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update %s record: %w", c, err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) Count(ctx context.Context, c domain.Collection) (int64, error) {
	coll, err := s.collection(c)
	if err != nil {
		return 0, err
	}
	n, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c, err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func insertAll(ctx context.Context, coll *driver.Collection, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(records))
	for _, rec := range records {
		if rec == nil {
			rec = domain.Record{}
		}
		rec.EnsureID()
		docs = append(docs, map[string]any(rec))
	}

	if _, err := coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", coll.Name(), err)
	}
	return nil
}

// idFilter matches string ids and, for documents created outside this
// service, ObjectID ids with the same hex form.
func idFilter(id string) bson.M {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return bson.M{"_id": bson.M{"$in": bson.A{id, oid}}}
	}
	return bson.M{"_id": id}
}

// decodeRecord converts a raw BSON document to a JSON-shaped record using
// relaxed Extended JSON. ObjectID identifiers are flattened to their hex form.
func decodeRecord(raw bson.Raw) (domain.Record, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return nil, err
	}
	rec := domain.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	if oid, ok := rec[domain.IDField].(map[string]any); ok {
		if hex, ok := oid["$oid"].(string); ok {
			rec[domain.IDField] = hex
		}
	}
	return rec, nil
}
