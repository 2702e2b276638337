package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cyndypederson/joeykaye-handmades-inventory-sub001/internal/domain"
)

// Store keeps each record as a JSON body in the documents table, keyed by
// collection and id.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) FindAll(ctx context.Context, c domain.Collection) ([]domain.Record, error) {
	if err := domain.CheckCollection(c); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM documents WHERE collection = ? ORDER BY seq ASC
	`, string(c))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", c, err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("failed to close rows", "error", err)
		}
	}()

	records := make([]domain.Record, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s record: %w", c, err)
		}
		rec := domain.Record{}
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode %s record: %w", c, err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s: %w", c, err)
	}

	return records, nil
}

func (s *Store) ReplaceAll(ctx context.Context, c domain.Collection, records []domain.Record) error {
	if err := domain.CheckCollection(c); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE collection = ?`, string(c)); err != nil {
			return fmt.Errorf("failed to clear %s: %w", c, err)
		}
		return insertAll(ctx, tx, c, records)
	})
}

func (s *Store) InsertMany(ctx context.Context, c domain.Collection, records []domain.Record) error {
	if err := domain.CheckCollection(c); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		return insertAll(ctx, tx, c, records)
	})
}

func (s *Store) UpdateByID(ctx context.Context, c domain.Collection, id string, fields domain.Record) error {
	if err := domain.CheckCollection(c); err != nil {
		return err
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		var body string
		err := tx.QueryRowContext(ctx, `
			SELECT body FROM documents WHERE collection = ? AND id = ?
		`, string(c), id).Scan(&body)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get %s record: %w", c, err)
		}

		rec := domain.Record{}
		if err := json.Unmarshal([]byte(body), &rec); err != nil {
			return fmt.Errorf("failed to decode %s record: %w", c, err)
		}
		for k, v := range fields {
			if k == domain.IDField {
				continue
			}
			rec[k] = v
		}

		merged, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", c, err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE documents SET body = ?, updated_at = datetime('now') WHERE collection = ? AND id = ?
		`, string(merged), string(c), id); err != nil {
			return fmt.Errorf("failed to update %s record: %w", c, err)
		}
		return nil
	})
}

func (s *Store) Count(ctx context.Context, c domain.Collection) (int64, error) {
	if err := domain.CheckCollection(c); err != nil {
		return 0, err
	}

	var n int64
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM documents WHERE collection = ?
	`, string(c)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", c, err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			slog.Error("failed to roll back transaction", "error", rerr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertAll(ctx context.Context, tx *sql.Tx, c domain.Collection, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (collection, id, body) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("failed to close statement", "error", err)
		}
	}()

	for _, rec := range records {
		if rec == nil {
			rec = domain.Record{}
		}
		id := rec.EnsureID()
		body, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode %s record: %w", c, err)
		}
		if _, err := stmt.ExecContext(ctx, string(c), id, string(body)); err != nil {
			return fmt.Errorf("failed to insert %s record %s: %w", c, id, err)
		}
	}
	return nil
}
