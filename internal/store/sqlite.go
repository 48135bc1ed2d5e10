package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dotcommander/doccache/internal/models"
)

// SQLiteCollection stores one named collection as rows of cache_documents.
// Many collections can share one database file.
type SQLiteCollection struct {
	db   *sql.DB
	name string
}

var (
	_ Collection     = (*SQLiteCollection)(nil)
	_ Upserter       = (*SQLiteCollection)(nil)
	_ ExpiredRemover = (*SQLiteCollection)(nil)
)

// NewSQLiteCollection returns the collection called name inside db. db must
// have been migrated (see InitDBWithPath).
func NewSQLiteCollection(db *sql.DB, name string) *SQLiteCollection {
	return &SQLiteCollection{db: db, name: name}
}

// Name returns the collection name.
func (c *SQLiteCollection) Name() string { return c.name }

// FindOne returns the record for key.
func (c *SQLiteCollection) FindOne(ctx context.Context, key string) (models.Record, bool, error) {
	var (
		rec        models.Record
		expiration int64
	)
	err := RetryWithBackoff(func() error {
		return c.db.QueryRowContext(ctx, `
			SELECT key, value, expiration
			FROM cache_documents
			WHERE collection = ? AND key = ?
		`, c.name, key).Scan(&rec.Key, &rec.Value, &expiration)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return models.Record{}, false, nil
	}
	if err != nil {
		return models.Record{}, false, fmt.Errorf("find %s/%q: %w", c.name, key, err)
	}
	rec.Expiration = time.Unix(expiration, 0)
	return rec, true, nil
}

// Insert adds rec. Inserting an existing key fails with models.ErrDuplicateKey.
func (c *SQLiteCollection) Insert(ctx context.Context, rec models.Record) error {
	err := c.exec(ctx, "insert", `
		INSERT INTO cache_documents (collection, key, value, expiration)
		VALUES (?, ?, ?, ?)
	`, c.name, rec.Key, rec.Value, rec.Expiration.Unix())
	if IsUniqueConstraintErr(err) {
		return fmt.Errorf("insert %s/%q: %w", c.name, rec.Key, models.ErrDuplicateKey)
	}
	return err
}

// Update sets value and expiration on the row for key.
func (c *SQLiteCollection) Update(ctx context.Context, key, value string, expiration time.Time) error {
	return c.exec(ctx, "update", `
		UPDATE cache_documents
		SET value = ?, expiration = ?
		WHERE collection = ? AND key = ?
	`, value, expiration.Unix(), c.name, key)
}

// Upsert inserts rec or overwrites value and expiration of the existing row.
func (c *SQLiteCollection) Upsert(ctx context.Context, rec models.Record) error {
	return c.exec(ctx, "upsert", `
		INSERT INTO cache_documents (collection, key, value, expiration)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, key) DO UPDATE SET
			value = excluded.value,
			expiration = excluded.expiration
	`, c.name, rec.Key, rec.Value, rec.Expiration.Unix())
}

// Remove deletes the row for key, if any.
func (c *SQLiteCollection) Remove(ctx context.Context, key string) error {
	return c.exec(ctx, "remove", `
		DELETE FROM cache_documents WHERE collection = ? AND key = ?
	`, c.name, key)
}

// Drop deletes every row of the collection.
func (c *SQLiteCollection) Drop(ctx context.Context) error {
	return c.exec(ctx, "drop", `DELETE FROM cache_documents WHERE collection = ?`, c.name)
}

// RemoveExpired deletes rows whose expiration is at or before the given
// instant and returns how many were removed.
func (c *SQLiteCollection) RemoveExpired(ctx context.Context, before time.Time) (int64, error) {
	var removed int64
	err := RetryWithBackoff(func() error {
		res, err := c.db.ExecContext(ctx, `
			DELETE FROM cache_documents WHERE collection = ? AND expiration <= ?
		`, c.name, before.Unix())
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("remove expired from %s: %w", c.name, err)
	}
	return removed, nil
}

// Count returns the number of rows in the collection, expired ones included.
func (c *SQLiteCollection) Count(ctx context.Context) (int64, error) {
	var n int64
	err := RetryWithBackoff(func() error {
		return c.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM cache_documents WHERE collection = ?`, c.name).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", c.name, err)
	}
	return n, nil
}

func (c *SQLiteCollection) exec(ctx context.Context, op, query string, args ...any) error {
	err := RetryWithBackoff(func() error {
		_, err := c.db.ExecContext(ctx, query, args...)
		return err
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", op, c.name, err)
	}
	return nil
}
