package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dotcommander/doccache/internal/codec"
	"github.com/dotcommander/doccache/internal/models"
)

// ForeverMinutes is the TTL used by Forever: about ten years. Records never
// live without an expiration.
const ForeverMinutes = 5256000

// Cache is the capability set exposed to cache consumers. Alternative
// backends plug in underneath as a Collection, not as another Cache.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Put(ctx context.Context, key string, value any, minutes int) error
	Forever(ctx context.Context, key string, value any) error
	Forget(ctx context.Context, key string) error
	Flush(ctx context.Context) error
	Increment(ctx context.Context, key string, delta int64) (int64, error)
	Decrement(ctx context.Context, key string, delta int64) (int64, error)
}

var _ Cache = (*Store)(nil)

// Store implements Cache over a document collection with encrypted values,
// key prefixing and lazy expiration.
//
// Store keeps no mutable state of its own and takes no locks. Concurrent Puts
// on one key race; the last write the collection commits wins.
type Store struct {
	coll   Collection
	codec  *codec.Codec
	prefix string
	now    func() time.Time
	log    zerolog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) {
		s.log = l
	}
}

// New creates a Store. prefix may be empty; it is prepended to every key
// before it reaches the collection.
func New(coll Collection, c *codec.Codec, prefix string, opts ...Option) *Store {
	s := &Store{
		coll:   coll,
		codec:  c,
		prefix: prefix,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Prefix returns the key prefix.
func (s *Store) Prefix() string { return s.prefix }

// Collection returns the underlying collection handle.
func (s *Store) Collection() Collection { return s.coll }

// Get decodes the value stored under key into dest. A missing or expired
// record yields (false, nil); an expired record is removed on the way out.
// A payload that fails to decode is returned as a *codec.DecodingError and is
// left in place.
func (s *Store) Get(ctx context.Context, key string, dest any) (bool, error) {
	rec, found, err := s.coll.FindOne(ctx, s.prefix+key)
	if err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	if !found {
		return false, nil
	}

	if rec.Expired(s.now()) {
		s.log.Debug().
			Str("key", rec.Key).
			Time("expiration", rec.Expiration).
			Msg("removing expired record")
		return false, s.Forget(ctx, key)
	}

	if err := s.codec.Decode(rec.Value, dest); err != nil {
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}
	return true, nil
}

// Put stores value under key for the given number of minutes, replacing any
// existing record in place.
func (s *Store) Put(ctx context.Context, key string, value any, minutes int) error {
	payload, err := s.codec.Encode(value)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}

	rec := models.Record{
		Key:        s.prefix + key,
		Value:      payload,
		Expiration: s.expiration(minutes),
	}

	if u, ok := s.coll.(Upserter); ok {
		if err := u.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("cache put %q: %w", key, err)
		}
		return nil
	}

	// Read-then-write: not atomic across concurrent writers.
	_, found, err := s.coll.FindOne(ctx, rec.Key)
	if err != nil {
		return fmt.Errorf("cache put %q lookup: %w", key, err)
	}
	if !found {
		err = s.coll.Insert(ctx, rec)
		if errors.Is(err, models.ErrDuplicateKey) {
			// Another writer inserted between the lookup and the insert.
			err = s.coll.Update(ctx, rec.Key, rec.Value, rec.Expiration)
		}
	} else {
		err = s.coll.Update(ctx, rec.Key, rec.Value, rec.Expiration)
	}
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// Forever stores value under key with the ForeverMinutes TTL.
func (s *Store) Forever(ctx context.Context, key string, value any) error {
	return s.Put(ctx, key, value, ForeverMinutes)
}

// Forget removes key. Forgetting a missing key is not an error.
func (s *Store) Forget(ctx context.Context, key string) error {
	if err := s.coll.Remove(ctx, s.prefix+key); err != nil {
		return fmt.Errorf("cache forget %q: %w", key, err)
	}
	return nil
}

// Flush drops the whole collection. It is not scoped to this store's prefix:
// other stores sharing the collection lose their records too.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.coll.Drop(ctx); err != nil {
		return fmt.Errorf("cache flush: %w", err)
	}
	return nil
}

// Increment is not supported: values are encrypted blobs.
func (s *Store) Increment(_ context.Context, key string, delta int64) (int64, error) {
	return 0, &UnsupportedOperationError{Operation: "increment", Key: key, Delta: delta}
}

// Decrement is not supported: values are encrypted blobs.
func (s *Store) Decrement(_ context.Context, key string, delta int64) (int64, error) {
	return 0, &UnsupportedOperationError{Operation: "decrement", Key: key, Delta: delta}
}

func (s *Store) expiration(minutes int) time.Time {
	return time.Unix(s.now().Unix()+int64(minutes)*60, 0)
}
