// Package manager builds a cache store from configuration: it picks the
// backing collection for the configured driver, loads the encryption key and
// owns the connection lifecycle.
package manager

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/dotcommander/doccache/internal/app"
	"github.com/dotcommander/doccache/internal/codec"
	"github.com/dotcommander/doccache/internal/store"
	"github.com/dotcommander/doccache/internal/store/memory"
	"github.com/dotcommander/doccache/internal/store/mongo"
)

// ErrMissingKey is returned when no encryption key is configured.
var ErrMissingKey = errors.New("no encryption key configured: set DOCCACHE_KEY, key or key_file (see: doccache key generate)")

// Handle is an opened store plus what is needed to release it.
type Handle struct {
	Store  *store.Store
	Driver string
	// DB is set for the sqlite driver only.
	DB *sql.DB

	closers []func() error
}

// Close releases the backing connection. Safe to call more than once.
func (h *Handle) Close() error {
	var errs []error
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	h.closers = nil
	return errors.Join(errs...)
}

// NewCodec parses key material and returns an AES-GCM codec.
func NewCodec(key string) (*codec.Codec, error) {
	if key == "" {
		return nil, ErrMissingKey
	}
	raw, err := codec.ParseKey(key)
	if err != nil {
		return nil, fmt.Errorf("encryption key: %w", err)
	}
	enc, err := codec.NewAESEncrypter(raw)
	if err != nil {
		return nil, err
	}
	return codec.New(enc), nil
}

// Open builds a Store for cfg. The caller must Close the handle.
func Open(ctx context.Context, cfg app.Config, log zerolog.Logger) (*Handle, error) {
	c, err := NewCodec(cfg.Key)
	if err != nil {
		return nil, err
	}

	h := &Handle{Driver: cfg.Driver}
	coll, err := openCollection(ctx, cfg, log, h)
	if err != nil {
		_ = h.Close()
		return nil, err
	}

	h.Store = store.New(coll, c, cfg.Prefix,
		store.WithLogger(log.With().Str("driver", cfg.Driver).Str("collection", cfg.Collection).Logger()))
	return h, nil
}

func openCollection(ctx context.Context, cfg app.Config, log zerolog.Logger, h *Handle) (store.Collection, error) {
	switch cfg.Driver {
	case app.DriverSQLite:
		db, err := store.InitDBWithPath(cfg.DBPath, cfg.BusyTimeoutMS)
		if err != nil {
			return nil, err
		}
		h.DB = db
		h.closers = append(h.closers, db.Close)
		return store.NewSQLiteCollection(db, cfg.Collection), nil

	case app.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		h.closers = append(h.closers, func() error { return client.Disconnect(context.Background()) })

		coll := mongo.New(client.Database(cfg.MongoDatabase).Collection(cfg.Collection), mongo.WithLogger(log))
		if err := coll.EnsureIndexes(ctx); err != nil {
			// The index is an optimization; lookups work without it.
			log.Warn().Err(err).Msg("could not ensure unique key index")
		}
		return coll, nil

	case app.DriverMemory:
		return memory.New(cfg.MemoryMaxEntries).Collection(cfg.Collection), nil

	default:
		return nil, fmt.Errorf("%w %q", app.ErrUnknownDriver, cfg.Driver)
	}
}
