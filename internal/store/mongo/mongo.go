// Package mongo backs the cache store with a MongoDB collection. Documents
// have the shape {key, value, expiration} with expiration as a BSON date.
package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dotcommander/doccache/internal/models"
)

// document is the on-disk shape. expiration is stored as a BSON date so TTL
// queries and indexes work natively.
type document struct {
	Key        string             `bson:"key"`
	Value      string             `bson:"value"`
	Expiration primitive.DateTime `bson:"expiration"`
}

func toDocument(rec models.Record) document {
	return document{
		Key:        rec.Key,
		Value:      rec.Value,
		Expiration: primitive.NewDateTimeFromTime(rec.Expiration),
	}
}

func (d document) record() models.Record {
	return models.Record{
		Key:        d.Key,
		Value:      d.Value,
		Expiration: time.Unix(d.Expiration.Time().Unix(), 0),
	}
}

// Collection adapts a *mongo.Collection.
type Collection struct {
	coll *mongo.Collection
	log  zerolog.Logger
}

// Option configures a Collection.
type Option func(*Collection)

// WithLogger sets the logger used to report duplicate-key corruption.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Collection) {
		c.log = l
	}
}

// New wraps coll.
func New(coll *mongo.Collection, opts ...Option) *Collection {
	c := &Collection{coll: coll, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureIndexes creates the unique index on key. Lookups work without it; it
// prevents duplicate documents when writers race.
func (c *Collection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("key_unique"),
	})
	if err != nil {
		return fmt.Errorf("create key index on %s: %w", c.coll.Name(), err)
	}
	return nil
}

// FindOne returns the record for key. If more than one document matches, the
// first is used and the corruption is logged.
func (c *Collection) FindOne(ctx context.Context, key string) (models.Record, bool, error) {
	cur, err := c.coll.Find(ctx, keyFilter(key), options.Find().SetLimit(2))
	if err != nil {
		return models.Record{}, false, fmt.Errorf("find %s/%q: %w", c.coll.Name(), key, err)
	}
	defer func() { _ = cur.Close(ctx) }()

	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return models.Record{}, false, fmt.Errorf("decode %s/%q: %w", c.coll.Name(), key, err)
	}
	switch len(docs) {
	case 0:
		return models.Record{}, false, nil
	case 1:
	default:
		c.log.Warn().
			Str("collection", c.coll.Name()).
			Str("key", key).
			Msg("multiple documents share one cache key; using the first")
	}
	return docs[0].record(), true, nil
}

// Insert adds rec. With the unique key index in place, inserting an existing
// key fails with models.ErrDuplicateKey.
func (c *Collection) Insert(ctx context.Context, rec models.Record) error {
	if _, err := c.coll.InsertOne(ctx, toDocument(rec)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("insert %s/%q: %w", c.coll.Name(), rec.Key, models.ErrDuplicateKey)
		}
		return fmt.Errorf("insert %s/%q: %w", c.coll.Name(), rec.Key, err)
	}
	return nil
}

// Update $sets value and expiration on the document for key.
func (c *Collection) Update(ctx context.Context, key, value string, expiration time.Time) error {
	if _, err := c.coll.UpdateOne(ctx, keyFilter(key), setUpdate(value, expiration)); err != nil {
		return fmt.Errorf("update %s/%q: %w", c.coll.Name(), key, err)
	}
	return nil
}

// Upsert is UpdateOne with upsert:true, so creation and update are one
// server-side operation.
func (c *Collection) Upsert(ctx context.Context, rec models.Record) error {
	_, err := c.coll.UpdateOne(ctx, keyFilter(rec.Key), setUpdate(rec.Value, rec.Expiration),
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s/%q: %w", c.coll.Name(), rec.Key, err)
	}
	return nil
}

// Remove deletes the document for key, if any.
func (c *Collection) Remove(ctx context.Context, key string) error {
	if _, err := c.coll.DeleteOne(ctx, keyFilter(key)); err != nil {
		return fmt.Errorf("remove %s/%q: %w", c.coll.Name(), key, err)
	}
	return nil
}

// Drop drops the collection and recreates the unique key index, which the
// drop removes along with the documents.
func (c *Collection) Drop(ctx context.Context) error {
	if err := c.coll.Drop(ctx); err != nil {
		return fmt.Errorf("drop %s: %w", c.coll.Name(), err)
	}
	if err := c.EnsureIndexes(ctx); err != nil {
		c.log.Warn().Err(err).Str("collection", c.coll.Name()).Msg("could not restore unique key index after drop")
	}
	return nil
}

// RemoveExpired deletes documents whose expiration is at or before the given
// instant.
func (c *Collection) RemoveExpired(ctx context.Context, before time.Time) (int64, error) {
	filter := bson.D{{Key: "expiration", Value: bson.D{{Key: "$lte", Value: primitive.NewDateTimeFromTime(before)}}}}
	res, err := c.coll.DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("remove expired from %s: %w", c.coll.Name(), err)
	}
	return res.DeletedCount, nil
}

// Connect opens a client for uri and verifies it with a ping.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping %s: %w", uri, err)
	}
	return client, nil
}

func keyFilter(key string) bson.D {
	return bson.D{{Key: "key", Value: key}}
}

func setUpdate(value string, expiration time.Time) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: "value", Value: value},
		{Key: "expiration", Value: primitive.NewDateTimeFromTime(expiration)},
	}}}
}
