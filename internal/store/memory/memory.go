// Package memory is an in-process document collection for the cache store.
// Collections live in a Database; each may be bounded, in which case the
// least recently used record is evicted to make room.
package memory

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dotcommander/doccache/internal/models"
)

// Database holds named collections. All collections share one mutex.
type Database struct {
	mu         sync.Mutex
	maxEntries int
	// collections maps name -> state; a dropped collection is absent.
	collections map[string]*collectionState
}

type collectionState struct {
	// order is the LRU list of *models.Record (front = most recent).
	order    *list.List
	elements map[string]*list.Element
}

// New returns an empty Database. maxEntriesPerCollection <= 0 means unbounded.
func New(maxEntriesPerCollection int) *Database {
	return &Database{
		maxEntries:  maxEntriesPerCollection,
		collections: make(map[string]*collectionState),
	}
}

// Collection returns a handle to the named collection. The collection is
// created on first write.
func (d *Database) Collection(name string) *Collection {
	return &Collection{db: d, name: name}
}

// Collection is a handle to one named collection of a Database.
type Collection struct {
	db   *Database
	name string
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// FindOne returns a copy of the record for key and marks it recently used.
func (c *Collection) FindOne(_ context.Context, key string) (models.Record, bool, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st, ok := c.db.collections[c.name]
	if !ok {
		return models.Record{}, false, nil
	}
	elem, ok := st.elements[key]
	if !ok {
		return models.Record{}, false, nil
	}
	st.order.MoveToFront(elem)
	return *elem.Value.(*models.Record), true, nil
}

// Insert adds rec, failing with models.ErrDuplicateKey if the key exists.
func (c *Collection) Insert(_ context.Context, rec models.Record) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st := c.state()
	if _, ok := st.elements[rec.Key]; ok {
		return fmt.Errorf("insert %s/%q: %w", c.name, rec.Key, models.ErrDuplicateKey)
	}
	c.pushLocked(st, rec)
	return nil
}

// Update sets value and expiration on the record for key. A missing key is a
// no-op, matching a document update that matches nothing.
func (c *Collection) Update(_ context.Context, key, value string, expiration time.Time) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st, ok := c.db.collections[c.name]
	if !ok {
		return nil
	}
	elem, ok := st.elements[key]
	if !ok {
		return nil
	}
	r := elem.Value.(*models.Record)
	r.Value = value
	r.Expiration = expiration
	st.order.MoveToFront(elem)
	return nil
}

// Upsert inserts rec or overwrites value and expiration in one locked step.
func (c *Collection) Upsert(_ context.Context, rec models.Record) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st := c.state()
	if elem, ok := st.elements[rec.Key]; ok {
		r := elem.Value.(*models.Record)
		r.Value = rec.Value
		r.Expiration = rec.Expiration
		st.order.MoveToFront(elem)
		return nil
	}
	c.pushLocked(st, rec)
	return nil
}

// Remove deletes the record for key, if any.
func (c *Collection) Remove(_ context.Context, key string) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st, ok := c.db.collections[c.name]
	if !ok {
		return nil
	}
	if elem, ok := st.elements[key]; ok {
		st.order.Remove(elem)
		delete(st.elements, key)
	}
	return nil
}

// Drop discards the whole collection.
func (c *Collection) Drop(_ context.Context) error {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	delete(c.db.collections, c.name)
	return nil
}

// RemoveExpired deletes records whose expiration is at or before the given
// instant.
func (c *Collection) RemoveExpired(_ context.Context, before time.Time) (int64, error) {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st, ok := c.db.collections[c.name]
	if !ok {
		return 0, nil
	}

	var removed int64
	for elem := st.order.Front(); elem != nil; {
		next := elem.Next()
		r := elem.Value.(*models.Record)
		if r.Expired(before) {
			st.order.Remove(elem)
			delete(st.elements, r.Key)
			removed++
		}
		elem = next
	}
	return removed, nil
}

// Len returns the number of records in the collection, expired ones included.
func (c *Collection) Len() int {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st, ok := c.db.collections[c.name]
	if !ok {
		return 0
	}
	return st.order.Len()
}

// Keys returns stored keys, most recently used first.
func (c *Collection) Keys() []string {
	c.db.mu.Lock()
	defer c.db.mu.Unlock()

	st, ok := c.db.collections[c.name]
	if !ok {
		return nil
	}
	keys := make([]string, 0, st.order.Len())
	for elem := st.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*models.Record).Key)
	}
	return keys
}

// state returns the collection state, creating it. Caller holds db.mu.
func (c *Collection) state() *collectionState {
	st, ok := c.db.collections[c.name]
	if !ok {
		st = &collectionState{
			order:    list.New(),
			elements: make(map[string]*list.Element),
		}
		c.db.collections[c.name] = st
	}
	return st
}

// pushLocked adds rec at the front, evicting from the back when at capacity.
func (c *Collection) pushLocked(st *collectionState, rec models.Record) {
	if c.db.maxEntries > 0 && st.order.Len() >= c.db.maxEntries {
		if back := st.order.Back(); back != nil {
			evicted := st.order.Remove(back).(*models.Record)
			delete(st.elements, evicted.Key)
		}
	}
	r := rec
	st.elements[rec.Key] = st.order.PushFront(&r)
}
