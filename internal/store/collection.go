package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/benvon/handbook/internal/database"
	"go.uber.org/zap"
)

// Entity is a record that can live in a Collection
type Entity interface {
	GetID() string
}

// Order controls where Append places new records
type Order int

const (
	// NewestFirst prepends new records
	NewestFirst Order = iota
	// InsertionOrder appends new records at the end
	InsertionOrder
)

// Collection is a named, typed, insertion-ordered list persisted as one JSON array.
// Every mutation is an atomic read-modify-write through KV.Update, so separate processes
// holding their own Collection over the same storage never overwrite each other.
type Collection[T Entity] struct {
	kv     database.KV
	key    string
	order  Order
	seed   func() []T
	logger *zap.Logger

	mu     sync.Mutex
	items  []T
	loaded bool
	// dirty is set while memory holds changes that storage rejected
	dirty  bool
	warned bool
}

// NewCollection creates a collection stored under key. seed may be nil for an empty first run.
func NewCollection[T Entity](kv database.KV, key string, order Order, seed func() []T, logger *zap.Logger) *Collection[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collection[T]{
		kv:     kv,
		key:    key,
		order:  order,
		seed:   seed,
		logger: logger.With(zap.String("collection", key)),
	}
}

// Key returns the storage key of the collection
func (c *Collection[T]) Key() string {
	return c.key
}

// Load returns the current records. A *CorruptStateError is returned alongside an
// empty collection when the stored value cannot be decoded.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, err := c.loadLocked(ctx)
	return slices.Clone(items), err
}

// Get returns the record with the given id
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	items, err := c.Load(ctx)
	if err != nil && !IsRecoverable(err) {
		return zero, err
	}
	for _, item := range items {
		if item.GetID() == id {
			return item, nil
		}
	}
	return zero, ErrNotFound
}

// errUnchanged aborts an update that would leave the collection as it is
var errUnchanged = errors.New("collection unchanged")

// Save persists items as the whole collection. Last writer wins.
func (c *Collection[T]) Save(ctx context.Context, items []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mutateLocked(ctx, func([]T) ([]T, error) {
		return slices.Clone(items), nil
	})
}

// Append adds item according to the collection order and persists
func (c *Collection[T]) Append(ctx context.Context, item T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.mutateLocked(ctx, func(items []T) ([]T, error) {
		next := make([]T, 0, len(items)+1)
		if c.order == NewestFirst {
			next = append(next, item)
			return append(next, items...), nil
		}
		next = append(next, items...)
		return append(next, item), nil
	})
}

// Remove deletes every record matching pred, preserving the order of the rest
func (c *Collection[T]) Remove(ctx context.Context, pred func(T) bool) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int
	err := c.mutateLocked(ctx, func(items []T) ([]T, error) {
		next := slices.DeleteFunc(slices.Clone(items), pred)
		removed = len(items) - len(next)
		if removed == 0 {
			return nil, errUnchanged
		}
		return next, nil
	})
	return removed, err
}

// Update applies mutator to the record with the given id and persists.
// A mutator that changes the id is rejected so records can never be renamed.
func (c *Collection[T]) Update(ctx context.Context, id string, mutator func(*T)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var updated T
	err := c.mutateLocked(ctx, func(items []T) ([]T, error) {
		idx := slices.IndexFunc(items, func(item T) bool { return item.GetID() == id })
		if idx < 0 {
			return nil, ErrNotFound
		}
		next := slices.Clone(items)
		updated = next[idx]
		mutator(&updated)
		if updated.GetID() != id {
			return nil, fmt.Errorf("update of %s changed the record id", id)
		}
		next[idx] = updated
		return next, nil
	})
	if err != nil && !IsRecoverable(err) {
		var zero T
		return zero, err
	}
	return updated, err
}

// Reset deletes the stored value so the next Load returns the seed
func (c *Collection[T]) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = nil
	c.loaded = false
	c.dirty = false
	c.warned = false
	if err := c.kv.Delete(ctx, c.key); err != nil {
		return &StorageWriteError{Key: c.key, Err: err}
	}
	return nil
}

func (c *Collection[T]) loadLocked(ctx context.Context) ([]T, error) {
	if c.dirty {
		return c.items, nil
	}

	data, err := c.kv.Get(ctx, c.key)
	switch {
	case errors.Is(err, database.ErrNotFound):
		c.items = c.seedItems()
		c.loaded = true
		return c.items, nil
	case err != nil:
		if c.loaded {
			c.logger.Warn("storage_read_failed_using_memory", zap.Error(err))
			return c.items, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", c.key, err)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("corrupt_collection_state", zap.Error(err), zap.Int("bytes", len(data)))
		c.items = []T{}
		c.loaded = true
		return c.items, &CorruptStateError{Key: c.key, Err: err}
	}
	if items == nil {
		items = []T{}
	}
	c.items = items
	c.loaded = true
	return c.items, nil
}

// mutateLocked applies change to the freshest stored state inside KV.Update.
// While storage is rejecting writes the in-memory items are the base instead, and
// a failed write keeps the changed items in memory behind a StorageWriteError.
func (c *Collection[T]) mutateLocked(ctx context.Context, change func([]T) ([]T, error)) error {
	var (
		next      []T
		changeErr error
		ran       bool
	)
	err := c.kv.Update(ctx, c.key, func(current []byte) ([]byte, error) {
		ran = true
		base := c.items
		if !c.dirty {
			base = c.decodeForWrite(current)
		}
		changed, err := change(base)
		if err != nil {
			changeErr = err
			return nil, err
		}
		if changed == nil {
			changed = []T{}
		}
		next = changed
		return json.Marshal(changed)
	})

	if changeErr != nil {
		if errors.Is(changeErr, errUnchanged) {
			return nil
		}
		return changeErr
	}
	if err == nil {
		c.items = next
		c.loaded = true
		if c.warned {
			c.logger.Info("storage_write_recovered", zap.Int("items", len(next)))
		}
		c.dirty = false
		c.warned = false
		return nil
	}

	if !ran {
		// Storage failed before the current value could be read
		if !c.loaded {
			return fmt.Errorf("failed to load %s: %w", c.key, err)
		}
		changed, cerr := change(c.items)
		if errors.Is(cerr, errUnchanged) {
			return nil
		}
		if cerr != nil {
			return cerr
		}
		next = changed
	}
	if next == nil {
		next = []T{}
	}
	c.items = next
	c.loaded = true
	c.dirty = true
	if !c.warned {
		c.warned = true
		c.logger.Warn("storage_write_failed", zap.Error(err), zap.Int("items", len(next)))
	}
	return &StorageWriteError{Key: c.key, Err: err}
}

// decodeForWrite treats a missing key as the seed and corrupt state as an empty collection
// so the write can replace it
func (c *Collection[T]) decodeForWrite(data []byte) []T {
	if data == nil {
		return c.seedItems()
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("corrupt_collection_state_overwritten", zap.Error(err), zap.Int("bytes", len(data)))
		return []T{}
	}
	if items == nil {
		return []T{}
	}
	return items
}

func (c *Collection[T]) seedItems() []T {
	if c.seed == nil {
		return []T{}
	}
	items := c.seed()
	if items == nil {
		return []T{}
	}
	return items
}
