package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Ramsey-B/clover/pkg/kv"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/storage"
)

// collection is one JSON array stored under a single key.
type collection[T any] struct {
	b      *Backend
	name   string
	entity string
	// strip clears fields that are assembled on read before an item is written.
	strip func(*T)
}

func newCollection[T any](b *Backend, name, entity string) *collection[T] {
	return &collection[T]{b: b, name: name, entity: entity}
}

func (c *collection[T]) key() string {
	return c.b.prefix + "-" + c.name
}

func (c *collection[T]) load(ctx context.Context) ([]T, int64, error) {
	entry, err := c.b.store.Get(ctx, c.key())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", c.name, err)
	}

	items := []T{}
	if !entry.Exists() || len(entry.Value) == 0 {
		return items, entry.Version, nil
	}
	if err := json.Unmarshal(entry.Value, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", c.name, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, entry.Version, nil
}

// mutate runs a read-modify-write cycle. fn receives a fresh copy of the collection on every
// attempt and reports whether it changed anything; a lost version race re-runs it.
func (c *collection[T]) mutate(ctx context.Context, fn func(items []T) ([]T, bool, error)) error {
	for attempt := 1; attempt <= c.b.attempts; attempt++ {
		items, version, err := c.load(ctx)
		if err != nil {
			return err
		}

		next, changed, err := fn(items)
		if err != nil || !changed {
			return err
		}

		if c.strip != nil {
			for i := range next {
				c.strip(&next[i])
			}
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode %s: %w", c.name, err)
		}

		_, err = c.b.store.CompareAndSwap(ctx, c.key(), version, raw)
		if err == nil {
			return nil
		}
		if !errors.Is(err, kv.ErrVersionConflict) {
			return fmt.Errorf("failed to write %s: %w", c.name, err)
		}

		metrics.LocalWriteConflictsTotal.WithLabelValues(c.name).Inc()
		c.b.logger.WithContext(ctx).WithFields(map[string]any{
			"collection": c.name,
			"attempt":    attempt,
		}).Debug("Collection changed while writing, retrying")
	}

	c.b.logger.WithContext(ctx).WithField("collection", c.name).Warn("Gave up writing collection after repeated conflicts")
	return storage.Conflict(c.entity)
}

func indexOf[T any, PT interface {
	*T
	GetID() string
}](items []T, id string) int {
	for i := range items {
		if PT(&items[i]).GetID() == id {
			return i
		}
	}
	return -1
}
