package store

import (
	"context"

	"github.com/nexoft/phonebook/internal/bus"
)

// Watcher serves live snapshot streams over the cache. Each stream
// subscribes to store change events before emitting its initial snapshot,
// so there is no window in which a mutation can be missed.
type Watcher struct {
	db  *DB
	bus *bus.Bus
}

// NewWatcher creates a watcher over the given store.
func NewWatcher(db *DB, b *bus.Bus) *Watcher {
	return &Watcher{db: db, bus: b}
}

// All streams the full ordered contact snapshot: once immediately, then
// again after every cache mutation. The channel closes when ctx is done.
func (w *Watcher) All(ctx context.Context) <-chan []Contact {
	return w.watch(ctx, w.db.ListContacts)
}

// Search streams substring search results for the given query, re-evaluated
// after every cache mutation.
func (w *Watcher) Search(ctx context.Context, query string) <-chan []Contact {
	return w.watch(ctx, func() ([]Contact, error) {
		return w.db.SearchContacts(query)
	})
}

func (w *Watcher) watch(ctx context.Context, load func() ([]Contact, error)) <-chan []Contact {
	out := make(chan []Contact, 1)
	events, unsub := w.bus.Subscribe(EventContactsChanged, 16)

	go func() {
		defer unsub()
		defer close(out)

		emit := func() {
			snapshot, err := load()
			if err != nil {
				return
			}
			// Latest-wins delivery: replace an unconsumed snapshot
			// instead of blocking the event loop.
			for {
				select {
				case out <- snapshot:
					return
				default:
					select {
					case <-out:
					default:
					}
				}
			}
		}

		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-events:
				emit()
			}
		}
	}()

	return out
}
