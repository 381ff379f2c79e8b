// Package sync implements the reconciliation engine: the single source of
// truth that merges remote directory state, the local cache and the device
// address book, with fallback-to-cache on network failure.
package sync

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nexoft/phonebook/internal/bus"
	"github.com/nexoft/phonebook/internal/device"
	"github.com/nexoft/phonebook/internal/phone"
	"github.com/nexoft/phonebook/internal/remote"
	"github.com/nexoft/phonebook/internal/status"
	"github.com/nexoft/phonebook/internal/store"
)

// Directory is the remote contract the engine consumes. *remote.Client
// implements it.
type Directory interface {
	ListAll(ctx context.Context) ([]remote.User, error)
	Get(ctx context.Context, id string) (*remote.User, error)
	Create(ctx context.Context, f remote.Fields) (*remote.User, error)
	Update(ctx context.Context, id string, f remote.Fields) (*remote.User, error)
	Delete(ctx context.Context, id string) error
	UploadImage(ctx context.Context, filename string, image io.Reader) (string, error)
}

// Engine orchestrates remote fetch, cache refresh and device-flag resync.
// Reads fall back to the cache; mutations are optimistic only after the
// server confirms.
type Engine struct {
	db        *store.DB
	directory Directory
	book      device.Book
	watcher   *store.Watcher
	bus       *bus.Bus
	machine   *status.Machine
	logger    *zap.Logger
	cancel    context.CancelFunc
}

// NewEngine creates a reconciliation engine. The machine may be nil when no
// runtime status tracking is wanted.
func NewEngine(db *store.DB, dir Directory, book device.Book, b *bus.Bus, m *status.Machine, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		db:        db,
		directory: dir,
		book:      book,
		watcher:   store.NewWatcher(db, b),
		bus:       b,
		machine:   m,
		logger:    logger,
	}
}

// Start runs an initial refresh and then refreshes on the given interval
// until Stop or ctx cancellation. A non-positive interval means the initial
// refresh only.
func (e *Engine) Start(ctx context.Context, interval time.Duration) {
	ctx, e.cancel = context.WithCancel(ctx)

	go func() {
		if _, err := e.RefreshAll(ctx); err != nil {
			e.logger.Error("initial refresh failed", zap.Error(err))
		}
		if interval <= 0 {
			return
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := e.RefreshAll(ctx); err != nil {
					e.logger.Error("periodic refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop stops the engine's background refresh loop.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

// RefreshAll fetches the remote list and, on success, replaces the entire
// local snapshot, resyncs device flags and returns the merged local
// snapshot (so device flags are included). On remote failure it serves the
// existing cache; the call fails only when the cache is empty too.
func (e *Engine) RefreshAll(ctx context.Context) ([]store.Contact, error) {
	e.transition(status.Refreshing)

	users, err := e.directory.ListAll(ctx)
	if err != nil {
		local, lerr := e.db.ListContacts()
		if lerr == nil && len(local) > 0 {
			e.logger.Warn("refresh fell back to cache",
				zap.Error(err), zap.Int("contacts", len(local)))
			e.transition(status.Offline)
			return local, nil
		}
		e.transition(status.Error)
		return nil, fmt.Errorf("refresh contacts: %w", err)
	}

	fresh := make([]store.Contact, 0, len(users))
	for _, u := range users {
		fresh = append(fresh, u.Contact())
	}

	// Replace-then-resync. Not crash-atomic: a crash between the delete
	// and the bulk insert leaves an empty cache, which the next refresh
	// repairs.
	if err := e.db.DeleteAllContacts(); err != nil {
		e.transition(status.Error)
		return nil, fmt.Errorf("clear snapshot: %w", err)
	}
	if err := e.db.BulkUpsertContacts(fresh); err != nil {
		e.transition(status.Error)
		return nil, fmt.Errorf("store snapshot: %w", err)
	}

	e.SyncDeviceFlags()

	merged, err := e.db.ListContacts()
	if err != nil {
		e.transition(status.Error)
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	e.transition(status.Ready)
	e.bus.Publish(bus.Event{
		Kind:      "sync.refresh_completed",
		Timestamp: time.Now(),
		Payload:   len(merged),
	})
	return merged, nil
}

// FetchOne fetches a single contact from the directory, preserving the
// locally stored device flag (a plain fetch must never clobber local-only
// truth). Falls back to the cache on remote failure; fails only when the
// contact is absent from both.
func (e *Engine) FetchOne(ctx context.Context, id string) (*store.Contact, error) {
	user, err := e.directory.Get(ctx, id)
	if err != nil {
		local, lerr := e.db.GetContact(id)
		if lerr == nil && local != nil {
			return local, nil
		}
		return nil, fmt.Errorf("fetch contact %q: %w", id, err)
	}

	merged := user.Contact()
	existing, err := e.db.GetContact(id)
	if err != nil {
		return nil, fmt.Errorf("read cached contact: %w", err)
	}
	if existing != nil {
		merged.IsInDeviceContacts = existing.IsInDeviceContacts
	}
	if err := e.db.UpsertContact(&merged); err != nil {
		return nil, fmt.Errorf("cache contact: %w", err)
	}
	return &merged, nil
}

// Create registers a contact with the directory and caches the returned
// record. No offline queueing: a remote failure fails the call outright.
func (e *Engine) Create(ctx context.Context, f remote.Fields) (*store.Contact, error) {
	user, err := e.directory.Create(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	// A brand-new contact cannot be in the device book yet.
	c := user.Contact()
	if err := e.db.UpsertContact(&c); err != nil {
		return nil, fmt.Errorf("cache contact: %w", err)
	}
	return &c, nil
}

// Update replaces a contact's fields via the directory, carrying the
// pre-update local device flag over into the cached result. A remote
// failure fails the call outright.
func (e *Engine) Update(ctx context.Context, id string, f remote.Fields) (*store.Contact, error) {
	user, err := e.directory.Update(ctx, id, f)
	if err != nil {
		return nil, fmt.Errorf("update contact: %w", err)
	}

	merged := user.Contact()
	existing, err := e.db.GetContact(id)
	if err != nil {
		return nil, fmt.Errorf("read cached contact: %w", err)
	}
	if existing != nil {
		merged.IsInDeviceContacts = existing.IsInDeviceContacts
	}
	if err := e.db.UpsertContact(&merged); err != nil {
		return nil, fmt.Errorf("cache contact: %w", err)
	}
	return &merged, nil
}

// Delete removes a contact remotely, then from the cache. On remote failure
// the cache is untouched: it stays faithful to the server until the server
// confirms the deletion.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.directory.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	if err := e.db.DeleteContact(id); err != nil {
		return fmt.Errorf("evict contact: %w", err)
	}
	return nil
}

// Search returns a live stream of contact snapshots: a blank query follows
// the full cached snapshot, anything else follows the substring search.
func (e *Engine) Search(ctx context.Context, query string) <-chan []store.Contact {
	if strings.TrimSpace(query) == "" {
		return e.watcher.All(ctx)
	}
	return e.watcher.Search(ctx, query)
}

// UploadAvatar pushes avatar bytes through the directory and returns the
// hosted image URL.
func (e *Engine) UploadAvatar(ctx context.Context, filename string, image io.Reader) (string, error) {
	url, err := e.directory.UploadImage(ctx, filename, image)
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	return url, nil
}

// SyncDeviceFlags recomputes IsInDeviceContacts for every cached contact
// against the device book's number set and persists only the flags that
// changed. Best-effort: any adapter failure logs and no-ops the resync, it
// never surfaces to callers. Idempotent when already consistent.
func (e *Engine) SyncDeviceFlags() {
	numbers, err := e.book.AllPhoneNumbers()
	if err != nil {
		e.logger.Warn("device book unavailable, skipping flag resync", zap.Error(err))
		return
	}
	contacts, err := e.db.ListContacts()
	if err != nil {
		e.logger.Warn("flag resync read failed", zap.Error(err))
		return
	}

	changed := 0
	for _, c := range contacts {
		inDevice := ComputeFlag(c.PhoneNumber, numbers)
		if c.IsInDeviceContacts == inDevice {
			continue
		}
		if err := e.db.SetDeviceFlag(c.PhoneNumber, inDevice); err != nil {
			e.logger.Warn("flag update failed",
				zap.String("id", c.ID), zap.Error(err))
			continue
		}
		changed++
	}
	if changed > 0 {
		e.bus.Publish(bus.Event{
			Kind:      "sync.flags_synced",
			Timestamp: time.Now(),
			Payload:   changed,
		})
	}
}

// SaveToDevice writes the contact into the device address book and flips
// its cached flag. The save error is reported to the caller; a flag write
// failure is only logged since the next resync corrects it.
func (e *Engine) SaveToDevice(c store.Contact) error {
	if err := e.book.Save(c.FirstName, c.LastName, c.PhoneNumber); err != nil {
		return fmt.Errorf("save to device book: %w", err)
	}
	if err := e.db.SetDeviceFlag(c.PhoneNumber, true); err != nil {
		e.logger.Warn("flag update after device save failed",
			zap.String("id", c.ID), zap.Error(err))
	}
	return nil
}

// SearchHistory returns the ten most recent distinct committed queries,
// newest first.
func (e *Engine) SearchHistory() ([]string, error) {
	return e.db.RecentQueries(10)
}

// SaveSearchQuery commits a search. Blank text is ignored; an existing
// entry with the same literal text is deleted first, so the text stays
// unique with the newest timestamp.
func (e *Engine) SaveSearchQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return nil
	}
	if err := e.db.DeleteQuery(query); err != nil {
		return err
	}
	return e.db.InsertQuery(query)
}

// ClearSearchHistory removes every history entry.
func (e *Engine) ClearSearchHistory() error {
	return e.db.ClearHistory()
}

// ComputeFlag reports whether the device number set contains a number
// normalizing equal to phoneNumber. Pure recomputation; callers pass the
// set explicitly instead of reading shared state.
func ComputeFlag(phoneNumber string, deviceNumbers map[string]struct{}) bool {
	_, ok := deviceNumbers[phone.Normalize(phoneNumber)]
	return ok
}

func (e *Engine) transition(to status.State) {
	if e.machine == nil {
		return
	}
	if err := e.machine.Transition(to); err != nil {
		e.logger.Debug("status transition skipped", zap.Error(err))
	}
}
