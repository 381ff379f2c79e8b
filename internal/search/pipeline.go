package search

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/nexoft/phonebook/internal/store"
)

// DefaultDebounce is the quiescence window for non-blank queries.
const DefaultDebounce = 300 * time.Millisecond

// Source produces live contact streams; the reconciliation engine
// satisfies it.
type Source interface {
	Search(ctx context.Context, query string) <-chan []store.Contact
}

// Pipeline turns keystrokes into grouped result emissions. Each new query
// supersedes and cancels the previous task; a blank query emits the full
// grouped snapshot immediately, a non-blank query waits out the debounce
// window before the substring search is issued. A stale task can never
// publish: publishing is gated on a generation counter taken when the task
// was started.
type Pipeline struct {
	source   Source
	debounce time.Duration
	out      chan []Group

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// NewPipeline creates a pipeline over the given source. A non-positive
// debounce falls back to DefaultDebounce.
func NewPipeline(source Source, debounce time.Duration) *Pipeline {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Pipeline{
		source:   source,
		debounce: debounce,
		out:      make(chan []Group, 1),
	}
}

// Results delivers grouped snapshots for the most recent query,
// latest-wins. Stale emissions are replaced, not queued.
func (p *Pipeline) Results() <-chan []Group {
	return p.out
}

// SetQuery supersedes any pending or in-flight search with the new query.
func (p *Pipeline) SetQuery(query string) {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.gen++
	gen := p.gen
	p.mu.Unlock()

	go p.run(ctx, gen, query)
}

// Close cancels any in-flight search task. No results are published after
// Close returns.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.gen++
}

func (p *Pipeline) run(ctx context.Context, gen uint64, query string) {
	if strings.TrimSpace(query) != "" {
		timer := time.NewTimer(p.debounce)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
	}

	results := p.source.Search(ctx, query)
	for {
		select {
		case <-ctx.Done():
			return
		case snapshot, ok := <-results:
			if !ok {
				return
			}
			p.publish(gen, GroupContacts(snapshot))
		}
	}
}

func (p *Pipeline) publish(gen uint64, groups []Group) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return
	}
	for {
		select {
		case p.out <- groups:
			return
		default:
			select {
			case <-p.out:
			default:
			}
		}
	}
}
