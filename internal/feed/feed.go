// Package feed is the live subscription feed: every store write publishes
// the account's resulting active-subscription view to its watchers. It
// favors low-latency delivery over completeness; a lagging consumer loses
// intermediate updates, never the latest one.
package feed

import (
	"sync"

	"entitlement/internal/domain"
)

const watchBuffer = 8

// Feed fans subscription updates out to per-account watchers.
type Feed struct {
	mu       sync.Mutex
	watchers map[string]map[*Watch]struct{}
}

// New creates an empty feed.
func New() *Feed {
	return &Feed{watchers: make(map[string]map[*Watch]struct{})}
}

// Watch registers a watcher for one account. The caller owns the returned
// handle and must release it with Close exactly once.
func (f *Feed) Watch(accountID string) *Watch {
	w := &Watch{
		feed:      f,
		accountID: accountID,
		ch:        make(chan *domain.Subscription, watchBuffer),
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.watchers[accountID]
	if set == nil {
		set = make(map[*Watch]struct{})
		f.watchers[accountID] = set
	}
	set[w] = struct{}{}
	return w
}

// Publish delivers the account's current active subscription (nil when the
// account no longer has one) to all of its watchers. When a watcher's buffer
// is full the oldest update is dropped so the latest always lands.
func (f *Feed) Publish(accountID string, sub *domain.Subscription) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for w := range f.watchers[accountID] {
		update := sub.Clone()
		select {
		case w.ch <- update:
		default:
			select {
			case <-w.ch:
			default:
			}
			select {
			case w.ch <- update:
			default:
			}
		}
	}
}

// Shutdown releases every registered watcher. The feed stays usable; new
// watches after Shutdown behave normally.
func (f *Feed) Shutdown() {
	f.mu.Lock()
	var all []*Watch
	for _, set := range f.watchers {
		for w := range set {
			all = append(all, w)
		}
	}
	f.mu.Unlock()
	for _, w := range all {
		w.Close()
	}
}

// Watch is an owned handle on one account's update stream.
type Watch struct {
	feed      *Feed
	accountID string
	ch        chan *domain.Subscription
	once      sync.Once
}

// Updates returns the stream of active-subscription views. The channel is
// closed when the watch is released.
func (w *Watch) Updates() <-chan *domain.Subscription {
	return w.ch
}

// Close releases the watch. It is synchronous: once Close returns no further
// update is delivered. Closing twice is safe.
func (w *Watch) Close() {
	w.once.Do(func() {
		w.feed.mu.Lock()
		if set, ok := w.feed.watchers[w.accountID]; ok {
			delete(set, w)
			if len(set) == 0 {
				delete(w.feed.watchers, w.accountID)
			}
		}
		close(w.ch)
		w.feed.mu.Unlock()
	})
}
