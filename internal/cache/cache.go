// Package cache keeps a client-side view of one account's entitlement,
// synchronized by the live subscription feed. It is the fast path only: the
// gate may read it, but a grant decision is never made from the cache while
// it is still loading, and every (re)connect to the feed triggers one
// authoritative evaluation so stale "active" data cannot be served forever.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"entitlement/internal/domain"
	"entitlement/internal/evaluator"
	"entitlement/internal/feed"
)

// Evaluator is the authoritative, slow-path evaluation the cache refreshes
// from on every feed (re)connect.
type Evaluator interface {
	Evaluate(ctx context.Context, accountID string) (domain.EntitlementStatus, error)
}

// State is the cached view consumed by the gate.
type State struct {
	Loading bool
	Status  domain.EntitlementStatus
}

// Cache maintains the entitlement view for a single account. It never
// performs writes itself.
type Cache struct {
	accountID string
	feed      *feed.Feed
	eval      Evaluator
	logger    zerolog.Logger

	timeout time.Duration
	retry   time.Duration
	now     func() time.Time

	mu    sync.RWMutex
	state State

	watchMu sync.Mutex
	watch   *feed.Watch

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// New starts a cache for the account. The cache begins in the loading state
// until the first authoritative refresh completes. Release it with Close.
func New(accountID string, f *feed.Feed, eval Evaluator, logger zerolog.Logger) *Cache {
	c := &Cache{
		accountID: accountID,
		feed:      f,
		eval:      eval,
		logger:    logger,
		timeout:   5 * time.Second,
		retry:     3 * time.Second,
		now:       time.Now,
		state:     State{Loading: true},
		done:      make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

// Snapshot returns the current cached view.
func (c *Cache) Snapshot() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Close releases the feed watch and stops the cache. Safe to call twice;
// blocks until the consuming goroutine has exited.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.watchMu.Lock()
		if c.watch != nil {
			c.watch.Close()
		}
		c.watchMu.Unlock()
	})
	c.wg.Wait()
}

func (c *Cache) run() {
	defer c.wg.Done()
	for {
		w := c.feed.Watch(c.accountID)
		if !c.adopt(w) {
			return
		}
		// One authoritative evaluation per (re)connect keeps a reconnected
		// feed from silently serving stale "active" state.
		c.refresh()
		if !c.consume(w) {
			return
		}
		c.markLoading()
	}
}

// adopt records the watch so Close can release it; returns false when the
// cache was closed while the watch was being created.
func (c *Cache) adopt(w *feed.Watch) bool {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	select {
	case <-c.done:
		w.Close()
		return false
	default:
	}
	c.watch = w
	return true
}

// consume applies feed updates until the watch closes (reconnect needed,
// returns true) or the cache is closed (returns false).
func (c *Cache) consume(w *feed.Watch) bool {
	for {
		select {
		case <-c.done:
			w.Close()
			return false
		case sub, ok := <-w.Updates():
			if !ok {
				return true
			}
			c.applyFast(sub)
		case <-time.After(c.retry):
			if c.Snapshot().Loading {
				c.refresh()
			}
		}
	}
}

// applyFast folds a pushed update into the cached state using the pure
// evaluator. TrialUsed comes from the ledger and is only known to the
// authoritative path, so the previous value is carried over. A nil update
// means the account has no active record, not that it never selected a plan;
// the plan identity is carried over so the deny reason stays "expired".
func (c *Cache) applyFast(sub *domain.Subscription) {
	st, _ := evaluator.Evaluate(sub, c.now())
	c.mu.Lock()
	prev := c.state.Status
	st.TrialUsed = prev.TrialUsed
	if sub == nil && prev.HasSelectedPlan {
		st.HasSelectedPlan = true
		st.PlanID = prev.PlanID
		st.IsTrial = prev.IsTrial
	}
	c.state = State{Status: st}
	c.mu.Unlock()
}

// refresh runs one bounded authoritative evaluation. A failure or timeout
// keeps the cache loading; unknown state must read as "deny", never as
// "inactive but settled".
func (c *Cache) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	st, err := c.eval.Evaluate(ctx, c.accountID)
	if err != nil {
		c.logger.Warn().Err(err).Str("account_id", c.accountID).Msg("cache: authoritative refresh failed")
		c.markLoading()
		return
	}
	c.mu.Lock()
	c.state = State{Status: st}
	c.mu.Unlock()
}

func (c *Cache) markLoading() {
	c.mu.Lock()
	c.state.Loading = true
	c.mu.Unlock()
}
