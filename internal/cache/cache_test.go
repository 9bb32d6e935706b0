package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement/internal/domain"
	"entitlement/internal/feed"
)

type evalStub struct {
	mu     sync.Mutex
	status domain.EntitlementStatus
	err    error
	calls  int
}

func (e *evalStub) Evaluate(_ context.Context, _ string) (domain.EntitlementStatus, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	return e.status, e.err
}

func (e *evalStub) set(status domain.EntitlementStatus, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.status, e.err = status, err
}

func (e *evalStub) callCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

func newTestCache(f *feed.Feed, eval Evaluator) *Cache {
	c := &Cache{
		accountID: "acct-1",
		feed:      f,
		eval:      eval,
		logger:    zerolog.Nop(),
		timeout:   time.Second,
		retry:     20 * time.Millisecond,
		now:       time.Now,
		state:     State{Loading: true},
		done:      make(chan struct{}),
	}
	c.wg.Add(1)
	go c.run()
	return c
}

func activeStatus() domain.EntitlementStatus {
	return domain.EntitlementStatus{
		IsActive:        true,
		PlanID:          "starter",
		HasSelectedPlan: true,
	}
}

func TestCacheSettlesAfterRefresh(t *testing.T) {
	f := feed.New()
	eval := &evalStub{status: activeStatus()}
	c := newTestCache(f, eval)
	defer c.Close()

	require.Eventually(t, func() bool {
		return !c.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "starter", c.Snapshot().Status.PlanID)
}

func TestCacheStaysLoadingWhileRefreshFails(t *testing.T) {
	f := feed.New()
	eval := &evalStub{err: domain.ErrStoreUnavailable}
	c := newTestCache(f, eval)
	defer c.Close()

	require.Eventually(t, func() bool {
		return eval.callCount() >= 1
	}, time.Second, 5*time.Millisecond)
	assert.True(t, c.Snapshot().Loading, "a failed refresh must read as loading, never as inactive")

	// Once the authority recovers the retry loop settles the cache.
	eval.set(activeStatus(), nil)
	require.Eventually(t, func() bool {
		return !c.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)
}

func TestCacheFastPathCarriesTrialUsed(t *testing.T) {
	f := feed.New()
	st := activeStatus()
	st.TrialUsed = true
	eval := &evalStub{status: st}
	c := newTestCache(f, eval)
	defer c.Close()

	require.Eventually(t, func() bool {
		return !c.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	// A pushed update has no ledger knowledge; the cached TrialUsed survives.
	end := time.Now().Add(24 * time.Hour)
	f.Publish("acct-1", &domain.Subscription{
		ID:        "s2",
		AccountID: "acct-1",
		PlanID:    "business",
		Status:    domain.SubscriptionActive,
		EndAt:     end,
	})

	require.Eventually(t, func() bool {
		return c.Snapshot().Status.PlanID == "business"
	}, time.Second, 5*time.Millisecond)
	snap := c.Snapshot()
	assert.True(t, snap.Status.TrialUsed)
	assert.True(t, snap.Status.IsActive)
}

func TestCacheFastPathKeepsPlanIdentityOnRetirement(t *testing.T) {
	f := feed.New()
	st := activeStatus()
	st.IsTrial = true
	st.PlanID = "trial"
	eval := &evalStub{status: st}
	c := newTestCache(f, eval)
	defer c.Close()

	require.Eventually(t, func() bool {
		return !c.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)

	// A nil update means the active record was retired, not that the account
	// never selected a plan.
	f.Publish("acct-1", nil)

	require.Eventually(t, func() bool {
		return !c.Snapshot().Status.IsActive
	}, time.Second, 5*time.Millisecond)
	snap := c.Snapshot()
	assert.True(t, snap.Status.HasSelectedPlan)
	assert.Equal(t, "trial", snap.Status.PlanID)
	assert.True(t, snap.Status.IsTrial)
}

func TestCacheRefreshesOnReconnect(t *testing.T) {
	f := feed.New()
	eval := &evalStub{status: activeStatus()}
	c := newTestCache(f, eval)
	defer c.Close()

	require.Eventually(t, func() bool {
		return eval.callCount() >= 1
	}, time.Second, 5*time.Millisecond)

	// Dropping the watch forces a reconnect, and every reconnect runs one
	// authoritative refresh.
	f.Shutdown()
	require.Eventually(t, func() bool {
		return eval.callCount() >= 2
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return !c.Snapshot().Loading
	}, time.Second, 5*time.Millisecond)
}

func TestCacheCloseIsIdempotent(t *testing.T) {
	f := feed.New()
	eval := &evalStub{status: activeStatus()}
	c := newTestCache(f, eval)

	c.Close()
	assert.NotPanics(t, c.Close)

	// Snapshot stays readable after close.
	_ = c.Snapshot()
}
