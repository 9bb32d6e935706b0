package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entitlement/internal/domain"
)

func sub(id string) *domain.Subscription {
	return &domain.Subscription{ID: id, AccountID: "acct-1", Status: domain.SubscriptionActive}
}

func receive(t *testing.T, w *Watch) *domain.Subscription {
	t.Helper()
	select {
	case got, ok := <-w.Updates():
		require.True(t, ok, "watch closed unexpectedly")
		return got
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
		return nil
	}
}

func TestPublishReachesWatcher(t *testing.T) {
	f := New()
	w := f.Watch("acct-1")
	defer w.Close()

	f.Publish("acct-1", sub("s1"))
	got := receive(t, w)
	require.NotNil(t, got)
	assert.Equal(t, "s1", got.ID)

	f.Publish("acct-1", nil)
	assert.Nil(t, receive(t, w), "a nil view signals no active grant")
}

func TestPublishIsScopedToAccount(t *testing.T) {
	f := New()
	w := f.Watch("acct-2")
	defer w.Close()

	f.Publish("acct-1", sub("s1"))
	select {
	case got := <-w.Updates():
		t.Fatalf("unexpected delivery: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishDeliversClones(t *testing.T) {
	f := New()
	a := f.Watch("acct-1")
	defer a.Close()
	b := f.Watch("acct-1")
	defer b.Close()

	original := sub("s1")
	f.Publish("acct-1", original)

	gotA := receive(t, a)
	gotB := receive(t, b)
	require.NotSame(t, original, gotA)
	require.NotSame(t, gotA, gotB)

	gotA.PlanID = "mutated"
	assert.NotEqual(t, "mutated", gotB.PlanID, "watchers must not share memory")
}

func TestSlowWatcherKeepsLatest(t *testing.T) {
	f := New()
	w := f.Watch("acct-1")
	defer w.Close()

	// Overflow the buffer; the oldest updates are dropped, never the last.
	for i := 0; i < watchBuffer+5; i++ {
		f.Publish("acct-1", sub(string(rune('a'+i))))
	}

	var last *domain.Subscription
	for {
		select {
		case got := <-w.Updates():
			last = got
			continue
		default:
		}
		break
	}
	require.NotNil(t, last)
	assert.Equal(t, string(rune('a'+watchBuffer+4)), last.ID)
}

func TestNoDeliveryAfterClose(t *testing.T) {
	f := New()
	w := f.Watch("acct-1")
	w.Close()
	w.Close() // closing twice is safe

	assert.NotPanics(t, func() {
		f.Publish("acct-1", sub("s1"))
	})

	_, ok := <-w.Updates()
	assert.False(t, ok, "channel must be closed and drained")
}

func TestShutdownClosesAllWatches(t *testing.T) {
	f := New()
	a := f.Watch("acct-1")
	b := f.Watch("acct-2")

	f.Shutdown()

	_, okA := <-a.Updates()
	_, okB := <-b.Updates()
	assert.False(t, okA)
	assert.False(t, okB)

	// The feed stays usable after shutdown.
	c := f.Watch("acct-1")
	defer c.Close()
	f.Publish("acct-1", sub("s2"))
	got := receive(t, c)
	assert.Equal(t, "s2", got.ID)
}
