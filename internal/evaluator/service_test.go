package evaluator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"entitlement/internal/domain"
)

type flakySubs struct {
	domain.SubscriptionRepository
	sub      *domain.Subscription
	failures int
	calls    int
}

func (f *flakySubs) GetLatestByAccount(_ context.Context, _ string) (*domain.Subscription, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, domain.ErrStoreUnavailable
	}
	if f.sub == nil {
		return nil, domain.ErrNotFound
	}
	return f.sub.Clone(), nil
}

type ledgerStub struct {
	domain.TrialLedgerRepository
	entries  map[string]*domain.TrialLedgerEntry
	blockErr error
	blocked  []string
}

func (l *ledgerStub) Block(_ context.Context, accountID string, at time.Time) error {
	if l.blockErr != nil {
		return l.blockErr
	}
	l.blocked = append(l.blocked, accountID)
	if l.entries == nil {
		l.entries = map[string]*domain.TrialLedgerEntry{}
	}
	l.entries[accountID] = &domain.TrialLedgerEntry{AccountID: accountID, Blocked: true, BlockedAt: &at}
	return nil
}

func (l *ledgerStub) GetByAccount(_ context.Context, accountID string) (*domain.TrialLedgerEntry, error) {
	entry, ok := l.entries[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return entry, nil
}

type applierStub struct {
	err     error
	applied []domain.Recommendation
}

func (a *applierStub) ForceTransition(_ context.Context, _ string, rec domain.Recommendation) error {
	if a.err != nil {
		return a.err
	}
	a.applied = append(a.applied, rec)
	return nil
}

func newTestService(subs domain.SubscriptionRepository, ledger domain.TrialLedgerRepository, applier TransitionApplier) *Service {
	s := NewService(subs, ledger, applier, zerolog.Nop())
	s.backoff = time.Millisecond
	s.now = func() time.Time { return evalNow }
	return s
}

func TestServiceRequiresAccount(t *testing.T) {
	s := newTestService(&flakySubs{}, &ledgerStub{}, &applierStub{})
	_, err := s.Evaluate(context.Background(), "")
	if !errors.Is(err, domain.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestServiceRetriesTransientFailures(t *testing.T) {
	subs := &flakySubs{sub: trialSub(evalNow.Add(5 * 24 * time.Hour)), failures: 2}
	s := newTestService(subs, &ledgerStub{}, &applierStub{})

	st, err := s.Evaluate(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !st.IsActive {
		t.Fatal("expected active status after retries")
	}
	if subs.calls != 3 {
		t.Fatalf("repository calls = %d, want 3", subs.calls)
	}
}

func TestServiceGivesUpAfterRetries(t *testing.T) {
	subs := &flakySubs{failures: 10}
	s := newTestService(subs, &ledgerStub{}, &applierStub{})

	_, err := s.Evaluate(context.Background(), "acct-1")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestServiceNoRecordIsValid(t *testing.T) {
	s := newTestService(&flakySubs{}, &ledgerStub{}, &applierStub{})
	st, err := s.Evaluate(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.HasSelectedPlan || st.IsActive {
		t.Fatal("missing record should evaluate to the free, inactive state")
	}
}

func TestServiceAppliesCorrectionAndBlocksTrial(t *testing.T) {
	subs := &flakySubs{sub: trialSub(evalNow.Add(-time.Hour))}
	ledger := &ledgerStub{}
	applier := &applierStub{}
	s := newTestService(subs, ledger, applier)

	st, err := s.Evaluate(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.IsActive {
		t.Fatal("expired trial must evaluate inactive")
	}
	if len(applier.applied) != 1 || applier.applied[0] != domain.RecommendCancelExpired {
		t.Fatalf("applied = %v, want one cancel_expired", applier.applied)
	}
	if len(ledger.blocked) != 1 || ledger.blocked[0] != "acct-1" {
		t.Fatalf("blocked = %v, want [acct-1]", ledger.blocked)
	}
	if !st.TrialUsed {
		t.Fatal("blocking the ledger must surface as TrialUsed")
	}
}

func TestServiceLostRaceCountsAsSuccess(t *testing.T) {
	subs := &flakySubs{sub: trialSub(evalNow.Add(-time.Hour))}
	ledger := &ledgerStub{}
	applier := &applierStub{err: domain.ErrPreconditionFailed}
	s := newTestService(subs, ledger, applier)

	_, err := s.Evaluate(context.Background(), "acct-1")
	if err != nil {
		t.Fatalf("losing the transition race must not fail evaluation: %v", err)
	}
	if len(ledger.blocked) != 1 {
		t.Fatalf("ledger must still be blocked after a lost race, blocked = %v", ledger.blocked)
	}
}
