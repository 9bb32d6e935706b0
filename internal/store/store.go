// Package store implements the subscription write rules: replace-on-change
// subscribe, idempotent cancel, and the guarded force-transition shared by
// the on-demand evaluator and the sweeper. There is no lock across writers;
// every mutation carries a precondition so concurrent execution degrades to
// safe no-ops.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"entitlement/internal/catalog"
	"entitlement/internal/domain"
)

const (
	// trial grants and first payments on paid plans share a 15-day window
	trialWindow        = 15 * 24 * time.Hour
	firstPaymentWindow = 15 * 24 * time.Hour
	paidTerm           = 30 * 24 * time.Hour

	// grace period after a grant ends during which account data is preserved
	retentionWindow = 30 * 24 * time.Hour
)

// Feed receives the account's active-subscription view after every write.
// A nil subscription means the account no longer has an active grant.
type Feed interface {
	Publish(accountID string, sub *domain.Subscription)
}

// GrantParams describes a subscribe request.
type GrantParams struct {
	AccountID string
	PlanID    string
	Identity  domain.TrialIdentity

	// NextPaymentAt optionally carries the first-payment time confirmed by
	// the payment collaborator; when nil the plan default window applies.
	NextPaymentAt *time.Time
}

// Store applies guarded writes against the subscription repositories.
type Store struct {
	subs    domain.SubscriptionRepository
	ledger  domain.TrialLedgerRepository
	catalog *catalog.Catalog
	feed    Feed
	logger  zerolog.Logger
	now     func() time.Time
}

// New creates a Store. feed may be nil when no live consumers exist.
func New(subs domain.SubscriptionRepository, ledger domain.TrialLedgerRepository, cat *catalog.Catalog, feed Feed, logger zerolog.Logger) *Store {
	return &Store{
		subs:    subs,
		ledger:  ledger,
		catalog: cat,
		feed:    feed,
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe grants the account a new active subscription, retiring the
// current active grant first (replace-on-change). Trial plans are rejected
// with ErrTrialExhausted before any write when the identity already spent its
// trial. If another writer changes the active record underneath the caller
// the insert aborts with ErrPreconditionFailed and nothing is written.
func (s *Store) Subscribe(ctx context.Context, p GrantParams) (*domain.Subscription, error) {
	if p.AccountID == "" {
		return nil, domain.ErrNotAuthenticated
	}
	plan, err := s.catalog.Lookup(p.PlanID)
	if err != nil {
		return nil, err
	}
	if plan.Trial {
		blocked, err := s.ledger.IsBlocked(ctx, p.Identity.Email, p.Identity.Phone)
		if err != nil {
			return nil, fmt.Errorf("trial guard: %w", err)
		}
		if blocked {
			return nil, domain.ErrTrialExhausted
		}
	}

	now := s.now()
	current, err := s.subs.GetActiveByAccount(ctx, p.AccountID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	if current != nil {
		err := s.subs.TransitionFromActive(ctx, current.ID, domain.SubscriptionCancelled, now)
		if err != nil && !errors.Is(err, domain.ErrPreconditionFailed) {
			return nil, err
		}
		// A precondition failure means another writer already retired the
		// record; the guarded insert below decides whether we still win.
	}

	sub := s.newGrant(p.AccountID, plan, now, p.NextPaymentAt)
	if err := s.subs.InsertActive(ctx, sub); err != nil {
		return nil, err
	}
	if plan.Trial {
		entry := &domain.TrialLedgerEntry{
			AccountID: p.AccountID,
			Email:     p.Identity.Email,
			Phone:     p.Identity.Phone,
			CreatedAt: now,
		}
		if err := s.ledger.Record(ctx, entry); err != nil {
			// The grant stands; the sweeper blocks the identity on expiry.
			s.logger.Error().Err(err).Str("account_id", p.AccountID).Msg("store: record trial identity failed")
		}
	}
	s.publish(p.AccountID, sub)
	return sub, nil
}

// Cancel retires the account's active grant. Cancelling an account without an
// active grant is a no-op, not an error.
func (s *Store) Cancel(ctx context.Context, accountID string) error {
	if accountID == "" {
		return domain.ErrNotAuthenticated
	}
	current, err := s.subs.GetActiveByAccount(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	err = s.subs.TransitionFromActive(ctx, current.ID, domain.SubscriptionCancelled, s.now())
	if errors.Is(err, domain.ErrPreconditionFailed) {
		return nil
	}
	if err != nil {
		return err
	}
	s.publish(accountID, nil)
	return nil
}

// ForceTransition applies a corrective recommendation to a record. Both the
// on-demand evaluator and the sweeper may race to apply the same
// recommendation; whichever write lands first wins and the loser gets
// ErrPreconditionFailed, which callers treat as success.
func (s *Store) ForceTransition(ctx context.Context, subscriptionID string, rec domain.Recommendation) error {
	if rec == domain.RecommendNone {
		return nil
	}
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	now := s.now()
	endAt := now
	if rec == domain.RecommendCancelExpired && sub.EndAt.Before(now) {
		// The grant already ended; keep its original hard stop.
		endAt = sub.EndAt
	}
	if err := s.subs.TransitionFromActive(ctx, sub.ID, domain.SubscriptionCancelled, endAt); err != nil {
		return err
	}
	s.publish(sub.AccountID, nil)
	return nil
}

func (s *Store) newGrant(accountID string, plan domain.Plan, now time.Time, nextPayment *time.Time) *domain.Subscription {
	sub := &domain.Subscription{
		ID:            uuid.NewString(),
		AccountID:     accountID,
		PlanID:        plan.ID,
		Status:        domain.SubscriptionActive,
		StartAt:       now,
		PaymentStatus: domain.PaymentPaid,
		IsTrial:       plan.Trial,
		CreatedAt:     now,
	}
	if plan.Trial {
		trialEnd := now.Add(trialWindow)
		sub.EndAt = trialEnd
		sub.NextPaymentAt = trialEnd
		sub.TrialEndAt = &trialEnd
	} else {
		sub.EndAt = now.Add(paidTerm)
		sub.NextPaymentAt = now.Add(firstPaymentWindow)
		if nextPayment != nil {
			sub.NextPaymentAt = *nextPayment
		}
	}
	sub.DataRetentionEndAt = sub.EndAt.Add(retentionWindow)
	return sub
}

func (s *Store) publish(accountID string, sub *domain.Subscription) {
	if s.feed == nil {
		return
	}
	s.feed.Publish(accountID, sub.Clone())
}
