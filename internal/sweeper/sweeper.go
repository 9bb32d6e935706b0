// Package sweeper is the reconciliation background process: it periodically
// scans all trial subscriptions, applies the status evaluator, and performs
// the corrective transitions idempotently. It guarantees expired trials do
// not stay "active" forever just because no client ever re-evaluated them.
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"entitlement/internal/domain"
	"entitlement/internal/evaluator"
)

// TransitionApplier is the slice of the store the sweeper writes through.
type TransitionApplier interface {
	ForceTransition(ctx context.Context, subscriptionID string, rec domain.Recommendation) error
}

// Sweeper reconciles expired trial subscriptions on a fixed period.
//
// Paid-plan expiry and overdue payments are deliberately not swept; that
// cleanup relies on the on-demand evaluation clients trigger.
type Sweeper struct {
	subs    domain.SubscriptionRepository
	ledger  domain.TrialLedgerRepository
	applier TransitionApplier
	logger  zerolog.Logger

	interval time.Duration
	now      func() time.Time

	// guards against overlapping passes; the guarded writes make an overlap
	// harmless, the lock just avoids doing the same work twice
	mu sync.Mutex
}

// New creates a sweeper. interval is the scan period; a pass also runs once
// when Run starts.
func New(subs domain.SubscriptionRepository, ledger domain.TrialLedgerRepository, applier TransitionApplier, logger zerolog.Logger, interval time.Duration) *Sweeper {
	return &Sweeper{
		subs:     subs,
		ledger:   ledger,
		applier:  applier,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("sweeper: started")
	if err := s.Sweep(ctx); err != nil {
		s.logger.Error().Err(err).Msg("sweeper: initial pass failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.logger.Error().Err(err).Msg("sweeper: pass failed")
			}
		}
	}
}

// Sweep runs a single reconciliation pass. It is safe to trigger
// concurrently: an overlapping call is skipped, and the writes themselves
// are idempotent so a re-entrant pass cannot corrupt state.
//
// Partial failure is tolerated by construction: the scan returns expired
// trials whose ledger identity is not blocked yet, so when a ledger write
// fails after the subscription was already cancelled, the next pass retries
// only the ledger write and the cancel no-ops.
func (s *Sweeper) Sweep(ctx context.Context) error {
	if !s.mu.TryLock() {
		s.logger.Debug().Msg("sweeper: pass already running, skipping")
		return nil
	}
	defer s.mu.Unlock()

	now := s.now()
	expired, err := s.subs.ListExpiredTrials(ctx, now)
	if err != nil {
		return fmt.Errorf("list expired trials: %w", err)
	}

	var cancelled, blocked, failed int
	for i := range expired {
		sub := &expired[i]
		if err := ctx.Err(); err != nil {
			return err
		}

		if _, rec := evaluator.Evaluate(sub, now); rec != domain.RecommendNone {
			err := s.applier.ForceTransition(ctx, sub.ID, rec)
			switch {
			case err == nil:
				cancelled++
			case errors.Is(err, domain.ErrPreconditionFailed):
				// another writer won the race; same outcome
			default:
				failed++
				s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("sweeper: transition failed")
				continue
			}
		}

		if err := s.ledger.Block(ctx, sub.AccountID, now); err != nil {
			failed++
			s.logger.Error().Err(err).Str("account_id", sub.AccountID).Msg("sweeper: block trial identity failed")
			continue
		}
		blocked++
	}

	s.logger.Info().
		Int("expired", len(expired)).
		Int("cancelled", cancelled).
		Int("blocked", blocked).
		Int("failed", failed).
		Msg("sweeper: pass complete")
	return nil
}
