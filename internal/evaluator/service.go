package evaluator

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"entitlement/internal/domain"
)

// TransitionApplier is the slice of the store the service needs to persist a
// recommended transition.
type TransitionApplier interface {
	ForceTransition(ctx context.Context, subscriptionID string, rec domain.Recommendation) error
}

// Service is the authoritative, slow-path evaluation: read the current
// record, derive status, and write back the corrective transition the
// evaluator recommends. Transient store errors are retried with backoff and
// never reach the UI as "inactive".
type Service struct {
	subs    domain.SubscriptionRepository
	ledger  domain.TrialLedgerRepository
	applier TransitionApplier
	logger  zerolog.Logger

	retries int
	backoff time.Duration
	now     func() time.Time
}

// NewService creates an evaluation service with default retry settings.
func NewService(subs domain.SubscriptionRepository, ledger domain.TrialLedgerRepository, applier TransitionApplier, logger zerolog.Logger) *Service {
	return &Service{
		subs:    subs,
		ledger:  ledger,
		applier: applier,
		logger:  logger,
		retries: 3,
		backoff: 200 * time.Millisecond,
		now:     time.Now,
	}
}

// Evaluate derives the account's entitlement status and applies any
// corrective transition. Losing the race to apply it (the sweeper or another
// client got there first) counts as success.
func (s *Service) Evaluate(ctx context.Context, accountID string) (domain.EntitlementStatus, error) {
	if accountID == "" {
		return domain.EntitlementStatus{}, domain.ErrNotAuthenticated
	}
	sub, err := s.loadCurrent(ctx, accountID)
	if err != nil {
		return domain.EntitlementStatus{}, err
	}

	now := s.now()
	st, rec := Evaluate(sub, now)
	if rec != domain.RecommendNone {
		err := s.applier.ForceTransition(ctx, sub.ID, rec)
		switch {
		case err == nil, errors.Is(err, domain.ErrPreconditionFailed):
			if sub.IsTrial && rec == domain.RecommendCancelExpired {
				// Same convergence rule as the sweeper: an expired trial
				// blocks the identity from a second trial.
				if err := s.ledger.Block(ctx, accountID, now); err != nil {
					s.logger.Warn().Err(err).Str("account_id", accountID).Msg("evaluator: block trial identity failed")
				}
			}
		default:
			// Next evaluation or the sweeper retries the transition.
			s.logger.Error().Err(err).Str("subscription_id", sub.ID).Msg("evaluator: corrective transition failed")
		}
	}

	entry, err := s.ledger.GetByAccount(ctx, accountID)
	switch {
	case err == nil:
		st.TrialUsed = entry.Blocked
	case errors.Is(err, domain.ErrNotFound):
	default:
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("evaluator: trial ledger lookup failed")
	}
	return st, nil
}

// loadCurrent fetches the account's most recent record, retrying transient
// store failures. A missing record is a valid result, not an error.
func (s *Service) loadCurrent(ctx context.Context, accountID string) (*domain.Subscription, error) {
	var last error
	for attempt := 0; attempt <= s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}
		sub, err := s.subs.GetLatestByAccount(ctx, accountID)
		switch {
		case err == nil:
			return sub, nil
		case errors.Is(err, domain.ErrNotFound):
			return nil, nil
		case errors.Is(err, domain.ErrStoreUnavailable):
			last = err
		default:
			return nil, err
		}
	}
	return nil, last
}
