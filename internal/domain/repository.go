package domain

import (
	"context"
	"time"
)

// SubscriptionRepository defines persistence for subscription grants.
//
// Writes are guarded: they carry a precondition on the currently stored state
// and fail with ErrPreconditionFailed when another writer got there first.
// Callers treat that as a benign no-op, never as a user-visible error.
type SubscriptionRepository interface {
	// GetActiveByAccount returns the account's active record, or ErrNotFound.
	GetActiveByAccount(ctx context.Context, accountID string) (*Subscription, error)

	// GetLatestByAccount returns the account's most recently created record
	// regardless of status, or ErrNotFound.
	GetLatestByAccount(ctx context.Context, accountID string) (*Subscription, error)

	// GetByID returns a record by id, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Subscription, error)

	// InsertActive stores a new active record. The insert succeeds only while
	// no other active record exists for the account; otherwise it returns
	// ErrPreconditionFailed and writes nothing.
	InsertActive(ctx context.Context, sub *Subscription) error

	// TransitionFromActive moves a record out of the active status, setting
	// endAt. It returns ErrPreconditionFailed when the record is no longer
	// active, which makes concurrent transitions converge to a single winner.
	TransitionFromActive(ctx context.Context, id string, to SubscriptionStatus, endAt time.Time) error

	// ListExpiredTrials returns trial grants whose end time has passed and
	// whose ledger identity has not been blocked yet. The ledger condition is
	// what lets a failed ledger write be retried on the next sweep while the
	// already-applied cancel stays a no-op.
	ListExpiredTrials(ctx context.Context, now time.Time) ([]Subscription, error)
}

// TrialLedgerRepository defines persistence for spent-trial identities.
type TrialLedgerRepository interface {
	// IsBlocked reports whether either identity value has a blocked entry.
	IsBlocked(ctx context.Context, email, phone string) (bool, error)

	// Record appends an entry for a freshly granted trial. Recording the same
	// account twice is a no-op.
	Record(ctx context.Context, entry *TrialLedgerEntry) error

	// Block marks the account's entry as blocked. Blocking twice is a no-op;
	// blocked entries are never unblocked here.
	Block(ctx context.Context, accountID string, at time.Time) error

	// GetByAccount returns the account's entry, or ErrNotFound.
	GetByAccount(ctx context.Context, accountID string) (*TrialLedgerEntry, error)
}
