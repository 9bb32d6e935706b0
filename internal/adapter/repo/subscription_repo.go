// Package repo provides the persistence implementations for the entitlement
// store: PostgreSQL-backed repositories for production and an in-memory
// variant with identical guarded-write semantics for tests.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"entitlement/internal/domain"
	"entitlement/internal/infra"
	"entitlement/internal/sqlinline"
)

// SubscriptionRepositoryPG implements domain.SubscriptionRepository backed by
// PostgreSQL. Guarded writes are expressed as conditional statements; a zero
// rows-affected count surfaces as domain.ErrPreconditionFailed.
type SubscriptionRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSubscriptionRepository creates a new SubscriptionRepositoryPG.
func NewSubscriptionRepository(sql infra.SQLExecutor) *SubscriptionRepositoryPG {
	return &SubscriptionRepositoryPG{sql: sql}
}

func (r *SubscriptionRepositoryPG) GetActiveByAccount(ctx context.Context, accountID string) (*domain.Subscription, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectActiveByAccount, accountID)
	return scanSubscription(row)
}

func (r *SubscriptionRepositoryPG) GetLatestByAccount(ctx context.Context, accountID string) (*domain.Subscription, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectLatestByAccount, accountID)
	return scanSubscription(row)
}

func (r *SubscriptionRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectSubscriptionByID, id)
	return scanSubscription(row)
}

func (r *SubscriptionRepositoryPG) InsertActive(ctx context.Context, sub *domain.Subscription) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QInsertActiveSubscription,
		sub.ID,
		sub.AccountID,
		sub.PlanID,
		sub.StartAt,
		sub.EndAt,
		sub.NextPaymentAt,
		sub.TrialEndAt,
		sub.DataRetentionEndAt,
		sub.PaymentStatus,
		sub.IsTrial,
		sub.CreatedAt,
	)
	if err != nil {
		return storeErr("insert subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPreconditionFailed
	}
	return nil
}

func (r *SubscriptionRepositoryPG) TransitionFromActive(ctx context.Context, id string, to domain.SubscriptionStatus, endAt time.Time) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QTransitionFromActive, id, to, endAt)
	if err != nil {
		return storeErr("transition subscription", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPreconditionFailed
	}
	return nil
}

func (r *SubscriptionRepositoryPG) ListExpiredTrials(ctx context.Context, now time.Time) ([]domain.Subscription, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QSelectExpiredTrials, now)
	if err != nil {
		return nil, storeErr("list expired trials", err)
	}
	defer rows.Close()

	var out []domain.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list expired trials", err)
	}
	return out, nil
}

func scanSubscription(row pgx.Row) (*domain.Subscription, error) {
	var s domain.Subscription
	err := row.Scan(
		&s.ID,
		&s.AccountID,
		&s.PlanID,
		&s.Status,
		&s.StartAt,
		&s.EndAt,
		&s.NextPaymentAt,
		&s.TrialEndAt,
		&s.DataRetentionEndAt,
		&s.PaymentStatus,
		&s.IsTrial,
		&s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("scan subscription", err)
	}
	return &s, nil
}

// storeErr classifies repository failures as transient so the evaluator and
// the sweeper retry them instead of reporting "inactive".
func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

var _ domain.SubscriptionRepository = (*SubscriptionRepositoryPG)(nil)
