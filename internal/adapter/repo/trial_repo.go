package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"entitlement/internal/domain"
	"entitlement/internal/infra"
	"entitlement/internal/sqlinline"
)

// TrialLedgerRepositoryPG implements domain.TrialLedgerRepository backed by
// PostgreSQL. The ledger is append-only; blocking is an idempotent upsert so
// sweeper retries and racing evaluators converge on the same row.
type TrialLedgerRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewTrialLedgerRepository creates a new TrialLedgerRepositoryPG.
func NewTrialLedgerRepository(sql infra.SQLExecutor) *TrialLedgerRepositoryPG {
	return &TrialLedgerRepositoryPG{sql: sql}
}

func (r *TrialLedgerRepositoryPG) IsBlocked(ctx context.Context, email, phone string) (bool, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectIdentityBlocked, email, phone)
	var blocked bool
	if err := row.Scan(&blocked); err != nil {
		return false, storeErr("trial ledger lookup", err)
	}
	return blocked, nil
}

func (r *TrialLedgerRepositoryPG) Record(ctx context.Context, entry *domain.TrialLedgerEntry) error {
	_, err := r.sql.Exec(ctx, sqlinline.QRecordTrialIdentity,
		entry.AccountID,
		entry.Email,
		entry.Phone,
		entry.CreatedAt,
	)
	if err != nil {
		return storeErr("record trial identity", err)
	}
	return nil
}

func (r *TrialLedgerRepositoryPG) Block(ctx context.Context, accountID string, at time.Time) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QBlockTrialIdentity, accountID, at); err != nil {
		return storeErr("block trial identity", err)
	}
	return nil
}

func (r *TrialLedgerRepositoryPG) GetByAccount(ctx context.Context, accountID string) (*domain.TrialLedgerEntry, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectLedgerByAccount, accountID)
	var e domain.TrialLedgerEntry
	err := row.Scan(&e.AccountID, &e.Email, &e.Phone, &e.Blocked, &e.BlockedAt, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("scan trial ledger", err)
	}
	return &e, nil
}

var _ domain.TrialLedgerRepository = (*TrialLedgerRepositoryPG)(nil)
