package repo

import (
	"context"
	"sync"
	"time"

	"entitlement/internal/domain"
)

// Memory implements both repositories in process with the exact guarded
// semantics of the PostgreSQL implementation. It backs tests and local
// development; the concurrency tests for the write rules run against it.
type Memory struct {
	mu     sync.RWMutex
	subs   map[string]*domain.Subscription
	order  []string // insertion order of subscription ids
	ledger map[string]*domain.TrialLedgerEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		subs:   make(map[string]*domain.Subscription),
		ledger: make(map[string]*domain.TrialLedgerEntry),
	}
}

func (m *Memory) GetActiveByAccount(_ context.Context, accountID string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		sub := m.subs[m.order[i]]
		if sub.AccountID == accountID && sub.Status == domain.SubscriptionActive {
			return sub.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) GetLatestByAccount(_ context.Context, accountID string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.order) - 1; i >= 0; i-- {
		sub := m.subs[m.order[i]]
		if sub.AccountID == accountID {
			return sub.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *Memory) GetByID(_ context.Context, id string) (*domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sub, ok := m.subs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sub.Clone(), nil
}

func (m *Memory) InsertActive(_ context.Context, sub *domain.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.subs {
		if existing.AccountID == sub.AccountID && existing.Status == domain.SubscriptionActive {
			return domain.ErrPreconditionFailed
		}
	}
	m.subs[sub.ID] = sub.Clone()
	m.order = append(m.order, sub.ID)
	return nil
}

func (m *Memory) TransitionFromActive(_ context.Context, id string, to domain.SubscriptionStatus, endAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[id]
	if !ok {
		return domain.ErrNotFound
	}
	if sub.Status != domain.SubscriptionActive {
		return domain.ErrPreconditionFailed
	}
	sub.Status = to
	sub.EndAt = endAt
	return nil
}

func (m *Memory) ListExpiredTrials(_ context.Context, now time.Time) ([]domain.Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Subscription
	for _, id := range m.order {
		sub := m.subs[id]
		if !sub.IsTrial || !sub.EndAt.Before(now) {
			continue
		}
		if entry, ok := m.ledger[sub.AccountID]; ok && entry.Blocked {
			continue
		}
		out = append(out, *sub.Clone())
	}
	return out, nil
}

func (m *Memory) IsBlocked(_ context.Context, email, phone string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.ledger {
		if !entry.Blocked {
			continue
		}
		if email != "" && entry.Email == email {
			return true, nil
		}
		if phone != "" && entry.Phone == phone {
			return true, nil
		}
	}
	return false, nil
}

func (m *Memory) Record(_ context.Context, entry *domain.TrialLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ledger[entry.AccountID]; ok {
		return nil
	}
	clone := *entry
	m.ledger[entry.AccountID] = &clone
	return nil
}

func (m *Memory) Block(_ context.Context, accountID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.ledger[accountID]
	if !ok {
		// The identity record was lost at grant time; keep at least the
		// account blocked so the sweep converges instead of retrying forever.
		entry = &domain.TrialLedgerEntry{AccountID: accountID, CreatedAt: at}
		m.ledger[accountID] = entry
	}
	if !entry.Blocked {
		entry.Blocked = true
		entry.BlockedAt = &at
	}
	return nil
}

func (m *Memory) GetByAccount(_ context.Context, accountID string) (*domain.TrialLedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.ledger[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := *entry
	if entry.BlockedAt != nil {
		t := *entry.BlockedAt
		clone.BlockedAt = &t
	}
	return &clone, nil
}

var (
	_ domain.SubscriptionRepository = (*Memory)(nil)
	_ domain.TrialLedgerRepository  = (*Memory)(nil)
)
