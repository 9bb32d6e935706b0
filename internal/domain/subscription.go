package domain

import "time"

// SubscriptionStatus enumerates subscription lifecycle states.
type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

// PaymentStatus enumerates payment standing for a grant.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentOverdue PaymentStatus = "overdue"
)

// Subscription represents one entitlement grant for an account.
//
// For a given account at most one record is active once all writers have
// converged; a temporary duplicate produced by a race self-heals within one
// reconciliation pass. Superseded records are never deleted.
type Subscription struct {
	ID                 string
	AccountID          string
	PlanID             string
	Status             SubscriptionStatus
	StartAt            time.Time
	EndAt              time.Time
	NextPaymentAt      time.Time
	TrialEndAt         *time.Time
	DataRetentionEndAt time.Time
	PaymentStatus      PaymentStatus
	IsTrial            bool
	CreatedAt          time.Time
}

// Active reports whether the record currently carries the active status.
func (s *Subscription) Active() bool {
	return s != nil && s.Status == SubscriptionActive
}

// Clone returns a deep copy so feed consumers cannot mutate stored state.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	out := *s
	if s.TrialEndAt != nil {
		t := *s.TrialEndAt
		out.TrialEndAt = &t
	}
	return &out
}
