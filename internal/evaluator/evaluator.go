// Package evaluator derives an account's entitlement status from its current
// subscription record. The core Evaluate function is pure; the Service wraps
// it with the authoritative read-evaluate-correct path.
package evaluator

import (
	"time"

	"entitlement/internal/domain"
)

// Evaluate derives the entitlement status for the given record at the given
// instant, plus the corrective transition it recommends. It is deterministic
// and side-effect free: the caller decides whether to apply the
// recommendation.
//
// A recommendation is only ever produced for a record that is still active;
// transitions on superseded records would be guaranteed no-ops anyway.
func Evaluate(sub *domain.Subscription, now time.Time) (domain.EntitlementStatus, domain.Recommendation) {
	if sub == nil {
		return domain.EntitlementStatus{PlanID: domain.PlanFree}, domain.RecommendNone
	}

	st := domain.EntitlementStatus{
		PlanID:             sub.PlanID,
		HasSelectedPlan:    true,
		EndAt:              sub.EndAt,
		NextPaymentAt:      sub.NextPaymentAt,
		IsTrial:            sub.IsTrial,
		TrialEndAt:         sub.TrialEndAt,
		DataRetentionEndAt: sub.DataRetentionEndAt,
	}
	if !sub.DataRetentionEndAt.IsZero() && sub.DataRetentionEndAt.Before(now) {
		st.DataRetentionExpired = true
	}

	rec := domain.RecommendNone
	switch {
	case sub.EndAt.Before(now):
		if sub.Active() {
			rec = domain.RecommendCancelExpired
		}
	case sub.PaymentStatus == domain.PaymentOverdue:
		if sub.Active() {
			rec = domain.RecommendCancelOverdue
		}
	default:
		st.IsActive = sub.Active()
		if st.IsActive && sub.IsTrial && sub.TrialEndAt != nil {
			st.DaysUntilTrialEnd = DaysUntil(now, *sub.TrialEndAt)
		}
	}
	return st, rec
}

// DaysUntil counts whole days from now until t, rounding partial days up.
// Both the evaluator and the sweeper use this so repeated calls within the
// same day never flap between adjacent day counts.
func DaysUntil(now, t time.Time) int {
	d := t.Sub(now)
	if d <= 0 {
		return 0
	}
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		days++
	}
	return days
}
