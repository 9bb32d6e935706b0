package domain

import "time"

// Recommendation is the corrective transition suggested by the status
// evaluator. The caller decides whether to apply it.
type Recommendation string

const (
	RecommendNone          Recommendation = ""
	RecommendCancelExpired Recommendation = "cancel_expired"
	RecommendCancelOverdue Recommendation = "cancel_overdue"
)

// EntitlementStatus is the derived view of an account's right to use the
// product right now. It is recomputed on every evaluation and never persisted;
// only the transitions it triggers are.
type EntitlementStatus struct {
	IsActive             bool       `json:"is_active"`
	PlanID               string     `json:"plan_id"`
	HasSelectedPlan      bool       `json:"has_selected_plan"`
	EndAt                time.Time  `json:"end_at,omitzero"`
	NextPaymentAt        time.Time  `json:"next_payment_at,omitzero"`
	IsTrial              bool       `json:"is_trial"`
	TrialEndAt           *time.Time `json:"trial_end_at,omitempty"`
	DaysUntilTrialEnd    int        `json:"days_until_trial_end"`
	DataRetentionEndAt   time.Time  `json:"data_retention_end_at,omitzero"`
	DataRetentionExpired bool       `json:"data_retention_expired"`

	// TrialUsed reports whether the account's identity has spent its free
	// trial. Filled from the trial ledger on authoritative evaluations.
	TrialUsed bool `json:"trial_used"`
}
