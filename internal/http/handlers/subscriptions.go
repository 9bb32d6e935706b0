package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"entitlement/internal/domain"
	"entitlement/internal/middleware"
	"entitlement/internal/store"
)

type subscribeRequest struct {
	PlanID string `json:"plan_id"`

	// NextPaymentAt arrives from the payment collaborator in whatever shape
	// its provider uses (RFC 3339 string, unix seconds or milliseconds); it
	// is normalized once here at the boundary.
	NextPaymentAt any `json:"next_payment_at,omitempty"`
}

type subscriptionPayload struct {
	ID                 string     `json:"id"`
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	StartAt            time.Time  `json:"start_at"`
	EndAt              time.Time  `json:"end_at"`
	NextPaymentAt      time.Time  `json:"next_payment_at"`
	TrialEndAt         *time.Time `json:"trial_end_at,omitempty"`
	DataRetentionEndAt time.Time  `json:"data_retention_end_at"`
	PaymentStatus      string     `json:"payment_status"`
	IsTrial            bool       `json:"is_trial"`
	CreatedAt          time.Time  `json:"created_at"`
}

func toSubscriptionPayload(s *domain.Subscription) *subscriptionPayload {
	if s == nil {
		return nil
	}
	return &subscriptionPayload{
		ID:                 s.ID,
		PlanID:             s.PlanID,
		Status:             string(s.Status),
		StartAt:            s.StartAt,
		EndAt:              s.EndAt,
		NextPaymentAt:      s.NextPaymentAt,
		TrialEndAt:         s.TrialEndAt,
		DataRetentionEndAt: s.DataRetentionEndAt,
		PaymentStatus:      string(s.PaymentStatus),
		IsTrial:            s.IsTrial,
		CreatedAt:          s.CreatedAt,
	}
}

// Subscribe grants the authenticated account the requested plan, replacing
// its current grant. Losing the replace race to a concurrent writer is not
// an error: the record that won is returned instead.
func (a *App) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		a.error(w, r, domain.ErrNotAuthenticated)
		return
	}

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.json(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	params := store.GrantParams{
		AccountID: claims.Sub,
		PlanID:    req.PlanID,
		Identity:  domain.NewTrialIdentity(claims.Email, claims.Phone),
	}
	if req.NextPaymentAt != nil {
		at, ok := domain.ToInstant(req.NextPaymentAt)
		if !ok {
			a.json(w, http.StatusBadRequest, map[string]string{"error": "invalid next_payment_at"})
			return
		}
		params.NextPaymentAt = &at
	}

	sub, err := a.Store.Subscribe(r.Context(), params)
	if errors.Is(err, domain.ErrPreconditionFailed) {
		current, getErr := a.Subs.GetActiveByAccount(r.Context(), claims.Sub)
		if getErr != nil {
			a.error(w, r, getErr)
			return
		}
		a.json(w, http.StatusOK, map[string]any{"subscription": toSubscriptionPayload(current)})
		return
	}
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, map[string]any{"subscription": toSubscriptionPayload(sub)})
}

// CancelCurrent retires the account's active grant. Cancelling when nothing
// is active succeeds without effect.
func (a *App) CancelCurrent(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		a.error(w, r, domain.ErrNotAuthenticated)
		return
	}
	if err := a.Store.Cancel(r.Context(), accountID); err != nil {
		a.error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
