package handlers

import (
	"context"
	"errors"
	"net/http"

	"entitlement/internal/domain"
	"entitlement/internal/gate"
	"entitlement/internal/middleware"
)

// Entitlement runs the authoritative evaluation for the caller, applying any
// corrective transition as a side effect.
func (a *App) Entitlement(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		a.error(w, r, domain.ErrNotAuthenticated)
		return
	}
	st, err := a.Evaluator.Evaluate(r.Context(), accountID)
	if err != nil {
		a.error(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

type decisionPayload struct {
	gate.Decision
	Message string `json:"message,omitempty"`
}

// Decision evaluates the caller and runs the access gate for the requested
// route. A store outage reads as "still loading": denied without a verdict,
// never reported as inactive.
func (a *App) Decision(w http.ResponseWriter, r *http.Request) {
	accountID := middleware.AccountIDFromContext(r.Context())
	if accountID == "" {
		a.error(w, r, domain.ErrNotAuthenticated)
		return
	}
	route := r.URL.Query().Get("route")
	if route == "" {
		route = "/"
	}
	locale := middleware.LocaleFromContext(r.Context())

	st, err := a.Evaluator.Evaluate(r.Context(), accountID)
	if err != nil {
		if errors.Is(err, domain.ErrStoreUnavailable) || errors.Is(err, context.DeadlineExceeded) {
			d := a.Gate.Decide(true, domain.EntitlementStatus{}, route)
			a.json(w, http.StatusServiceUnavailable, decisionPayload{Decision: d})
			return
		}
		a.error(w, r, err)
		return
	}

	d := a.Gate.Decide(false, st, route)
	a.json(w, http.StatusOK, decisionPayload{Decision: d, Message: d.Message(locale)})
}
