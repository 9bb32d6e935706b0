// Package gate decides whether the current route is reachable for an
// account given the cached entitlement view. The gate fails closed: an
// unknown or still-loading state never grants access.
package gate

import (
	"strings"

	"entitlement/internal/catalog"
	"entitlement/internal/domain"
)

// Reason explains a deny decision.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonLoading        Reason = "loading"
	ReasonNeverSelected  Reason = "never_selected"
	ReasonTrialExhausted Reason = "trial_exhausted"
	ReasonExpired        Reason = "expired"
)

// Decision is the gate's verdict for one route check.
type Decision struct {
	Allow    bool   `json:"allow"`
	Redirect string `json:"redirect,omitempty"`
	Reason   Reason `json:"reason,omitempty"`
}

// DefaultBillingRoute is where denied accounts are sent to pick a plan.
const DefaultBillingRoute = "/billing"

var billingRoutes = []string{"/billing", "/subscription"}

// Gate evaluates the access decision table.
type Gate struct {
	catalog      *catalog.Catalog
	billingRoute string
}

// New creates a gate over the given plan catalog.
func New(cat *catalog.Catalog) *Gate {
	return &Gate{catalog: cat, billingRoute: DefaultBillingRoute}
}

// Decide applies the decision table:
//
//   - still loading: deny, no redirect (fail closed)
//   - billing routes: always reachable so a denied account can recover
//   - active entitlement or an unspent trial grace window: allow
//   - otherwise: deny with a reason and a redirect to billing
func (g *Gate) Decide(loading bool, st domain.EntitlementStatus, route string) Decision {
	if loading {
		return Decision{Reason: ReasonLoading}
	}
	if isBillingRoute(route) {
		return Decision{Allow: true}
	}
	if st.IsActive || g.inTrialGraceWindow(st) {
		return Decision{Allow: true}
	}
	return Decision{Redirect: g.billingRoute, Reason: denyReason(st)}
}

// inTrialGraceWindow reports whether the account sits on a trial-granting
// plan whose free trial has not been spent yet.
func (g *Gate) inTrialGraceWindow(st domain.EntitlementStatus) bool {
	return st.HasSelectedPlan && g.catalog.TrialAllowed(st.PlanID) && !st.TrialUsed
}

func denyReason(st domain.EntitlementStatus) Reason {
	switch {
	case !st.HasSelectedPlan:
		return ReasonNeverSelected
	case st.IsTrial && st.TrialUsed:
		return ReasonTrialExhausted
	default:
		return ReasonExpired
	}
}

func isBillingRoute(route string) bool {
	for _, prefix := range billingRoutes {
		if route == prefix || strings.HasPrefix(route, prefix+"/") {
			return true
		}
	}
	return false
}
