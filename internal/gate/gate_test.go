package gate

import (
	"testing"

	"entitlement/internal/catalog"
	"entitlement/internal/domain"
)

func newGate() *Gate {
	return New(catalog.Default())
}

func TestDecideFailsClosedWhileLoading(t *testing.T) {
	g := newGate()
	// Even a status claiming to be active is ignored while loading.
	st := domain.EntitlementStatus{IsActive: true, HasSelectedPlan: true, PlanID: "business"}

	for _, route := range []string{"/", "/reports", "/billing"} {
		d := g.Decide(true, st, route)
		if d.Allow {
			t.Fatalf("route %q allowed while loading", route)
		}
		if d.Reason != ReasonLoading {
			t.Fatalf("route %q reason = %q, want loading", route, d.Reason)
		}
		if d.Redirect != "" {
			t.Fatalf("loading must not redirect, got %q", d.Redirect)
		}
	}
}

func TestDecideBillingAlwaysReachable(t *testing.T) {
	g := newGate()
	denied := domain.EntitlementStatus{} // never selected a plan

	tests := []struct {
		route string
		want  bool
	}{
		{"/billing", true},
		{"/billing/invoices", true},
		{"/subscription", true},
		{"/subscription/plans", true},
		{"/billingsummary", false}, // prefix match is per segment
		{"/reports", false},
	}
	for _, tc := range tests {
		d := g.Decide(false, denied, tc.route)
		if d.Allow != tc.want {
			t.Errorf("Decide(%q).Allow = %v, want %v", tc.route, d.Allow, tc.want)
		}
	}
}

func TestDecideTable(t *testing.T) {
	g := newGate()

	tests := []struct {
		name       string
		st         domain.EntitlementStatus
		wantAllow  bool
		wantReason Reason
	}{
		{
			name:       "never selected a plan",
			st:         domain.EntitlementStatus{PlanID: domain.PlanFree},
			wantAllow:  false,
			wantReason: ReasonNeverSelected,
		},
		{
			name:      "active paid plan",
			st:        domain.EntitlementStatus{IsActive: true, HasSelectedPlan: true, PlanID: "starter"},
			wantAllow: true,
		},
		{
			name:      "inactive but unspent trial grace window",
			st:        domain.EntitlementStatus{HasSelectedPlan: true, PlanID: "trial", IsTrial: true},
			wantAllow: true,
		},
		{
			name:       "trial spent",
			st:         domain.EntitlementStatus{HasSelectedPlan: true, PlanID: "trial", IsTrial: true, TrialUsed: true},
			wantAllow:  false,
			wantReason: ReasonTrialExhausted,
		},
		{
			name:       "expired paid plan",
			st:         domain.EntitlementStatus{HasSelectedPlan: true, PlanID: "business"},
			wantAllow:  false,
			wantReason: ReasonExpired,
		},
		{
			name:       "paid plan spent trial elsewhere",
			st:         domain.EntitlementStatus{HasSelectedPlan: true, PlanID: "starter", TrialUsed: true},
			wantAllow:  false,
			wantReason: ReasonExpired,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := g.Decide(false, tc.st, "/reports")
			if d.Allow != tc.wantAllow {
				t.Fatalf("allow = %v, want %v", d.Allow, tc.wantAllow)
			}
			if d.Reason != tc.wantReason {
				t.Fatalf("reason = %q, want %q", d.Reason, tc.wantReason)
			}
			if !d.Allow && d.Redirect != DefaultBillingRoute {
				t.Fatalf("redirect = %q, want %q", d.Redirect, DefaultBillingRoute)
			}
		})
	}
}

func TestDenyMessagesLocalized(t *testing.T) {
	d := Decision{Reason: ReasonTrialExhausted}
	en := d.Message("en")
	id := d.Message("id")
	if en == "" || id == "" {
		t.Fatal("deny reasons must carry a message in every supported locale")
	}
	if en == id {
		t.Fatal("locales should produce distinct messages")
	}
	if got := d.Message("fr"); got != id {
		t.Fatalf("unsupported locale falls back to the primary locale, got %q", got)
	}

	allow := Decision{Allow: true}
	if allow.Message("en") != "" {
		t.Fatal("an allow decision has no message")
	}
}
