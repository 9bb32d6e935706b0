package catalog

import (
	"errors"
	"testing"

	"entitlement/internal/domain"
)

func TestLookupUnknownPlan(t *testing.T) {
	cat := Default()
	_, err := cat.Lookup("platinum")
	if !errors.Is(err, domain.ErrInvalidPlan) {
		t.Fatalf("expected ErrInvalidPlan, got %v", err)
	}
}

func TestListOrderedByPrice(t *testing.T) {
	cat := Default()
	plans := cat.List()
	if len(plans) != 3 {
		t.Fatalf("expected 3 plans, got %d", len(plans))
	}
	for i := 1; i < len(plans); i++ {
		if plans[i-1].MonthlyPrice > plans[i].MonthlyPrice {
			t.Fatalf("plans not ordered by price: %s before %s", plans[i-1].ID, plans[i].ID)
		}
	}
	if plans[0].ID != "trial" {
		t.Fatalf("cheapest plan = %q, want trial", plans[0].ID)
	}
}

func TestTrialAllowed(t *testing.T) {
	cat := Default()
	tests := []struct {
		planID string
		want   bool
	}{
		{"trial", true},
		{"starter", false},
		{"business", false},
		{"unknown", false},
	}
	for _, tc := range tests {
		if got := cat.TrialAllowed(tc.planID); got != tc.want {
			t.Errorf("TrialAllowed(%q) = %v, want %v", tc.planID, got, tc.want)
		}
	}
	if !cat.OffersTrial() {
		t.Fatal("default catalog should offer a trial")
	}
}
