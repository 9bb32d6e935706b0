// Package catalog holds the static definition of purchasable plans. Plans
// carry no state and are only ever looked up by id.
package catalog

import (
	"fmt"
	"sort"

	"entitlement/internal/domain"
)

// Catalog is an immutable plan lookup table.
type Catalog struct {
	plans map[string]domain.Plan
}

// Default returns the built-in plan catalog.
func Default() *Catalog {
	return New(
		domain.Plan{
			ID:           "trial",
			Name:         "Uji Coba Gratis",
			MonthlyPrice: 0,
			Features:     []string{"products", "reports"},
			MaxProducts:  50,
			MaxUsers:     1,
			SupportTier:  domain.SupportCommunity,
			BackupTier:   domain.BackupNone,
			Trial:        true,
		},
		domain.Plan{
			ID:           "starter",
			Name:         "Starter",
			MonthlyPrice: 99_000,
			Features:     []string{"products", "reports", "export"},
			MaxProducts:  500,
			MaxUsers:     3,
			SupportTier:  domain.SupportStandard,
			BackupTier:   domain.BackupDaily,
		},
		domain.Plan{
			ID:           "business",
			Name:         "Business",
			MonthlyPrice: 249_000,
			Features:     []string{"products", "reports", "export", "multi_outlet"},
			MaxProducts:  5000,
			MaxUsers:     10,
			SupportTier:  domain.SupportPriority,
			BackupTier:   domain.BackupHourly,
		},
	)
}

// New builds a catalog from the given plans.
func New(plans ...domain.Plan) *Catalog {
	m := make(map[string]domain.Plan, len(plans))
	for _, p := range plans {
		m[p.ID] = p
	}
	return &Catalog{plans: m}
}

// Lookup returns the plan with the given id or domain.ErrInvalidPlan.
func (c *Catalog) Lookup(id string) (domain.Plan, error) {
	p, ok := c.plans[id]
	if !ok {
		return domain.Plan{}, fmt.Errorf("plan %q: %w", id, domain.ErrInvalidPlan)
	}
	return p, nil
}

// List returns all plans ordered by monthly price.
func (c *Catalog) List() []domain.Plan {
	out := make([]domain.Plan, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthlyPrice != out[j].MonthlyPrice {
			return out[i].MonthlyPrice < out[j].MonthlyPrice
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// OffersTrial reports whether any catalog plan grants a free trial.
func (c *Catalog) OffersTrial() bool {
	for _, p := range c.plans {
		if p.Trial {
			return true
		}
	}
	return false
}

// TrialAllowed reports whether the given plan id grants a free trial.
func (c *Catalog) TrialAllowed(planID string) bool {
	p, ok := c.plans[planID]
	return ok && p.Trial
}
