package handlers

import (
	"net/http"

	"entitlement/internal/domain"
)

type planPayload struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MonthlyPrice int64    `json:"monthly_price"`
	Features     []string `json:"features"`
	MaxProducts  int      `json:"max_products"`
	MaxUsers     int      `json:"max_users"`
	SupportTier  string   `json:"support_tier"`
	BackupTier   string   `json:"backup_tier"`
	Trial        bool     `json:"trial"`
}

// Plans lists the purchasable plan catalog.
func (a *App) Plans(w http.ResponseWriter, _ *http.Request) {
	plans := a.Catalog.List()
	items := make([]planPayload, 0, len(plans))
	for _, p := range plans {
		items = append(items, toPlanPayload(p))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func toPlanPayload(p domain.Plan) planPayload {
	return planPayload{
		ID:           p.ID,
		Name:         p.Name,
		MonthlyPrice: p.MonthlyPrice,
		Features:     p.Features,
		MaxProducts:  p.MaxProducts,
		MaxUsers:     p.MaxUsers,
		SupportTier:  string(p.SupportTier),
		BackupTier:   string(p.BackupTier),
		Trial:        p.Trial,
	}
}
