package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"entitlement/internal/catalog"
	"entitlement/internal/domain"
	"entitlement/internal/feed"
	"entitlement/internal/gate"
	"entitlement/internal/store"
)

// Evaluator is the authoritative evaluation the entitlement endpoints serve.
type Evaluator interface {
	Evaluate(ctx context.Context, accountID string) (domain.EntitlementStatus, error)
}

// App bundles the dependencies shared by all HTTP handlers.
type App struct {
	Store     *store.Store
	Evaluator Evaluator
	Gate      *gate.Gate
	Catalog   *catalog.Catalog
	Subs      domain.SubscriptionRepository
	Feed      *feed.Feed
	Logger    zerolog.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// error maps domain sentinels to HTTP status codes. PreconditionFailed never
// reaches this path; the benign race outcome is handled per endpoint.
func (a *App) error(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, domain.ErrNotAuthenticated):
		code, msg = http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, domain.ErrInvalidPlan):
		code, msg = http.StatusBadRequest, "unknown plan"
	case errors.Is(err, domain.ErrTrialExhausted):
		code, msg = http.StatusForbidden, "free trial already used"
	case errors.Is(err, domain.ErrNotFound):
		code, msg = http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrStoreUnavailable):
		code, msg = http.StatusServiceUnavailable, "temporarily unavailable"
	}
	if code == http.StatusInternalServerError || code == http.StatusServiceUnavailable {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("handler error")
	}
	a.json(w, code, map[string]string{"error": msg})
}
