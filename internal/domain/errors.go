package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrInvalidPlan        = errors.New("invalid plan")
	ErrTrialExhausted     = errors.New("trial exhausted")
)
