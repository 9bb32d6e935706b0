package domain

import (
	"strings"
	"time"
)

// TrialLedgerEntry records that an identity has been granted a free trial.
// Entries are append-only; once Blocked is set it is never unset by this
// service (un-blocking is an administrative action elsewhere).
type TrialLedgerEntry struct {
	AccountID string
	Email     string
	Phone     string
	Blocked   bool
	BlockedAt *time.Time
	CreatedAt time.Time
}

// TrialIdentity is the normalized identity a trial grant is keyed by.
type TrialIdentity struct {
	Email string
	Phone string
}

// NewTrialIdentity normalizes raw identity values once at the boundary.
func NewTrialIdentity(email, phone string) TrialIdentity {
	return TrialIdentity{
		Email: NormalizeEmail(email),
		Phone: NormalizePhone(phone),
	}
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone strips everything except digits, keeping a leading plus.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if r == '+' && i == 0 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
