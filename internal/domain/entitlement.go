package domain

import "time"

// EntitlementType enumerates paid capabilities.
type EntitlementType string

const (
	EntitlementPremiumCore EntitlementType = "premium_core"
	EntitlementVoicePack   EntitlementType = "voice_pack"
)

// Entitlement is a time-bounded grant originating from a payment backend.
// Entitlements are recomputed on every validation call; the payment
// backends remain the source of truth.
type Entitlement struct {
	Type      EntitlementType
	Platform  string
	ExpiresAt time.Time
	IsActive  bool
}

// Expired reports whether the entitlement has lapsed at the given instant.
func (e Entitlement) Expired(now time.Time) bool {
	return !e.ExpiresAt.After(now)
}

// EntitlementSummary is the merged, per-user view across all backends.
type EntitlementSummary struct {
	HasPremiumCore bool
	HasVoicePack   bool
	Entitlements   []Entitlement
}

// QuotaDecision carries everything a client needs to render quota state,
// not just a boolean.
type QuotaDecision struct {
	CanGenerate       bool
	RemainingMessages int
	CooldownEndsAt    *time.Time
}
