// Package entitlement merges paid-capability grants across payment
// backends and evaluates quota, cooldown, and category access rules.
package entitlement

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/domain"
)

const (
	// FreeTierWindow is the rolling window between free-tier generations.
	FreeTierWindow = 24 * time.Hour
	// PremiumDailyLimit is the premium-core per-day message allowance.
	PremiumDailyLimit = 20
	// PremiumCooldown is the structural inter-request cooldown for
	// premium users. It is computed from the current instant, not from a
	// persisted last-generation timestamp.
	PremiumCooldown = 30 * time.Second
)

var freeCategories = map[domain.Category]struct{}{
	domain.CategoryMotivational: {},
	domain.CategoryPhilosophy:   {},
}

// Source is one payment backend able to report a user's entitlements.
type Source interface {
	Name() string
	GetEntitlements(ctx context.Context, userID string) ([]domain.Entitlement, error)
}

// UsageCounter reports how many messages a user generated since a point
// in time.
type UsageCounter interface {
	CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// Validator resolves a user's effective entitlements and quota state.
type Validator struct {
	sources []Source
	usage   UsageCounter
	logger  zerolog.Logger
	now     func() time.Time
}

func NewValidator(sources []Source, usage UsageCounter, logger zerolog.Logger) *Validator {
	return &Validator{sources: sources, usage: usage, logger: logger, now: time.Now}
}

// WithClock replaces the validator's time source.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate queries every configured backend and merges the results,
// keeping the latest-expiring entitlement per type. A single failing
// source is skipped with a warning; when no source contributes, whether
// because all failed or because none is configured, the validator falls
// back to the user's locally stored subscription state. An expired
// local record yields no active entitlement.
func (v *Validator) Validate(ctx context.Context, user *domain.User) (*domain.EntitlementSummary, error) {
	now := v.now()
	var collected []domain.Entitlement
	failures := 0
	for _, src := range v.sources {
		ents, err := src.GetEntitlements(ctx, user.ID)
		if err != nil {
			failures++
			v.logger.Warn().
				Err(err).
				Str("source", src.Name()).
				Str("user_id", user.ID).
				Msg("entitlement source failed, skipping")
			continue
		}
		collected = append(collected, ents...)
	}
	if failures == len(v.sources) {
		v.logger.Warn().
			Str("user_id", user.ID).
			Msg("no entitlement source answered, using local subscription state")
		collected = localEntitlements(user, now)
	}
	merged := Merge(collected)
	return summarize(merged, now), nil
}

// Merge keeps, per entitlement type, only the entry with the latest
// expiry along with its originating platform.
func Merge(entitlements []domain.Entitlement) []domain.Entitlement {
	best := make(map[domain.EntitlementType]domain.Entitlement, len(entitlements))
	order := make([]domain.EntitlementType, 0, len(entitlements))
	for _, ent := range entitlements {
		current, seen := best[ent.Type]
		if !seen {
			best[ent.Type] = ent
			order = append(order, ent.Type)
			continue
		}
		if ent.ExpiresAt.After(current.ExpiresAt) {
			best[ent.Type] = ent
		}
	}
	merged := make([]domain.Entitlement, 0, len(order))
	for _, typ := range order {
		merged = append(merged, best[typ])
	}
	return merged
}

func summarize(entitlements []domain.Entitlement, now time.Time) *domain.EntitlementSummary {
	summary := &domain.EntitlementSummary{Entitlements: entitlements}
	for _, ent := range entitlements {
		if !ent.IsActive || ent.Expired(now) {
			continue
		}
		switch ent.Type {
		case domain.EntitlementPremiumCore:
			summary.HasPremiumCore = true
		case domain.EntitlementVoicePack:
			summary.HasVoicePack = true
		}
	}
	return summary
}

func localEntitlements(user *domain.User, now time.Time) []domain.Entitlement {
	expiry := user.TierExpiry()
	if expiry == nil || !expiry.After(now) {
		return nil
	}
	var typ domain.EntitlementType
	switch user.Tier {
	case domain.TierPremiumCore:
		typ = domain.EntitlementPremiumCore
	case domain.TierVoicePack:
		typ = domain.EntitlementVoicePack
	default:
		return nil
	}
	return []domain.Entitlement{{
		Type:      typ,
		Platform:  "local",
		ExpiresAt: *expiry,
		IsActive:  true,
	}}
}

// CheckMessageGenerationQuota evaluates the user's current generation
// allowance.
func (v *Validator) CheckMessageGenerationQuota(ctx context.Context, user *domain.User) (domain.QuotaDecision, error) {
	summary, err := v.Validate(ctx, user)
	if err != nil {
		return domain.QuotaDecision{}, err
	}
	now := v.now()
	if summary.HasPremiumCore {
		used := 0
		if v.usage != nil {
			midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
			used, err = v.usage.CountForUserSince(ctx, user.ID, midnight)
			if err != nil {
				v.logger.Warn().Err(err).Str("user_id", user.ID).Msg("daily usage lookup failed, assuming zero")
				used = 0
			}
		}
		return ComputePremiumQuota(used, now), nil
	}
	return ComputeFreeQuota(user.LastActivityAt, now), nil
}

// ComputePremiumQuota derives the premium-core decision from today's
// usage. The cooldown is structural: always now plus the fixed interval.
func ComputePremiumQuota(usedToday int, now time.Time) domain.QuotaDecision {
	remaining := PremiumDailyLimit - usedToday
	if remaining < 0 {
		remaining = 0
	}
	cooldown := now.Add(PremiumCooldown)
	return domain.QuotaDecision{
		CanGenerate:       remaining > 0,
		RemainingMessages: remaining,
		CooldownEndsAt:    &cooldown,
	}
}

// ComputeFreeQuota derives the free-tier decision from the rolling
// 24-hour activity window. Eligibility requires the full window to have
// elapsed; exactly at the boundary is eligible.
func ComputeFreeQuota(lastActivity, now time.Time) domain.QuotaDecision {
	if now.Sub(lastActivity) >= FreeTierWindow {
		return domain.QuotaDecision{CanGenerate: true, RemainingMessages: 1}
	}
	cooldownEnd := lastActivity.Add(FreeTierWindow)
	return domain.QuotaDecision{
		CanGenerate:       false,
		RemainingMessages: 0,
		CooldownEndsAt:    &cooldownEnd,
	}
}

// CheckCategoryAccess reports whether the user's tier may request the
// category.
func (v *Validator) CheckCategoryAccess(ctx context.Context, user *domain.User, category domain.Category) (bool, error) {
	if !domain.ValidCategory(category) {
		return false, domain.ErrInvalidCategory
	}
	summary, err := v.Validate(ctx, user)
	if err != nil {
		return false, err
	}
	return CategoryAllowed(summary.HasPremiumCore, category), nil
}

// CategoryAllowed is the pure access rule: premium unlocks every
// category, free users get the starter pair.
func CategoryAllowed(hasPremiumCore bool, category domain.Category) bool {
	if hasPremiumCore {
		return true
	}
	_, ok := freeCategories[category]
	return ok
}

// CheckVoiceAccess reports whether an active voice_pack entitlement
// exists.
func (v *Validator) CheckVoiceAccess(ctx context.Context, user *domain.User) (bool, error) {
	summary, err := v.Validate(ctx, user)
	if err != nil {
		return false, err
	}
	return summary.HasVoicePack, nil
}
