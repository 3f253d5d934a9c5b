package domain

import "time"

// SubscriptionTier enumerates billing tiers.
type SubscriptionTier string

const (
	TierFree        SubscriptionTier = "free"
	TierPremiumCore SubscriptionTier = "premium_core"
	TierVoicePack   SubscriptionTier = "voice_pack"
)

// User represents an account within the platform. Users are never hard
// deleted; subscription and activity fields mutate in place.
type User struct {
	ID                  string
	Email               string
	Tier                SubscriptionTier
	Points              int
	Streak              int
	PremiumExpiresAt    *time.Time
	VoicePackExpiresAt  *time.Time
	LastActivityAt      time.Time
	PreferredCategories []Category
	Timezone            string
	Locale              string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsFree reports whether the user is on the free tier.
func (u User) IsFree() bool {
	return u.Tier == TierFree
}

// TierExpiry returns the locally stored expiry for the user's paid tier.
func (u User) TierExpiry() *time.Time {
	switch u.Tier {
	case TierPremiumCore:
		return u.PremiumExpiresAt
	case TierVoicePack:
		return u.VoicePackExpiresAt
	default:
		return nil
	}
}
