package handlers

import (
	"net/http"
	"time"

	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/middleware"
)

type entitlementResponse struct {
	Type      string    `json:"type"`
	Platform  string    `json:"platform"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
}

type entitlementSummaryResponse struct {
	HasPremiumCore bool                  `json:"hasPremiumCore"`
	HasVoicePack   bool                  `json:"hasVoicePack"`
	Entitlements   []entitlementResponse `json:"entitlements"`
}

// Entitlements handles GET /v1/entitlements.
func (a *App) Entitlements(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	summary, err := a.Messages.Entitlements(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := entitlementSummaryResponse{
		HasPremiumCore: summary.HasPremiumCore,
		HasVoicePack:   summary.HasVoicePack,
		Entitlements:   make([]entitlementResponse, 0, len(summary.Entitlements)),
	}
	for _, ent := range summary.Entitlements {
		resp.Entitlements = append(resp.Entitlements, entitlementResponse{
			Type:      string(ent.Type),
			Platform:  ent.Platform,
			ExpiresAt: ent.ExpiresAt,
			IsActive:  ent.IsActive,
		})
	}
	a.json(w, http.StatusOK, resp)
}
