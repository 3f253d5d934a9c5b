package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/uplift-app/uplift-api/internal/domain"
)

const (
	revenueCatSourceName     = "revenuecat"
	revenueCatDefaultBaseURL = "https://api.revenuecat.com/v1"
	revenueCatDefaultTimeout = 10 * time.Second
)

// RevenueCatOptions configures the RevenueCat entitlement source.
type RevenueCatOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// RevenueCatSource reads subscriber entitlements from RevenueCat.
type RevenueCatSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type revenueCatSubscriberResponse struct {
	Subscriber struct {
		Entitlements map[string]struct {
			ExpiresDate        *time.Time `json:"expires_date"`
			ProductIdentifier  string     `json:"product_identifier"`
			PurchaseDate       *time.Time `json:"purchase_date"`
			Store              string     `json:"store"`
			GracePeriodExpires *time.Time `json:"grace_period_expires_date"`
		} `json:"entitlements"`
	} `json:"subscriber"`
}

func NewRevenueCatSource(opts RevenueCatOptions) (*RevenueCatSource, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("revenuecat api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = revenueCatDefaultBaseURL
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: revenueCatDefaultTimeout}
	}
	return &RevenueCatSource{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  client,
	}, nil
}

func (s *RevenueCatSource) Name() string {
	return revenueCatSourceName
}

// GetEntitlements fetches and normalizes the subscriber's entitlements.
func (s *RevenueCatSource) GetEntitlements(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	endpoint := fmt.Sprintf("%s/subscribers/%s", s.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("revenuecat: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revenuecat: request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("revenuecat: status %d", resp.StatusCode)
	}
	var out revenueCatSubscriberResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("revenuecat: decode response: %w", err)
	}
	now := time.Now()
	var entitlements []domain.Entitlement
	for id, ent := range out.Subscriber.Entitlements {
		typ, ok := mapRevenueCatEntitlement(id)
		if !ok {
			continue
		}
		expiry := now
		if ent.ExpiresDate != nil {
			expiry = *ent.ExpiresDate
		}
		entitlements = append(entitlements, domain.Entitlement{
			Type:      typ,
			Platform:  mapRevenueCatStore(ent.Store),
			ExpiresAt: expiry,
			IsActive:  expiry.After(now),
		})
	}
	return entitlements, nil
}

func mapRevenueCatEntitlement(id string) (domain.EntitlementType, bool) {
	switch strings.ToLower(id) {
	case "premium_core", "premium":
		return domain.EntitlementPremiumCore, true
	case "voice_pack", "voice":
		return domain.EntitlementVoicePack, true
	}
	return "", false
}

func mapRevenueCatStore(store string) string {
	switch strings.ToLower(store) {
	case "app_store":
		return "ios"
	case "play_store":
		return "android"
	case "stripe":
		return "web"
	default:
		return "revenuecat"
	}
}

var _ Source = (*RevenueCatSource)(nil)
