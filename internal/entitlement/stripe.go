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
	stripeSourceName     = "stripe"
	stripeDefaultTimeout = 10 * time.Second
)

// StripeOptions configures the Stripe-backed entitlement source. The
// service talks to a billing bridge that has already resolved Stripe
// subscriptions into entitlement records; raw Stripe subscription
// objects never cross into the core.
type StripeOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// StripeSource reads web-subscription entitlements.
type StripeSource struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

type stripeEntitlementRecord struct {
	Type      string    `json:"type"`
	ExpiresAt time.Time `json:"expires_at"`
	Active    bool      `json:"active"`
}

type stripeEntitlementsResponse struct {
	Entitlements []stripeEntitlementRecord `json:"entitlements"`
}

func NewStripeSource(opts StripeOptions) (*StripeSource, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("stripe api key is required")
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("stripe entitlements base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: stripeDefaultTimeout}
	}
	return &StripeSource{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		client:  client,
	}, nil
}

func (s *StripeSource) Name() string {
	return stripeSourceName
}

func (s *StripeSource) GetEntitlements(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	endpoint := fmt.Sprintf("%s/entitlements/%s", s.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("stripe: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stripe: request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe: status %d", resp.StatusCode)
	}
	var out stripeEntitlementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("stripe: decode response: %w", err)
	}
	entitlements := make([]domain.Entitlement, 0, len(out.Entitlements))
	for _, rec := range out.Entitlements {
		var typ domain.EntitlementType
		switch strings.ToLower(rec.Type) {
		case "premium_core":
			typ = domain.EntitlementPremiumCore
		case "voice_pack":
			typ = domain.EntitlementVoicePack
		default:
			continue
		}
		entitlements = append(entitlements, domain.Entitlement{
			Type:      typ,
			Platform:  "web",
			ExpiresAt: rec.ExpiresAt,
			IsActive:  rec.Active,
		})
	}
	return entitlements, nil
}

var _ Source = (*StripeSource)(nil)
