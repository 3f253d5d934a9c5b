package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/uplift-app/uplift-api/internal/domain"
)

type revenueCatWebhook struct {
	Event struct {
		Type        string `json:"type"`
		AppUserID   string `json:"app_user_id"`
		EventTimeMS int64  `json:"event_timestamp_ms"`
	} `json:"event"`
}

type stripeWebhook struct {
	Type    string          `json:"type"`
	Created int64           `json:"created"`
	Data    json.RawMessage `json:"data"`
}

// PaymentWebhook handles POST /v1/webhooks/payments. Payloads are
// resolved into the normalized envelope by the explicit provider
// discriminator before anything else looks at them. Entitlement state
// is recomputed from the backends on each validation call, so the
// webhook only needs to acknowledge and record the event.
func (a *App) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		a.json(w, http.StatusBadRequest, errorBody{Error: errorDetail{Code: "invalid_body", Message: "unreadable payload"}})
		return
	}
	provider := domain.PaymentProvider(r.URL.Query().Get("provider"))
	event, err := normalizeWebhook(provider, body)
	if err != nil {
		a.json(w, http.StatusBadRequest, errorBody{Error: errorDetail{Code: "invalid_webhook", Message: err.Error()}})
		return
	}
	a.Logger.Info().
		Str("provider", string(event.Provider)).
		Str("event", event.Event).
		Time("timestamp", event.Timestamp).
		Msg("payment webhook received")
	a.json(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func normalizeWebhook(provider domain.PaymentProvider, body []byte) (*domain.PaymentEvent, error) {
	switch provider {
	case domain.PaymentProviderRevenueCat:
		var payload revenueCatWebhook
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		return &domain.PaymentEvent{
			Provider:  domain.PaymentProviderRevenueCat,
			Event:     payload.Event.Type,
			Data:      body,
			Timestamp: time.UnixMilli(payload.Event.EventTimeMS).UTC(),
		}, nil
	case domain.PaymentProviderStripe:
		var payload stripeWebhook
		if err := json.Unmarshal(body, &payload); err != nil {
			return nil, err
		}
		return &domain.PaymentEvent{
			Provider:  domain.PaymentProviderStripe,
			Event:     payload.Type,
			Data:      payload.Data,
			Timestamp: time.Unix(payload.Created, 0).UTC(),
		}, nil
	default:
		return nil, errUnknownProvider(provider)
	}
}

type errUnknownProvider domain.PaymentProvider

func (e errUnknownProvider) Error() string {
	return "unknown payment provider " + string(e)
}
