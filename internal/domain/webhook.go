package domain

import (
	"encoding/json"
	"time"
)

// PaymentProvider discriminates webhook payload shapes at the boundary.
type PaymentProvider string

const (
	PaymentProviderRevenueCat PaymentProvider = "revenuecat"
	PaymentProviderStripe     PaymentProvider = "stripe"
)

// PaymentEvent is the normalized envelope every webhook payload is mapped
// into before the core touches it. Data keeps the provider-specific body
// opaque; nothing deeper than the handler inspects it structurally.
type PaymentEvent struct {
	Provider  PaymentProvider `json:"type"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}
