package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/middleware"
	"github.com/uplift-app/uplift-api/internal/service"
)

type generateMessageRequest struct {
	Category    string   `json:"category"`
	TimeOfDay   string   `json:"timeOfDay,omitempty"`
	Weather     string   `json:"weatherContext,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Locale      string   `json:"locale,omitempty"`
}

type messageResponse struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Locale    string    `json:"locale"`
	Tokens    int       `json:"tokens"`
	Model     string    `json:"model"`
	Cached    bool      `json:"cached"`
	CreatedAt time.Time `json:"createdAt"`
}

// GenerateMessage handles POST /v1/messages/generate.
func (a *App) GenerateMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	var req generateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.json(w, http.StatusBadRequest, errorBody{Error: errorDetail{Code: "invalid_body", Message: "malformed JSON body"}})
		return
	}
	locale := req.Locale
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	msg, err := a.Messages.GenerateMessage(r.Context(), service.GenerateParams{
		UserID:      userID,
		Category:    domain.Category(req.Category),
		TimeOfDay:   domain.TimeOfDay(req.TimeOfDay),
		Weather:     domain.WeatherContext(req.Weather),
		Temperature: req.Temperature,
		Locale:      locale,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, messageResponse{
		ID:        msg.ID,
		Content:   msg.Content,
		Category:  string(msg.Category),
		Locale:    msg.Locale,
		Tokens:    msg.Tokens,
		Model:     msg.Model,
		Cached:    false,
		CreatedAt: msg.CreatedAt,
	})
}

type quotaResponse struct {
	CanGenerate       bool       `json:"canGenerate"`
	RemainingMessages int        `json:"remainingMessages"`
	CooldownEndsAt    *time.Time `json:"cooldownEndsAt,omitempty"`
}

// Quota handles GET /v1/quota.
func (a *App) Quota(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	decision, err := a.Messages.Quota(r.Context(), userID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, quotaResponse{
		CanGenerate:       decision.CanGenerate,
		RemainingMessages: decision.RemainingMessages,
		CooldownEndsAt:    decision.CooldownEndsAt,
	})
}
