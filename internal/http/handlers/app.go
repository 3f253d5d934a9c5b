package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/dailydrop"
	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/providers/text"
	"github.com/uplift-app/uplift-api/internal/service"
)

// App bundles the services the route layer exposes.
type App struct {
	Messages     *service.MessageService
	Drops        *dailydrop.Generator
	Orchestrator *text.Orchestrator
	Users        domain.UserRepository
	Logger       zerolog.Logger
}

func NewApp(messages *service.MessageService, drops *dailydrop.Generator, orchestrator *text.Orchestrator, users domain.UserRepository, logger zerolog.Logger) *App {
	return &App{
		Messages:     messages,
		Drops:        drops,
		Orchestrator: orchestrator,
		Users:        users,
		Logger:       logger,
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code              string  `json:"code"`
	Message           string  `json:"message"`
	RemainingMessages *int    `json:"remainingMessages,omitempty"`
	CooldownEndsAt    *string `json:"cooldownEndsAt,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// fail maps pipeline errors to stable machine-readable codes. Quota
// violations include the data clients need for countdown UX.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var quotaErr *service.QuotaError
	if errors.As(err, &quotaErr) {
		detail := errorDetail{
			Code:              "quota_exceeded",
			Message:           "generation quota exhausted",
			RemainingMessages: &quotaErr.Decision.RemainingMessages,
		}
		if quotaErr.Decision.CooldownEndsAt != nil {
			s := quotaErr.Decision.CooldownEndsAt.UTC().Format("2006-01-02T15:04:05Z07:00")
			detail.CooldownEndsAt = &s
		}
		a.json(w, http.StatusTooManyRequests, errorBody{Error: detail})
		return
	}

	var status int
	var code string
	switch {
	case errors.Is(err, domain.ErrInvalidCategory):
		status, code = http.StatusBadRequest, "invalid_category"
	case errors.Is(err, domain.ErrCategoryForbidden):
		status, code = http.StatusForbidden, "category_forbidden"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrAllProvidersFailed):
		status, code = http.StatusBadGateway, "generation_failed"
	default:
		status, code = http.StatusInternalServerError, "internal_error"
	}
	if status >= 500 {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	a.json(w, status, errorBody{Error: errorDetail{Code: code, Message: err.Error()}})
}
