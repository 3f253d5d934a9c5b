package handlers

import (
	"net/http"
	"time"

	"github.com/uplift-app/uplift-api/internal/dailydrop"
	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/middleware"
)

type dailyChallengeResponse struct {
	Task   string `json:"task"`
	Points int    `json:"points"`
}

type dailyDropResponse struct {
	Date         string                  `json:"date"`
	Locale       string                  `json:"locale"`
	Content      string                  `json:"content"`
	Category     string                  `json:"category"`
	Model        string                  `json:"model"`
	Tokens       int                     `json:"tokens"`
	WasGenerated bool                    `json:"wasGenerated"`
	Challenge    *dailyChallengeResponse `json:"dailyChallenge,omitempty"`
}

// DailyDrop handles GET /v1/daily-drop. Date defaults to today (UTC),
// locale to the resolved request locale.
func (a *App) DailyDrop(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(dailydrop.DateFormat)
	}
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	result, err := a.Drops.GetDailyDrop(r.Context(), date, locale)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	resp := dailyDropResponse{
		Date:         result.Drop.Date,
		Locale:       result.Drop.Locale,
		Content:      result.Drop.Content,
		Category:     string(result.Drop.Category),
		Model:        result.Drop.Model,
		Tokens:       result.Drop.Tokens,
		WasGenerated: result.WasGenerated,
	}
	if c := result.Drop.Challenge; c != nil {
		resp.Challenge = &dailyChallengeResponse{Task: c.Task, Points: c.Points}
	}
	a.json(w, http.StatusOK, resp)
}

type completeChallengeResponse struct {
	Points int `json:"points"`
	Total  int `json:"totalPoints"`
}

// CompleteChallenge handles POST /v1/daily-drop/challenge/complete and
// awards the day's challenge points to the caller.
func (a *App) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.fail(w, r, domain.ErrUnauthorized)
		return
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().UTC().Format(dailydrop.DateFormat)
	}
	locale := r.URL.Query().Get("locale")
	if locale == "" {
		locale = middleware.LocaleFromContext(r.Context())
	}
	result, err := a.Drops.GetDailyDrop(r.Context(), date, locale)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if result.Drop.Challenge == nil {
		a.fail(w, r, domain.ErrNotFound)
		return
	}
	user, err := a.Users.AwardPoints(r.Context(), userID, result.Drop.Challenge.Points)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, completeChallengeResponse{
		Points: result.Drop.Challenge.Points,
		Total:  user.Points,
	})
}
