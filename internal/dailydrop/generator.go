// Package dailydrop produces the single shared message published per
// (date, locale), with retrying generation, deterministic curated
// fallback, and an independent daily challenge sub-flow.
package dailydrop

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/cache"
	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/prompts"
	"github.com/uplift-app/uplift-api/internal/providers/text"
)

// DateFormat is the calendar-day key format for drops.
const DateFormat = "2006-01-02"

const (
	challengePoints   = 10
	cacheTTL          = 6 * time.Hour
	challengeSystem   = "You write one-sentence daily wellbeing challenges. Each challenge is a concrete task a person can complete in under fifteen minutes. Respond with the task sentence only."
	challengeUserTmpl = "Write one short daily challenge for %s. Locale: %s."
)

// TextGenerator is the slice of the AI orchestrator the generator needs.
type TextGenerator interface {
	Generate(ctx context.Context, req text.Request) (*text.Result, error)
}

// Deduper re-checks freshly generated content against recent history.
type Deduper interface {
	IsDuplicate(ctx context.Context, content string, category domain.Category, locale string) bool
}

// Generator drives the per-(date, locale) drop state machine. Terminal
// outcomes are: the row already existed, an AI generation was persisted,
// or curated fallback content was persisted.
type Generator struct {
	repo   domain.DailyDropRepository
	texts  TextGenerator
	dedup  Deduper
	cache  cache.Cache
	retry  RetryPolicy
	logger zerolog.Logger
	now    func() time.Time
}

func NewGenerator(repo domain.DailyDropRepository, texts TextGenerator, dedup Deduper, store cache.Cache, retry RetryPolicy, logger zerolog.Logger) *Generator {
	if store == nil {
		store = cache.Noop{}
	}
	return &Generator{
		repo:   repo,
		texts:  texts,
		dedup:  dedup,
		cache:  store,
		retry:  retry.normalized(),
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the generator's time source.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// GetDailyDrop returns the drop for the given date and locale,
// generating and persisting it when absent. The existence pre-check is
// an optimization only; the atomic insert-or-get is the authority under
// races.
func (g *Generator) GetDailyDrop(ctx context.Context, date, locale string) (*domain.DailyDropResult, error) {
	if _, err := time.Parse(DateFormat, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	if cached := g.fromCache(ctx, date, locale); cached != nil {
		return &domain.DailyDropResult{Drop: cached, WasGenerated: false}, nil
	}

	existing, err := g.repo.Get(ctx, date, locale)
	if err == nil {
		g.toCache(ctx, existing)
		return &domain.DailyDropResult{Drop: existing, WasGenerated: false}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		g.logger.Warn().Err(err).Str("date", date).Str("locale", locale).Msg("daily drop existence check failed, continuing to generate")
	}

	drop := g.generateDrop(ctx, date, locale)
	stored, inserted, err := g.repo.InsertOrGet(ctx, drop)
	if err != nil {
		return nil, fmt.Errorf("persist daily drop: %w", err)
	}
	if !inserted {
		// Lost the race; the winner's row is authoritative.
		g.toCache(ctx, stored)
		return &domain.DailyDropResult{Drop: stored, WasGenerated: false}, nil
	}

	g.attachChallenge(ctx, stored)
	g.toCache(ctx, stored)
	return &domain.DailyDropResult{Drop: stored, WasGenerated: true}, nil
}

func (g *Generator) generateDrop(ctx context.Context, date, locale string) *domain.DailyDrop {
	category := domain.CategoryMotivational
	drop := &domain.DailyDrop{
		ID:        uuid.NewString(),
		Date:      date,
		Locale:    locale,
		Category:  category,
		CreatedAt: g.now(),
	}

	tpl, err := prompts.GetTemplate(category)
	if err != nil {
		// The category is from the closed set; this cannot happen.
		g.fillFallback(drop)
		return drop
	}
	req := text.Request{
		SystemPrompt: tpl.SystemPrompt,
		UserPrompt:   tpl.UserPrompt,
		MaxTokens:    tpl.MaxTokens,
		Temperature:  tpl.Temperature,
		Category:     category,
		Locale:       locale,
	}

	var lastDuplicate *text.Result
	for attempt := 0; attempt < g.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			if err := g.retry.Sleep(ctx, g.retry.Backoff(attempt)); err != nil {
				break
			}
		}
		res, err := g.texts.Generate(ctx, req)
		if err != nil {
			g.logger.Warn().Err(err).Str("date", date).Str("locale", locale).Int("attempt", attempt+1).Msg("daily drop generation attempt failed")
			continue
		}
		if g.dedup != nil && g.dedup.IsDuplicate(ctx, res.Content, category, locale) {
			g.logger.Info().Str("date", date).Str("locale", locale).Int("attempt", attempt+1).Msg("daily drop candidate was a near-duplicate, regenerating")
			lastDuplicate = res
			continue
		}
		g.fillFromResult(drop, res)
		return drop
	}
	if lastDuplicate != nil {
		// Retries exhausted on duplicates; a repeat beats no drop at all.
		g.fillFromResult(drop, lastDuplicate)
		return drop
	}
	g.fillFallback(drop)
	return drop
}

func (g *Generator) fillFromResult(drop *domain.DailyDrop, res *text.Result) {
	drop.Content = res.Content
	drop.Tokens = res.Tokens
	drop.Cost = text.EstimateCost(res.Tokens)
	drop.Model = res.Model
}

func (g *Generator) fillFallback(drop *domain.DailyDrop) {
	drop.Content = FallbackMessage(drop.Date, drop.Locale)
	drop.Tokens = 0
	drop.Cost = 0
	drop.Model = domain.FallbackModel
}

// attachChallenge runs the independent challenge sub-flow. Its failure
// never invalidates the drop itself.
func (g *Generator) attachChallenge(ctx context.Context, drop *domain.DailyDrop) {
	task := g.generateChallengeTask(ctx, drop.Date, drop.Locale)
	challenge := &domain.DailyChallenge{
		ID:     uuid.NewString(),
		Date:   drop.Date,
		Locale: drop.Locale,
		Task:   task,
		Points: challengePoints,
	}
	if err := g.repo.AttachChallenge(ctx, challenge); err != nil {
		g.logger.Warn().Err(err).Str("date", drop.Date).Str("locale", drop.Locale).Msg("failed to persist daily challenge, drop published without one")
		return
	}
	drop.Challenge = challenge
}

func (g *Generator) generateChallengeTask(ctx context.Context, date, locale string) string {
	res, err := g.texts.Generate(ctx, text.Request{
		SystemPrompt: challengeSystem,
		UserPrompt:   fmt.Sprintf(challengeUserTmpl, date, locale),
		MaxTokens:    60,
		Temperature:  0.8,
		Locale:       locale,
	})
	if err != nil {
		g.logger.Warn().Err(err).Str("date", date).Msg("challenge generation failed, using curated task")
		return FallbackChallenge(date, locale)
	}
	return res.Content
}

func (g *Generator) fromCache(ctx context.Context, date, locale string) *domain.DailyDrop {
	raw, ok := g.cache.Get(ctx, cacheKey(date, locale))
	if !ok {
		return nil
	}
	var drop domain.DailyDrop
	if err := json.Unmarshal(raw, &drop); err != nil {
		return nil
	}
	return &drop
}

func (g *Generator) toCache(ctx context.Context, drop *domain.DailyDrop) {
	raw, err := json.Marshal(drop)
	if err != nil {
		return
	}
	g.cache.Set(ctx, cacheKey(drop.Date, drop.Locale), raw, cacheTTL)
}

func cacheKey(date, locale string) string {
	return date + ":" + locale
}
