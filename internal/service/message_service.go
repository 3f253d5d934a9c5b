// Package service wires the message generation pipeline: quota and
// access checks, prompt resolution, orchestrated generation, dedup, and
// persistence.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/entitlement"
	"github.com/uplift-app/uplift-api/internal/prompts"
	"github.com/uplift-app/uplift-api/internal/providers/text"
)

// Regeneration attempts when dedup rejects a candidate. The final
// candidate is accepted even if still similar.
const maxDedupAttempts = 3

// TextGenerator is the slice of the AI orchestrator the pipeline needs.
type TextGenerator interface {
	Generate(ctx context.Context, req text.Request) (*text.Result, error)
}

// Deduper checks fresh content against recent history.
type Deduper interface {
	IsDuplicate(ctx context.Context, content string, category domain.Category, locale string) bool
}

// QuotaError is returned when generation is blocked; it carries the
// data a client needs to render remaining count and cooldown.
type QuotaError struct {
	Decision domain.QuotaDecision
}

func (e *QuotaError) Error() string {
	if e.Decision.CooldownEndsAt != nil {
		return fmt.Sprintf("quota exceeded, cooldown ends at %s", e.Decision.CooldownEndsAt.Format(time.RFC3339))
	}
	return "quota exceeded"
}

func (e *QuotaError) Unwrap() error {
	return domain.ErrQuotaExceeded
}

// GenerateParams describes one user generation request.
type GenerateParams struct {
	UserID      string
	Category    domain.Category
	TimeOfDay   domain.TimeOfDay
	Weather     domain.WeatherContext
	Temperature *float64
	Locale      string
}

// MessageService runs the generation pipeline end to end.
type MessageService struct {
	users     domain.UserRepository
	messages  domain.MessageRepository
	validator *entitlement.Validator
	texts     TextGenerator
	dedup     Deduper
	logger    zerolog.Logger
	now       func() time.Time
}

func NewMessageService(
	users domain.UserRepository,
	messages domain.MessageRepository,
	validator *entitlement.Validator,
	texts TextGenerator,
	dedup Deduper,
	logger zerolog.Logger,
) *MessageService {
	return &MessageService{
		users:     users,
		messages:  messages,
		validator: validator,
		texts:     texts,
		dedup:     dedup,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the service's time source.
func (s *MessageService) WithClock(now func() time.Time) *MessageService {
	s.now = now
	return s
}

// GenerateMessage validates quota and category access, builds the
// contextual prompt, generates through the orchestrator with dedup
// regeneration, persists the accepted result, and records activity.
func (s *MessageService) GenerateMessage(ctx context.Context, params GenerateParams) (*domain.GeneratedMessage, error) {
	if !domain.ValidCategory(params.Category) {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, params.Category)
	}
	user, err := s.users.GetByID(ctx, params.UserID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	summary, err := s.validator.Validate(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("validate entitlements: %w", err)
	}
	decision, err := s.quotaFor(ctx, user, summary.HasPremiumCore)
	if err != nil {
		return nil, err
	}
	if !decision.CanGenerate {
		return nil, &QuotaError{Decision: decision}
	}
	if !entitlement.CategoryAllowed(summary.HasPremiumCore, params.Category) {
		return nil, fmt.Errorf("%w: %q", domain.ErrCategoryForbidden, params.Category)
	}

	locale := params.Locale
	if locale == "" {
		locale = user.Locale
	}
	if locale == "" {
		locale = "en"
	}

	tpl, err := prompts.GetTemplate(params.Category)
	if err != nil {
		return nil, err
	}
	systemPrompt, userPrompt, err := prompts.BuildContextualPrompt(params.Category, params.TimeOfDay, params.Weather)
	if err != nil {
		return nil, err
	}
	temperature := tpl.Temperature
	if params.Temperature != nil {
		temperature = *params.Temperature
	}
	req := text.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    tpl.MaxTokens,
		Temperature:  temperature,
		Category:     params.Category,
		Locale:       locale,
		UserID:       user.ID,
	}

	result, err := s.generateUnique(ctx, req)
	if err != nil {
		return nil, err
	}

	now := s.now()
	msg := &domain.GeneratedMessage{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Content:   result.Content,
		Category:  params.Category,
		Locale:    locale,
		Tokens:    result.Tokens,
		Cost:      text.EstimateCost(result.Tokens),
		Model:     result.Model,
		TimeOfDay: params.TimeOfDay,
		Weather:   params.Weather,
		CreatedAt: now,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	if err := s.users.TouchActivity(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record activity timestamp")
	}
	return msg, nil
}

func (s *MessageService) generateUnique(ctx context.Context, req text.Request) (*text.Result, error) {
	var last *text.Result
	for attempt := 0; attempt < maxDedupAttempts; attempt++ {
		result, err := s.texts.Generate(ctx, req)
		if err != nil {
			return nil, err
		}
		last = result
		if s.dedup == nil || !s.dedup.IsDuplicate(ctx, result.Content, req.Category, req.Locale) {
			return result, nil
		}
		s.logger.Info().
			Str("category", string(req.Category)).
			Str("locale", req.Locale).
			Int("attempt", attempt+1).
			Msg("generated content was a near-duplicate, regenerating")
	}
	return last, nil
}

func (s *MessageService) quotaFor(ctx context.Context, user *domain.User, hasPremium bool) (domain.QuotaDecision, error) {
	now := s.now()
	if !hasPremium {
		return entitlement.ComputeFreeQuota(user.LastActivityAt, now), nil
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	used, err := s.messages.CountForUserSince(ctx, user.ID, midnight)
	if err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("daily usage lookup failed, assuming zero")
		used = 0
	}
	return entitlement.ComputePremiumQuota(used, now), nil
}

// Quota returns the current decision for the user without generating.
func (s *MessageService) Quota(ctx context.Context, userID string) (domain.QuotaDecision, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return domain.QuotaDecision{}, fmt.Errorf("load user: %w", err)
	}
	summary, err := s.validator.Validate(ctx, user)
	if err != nil {
		return domain.QuotaDecision{}, fmt.Errorf("validate entitlements: %w", err)
	}
	return s.quotaFor(ctx, user, summary.HasPremiumCore)
}

// Entitlements returns the merged entitlement view for the user.
func (s *MessageService) Entitlements(ctx context.Context, userID string) (*domain.EntitlementSummary, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return s.validator.Validate(ctx, user)
}
