package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/entitlement"
	"github.com/uplift-app/uplift-api/internal/providers/text"
)

var testNow = time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)

type fakeUsers struct {
	users   map[string]*domain.User
	touched []time.Time
}

func (f *fakeUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) TouchActivity(ctx context.Context, id string, at time.Time) error {
	f.touched = append(f.touched, at)
	return nil
}

func (f *fakeUsers) AwardPoints(ctx context.Context, id string, points int) (*domain.User, error) {
	return f.users[id], nil
}

type fakeMessages struct {
	created []*domain.GeneratedMessage
}

func (f *fakeMessages) Create(ctx context.Context, msg *domain.GeneratedMessage) error {
	f.created = append(f.created, msg)
	return nil
}

func (f *fakeMessages) ListRecentByLocale(ctx context.Context, locale string, since time.Time, limit int) ([]string, error) {
	var out []string
	for _, m := range f.created {
		if m.Locale == locale {
			out = append(out, m.Content)
		}
	}
	return out, nil
}

func (f *fakeMessages) CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	count := 0
	for _, m := range f.created {
		if m.UserID == userID && !m.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

type fakeSource struct {
	ents []domain.Entitlement
	err  error
}

func (f *fakeSource) Name() string {
	return "fake"
}

func (f *fakeSource) GetEntitlements(ctx context.Context, userID string) ([]domain.Entitlement, error) {
	return f.ents, f.err
}

type fakeTexts struct {
	calls  int
	result *text.Result
	err    error
}

func (f *fakeTexts) Generate(ctx context.Context, req text.Request) (*text.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &text.Result{Content: "generated snippet", Tokens: 33, Model: "gpt-4o-mini"}, nil
}

type fakeDeduper struct {
	flags []bool
	calls int
}

func (f *fakeDeduper) IsDuplicate(ctx context.Context, content string, category domain.Category, locale string) bool {
	i := f.calls
	f.calls++
	if i < len(f.flags) {
		return f.flags[i]
	}
	return false
}

func premiumUser() *domain.User {
	expiry := testNow.Add(30 * 24 * time.Hour)
	return &domain.User{
		ID:               "u1",
		Tier:             domain.TierPremiumCore,
		PremiumExpiresAt: &expiry,
		LastActivityAt:   testNow.Add(-time.Hour),
		Locale:           "en",
	}
}

func freeUser(lastActivity time.Time) *domain.User {
	return &domain.User{
		ID:             "u2",
		Tier:           domain.TierFree,
		LastActivityAt: lastActivity,
		Locale:         "en",
	}
}

func newService(users *fakeUsers, messages *fakeMessages, source entitlement.Source, texts TextGenerator, dedup Deduper) *MessageService {
	validator := entitlement.NewValidator([]entitlement.Source{source}, messages, zerolog.Nop()).
		WithClock(func() time.Time { return testNow })
	return NewMessageService(users, messages, validator, texts, dedup, zerolog.Nop()).
		WithClock(func() time.Time { return testNow })
}

func premiumSource() *fakeSource {
	return &fakeSource{ents: []domain.Entitlement{{
		Type:      domain.EntitlementPremiumCore,
		Platform:  "ios",
		ExpiresAt: testNow.Add(30 * 24 * time.Hour),
		IsActive:  true,
	}}}
}

func TestGenerateMessageEndToEnd(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u1": premiumUser()}}
	messages := &fakeMessages{}
	svc := newService(users, messages, premiumSource(), &fakeTexts{}, &fakeDeduper{})

	before, err := svc.Quota(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Quota returned error: %v", err)
	}

	msg, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u1",
		Category: domain.CategoryMotivational,
	})
	if err != nil {
		t.Fatalf("GenerateMessage returned error: %v", err)
	}
	if msg.Content == "" || msg.Tokens == 0 {
		t.Fatalf("message = %+v, want content and non-zero tokens", msg)
	}

	after, err := svc.Quota(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Quota returned error: %v", err)
	}
	if after.RemainingMessages != before.RemainingMessages-1 {
		t.Fatalf("remaining = %d, want %d", after.RemainingMessages, before.RemainingMessages-1)
	}
	if len(users.touched) != 1 {
		t.Fatalf("activity touches = %d, want 1", len(users.touched))
	}
}

func TestGenerateMessageFreeTierCooldown(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u2": freeUser(testNow.Add(-23 * time.Hour))}}
	svc := newService(users, &fakeMessages{}, &fakeSource{}, &fakeTexts{}, &fakeDeduper{})

	_, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u2",
		Category: domain.CategoryMotivational,
	})
	var quotaErr *QuotaError
	if !errors.As(err, &quotaErr) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
	if !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatal("QuotaError must unwrap to ErrQuotaExceeded")
	}
	want := testNow.Add(time.Hour)
	if quotaErr.Decision.CooldownEndsAt == nil || !quotaErr.Decision.CooldownEndsAt.Equal(want) {
		t.Fatalf("CooldownEndsAt = %v, want %v", quotaErr.Decision.CooldownEndsAt, want)
	}
}

func TestGenerateMessageFreeTierEligibleAfterWindow(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u2": freeUser(testNow.Add(-24*time.Hour - time.Second))}}
	svc := newService(users, &fakeMessages{}, &fakeSource{}, &fakeTexts{}, &fakeDeduper{})

	msg, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u2",
		Category: domain.CategoryPhilosophy,
	})
	if err != nil {
		t.Fatalf("GenerateMessage returned error: %v", err)
	}
	if msg.Category != domain.CategoryPhilosophy {
		t.Fatalf("Category = %q", msg.Category)
	}
}

func TestGenerateMessageFreeTierCategoryForbidden(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u2": freeUser(testNow.Add(-48 * time.Hour))}}
	svc := newService(users, &fakeMessages{}, &fakeSource{}, &fakeTexts{}, &fakeDeduper{})

	_, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u2",
		Category: domain.CategoryFitness,
	})
	if !errors.Is(err, domain.ErrCategoryForbidden) {
		t.Fatalf("err = %v, want ErrCategoryForbidden", err)
	}
}

func TestGenerateMessageInvalidCategory(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u1": premiumUser()}}
	svc := newService(users, &fakeMessages{}, premiumSource(), &fakeTexts{}, &fakeDeduper{})

	_, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u1",
		Category: domain.Category("horoscope"),
	})
	if !errors.Is(err, domain.ErrInvalidCategory) {
		t.Fatalf("err = %v, want ErrInvalidCategory", err)
	}
}

func TestGenerateMessageRegeneratesOnDuplicate(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u1": premiumUser()}}
	texts := &fakeTexts{}
	svc := newService(users, &fakeMessages{}, premiumSource(), texts, &fakeDeduper{flags: []bool{true, false}})

	if _, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u1",
		Category: domain.CategoryMotivational,
	}); err != nil {
		t.Fatalf("GenerateMessage returned error: %v", err)
	}
	if texts.calls != 2 {
		t.Fatalf("generator calls = %d, want 2", texts.calls)
	}
}

func TestGenerateMessagePropagatesProviderExhaustion(t *testing.T) {
	users := &fakeUsers{users: map[string]*domain.User{"u1": premiumUser()}}
	texts := &fakeTexts{err: &text.AllProvidersFailedError{
		PreferredErr: errors.New("a down"),
		FallbackErr:  errors.New("b down"),
	}}
	svc := newService(users, &fakeMessages{}, premiumSource(), texts, &fakeDeduper{})

	_, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "u1",
		Category: domain.CategoryMotivational,
	})
	if !errors.Is(err, domain.ErrAllProvidersFailed) {
		t.Fatalf("err = %v, want ErrAllProvidersFailed", err)
	}
}

func TestGenerateMessageUnknownUser(t *testing.T) {
	svc := newService(&fakeUsers{users: map[string]*domain.User{}}, &fakeMessages{}, &fakeSource{}, &fakeTexts{}, &fakeDeduper{})
	_, err := svc.GenerateMessage(context.Background(), GenerateParams{
		UserID:   "missing",
		Category: domain.CategoryMotivational,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
