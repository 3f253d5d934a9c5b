package dailydrop

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/cache"
	"github.com/uplift-app/uplift-api/internal/domain"
	"github.com/uplift-app/uplift-api/internal/providers/text"
)

type fakeDropRepo struct {
	drops       map[string]*domain.DailyDrop
	challenges  []*domain.DailyChallenge
	attachErr   error
	getErr      error
	insertCalls int
	// raceWinner, when set, simulates losing the insert race.
	raceWinner *domain.DailyDrop
}

func newFakeDropRepo() *fakeDropRepo {
	return &fakeDropRepo{drops: map[string]*domain.DailyDrop{}}
}

func (f *fakeDropRepo) key(date, locale string) string {
	return date + ":" + locale
}

func (f *fakeDropRepo) Get(ctx context.Context, date, locale string) (*domain.DailyDrop, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if drop, ok := f.drops[f.key(date, locale)]; ok {
		return drop, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDropRepo) InsertOrGet(ctx context.Context, drop *domain.DailyDrop) (*domain.DailyDrop, bool, error) {
	f.insertCalls++
	if f.raceWinner != nil {
		return f.raceWinner, false, nil
	}
	key := f.key(drop.Date, drop.Locale)
	if existing, ok := f.drops[key]; ok {
		return existing, false, nil
	}
	f.drops[key] = drop
	return drop, true, nil
}

func (f *fakeDropRepo) AttachChallenge(ctx context.Context, challenge *domain.DailyChallenge) error {
	if f.attachErr != nil {
		return f.attachErr
	}
	f.challenges = append(f.challenges, challenge)
	return nil
}

type fakeTexts struct {
	results []*text.Result
	errs    []error
	calls   int
}

func (f *fakeTexts) Generate(ctx context.Context, req text.Request) (*text.Result, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.results) {
		return f.results[i], nil
	}
	return &text.Result{Content: "default content", Tokens: 10, Model: "test-model"}, nil
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

func instantRetry(maxAttempts int, sleeps *[]time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff:     ExponentialBackoff,
		Sleep: func(ctx context.Context, d time.Duration) error {
			if sleeps != nil {
				*sleeps = append(*sleeps, d)
			}
			return nil
		},
	}
}

func TestGetDailyDropGeneratesThenReturnsExisting(t *testing.T) {
	repo := newFakeDropRepo()
	texts := &fakeTexts{results: []*text.Result{{Content: "fresh words", Tokens: 21, Model: "gpt-4o-mini"}}}
	gen := NewGenerator(repo, texts, &fakeDeduper{}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())

	first, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("first call returned error: %v", err)
	}
	if !first.WasGenerated {
		t.Fatal("first call must report WasGenerated=true")
	}
	if first.Drop.Content != "fresh words" || first.Drop.Tokens != 21 {
		t.Fatalf("unexpected drop %+v", first.Drop)
	}

	second, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}
	if second.WasGenerated {
		t.Fatal("second call must report WasGenerated=false")
	}
	if second.Drop.ID != first.Drop.ID {
		t.Fatal("second call must return the same underlying row")
	}
	if repo.insertCalls != 1 {
		t.Fatalf("insert calls = %d, want 1", repo.insertCalls)
	}
}

func TestGetDailyDropRaceLoserReturnsWinnersRow(t *testing.T) {
	winner := &domain.DailyDrop{ID: "winner", Date: "2026-09-01", Locale: "en", Content: "winner content"}
	repo := newFakeDropRepo()
	repo.raceWinner = winner
	gen := NewGenerator(repo, &fakeTexts{}, &fakeDeduper{}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())

	res, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("GetDailyDrop returned error: %v", err)
	}
	if res.WasGenerated {
		t.Fatal("race loser must report WasGenerated=false")
	}
	if res.Drop.ID != "winner" {
		t.Fatalf("Drop.ID = %q, want winner's row", res.Drop.ID)
	}
	if len(repo.challenges) != 0 {
		t.Fatal("race loser must not attach a challenge")
	}
}

func TestGetDailyDropRetriesOnDuplicateWithBackoff(t *testing.T) {
	repo := newFakeDropRepo()
	texts := &fakeTexts{results: []*text.Result{
		{Content: "repeat of yesterday", Tokens: 15, Model: "m"},
		{Content: "genuinely new words", Tokens: 18, Model: "m"},
	}}
	var sleeps []time.Duration
	gen := NewGenerator(repo, texts, &fakeDeduper{flags: []bool{true, false}}, cache.Noop{}, instantRetry(3, &sleeps), zerolog.Nop())

	res, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("GetDailyDrop returned error: %v", err)
	}
	if res.Drop.Content != "genuinely new words" {
		t.Fatalf("Content = %q, want the regenerated text", res.Drop.Content)
	}
	if len(sleeps) != 1 || sleeps[0] != 2*time.Second {
		t.Fatalf("sleeps = %v, want one backoff of 2s", sleeps)
	}
}

func TestGetDailyDropAcceptsDuplicateAfterExhaustion(t *testing.T) {
	repo := newFakeDropRepo()
	texts := &fakeTexts{results: []*text.Result{
		{Content: "same old", Tokens: 9, Model: "m"},
		{Content: "same old", Tokens: 9, Model: "m"},
		{Content: "same old", Tokens: 9, Model: "m"},
	}}
	gen := NewGenerator(repo, texts, &fakeDeduper{flags: []bool{true, true, true}}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())

	res, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("GetDailyDrop returned error: %v", err)
	}
	if res.Drop.Content != "same old" {
		t.Fatalf("Content = %q, want the accepted duplicate", res.Drop.Content)
	}
	if res.Drop.Model == domain.FallbackModel {
		t.Fatal("accepted duplicate must not be recorded as fallback")
	}
}

func TestGetDailyDropFallsBackDeterministically(t *testing.T) {
	failure := errors.New("provider down")
	makeGen := func() *Generator {
		texts := &fakeTexts{errs: []error{failure, failure, failure, failure}}
		return NewGenerator(newFakeDropRepo(), texts, &fakeDeduper{}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())
	}

	first, err := makeGen().GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("GetDailyDrop returned error: %v", err)
	}
	if first.Drop.Model != domain.FallbackModel {
		t.Fatalf("Model = %q, want %q", first.Drop.Model, domain.FallbackModel)
	}
	if first.Drop.Tokens != 0 || first.Drop.Cost != 0 {
		t.Fatalf("fallback accounting = tokens %d cost %v, want zero", first.Drop.Tokens, first.Drop.Cost)
	}
	if first.Drop.Content != FallbackMessage("2026-09-01", "en") {
		t.Fatalf("Content = %q, want hash-selected pool entry", first.Drop.Content)
	}

	second, err := makeGen().GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("second GetDailyDrop returned error: %v", err)
	}
	if second.Drop.Content != first.Drop.Content {
		t.Fatal("fallback content must be deterministic for the same date")
	}
}

func TestChallengeFailureDoesNotInvalidateDrop(t *testing.T) {
	repo := newFakeDropRepo()
	repo.attachErr = errors.New("challenge table unavailable")
	gen := NewGenerator(repo, &fakeTexts{}, &fakeDeduper{}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())

	res, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("GetDailyDrop returned error: %v", err)
	}
	if res.Drop.Challenge != nil {
		t.Fatal("challenge must be absent when persistence fails")
	}
	if !res.WasGenerated {
		t.Fatal("drop itself must still succeed")
	}
}

func TestChallengeUsesFallbackTaskWhenGenerationFails(t *testing.T) {
	repo := newFakeDropRepo()
	texts := &fakeTexts{
		results: []*text.Result{{Content: "drop text", Tokens: 12, Model: "m"}},
		errs:    []error{nil, errors.New("provider down")},
	}
	gen := NewGenerator(repo, texts, &fakeDeduper{}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())

	res, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("GetDailyDrop returned error: %v", err)
	}
	if res.Drop.Challenge == nil {
		t.Fatal("expected a challenge from the curated pool")
	}
	if res.Drop.Challenge.Task != FallbackChallenge("2026-09-01", "en") {
		t.Fatalf("Task = %q, want curated task", res.Drop.Challenge.Task)
	}
	if res.Drop.Challenge.Points != challengePoints {
		t.Fatalf("Points = %d, want %d", res.Drop.Challenge.Points, challengePoints)
	}
}

func TestGetDailyDropRejectsMalformedDate(t *testing.T) {
	gen := NewGenerator(newFakeDropRepo(), &fakeTexts{}, &fakeDeduper{}, cache.Noop{}, instantRetry(3, nil), zerolog.Nop())
	if _, err := gen.GetDailyDrop(context.Background(), "09/01/2026", "en"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestGetDailyDropServesFromCache(t *testing.T) {
	repo := newFakeDropRepo()
	texts := &fakeTexts{results: []*text.Result{{Content: "cache me", Tokens: 5, Model: "m"}}}
	store := cache.NewMemory(16)
	gen := NewGenerator(repo, texts, &fakeDeduper{}, store, instantRetry(3, nil), zerolog.Nop())

	if _, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en"); err != nil {
		t.Fatalf("first call returned error: %v", err)
	}
	// Wipe the repo; a cache hit should still answer.
	repo.drops = map[string]*domain.DailyDrop{}
	res, err := gen.GetDailyDrop(context.Background(), "2026-09-01", "en")
	if err != nil {
		t.Fatalf("second call returned error: %v", err)
	}
	if res.WasGenerated {
		t.Fatal("cache hit must report WasGenerated=false")
	}
	if res.Drop.Content != "cache me" {
		t.Fatalf("Content = %q, want cached content", res.Drop.Content)
	}
	if repo.insertCalls != 1 {
		t.Fatalf("insert calls = %d, want 1", repo.insertCalls)
	}
}
