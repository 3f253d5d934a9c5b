// Package dedup rejects near-duplicate generations against recent
// history using cheap lexical comparison. It is a proxy for semantic
// similarity; the decision itself never involves embeddings.
package dedup

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/uplift-app/uplift-api/internal/domain"
)

const (
	defaultWindow     = 90 * 24 * time.Hour
	defaultMaxRecords = 50
	// Similarity strictly above this flags a duplicate; exactly the
	// threshold does not.
	similarityThreshold = 0.7
)

// HistoryLookup serves the recent accepted content for a locale.
type HistoryLookup interface {
	ListRecentByLocale(ctx context.Context, locale string, since time.Time, limit int) ([]string, error)
}

// Engine decides whether new content duplicates recent history.
type Engine struct {
	history    HistoryLookup
	window     time.Duration
	maxRecords int
	logger     zerolog.Logger
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithWindow overrides the default 90-day history window.
func WithWindow(window time.Duration) Option {
	return func(e *Engine) {
		e.window = window
	}
}

// WithClock injects the time source used to anchor the window.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(history HistoryLookup, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		history:    history,
		window:     defaultWindow,
		maxRecords: defaultMaxRecords,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// IsDuplicate checks content against the locale's history window. A
// failing lookup fails open: generation is never blocked by dedup
// infrastructure, only logged as degraded.
func (e *Engine) IsDuplicate(ctx context.Context, content string, category domain.Category, locale string) bool {
	since := e.now().Add(-e.window)
	recent, err := e.history.ListRecentByLocale(ctx, locale, since, e.maxRecords)
	if err != nil {
		e.logger.Warn().
			Err(err).
			Str("locale", locale).
			Str("category", string(category)).
			Msg("dedup lookup failed, failing open")
		return false
	}
	for _, prior := range recent {
		if Similar(content, prior) {
			return true
		}
	}
	return false
}

// Similar reports whether two strings match exactly (case-insensitive)
// or share more than the threshold fraction of their token sets.
func Similar(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == lb {
		return true
	}
	return Similarity(la, lb) > similarityThreshold
}

// Similarity computes token-set overlap: |A ∩ B| / max(|A|, |B|).
func Similarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			intersection++
		}
	}
	denom := len(setA)
	if len(setB) > denom {
		denom = len(setB)
	}
	return float64(intersection) / float64(denom)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(s))
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
