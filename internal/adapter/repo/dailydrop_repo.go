package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/uplift-app/uplift-api/internal/domain"
)

// DailyDropRepositoryPG implements domain.DailyDropRepository backed by
// PostgreSQL. The (date, locale) uniqueness constraint on daily_drops
// is the correctness guard for concurrent generation.
type DailyDropRepositoryPG struct {
	db Querier
}

// NewDailyDropRepository creates a new DailyDropRepositoryPG.
func NewDailyDropRepository(db Querier) *DailyDropRepositoryPG {
	return &DailyDropRepositoryPG{db: db}
}

const dropColumns = `d.id, d.date, d.locale, d.content, d.category, d.tokens, d.cost, d.model, d.created_at`

// Get fetches the drop for a (date, locale), including its challenge
// when one exists.
func (r *DailyDropRepositoryPG) Get(ctx context.Context, date, locale string) (*domain.DailyDrop, error) {
	row := r.db.QueryRow(ctx, `
SELECT `+dropColumns+`, c.id, c.task, c.points
FROM daily_drops d
LEFT JOIN daily_challenges c ON c.date = d.date AND c.locale = d.locale
WHERE d.date = $1 AND d.locale = $2`, date, locale)
	return scanDrop(row)
}

// InsertOrGet atomically inserts the drop or, when another process won
// the race, fetches and returns the existing row. The insert is the
// authority; callers treat the pre-check as an optimization only.
func (r *DailyDropRepositoryPG) InsertOrGet(ctx context.Context, drop *domain.DailyDrop) (*domain.DailyDrop, bool, error) {
	tag, err := r.db.Exec(ctx, `
INSERT INTO daily_drops (id, date, locale, content, category, tokens, cost, model, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (date, locale) DO NOTHING`,
		drop.ID,
		drop.Date,
		drop.Locale,
		drop.Content,
		drop.Category,
		drop.Tokens,
		drop.Cost,
		drop.Model,
		drop.CreatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert daily drop: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return drop, true, nil
	}
	existing, err := r.Get(ctx, drop.Date, drop.Locale)
	if err != nil {
		return nil, false, fmt.Errorf("fetch winning daily drop row: %w", err)
	}
	return existing, false, nil
}

// AttachChallenge persists the day's challenge, idempotent under the
// (date, locale) constraint.
func (r *DailyDropRepositoryPG) AttachChallenge(ctx context.Context, challenge *domain.DailyChallenge) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO daily_challenges (id, date, locale, task, points)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (date, locale) DO NOTHING`,
		challenge.ID,
		challenge.Date,
		challenge.Locale,
		challenge.Task,
		challenge.Points,
	)
	return err
}

func scanDrop(row pgx.Row) (*domain.DailyDrop, error) {
	var d domain.DailyDrop
	var challengeID, challengeTask *string
	var challengePoints *int
	if err := row.Scan(
		&d.ID,
		&d.Date,
		&d.Locale,
		&d.Content,
		&d.Category,
		&d.Tokens,
		&d.Cost,
		&d.Model,
		&d.CreatedAt,
		&challengeID,
		&challengeTask,
		&challengePoints,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if challengeID != nil && challengeTask != nil && challengePoints != nil {
		d.Challenge = &domain.DailyChallenge{
			ID:     *challengeID,
			Date:   d.Date,
			Locale: d.Locale,
			Task:   *challengeTask,
			Points: *challengePoints,
		}
	}
	return &d, nil
}

var _ domain.DailyDropRepository = (*DailyDropRepositoryPG)(nil)
