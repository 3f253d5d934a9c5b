package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/uplift-app/uplift-api/internal/domain"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	db Querier
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(db Querier) *UserRepositoryPG {
	return &UserRepositoryPG{db: db}
}

const userColumns = `id, email, tier, points, streak, premium_expires_at, voice_pack_expires_at, last_activity_at, preferred_categories, timezone, locale, created_at, updated_at`

// GetByID fetches a user by identifier.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// TouchActivity records the user's latest generation activity.
func (r *UserRepositoryPG) TouchActivity(ctx context.Context, id string, at time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET last_activity_at = $2, updated_at = NOW() WHERE id = $1`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AwardPoints increments the user's point balance and returns the
// updated row.
func (r *UserRepositoryPG) AwardPoints(ctx context.Context, id string, points int) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
UPDATE users
SET points = points + $2, updated_at = NOW()
WHERE id = $1
RETURNING `+userColumns, id, points)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var categories []string
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Tier,
		&u.Points,
		&u.Streak,
		&u.PremiumExpiresAt,
		&u.VoicePackExpiresAt,
		&u.LastActivityAt,
		&categories,
		&u.Timezone,
		&u.Locale,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.PreferredCategories = make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		u.PreferredCategories = append(u.PreferredCategories, domain.Category(c))
	}
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
