package repo

import (
	"context"
	"time"

	"github.com/uplift-app/uplift-api/internal/domain"
)

// MessageRepositoryPG implements domain.MessageRepository backed by
// PostgreSQL.
type MessageRepositoryPG struct {
	db Querier
}

// NewMessageRepository creates a new MessageRepositoryPG.
func NewMessageRepository(db Querier) *MessageRepositoryPG {
	return &MessageRepositoryPG{db: db}
}

// Create persists one accepted generation.
func (r *MessageRepositoryPG) Create(ctx context.Context, msg *domain.GeneratedMessage) error {
	_, err := r.db.Exec(ctx, `
INSERT INTO generated_messages (id, user_id, content, category, locale, tokens, cost, model, time_of_day, weather, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11)`,
		msg.ID,
		msg.UserID,
		msg.Content,
		msg.Category,
		msg.Locale,
		msg.Tokens,
		msg.Cost,
		msg.Model,
		string(msg.TimeOfDay),
		string(msg.Weather),
		msg.CreatedAt,
	)
	return err
}

// ListRecentByLocale returns the newest accepted content for a locale
// within the window, capped at limit. Daily drops count as history too,
// so consecutive days' drops are checked against each other. Only
// content strings are needed by the dedup engine.
func (r *MessageRepositoryPG) ListRecentByLocale(ctx context.Context, locale string, since time.Time, limit int) ([]string, error) {
	rows, err := r.db.Query(ctx, `
SELECT content FROM (
	SELECT content, created_at
	FROM generated_messages
	WHERE locale = $1 AND created_at >= $2
	UNION ALL
	SELECT content, created_at
	FROM daily_drops
	WHERE locale = $1 AND created_at >= $2
) recent
ORDER BY created_at DESC
LIMIT $3`, locale, since, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, err
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}

// CountForUserSince counts the user's generations since the given
// instant.
func (r *MessageRepositoryPG) CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	row := r.db.QueryRow(ctx, `
SELECT COUNT(*)
FROM generated_messages
WHERE user_id = $1 AND created_at >= $2`, userID, since)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ domain.MessageRepository = (*MessageRepositoryPG)(nil)
