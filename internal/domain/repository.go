package domain

import (
	"context"
	"time"
)

// UserRepository defines access methods for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	TouchActivity(ctx context.Context, id string, at time.Time) error
	AwardPoints(ctx context.Context, id string, points int) (*User, error)
}

// MessageRepository persists accepted generations and serves the
// dedup history window.
type MessageRepository interface {
	Create(ctx context.Context, msg *GeneratedMessage) error
	ListRecentByLocale(ctx context.Context, locale string, since time.Time, limit int) ([]string, error)
	CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// DailyDropRepository persists daily drops. InsertOrGet must be atomic
// under the (date, locale) uniqueness constraint: the loser of a race
// receives the winner's row with inserted=false.
type DailyDropRepository interface {
	Get(ctx context.Context, date, locale string) (*DailyDrop, error)
	InsertOrGet(ctx context.Context, drop *DailyDrop) (*DailyDrop, bool, error)
	AttachChallenge(ctx context.Context, challenge *DailyChallenge) error
}
