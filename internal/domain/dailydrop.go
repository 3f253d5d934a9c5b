package domain

import "time"

// FallbackModel is the sentinel model identifier recorded when curated
// static content is persisted instead of an AI generation.
const FallbackModel = "fallback"

// DailyDrop is the single shared message published per (date, locale).
// Date is a calendar day formatted as 2006-01-02.
type DailyDrop struct {
	ID        string
	Date      string
	Locale    string
	Content   string
	Category  Category
	Tokens    int
	Cost      float64
	Model     string
	Challenge *DailyChallenge
	CreatedAt time.Time
}

// DailyChallenge is the optional short task attached to a daily drop.
type DailyChallenge struct {
	ID     string
	Date   string
	Locale string
	Task   string
	Points int
}

// DailyDropResult wraps a drop with whether this call produced it.
type DailyDropResult struct {
	Drop         *DailyDrop
	WasGenerated bool
}
