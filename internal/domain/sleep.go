package domain

import "time"

// Sleep quality bounds. Quality is a subjective 1-5 rating.
const (
	SleepQualityMin = 1
	SleepQualityMax = 5
)

// SleepEntry is a recorded sleep period owned by an anonymous account.
type SleepEntry struct {
	ID        string // ULID
	AccountID string
	StartedAt time.Time
	EndedAt   time.Time
	Quality   int
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
