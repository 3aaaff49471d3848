package store

import (
	"encoding/json"
	"time"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

type Essay struct {
	ID        string    `json:"id"` // Using UUID for external ID
	UserID    int64     `json:"user_id"`
	Topic     string    `json:"topic"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

type Correction struct {
	ID        string          `json:"id"` // Using UUID for external ID
	EssayID   string          `json:"essay_id"`
	Total     int             `json:"total"`
	Grade     json.RawMessage `json:"grade"` // Stored as JSON string in grade_json
	CreatedAt time.Time       `json:"created_at"`
}

// EssayWithCorrection pairs an essay with its most recent correction.
// Latest is nil for essays that were never successfully graded.
type EssayWithCorrection struct {
	Essay  Essay       `json:"essay"`
	Latest *Correction `json:"latest_correction"`
}
