package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Therapist is a dashboard user who runs therapy sessions.
type Therapist struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Student belongs to one therapist's caseload.
type Student struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TherapistID string    `json:"therapistId"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Session is the persisted outcome of one therapy session.
type Session struct {
	ID             string          `json:"id"`
	StudentID      string          `json:"studentId"`
	TherapistID    string          `json:"therapistId"`
	Date           time.Time       `json:"date"`
	CorrectAnswers int             `json:"correctAnswers"`
	TotalAnswers   int             `json:"totalAnswers"`
	Percentage     float64         `json:"percentage"`
	Notes          string          `json:"notes"`
	GameData       json.RawMessage `json:"gameData,omitempty"`
}

// ScorePercentage returns correct/total as a percentage, 0 when nothing was answered.
func ScorePercentage(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(correct) / float64(total) * 100
}

// TherapistStore handles therapist account persistence.
type TherapistStore interface {
	// CreateTherapist inserts a therapist with an already hashed password.
	CreateTherapist(ctx context.Context, email, name, passwordHash string) (*Therapist, error)

	// GetTherapistByID retrieves a therapist by ID.
	GetTherapistByID(ctx context.Context, id string) (*Therapist, error)

	// GetTherapistByEmail retrieves a therapist by login email.
	GetTherapistByEmail(ctx context.Context, email string) (*Therapist, error)
}

// StudentStore handles student persistence.
type StudentStore interface {
	// CreateStudent adds a student to a therapist's caseload.
	CreateStudent(ctx context.Context, name, therapistID string) (*Student, error)

	// GetStudent retrieves a student by ID.
	GetStudent(ctx context.Context, id string) (*Student, error)

	// ListStudents lists the caseload of a therapist, oldest first.
	ListStudents(ctx context.Context, therapistID string) ([]*Student, error)
}

// SessionStore handles therapy session persistence.
type SessionStore interface {
	// CreateSession persists a session. ID and Percentage are filled in by the store,
	// Date defaults to now when zero.
	CreateSession(ctx context.Context, s *Session) error

	// ListSessions lists the sessions of a student, newest first.
	ListSessions(ctx context.Context, studentID string) ([]*Session, error)

	// ListTherapistSessions lists every session run by a therapist, newest first.
	ListTherapistSessions(ctx context.Context, therapistID string) ([]*Session, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	TherapistStore
	StudentStore
	SessionStore

	// Close closes the underlying database connection.
	Close() error
}
