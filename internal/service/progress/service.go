package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/speechroom/speechroom-server/internal/store"
)

var (
	// ErrStudentNotFound is returned when the student does not exist or belongs to another therapist.
	ErrStudentNotFound = errors.New("student not found")
	// ErrInvalidName is returned when a student name is empty or too long.
	ErrInvalidName = errors.New("invalid student name")
	// ErrInvalidScore is returned when answer counts are negative or inconsistent.
	ErrInvalidScore = errors.New("invalid score")
)

const maxNameLength = 100

// Stats summarizes the sessions of one student.
type Stats struct {
	TotalSessions     int            `json:"totalSessions"`
	AveragePercentage float64        `json:"averagePercentage"`
	LastSession       *store.Session `json:"lastSession,omitempty"`
}

// Report is the progress of one student.
type Report struct {
	Student  *store.Student   `json:"student"`
	Sessions []*store.Session `json:"sessions"`
	Stats    Stats            `json:"stats"`
}

// Metrics are the dashboard totals of a therapist.
type Metrics struct {
	TotalStudents     int     `json:"totalStudents"`
	TotalSessions     int     `json:"totalSessions"`
	AveragePercentage float64 `json:"averagePercentage"`
}

// NewSession is the input of RecordSession.
type NewSession struct {
	StudentID      string
	CorrectAnswers int
	TotalAnswers   int
	Notes          string
	GameData       json.RawMessage
	Date           time.Time
}

// Service provides student, session and progress business logic.
type Service struct {
	students store.StudentStore
	sessions store.SessionStore
}

// New creates a new progress service.
func New(students store.StudentStore, sessions store.SessionStore) *Service {
	return &Service{students: students, sessions: sessions}
}

// AddStudent adds a student to the caseload of therapistID.
func (s *Service) AddStudent(ctx context.Context, therapistID, name string) (*store.Student, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxNameLength {
		return nil, ErrInvalidName
	}
	return s.students.CreateStudent(ctx, name, therapistID)
}

// Students lists the caseload of therapistID.
func (s *Service) Students(ctx context.Context, therapistID string) ([]*store.Student, error) {
	return s.students.ListStudents(ctx, therapistID)
}

// Student returns a student owned by therapistID.
func (s *Service) Student(ctx context.Context, therapistID, studentID string) (*store.Student, error) {
	st, err := s.students.GetStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, err
	}
	if st.TherapistID != therapistID {
		return nil, ErrStudentNotFound
	}
	return st, nil
}

// RecordSession stores the outcome of a session run by therapistID.
func (s *Service) RecordSession(ctx context.Context, therapistID string, in NewSession) (*store.Session, error) {
	if in.CorrectAnswers < 0 || in.TotalAnswers < 0 || in.CorrectAnswers > in.TotalAnswers {
		return nil, ErrInvalidScore
	}
	if _, err := s.Student(ctx, therapistID, in.StudentID); err != nil {
		return nil, err
	}

	sess := &store.Session{
		StudentID:      in.StudentID,
		TherapistID:    therapistID,
		Date:           in.Date,
		CorrectAnswers: in.CorrectAnswers,
		TotalAnswers:   in.TotalAnswers,
		Notes:          in.Notes,
		GameData:       in.GameData,
	}
	if err := s.sessions.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("record session: %w", err)
	}
	return sess, nil
}

// Sessions lists the sessions of a student owned by therapistID, newest first.
func (s *Service) Sessions(ctx context.Context, therapistID, studentID string) ([]*store.Session, error) {
	if _, err := s.Student(ctx, therapistID, studentID); err != nil {
		return nil, err
	}
	return s.sessions.ListSessions(ctx, studentID)
}

// Progress builds the progress report of a student owned by therapistID.
func (s *Service) Progress(ctx context.Context, therapistID, studentID string) (*Report, error) {
	st, err := s.Student(ctx, therapistID, studentID)
	if err != nil {
		return nil, err
	}
	sessions, err := s.sessions.ListSessions(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	stats := Stats{
		TotalSessions:     len(sessions),
		AveragePercentage: averagePercentage(sessions),
	}
	if len(sessions) > 0 {
		stats.LastSession = sessions[0]
	}

	return &Report{Student: st, Sessions: sessions, Stats: stats}, nil
}

// Caseload returns the dashboard metrics of therapistID.
func (s *Service) Caseload(ctx context.Context, therapistID string) (*Metrics, error) {
	students, err := s.students.ListStudents(ctx, therapistID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	sessions, err := s.sessions.ListTherapistSessions(ctx, therapistID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return &Metrics{
		TotalStudents:     len(students),
		TotalSessions:     len(sessions),
		AveragePercentage: averagePercentage(sessions),
	}, nil
}

func averagePercentage(sessions []*store.Session) float64 {
	if len(sessions) == 0 {
		return 0
	}
	var sum float64
	for _, sess := range sessions {
		sum += sess.Percentage
	}
	return sum / float64(len(sessions))
}
