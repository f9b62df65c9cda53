package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/speechroom/speechroom-server/internal/store"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewWithSetup(":memory:", Migrate)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestTherapistLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateTherapist(ctx, "ana@example.com", "Ana", "hash")
	if err != nil {
		t.Fatalf("create therapist: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	byEmail, err := s.GetTherapistByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if byEmail.ID != created.ID || byEmail.Name != "Ana" || byEmail.PasswordHash != "hash" {
		t.Fatalf("unexpected therapist: %+v", byEmail)
	}

	if _, err := s.CreateTherapist(ctx, "ana@example.com", "Other", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := s.GetTherapistByID(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStudentsAreScopedByTherapist(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Ana García", "Carlos López"} {
		if _, err := s.CreateStudent(ctx, name, "therapist-1"); err != nil {
			t.Fatalf("create student %s: %v", name, err)
		}
	}
	if _, err := s.CreateStudent(ctx, "Someone Else", "therapist-2"); err != nil {
		t.Fatalf("create student: %v", err)
	}

	students, err := s.ListStudents(ctx, "therapist-1")
	if err != nil {
		t.Fatalf("list students: %v", err)
	}
	if len(students) != 2 || students[0].Name != "Ana García" || students[1].Name != "Carlos López" {
		t.Fatalf("unexpected students: %+v", students)
	}

	got, err := s.GetStudent(ctx, students[1].ID)
	if err != nil {
		t.Fatalf("get student: %v", err)
	}
	if got.TherapistID != "therapist-1" {
		t.Fatalf("unexpected student: %+v", got)
	}

	empty, err := s.ListStudents(ctx, "nobody")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty caseload, got %v, %v", empty, err)
	}
}

func TestSessionsComputePercentageAndSortNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	student, err := s.CreateStudent(ctx, "Ana García", "therapist-1")
	if err != nil {
		t.Fatalf("create student: %v", err)
	}

	older := &store.Session{
		StudentID:      student.ID,
		TherapistID:    "therapist-1",
		Date:           time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC),
		CorrectAnswers: 6,
		TotalAnswers:   10,
		Notes:          "needs practice with R sounds",
	}
	newer := &store.Session{
		StudentID:      student.ID,
		TherapistID:    "therapist-1",
		Date:           time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		CorrectAnswers: 8,
		TotalAnswers:   10,
		GameData:       []byte(`{"score":80,"currentWord":"GATO"}`),
	}
	empty := &store.Session{StudentID: student.ID, TherapistID: "therapist-1", Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	for _, sess := range []*store.Session{older, newer, empty} {
		if err := s.CreateSession(ctx, sess); err != nil {
			t.Fatalf("create session: %v", err)
		}
	}
	if newer.Percentage != 80 || empty.Percentage != 0 {
		t.Fatalf("unexpected percentages: %v %v", newer.Percentage, empty.Percentage)
	}

	sessions, err := s.ListSessions(ctx, student.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != newer.ID || sessions[1].ID != older.ID || sessions[2].ID != empty.ID {
		t.Fatalf("sessions not ordered newest first")
	}
	if sessions[1].Percentage != 60 || sessions[1].Notes != "needs practice with R sounds" {
		t.Fatalf("unexpected session: %+v", sessions[1])
	}
	if string(sessions[0].GameData) != `{"score":80,"currentWord":"GATO"}` || string(sessions[2].GameData) != `{}` {
		t.Fatalf("unexpected game data: %s / %s", sessions[0].GameData, sessions[2].GameData)
	}
	if !sessions[0].Date.Equal(newer.Date) {
		t.Fatalf("date round trip: %v != %v", sessions[0].Date, newer.Date)
	}

	byTherapist, err := s.ListTherapistSessions(ctx, "therapist-1")
	if err != nil || len(byTherapist) != 3 {
		t.Fatalf("list therapist sessions: %v, %d", err, len(byTherapist))
	}
}

func TestCreateSessionRequiresKnownStudent(t *testing.T) {
	s := newTestStore(t)

	err := s.CreateSession(context.Background(), &store.Session{StudentID: "missing", TherapistID: "t", TotalAnswers: 1})
	if err == nil {
		t.Fatalf("expected foreign key violation")
	}
}
