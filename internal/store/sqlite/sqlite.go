package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/speechroom/speechroom-server/internal/store"
)

const dsnParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1"

const schema = `
CREATE TABLE IF NOT EXISTS therapists (
	id            TEXT PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	name          TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS students (
	id           TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	therapist_id TEXT NOT NULL,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	student_id      TEXT NOT NULL,
	therapist_id    TEXT NOT NULL,
	date            DATETIME NOT NULL,
	correct_answers INTEGER NOT NULL DEFAULT 0,
	total_answers   INTEGER NOT NULL DEFAULT 0,
	percentage      REAL NOT NULL DEFAULT 0,
	notes           TEXT NOT NULL DEFAULT '',
	game_data       TEXT NOT NULL DEFAULT '{}',
	FOREIGN KEY (student_id) REFERENCES students(id)
);

CREATE INDEX IF NOT EXISTS idx_students_therapist ON students(therapist_id, created_at);
CREATE INDEX IF NOT EXISTS idx_sessions_student ON sessions(student_id, date DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_therapist ON sessions(therapist_id, date DESC);
`

// ErrDuplicate is returned when a unique constraint rejects an insert.
var ErrDuplicate = errors.New("duplicate record")

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup opens the database and runs setup instead of the default migration.
// Useful for tests that need a custom or partial schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Migrate creates the tables used by the store if they do not exist.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== TherapistStore implementation ====

// CreateTherapist inserts a therapist with an already hashed password.
func (s *SQLiteStore) CreateTherapist(ctx context.Context, email, name, passwordHash string) (*store.Therapist, error) {
	t := &store.Therapist{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO therapists (id, email, name, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.Email, t.Name, t.PasswordHash, t.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert therapist: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("insert therapist: %w", err)
	}
	return t, nil
}

// GetTherapistByID retrieves a therapist by ID.
func (s *SQLiteStore) GetTherapistByID(ctx context.Context, id string) (*store.Therapist, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM therapists
		WHERE id = ?
	`
	return s.scanTherapist(s.db.QueryRowContext(ctx, query, id))
}

// GetTherapistByEmail retrieves a therapist by login email.
func (s *SQLiteStore) GetTherapistByEmail(ctx context.Context, email string) (*store.Therapist, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM therapists
		WHERE email = ?
	`
	return s.scanTherapist(s.db.QueryRowContext(ctx, query, email))
}

func (s *SQLiteStore) scanTherapist(row *sql.Row) (*store.Therapist, error) {
	var t store.Therapist
	err := row.Scan(&t.ID, &t.Email, &t.Name, &t.PasswordHash, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("therapist: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query therapist: %w", err)
	}
	return &t, nil
}

// ==== StudentStore implementation ====

// CreateStudent adds a student to a therapist's caseload.
func (s *SQLiteStore) CreateStudent(ctx context.Context, name, therapistID string) (*store.Student, error) {
	st := &store.Student{
		ID:          uuid.NewString(),
		Name:        name,
		TherapistID: therapistID,
		CreatedAt:   time.Now().UTC(),
	}

	query := `
		INSERT INTO students (id, name, therapist_id, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, st.ID, st.Name, st.TherapistID, st.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert student: %w", err)
	}
	return st, nil
}

// GetStudent retrieves a student by ID.
func (s *SQLiteStore) GetStudent(ctx context.Context, id string) (*store.Student, error) {
	query := `
		SELECT id, name, therapist_id, created_at
		FROM students
		WHERE id = ?
	`
	var st store.Student
	err := s.db.QueryRowContext(ctx, query, id).Scan(&st.ID, &st.Name, &st.TherapistID, &st.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("student: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query student: %w", err)
	}
	return &st, nil
}

// ListStudents lists the caseload of a therapist, oldest first.
func (s *SQLiteStore) ListStudents(ctx context.Context, therapistID string) ([]*store.Student, error) {
	query := `
		SELECT id, name, therapist_id, created_at
		FROM students
		WHERE therapist_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, therapistID)
	if err != nil {
		return nil, fmt.Errorf("query students: %w", err)
	}
	defer rows.Close()

	students := make([]*store.Student, 0)
	for rows.Next() {
		var st store.Student
		if err := rows.Scan(&st.ID, &st.Name, &st.TherapistID, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, &st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}
	return students, nil
}

// ==== SessionStore implementation ====

// CreateSession persists a session, assigning its ID and percentage.
func (s *SQLiteStore) CreateSession(ctx context.Context, sess *store.Session) error {
	sess.ID = uuid.NewString()
	sess.Percentage = store.ScorePercentage(sess.CorrectAnswers, sess.TotalAnswers)
	if sess.Date.IsZero() {
		sess.Date = time.Now().UTC()
	}
	if len(sess.GameData) == 0 {
		sess.GameData = []byte("{}")
	}

	query := `
		INSERT INTO sessions (id, student_id, therapist_id, date, correct_answers, total_answers, percentage, notes, game_data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		sess.ID,
		sess.StudentID,
		sess.TherapistID,
		sess.Date.UTC(),
		sess.CorrectAnswers,
		sess.TotalAnswers,
		sess.Percentage,
		sess.Notes,
		string(sess.GameData),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// ListSessions lists the sessions of a student, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, studentID string) ([]*store.Session, error) {
	query := `
		SELECT id, student_id, therapist_id, date, correct_answers, total_answers, percentage, notes, game_data
		FROM sessions
		WHERE student_id = ?
		ORDER BY date DESC, rowid DESC
	`
	return s.querySessions(ctx, query, studentID)
}

// ListTherapistSessions lists every session run by a therapist, newest first.
func (s *SQLiteStore) ListTherapistSessions(ctx context.Context, therapistID string) ([]*store.Session, error) {
	query := `
		SELECT id, student_id, therapist_id, date, correct_answers, total_answers, percentage, notes, game_data
		FROM sessions
		WHERE therapist_id = ?
		ORDER BY date DESC, rowid DESC
	`
	return s.querySessions(ctx, query, therapistID)
}

func (s *SQLiteStore) querySessions(ctx context.Context, query string, arg string) ([]*store.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]*store.Session, 0)
	for rows.Next() {
		var sess store.Session
		var gameData string
		if err := rows.Scan(
			&sess.ID,
			&sess.StudentID,
			&sess.TherapistID,
			&sess.Date,
			&sess.CorrectAnswers,
			&sess.TotalAnswers,
			&sess.Percentage,
			&sess.Notes,
			&gameData,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.GameData = []byte(gameData)
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
