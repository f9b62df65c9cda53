package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speechroom/speechroom-server/internal/service/progress"
)

// StudentHandlers provides caseload, session and progress endpoints.
type StudentHandlers struct {
	progress *progress.Service
	log      *zerolog.Logger
}

// NewStudentHandlers creates a new student handlers instance.
func NewStudentHandlers(progressService *progress.Service, logger *zerolog.Logger) *StudentHandlers {
	return &StudentHandlers{
		progress: progressService,
		log:      logger,
	}
}

// CreateStudentRequest represents the body of POST /api/students.
type CreateStudentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
}

// CreateSessionRequest represents the body of POST /api/sessions.
type CreateSessionRequest struct {
	StudentID      string          `json:"studentId" binding:"required"`
	CorrectAnswers int             `json:"correctAnswers"`
	TotalAnswers   int             `json:"totalAnswers"`
	Notes          string          `json:"notes"`
	GameData       json.RawMessage `json:"gameData"`
	Date           *time.Time      `json:"date"`
}

// ListStudents returns the caseload of the current therapist.
// GET /api/students
func (h *StudentHandlers) ListStudents(c *gin.Context) {
	students, err := h.progress.Students(c.Request.Context(), therapistID(c))
	if err != nil {
		h.internalError(c, err, "failed to list students")
		return
	}
	c.JSON(http.StatusOK, students)
}

// CreateStudent adds a student to the current therapist's caseload.
// POST /api/students
func (h *StudentHandlers) CreateStudent(c *gin.Context) {
	var req CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	student, err := h.progress.AddStudent(c.Request.Context(), therapistID(c), req.Name)
	if err != nil {
		if errors.Is(err, progress.ErrInvalidName) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.internalError(c, err, "failed to create student")
		return
	}

	h.log.Info().Str("student_id", student.ID).Str("therapist_id", student.TherapistID).Msg("student created")
	c.JSON(http.StatusCreated, student)
}

// Progress returns the progress report of a student.
// GET /api/students/:studentId/progress
func (h *StudentHandlers) Progress(c *gin.Context) {
	report, err := h.progress.Progress(c.Request.Context(), therapistID(c), c.Param("studentId"))
	if err != nil {
		h.serviceError(c, err, "failed to build progress report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// CreateSession records the outcome of a therapy session.
// POST /api/sessions
func (h *StudentHandlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	in := progress.NewSession{
		StudentID:      req.StudentID,
		CorrectAnswers: req.CorrectAnswers,
		TotalAnswers:   req.TotalAnswers,
		Notes:          req.Notes,
		GameData:       req.GameData,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}

	session, err := h.progress.RecordSession(c.Request.Context(), therapistID(c), in)
	if err != nil {
		h.serviceError(c, err, "failed to record session")
		return
	}

	h.log.Info().
		Str("session_id", session.ID).
		Str("student_id", session.StudentID).
		Float64("percentage", session.Percentage).
		Msg("session recorded")
	c.JSON(http.StatusCreated, session)
}

// ListSessions returns the sessions of a student, newest first.
// GET /api/sessions/student/:studentId
func (h *StudentHandlers) ListSessions(c *gin.Context) {
	sessions, err := h.progress.Sessions(c.Request.Context(), therapistID(c), c.Param("studentId"))
	if err != nil {
		h.serviceError(c, err, "failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// Metrics returns the dashboard totals of the current therapist.
// GET /api/dashboard/metrics
func (h *StudentHandlers) Metrics(c *gin.Context) {
	metrics, err := h.progress.Caseload(c.Request.Context(), therapistID(c))
	if err != nil {
		h.internalError(c, err, "failed to compute metrics")
		return
	}
	c.JSON(http.StatusOK, metrics)
}

func (h *StudentHandlers) serviceError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, progress.ErrStudentNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "student not found"})
	case errors.Is(err, progress.ErrInvalidScore):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	default:
		h.internalError(c, err, msg)
	}
}

func (h *StudentHandlers) internalError(c *gin.Context, err error, msg string) {
	h.log.Error().Err(err).Str("therapist_id", therapistID(c)).Msg(msg)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
