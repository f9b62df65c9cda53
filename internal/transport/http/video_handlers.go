package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speechroom/speechroom-server/internal/service/progress"
	"github.com/speechroom/speechroom-server/internal/video"
)

// VideoHandlers issues join credentials for therapy video rooms.
type VideoHandlers struct {
	progress *progress.Service
	engine   video.Engine
	log      *zerolog.Logger
}

// NewVideoHandlers creates video handlers. engine may be nil when video is disabled.
func NewVideoHandlers(progressService *progress.Service, engine video.Engine, logger *zerolog.Logger) *VideoHandlers {
	return &VideoHandlers{
		progress: progressService,
		engine:   engine,
		log:      logger,
	}
}

// CreateVideoRoomRequest represents the body of POST /api/video/rooms.
// Role selects whose credentials are issued; the therapist hands the student
// token to the student's device.
type CreateVideoRoomRequest struct {
	StudentID string `json:"studentId" binding:"required"`
	Role      string `json:"role" binding:"omitempty,oneof=therapist student"`
}

// CreateRoom returns join info for the video room of a student and the current therapist.
// POST /api/video/rooms
func (h *VideoHandlers) CreateRoom(c *gin.Context) {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "video calls are not enabled"})
		return
	}

	var req CreateVideoRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	tid := therapistID(c)
	student, err := h.progress.Student(ctx, tid, req.StudentID)
	if err != nil {
		if errors.Is(err, progress.ErrStudentNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "student not found"})
			return
		}
		h.log.Error().Err(err).Str("student_id", req.StudentID).Msg("failed to load student")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	roomName := video.RoomName(req.StudentID, tid)
	identity, name := "therapist-"+tid, c.GetString(ContextKeyTherapistName)
	if req.Role == "student" {
		identity, name = "student-"+student.ID, student.Name
	}

	info, err := h.engine.JoinInfo(ctx, roomName, identity, name)
	if err != nil {
		h.log.Error().Err(err).Str("room", roomName).Msg("failed to create video join info")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, info)
}
