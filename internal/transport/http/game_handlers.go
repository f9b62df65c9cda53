package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/speechroom/speechroom-server/internal/core"
)

// GameHandlers exposes read-only views of the live game hub.
type GameHandlers struct {
	hub *core.Hub
}

// NewGameHandlers creates game handlers.
func NewGameHandlers(hub *core.Hub) *GameHandlers {
	return &GameHandlers{hub: hub}
}

// RoomsResponse is the body of GET /api/game/rooms.
type RoomsResponse struct {
	Rooms       int `json:"rooms"`
	Connections int `json:"connections"`
}

// Rooms returns the number of live game rooms.
// GET /api/game/rooms
func (h *GameHandlers) Rooms(c *gin.Context) {
	stats, err := h.hub.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "game hub unavailable"})
		return
	}
	c.JSON(http.StatusOK, RoomsResponse{Rooms: stats.Rooms, Connections: stats.Connections})
}
