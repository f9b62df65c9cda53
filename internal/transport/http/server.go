package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/speechroom/speechroom-server/internal/auth"
	"github.com/speechroom/speechroom-server/internal/config"
	"github.com/speechroom/speechroom-server/internal/core"
	"github.com/speechroom/speechroom-server/internal/service/progress"
	"github.com/speechroom/speechroom-server/internal/video"
)

// NewServer builds the HTTP server with REST routes and the game socket.
// videoEngine may be nil when video calls are disabled.
func NewServer(
	hub *core.Hub,
	authService *auth.Service,
	progressService *progress.Service,
	videoEngine video.Engine,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))

	apiHandlers := NewAPIHandlers(authService, logger)
	studentHandlers := NewStudentHandlers(progressService, logger)
	videoHandlers := NewVideoHandlers(progressService, videoEngine, logger)
	gameHandlers := NewGameHandlers(hub)

	router.GET("/health", apiHandlers.Health)

	api := router.Group("/api")
	api.GET("/health", apiHandlers.Health)
	api.POST("/auth/register", apiHandlers.Register)
	api.POST("/auth/login", apiHandlers.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, logger))
	{
		protected.GET("/students", studentHandlers.ListStudents)
		protected.POST("/students", studentHandlers.CreateStudent)
		protected.GET("/students/:studentId/progress", studentHandlers.Progress)

		protected.POST("/sessions", studentHandlers.CreateSession)
		protected.GET("/sessions/student/:studentId", studentHandlers.ListSessions)

		protected.GET("/dashboard/metrics", studentHandlers.Metrics)

		protected.POST("/video/rooms", videoHandlers.CreateRoom)

		protected.GET("/game/rooms", gameHandlers.Rooms)
	}

	// The socket bypasses gin: its ResponseWriter refuses to hijack once the
	// upgrade response has been written.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
