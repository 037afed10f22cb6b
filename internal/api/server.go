package api

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"sidetask/internal/domain"
	"sidetask/internal/service"
)

// PrefsStore is the preference half of the durable store, consumed
// directly: prefs are presentation state and bypass the
// reconciliation layer.
type PrefsStore interface {
	GetWindowPrefs(ctx context.Context) (domain.WindowPrefs, error)
	SaveWindowPrefs(ctx context.Context, prefs domain.WindowPrefs) error
	GetUIPrefs(ctx context.Context) (domain.UIPrefs, error)
	SaveUIPrefs(ctx context.Context, prefs domain.UIPrefs) error
}

// Server exposes UI intents over local HTTP for the front-end panel.
type Server struct {
	controller *service.Controller
	prefs      PrefsStore
	logger     *slog.Logger
	router     *gin.Engine
}

func NewServer(controller *service.Controller, prefs PrefsStore, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		controller: controller,
		prefs:      prefs,
		logger:     logger,
		router:     router,
	}

	apiGroup := router.Group("/api")
	{
		apiGroup.GET("/tasks", s.handleListTasks)
		apiGroup.POST("/tasks", s.handleCreateTask)
		apiGroup.PATCH("/tasks/:id", s.handlePatchTask)
		apiGroup.POST("/tasks/:id/done", s.handleMarkDone)
		apiGroup.POST("/tasks/:id/toggle", s.handleToggleCompleted)
		apiGroup.POST("/tasks/:id/cycle", s.handleSetCycleCheck)
		apiGroup.POST("/tasks/:id/title", s.handleEditTitle)
		apiGroup.POST("/tasks/:id/note", s.handleEditNote)
		apiGroup.POST("/tasks/:id/select", s.handleSelect)
		apiGroup.POST("/tasks/:id/flush-edits", s.handleFlushEdits)
		apiGroup.DELETE("/tasks/:id", s.handleDeleteTask)
		apiGroup.PUT("/tasks/order", s.handleReorder)
		apiGroup.POST("/undo", s.handleUndo)
		apiGroup.POST("/refresh", s.handleRefresh)

		apiGroup.GET("/prefs/window", s.handleGetWindowPrefs)
		apiGroup.PUT("/prefs/window", s.handleSaveWindowPrefs)
		apiGroup.GET("/prefs/ui", s.handleGetUIPrefs)
		apiGroup.PUT("/prefs/ui", s.handleSaveUIPrefs)
		apiGroup.POST("/prefs/panel-mode", s.handleSetPanelMode)
		apiGroup.POST("/prefs/always-on-top", s.handleSetAlwaysOnTop)
	}

	return s
}

// Run starts the HTTP server.
func (s *Server) Run(addr string) error {
	s.logger.Info("api listening", "addr", addr)
	return s.router.Run(addr)
}
