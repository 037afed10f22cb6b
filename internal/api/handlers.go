package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sidetask/internal/domain"
)

func (s *Server) renderError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		// Store failures: the controller already surfaced its one
		// visible message and refreshed.
		c.JSON(http.StatusBadGateway, gin.H{"error": s.controller.VisibleError()})
	}
}

type listResponse struct {
	Tasks      []domain.Task `json:"tasks"`
	SelectedID string        `json:"selectedId"`
	Error      string        `json:"error,omitempty"`
}

func (s *Server) listState() listResponse {
	return listResponse{
		Tasks:      s.controller.Tasks(),
		SelectedID: s.controller.SelectedID(),
		Error:      s.controller.VisibleError(),
	}
}

func (s *Server) handleListTasks(c *gin.Context) {
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var input domain.CreateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	task, err := s.controller.Create(c.Request.Context(), input)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handlePatchTask(c *gin.Context) {
	var input domain.UpdateTaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.controller.Patch(c.Request.Context(), c.Param("id"), input); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleMarkDone(c *gin.Context) {
	if err := s.controller.MarkDone(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleToggleCompleted(c *gin.Context) {
	if err := s.controller.ToggleCompleted(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleSetCycleCheck(c *gin.Context) {
	var body struct {
		Satisfied bool `json:"satisfied"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.controller.SetCycleCheck(c.Request.Context(), c.Param("id"), body.Satisfied); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

// handleEditTitle feeds a keystroke-level title edit into the
// debouncer. The patch commits only after the value settles.
func (s *Server) handleEditTitle(c *gin.Context) {
	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.controller.EditTitle(c.Param("id"), body.Value)
	c.JSON(http.StatusAccepted, gin.H{"pending": true})
}

func (s *Server) handleEditNote(c *gin.Context) {
	var body struct {
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	s.controller.EditNote(c.Param("id"), body.Value)
	c.JSON(http.StatusAccepted, gin.H{"pending": true})
}

func (s *Server) handleSelect(c *gin.Context) {
	s.controller.Select(c.Param("id"))
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleFlushEdits(c *gin.Context) {
	s.controller.FlushEdits(c.Param("id"))
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.controller.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleReorder(c *gin.Context) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.controller.Reorder(c.Request.Context(), body.IDs); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleUndo(c *gin.Context) {
	restored := s.controller.Undo()
	c.JSON(http.StatusOK, gin.H{
		"restored":   restored,
		"tasks":      s.controller.Tasks(),
		"selectedId": s.controller.SelectedID(),
	})
}

func (s *Server) handleRefresh(c *gin.Context) {
	if err := s.controller.Refresh(c.Request.Context(), ""); err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.listState())
}

func (s *Server) handleGetWindowPrefs(c *gin.Context) {
	prefs, err := s.prefs.GetWindowPrefs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleSaveWindowPrefs(c *gin.Context) {
	var prefs domain.WindowPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.prefs.SaveWindowPrefs(c.Request.Context(), prefs); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleGetUIPrefs(c *gin.Context) {
	prefs, err := s.prefs.GetUIPrefs(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleSaveUIPrefs(c *gin.Context) {
	var prefs domain.UIPrefs
	if err := c.ShouldBindJSON(&prefs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.prefs.SaveUIPrefs(c.Request.Context(), prefs); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

// handleSetPanelMode switches between the fixed mini and expanded
// panel geometries and persists the result.
func (s *Server) handleSetPanelMode(c *gin.Context) {
	var body struct {
		Mode domain.PanelMode `json:"mode"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if body.Mode != domain.PanelMini && body.Mode != domain.PanelExpanded {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown panel mode"})
		return
	}

	ctx := c.Request.Context()
	prefs, err := s.prefs.GetWindowPrefs(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	prefs.Mode = body.Mode
	prefs.Width, prefs.Height = domain.PanelSize(body.Mode)
	if err := s.prefs.SaveWindowPrefs(ctx, prefs); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}

func (s *Server) handleSetAlwaysOnTop(c *gin.Context) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	prefs, err := s.prefs.GetWindowPrefs(ctx)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	prefs.AlwaysOnTop = body.Enabled
	if err := s.prefs.SaveWindowPrefs(ctx, prefs); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prefs)
}
