package controller

import (
	"net/http"

	"github.com/containerd/errdefs"
	"github.com/gin-gonic/gin"

	"github.com/edulab/homeworkd/internal/api/middleware"
	"github.com/edulab/homeworkd/internal/autosave"
	"github.com/edulab/homeworkd/internal/logger"
	"github.com/edulab/homeworkd/internal/session"
)

// EditController exposes homework edit sessions over HTTP. Opening a session
// is permission-gated; a denied actor gets the same 404 as a missing lesson,
// so the edit surface is hidden rather than disabled.
type EditController struct {
	sessions *session.Manager
}

// NewEditController creates a new EditController backed by the session manager.
func NewEditController(sessions *session.Manager) *EditController {
	return &EditController{sessions: sessions}
}

// textPayload carries one homework text edit. The pointer keeps "text set to
// empty string" distinguishable from "text missing".
type textPayload struct {
	HomeworkText *string `json:"homework_text" binding:"required"`
}

func sessionBody(s *session.Session) gin.H {
	return gin.H{
		"session_id":    s.ID,
		"lesson_id":     s.LessonID,
		"homework_text": s.Controller.Text(),
		"status":        s.Controller.Status().String(),
		"placeholder":   autosave.Placeholder,
	}
}

// OpenSession handles POST /lessons/:id/edit - opens an edit session.
func (ec *EditController) OpenSession(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	lessonID := c.Param("id")
	logger.WithComponent("edit-controller").Debugf("POST /lessons/%s/edit handler called by %s", lessonID, actor.ID)

	s, err := ec.sessions.Open(actor, lessonID)
	if err != nil {
		// Permission denial and a missing lesson are indistinguishable on
		// the wire.
		if errdefs.IsNotFound(err) || errdefs.IsPermissionDenied(err) {
			logger.WithComponent("edit-controller").Debugf("open session for lesson %s: %v", lessonID, err)
			c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
			return
		}
		logger.WithComponent("edit-controller").Errorf("open session for lesson %s: %v", lessonID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open edit session"})
		return
	}

	c.JSON(http.StatusCreated, sessionBody(s))
}

// SessionStatus handles GET /sessions/:id - returns the session state.
func (ec *EditController) SessionStatus(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	s, err := ec.sessions.Get(c.Param("id"), actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	c.JSON(http.StatusOK, sessionBody(s))
}

// SubmitText handles POST /sessions/:id/text - applies one homework text edit.
// The save itself is debounced; 202 means the edit is queued, not persisted.
func (ec *EditController) SubmitText(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	var payload textPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	id := c.Param("id")
	if err := ec.sessions.Input(id, actor, *payload.HomeworkText); err != nil {
		if errdefs.IsNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		logger.WithComponent("edit-controller").Errorf("input for session %s: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply edit"})
		return
	}

	s, err := ec.sessions.Get(id, actor)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"session_id": s.ID,
		"status":     s.Controller.Status().String(),
	})
}

// CloseSession handles DELETE /sessions/:id - abandons the session.
// A pending, unsaved edit is dropped, matching an editor being dismissed.
func (ec *EditController) CloseSession(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	id := c.Param("id")
	logger.WithComponent("edit-controller").Debugf("DELETE /sessions/%s handler called", id)
	if err := ec.sessions.Close(id, actor); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.Status(http.StatusNoContent)
}
