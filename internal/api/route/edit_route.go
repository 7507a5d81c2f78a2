package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edulab/homeworkd/internal/api/controller"
	"github.com/edulab/homeworkd/internal/api/middleware"
	"github.com/edulab/homeworkd/internal/session"
)

func NewEditRouter(timeout time.Duration, group *gin.RouterGroup, sessions *session.Manager) {
	group.Use(middleware.RequestTimeout(timeout))

	ec := controller.NewEditController(sessions)
	group.POST("lessons/:id/edit", ec.OpenSession)
	group.GET("sessions/:id", ec.SessionStatus)
	group.POST("sessions/:id/text", ec.SubmitText)
	group.DELETE("sessions/:id", ec.CloseSession)
}
