package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edulab/homeworkd/internal/api/controller"
	"github.com/edulab/homeworkd/internal/api/middleware"
	"github.com/edulab/homeworkd/internal/cache"
)

func NewLessonRouter(timeout time.Duration, group *gin.RouterGroup, store cache.LessonStore, tags *cache.TagCache) {
	group.Use(middleware.RequestTimeout(timeout))

	lc := controller.NewLessonController(store, tags)
	group.GET("lessons", lc.AllLessons)
	group.GET("lessons/my", lc.MyLessons)
	group.POST("lesson", lc.CreateOrUpdateLesson)
	group.DELETE("lesson/:id", lc.DeleteLesson)
}
