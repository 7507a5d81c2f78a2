package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/edulab/homeworkd/internal/api/middleware"
	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/logger"
	"github.com/edulab/homeworkd/internal/repository"
)

// LessonController handles lesson-related HTTP endpoints using the generic
// CRUD controller plus tag-cached listings.
type LessonController struct {
	crud  *CrudController[repository.Lesson]
	store cache.LessonStore
	tags  *cache.TagCache
}

// NewLessonController creates a new LessonController with the given cache store.
func NewLessonController(store cache.LessonStore, tags *cache.TagCache) *LessonController {
	v := validator.New()
	service := &LessonCrudService{Store: store, Tags: tags}
	validator := &LessonCrudValidator{validator: v}

	return &LessonController{
		crud: &CrudController[repository.Lesson]{
			Service:   service,
			Validator: validator,
		},
		store: store,
		tags:  tags,
	}
}

// AllLessons handles GET /lessons - returns the full lesson listing.
// The listing is cached under the "lessons" tag until a mutation invalidates it.
func (lc *LessonController) AllLessons(c *gin.Context) {
	logger.WithComponent("lesson-controller").Debugf("GET /lessons handler called")
	lc.crud.GetAll(c)
}

// MyLessons handles GET /lessons/my - returns the lessons owned by the acting
// user, cached under the actor's own tag.
func (lc *LessonController) MyLessons(c *gin.Context) {
	actor, ok := middleware.ActorFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	logger.WithComponent("lesson-controller").Debugf("GET /lessons/my handler called by %s", actor.ID)

	tag := cache.MyLessonsTag(actor.ID)
	if lc.tags != nil {
		if lessons, ok := lc.tags.Get(tag); ok {
			c.JSON(http.StatusOK, lessons)
			return
		}
	}

	doc, err := lc.store.Snapshot()
	if err != nil {
		logger.WithComponent("lesson-controller").Errorf("list my lessons: cache error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read lesson list"})
		return
	}

	mine := make([]repository.Lesson, 0)
	for _, lesson := range doc.Lessons {
		if lesson.OwnerID == actor.ID {
			mine = append(mine, lesson)
		}
	}
	if lc.tags != nil {
		lc.tags.Put(tag, mine)
	}
	c.JSON(http.StatusOK, mine)
}

// CreateOrUpdateLesson handles POST /lesson - creates or updates a lesson.
func (lc *LessonController) CreateOrUpdateLesson(c *gin.Context) {
	logger.WithComponent("lesson-controller").Debugf("POST /lesson handler called")
	lc.crud.CreateOrUpdate(c)
}

// DeleteLesson handles DELETE /lesson/:id - deletes a lesson by ID.
func (lc *LessonController) DeleteLesson(c *gin.Context) {
	id := c.Param("id")
	logger.WithComponent("lesson-controller").Debugf("DELETE /lesson/%s handler called", id)
	lc.crud.Delete(c)
}
