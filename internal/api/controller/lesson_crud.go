package controller

import (
	"github.com/go-playground/validator/v10"

	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/repository"
)

// LessonCrudService implements CrudService for lessons. Mutations invalidate
// the listing tags the touched lesson participates in.
type LessonCrudService struct {
	Store cache.LessonStore
	Tags  *cache.TagCache
}

// All reads through the "lessons" tag: a cached listing is served as-is, a
// miss recomputes from the store and warms the tag.
func (s *LessonCrudService) All() ([]repository.Lesson, error) {
	if s.Tags != nil {
		if lessons, ok := s.Tags.Get(cache.TagLessons); ok {
			return lessons, nil
		}
	}
	doc, err := s.Store.Snapshot()
	if err != nil {
		return nil, err
	}
	if s.Tags != nil {
		s.Tags.Put(cache.TagLessons, doc.Lessons)
	}
	return doc.Lessons, nil
}

func (s *LessonCrudService) Add(item repository.Lesson) ([]repository.Lesson, error) {
	doc, err := s.Store.UpsertLesson(item)
	if err != nil {
		return nil, err
	}
	s.invalidate(item.OwnerID)
	return doc.Lessons, nil
}

func (s *LessonCrudService) Remove(id string) ([]repository.Lesson, error) {
	// Resolve the owner before the lesson is gone so the owner's listing
	// tag gets invalidated too.
	lesson, err := s.Store.Lesson(id)
	if err != nil {
		return nil, err
	}
	doc, err := s.Store.RemoveLesson(id)
	if err != nil {
		return nil, err
	}
	s.invalidate(lesson.OwnerID)
	return doc.Lessons, nil
}

func (s *LessonCrudService) invalidate(ownerID string) {
	if s.Tags == nil {
		return
	}
	for _, tag := range cache.LessonTags(ownerID) {
		s.Tags.Invalidate(tag)
	}
}

// LessonCrudValidator implements CrudValidator for lessons.
type LessonCrudValidator struct {
	validator *validator.Validate
}

func (v *LessonCrudValidator) Validate(item repository.Lesson) error {
	return v.validator.Struct(item)
}
