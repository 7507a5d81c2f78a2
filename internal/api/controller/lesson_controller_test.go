package controller

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/edulab/homeworkd/internal/api/middleware"
	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/repository"
)

// mockLessonStore implements cache.LessonStore for testing
type mockLessonStore struct {
	doc       repository.DataDocument
	upsertErr error
}

func (m *mockLessonStore) Snapshot() (repository.DataDocument, error) {
	return m.doc, nil
}

func (m *mockLessonStore) Lesson(id string) (repository.Lesson, error) {
	for _, l := range m.doc.Lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return repository.Lesson{}, cache.ErrLessonNotFound
}

func (m *mockLessonStore) UpsertLesson(lesson repository.Lesson) (repository.DataDocument, error) {
	if m.upsertErr != nil {
		return repository.DataDocument{}, m.upsertErr
	}
	for i, l := range m.doc.Lessons {
		if l.ID == lesson.ID {
			m.doc.Lessons[i] = lesson
			return m.doc, nil
		}
	}
	m.doc.Lessons = append(m.doc.Lessons, lesson)
	return m.doc, nil
}

func (m *mockLessonStore) RemoveLesson(id string) (repository.DataDocument, error) {
	for i, l := range m.doc.Lessons {
		if l.ID == id {
			m.doc.Lessons = append(m.doc.Lessons[:i], m.doc.Lessons[i+1:]...)
			return m.doc, nil
		}
	}
	return repository.DataDocument{}, cache.ErrLessonNotFound
}

func lessonFixtures() repository.DataDocument {
	return repository.DataDocument{
		Lessons: []repository.Lesson{
			{ID: "lesson-1", OwnerID: "user-1", Title: "Chords", HomeworkText: "Practice scales"},
			{ID: "lesson-2", OwnerID: "user-2", Title: "Rhythm", HomeworkText: ""},
		},
		Order: []string{"lesson-1", "lesson-2"},
	}
}

func lessonRouter(lc *LessonController) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ActorExtractor())
	r.GET("/lessons", lc.AllLessons)
	r.GET("/lessons/my", lc.MyLessons)
	r.POST("/lesson", lc.CreateOrUpdateLesson)
	r.DELETE("/lesson/:id", lc.DeleteLesson)
	return r
}

func TestLessonController_AllLessons(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	lc := NewLessonController(store, cache.NewTagCache())
	r := lessonRouter(lc)

	req := httptest.NewRequest(http.MethodGet, "/lessons", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var lessons []repository.Lesson
	if err := json.Unmarshal(w.Body.Bytes(), &lessons); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(lessons) != 2 {
		t.Errorf("expected 2 lessons, got %d", len(lessons))
	}
}

func TestLessonController_AllLessons_ServedFromTagCache(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	tags := cache.NewTagCache()
	lc := NewLessonController(store, tags)
	r := lessonRouter(lc)

	// First request warms the "lessons" tag.
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lessons", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	// Mutate the store behind the cache's back; the cached listing wins.
	store.doc.Lessons = store.doc.Lessons[:1]

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lessons", nil))

	var lessons []repository.Lesson
	if err := json.Unmarshal(w.Body.Bytes(), &lessons); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(lessons) != 2 {
		t.Errorf("expected cached listing of 2 lessons, got %d", len(lessons))
	}

	// Invalidation makes the next read hit the store again.
	tags.Invalidate(cache.TagLessons)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/lessons", nil))
	if err := json.Unmarshal(w.Body.Bytes(), &lessons); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(lessons) != 1 {
		t.Errorf("expected fresh listing of 1 lesson, got %d", len(lessons))
	}
}

func TestLessonController_MyLessons_RequiresActor(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	lc := NewLessonController(store, cache.NewTagCache())
	r := lessonRouter(lc)

	req := httptest.NewRequest(http.MethodGet, "/lessons/my", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", w.Code)
	}
}

func TestLessonController_MyLessons_FiltersByOwner(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	lc := NewLessonController(store, cache.NewTagCache())
	r := lessonRouter(lc)

	req := httptest.NewRequest(http.MethodGet, "/lessons/my", nil)
	req.Header.Set("X-Actor-Id", "user-1")
	req.Header.Set("X-Actor-Role", "methodologist")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var lessons []repository.Lesson
	if err := json.Unmarshal(w.Body.Bytes(), &lessons); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("expected 1 lesson, got %d", len(lessons))
	}
	if lessons[0].ID != "lesson-1" {
		t.Errorf("expected lesson-1, got %s", lessons[0].ID)
	}
}

func TestLessonController_CreateOrUpdate_InvalidatesTags(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	tags := cache.NewTagCache()
	lc := NewLessonController(store, tags)
	r := lessonRouter(lc)

	tags.Put(cache.TagLessons, nil)
	tags.Put(cache.MyLessonsTag("user-1"), nil)

	lesson := repository.Lesson{ID: "lesson-3", OwnerID: "user-1", Title: "Arpeggios"}
	body, _ := json.Marshal(lesson)
	req := httptest.NewRequest(http.MethodPost, "/lesson", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if _, ok := tags.Get(cache.TagLessons); ok {
		t.Error("expected lessons tag to be invalidated")
	}
	if _, ok := tags.Get(cache.MyLessonsTag("user-1")); ok {
		t.Error("expected owner tag to be invalidated")
	}
}

func TestLessonController_CreateOrUpdate_InvalidPayload(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	lc := NewLessonController(store, cache.NewTagCache())
	r := lessonRouter(lc)

	// Missing required owner_id and title.
	body := []byte(`{"id": "lesson-3"}`)
	req := httptest.NewRequest(http.MethodPost, "/lesson", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestLessonController_Delete_NotFound(t *testing.T) {
	store := &mockLessonStore{doc: lessonFixtures()}
	lc := NewLessonController(store, cache.NewTagCache())
	r := lessonRouter(lc)

	req := httptest.NewRequest(http.MethodDelete, "/lesson/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
