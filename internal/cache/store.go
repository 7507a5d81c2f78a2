package cache

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"github.com/edulab/homeworkd/internal/repository"
)

// ErrLessonNotFound reports a lookup for an unknown lesson ID.
var ErrLessonNotFound = fmt.Errorf("lesson not found: %w", errdefs.ErrNotFound)

// Store keeps an in-memory copy of the lesson catalog.
type Store struct {
	mu         sync.RWMutex
	data       repository.DataDocument
	dirty      bool  // true if cache changed since last persist
	lastUpdate int64 // cache's metadata.lastUpdate
}

// NewStore creates a cache store seeded from the given document.
func NewStore(doc repository.DataDocument) *Store {
	return &Store{data: doc, lastUpdate: doc.Metadata.LastUpdate}
}

// MarkDirty sets the dirty flag to true.
func (s *Store) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
}

// IsDirty returns true if cache has uncommitted changes.
func (s *Store) IsDirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dirty
}

// ClearDirty resets the dirty flag.
func (s *Store) ClearDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = false
}

// GetLastUpdate returns the cache's last update timestamp.
func (s *Store) GetLastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastUpdate
}

// SetLastUpdate sets the cache's last update timestamp.
func (s *Store) SetLastUpdate(ts int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpdate = ts
}

// Snapshot returns a deep copy of the cached data.
func (s *Store) Snapshot() (repository.DataDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneData(s.data)
}

// Replace swaps the cached data.
func (s *Store) Replace(doc repository.DataDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cloned, err := cloneData(doc)
	if err != nil {
		return err
	}
	s.data = cloned
	s.lastUpdate = doc.Metadata.LastUpdate
	s.dirty = false

	return nil
}

// Lesson returns a copy of the lesson with the given ID.
func (s *Store) Lesson(id string) (repository.Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.data.Lessons {
		if l.ID == id {
			return l, nil
		}
	}
	return repository.Lesson{}, ErrLessonNotFound
}

// UpsertLesson inserts or replaces a lesson by ID, updating order and
// returning the new snapshot.
func (s *Store) UpsertLesson(lesson repository.Lesson) (repository.DataDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inOrder := false
	for _, id := range s.data.Order {
		if id == lesson.ID {
			inOrder = true
			break
		}
	}

	replaced := false
	for i := range s.data.Lessons {
		if s.data.Lessons[i].ID == lesson.ID {
			s.data.Lessons[i] = lesson
			replaced = true
			break
		}
	}

	if !replaced {
		s.data.Lessons = append(s.data.Lessons, lesson)
	}

	if !inOrder {
		s.data.Order = append(s.data.Order, lesson.ID)
	}

	// Mark cache as dirty after mutation
	s.dirty = true

	return cloneData(s.data)
}

// RemoveLesson deletes a lesson by ID and returns the new snapshot.
func (s *Store) RemoveLesson(id string) (repository.DataDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.data.Lessons {
		if s.data.Lessons[i].ID == id {
			s.data.Lessons = append(s.data.Lessons[:i], s.data.Lessons[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		return repository.DataDocument{}, ErrLessonNotFound
	}

	for i, ordered := range s.data.Order {
		if ordered == id {
			s.data.Order = append(s.data.Order[:i], s.data.Order[i+1:]...)
			break
		}
	}

	s.dirty = true

	return cloneData(s.data)
}

// SetHomeworkText updates the homework text of a lesson. An empty string is a
// valid value and is stored as-is. Returns the updated lesson.
func (s *Store) SetHomeworkText(id, text string) (repository.Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.data.Lessons {
		if s.data.Lessons[i].ID == id {
			s.data.Lessons[i].HomeworkText = text
			s.data.Lessons[i].UpdatedAt = time.Now().UnixMilli()
			s.dirty = true
			return s.data.Lessons[i], nil
		}
	}
	return repository.Lesson{}, ErrLessonNotFound
}

// cloneData deep-copies the document to avoid shared slices between cache and callers.
func cloneData(doc repository.DataDocument) (repository.DataDocument, error) {
	bytes, err := json.Marshal(doc)
	if err != nil {
		return repository.DataDocument{}, err
	}
	var copy repository.DataDocument
	if err := json.Unmarshal(bytes, &copy); err != nil {
		return repository.DataDocument{}, err
	}
	return copy, nil
}
