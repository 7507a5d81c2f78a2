package cache

import (
	"sync"

	"github.com/edulab/homeworkd/internal/logger"
	"github.com/edulab/homeworkd/internal/repository"
)

// TagLessons is the invalidation tag of the general lesson listing.
const TagLessons = "lessons"

// MyLessonsTag returns the invalidation tag of an actor's own listing.
func MyLessonsTag(actorID string) string {
	return "myLessons:" + actorID
}

// LessonTags returns every tag a lesson participates in.
func LessonTags(ownerID string) []string {
	return []string{TagLessons, MyLessonsTag(ownerID)}
}

// TagCache caches computed lesson listings under named tags. A mutation
// invalidates the tags the mutated lesson participates in; the next read
// recomputes from the store. Implements the autosave Invalidator port.
type TagCache struct {
	mu      sync.RWMutex
	entries map[string][]repository.Lesson
}

func NewTagCache() *TagCache {
	return &TagCache{entries: map[string][]repository.Lesson{}}
}

// Get returns the cached listing for a tag, if present.
func (t *TagCache) Get(tag string) ([]repository.Lesson, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	lessons, ok := t.entries[tag]
	if !ok {
		return nil, false
	}
	out := make([]repository.Lesson, len(lessons))
	copy(out, lessons)
	return out, true
}

// Put stores a computed listing under a tag.
func (t *TagCache) Put(tag string, lessons []repository.Lesson) {
	stored := make([]repository.Lesson, len(lessons))
	copy(stored, lessons)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[tag] = stored
}

// Invalidate drops the cached listing for a tag.
func (t *TagCache) Invalidate(tag string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[tag]; ok {
		delete(t.entries, tag)
		logger.WithComponent("tag-cache").Debugf("invalidated tag %q", tag)
	}
}

// InvalidateAll drops every cached listing. Used when the whole catalog is
// replaced, e.g. after a watcher reload.
func (t *TagCache) InvalidateAll() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = map[string][]repository.Lesson{}
	logger.WithComponent("tag-cache").Debug("invalidated all tags")
}
