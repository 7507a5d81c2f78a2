package cache

import "github.com/edulab/homeworkd/internal/repository"

// ReadOnlyStore is the minimal cache API for read-only consumers.
type ReadOnlyStore interface {
	Snapshot() (repository.DataDocument, error)
}

// LessonStore is the cache API needed by lesson handlers.
type LessonStore interface {
	ReadOnlyStore
	Lesson(id string) (repository.Lesson, error)
	UpsertLesson(lesson repository.Lesson) (repository.DataDocument, error)
	RemoveLesson(id string) (repository.DataDocument, error)
}

// HomeworkStore is the cache API needed by the autosave persistence client.
type HomeworkStore interface {
	SetHomeworkText(id, text string) (repository.Lesson, error)
}

// PersistableStore is the cache API needed by the persistence scheduler.
type PersistableStore interface {
	IsDirty() bool
	Snapshot() (repository.DataDocument, error)
	ClearDirty()
	SetLastUpdate(ts int64)
}

// AppStore is the cache contract the application container exposes.
// It is intentionally broad: it supports controllers, the autosave client,
// the persistence scheduler and the repository watcher. Mutations mark the
// store dirty themselves, so the interface carries no MarkDirty.
type AppStore interface {
	repository.CacheStore
	LessonStore
	HomeworkStore
	PersistableStore
}
