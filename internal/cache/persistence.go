package cache

import (
	"context"
	"fmt"

	"github.com/containerd/errdefs"

	"github.com/edulab/homeworkd/internal/autosave"
)

// LessonSaver implements the autosave persistence client against the local
// cache store. The store is the source of truth between flushes; the
// persistence scheduler carries the mutation to disk.
type LessonSaver struct {
	store HomeworkStore
}

func NewLessonSaver(store HomeworkStore) *LessonSaver {
	return &LessonSaver{store: store}
}

// Save writes the homework text and returns the saved document.
func (s *LessonSaver) Save(ctx context.Context, documentID string, fields autosave.Fields) (autosave.Document, error) {
	if err := ctx.Err(); err != nil {
		return autosave.Document{}, fmt.Errorf("save homework: %w", errdefs.ErrUnavailable)
	}

	lesson, err := s.store.SetHomeworkText(documentID, fields.HomeworkText)
	if err != nil {
		return autosave.Document{}, fmt.Errorf("save homework for %s: %w", documentID, err)
	}

	return autosave.Document{
		ID:      lesson.ID,
		OwnerID: lesson.OwnerID,
		Text:    lesson.HomeworkText,
	}, nil
}
