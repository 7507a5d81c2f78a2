package cache

import (
	"context"
	"testing"

	"github.com/containerd/errdefs"

	"github.com/edulab/homeworkd/internal/autosave"
)

func TestLessonSaver_Save(t *testing.T) {
	store := NewStore(createTestDocument())
	saver := NewLessonSaver(store)

	doc, err := saver.Save(context.Background(), "lesson-1", autosave.Fields{HomeworkText: "New homework text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if doc.ID != "lesson-1" || doc.OwnerID != "user-1" {
		t.Errorf("unexpected saved document: %+v", doc)
	}
	if doc.Text != "New homework text" {
		t.Errorf("expected saved text, got %q", doc.Text)
	}
	if !store.IsDirty() {
		t.Error("expected save to mark the store dirty")
	}
}

func TestLessonSaver_SaveEmptyString(t *testing.T) {
	store := NewStore(createTestDocument())
	saver := NewLessonSaver(store)

	doc, err := saver.Save(context.Background(), "lesson-1", autosave.Fields{HomeworkText: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Text != "" {
		t.Errorf("expected empty text persisted, got %q", doc.Text)
	}
}

func TestLessonSaver_SaveUnknownLesson(t *testing.T) {
	store := NewStore(createTestDocument())
	saver := NewLessonSaver(store)

	_, err := saver.Save(context.Background(), "ghost", autosave.Fields{HomeworkText: "text"})
	if err == nil {
		t.Fatal("expected error for unknown lesson")
	}
	if !errdefs.IsNotFound(err) {
		t.Errorf("expected not-found classification, got %v", err)
	}
}

func TestLessonSaver_CanceledContext(t *testing.T) {
	store := NewStore(createTestDocument())
	saver := NewLessonSaver(store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := saver.Save(ctx, "lesson-1", autosave.Fields{HomeworkText: "text"})
	if err == nil {
		t.Fatal("expected error for canceled context")
	}
	if !errdefs.IsUnavailable(err) {
		t.Errorf("expected unavailable classification, got %v", err)
	}
}
