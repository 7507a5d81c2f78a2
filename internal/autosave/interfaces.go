package autosave

import (
	"context"

	"github.com/edulab/homeworkd/internal/notify"
)

// Document is the editable view of a lesson as the controller sees it:
// identity, owner and the current persisted text.
type Document struct {
	ID      string
	OwnerID string
	Text    string
}

// Fields is the partial-update payload sent to the persistence client.
type Fields struct {
	HomeworkText string `json:"homework_text"`
}

// PersistenceClient saves homework text for a document and returns the saved
// document. Failures are classified with containerd/errdefs (invalid argument
// for validation failures, unavailable for network failures).
type PersistenceClient interface {
	Save(ctx context.Context, documentID string, fields Fields) (Document, error)
}

// Invalidator drops cached query results under a named tag after a mutation.
type Invalidator interface {
	Invalidate(tag string)
}

// Deps are the external collaborators of a controller. Client is required;
// the rest are optional and skipped when nil.
type Deps struct {
	Client      PersistenceClient
	Notifier    notify.Notifier
	Invalidator Invalidator

	// Tags returns the invalidation tags the saved document participates in.
	// Defaults to the general lessons listing when nil.
	Tags func(doc Document) []string

	// OnStatus is called synchronously on every status transition while the
	// controller lock is held; it must not call back into the controller.
	OnStatus func(status Status)
}
