package autosave

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/containerd/errdefs"

	"github.com/edulab/homeworkd/internal/identity"
	"github.com/edulab/homeworkd/internal/logger"
	"github.com/edulab/homeworkd/internal/notify"
)

// SaveFailedMessage is the fixed user-facing message shown when a save fails.
const SaveFailedMessage = "Failed to save homework text"

// Placeholder is the fixed placeholder of the homework text field.
const Placeholder = "Enter homework text"

const (
	defaultDebounce  = 500 * time.Millisecond
	defaultSavedHold = 2 * time.Second
)

// ErrEditingHidden is returned when an actor without edit rights sends text.
// The HTTP layer maps it to a hidden surface (404), never to a 403.
var ErrEditingHidden = fmt.Errorf("editing hidden: %w", errdefs.ErrPermissionDenied)

// ErrClosed is returned when a closed controller receives an edit.
var ErrClosed = errors.New("autosave controller is closed")

// Config holds the controller timings. Both are deployment knobs; the zero
// value falls back to the defaults.
type Config struct {
	// Debounce is the quiet period after the last edit before a save fires.
	Debounce time.Duration
	// SavedHold is how long the saved (or failed) indicator is held before
	// the status clears back to idle.
	SavedHold time.Duration
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = defaultDebounce
	}
	if c.SavedHold <= 0 {
		c.SavedHold = defaultSavedHold
	}
	return c
}

// saveRequest captures everything a save needs at schedule time. The document
// ID and generation are compared again at completion time so a result arriving
// for an abandoned document context is discarded, not applied.
type saveRequest struct {
	gen   uint64
	seq   uint64
	docID string
	value string
}

// Controller turns a stream of text edits into at most one in-flight save per
// debounce window, with cancellation on document change, status reporting and
// cache invalidation. All methods are safe for concurrent use; internally a
// single mutex serializes every transition, so at most one debounce timer and
// one in-flight save exist at any time.
type Controller struct {
	mu      sync.Mutex
	cfg     Config
	deps    Deps
	baseCtx context.Context

	actor    identity.Actor
	editable bool

	doc  Document // last known persisted document
	text string   // displayed text, updated synchronously on every edit

	status      Status
	pending     bool // an uncommitted edit exists (debounce timer scheduled or deferred)
	inFlight    bool
	editSeq     uint64 // bumped on every edit; a fired timer must match it
	deferredSeq uint64 // edit whose timer fired while a save was in flight; 0 = none
	gen         uint64 // bumped on document-identity change and close

	timer  *time.Timer // debounce
	hold   *time.Timer // saved/failed indicator hold
	closed bool
}

// New creates a controller for the given actor and document. The context
// bounds the lifetime of save calls; cancel it on shutdown.
func New(ctx context.Context, actor identity.Actor, doc Document, cfg Config, deps Deps) (*Controller, error) {
	if deps.Client == nil {
		return nil, errors.New("persistence client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return &Controller{
		cfg:      cfg.withDefaults(),
		deps:     deps,
		baseCtx:  ctx,
		actor:    actor,
		editable: identity.CanEdit(actor, doc.OwnerID),
		doc:      doc,
		text:     doc.Text,
		status:   StatusIdle,
	}, nil
}

// Editable reports whether the actor may edit the current document. When
// false no edit surface exists at all; Input is rejected.
func (c *Controller) Editable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editable
}

// Text returns the currently displayed text.
func (c *Controller) Text() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text
}

// Status returns the current save status.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// CurrentDocument returns the last known persisted document.
func (c *Controller) CurrentDocument() Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// Input records an edit. The displayed text updates synchronously; the save is
// (re)scheduled after the debounce window, so only the last value of a burst
// is persisted. An empty string is a normal value and follows the same path.
func (c *Controller) Input(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if !c.editable {
		return ErrEditingHidden
	}

	c.text = text
	c.editSeq++
	c.pending = true
	c.cancelHoldLocked()
	if c.status != StatusSaving {
		c.setStatusLocked(StatusPending)
	}

	// Classic debounce: scheduling a new save first cancels the prior timer.
	gen, seq := c.gen, c.editSeq
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.Debounce, func() { c.fire(gen, seq) })
	return nil
}

// SetDocument resyncs the controller from the externally supplied document.
// A changed ID abandons any pending edit and discards any in-flight result.
// For the same ID the displayed text is overwritten only when no uncommitted
// edit exists, so external updates never clobber unsaved user input.
func (c *Controller) SetDocument(doc Document) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	if doc.ID != c.doc.ID {
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.cancelHoldLocked()
		c.pending = false
		c.deferredSeq = 0
		c.gen++
		c.doc = doc
		c.text = doc.Text
		c.editable = identity.CanEdit(c.actor, doc.OwnerID)
		c.setStatusLocked(StatusIdle)
		return
	}

	c.doc = doc
	if !c.pending && !c.inFlight {
		c.text = doc.Text
	}
}

// Flush persists a pending edit immediately instead of waiting for the
// debounce window. Used on session close and in tests. No-op when nothing is
// pending or a save is already in flight.
func (c *Controller) Flush() {
	c.mu.Lock()
	if c.closed || !c.pending || c.inFlight {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	req := c.beginSaveLocked()
	c.mu.Unlock()
	c.runSave(req)
}

// Close cancels any scheduled work. No save fires after Close returns, and a
// save already in flight has its result discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.pending = false
	c.deferredSeq = 0
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.cancelHoldLocked()
}

// fire runs when the debounce timer elapses. A stale generation or edit
// sequence means the edit was superseded or the document changed; nothing is
// saved then. When a save is already in flight the fired edit is deferred
// until that save completes, keeping at most one request outstanding.
func (c *Controller) fire(gen, seq uint64) {
	c.mu.Lock()
	if c.closed || gen != c.gen || seq != c.editSeq || !c.pending {
		c.mu.Unlock()
		return
	}
	if c.inFlight {
		c.deferredSeq = seq
		c.mu.Unlock()
		return
	}
	req := c.beginSaveLocked()
	c.mu.Unlock()
	c.runSave(req)
}

// beginSaveLocked transitions to Saving and captures the save request.
// Caller must hold the lock.
func (c *Controller) beginSaveLocked() saveRequest {
	c.pending = false
	c.inFlight = true
	c.setStatusLocked(StatusSaving)
	return saveRequest{gen: c.gen, seq: c.editSeq, docID: c.doc.ID, value: c.text}
}

func (c *Controller) runSave(req saveRequest) {
	saved, err := c.deps.Client.Save(c.baseCtx, req.docID, Fields{HomeworkText: req.value})
	c.complete(req, saved, err)
}

// complete applies a save result. Results for an abandoned document identity
// are discarded silently: the ID and generation captured at request time must
// still match the current context.
func (c *Controller) complete(req saveRequest, saved Document, err error) {
	c.mu.Lock()
	c.inFlight = false

	if c.closed || req.gen != c.gen || req.docID != c.doc.ID {
		c.deferredSeq = 0
		c.mu.Unlock()
		logger.WithComponent("autosave").Debugf("discarding stale save result for document %s", req.docID)
		return
	}

	var tags []string
	notifier := c.deps.Notifier
	inv := c.deps.Invalidator

	if err != nil {
		// Displayed text keeps the last value the user typed; the persisted
		// baseline is untouched. No automatic retry: the next edit creates a
		// new save attempt.
		c.setStatusLocked(StatusFailed)
		c.armHoldLocked()
	} else {
		superseded := c.pending || req.seq != c.editSeq
		if superseded {
			// A newer edit exists; its own save will follow. The completed
			// result must not overwrite it.
			c.setStatusLocked(StatusPending)
		} else {
			c.doc.Text = saved.Text
			c.setStatusLocked(StatusSaved)
			c.armHoldLocked()
		}
		if inv != nil {
			tags = c.tagsLocked()
		}
	}

	// An edit whose debounce elapsed during the save starts now, unless an
	// even newer edit rescheduled the timer in the meantime.
	var next saveRequest
	runNext := false
	if c.deferredSeq != 0 && c.deferredSeq == c.editSeq && c.pending {
		next = c.beginSaveLocked()
		runNext = true
	}
	c.deferredSeq = 0
	c.mu.Unlock()

	if err != nil {
		logger.WithComponent("autosave").Errorf("save failed for document %s: %v", req.docID, err)
		if notifier != nil {
			notifier.Notify(SaveFailedMessage, notify.SeverityError)
		}
	} else {
		for _, tag := range tags {
			inv.Invalidate(tag)
		}
	}

	if runNext {
		c.runSave(next)
	}
}

// armHoldLocked schedules the transition back to Idle after the configured
// hold. A new edit cancels the hold like it cancels the debounce timer.
// Caller must hold the lock.
func (c *Controller) armHoldLocked() {
	if c.hold != nil {
		c.hold.Stop()
	}
	gen, from := c.gen, c.status
	c.hold = time.AfterFunc(c.cfg.SavedHold, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.gen || c.status != from || c.pending || c.inFlight {
			return
		}
		c.setStatusLocked(StatusIdle)
	})
}

func (c *Controller) cancelHoldLocked() {
	if c.hold != nil {
		c.hold.Stop()
		c.hold = nil
	}
}

func (c *Controller) setStatusLocked(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	if c.deps.OnStatus != nil {
		c.deps.OnStatus(s)
	}
}

func (c *Controller) tagsLocked() []string {
	if c.deps.Tags != nil {
		return c.deps.Tags(c.doc)
	}
	return []string{"lessons"}
}
