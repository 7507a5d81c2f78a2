package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/containerd/errdefs"
	"github.com/google/uuid"

	"github.com/edulab/homeworkd/internal/autosave"
	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/identity"
	"github.com/edulab/homeworkd/internal/logger"
	"github.com/edulab/homeworkd/internal/notify"
	"github.com/edulab/homeworkd/internal/repository"
)

// ErrSessionNotFound reports a lookup for an unknown or foreign session.
var ErrSessionNotFound = fmt.Errorf("session not found: %w", errdefs.ErrNotFound)

// Session is one open homework editor: an actor, a lesson and the autosave
// controller driving persistence for it.
type Session struct {
	ID         string
	Actor      identity.Actor
	LessonID   string
	Controller *autosave.Controller
}

type entry struct {
	session    *Session
	lastActive time.Time
}

// Manager owns all open edit sessions. Opening a session runs the permission
// gate; a denied actor gets no session at all, which is how the edit surface
// stays hidden rather than disabled.
type Manager struct {
	mu       sync.Mutex
	baseCtx  context.Context
	cfg      autosave.Config
	store    cache.LessonStore
	client   autosave.PersistenceClient
	notifier notify.Notifier
	inv      autosave.Invalidator
	sessions map[string]*entry
	now      func() time.Time // stubbed in tests
}

func NewManager(
	ctx context.Context,
	store cache.LessonStore,
	client autosave.PersistenceClient,
	notifier notify.Notifier,
	inv autosave.Invalidator,
	cfg autosave.Config,
) *Manager {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Manager{
		baseCtx:  ctx,
		cfg:      cfg,
		store:    store,
		client:   client,
		notifier: notifier,
		inv:      inv,
		sessions: map[string]*entry{},
		now:      time.Now,
	}
}

// Open creates an edit session for the actor on the given lesson. Returns a
// not-found error for unknown lessons and a permission-denied error when the
// gate rejects the actor.
func (m *Manager) Open(actor identity.Actor, lessonID string) (*Session, error) {
	lesson, err := m.store.Lesson(lessonID)
	if err != nil {
		return nil, err
	}

	if !identity.CanEdit(actor, lesson.OwnerID) {
		return nil, autosave.ErrEditingHidden
	}

	doc := autosave.Document{ID: lesson.ID, OwnerID: lesson.OwnerID, Text: lesson.HomeworkText}
	ctrl, err := autosave.New(m.baseCtx, actor, doc, m.cfg, autosave.Deps{
		Client:      m.client,
		Notifier:    m.notifier,
		Invalidator: m.inv,
		Tags: func(d autosave.Document) []string {
			return cache.LessonTags(d.OwnerID)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create autosave controller: %w", err)
	}

	s := &Session{
		ID:         uuid.NewString(),
		Actor:      actor,
		LessonID:   lesson.ID,
		Controller: ctrl,
	}

	m.mu.Lock()
	m.sessions[s.ID] = &entry{session: s, lastActive: m.now()}
	m.mu.Unlock()

	logger.WithComponent("session").Debugf("opened session %s for actor %s on lesson %s", s.ID, actor.ID, lesson.ID)
	return s, nil
}

// Get returns the session owned by the actor. A session belonging to someone
// else reads as not found.
func (m *Manager) Get(id string, actor identity.Actor) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok || e.session.Actor.ID != actor.ID {
		return nil, ErrSessionNotFound
	}
	return e.session, nil
}

// Input forwards a text edit to the session's controller and refreshes its
// activity timestamp.
func (m *Manager) Input(id string, actor identity.Actor, text string) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.session.Actor.ID != actor.ID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	e.lastActive = m.now()
	ctrl := e.session.Controller
	m.mu.Unlock()

	return ctrl.Input(text)
}

// Close cancels the session's scheduled work and removes it. A pending edit
// that has not reached its debounce window is abandoned, matching the
// unmount semantics of the editing view.
func (m *Manager) Close(id string, actor identity.Actor) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if !ok || e.session.Actor.ID != actor.ID {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.mu.Unlock()

	e.session.Controller.Close()
	logger.WithComponent("session").Debugf("closed session %s", id)
	return nil
}

// CloseAll flushes pending edits and closes every session. Used on graceful
// shutdown, where abandoning the last keystrokes would lose user work.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	entries := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		entries = append(entries, e)
	}
	m.sessions = map[string]*entry{}
	m.mu.Unlock()

	for _, e := range entries {
		e.session.Controller.Flush()
		e.session.Controller.Close()
	}
	if len(entries) > 0 {
		logger.WithComponent("session").Infof("closed %d sessions on shutdown", len(entries))
	}
}

// CloseIdle closes sessions that have seen no input for longer than ttl and
// returns how many were closed.
func (m *Manager) CloseIdle(ttl time.Duration) int {
	cutoff := m.now().Add(-ttl)

	m.mu.Lock()
	var idle []*entry
	for id, e := range m.sessions {
		if e.lastActive.Before(cutoff) {
			idle = append(idle, e)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, e := range idle {
		e.session.Controller.Close()
		logger.WithComponent("session").Infof("reaped idle session %s (lesson %s)", e.session.ID, e.session.LessonID)
	}
	return len(idle)
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ResyncAll pushes externally reloaded lesson data into every open session.
// The controller's own resync rules decide whether the displayed text moves,
// so unsaved user input is never clobbered here.
func (m *Manager) ResyncAll(doc repository.DataDocument) {
	lessonsByID := map[string]repository.Lesson{}
	for _, l := range doc.Lessons {
		lessonsByID[l.ID] = l
	}

	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		sessions = append(sessions, e.session)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		lesson, ok := lessonsByID[s.LessonID]
		if !ok {
			continue
		}
		s.Controller.SetDocument(autosave.Document{
			ID:      lesson.ID,
			OwnerID: lesson.OwnerID,
			Text:    lesson.HomeworkText,
		})
	}
}
