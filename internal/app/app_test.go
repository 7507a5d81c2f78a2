package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edulab/homeworkd/internal/autosave"
	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/config"
	"github.com/edulab/homeworkd/internal/identity"
	"github.com/edulab/homeworkd/internal/notify"
	"github.com/edulab/homeworkd/internal/repository"
	"github.com/edulab/homeworkd/internal/session"
)

type stubRepo struct{}

func (stubRepo) Save(ctx context.Context, doc *repository.DataDocument) error { return nil }
func (stubRepo) Load(ctx context.Context) (*repository.DataDocument, error) {
	return &repository.DataDocument{}, nil
}
func (stubRepo) StartWatcher(ctx context.Context, cacheStore repository.CacheStore) error {
	return nil
}

func testFixture(t *testing.T) (*cache.Store, *cache.TagCache, *session.Manager) {
	t.Helper()

	store := cache.NewStore(repository.DataDocument{
		Lessons: []repository.Lesson{
			{ID: "lesson-1", OwnerID: "user-1", Title: "Chords", HomeworkText: "Old homework text"},
		},
		Order: []string{"lesson-1"},
	})
	tags := cache.NewTagCache()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m := session.NewManager(
		ctx,
		store,
		cache.NewLessonSaver(store),
		notify.NewMemoryNotifier(),
		tags,
		autosave.Config{Debounce: time.Hour},
	)
	t.Cleanup(m.CloseAll)

	return store, tags, m
}

func TestNew_NilChecks(t *testing.T) {
	store, tags, m := testFixture(t)
	cfg := &config.Config{}

	_, err := New(nil, stubRepo{}, store, tags, m)
	assert.Error(t, err)
	_, err = New(cfg, nil, store, tags, m)
	assert.Error(t, err)
	_, err = New(cfg, stubRepo{}, nil, tags, m)
	assert.Error(t, err)
	_, err = New(cfg, stubRepo{}, store, nil, m)
	assert.Error(t, err)
	_, err = New(cfg, stubRepo{}, store, tags, nil)
	assert.Error(t, err)

	a, err := New(cfg, stubRepo{}, store, tags, m)
	require.NoError(t, err)
	defer a.Shutdown()
	assert.NotNil(t, a.BaseCtx)
}

func TestWatchStore_ReplaceFansOut(t *testing.T) {
	store, tags, m := testFixture(t)

	s, err := m.Open(identity.Actor{ID: "user-1", Role: identity.RoleMethodologist}, "lesson-1")
	require.NoError(t, err)
	require.Equal(t, "Old homework text", s.Controller.Text())

	tags.Put(cache.TagLessons, nil)

	ws := &watchStore{store: store, tags: tags, sessions: m}
	newDoc := repository.DataDocument{
		Lessons: []repository.Lesson{
			{ID: "lesson-1", OwnerID: "user-1", Title: "Chords", HomeworkText: "Reloaded homework text"},
		},
		Order: []string{"lesson-1"},
	}
	require.NoError(t, ws.Replace(newDoc))

	// Tag cache flushed, store replaced, open session resynced.
	_, ok := tags.Get(cache.TagLessons)
	assert.False(t, ok)

	lesson, err := store.Lesson("lesson-1")
	require.NoError(t, err)
	assert.Equal(t, "Reloaded homework text", lesson.HomeworkText)

	assert.Equal(t, "Reloaded homework text", s.Controller.Text())
}

func TestWatchStore_DelegatesReads(t *testing.T) {
	store, tags, m := testFixture(t)
	ws := &watchStore{store: store, tags: tags, sessions: m}

	store.SetLastUpdate(42)
	assert.Equal(t, int64(42), ws.GetLastUpdate())
	assert.False(t, ws.IsDirty())

	doc, err := ws.Snapshot()
	require.NoError(t, err)
	assert.Len(t, doc.Lessons, 1)
}
