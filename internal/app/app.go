package app

import (
	"context"
	"errors"
	"log"

	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/config"
	"github.com/edulab/homeworkd/internal/repository"
	"github.com/edulab/homeworkd/internal/session"
)

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config   *config.Config
	Repo     repository.Repository
	Cache    cache.AppStore
	Tags     *cache.TagCache
	Sessions *session.Manager

	BaseCtx context.Context
	Cancel  context.CancelFunc
}

func New(cfg *config.Config, repo repository.Repository, store cache.AppStore, tags *cache.TagCache, sessions *session.Manager) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if store == nil {
		return nil, errors.New("cache store is nil")
	}
	if tags == nil {
		return nil, errors.New("tag cache is nil")
	}
	if sessions == nil {
		return nil, errors.New("session manager is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:   cfg,
		Repo:     repo,
		Cache:    store,
		Tags:     tags,
		Sessions: sessions,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
}

func (a *App) StartWatchers() {
	// The watcher replaces the cache on external file edits; open sessions
	// and cached listings must follow the new catalog.
	ws := &watchStore{store: a.Cache, tags: a.Tags, sessions: a.Sessions}
	if err := a.Repo.StartWatcher(a.BaseCtx, ws); err != nil {
		log.Fatalf("cannot start data file watcher: %v", err)
	}

	// Start scheduled persistence goroutine
	cache.StartPersistenceScheduler(a.BaseCtx, a.Cache, a.Repo, a.Config.Data.PersistInterval)

	if a.Config.Autosave.ReaperEnabled {
		r := session.NewReaper(a.Sessions, a.Config.Autosave.ReaperPoll, a.Config.Autosave.SessionTTL)
		r.Start(a.BaseCtx)
	}
}

// watchStore is the repository watcher's view of the cache. A Replace fans
// out to the tag cache and the open edit sessions.
type watchStore struct {
	store    cache.AppStore
	tags     *cache.TagCache
	sessions *session.Manager
}

func (w *watchStore) GetLastUpdate() int64 {
	return w.store.GetLastUpdate()
}

func (w *watchStore) IsDirty() bool {
	return w.store.IsDirty()
}

func (w *watchStore) Snapshot() (repository.DataDocument, error) {
	return w.store.Snapshot()
}

func (w *watchStore) Replace(doc repository.DataDocument) error {
	if err := w.store.Replace(doc); err != nil {
		return err
	}
	w.tags.InvalidateAll()
	w.sessions.ResyncAll(doc)
	return nil
}
