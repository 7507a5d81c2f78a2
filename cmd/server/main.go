package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	route "github.com/edulab/homeworkd/internal/api/route"
	appctx "github.com/edulab/homeworkd/internal/app"
	"github.com/edulab/homeworkd/internal/autosave"
	"github.com/edulab/homeworkd/internal/cache"
	"github.com/edulab/homeworkd/internal/config"
	"github.com/edulab/homeworkd/internal/logger"
	"github.com/edulab/homeworkd/internal/notify"
	"github.com/edulab/homeworkd/internal/repository"
	"github.com/edulab/homeworkd/internal/session"

	"github.com/enrichman/httpgrace"
)

func main() {
	// .env is optional; real deployments set environment variables directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	// Set log level from configuration
	logLevel, err := logrus.ParseLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.Logger.SetLevel(logLevel)
	logger.WithComponent("main").Debugf("log level set to: %s", logLevel.String())
	logger.WithComponent("main").Infof("App will run on port: %d", cfg.Server.Port)

	repo, err := repository.NewJSONRepository(cfg.Data.FilePath)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init repository: %v", err)
	}

	jsonDoc, err := repo.Load(context.Background())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot load data file: %v", err)
	}

	cacheStore := cache.NewStore(*jsonDoc)
	tagCache := cache.NewTagCache()

	notifier, err := notify.NewNotifierFromConfig(cfg.Misc.NotifierKind)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init notifier: %v", err)
	}

	sessionCtx, cancelSessions := context.WithCancel(context.Background())
	defer cancelSessions()
	sessions := session.NewManager(
		sessionCtx,
		cacheStore,
		cache.NewLessonSaver(cacheStore),
		notifier,
		tagCache,
		autosave.Config{
			Debounce:  cfg.Autosave.Debounce,
			SavedHold: cfg.Autosave.SavedHold,
		},
	)

	app, err := appctx.New(cfg, repo, cacheStore, tagCache, sessions)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	app.StartWatchers()

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app, logger.Logger)
	srv := createGraceHttpServer(app, "main-server", r)

	if err := srv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

func createGraceHttpServer(app *appctx.App, name string, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))
	serverConfig := app.Config.Server

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
			// Flush every pending homework edit before the process exits.
			app.Sessions.CloseAll()
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return app.BaseCtx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
