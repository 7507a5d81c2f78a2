package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/edulab/homeworkd/internal/api/middleware"
	"github.com/edulab/homeworkd/internal/app"
)

// SetupRoutes builds the gin engine for the main API server.
func SetupRoutes(appCtx *app.App, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(logger))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))
	r.Use(middleware.ActorExtractor())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	publicRouter := r.Group("")

	// All Public APIs
	timeout := appCtx.Config.Server.RequestTimeout

	NewLessonRouter(timeout, publicRouter, appCtx.Cache, appCtx.Tags)
	NewEditRouter(timeout, publicRouter, appCtx.Sessions)

	return r
}
