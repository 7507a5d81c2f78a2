package middleware

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

// HoneybadgerMiddleware reports failed requests to Honeybadger. On panic it
// notifies with the stack and re-panics so gin.Recovery still produces the
// 500 response. Without HONEYBADGER_API_KEY the middleware is a no-op.
func HoneybadgerMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	log := logger.WithField("component", "honeybadger")

	apiKey := os.Getenv("HONEYBADGER_API_KEY")
	if apiKey == "" {
		log.Info("error reporting disabled; set HONEYBADGER_API_KEY to enable it")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	honeybadger.Configure(honeybadger.Configuration{
		APIKey: apiKey,
		Env:    os.Getenv("GO_ENV"),
	})

	log.Info("error reporting enabled")

	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				honeybadger.Notify(fmt.Sprintf("Panic: %s %s", c.Request.Method, c.Request.URL.Path),
					c.Request, honeybadger.Context{"stack": string(debug.Stack())}, honeybadger.Tags{"panic", "http"})
				log.Errorf("recovered from panic during %s %s, reported: %v", c.Request.Method, c.Request.URL.Path, rec)
				panic(rec) // let gin.Recovery produce the response
			}
		}()

		c.Next()

		// 404 is the deliberate answer for hidden edit surfaces and
		// unknown lessons; reporting it would be pure noise.
		status := c.Writer.Status()
		if status < 400 || status == 404 {
			return
		}
		if status >= 500 {
			honeybadger.Notify(fmt.Sprintf("Error: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), c.Request, honeybadger.Tags{"5XX", "http"})
		} else {
			// 4xx goes out as a notice without the request attached
			honeybadger.Notify(fmt.Sprintf("Warning: HTTP %d: %s %s", status, c.Request.Method, c.Request.URL.Path), honeybadger.Tags{"4XX", "http"})
		}
		log.Warnf("reported HTTP %d for %s %s", status, c.Request.Method, c.Request.URL.Path)
	}
}
