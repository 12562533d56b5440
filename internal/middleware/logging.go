// internal/middleware/logging.go
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/storefront/catalog-api/internal/utils"
)

const RequestIDHeader = "X-Request-ID"

// RequestLogger tags each request with an id and logs its outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = uuid.NewString()
		}
		c.Set("request_id", requestID)
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		duration := time.Since(start)

		// Skip health checks
		if c.Request.URL.Path == "/health" && c.Writer.Status() < 400 {
			return
		}

		userID, _ := c.Get("user_id")
		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"route":      c.FullPath(),
			"status":     c.Writer.Status(),
			"duration":   duration.Milliseconds(),
			"ip":         c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
			"user_id":    userID,
		})

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("Request failed")
		case status >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}
	}
}

// Recovery turns panics into a logged 500 with the standard error body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(logrus.StandardLogger().WriterLevel(logrus.ErrorLevel), func(c *gin.Context, recovered interface{}) {
		requestID, _ := c.Get("request_id")
		logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"panic":      recovered,
			"path":       c.Request.URL.Path,
		}).Error("Recovered from panic")
		utils.InternalErrorResponse(c)
	})
}
