// internal/middleware/audit.go
package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/storefront/catalog-api/internal/models"
)

// AuditRecorder persists audit entries.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

type bodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w bodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// AuditLogMiddleware records every successful mutating request of the group
// it is attached to. Entries are written before the request completes.
func AuditLogMiddleware(recorder AuditRecorder, resourceType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Skip reads
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		// Read request body
		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		blw := &bodyLogWriter{body: bytes.NewBufferString(""), ResponseWriter: c.Writer}
		c.Writer = blw

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}

		actor, _ := c.Get("user_id")
		actorStr, _ := actor.(string)
		requestID, _ := c.Get("request_id")
		requestIDStr, _ := requestID.(string)

		entry := &models.AuditLog{
			Actor:        actorStr,
			Action:       auditAction(c),
			ResourceType: resourceType,
			ResourceID:   resourceID(c, blw.body.Bytes()),
			Status:       c.Writer.Status(),
			RequestID:    requestIDStr,
			IPAddress:    c.ClientIP(),
			UserAgent:    c.Request.UserAgent(),
		}

		// Parse request body for the new values
		if len(requestBody) > 0 {
			var changes map[string]interface{}
			if err := json.Unmarshal(requestBody, &changes); err == nil {
				entry.Changes = models.JSONB(changes)
			}
		}

		if err := recorder.Record(c.Request.Context(), entry); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"request_id": requestIDStr,
				"action":     entry.Action,
			}).Error("Failed to create audit log")
		}
	}
}

// auditAction names the operation from the matched route, e.g.
// "PATCH /products/:id/restore".
func auditAction(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return c.Request.Method + " " + route
}

// resourceID takes the id from the path, or from the response body when the
// request created the resource.
func resourceID(c *gin.Context, responseBody []byte) *uuid.UUID {
	if parsed, err := uuid.Parse(strings.TrimSpace(c.Param("id"))); err == nil {
		return &parsed
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(responseBody, &created); err == nil {
		if parsed, err := uuid.Parse(created.ID); err == nil {
			return &parsed
		}
	}
	return nil
}
