// internal/models/audit.go
package models

import "github.com/google/uuid"

// AuditLog records one successful catalog mutation.
type AuditLog struct {
	BaseModel
	Actor        string     `json:"actor" gorm:"size:255;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resourceType" gorm:"size:50;not null;index"`
	ResourceID   *uuid.UUID `json:"resourceId" gorm:"type:uuid;index"`
	Changes      JSONB      `json:"changes,omitempty"`
	Status       int        `json:"status"`
	RequestID    string     `json:"requestId" gorm:"size:64"`
	IPAddress    string     `json:"ipAddress" gorm:"size:45"`
	UserAgent    string     `json:"userAgent" gorm:"type:text"`
}
