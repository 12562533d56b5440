// internal/services/audit_service.go
package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/storefront/catalog-api/internal/models"
)

// AuditService stores and reads the catalog audit trail.
type AuditService struct {
	db *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return storeError("record audit", err)
	}
	return nil
}

// ListForResource returns the entries for one resource, newest first.
func (s *AuditService) ListForResource(ctx context.Context, rawID string) ([]models.AuditLog, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	entries := make([]models.AuditLog, 0)
	err = s.db.WithContext(ctx).
		Where("resource_id = ?", id).
		Order("created_at DESC").
		Find(&entries).Error
	if err != nil {
		return nil, storeError("list audit", err)
	}
	return entries, nil
}
