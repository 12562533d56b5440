// internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/catalog-api/internal/models"
	"github.com/storefront/catalog-api/internal/utils"
)

// UserService keeps the local shadow rows of identity-provider accounts.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Sync upserts the shadow row for identity. Name and email follow the
// provider; the role is only ever changed locally.
func (s *UserService) Sync(ctx context.Context, identity utils.Identity) (*models.User, error) {
	if identity.Subject == "" {
		return nil, ErrUnauthorized
	}
	user, err := syncUser(s.db.WithContext(ctx), identity)
	if err != nil {
		return nil, storeError("sync user", err)
	}
	return user, nil
}

func (s *UserService) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("subject = ?", subject).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("get user", err)
	}
	return &user, nil
}

func syncUser(tx *gorm.DB, identity utils.Identity) (*models.User, error) {
	user := &models.User{
		Subject: identity.Subject,
		Name:    strings.TrimSpace(identity.Name),
		Email:   strings.ToLower(strings.TrimSpace(identity.Email)),
	}

	columns := []string{"updated_at"}
	if user.Name != "" {
		columns = append(columns, "name")
	}
	if user.Email != "" {
		columns = append(columns, "email")
	}

	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(user).Error
	if err != nil {
		return nil, err
	}

	// Reload: on conflict the generated id is not the stored one
	var stored models.User
	if err := tx.Where("subject = ?", identity.Subject).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}
