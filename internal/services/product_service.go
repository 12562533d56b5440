// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/catalog-api/internal/config"
	"github.com/storefront/catalog-api/internal/models"
	"github.com/storefront/catalog-api/internal/utils"
)

type ProductService struct {
	db      *gorm.DB
	catalog config.CatalogConfig
}

type CreateProductRequest struct {
	Title       string   `json:"title" validate:"notblank,max=255"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0,lte=99999999.99,money"`
	Category    string   `json:"category" validate:"max=100"`
	Image       string   `json:"image" validate:"image_url,max=1024"`
	InStock     *bool    `json:"inStock"`
}

// UpdateProductRequest is a partial update: nil fields are left untouched.
// The soft-delete columns are deliberately absent.
type UpdateProductRequest struct {
	Title       *string  `json:"title" validate:"omitnil,notblank,max=255"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" validate:"omitnil,gte=0,lte=99999999.99,money"`
	Category    *string  `json:"category" validate:"omitnil,max=100"`
	Image       *string  `json:"image" validate:"omitnil,image_url,max=1024"`
	InStock     *bool    `json:"inStock"`
}

func (r *UpdateProductRequest) changes() map[string]interface{} {
	updates := make(map[string]interface{})
	if r.Title != nil {
		updates["title"] = strings.TrimSpace(*r.Title)
	}
	if r.Description != nil {
		updates["description"] = *r.Description
	}
	if r.Price != nil {
		updates["price"] = *r.Price
	}
	if r.Category != nil {
		updates["category"] = strings.TrimSpace(*r.Category)
	}
	if r.Image != nil {
		updates["image"] = strings.TrimSpace(*r.Image)
	}
	if r.InStock != nil {
		updates["in_stock"] = *r.InStock
	}
	return updates
}

func NewProductService(db *gorm.DB, catalog config.CatalogConfig) *ProductService {
	return &ProductService{
		db:      db,
		catalog: catalog,
	}
}

// ListProducts returns one page of the visible catalog, newest first.
func (s *ProductService) ListProducts(ctx context.Context, params utils.PaginationParams) (*utils.PaginationResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = s.catalog.DefaultPageSize
	}

	query := s.db.WithContext(ctx).Model(&models.Product{}).Where("is_deleted = ?", false)

	if params.Search != "" {
		query = matchTitle(query, params.Search)
	}

	if params.Category != "" {
		query = query.Where("category = ?", params.Category)
	}

	query = query.Session(&gorm.Session{})

	// Get total count
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, storeError("count products", err)
	}

	products := make([]models.Product, 0, params.Limit)
	if params.Page <= utils.TotalPages(total, params.Limit) {
		if err := utils.ApplyPagination(query.Order("created_at DESC"), params).Find(&products).Error; err != nil {
			return nil, storeError("list products", err)
		}
	}

	result := utils.CreatePaginationResult(products, total, params)
	return &result, nil
}

// ListTrashed returns every soft-deleted product, most recently deleted first.
func (s *ProductService) ListTrashed(ctx context.Context) ([]models.Product, error) {
	products := make([]models.Product, 0)
	err := s.db.WithContext(ctx).
		Where("is_deleted = ?", true).
		Order("deleted_at DESC").
		Find(&products).Error
	if err != nil {
		return nil, storeError("list trashed products", err)
	}
	return products, nil
}

func (s *ProductService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*models.Product, error) {
	// Validate request
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := s.checkImageHost(req.Image); err != nil {
		return nil, err
	}

	product := &models.Product{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Price:       *req.Price,
		Category:    strings.TrimSpace(req.Category),
		Image:       strings.TrimSpace(req.Image),
		InStock:     true,
	}
	if product.Image == "" {
		product.Image = s.catalog.PlaceholderImage
	}
	if req.InStock != nil {
		product.InStock = *req.InStock
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, storeError("create product", err)
	}

	return product, nil
}

// GetProduct returns a product that has not been soft-deleted.
func (s *ProductService) GetProduct(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}
	return s.findActive(ctx, id)
}

func (s *ProductService) UpdateProduct(ctx context.Context, rawID string, req *UpdateProductRequest) (*models.Product, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	// Validate request
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.Image != nil {
		if err := s.checkImageHost(*req.Image); err != nil {
			return nil, err
		}
	}

	product, err := s.findActive(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := req.changes()
	if len(updates) == 0 {
		return product, nil
	}

	// Apply updates only while the product is still live
	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(updates)
	if result.Error != nil {
		return nil, storeError("update product", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.findActive(ctx, id)
}

// SoftDelete flags a live product as deleted. Deleting twice is ErrNotFound.
func (s *ProductService) SoftDelete(ctx context.Context, rawID string) error {
	id, err := parseID("id", rawID)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_deleted = ?", id, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": time.Now(),
		})
	if result.Error != nil {
		return storeError("soft delete product", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Restore clears the deleted flag of a trashed product.
func (s *ProductService) Restore(ctx context.Context, rawID string) (*models.Product, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).Model(&models.Product{}).
		Where("id = ? AND is_deleted = ?", id, true).
		Updates(map[string]interface{}{
			"is_deleted": false,
			"deleted_at": nil,
		})
	if result.Error != nil {
		return nil, storeError("restore product", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.findActive(ctx, id)
}

func (s *ProductService) findActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := s.db.WithContext(ctx).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("get product", err)
	}
	return &product, nil
}

// checkImageHost enforces the optional allow-list of image hosts.
func (s *ProductService) checkImageHost(image string) error {
	image = strings.TrimSpace(image)
	if len(s.catalog.AllowedImageHosts) == 0 || image == "" || strings.HasPrefix(image, "/") {
		return nil
	}

	u, err := url.Parse(image)
	if err == nil {
		for _, host := range s.catalog.AllowedImageHosts {
			if strings.EqualFold(u.Hostname(), host) {
				return nil
			}
		}
	}

	return newValidationError("validation failed", utils.ValidationError{
		Field:   "image",
		Tag:     "image_host",
		Message: "image host is not allowed",
	})
}

// matchTitle adds a case-insensitive substring match on the title.
func matchTitle(query *gorm.DB, search string) *gorm.DB {
	pattern := "%" + escapeLike(search) + "%"
	if query.Dialector.Name() == "postgres" {
		return query.Where(`title ILIKE ? ESCAPE '\'`, pattern)
	}
	return query.Where(`LOWER(title) LIKE LOWER(?) ESCAPE '\'`, pattern)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, newValidationError("invalid "+field, utils.ValidationError{
			Field:   field,
			Tag:     "uuid",
			Message: field + " must be a valid UUID",
		})
	}
	return id, nil
}
