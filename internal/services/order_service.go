// internal/services/order_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/catalog-api/internal/database"
	"github.com/storefront/catalog-api/internal/models"
	"github.com/storefront/catalog-api/internal/utils"
)

type OrderService struct {
	db *gorm.DB
}

type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items       []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	TotalAmount *float64           `json:"totalAmount" validate:"required,gte=0,lte=99999999.99,money"`
}

func NewOrderService(db *gorm.DB) *OrderService {
	return &OrderService{db: db}
}

// CreateOrder stores the order header and all of its items in one
// transaction. Product ids are stored as given; prices are not snapshotted
// and stock is not touched.
func (s *OrderService) CreateOrder(ctx context.Context, identity utils.Identity, req *CreateOrderRequest) (*models.Order, error) {
	if identity.Subject == "" {
		return nil, ErrUnauthorized
	}

	// Validate request
	if err := validate(req); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:      identity.Subject,
		TotalAmount: *req.TotalAmount,
		Status:      models.OrderStatusPending,
		Items:       make([]models.OrderItem, 0, len(req.Items)),
	}
	for i, item := range req.Items {
		productID, err := parseID("productId", item.ProductID)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, models.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Position:  i,
		})
	}

	var user *models.User
	err := database.WithTransaction(s.db.WithContext(ctx), func(tx *gorm.DB) error {
		var err error
		if user, err = syncUser(tx, identity); err != nil {
			return err
		}

		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		for i := range order.Items {
			order.Items[i].OrderID = order.ID
		}
		return tx.Create(&order.Items).Error
	})
	if err != nil {
		return nil, storeError("create order", err)
	}

	order.Customer = user.Summary()
	return order, nil
}

// ListOrdersForUser returns the caller's orders, newest first, with the
// current product details and the owner's name and email attached. Items
// keep the order they were submitted in.
func (s *OrderService) ListOrdersForUser(ctx context.Context, userID string) ([]models.Order, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	orders := make([]models.Order, 0)
	err := s.db.WithContext(ctx).
		Preload("Items", itemsInPosition).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "price", "image")
		}).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "subject", "name", "email")
		}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, storeError("list orders", err)
	}

	for i := range orders {
		attachSummaries(&orders[i])
	}
	return orders, nil
}

// GetOrder returns one order owned by userID.
func (s *OrderService) GetOrder(ctx context.Context, userID, rawID string) (*models.Order, error) {
	id, err := parseID("id", rawID)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).
		Preload("Items", itemsInPosition).
		Preload("Items.Product", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "title", "price", "image")
		}).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "subject", "name", "email")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storeError("get order", err)
	}

	attachSummaries(&order)
	return &order, nil
}

func itemsInPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

func attachSummaries(order *models.Order) {
	if order.User != nil {
		order.Customer = order.User.Summary()
	}
	if order.Items == nil {
		order.Items = []models.OrderItem{}
	}
	for j := range order.Items {
		if p := order.Items[j].Product; p != nil && p.ID != uuid.Nil {
			order.Items[j].ProductInfo = p.Summary()
		}
	}
}
