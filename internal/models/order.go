// internal/models/order.go
package models

import (
	"github.com/google/uuid"
)

// Order is created together with its items and never modified afterwards.
// UserID holds the identity provider subject, not a local key.
type Order struct {
	BaseModel
	UserID      string      `json:"userId" gorm:"size:255;not null;index"`
	Items       []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	TotalAmount float64     `json:"totalAmount" gorm:"type:decimal(10,2);not null"`
	Status      OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`

	// Relationships
	User     *User        `json:"-" gorm:"foreignKey:UserID;references:Subject"`
	Customer *UserSummary `json:"user,omitempty" gorm:"-"`
}

// OrderItem references a product by id only; the price is looked up from the
// live product when history is read.
type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID `json:"orderId" gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Quantity  int       `json:"quantity" gorm:"not null"`
	Position  int       `json:"-" gorm:"not null;default:0"`

	// Relationships
	Product     *Product        `json:"-" gorm:"foreignKey:ProductID"`
	ProductInfo *ProductSummary `json:"product,omitempty" gorm:"-"`
}
