// internal/models/product.go
package models

import "time"

// Product is never physically removed. IsDeleted and DeletedAt always move
// together: IsDeleted is true exactly when DeletedAt is set.
type Product struct {
	BaseModel
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Price       float64    `json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string     `json:"category" gorm:"size:100;index"`
	Image       string     `json:"image" gorm:"size:1024"`
	InStock     bool       `json:"inStock" gorm:"not null"`
	IsDeleted   bool       `json:"isDeleted" gorm:"not null;default:false;index"`
	DeletedAt   *time.Time `json:"deletedAt"`
}

// ProductSummary is the product projection attached to order line items.
type ProductSummary struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:    p.ID.String(),
		Title: p.Title,
		Price: p.Price,
		Image: p.Image,
	}
}
