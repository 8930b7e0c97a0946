// internal/domain/product/entity.go
package product

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// AllSizes is the full size run carried by the store, in display order
var AllSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}

// Product represents the product entity
type Product struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"not null;size:255" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null;size:255" json:"slug"`
	Description string         `gorm:"type:text" json:"description"`
	Price       int64          `gorm:"not null" json:"price"` // Price in cents
	Image       string         `gorm:"size:500" json:"image"`
	Sizes       string         `gorm:"size:100" json:"sizes"` // Comma-separated sizes
	// No column default: gorm swaps a default in for zero-value struct
	// fields on Create, which would silently reactivate hidden products.
	IsActive   bool `gorm:"not null" json:"is_active"`
	IsFeatured bool `gorm:"not null" json:"is_featured"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides
func (Product) TableName() string { return "products" }

// SizeList returns the product's sizes as a slice
func (p *Product) SizeList() []string {
	if p.Sizes == "" {
		return nil
	}
	parts := strings.Split(p.Sizes, ",")
	sizes := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			sizes = append(sizes, trimmed)
		}
	}
	return sizes
}

// HasSize reports whether the product is carried in the given size
func (p *Product) HasSize(size string) bool {
	for _, s := range p.SizeList() {
		if strings.EqualFold(s, size) {
			return true
		}
	}
	return false
}

// GetFormattedPrice returns the price in euros
func (p *Product) GetFormattedPrice() float64 {
	return float64(p.Price) / 100
}
