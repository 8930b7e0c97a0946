// internal/domain/cart/entity.go
package cart

import (
	"time"
)

// LineItem represents one product/size entry in a cart. Name, price and image
// are snapshots taken at add time and are not re-read from the catalog.
type LineItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"` // Price in cents at time of adding
	Image     string `json:"image"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

// SameLine reports whether this entry refers to the given cart line.
// Line identity is the (product_id, size) pair.
func (l LineItem) SameLine(productID uint, size string) bool {
	return l.ProductID == productID && l.Size == size
}

// PendingItem is an add-to-cart attempt that is missing its size selection.
// It is kept device-scoped so it survives the login redirect; at most one
// exists per device at a time.
type PendingItem struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Image     string `json:"image"`
}

// DeviceCart is the anonymous cart blob stored on the device store (Redis,
// keyed by the device session ID).
type DeviceCart struct {
	DeviceID  string     `json:"device_id"`
	Items     []LineItem `json:"items"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// UserCartLine is a persisted cart row for an authenticated identity.
// Position preserves the order lines were written in.
type UserCartLine struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Identity  string    `gorm:"size:64;not null;index" json:"identity"`
	Position  int       `gorm:"not null" json:"position"`
	ProductID uint      `gorm:"not null;index" json:"product_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Price     int64     `gorm:"not null" json:"price"`
	Image     string    `gorm:"size:500" json:"image"`
	Size      string    `gorm:"size:10;not null" json:"size"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName overrides the table name
func (UserCartLine) TableName() string {
	return "user_cart_lines"
}

// Totals represents calculated cart totals
type Totals struct {
	LineCount  int   `json:"line_count"`  // Number of distinct lines
	TotalItems int   `json:"total_items"` // Sum of all quantities
	TotalPrice int64 `json:"total_price"` // Sum of price * quantity, in cents
}

// CalculateTotals recomputes totals from the given lines. Totals are never
// stored, so they cannot drift from the line items.
func CalculateTotals(items []LineItem) Totals {
	var totals Totals

	totals.LineCount = len(items)
	for _, item := range items {
		totals.TotalItems += item.Quantity
		totals.TotalPrice += item.Price * int64(item.Quantity)
	}

	return totals
}

// MergeLines folds a device-local cart into a persisted cart. Persisted lines
// keep their original positions; device lines are summed into a matching
// (product_id, size) line or appended at the end in device order.
func MergeLines(persisted, device []LineItem) []LineItem {
	merged := make([]LineItem, len(persisted))
	copy(merged, persisted)

	for _, guest := range device {
		matched := false
		for i := range merged {
			if merged[i].SameLine(guest.ProductID, guest.Size) {
				merged[i].Quantity += guest.Quantity
				matched = true
				break
			}
		}
		if !matched {
			merged = append(merged, guest)
		}
	}

	return merged
}
