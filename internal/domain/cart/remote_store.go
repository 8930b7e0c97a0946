// internal/domain/cart/remote_store.go
package cart

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// GormRemoteStore persists authenticated carts as rows in Postgres. Replace
// rewrites the whole cart in one transaction, numbering rows so Fetch returns
// lines in the order they were written.
type GormRemoteStore struct {
	db *gorm.DB
}

// NewGormRemoteStore creates a database-backed cart store.
func NewGormRemoteStore(db *gorm.DB) *GormRemoteStore {
	return &GormRemoteStore{db: db}
}

// Fetch returns the persisted cart for the identity, empty if none exists.
func (s *GormRemoteStore) Fetch(ctx context.Context, identity string) ([]LineItem, error) {
	var rows []UserCartLine
	err := s.db.WithContext(ctx).
		Where("identity = ?", identity).
		Order("position ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user cart: %w", err)
	}

	items := make([]LineItem, len(rows))
	for i, row := range rows {
		items[i] = LineItem{
			ProductID: row.ProductID,
			Name:      row.Name,
			Price:     row.Price,
			Image:     row.Image,
			Size:      row.Size,
			Quantity:  row.Quantity,
		}
	}
	return items, nil
}

// Replace overwrites the persisted cart for the identity with the given lines.
func (s *GormRemoteStore) Replace(ctx context.Context, identity string, items []LineItem) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("identity = ?", identity).Delete(&UserCartLine{}).Error; err != nil {
			return err
		}

		if len(items) == 0 {
			return nil
		}

		rows := make([]UserCartLine, len(items))
		for i, item := range items {
			rows[i] = UserCartLine{
				Identity:  identity,
				Position:  i,
				ProductID: item.ProductID,
				Name:      item.Name,
				Price:     item.Price,
				Image:     item.Image,
				Size:      item.Size,
				Quantity:  item.Quantity,
			}
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace user cart: %w", err)
	}
	return nil
}

// Clear deletes the persisted cart for the identity.
func (s *GormRemoteStore) Clear(ctx context.Context, identity string) error {
	err := s.db.WithContext(ctx).
		Where("identity = ?", identity).
		Delete(&UserCartLine{}).Error
	if err != nil {
		return fmt.Errorf("failed to clear user cart: %w", err)
	}
	return nil
}
