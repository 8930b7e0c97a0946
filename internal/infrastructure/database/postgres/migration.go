// internal/infrastructure/database/postgres/migration.go
package postgres

import (
	"fmt"
	"log"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/domain/cart"
	"github.com/justeunpeu/storefront-backend/internal/domain/order"
	"github.com/justeunpeu/storefront-backend/internal/domain/product"
	"github.com/justeunpeu/storefront-backend/internal/domain/user"
)

// Migration handles database migrations
type Migration struct {
	db *gorm.DB
}

// NewMigration creates a new migration instance
func NewMigration(db *gorm.DB) *Migration {
	return &Migration{
		db: db,
	}
}

// RunAutoMigrations runs GORM auto-migrations for all models
func (m *Migration) RunAutoMigrations() error {
	log.Println("Running database auto-migrations...")

	// Models in dependency order
	models := []interface{}{
		&user.User{},
		&product.Product{},
		&cart.UserCartLine{},
		&order.Order{},
		&order.OrderItem{},
		&order.Payment{},
	}

	for _, model := range models {
		if err := m.db.AutoMigrate(model); err != nil {
			return fmt.Errorf("failed to migrate model %T: %w", model, err)
		}
	}

	log.Println("Database auto-migrations completed")
	return nil
}

// CreateIndexes creates additional indexes for better performance
func (m *Migration) CreateIndexes() error {
	log.Println("Creating additional database indexes...")

	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_email_active ON users(email, is_active)",

		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_products_featured ON products(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_products_price ON products(price)",
		"CREATE INDEX IF NOT EXISTS idx_products_created_at ON products(created_at DESC)",

		// Cart line indexes, ordered reads are the hot path
		"CREATE INDEX IF NOT EXISTS idx_user_cart_lines_identity_position ON user_cart_lines(identity, position)",

		// Order indexes
		"CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_orders_order_number ON orders(order_number)",
		"CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)",

		// Payment indexes
		"CREATE INDEX IF NOT EXISTS idx_payments_order_id ON payments(order_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_provider_id ON payments(payment_provider_id)",
		"CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status)",
	}

	for _, indexSQL := range indexes {
		if err := m.db.Exec(indexSQL).Error; err != nil {
			log.Printf("Failed to create index: %v", err)
		}
	}

	log.Println("Database indexes created")
	return nil
}

// SeedInitialData inserts development data into the database
func (m *Migration) SeedInitialData() error {
	log.Println("Seeding initial data...")

	if err := m.seedTestUser(); err != nil {
		return fmt.Errorf("failed to seed test user: %w", err)
	}

	if err := m.seedProducts(); err != nil {
		return fmt.Errorf("failed to seed products: %w", err)
	}

	log.Println("Initial data seeded")
	return nil
}

func (m *Migration) seedTestUser() error {
	var existing user.User
	result := m.db.Where("email = ?", "test@justeunpeu.fr").First(&existing)
	if result.Error == nil {
		return nil
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("Test1234"), 10)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	testUser := user.User{
		Email:         "test@justeunpeu.fr",
		Password:      string(hashedPassword),
		FirstName:     "Camille",
		LastName:      "Test",
		IsActive:      true,
		EmailVerified: true,
	}

	if err := m.db.Create(&testUser).Error; err != nil {
		return err
	}

	log.Println("Created test user: test@justeunpeu.fr")
	return nil
}

func (m *Migration) seedProducts() error {
	var productCount int64
	m.db.Model(&product.Product{}).Count(&productCount)
	if productCount > 0 {
		return nil
	}

	allSizes := "XS,S,M,L,XL,XXL"

	products := []product.Product{
		{
			Name:        "Hoodie Oversize",
			Slug:        "hoodie-oversize",
			Description: "Hoodie oversize en molleton gratté, coupe ample et capuche doublée. Coton biologique 400g.",
			Price:       4500,
			Image:       "/images/hoodie-oversize.jpg",
			Sizes:       allSizes,
			IsActive:    true,
			IsFeatured:  true,
		},
		{
			Name:        "Tee Essentiel",
			Slug:        "tee-essentiel",
			Description: "T-shirt coupe droite en jersey de coton épais. La base du vestiaire.",
			Price:       2500,
			Image:       "/images/tee-essentiel.jpg",
			Sizes:       allSizes,
			IsActive:    true,
			IsFeatured:  true,
		},
		{
			Name:        "Veste Workwear",
			Slug:        "veste-workwear",
			Description: "Veste de travail en toile de coton lavée, quatre poches plaquées.",
			Price:       8900,
			Image:       "/images/veste-workwear.jpg",
			Sizes:       "S,M,L,XL",
			IsActive:    true,
			IsFeatured:  true,
		},
		{
			Name:        "Pantalon Cargo",
			Slug:        "pantalon-cargo",
			Description: "Pantalon cargo coupe fuselée, poches latérales à rabat, taille élastiquée.",
			Price:       6500,
			Image:       "/images/pantalon-cargo.jpg",
			Sizes:       "S,M,L,XL",
			IsActive:    true,
			IsFeatured:  false,
		},
		{
			Name:        "Sweat Col Rond",
			Slug:        "sweat-col-rond",
			Description: "Sweat col rond en molleton, bords côtelés, coupe regular.",
			Price:       5500,
			Image:       "/images/sweat-col-rond.jpg",
			Sizes:       allSizes,
			IsActive:    true,
			IsFeatured:  false,
		},
		{
			Name:        "Bonnet Côtelé",
			Slug:        "bonnet-cotele",
			Description: "Bonnet en maille côtelée, laine mérinos. Taille unique.",
			Price:       1900,
			Image:       "/images/bonnet-cotele.jpg",
			Sizes:       "M",
			IsActive:    true,
			IsFeatured:  false,
		},
	}

	for _, prod := range products {
		if err := m.db.Create(&prod).Error; err != nil {
			log.Printf("Failed to create product %s: %v", prod.Slug, err)
		}
	}

	log.Printf("Seeded %d products", len(products))
	return nil
}
