package product

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/justeunpeu/storefront-backend/internal/config"
)

func setupProductService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Product{}))

	products := []Product{
		{Name: "Hoodie Oversize", Slug: "hoodie-oversize", Price: 4500, Sizes: "S,M,L,XL", IsActive: true, IsFeatured: true},
		{Name: "Tee Essentiel", Slug: "tee-essentiel", Price: 2500, Sizes: "XS,S,M,L", IsActive: true},
		{Name: "Veste Workwear", Slug: "veste-workwear", Price: 8900, Sizes: "M,L,XL", IsActive: true, IsFeatured: true},
		{Name: "Ancienne Collection", Slug: "ancienne-collection", Price: 1000, Sizes: "M", IsActive: false},
	}
	require.NoError(t, db.Create(&products).Error)

	return NewService(db, &config.Config{})
}

func TestService_InactiveFlagSurvivesCreate(t *testing.T) {
	svc := setupProductService(t)

	// A struct-based Create with IsActive false must store false; a column
	// default would overwrite the zero value and reactivate the product.
	var stored Product
	require.NoError(t, svc.db.Where("slug = ?", "ancienne-collection").First(&stored).Error)
	assert.False(t, stored.IsActive)
}

func TestService_GetProductsExcludesInactive(t *testing.T) {
	svc := setupProductService(t)

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 20})
	require.NoError(t, err)

	assert.Len(t, resp.Products, 3)
	assert.Equal(t, int64(3), resp.Pagination.Total)
	for _, p := range resp.Products {
		assert.NotEqual(t, "ancienne-collection", p.Slug)
	}
}

func TestService_GetProductsSearch(t *testing.T) {
	svc := setupProductService(t)

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 20, Search: "hoodie"})
	require.NoError(t, err)

	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Hoodie Oversize", resp.Products[0].Name)
}

func TestService_GetProductsSizeFilter(t *testing.T) {
	svc := setupProductService(t)

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 20, Size: "xs"})
	require.NoError(t, err)

	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Tee Essentiel", resp.Products[0].Name)
}

func TestService_GetProductsPriceRange(t *testing.T) {
	svc := setupProductService(t)

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 20, MinPrice: 3000, MaxPrice: 5000})
	require.NoError(t, err)

	require.Len(t, resp.Products, 1)
	assert.Equal(t, "Hoodie Oversize", resp.Products[0].Name)
}

func TestService_GetProductsSortByPrice(t *testing.T) {
	svc := setupProductService(t)

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 20, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)

	require.Len(t, resp.Products, 3)
	assert.Equal(t, "Tee Essentiel", resp.Products[0].Name)
	assert.Equal(t, "Veste Workwear", resp.Products[2].Name)
}

func TestService_GetProductsPagination(t *testing.T) {
	svc := setupProductService(t)

	resp, err := svc.GetProducts(&ProductListRequest{Page: 1, Limit: 2, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)

	assert.Len(t, resp.Products, 2)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)
	assert.False(t, resp.Pagination.HasPrev)

	resp, err = svc.GetProducts(&ProductListRequest{Page: 2, Limit: 2, SortBy: "price", SortOrder: "asc"})
	require.NoError(t, err)

	assert.Len(t, resp.Products, 1)
	assert.False(t, resp.Pagination.HasNext)
	assert.True(t, resp.Pagination.HasPrev)
}

func TestService_GetProduct(t *testing.T) {
	svc := setupProductService(t)

	p, err := svc.GetProductBySlug("hoodie-oversize")
	require.NoError(t, err)

	got, err := svc.GetProduct(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hoodie Oversize", got.Name)
}

func TestService_GetProductNotFound(t *testing.T) {
	svc := setupProductService(t)

	_, err := svc.GetProduct(9999)
	assert.ErrorContains(t, err, "product not found")

	// Inactive products are hidden from the catalog
	_, err = svc.GetProductBySlug("ancienne-collection")
	assert.ErrorContains(t, err, "product not found")
}

func TestService_GetFeaturedProducts(t *testing.T) {
	svc := setupProductService(t)

	products, err := svc.GetFeaturedProducts(8)
	require.NoError(t, err)

	assert.Len(t, products, 2)
	for _, p := range products {
		assert.True(t, p.IsFeatured)
	}
}
