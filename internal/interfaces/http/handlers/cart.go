// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/config"
	"github.com/justeunpeu/storefront-backend/internal/domain/cart"
	"github.com/justeunpeu/storefront-backend/internal/domain/product"
	"github.com/justeunpeu/storefront-backend/internal/interfaces/http/middleware"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	db             *gorm.DB
	redisClient    *redis.Client
	productService *product.Service
	config         *config.Config
	logger         *logrus.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) *CartHandler {
	return &CartHandler{
		db:             db,
		redisClient:    redisClient,
		productService: product.NewService(db, cfg),
		config:         cfg,
		logger:         logger,
	}
}

// CartResponse is the wire representation of the cart
type CartResponse struct {
	Items  []cart.LineItem `json:"items"`
	Totals cart.Totals     `json:"totals"`
	State  string          `json:"state"`
}

// AddItemRequest represents an add-to-cart request
type AddItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
}

// UpdateItemRequest represents a quantity update request
type UpdateItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
	Quantity  int    `json:"quantity"`
}

// RemoveItemRequest represents an item removal request
type RemoveItemRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	Size      string `json:"size" binding:"required"`
}

// SetPendingRequest stores a product awaiting size selection
type SetPendingRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
}

// CompletePendingRequest finishes a pending add with the chosen size
type CompletePendingRequest struct {
	Size string `json:"size" binding:"required"`
}

// buildEngine constructs the cart engine for the current request.
// The engine starts authenticated when a valid token is present,
// anonymous otherwise.
func (h *CartHandler) buildEngine(c *gin.Context) (*cart.Engine, error) {
	deviceID := h.getOrCreateDeviceID(c)

	local := cart.NewRedisLocalStore(h.redisClient, deviceID, h.config.Cart.DeviceCartTTL, h.logger)
	remote := cart.NewGormRemoteStore(h.db)
	pending := cart.NewRedisPendingStore(h.redisClient, deviceID, h.config.Cart.PendingItemTTL, h.logger)

	engine := cart.NewEngine(local, remote, pending, h.logger)

	provider := cart.Anonymous()
	if claims, ok := middleware.GetClaimsFromContext(c); ok {
		provider = cart.Authenticated(claims.Identity())
	}

	if err := engine.Start(c.Request.Context(), provider); err != nil {
		return nil, err
	}
	return engine, nil
}

// getOrCreateDeviceID gets the device ID from cookie or creates a new one
func (h *CartHandler) getOrCreateDeviceID(c *gin.Context) string {
	deviceID, err := c.Cookie("session_id")
	if err != nil || deviceID == "" {
		deviceID = uuid.New().String()
		maxAge := int(h.config.Cart.DeviceCartTTL.Seconds())
		c.SetCookie("session_id", deviceID, maxAge, "/", "", false, true)
	}
	return deviceID
}

func (h *CartHandler) respond(c *gin.Context, message string, engine *cart.Engine) {
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"data": CartResponse{
			Items:  engine.Items(),
			Totals: engine.Totals(),
			State:  engine.State().String(),
		},
	})
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	h.respond(c, "Cart retrieved successfully", engine)
}

// AddItem handles POST /cart/items
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.productService.GetProduct(req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	if !prod.HasSize(req.Size) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Size not available for this product",
		})
		return
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	engine.AddItem(c.Request.Context(), cart.LineItem{
		ProductID: prod.ID,
		Name:      prod.Name,
		Price:     prod.Price,
		Image:     prod.Image,
		Size:      req.Size,
		Quantity:  1,
	})

	h.respond(c, "Item added to cart successfully", engine)
}

// UpdateItem handles PUT /cart/items
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	engine.UpdateQuantity(c.Request.Context(), req.ProductID, req.Size, req.Quantity)

	h.respond(c, "Cart updated successfully", engine)
}

// RemoveItem handles DELETE /cart/items
func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req RemoveItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	engine.RemoveItem(c.Request.Context(), req.ProductID, req.Size)

	h.respond(c, "Item removed from cart", engine)
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	if err := engine.ClearCart(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	h.respond(c, "Cart cleared successfully", engine)
}

// SetPendingItem handles POST /cart/pending
func (h *CartHandler) SetPendingItem(c *gin.Context) {
	var req SetPendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.productService.GetProduct(req.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	item := cart.PendingItem{
		ProductID: prod.ID,
		Name:      prod.Name,
		Price:     prod.Price,
		Image:     prod.Image,
	}
	if err := engine.SetPendingItem(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to store pending item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pending item stored",
		"data":    item,
	})
}

// GetPendingItem handles GET /cart/pending
func (h *CartHandler) GetPendingItem(c *gin.Context) {
	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	item, err := engine.PendingItem(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve pending item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pending item retrieved",
		"data":    item,
	})
}

// CompletePendingItem handles POST /cart/pending/complete
func (h *CartHandler) CompletePendingItem(c *gin.Context) {
	var req CompletePendingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	pending, err := engine.PendingItem(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve pending item",
		})
		return
	}
	if pending == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No pending item to complete",
		})
		return
	}

	// The chosen size goes through the same catalog check as a direct add
	prod, err := h.productService.GetProduct(pending.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Product not found",
		})
		return
	}
	if !prod.HasSize(req.Size) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Size not available for this product",
		})
		return
	}

	if _, err := engine.CompletePendingItem(c.Request.Context(), req.Size); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	h.respond(c, "Pending item added to cart", engine)
}

// ClearPendingItem handles DELETE /cart/pending
func (h *CartHandler) ClearPendingItem(c *gin.Context) {
	engine, err := h.buildEngine(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	if err := engine.ClearPendingItem(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear pending item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pending item cleared",
	})
}
