// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/config"
	"github.com/justeunpeu/storefront-backend/internal/domain/checkout"
	"github.com/justeunpeu/storefront-backend/internal/domain/user"
	"github.com/justeunpeu/storefront-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler handles checkout endpoints
type CheckoutHandler struct {
	checkoutService *checkout.Service
	userService     *user.Service
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkout.NewService(db, cfg, logger),
		userService:     user.NewService(db, cfg, logger),
		config:          cfg,
	}
}

func (h *CheckoutHandler) currentUser(c *gin.Context) (*user.User, bool) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return nil, false
	}

	usr, err := h.userService.GetProfile(userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not found",
		})
		return nil, false
	}
	return usr, true
}

// GetSummary handles GET /checkout/summary
func (h *CheckoutHandler) GetSummary(c *gin.Context) {
	usr, ok := h.currentUser(c)
	if !ok {
		return
	}

	summary, err := h.checkoutService.GetSummary(c.Request.Context(), usr)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to build checkout summary",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout summary retrieved successfully",
		"data":    summary,
	})
}

// CreateOrder handles POST /checkout/orders
func (h *CheckoutHandler) CreateOrder(c *gin.Context) {
	usr, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req checkout.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	response, err := h.checkoutService.CreateOrder(c.Request.Context(), usr, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created successfully",
		"data":    response,
	})
}

// ConfirmPayment handles POST /checkout/confirm
func (h *CheckoutHandler) ConfirmPayment(c *gin.Context) {
	usr, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req checkout.ConfirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	ord, err := h.checkoutService.ConfirmPayment(c.Request.Context(), usr, &req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed successfully",
		"data":    ord,
	})
}
