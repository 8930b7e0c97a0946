// internal/interfaces/http/handlers/auth.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/justeunpeu/storefront-backend/internal/config"
	"github.com/justeunpeu/storefront-backend/internal/domain/cart"
	"github.com/justeunpeu/storefront-backend/internal/domain/user"
	"github.com/justeunpeu/storefront-backend/internal/interfaces/http/middleware"
	"github.com/justeunpeu/storefront-backend/internal/pkg/email"
	"github.com/justeunpeu/storefront-backend/internal/pkg/token"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	db           *gorm.DB
	redisClient  *goredis.Client
	userService  *user.Service
	tokenManager *token.Manager
	emailService *email.Service
	config       *config.Config
	logger       *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, redisClient *goredis.Client, cfg *config.Config, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		db:           db,
		redisClient:  redisClient,
		userService:  user.NewService(db, cfg, logger),
		tokenManager: token.NewManager(redisClient),
		emailService: email.NewService(cfg, logger),
		config:       cfg,
		logger:       logger,
	}
}

// Register handles user registration
func (h *AuthHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	response, err := h.userService.Register(&req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	// Welcome email carries the verification link. Failure must not block signup.
	verifyToken, err := h.tokenManager.Create(c.Request.Context(), token.PurposeEmailVerify,
		response.User.ID, h.config.Security.VerifyTokenTTL)
	if err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to create verification token")
	} else if err := h.emailService.SendWelcomeEmail(c.Request.Context(),
		response.User.Email, response.User.GetDisplayName(), verifyToken); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to send welcome email")
	}

	// Fold the device cart into the new account
	h.mergeDeviceCart(c, response.User.Identity())

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"data":    response,
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	response, err := h.userService.Login(&req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": err.Error(),
		})
		return
	}

	// Fold the device cart into the account cart
	h.mergeDeviceCart(c, response.User.Identity())

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"data":    response,
	})
}

// RefreshToken handles token refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	response, err := h.userService.RefreshToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Token refreshed successfully",
		"data":    response,
	})
}

// Logout handles user logout. Tokens are discarded client-side; here the
// device cart is dropped so the next visitor on this browser starts empty.
func (h *AuthHandler) Logout(c *gin.Context) {
	deviceID, cookieErr := c.Cookie("session_id")
	claims, authed := middleware.GetClaimsFromContext(c)

	if cookieErr == nil && deviceID != "" && authed {
		engine := h.buildEngineForDevice(deviceID)
		if err := engine.Start(c.Request.Context(), cart.Authenticated(claims.Identity())); err != nil {
			h.logger.WithField("error", err.Error()).Warn("Failed to start cart engine on logout")
		} else if err := engine.Logout(c.Request.Context()); err != nil {
			h.logger.WithField("error", err.Error()).Warn("Failed to reset device cart on logout")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Logged out successfully",
	})
}

// ForgotPassword handles POST /auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	// Do not reveal whether the account exists
	response := gin.H{"message": "If the email exists, a reset link has been sent"}

	usr, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusOK, response)
		return
	}

	resetToken, err := h.tokenManager.Create(c.Request.Context(), token.PurposePasswordReset,
		usr.ID, h.config.Security.ResetTokenTTL)
	if err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to create reset token")
		c.JSON(http.StatusOK, response)
		return
	}

	if err := h.emailService.SendPasswordResetEmail(c.Request.Context(),
		usr.Email, usr.GetDisplayName(), resetToken); err != nil {
		h.logger.WithField("error", err.Error()).Error("Failed to send reset email")
	}

	c.JSON(http.StatusOK, response)
}

// ResetPassword handles POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token       string `json:"token" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, err := h.tokenManager.Consume(c.Request.Context(), token.PurposePasswordReset, req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid or expired reset token",
		})
		return
	}

	if err := h.userService.ResetPassword(userID, req.NewPassword); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password reset successfully",
	})
}

// VerifyEmail handles POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	userID, err := h.tokenManager.Consume(c.Request.Context(), token.PurposeEmailVerify, req.Token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid or expired verification token",
		})
		return
	}

	if err := h.userService.VerifyEmail(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Email verified successfully",
	})
}

// GetProfile gets current user profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
		return
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Profile retrieved successfully",
		"data":    profile,
	})
}

// mergeDeviceCart runs the anonymous-to-authenticated cart merge for the
// device behind this request. Merge failures are logged, never surfaced:
// a customer who just logged in must not be blocked by cart plumbing.
func (h *AuthHandler) mergeDeviceCart(c *gin.Context, identity string) {
	deviceID, err := c.Cookie("session_id")
	if err != nil || deviceID == "" {
		return
	}

	engine := h.buildEngineForDevice(deviceID)
	if err := engine.Start(c.Request.Context(), cart.Anonymous()); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Failed to start cart engine for merge")
		return
	}
	if err := engine.Login(c.Request.Context(), identity); err != nil {
		h.logger.WithFields(logrus.Fields{
			"identity": identity,
			"error":    err.Error(),
		}).Warn("Cart merge on login failed")
	}
}

func (h *AuthHandler) buildEngineForDevice(deviceID string) *cart.Engine {
	local := cart.NewRedisLocalStore(h.redisClient, deviceID, h.config.Cart.DeviceCartTTL, h.logger)
	remote := cart.NewGormRemoteStore(h.db)
	pending := cart.NewRedisPendingStore(h.redisClient, deviceID, h.config.Cart.PendingItemTTL, h.logger)
	return cart.NewEngine(local, remote, pending, h.logger)
}
