package auth

import (
	"net/http"
	"time"

	"github.com/devanup/DocBox/internal/config"
	"github.com/devanup/DocBox/internal/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RegisterRoutes mounts the sign-in endpoints under /auth.
func RegisterRoutes(router *gin.RouterGroup, service *Service, cfg config.AuthConfig) {
	handler := &httpHandler{service: service, cfg: cfg}
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/request-code", handler.requestCode)
		authGroup.POST("/verify", handler.verify)
		authGroup.POST("/sign-out", handler.signOut)
	}
}

// RegisterSessionRoutes mounts endpoints that require an authenticated user.
func RegisterSessionRoutes(router *gin.RouterGroup) {
	router.GET("/me", func(c *gin.Context) {
		user, ok := RequireUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
			return
		}
		c.JSON(http.StatusOK, user)
	})
}

type httpHandler struct {
	service *Service
	cfg     config.AuthConfig
}

type requestCodeRequest struct {
	FullName string `json:"full_name" binding:"omitempty,max=128"`
	Email    string `json:"email" binding:"required,email"`
}

type verifyRequest struct {
	Challenge string `json:"challenge" binding:"required"`
	Code      string `json:"code" binding:"required,len=6"`
}

func (h *httpHandler) requestCode(c *gin.Context) {
	var req requestCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	challenge, err := h.service.RequestCode(c.Request.Context(), req.FullName, req.Email)
	if err != nil {
		if err == ErrInvalidEmail {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
			return
		}
		logger.L().Error("request code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send code"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"account_id": challenge.AccountID,
		"challenge":  challenge.Token,
		"expires_at": challenge.ExpiresAt.Unix(),
	})
}

func (h *httpHandler) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Verify(c.Request.Context(), req.Challenge, req.Code)
	if err != nil {
		if err == ErrInvalidCode {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired code"})
			return
		}
		logger.L().Error("verify code", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify code"})
		return
	}

	h.setSessionCookie(c, result.Secret, result.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"user": result.User})
}

func (h *httpHandler) signOut(c *gin.Context) {
	secret, err := c.Cookie(h.cfg.CookieName)
	if err == nil {
		if err := h.service.SignOut(c.Request.Context(), secret); err != nil {
			logger.L().Error("sign out", zap.Error(err))
		}
	}

	h.setSessionCookie(c, "", time.Now())
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) setSessionCookie(c *gin.Context, secret string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if secret == "" {
		maxAge = -1
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.CookieName, secret, maxAge, "/", "", true, true)
}
