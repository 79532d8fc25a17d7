package presigned

import (
	"context"
	"net/http"
	"time"

	"github.com/devanup/DocBox/internal/auth"
	"github.com/devanup/DocBox/internal/file"
	"github.com/devanup/DocBox/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileStore resolves metadata with the owner-or-shared access check applied.
type FileStore interface {
	Get(ctx context.Context, accessor file.Accessor, fileID uuid.UUID) (file.Metadata, error)
}

// Handler exposes presigned download URLs over HTTP.
type Handler struct {
	service *Service
	files   FileStore
}

// NewHandler constructs a Handler.
func NewHandler(service *Service, files FileStore) *Handler {
	return &Handler{service: service, files: files}
}

// RegisterRoutes mounts the presigned URL endpoint.
func (h *Handler) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/files/:fileID/presigned-url", h.generateURL)
}

func (h *Handler) generateURL(c *gin.Context) {
	user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}

	ttl := h.service.TTL()
	if raw := c.Query("ttl"); raw != "" {
		ttl, err = time.ParseDuration(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ttl"})
			return
		}
	}

	meta, err := h.files.Get(c.Request.Context(), file.Accessor{UserID: user.ID, Email: user.Email}, fileID)
	if err != nil {
		if err == file.ErrFileNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		logger.L().Error("resolve file for presign", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate url"})
		return
	}

	signedURL, err := h.service.GetURL(c.Request.Context(), meta.ObjectKey(), ttl)
	if err != nil {
		logger.L().Error("presign url", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate url"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"url":     signedURL,
		"expires": time.Now().Add(ttl),
	})
}
