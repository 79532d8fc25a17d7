package file

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/devanup/DocBox/internal/auth"
	"github.com/devanup/DocBox/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, service *Service) {
	handler := &httpHandler{service: service}
	group.POST("/files", handler.uploadFile)
	group.GET("/files", handler.listFiles)
	group.GET("/files/:fileID", handler.getFile)
	group.GET("/files/:fileID/download", handler.downloadFile)
	group.PATCH("/files/:fileID", handler.renameFile)
	group.PUT("/files/:fileID/users", handler.shareFile)
	group.DELETE("/files/:fileID", handler.deleteFile)
	group.GET("/usage", handler.usage)
}

type httpHandler struct {
	service *Service
}

func (h *httpHandler) uploadFile(c *gin.Context) {
	user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field is required"})
		return
	}

	meta, err := h.service.Upload(c.Request.Context(), user.ID, user.AccountID, fileHeader)
	if err != nil {
		if err == ErrFileTooLarge {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file too large"})
			return
		}
		logger.L().Error("upload file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to upload file"})
		return
	}

	c.JSON(http.StatusCreated, meta)
}

func (h *httpHandler) listFiles(c *gin.Context) {
	user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	query := ListQuery{
		Search: c.Query("search"),
		Sort:   c.Query("sort"),
	}
	if raw := c.Query("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			query.Types = append(query.Types, Type(strings.TrimSpace(t)))
		}
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		query.Limit = limit
	}

	list, err := h.service.List(c.Request.Context(), accessorFor(user), query)
	if err != nil {
		if err == ErrInvalidType {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type"})
			return
		}
		logger.L().Error("list files", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": list})
}

func (h *httpHandler) getFile(c *gin.Context) {
	user, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	meta, err := h.service.Get(c.Request.Context(), accessorFor(user), fileID)
	if err != nil {
		respondFileError(c, err, "get file", "failed to get file")
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *httpHandler) downloadFile(c *gin.Context) {
	user, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	meta, reader, err := h.service.Download(c.Request.Context(), accessorFor(user), fileID)
	if err != nil {
		respondFileError(c, err, "download file", "failed to download file")
		return
	}
	defer reader.Close()

	// No Content-Length claim: a failed object read mid-stream then ends the
	// body early instead of completing as a truncated 200.
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		logger.L().Error("stream object", zap.Error(err))
		c.Abort()
		return
	}
}

type renameRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func (h *httpHandler) renameFile(c *gin.Context) {
	user, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta, err := h.service.Rename(c.Request.Context(), user.ID, fileID, req.Name)
	if err != nil {
		respondFileError(c, err, "rename file", "failed to rename file")
		return
	}
	c.JSON(http.StatusOK, meta)
}

type shareRequest struct {
	Emails []string `json:"emails" binding:"required,dive,email"`
}

func (h *httpHandler) shareFile(c *gin.Context) {
	user, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	var req shareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	meta, err := h.service.Share(c.Request.Context(), user.ID, fileID, req.Emails)
	if err != nil {
		respondFileError(c, err, "share file", "failed to update file users")
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (h *httpHandler) deleteFile(c *gin.Context) {
	user, fileID, ok := requireFileRequest(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), user.ID, fileID); err != nil {
		respondFileError(c, err, "delete file", "failed to delete file")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *httpHandler) usage(c *gin.Context) {
	user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	usage, err := h.service.TotalSpaceUsed(c.Request.Context(), user.ID)
	if err != nil {
		logger.L().Error("total space used", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute usage"})
		return
	}
	c.JSON(http.StatusOK, usage)
}

func accessorFor(user auth.User) Accessor {
	return Accessor{UserID: user.ID, Email: user.Email}
}

func requireFileRequest(c *gin.Context) (auth.User, uuid.UUID, bool) {
	user, ok := auth.RequireUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return auth.User{}, uuid.Nil, false
	}

	fileID, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return auth.User{}, uuid.Nil, false
	}
	return user, fileID, true
}

func respondFileError(c *gin.Context, err error, logMsg, fallback string) {
	if err == ErrFileNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	logger.L().Error(logMsg, zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
