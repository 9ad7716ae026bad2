package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/zots0127/filebin/internal/adapter/middleware"
	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/usecase"
)

// APIHandler serves the JSON endpoints behind the presigned upload flow.
type APIHandler struct {
	coordinator *usecase.UploadCoordinator
	logger      *log.Logger
	startTime   time.Time
}

func NewAPIHandler(coordinator *usecase.UploadCoordinator, logger *log.Logger) *APIHandler {
	return &APIHandler{
		coordinator: coordinator,
		logger:      logger,
		startTime:   time.Now(),
	}
}

type presignedUploadRequest struct {
	Extension string `json:"extension" binding:"required"`
}

type confirmUploadRequest struct {
	StorageKey string `json:"storageKey" binding:"required"`
}

// PresignedUploadURL hands the client a URL it can PUT one object to,
// and the storage key the later confirm call must name.
func (h *APIHandler) PresignedUploadURL(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)

	var req presignedUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.coordinator.BeginPresignedUpload(c.Request.Context(), claims.UserID, req.Extension)
	switch {
	case errors.Is(err, entities.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.Error("starting presigned upload", "user", claims.UserID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	default:
		c.JSON(http.StatusOK, result)
	}
}

// ConfirmUpload activates the record for a storage key the client says it
// has uploaded. The blob is taken on the client's word; a false confirm
// surfaces as a download failure later.
func (h *APIHandler) ConfirmUpload(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)

	var req confirmUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.coordinator.ConfirmUpload(c.Request.Context(), claims.UserID, req.StorageKey)
	switch {
	case errors.Is(err, entities.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
	case err != nil:
		h.logger.Error("confirming upload", "user", claims.UserID, "key", req.StorageKey, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	default:
		c.JSON(http.StatusOK, gin.H{"storageKey": req.StorageKey})
	}
}

// Health reports liveness and process uptime.
func (h *APIHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "OK",
		"uptime": time.Since(h.startTime).Seconds(),
	})
}
