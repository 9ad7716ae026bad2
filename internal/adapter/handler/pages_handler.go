package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/zots0127/filebin/internal/adapter/middleware"
	"github.com/zots0127/filebin/internal/domain/entities"
	"github.com/zots0127/filebin/internal/domain/repository"
	"github.com/zots0127/filebin/internal/session"
	"github.com/zots0127/filebin/internal/usecase"
)

// PagesHandler serves the server-rendered pages and the raw storage route.
type PagesHandler struct {
	users       repository.UserRepository
	coordinator *usecase.UploadCoordinator
	codec       *session.Codec
	logger      *log.Logger

	// requireStorageOwner controls whether /storage/:userId/:key checks
	// that the session owns the path's user segment, or trusts the
	// unguessability of the random key alone.
	requireStorageOwner bool
}

func NewPagesHandler(users repository.UserRepository, coordinator *usecase.UploadCoordinator, codec *session.Codec, requireStorageOwner bool, logger *log.Logger) *PagesHandler {
	return &PagesHandler{
		users:               users,
		coordinator:         coordinator,
		codec:               codec,
		logger:              logger,
		requireStorageOwner: requireStorageOwner,
	}
}

// Landing renders the login page, or sends an already logged-in caller to
// their file listing.
func (h *PagesHandler) Landing(c *gin.Context) {
	if claims, ok := middleware.CurrentUser(c); ok && claims.UserID != "" {
		c.Redirect(http.StatusFound, "/files")
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"error": c.Query("error"),
	})
}

// Login authenticates by username alone and installs the session cookie.
// A failed login redirects back to the landing page with an error marker
// rather than disclosing whether the username exists.
func (h *PagesHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	if username == "" {
		c.Redirect(http.StatusFound, "/?error=login-failed")
		return
	}

	user, err := h.users.GetByUsername(c.Request.Context(), username)
	if err != nil {
		if !errors.Is(err, entities.ErrNotFound) {
			h.logger.Error("login lookup failed", "err", err)
		}
		c.Redirect(http.StatusFound, "/?error=login-failed")
		return
	}

	token, err := h.codec.Issue(user)
	if err != nil {
		h.logger.Error("issuing session token", "err", err)
		c.Redirect(http.StatusFound, "/?error=login-failed")
		return
	}

	middleware.SetSessionCookie(c, token, int(h.codec.TTL().Seconds()))
	c.Redirect(http.StatusFound, "/files")
}

// Logout clears the cookie. The token itself stays valid until expiry;
// there is no server-side revocation.
func (h *PagesHandler) Logout(c *gin.Context) {
	middleware.ClearSessionCookie(c)
	c.Redirect(http.StatusFound, "/")
}

// Files renders the caller's active files.
func (h *PagesHandler) Files(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)

	records, err := h.coordinator.ListFiles(c.Request.Context(), claims.UserID)
	if err != nil {
		h.logger.Error("listing files", "user", claims.UserID, "err", err)
		c.String(http.StatusInternalServerError, "Something went wrong")
		return
	}

	c.HTML(http.StatusOK, "files.html", gin.H{
		"user":  claims,
		"files": records,
	})
}

// ProxyUploadForm renders the multipart upload form.
func (h *PagesHandler) ProxyUploadForm(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	c.HTML(http.StatusOK, "proxy-upload.html", gin.H{"user": claims})
}

// ProxyUpload accepts a multipart upload and stores it through the server.
func (h *PagesHandler) ProxyUpload(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		c.Redirect(http.StatusFound, "/files/proxy-upload")
		return
	}
	defer file.Close()

	if _, err := h.coordinator.ProxyUpload(c.Request.Context(), claims.UserID, file); err != nil {
		h.logger.Error("proxy upload", "user", claims.UserID, "err", err)
		c.String(http.StatusInternalServerError, "Upload failed")
		return
	}

	c.Redirect(http.StatusFound, "/files")
}

// PresignedUploadPage renders the page whose script drives the
// presign/upload/confirm protocol from the browser.
func (h *PagesHandler) PresignedUploadPage(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	c.HTML(http.StatusOK, "presigned-url.html", gin.H{"user": claims})
}

// DeleteFile deletes an owned file, blob first.
func (h *PagesHandler) DeleteFile(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)

	err := h.coordinator.DeleteFile(c.Request.Context(), claims.UserID, c.Param("id"))
	switch {
	case errors.Is(err, entities.ErrNotFound):
		c.String(http.StatusNotFound, "File not found")
	case err != nil:
		h.logger.Error("deleting file", "user", claims.UserID, "file", c.Param("id"), "err", err)
		c.String(http.StatusInternalServerError, "Something went wrong during deletion")
	default:
		c.Redirect(http.StatusFound, "/files")
	}
}

// Storage streams blob bytes. With the owner policy on, the session must
// own the user segment in the path; with it off, possession of the random
// key is the access boundary.
func (h *PagesHandler) Storage(c *gin.Context) {
	pathUserID := c.Param("userId")
	storageKey := entities.FormStorageKey(pathUserID, c.Param("key"))

	callerID := pathUserID
	if h.requireStorageOwner {
		claims, ok := middleware.CurrentUser(c)
		if !ok {
			c.String(http.StatusForbidden, "Forbidden")
			return
		}
		callerID = claims.UserID
	}

	stream, err := h.coordinator.StreamFile(c.Request.Context(), callerID, storageKey)
	if errors.Is(err, entities.ErrForbidden) {
		c.String(http.StatusForbidden, "Forbidden")
		return
	}
	if err != nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	defer stream.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, stream); err != nil {
		// The client went away mid-transfer; nothing left to send.
		h.logger.Debug("storage stream aborted", "key", storageKey, "err", err)
	}
}
