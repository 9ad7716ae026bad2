package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/zots0127/filebin/internal/adapter/middleware"
)

// RegisterRoutes wires every page and API route onto the engine.
func RegisterRoutes(router *gin.Engine, gate *middleware.AccessGate, pages *PagesHandler, api *APIHandler) {
	router.GET("/health", api.Health)

	router.GET("/", gate.Scan(), pages.Landing)
	router.POST("/", pages.Login)
	router.GET("/logout", pages.Logout)

	files := router.Group("/files", gate.Enforce())
	files.GET("", pages.Files)
	files.GET("/proxy-upload", pages.ProxyUploadForm)
	files.POST("/proxy-upload", pages.ProxyUpload)
	files.GET("/presigned-url", pages.PresignedUploadPage)
	files.POST("/delete/:id", pages.DeleteFile)

	apiGroup := router.Group("/api", gate.Enforce())
	apiGroup.POST("/presigned-upload-url", api.PresignedUploadURL)
	apiGroup.PUT("/confirm-upload", api.ConfirmUpload)

	// The storage route resolves identity permissively; whether ownership
	// is enforced is the handler's policy decision.
	router.GET("/storage/:userId/:key", gate.Scan(), pages.Storage)
}
