package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	commonauth "coach_server/server/common/auth"
	"coach_server/server/common/middleware"
	"coach_server/server/common/transport/httpresp"
	"coach_server/server/mediaman/domain"
	"coach_server/server/mediaman/service"
)

type Handler struct {
	uploads *service.UploadService
	auth    *commonauth.Service
}

func NewHandler(uploads *service.UploadService, auth *commonauth.Service) *Handler {
	return &Handler{uploads: uploads, auth: auth}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.AuthRequired(h.auth))
	{
		api.POST("/videos/upload", h.upload)
		api.POST("/videos/presign-upload", h.presignUpload)
		api.POST("/videos/presign-download", h.presignDownload)
	}
}

func (h *Handler) upload(c *gin.Context) {
	userID, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrUnauthorized))
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("file field is required"))
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if err := service.ValidateVideo(contentType, fileHeader.Size, h.uploads.MaxBytes()); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse("cannot read uploaded file"))
		return
	}
	defer f.Close()

	stored, err := h.uploads.Upload(c.Request.Context(), userID, contentType, fileHeader.Size, f)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnsupportedFormat), errors.Is(err, domain.ErrFileTooLarge):
			c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		case errors.Is(err, domain.ErrUploadInProgress):
			c.JSON(http.StatusConflict, httpresp.NewErrorResponse(err.Error()))
		default:
			c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse(err.Error()))
		}
		return
	}
	c.JSON(http.StatusOK, httpresp.NewUploadResponse(stored.ObjectKey, stored.PreviewURL))
}

func (h *Handler) presignUpload(c *gin.Context) {
	userID, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrUnauthorized))
		return
	}
	presigned, err := h.uploads.PresignUpload(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, presigned)
}

func (h *Handler) presignDownload(c *gin.Context) {
	userID, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, httpresp.NewErrorResponse(httpresp.ErrUnauthorized))
		return
	}
	var req struct {
		ObjectKey string `json:"object_key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httpresp.NewErrorResponse(err.Error()))
		return
	}
	url, err := h.uploads.PresignDownload(c.Request.Context(), userID, req.ObjectKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotOwner) {
			c.JSON(http.StatusForbidden, httpresp.NewErrorResponse(httpresp.ErrForbidden))
			return
		}
		c.JSON(http.StatusInternalServerError, httpresp.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, httpresp.NewURLResponse(url))
}
