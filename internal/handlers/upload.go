package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"promoagent/internal/middleware"
	"promoagent/internal/service"
)

const (
	errNoFileUploaded = "No file uploaded"
	errUploadFailed   = "Upload failed"
)

type uploadResponse struct {
	URL string `json:"url"`
}

func (h HandlerSet) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			c.JSON(http.StatusBadRequest, gin.H{"error": errNoFileUploaded})
			return
		}
		h.log.Error().Err(err).Msg("read multipart form failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errUploadFailed})
		return
	}
	defer file.Close()

	middleware.SetHosting(c, h.cfg.Hosting.Provider)
	result, err := h.uploadService.Upload(c.Request.Context(), service.UploadInput{
		File:   file,
		Header: header,
	})
	if err != nil {
		h.log.Error().Err(err).Str("filename", header.Filename).Int64("size", header.Size).Msg("upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errUploadFailed})
		return
	}

	h.log.Info().
		Str("public_id", result.PublicID).
		Str("media_type", result.MediaType).
		Int64("size", result.SizeBytes).
		Msg("upload hosted")

	c.JSON(http.StatusOK, uploadResponse{URL: result.URL})
}
