package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"promoagent/internal/models"
	"promoagent/internal/service"
)

const errGenerationFailed = "Generation failed"

type generateResponse struct {
	Response string `json:"response"`
	ImageURL string `json:"image_url"`
}

// Generate forwards the hosted reference and query to the generation
// service so the browser never talks to it directly.
func (h HandlerSet) Generate(c *gin.Context) {
	req := models.GenerationRequest{
		PDFURL:    c.PostForm("pdf_url"),
		UserQuery: c.PostForm("user_query"),
	}

	result, err := h.generateService.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrMissingGenerationInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.Error().Err(err).Str("pdf_url", req.PDFURL).Msg("generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerationFailed})
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Response: result.Text,
		ImageURL: result.ImageURL,
	})
}
