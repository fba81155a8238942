package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/render"
)

// RenderHandler proxies render requests to the render engine.
type RenderHandler struct {
	gateway render.IRenderGateway
}

// NewRenderHandler creates a new RenderHandler.
func NewRenderHandler(gateway render.IRenderGateway) *RenderHandler {
	return &RenderHandler{gateway: gateway}
}

// RenderAndDownloadTemplate merges the posted config with defaults, renders it
// through the engine and streams the HTML back as a download.
// Handles POST /api/renderAndDownloadTemplate
func (h *RenderHandler) RenderAndDownloadTemplate(c *gin.Context) {
	var cfg models.EmailConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		log.Printf("Invalid render payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	merged := models.MergeWithDefaults(cfg)

	rendered, err := h.gateway.RenderToDownloadable(c.Request.Context(), merged)
	if err != nil {
		var upstream *render.UpstreamError
		switch {
		case errors.As(err, &upstream):
			log.Printf("Render engine returned %d: %s", upstream.StatusCode, upstream.Body)
			c.JSON(upstream.StatusCode, gin.H{"error": "Failed to render template"})
		case errors.Is(err, render.ErrEmptyResponse):
			log.Printf("Render engine returned an empty body")
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to render template"})
		default:
			log.Printf("Error reaching render engine: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to render template"})
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", rendered.Filename))
	c.Data(http.StatusOK, rendered.ContentType, rendered.HTML)
}
