package handlers

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/services"
	"mailstudio/builder/internal/storage"
	"mailstudio/builder/internal/tasks"
)

// ConfigHandler manages saved email configurations.
type ConfigHandler struct {
	store      services.IConfigStore
	assetStore storage.IAssetStore
	taskClient IAsynqClient
}

// NewConfigHandler creates a new ConfigHandler.
func NewConfigHandler(store services.IConfigStore, assetStore storage.IAssetStore, taskClient IAsynqClient) *ConfigHandler {
	return &ConfigHandler{
		store:      store,
		assetStore: assetStore,
		taskClient: taskClient,
	}
}

// GetEmailConfigs returns every saved configuration, fully merged with
// defaults so consumers never see partial records.
// Handles GET /api/getEmailConfigs
func (h *ConfigHandler) GetEmailConfigs(c *gin.Context) {
	configs, err := h.store.List(c.Request.Context())
	if err != nil {
		log.Printf("Error listing email configs: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading config file"})
		return
	}

	merged := make([]models.EmailConfig, 0, len(configs))
	for _, cfg := range configs {
		merged = append(merged, models.MergeWithDefaults(cfg))
	}

	c.JSON(http.StatusOK, merged)
}

// UploadEmailConfig persists a configuration. Inline data URI images are
// decoded and moved into the asset store first, so records only ever hold
// short references.
// Handles POST /api/uploadEmailConfig
func (h *ConfigHandler) UploadEmailConfig(c *gin.Context) {
	var cfg models.EmailConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		log.Printf("Invalid email config payload: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false})
		return
	}

	if strings.HasPrefix(cfg.ImageURL, "data:") {
		ref, err := h.persistInlineImage(c, cfg.ImageURL)
		if err != nil {
			log.Printf("Error persisting inline image: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false})
			return
		}
		cfg.ImageURL = ref
	}

	if _, err := h.store.Save(c.Request.Context(), cfg); err != nil {
		log.Printf("Error saving email config: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// persistInlineImage decodes a base64 data URI, stores the bytes as an asset
// and queues normalization. Returns the asset reference.
func (h *ConfigHandler) persistInlineImage(c *gin.Context, dataURI string) (string, error) {
	data, ext, err := decodeDataURI(dataURI)
	if err != nil {
		return "", err
	}

	ref, err := h.assetStore.Store(c.Request.Context(), data, "embedded"+ext)
	if err != nil {
		return "", err
	}

	if h.taskClient != nil {
		task, err := tasks.NewImageNormalizeTask(ref)
		if err == nil {
			_, err = h.taskClient.EnqueueContext(c.Request.Context(), task)
		}
		if err != nil {
			// Normalization is best effort, the asset is already usable.
			log.Printf("Warning: could not enqueue normalize task for %s: %v", ref, err)
		}
	}

	return ref, nil
}

// decodeDataURI splits "data:<mediatype>;base64,<payload>" into raw bytes and
// a file extension guessed from the media type.
func decodeDataURI(uri string) ([]byte, string, error) {
	rest := strings.TrimPrefix(uri, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return nil, "", fmt.Errorf("malformed data URI")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return nil, "", fmt.Errorf("unsupported data URI encoding")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode data URI payload: %w", err)
	}

	mediaType := strings.TrimSuffix(meta, ";base64")
	ext := ".bin"
	switch mediaType {
	case "image/png":
		ext = ".png"
	case "image/jpeg", "image/jpg":
		ext = ".jpg"
	case "image/gif":
		ext = ".gif"
	case "image/webp":
		ext = ".webp"
	}

	return data, ext, nil
}
