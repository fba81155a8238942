package handlers

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailstudio/builder/internal/storage"
	"mailstudio/builder/internal/tasks"
)

// UploadHandler accepts multipart file uploads from the editor.
type UploadHandler struct {
	assetStore     storage.IAssetStore
	taskClient     IAsynqClient
	maxUploadBytes int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(assetStore storage.IAssetStore, taskClient IAsynqClient, maxUploadMB int) *UploadHandler {
	return &UploadHandler{
		assetStore:     assetStore,
		taskClient:     taskClient,
		maxUploadBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// UploadFile stores a generic file and returns its public path.
// Handles POST /api/upload (multipart field "file")
func (h *UploadHandler) UploadFile(c *gin.Context) {
	data, name, ok := h.readUpload(c, "file")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	ref, err := h.assetStore.Store(c.Request.Context(), data, name)
	if err != nil {
		log.Printf("Error storing uploaded file %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"path":    ref,
	})
}

// UploadImage stores an image asset and queues background normalization.
// A missing file is reported as success=false with a 200, which is what the
// editor expects.
// Handles POST /api/uploadImage (multipart field "image")
func (h *UploadHandler) UploadImage(c *gin.Context) {
	data, name, ok := h.readUpload(c, "image")
	if !ok {
		c.JSON(http.StatusOK, gin.H{"success": false})
		return
	}

	ref, err := h.assetStore.Store(c.Request.Context(), data, name)
	if err != nil {
		log.Printf("Error storing uploaded image %s: %v", name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}

	if h.taskClient != nil {
		task, err := tasks.NewImageNormalizeTask(ref)
		if err == nil {
			_, err = h.taskClient.EnqueueContext(c.Request.Context(), task)
		}
		if err != nil {
			log.Printf("Warning: could not enqueue normalize task for %s: %v", ref, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"imageUrl": ref,
	})
}

// readUpload pulls a multipart file out of the request, enforcing the size
// cap. Returns ok=false if the field is absent or unreadable.
func (h *UploadHandler) readUpload(c *gin.Context, field string) ([]byte, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return nil, "", false
	}

	if h.maxUploadBytes > 0 && fileHeader.Size > h.maxUploadBytes {
		log.Printf("Rejecting upload %s: %d bytes exceeds limit %d", fileHeader.Filename, fileHeader.Size, h.maxUploadBytes)
		return nil, "", false
	}

	f, err := fileHeader.Open()
	if err != nil {
		log.Printf("Error opening uploaded file %s: %v", fileHeader.Filename, err)
		return nil, "", false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		log.Printf("Error reading uploaded file %s: %v", fileHeader.Filename, err)
		return nil, "", false
	}

	return data, fileHeader.Filename, true
}
