package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif" // register decoders for uploaded asset formats
	"image/jpeg"
	_ "image/png"
	"log"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"mailstudio/builder/internal/config"
	"mailstudio/builder/internal/email"
	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/render"
	"mailstudio/builder/internal/storage"
)

// Task types handled by the background worker.
const (
	TypeImageNormalize = "image:normalize"
	TypeTestEmail      = "email:test_deliver"
)

// --- Task Client (Enqueuing tasks) ---

// NewClient creates an asynq client on the same Redis the worker listens on.
func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// ImageTaskPayload identifies a stored asset to normalize.
type ImageTaskPayload struct {
	Ref string `json:"ref"`
}

// NewImageNormalizeTask builds a task that normalizes the asset at ref.
func NewImageNormalizeTask(ref string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{Ref: ref})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageNormalize, payload, asynq.Queue("images")), nil
}

// TestEmailPayload carries a draft config and the address to deliver a test
// render to.
type TestEmailPayload struct {
	To     string             `json:"to"`
	Config models.EmailConfig `json:"config"`
}

// NewTestEmailTask builds a task that renders cfg and emails the result.
func NewTestEmailTask(to string, cfg models.EmailConfig) (*asynq.Task, error) {
	payload, err := json.Marshal(TestEmailPayload{To: to, Config: cfg})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal test email payload: %w", err)
	}
	return asynq.NewTask(TypeTestEmail, payload), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg         *config.Config
	assetStore  storage.IAssetStore
	gateway     render.IRenderGateway
	emailSender email.Sender
}

// NewTaskProcessor creates a task processor with its handler dependencies.
func NewTaskProcessor(cfg *config.Config, assetStore storage.IAssetStore, gateway render.IRenderGateway, emailSender email.Sender) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		assetStore:  assetStore,
		gateway:     gateway,
		emailSender: emailSender,
	}
}

// SetupServer configures an Asynq server and the mux with all task handlers
// registered. The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
				"images":  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageNormalize, processor.HandleImageNormalizeTask)
	mux.HandleFunc(TypeTestEmail, processor.HandleTestEmailTask)

	return srv, mux
}

// --- Task Handlers ---

// HandleImageNormalizeTask downscales an uploaded image asset to the configured
// maximum dimension, re-encoding it as JPEG. The asset keeps its reference, so
// configurations pointing at it stay valid.
func (p *TaskProcessor) HandleImageNormalizeTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	log.Printf("Processing image normalize task: ref=%s", payload.Ref)

	imgData, err := p.assetStore.Read(ctx, payload.Ref)
	if err != nil {
		log.Printf("Error reading asset %s: %v", payload.Ref, err)
		// Asset gone or reference bogus: retrying won't help.
		return fmt.Errorf("asset not readable: %w", asynq.SkipRetry)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Asset %s exceeds max size (%d > %d bytes). Skipping.", payload.Ref, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding asset %s: %v", payload.Ref, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	maxDim := p.cfg.ImageMaxDimension
	if img.Bounds().Dx() <= maxDim && img.Bounds().Dy() <= maxDim {
		log.Printf("Asset %s (%s, %dx%d) within limits, nothing to do.", payload.Ref, format, img.Bounds().Dx(), img.Bounds().Dy())
		return nil
	}

	log.Printf("Resizing asset %s (original: %dx%d, max: %d)", payload.Ref, img.Bounds().Dx(), img.Bounds().Dy(), maxDim)
	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		log.Printf("Error encoding resized asset %s: %v", payload.Ref, err)
		return fmt.Errorf("failed to re-encode resized image: %w", err)
	}

	if err := p.assetStore.Replace(ctx, payload.Ref, buf.Bytes(), "image/jpeg"); err != nil {
		log.Printf("Error replacing asset %s with normalized version: %v", payload.Ref, err)
		return fmt.Errorf("failed to store normalized image: %w", err)
	}

	log.Printf("Image normalize task done: ref=%s, new size %dx%d", payload.Ref, resized.Bounds().Dx(), resized.Bounds().Dy())
	return nil
}

// HandleTestEmailTask renders a config through the render gateway and delivers
// the resulting HTML to the requested address.
func (p *TaskProcessor) HandleTestEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload TestEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal test email payload: %v: %w", err, asynq.SkipRetry)
	}

	if payload.To == "" {
		return fmt.Errorf("missing recipient in test email payload: %w", asynq.SkipRetry)
	}

	cfg := models.MergeWithDefaults(payload.Config)

	rendered, err := p.gateway.RenderToDownloadable(ctx, cfg)
	if err != nil {
		log.Printf("Render failed for test email to %s: %v", payload.To, err)
		// Upstream failures are transient often enough to be worth a retry.
		return fmt.Errorf("render for test email failed: %w", err)
	}

	subject := cfg.Title
	if subject == "" {
		subject = fmt.Sprintf("%s test email", p.cfg.AppName)
	}

	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, rendered.HTML); err != nil {
		log.Printf("Test email delivery to %s failed: %v", payload.To, err)
		return err
	}

	log.Printf("Test email task processed: to=%s, config id=%d", payload.To, cfg.ID)
	return nil
}
