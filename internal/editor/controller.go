package editor

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"mailstudio/builder/internal/models"
)

// Errors returned by controller operations.
var (
	ErrUnknownField   = errors.New("unknown editor field")
	ErrInvalidValue   = errors.New("invalid value for editor field")
	ErrConfigNotFound = errors.New("saved config not found")
)

// Field identifies an editable property of the draft.
type Field string

const (
	FieldTitle        Field = "title"
	FieldContent      Field = "content"
	FieldImageURL     Field = "imageUrl"
	FieldTemplate     Field = "template"
	FieldFontFamily   Field = "fontFamily"
	FieldPrimaryColor Field = "primaryColor"
	FieldSpacing      Field = "spacing"
)

// SpacingPatch is a partial spacing update. Nil fields keep their current
// value.
type SpacingPatch struct {
	Padding        *string
	ContentSpacing *string
}

// State is a snapshot of what the editor is working with.
type State struct {
	Draft  models.EmailConfig
	Layout string
	Saved  []models.EmailConfig
}

// Controller drives an editing session against the builder API. It keeps the
// in-progress draft, the layout shell and the list of saved configurations.
type Controller struct {
	baseURL string
	client  *http.Client

	mu    sync.Mutex
	state State
}

// NewController creates a controller talking to the API at baseURL.
func NewController(baseURL string, timeout time.Duration) *Controller {
	return &Controller{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		state: State{
			Draft: models.DefaultConfig(),
		},
	}
}

// State returns a copy of the current editor state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.state
	snapshot.Saved = append([]models.EmailConfig(nil), c.state.Saved...)
	return snapshot
}

// LoadInitialState fetches the layout shell and the saved configurations
// concurrently. A failure of either fetch is reported, but whatever succeeded
// is kept so the editor can still open.
func (c *Controller) LoadInitialState(ctx context.Context) error {
	var wg sync.WaitGroup
	var layout string
	var saved []models.EmailConfig
	var layoutErr, savedErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		layout, layoutErr = c.fetchLayout(ctx)
	}()
	go func() {
		defer wg.Done()
		saved, savedErr = c.fetchConfigs(ctx)
	}()
	wg.Wait()

	c.mu.Lock()
	if layoutErr == nil {
		c.state.Layout = layout
	}
	if savedErr == nil {
		c.state.Saved = saved
	}
	c.mu.Unlock()

	return errors.Join(layoutErr, savedErr)
}

// UpdateField applies a single field change to the draft. Spacing updates are
// shallow merged, everything else replaces the field value.
func (c *Controller) UpdateField(field Field, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch field {
	case FieldTitle, FieldContent, FieldImageURL, FieldFontFamily, FieldPrimaryColor:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string", ErrInvalidValue, field)
		}
		switch field {
		case FieldTitle:
			c.state.Draft.Title = s
		case FieldContent:
			c.state.Draft.Content = s
		case FieldImageURL:
			c.state.Draft.ImageURL = s
		case FieldFontFamily:
			c.state.Draft.FontFamily = s
		case FieldPrimaryColor:
			c.state.Draft.PrimaryColor = s
		}
	case FieldTemplate:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s expects a string", ErrInvalidValue, field)
		}
		tmpl := models.TemplateType(s)
		if !models.KnownTemplate(tmpl) {
			return fmt.Errorf("%w: unknown template %q", ErrInvalidValue, s)
		}
		c.state.Draft.Template = tmpl
	case FieldSpacing:
		patch, ok := value.(SpacingPatch)
		if !ok {
			return fmt.Errorf("%w: %s expects a SpacingPatch", ErrInvalidValue, field)
		}
		if patch.Padding != nil {
			c.state.Draft.Spacing.Padding = *patch.Padding
		}
		if patch.ContentSpacing != nil {
			c.state.Draft.Spacing.ContentSpacing = *patch.ContentSpacing
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	return nil
}

// UploadImage embeds image bytes into the draft as a base64 data URI. The
// bytes only leave the editor when the draft is saved, which moves them into
// the asset store server side.
func (c *Controller) UploadImage(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: empty image", ErrInvalidValue)
	}

	mediaType := http.DetectContentType(data)
	uri := fmt.Sprintf("data:%s;base64,%s", mediaType, base64.StdEncoding.EncodeToString(data))

	c.mu.Lock()
	c.state.Draft.ImageURL = uri
	c.mu.Unlock()
	return nil
}

// Save persists the draft and then refreshes the saved list. The refresh only
// happens after the save has been acknowledged, so the list always includes
// the new record.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	draft := c.state.Draft
	c.mu.Unlock()

	body, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	resp, err := c.post(ctx, "/api/uploadEmailConfig", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("save rejected with status %d", resp.StatusCode)
	}

	saved, err := c.fetchConfigs(ctx)
	if err != nil {
		return fmt.Errorf("saved, but refreshing the list failed: %w", err)
	}

	c.mu.Lock()
	c.state.Saved = saved
	c.mu.Unlock()
	return nil
}

// RenderedFile is the result of a render request.
type RenderedFile struct {
	HTML     []byte
	Filename string
}

// RenderAndDownload renders the current draft through the API and returns the
// HTML document along with the suggested download filename.
func (c *Controller) RenderAndDownload(ctx context.Context) (*RenderedFile, error) {
	c.mu.Lock()
	draft := c.state.Draft
	c.mu.Unlock()

	body, err := json.Marshal(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal draft: %w", err)
	}

	resp, err := c.post(ctx, "/api/renderAndDownloadTemplate", body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("render failed with status %d", resp.StatusCode)
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered template: %w", err)
	}

	return &RenderedFile{
		HTML:     html,
		Filename: filenameFromDisposition(resp.Header.Get("Content-Disposition")),
	}, nil
}

// LoadConfig replaces the draft with a saved configuration, merged with
// defaults. The saved record itself is never mutated.
func (c *Controller) LoadConfig(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cfg := range c.state.Saved {
		if cfg.ID == id {
			c.state.Draft = models.MergeWithDefaults(cfg)
			return nil
		}
	}
	return fmt.Errorf("%w: id=%d", ErrConfigNotFound, id)
}

func (c *Controller) fetchLayout(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/getEmailLayout", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch layout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("layout fetch failed with status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read layout: %w", err)
	}
	return string(data), nil
}

func (c *Controller) fetchConfigs(ctx context.Context) ([]models.EmailConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/getEmailConfigs", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch configs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("config fetch failed with status %d", resp.StatusCode)
	}

	var configs []models.EmailConfig
	if err := json.NewDecoder(resp.Body).Decode(&configs); err != nil {
		return nil, fmt.Errorf("failed to decode configs: %w", err)
	}
	return configs, nil
}

func (c *Controller) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	return resp, nil
}

// filenameFromDisposition extracts the filename from a Content-Disposition
// header like `attachment; filename=email_template_123.html`.
func filenameFromDisposition(header string) string {
	const marker = "filename="
	idx := strings.Index(header, marker)
	if idx < 0 {
		return ""
	}
	name := header[idx+len(marker):]
	return strings.Trim(name, `" `)
}
