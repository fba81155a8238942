package render

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mailstudio/builder/internal/models"
)

// upstreamBodyCap limits how much of an upstream error body is preserved for
// diagnostics.
const upstreamBodyCap = 8 * 1024

// ErrEmptyResponse is returned when the render engine answers with a success
// status but a zero-length body. An empty artifact is a failure, never a valid
// download.
var ErrEmptyResponse = errors.New("render engine returned an empty response")

// UpstreamError carries the status and body of a non-success response from the
// render engine so the caller can surface them.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("render engine returned %d: %s", e.StatusCode, e.Body)
}

// RenderedTemplate is a finished, downloadable HTML artifact.
type RenderedTemplate struct {
	HTML        []byte
	Filename    string
	ContentType string
}

// IRenderGateway forwards a complete EmailConfig to the external render engine
// and returns the finished HTML document.
type IRenderGateway interface {
	RenderToDownloadable(ctx context.Context, cfg models.EmailConfig) (*RenderedTemplate, error)
}

// Gateway implements IRenderGateway over a synchronous HTTP request. No
// retries are performed; a hung upstream surfaces as an error once the client
// timeout elapses and the caller decides whether to re-submit.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// NewGateway creates a render gateway talking to the engine at baseURL.
func NewGateway(baseURL string, timeout time.Duration) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// RenderToDownloadable posts the config to the engine and returns the rendered
// document with a collision-free suggested filename.
func (g *Gateway) RenderToDownloadable(ctx context.Context, cfg models.EmailConfig) (*RenderedTemplate, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email config: %w", err)
	}

	url := g.baseURL + "/api/renderAndDownloadTemplate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/html")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("render engine request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, upstreamBodyCap))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	html, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered template: %w", err)
	}
	if len(html) == 0 {
		return nil, ErrEmptyResponse
	}

	return &RenderedTemplate{
		HTML:        html,
		Filename:    fmt.Sprintf("email_template_%d.html", time.Now().UnixMilli()),
		ContentType: "text/html",
	}, nil
}
