package handlers_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mailstudio/builder/internal/api/handlers"
	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/render"
)

func setupRenderRouter(gateway *MockRenderGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := handlers.NewRenderHandler(gateway)
	r := gin.New()
	r.POST("/api/renderAndDownloadTemplate", handler.RenderAndDownloadTemplate)
	return r
}

func TestRenderHandler_Success(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	r := setupRenderRouter(mockGateway)

	// The gateway must receive a fully merged config even though the request
	// only carries a title.
	mockGateway.On("RenderToDownloadable", mock.Anything, mock.MatchedBy(func(cfg models.EmailConfig) bool {
		return cfg.Title == "Hi" && cfg.Template == models.TemplateStandard && cfg.PrimaryColor == "#2563eb"
	})).Return(&render.RenderedTemplate{
		HTML:        []byte("<html>rendered</html>"),
		Filename:    "email_template_1700000000000.html",
		ContentType: "text/html",
	}, nil)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/renderAndDownloadTemplate", bytes.NewReader([]byte(`{"title":"Hi"}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<html>rendered</html>", w.Body.String())
	assert.Equal(t, "attachment; filename=email_template_1700000000000.html", w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	mockGateway.AssertExpectations(t)
}

func TestRenderHandler_UpstreamErrorPropagatesStatus(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	r := setupRenderRouter(mockGateway)

	mockGateway.On("RenderToDownloadable", mock.Anything, mock.Anything).
		Return(nil, &render.UpstreamError{StatusCode: http.StatusInternalServerError, Body: "boom"})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/renderAndDownloadTemplate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to render template"}`, w.Body.String())
}

func TestRenderHandler_EmptyUpstreamBodyIsBadGateway(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	r := setupRenderRouter(mockGateway)

	mockGateway.On("RenderToDownloadable", mock.Anything, mock.Anything).
		Return(nil, render.ErrEmptyResponse)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/renderAndDownloadTemplate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRenderHandler_TransportErrorIsBadGateway(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	r := setupRenderRouter(mockGateway)

	mockGateway.On("RenderToDownloadable", mock.Anything, mock.Anything).
		Return(nil, assert.AnError)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/renderAndDownloadTemplate", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRenderHandler_MalformedBody(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	r := setupRenderRouter(mockGateway)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/renderAndDownloadTemplate", bytes.NewReader([]byte(`nope`)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockGateway.AssertNotCalled(t, "RenderToDownloadable")
}
