package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"mailstudio/builder/internal/config"
	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/render"
)

// --- Mocks ---

type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	args := m.Called(ctx, data, originalName)
	return args.String(0), args.Error(1)
}

func (m *MockAssetStore) Read(ctx context.Context, ref string) ([]byte, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockAssetStore) Replace(ctx context.Context, ref string, data []byte, contentType string) error {
	args := m.Called(ctx, ref, data, contentType)
	return args.Error(0)
}

type MockRenderGateway struct {
	mock.Mock
}

func (m *MockRenderGateway) RenderToDownloadable(ctx context.Context, cfg models.EmailConfig) (*render.RenderedTemplate, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*render.RenderedTemplate), args.Error(1)
}

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, htmlBody []byte) error {
	args := m.Called(ctx, to, subject, htmlBody)
	return args.Error(0)
}

// --- Helpers ---

func testTaskConfig() *config.Config {
	return &config.Config{
		AppName:           "MailStudio",
		ImageMaxDimension: 64,
		ImageMaxSizeMB:    1,
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

// --- Tests ---

func TestNewImageNormalizeTask(t *testing.T) {
	task, err := NewImageNormalizeTask("/uploads/123-pic.png")
	require.NoError(t, err)
	assert.Equal(t, TypeImageNormalize, task.Type())

	var payload ImageTaskPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "/uploads/123-pic.png", payload.Ref)
}

func TestHandleImageNormalizeTask_ResizesOversizedImage(t *testing.T) {
	mockStore := new(MockAssetStore)
	processor := NewTaskProcessor(testTaskConfig(), mockStore, new(MockRenderGateway), new(MockEmailSender))

	mockStore.On("Read", mock.Anything, "/uploads/1-big.png").Return(pngBytes(t, 200, 100), nil)

	var replaced []byte
	mockStore.On("Replace", mock.Anything, "/uploads/1-big.png", mock.Anything, "image/jpeg").
		Run(func(args mock.Arguments) {
			replaced = args.Get(2).([]byte)
		}).Return(nil)

	task, err := NewImageNormalizeTask("/uploads/1-big.png")
	require.NoError(t, err)

	require.NoError(t, processor.HandleImageNormalizeTask(context.Background(), task))

	img, err := jpeg.Decode(bytes.NewReader(replaced))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), 64)
	assert.LessOrEqual(t, img.Bounds().Dy(), 64)
	mockStore.AssertExpectations(t)
}

func TestHandleImageNormalizeTask_SmallImageUntouched(t *testing.T) {
	mockStore := new(MockAssetStore)
	processor := NewTaskProcessor(testTaskConfig(), mockStore, new(MockRenderGateway), new(MockEmailSender))

	mockStore.On("Read", mock.Anything, "/uploads/2-small.png").Return(pngBytes(t, 32, 32), nil)

	task, err := NewImageNormalizeTask("/uploads/2-small.png")
	require.NoError(t, err)

	require.NoError(t, processor.HandleImageNormalizeTask(context.Background(), task))
	mockStore.AssertNotCalled(t, "Replace")
}

func TestHandleImageNormalizeTask_MissingAssetSkipsRetry(t *testing.T) {
	mockStore := new(MockAssetStore)
	processor := NewTaskProcessor(testTaskConfig(), mockStore, new(MockRenderGateway), new(MockEmailSender))

	mockStore.On("Read", mock.Anything, "/uploads/3-gone.png").Return(nil, assert.AnError)

	task, err := NewImageNormalizeTask("/uploads/3-gone.png")
	require.NoError(t, err)

	err = processor.HandleImageNormalizeTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleImageNormalizeTask_CorruptImageSkipsRetry(t *testing.T) {
	mockStore := new(MockAssetStore)
	processor := NewTaskProcessor(testTaskConfig(), mockStore, new(MockRenderGateway), new(MockEmailSender))

	mockStore.On("Read", mock.Anything, "/uploads/4-corrupt.png").Return([]byte("not an image"), nil)

	task, err := NewImageNormalizeTask("/uploads/4-corrupt.png")
	require.NoError(t, err)

	err = processor.HandleImageNormalizeTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleTestEmailTask_RendersMergedConfigAndSends(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	mockSender := new(MockEmailSender)
	processor := NewTaskProcessor(testTaskConfig(), new(MockAssetStore), mockGateway, mockSender)

	// The draft is partial. The gateway must receive a merged config.
	mockGateway.On("RenderToDownloadable", mock.Anything, mock.MatchedBy(func(cfg models.EmailConfig) bool {
		return cfg.Title == "Draft" && cfg.Template == models.TemplateStandard
	})).Return(&render.RenderedTemplate{HTML: []byte("<html>x</html>")}, nil)

	mockSender.On("Send", mock.Anything, []string{"dev@example.com"}, "Draft", []byte("<html>x</html>")).Return(nil)

	task, err := NewTestEmailTask("dev@example.com", models.EmailConfig{Title: "Draft"})
	require.NoError(t, err)

	require.NoError(t, processor.HandleTestEmailTask(context.Background(), task))
	mockGateway.AssertExpectations(t)
	mockSender.AssertExpectations(t)
}

func TestHandleTestEmailTask_DefaultSubject(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	mockSender := new(MockEmailSender)
	processor := NewTaskProcessor(testTaskConfig(), new(MockAssetStore), mockGateway, mockSender)

	mockGateway.On("RenderToDownloadable", mock.Anything, mock.Anything).
		Return(&render.RenderedTemplate{HTML: []byte("<html>x</html>")}, nil)
	mockSender.On("Send", mock.Anything, []string{"dev@example.com"}, "MailStudio test email", mock.Anything).Return(nil)

	task, err := NewTestEmailTask("dev@example.com", models.EmailConfig{})
	require.NoError(t, err)

	require.NoError(t, processor.HandleTestEmailTask(context.Background(), task))
	mockSender.AssertExpectations(t)
}

func TestHandleTestEmailTask_MissingRecipientSkipsRetry(t *testing.T) {
	processor := NewTaskProcessor(testTaskConfig(), new(MockAssetStore), new(MockRenderGateway), new(MockEmailSender))

	payload, err := json.Marshal(TestEmailPayload{Config: models.EmailConfig{}})
	require.NoError(t, err)
	task := asynq.NewTask(TypeTestEmail, payload)

	err = processor.HandleTestEmailTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleTestEmailTask_RenderFailureIsRetried(t *testing.T) {
	mockGateway := new(MockRenderGateway)
	processor := NewTaskProcessor(testTaskConfig(), new(MockAssetStore), mockGateway, new(MockEmailSender))

	mockGateway.On("RenderToDownloadable", mock.Anything, mock.Anything).Return(nil, assert.AnError)

	task, err := NewTestEmailTask("dev@example.com", models.EmailConfig{})
	require.NoError(t, err)

	err = processor.HandleTestEmailTask(context.Background(), task)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
