package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"mailstudio/builder/internal/models"
	"mailstudio/builder/internal/render"
)

// --- Mocks ---

// MockConfigStore
type MockConfigStore struct {
	mock.Mock
}

func (m *MockConfigStore) Save(ctx context.Context, cfg models.EmailConfig) (models.EmailConfig, error) {
	args := m.Called(ctx, cfg)
	return args.Get(0).(models.EmailConfig), args.Error(1)
}

func (m *MockConfigStore) List(ctx context.Context) ([]models.EmailConfig, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.EmailConfig), args.Error(1)
}

// MockAssetStore
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

// MockLayoutService
type MockLayoutService struct {
	mock.Mock
}

func (m *MockLayoutService) GetLayout(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockRenderGateway
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

// MockAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
