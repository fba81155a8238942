package services

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrLayoutNotFound is returned when the layout shell asset is missing.
var ErrLayoutNotFound = errors.New("layout file not found")

// ILayoutService supplies the static HTML shell used as the rendering base.
type ILayoutService interface {
	GetLayout(ctx context.Context) ([]byte, error)
}

// LayoutService reads the layout shell from disk on every request, so edits to
// the file show up without a restart.
type LayoutService struct {
	path string
}

// NewLayoutService creates a LayoutService serving the file at path.
func NewLayoutService(path string) *LayoutService {
	return &LayoutService{path: path}
}

// GetLayout returns the raw layout HTML.
func (s *LayoutService) GetLayout(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to read layout file '%s': %w", s.path, err)
	}
	return data, nil
}
