package services

import (
	"context"
	"errors"

	"mailstudio/builder/internal/models"
)

// IConfigStore defines the interface for persisting email configurations.
// The store is append-only: Save assigns an id when the config has none and
// writes a new record; records are never updated in place or deleted. List
// returns records in insertion order so the editor's saved list is stable.
type IConfigStore interface {
	Save(ctx context.Context, cfg models.EmailConfig) (models.EmailConfig, error)
	List(ctx context.Context) ([]models.EmailConfig, error)
}

// ErrStoreUnavailable wraps I/O failures of a config store backend.
var ErrStoreUnavailable = errors.New("config store unavailable")
