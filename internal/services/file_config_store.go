package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mailstudio/builder/internal/models"
)

// FileConfigStore implements IConfigStore on a single JSON file.
// This is the default backend when no MongoDB is configured. A mutex
// serializes writers within the process, and each save rewrites the file via
// temp-file + rename so a concurrent List never observes a half-written file.
type FileConfigStore struct {
	path string
	mu   sync.Mutex
}

// NewFileConfigStore creates a file-backed config store at path, creating the
// parent directory if needed. An existing file is validated up front so a
// corrupt store fails at startup rather than on first save.
func NewFileConfigStore(path string) (*FileConfigStore, error) {
	if path == "" {
		return nil, fmt.Errorf("config store file path cannot be empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create directory '%s': %v", ErrStoreUnavailable, dir, err)
	}

	s := &FileConfigStore{path: path}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save assigns the next numeric id when the config has none and appends the
// record. The stored form is returned.
func (s *FileConfigStore) Save(ctx context.Context, cfg models.EmailConfig) (models.EmailConfig, error) {
	select {
	case <-ctx.Done():
		return models.EmailConfig{}, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load()
	if err != nil {
		return models.EmailConfig{}, err
	}

	if cfg.ID == 0 {
		var maxID int64
		for _, r := range records {
			if r.ID > maxID {
				maxID = r.ID
			}
		}
		cfg.ID = maxID + 1
	}

	records = append(records, cfg)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return models.EmailConfig{}, fmt.Errorf("failed to marshal config records: %w", err)
	}

	// Write-then-rename keeps the visible file complete at all times.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".configs-*")
	if err != nil {
		return models.EmailConfig{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return models.EmailConfig{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return models.EmailConfig{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return models.EmailConfig{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return models.EmailConfig{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	return cfg, nil
}

// List returns all persisted records in insertion order.
func (s *FileConfigStore) List(ctx context.Context) ([]models.EmailConfig, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return s.load()
}

func (s *FileConfigStore) load() ([]models.EmailConfig, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.EmailConfig{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(data) == 0 {
		return []models.EmailConfig{}, nil
	}

	var records []models.EmailConfig
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: corrupt store file '%s': %v", ErrStoreUnavailable, s.path, err)
	}
	return records, nil
}
