package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// IAssetStore defines the interface for uploaded binary assets (images).
// Store is append-only: a stored asset is never renamed, and two stores with
// the same original filename never collide. References returned by Store are
// web-servable paths/URLs and are what configurations carry in imageUrl.
type IAssetStore interface {
	Store(ctx context.Context, data []byte, originalName string) (string, error)
	Read(ctx context.Context, ref string) ([]byte, error)
	Replace(ctx context.Context, ref string, data []byte, contentType string) error
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// SanitizeFilename strips path components and NUL bytes from a human-provided
// filename and replaces whitespace with underscores. Returns "unnamed" for
// empty or special directory references.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "\x00", "")
	name = whitespaceRe.ReplaceAllString(name, "_")

	if name == "." || name == ".." || name == "" || name == "/" {
		name = "unnamed"
	}
	return name
}

// LocalAssetStore implements IAssetStore on the local filesystem.
// Files are written under baseDir and served under baseURL (e.g. /uploads).
// Uniqueness comes from a millisecond timestamp plus a monotonic counter, so
// concurrent stores of the same original filename get distinct names.
type LocalAssetStore struct {
	baseDir string // absolute path, created on construction
	baseURL string // URL prefix the asset directory is served under
	counter uint64
}

// NewLocalAssetStore creates a local asset store rooted at dir, creating the
// directory if it does not exist.
func NewLocalAssetStore(dir, baseURL string) (*LocalAssetStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("asset directory cannot be empty")
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve asset directory '%s': %w", dir, err)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory '%s': %w", absDir, err)
	}

	return &LocalAssetStore{
		baseDir: absDir,
		baseURL: "/" + strings.Trim(baseURL, "/"),
	}, nil
}

// Store writes the payload under a collision-free generated name and returns
// the reference <baseURL>/<unix-milli><counter>-<sanitized-name>. The file is
// written to a temp file and renamed, so a reference never points at a
// half-written asset.
func (s *LocalAssetStore) Store(ctx context.Context, data []byte, originalName string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	if len(data) == 0 {
		return "", ErrEmptyPayload
	}

	// Millisecond timestamp alone collides under concurrent uploads; the
	// counter keeps the prefix unique at any request rate.
	token := fmt.Sprintf("%d%03d", time.Now().UnixMilli(), atomic.AddUint64(&s.counter, 1)%1000)
	name := fmt.Sprintf("%s-%s", token, SanitizeFilename(originalName))

	if err := s.writeAtomic(filepath.Join(s.baseDir, name), data); err != nil {
		return "", err
	}

	return s.baseURL + "/" + name, nil
}

// Read returns the content of a previously stored asset.
func (s *LocalAssetStore) Read(ctx context.Context, ref string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	path, err := s.resolveRef(ref)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
		}
		return nil, fmt.Errorf("failed to read asset '%s': %w", ref, err)
	}
	return data, nil
}

// Replace overwrites an existing asset in place, keeping its reference stable.
// contentType is ignored by the local store (the filesystem carries no MIME
// metadata); the S3 store uses it.
func (s *LocalAssetStore) Replace(ctx context.Context, ref string, data []byte, contentType string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if len(data) == 0 {
		return ErrEmptyPayload
	}

	path, err := s.resolveRef(ref)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
		}
		return fmt.Errorf("failed to stat asset '%s': %w", ref, err)
	}

	return s.writeAtomic(path, data)
}

// resolveRef maps a public reference back to a path inside baseDir.
// Only the final path element is used, so traversal sequences in a reference
// cannot escape the asset directory.
func (s *LocalAssetStore) resolveRef(ref string) (string, error) {
	if !strings.HasPrefix(ref, s.baseURL+"/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	name := filepath.Base(strings.TrimPrefix(ref, s.baseURL+"/"))
	if name == "." || name == ".." || name == "" {
		return "", fmt.Errorf("%w: %s", ErrInvalidReference, ref)
	}
	return filepath.Join(s.baseDir, name), nil
}

func (s *LocalAssetStore) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(s.baseDir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in '%s': %w", s.baseDir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write asset data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize asset '%s': %w", path, err)
	}
	return nil
}
