package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage stores files on the local filesystem. All operations are
// confined to baseDir to prevent path traversal.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage creates a filesystem-backed storage rooted at baseDir.
// baseURL is the public prefix for serving files (e.g., "/media/").
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		return nil, ErrInvalidConfig
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	return &LocalStorage{baseDir: abs, baseURL: baseURL}, nil
}

func (s *LocalStorage) Save(ctx context.Context, fh *multipart.FileHeader, path string) (*File, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}

	src, err := fh.Open()
	if err != nil {
		return nil, errors.Join(ErrFailedToSaveFile, err)
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, errors.Join(ErrFailedToSaveFile, err)
	}

	dst, err := os.Create(full)
	if err != nil {
		return nil, errors.Join(ErrFailedToSaveFile, err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		_ = os.Remove(full)
		return nil, errors.Join(ErrFailedToSaveFile, err)
	}

	return &File{Path: path, Size: size, URL: s.URL(path)}, nil
}

func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.Join(ErrFailedToDeleteFile, err)
	}
	return nil
}

func (s *LocalStorage) URL(path string) string {
	return s.baseURL + strings.TrimPrefix(path, "/")
}

// resolve joins path to baseDir and rejects anything escaping it.
func (s *LocalStorage) resolve(path string) (string, error) {
	full := filepath.Join(s.baseDir, filepath.Clean("/"+path))
	if !strings.HasPrefix(full, s.baseDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: path escapes base directory", ErrInvalidConfig)
	}
	return full, nil
}
