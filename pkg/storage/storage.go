package storage

import (
	"context"
	"errors"
	"mime/multipart"
)

var (
	ErrInvalidConfig      = errors.New("invalid storage configuration")
	ErrUnsupportedType    = errors.New("unsupported content type")
	ErrFileTooLarge       = errors.New("file exceeds size limit")
	ErrFailedToSaveFile   = errors.New("failed to save file")
	ErrFailedToDeleteFile = errors.New("failed to delete file")
)

// MaxUploadSize bounds accepted media uploads.
const MaxUploadSize = 10 << 20 // 10 MiB

// File represents stored file metadata.
type File struct {
	Path string // storage-relative path
	Size int64
	URL  string // public URL
}

// Storage abstracts the blob backend for menu media. Implementations must be
// safe for concurrent use.
type Storage interface {
	// Save stores an uploaded file under path and returns its metadata.
	Save(ctx context.Context, fh *multipart.FileHeader, path string) (*File, error)
	// Delete removes a single file. Deleting a missing file is not an error.
	Delete(ctx context.Context, path string) error
	// URL returns the public URL for a stored path.
	URL(path string) string
}

var imageMIMETypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ValidateImage checks size and declared content type of an upload.
func ValidateImage(fh *multipart.FileHeader) error {
	if fh.Size > MaxUploadSize {
		return ErrFileTooLarge
	}
	if !imageMIMETypes[fh.Header.Get("Content-Type")] {
		return ErrUnsupportedType
	}
	return nil
}
