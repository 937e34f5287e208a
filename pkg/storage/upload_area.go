package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	appErrors "github.com/noah-isme/olympiad-admin-api/pkg/errors"
)

// UploadArea holds uploaded source files for the lifetime of one request.
type UploadArea struct {
	baseDir  string
	maxBytes int64
}

// Upload is an uploaded file owned by a single request.
type Upload struct {
	Path string
	Size int64

	once sync.Once
}

// NewUploadArea ensures the upload directory exists.
func NewUploadArea(baseDir string, maxBytes int64) (*UploadArea, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &UploadArea{baseDir: baseDir, maxBytes: maxBytes}, nil
}

// Acquire copies r into a fresh file and returns it with a release func that
// removes it. Release is idempotent and must run on every exit path:
//
//	upload, release, err := area.Acquire(src)
//	if err != nil { ... }
//	defer release()
func (a *UploadArea) Acquire(r io.Reader) (*Upload, func(), error) {
	file, err := os.CreateTemp(a.baseDir, "upload-*.csv")
	if err != nil {
		return nil, func() {}, fmt.Errorf("create upload file: %w", err)
	}
	upload := &Upload{Path: file.Name()}
	release := func() {
		upload.once.Do(func() {
			_ = os.Remove(upload.Path)
		})
	}

	src := r
	if a.maxBytes > 0 {
		src = io.LimitReader(r, a.maxBytes+1)
	}
	n, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		release()
		return nil, func() {}, fmt.Errorf("store upload: %w", err)
	}
	if a.maxBytes > 0 && n > a.maxBytes {
		release()
		return nil, func() {}, appErrors.ErrFileTooLarge
	}
	upload.Size = n
	return upload, release, nil
}

// Open opens the uploaded file for reading.
func (u *Upload) Open() (*os.File, error) {
	file, err := os.Open(u.Path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	return file, nil
}
