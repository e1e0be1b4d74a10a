package storage

import (
	"context"
	"errors"
	"io/fs"
	"mime"
	"os"
	"path/filepath"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
)

// LocalImageFetcher reads images from the local filesystem
type LocalImageFetcher struct{}

// NewLocalImageFetcher creates a filesystem fetcher
func NewLocalImageFetcher() *LocalImageFetcher {
	return &LocalImageFetcher{}
}

// FetchImage opens and decodes the file at path
func (l *LocalImageFetcher) FetchImage(ctx context.Context, path string) (*FetchedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewTimeoutError("image fetch cancelled", err)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("image file not found: "+path, err)
		}
		return nil, apperrors.NewInvalidInputError("cannot open image file: "+path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("cannot stat image file: "+path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewInvalidInputError("path is a directory: "+path, nil)
	}

	return DecodeImage(f, mime.TypeByExtension(filepath.Ext(path)))
}
