package repository

import (
	"context"
	"fmt"
	"image"
	"mime"
	"os"
	"path/filepath"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/internal/storage"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

// SourceImageRepository dispatches each source to the fetcher for its kind
type SourceImageRepository struct {
	validator *validation.SourceValidator
	fetchers  map[validation.SourceKind]storage.ImageFetcher
}

// NewSourceImageRepository creates a repository over the given fetchers.
// Kinds without a fetcher are rejected at fetch time.
func NewSourceImageRepository(validator *validation.SourceValidator, fetchers map[validation.SourceKind]storage.ImageFetcher) *SourceImageRepository {
	copied := make(map[validation.SourceKind]storage.ImageFetcher, len(fetchers))
	for k, f := range fetchers {
		if f != nil {
			copied[k] = f
		}
	}
	return &SourceImageRepository{validator: validator, fetchers: copied}
}

// ValidateSource checks a source and reports where it lives
func (r *SourceImageRepository) ValidateSource(source string) (validation.SourceKind, error) {
	return r.validator.Classify(source)
}

// FetchImage validates source and loads the decoded image
func (r *SourceImageRepository) FetchImage(ctx context.Context, source string) (*storage.FetchedImage, error) {
	kind, err := r.ValidateSource(source)
	if err != nil {
		return nil, err
	}

	fetcher, ok := r.fetchers[kind]
	if !ok {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("%s sources are not enabled", kind), ErrFetcherUnavailable)
	}
	return fetcher.FetchImage(ctx, source)
}

// GetImageMetadata reads only the header of local files; remote images are
// fetched in full
func (r *SourceImageRepository) GetImageMetadata(ctx context.Context, source string) (*models.ImageMetadata, error) {
	kind, err := r.ValidateSource(source)
	if err != nil {
		return nil, err
	}

	if kind == validation.SourceLocal {
		return localMetadata(source)
	}

	fetched, err := r.FetchImage(ctx, source)
	if err != nil {
		return nil, err
	}
	meta := MetadataFromFetched(fetched)
	return &meta, nil
}

// MetadataFromFetched describes an already decoded image
func MetadataFromFetched(f *storage.FetchedImage) models.ImageMetadata {
	bounds := f.Image.Bounds()
	return models.ImageMetadata{
		ContentType:   f.ContentType,
		ContentLength: f.ContentLength,
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        f.Format,
	}
}

func localMetadata(path string) (*models.ImageMetadata, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("image file not found: "+path, err)
		}
		return nil, apperrors.NewInvalidInputError("cannot open image file: "+path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, apperrors.NewInvalidInputError("cannot stat image file: "+path, err)
	}

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to read image header", err)
	}

	return &models.ImageMetadata{
		ContentType:   mime.TypeByExtension(filepath.Ext(path)),
		ContentLength: info.Size(),
		Width:         cfg.Width,
		Height:        cfg.Height,
		Format:        format,
	}, nil
}
