package storage

import (
	"bytes"
	"context"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
)

// ImageFetcher loads and decodes an image from one kind of source
type ImageFetcher interface {
	FetchImage(ctx context.Context, source string) (*FetchedImage, error)
}

// FetchedImage is a decoded image together with what the source reported
// about it
type FetchedImage struct {
	Image         image.Image
	Format        string
	ContentType   string
	ContentLength int64
}

// DecodeImage decodes r with every registered codec. Unreadable data is a
// decode error.
func DecodeImage(r io.Reader, contentType string) (*FetchedImage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read image data", err)
	}
	return DecodeBytes(data, contentType)
}

// DecodeBytes decodes an in-memory image
func DecodeBytes(data []byte, contentType string) (*FetchedImage, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.NewDecodeError("failed to decode image", err)
	}
	if contentType == "" {
		contentType = "image/" + format
	}
	return &FetchedImage{
		Image:         img,
		Format:        format,
		ContentType:   contentType,
		ContentLength: int64(len(data)),
	}, nil
}
