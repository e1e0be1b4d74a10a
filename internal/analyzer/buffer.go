package analyzer

import (
	"fmt"
	"image"
	"image/color"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
)

// SampleType names the element type of a Buffer's samples.
type SampleType string

const (
	SampleUint8   SampleType = "uint8"
	SampleUint16  SampleType = "uint16"
	SampleInt64   SampleType = "int64"
	SampleFloat32 SampleType = "float32"
	SampleFloat64 SampleType = "float64"
)

// Luma weights (BT.601) in 14-bit fixed point; they sum to 1<<14 so a pixel
// with equal channels converts to exactly that value.
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
)

// Buffer is a decoded image: a 2-D (height x width) grayscale array or a
// 3-D (height x width x 3) RGB array of samples stored row-major with
// interleaved channels. Only uint8 samples are analyzable.
type Buffer struct {
	Shape      []int
	SampleType SampleType
	Pix        []byte
}

// NewGrayBuffer wraps 8-bit grayscale samples.
func NewGrayBuffer(height, width int, pix []byte) *Buffer {
	return &Buffer{Shape: []int{height, width}, SampleType: SampleUint8, Pix: pix}
}

// NewRGBBuffer wraps 8-bit interleaved RGB samples.
func NewRGBBuffer(height, width int, pix []byte) *Buffer {
	return &Buffer{Shape: []int{height, width, 3}, SampleType: SampleUint8, Pix: pix}
}

// FromImage converts a decoded image to a 3-channel RGB buffer. Alpha is
// discarded without premultiplication.
func FromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pix := make([]byte, 0, width*height*3)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):]
			for x := 0; x < width; x++ {
				pix = append(pix, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.Gray:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			row := src.Pix[src.PixOffset(bounds.Min.X, y):]
			for x := 0; x < width; x++ {
				pix = append(pix, row[x], row[x], row[x])
			}
		}
	default:
		for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
				pix = append(pix, c.R, c.G, c.B)
			}
		}
	}

	return NewRGBBuffer(height, width, pix)
}

// Height returns the number of rows.
func (b *Buffer) Height() int {
	if len(b.Shape) < 2 {
		return 0
	}
	return b.Shape[0]
}

// Width returns the number of columns.
func (b *Buffer) Width() int {
	if len(b.Shape) < 2 {
		return 0
	}
	return b.Shape[1]
}

// Channels returns 1 for a 2-D buffer and the last dimension otherwise.
func (b *Buffer) Channels() int {
	if len(b.Shape) == 3 {
		return b.Shape[2]
	}
	return 1
}

// Validate checks shape, sample type and pixel length.
func (b *Buffer) Validate() error {
	if b == nil {
		return apperrors.NewInvalidInputError("image buffer is nil", nil)
	}
	if len(b.Shape) != 2 && len(b.Shape) != 3 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image buffer must be 2-D or 3-D, got %d dimensions", len(b.Shape)), nil)
	}
	if b.SampleType != SampleUint8 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image buffer must hold uint8 samples, got %q", b.SampleType), nil)
	}
	if b.Channels() != 1 && b.Channels() != 3 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image buffer must have 1 or 3 channels, got %d", b.Channels()), nil)
	}
	if b.Height() <= 0 || b.Width() <= 0 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image buffer has empty dimensions %dx%d", b.Width(), b.Height()), nil)
	}
	if expected := b.Height() * b.Width() * b.Channels(); len(b.Pix) != expected {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image buffer holds %d samples, shape %v needs %d", len(b.Pix), b.Shape, expected), nil)
	}
	return nil
}

// validateColor additionally requires three channels.
func (b *Buffer) validateColor() error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Channels() != 3 {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("color analysis needs a 3-channel buffer, got shape %v", b.Shape), nil)
	}
	return nil
}

// Gray returns the luma plane of a validated buffer. The result never
// aliases the buffer's pixels.
func (b *Buffer) Gray() *image.Gray {
	height, width := b.Height(), b.Width()
	gray := image.NewGray(image.Rect(0, 0, width, height))

	if b.Channels() == 1 {
		copy(gray.Pix, b.Pix)
		return gray
	}

	for i := range gray.Pix {
		r := uint32(b.Pix[i*3])
		g := uint32(b.Pix[i*3+1])
		bl := uint32(b.Pix[i*3+2])
		gray.Pix[i] = uint8((r*lumaR + g*lumaG + bl*lumaB + 1<<(lumaShift-1)) >> lumaShift)
	}
	return gray
}
