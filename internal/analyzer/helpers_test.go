package analyzer

import (
	"image"
	"image/color"
	"math/rand"
)

// createTestImage creates a uniformly filled test image
func createTestImage(width, height int, fillColor color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fillColor)
		}
	}
	return img
}

// createSquareBuffer creates a 100x100 black RGB buffer with a white square
// covering rows and columns 25 to 74
func createSquareBuffer() *Buffer {
	const size = 100
	pix := make([]byte, size*size*3)
	for y := 25; y < 75; y++ {
		for x := 25; x < 75; x++ {
			i := (y*size + x) * 3
			pix[i], pix[i+1], pix[i+2] = 255, 255, 255
		}
	}
	return NewRGBBuffer(size, size, pix)
}

// createNoiseBuffer creates a reproducible RGB buffer of random samples
func createNoiseBuffer(height, width int, seed int64) *Buffer {
	rng := rand.New(rand.NewSource(seed))
	pix := make([]byte, height*width*3)
	rng.Read(pix)
	return NewRGBBuffer(height, width, pix)
}

// createGradientBuffer creates an RGB buffer whose channels vary independently
func createGradientBuffer(height, width int) *Buffer {
	pix := make([]byte, 0, height*width*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pix = append(pix,
				uint8(x*255/width),
				uint8(y*255/height),
				uint8((x+y)*255/(width+height)))
		}
	}
	return NewRGBBuffer(height, width, pix)
}

// grayOf returns the 2-D buffer holding the luma of an RGB buffer
func grayOf(buf *Buffer) *Buffer {
	gray := buf.Gray()
	return NewGrayBuffer(buf.Height(), buf.Width(), gray.Pix)
}

func rgba(r, g, b uint8) color.RGBA {
	return color.RGBA{r, g, b, 255}
}
