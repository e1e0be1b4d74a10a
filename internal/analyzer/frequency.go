package analyzer

import (
	"image"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// NewFrequencyExtractor creates the Fourier magnitude spectrum extractor
func NewFrequencyExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureFrequencyDomain, compute: frequencyDomain}
}

// frequencyDomain reports the mean and standard deviation of the centered
// 2-D Fourier magnitude spectrum.
func frequencyDomain(gray *image.Gray) (models.FeatureRecord, error) {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if err := checkTransformSize(models.FeatureFrequencyDomain, width, height); err != nil {
		return models.FeatureRecord{}, err
	}

	spectrum := fft2(gray, width, height)
	magnitude := fftShift(spectrum, width, height)
	mean, std := meanStd(magnitude)

	return models.NewFeatureRecord(
		models.Scalar("mean", mean),
		models.Scalar("std", std),
	), nil
}

// fft2 returns the unnormalized 2-D DFT of the luma plane, row-major.
func fft2(gray *image.Gray, width, height int) []complex128 {
	data := make([]complex128, width*height)

	rowFFT := fourier.NewCmplxFFT(width)
	row := make([]complex128, width)
	rowOut := make([]complex128, width)
	for y := 0; y < height; y++ {
		pix := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x, v := range pix {
			row[x] = complex(float64(v), 0)
		}
		rowOut = rowFFT.Coefficients(rowOut, row)
		copy(data[y*width:(y+1)*width], rowOut)
	}

	colFFT := fourier.NewCmplxFFT(height)
	col := make([]complex128, height)
	colOut := make([]complex128, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			col[y] = data[y*width+x]
		}
		colOut = colFFT.Coefficients(colOut, col)
		for y := 0; y < height; y++ {
			data[y*width+x] = colOut[y]
		}
	}

	return data
}

// fftShift moves the zero-frequency term to the center and returns the
// magnitudes of the shifted spectrum.
func fftShift(spectrum []complex128, width, height int) []float64 {
	magnitude := make([]float64, len(spectrum))
	for y := 0; y < height; y++ {
		sy := (y + height/2) % height
		for x := 0; x < width; x++ {
			sx := (x + width/2) % width
			magnitude[sy*width+sx] = cmplx.Abs(spectrum[y*width+x])
		}
	}
	return magnitude
}
