package analyzer

import (
	"fmt"
	"image"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// maxTransformLength bounds the row and column lengths the DCT and FFT
// extractors accept.
const maxTransformLength = 1 << 15

// NewDCTExtractor creates the DCT coefficient extractor
func NewDCTExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureDCTCoefficients, compute: dctCoefficients}
}

// dctCoefficients applies an orthonormal 2-D DCT-II (rows, then columns) and
// reports the mean and standard deviation of the coefficient magnitudes.
func dctCoefficients(gray *image.Gray) (models.FeatureRecord, error) {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if err := checkTransformSize(models.FeatureDCTCoefficients, width, height); err != nil {
		return models.FeatureRecord{}, err
	}

	coeffs := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x, v := range row {
			coeffs[y*width+x] = float64(v)
		}
	}

	rowDCT := newOrthoDCT(width)
	line := make([]float64, width)
	for y := 0; y < height; y++ {
		rowDCT.transform(line, coeffs[y*width:(y+1)*width])
		copy(coeffs[y*width:(y+1)*width], line)
	}

	colDCT := newOrthoDCT(height)
	column := make([]float64, height)
	out := make([]float64, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			column[y] = coeffs[y*width+x]
		}
		colDCT.transform(out, column)
		for y := 0; y < height; y++ {
			coeffs[y*width+x] = out[y]
		}
	}

	for i, v := range coeffs {
		coeffs[i] = math.Abs(v)
	}
	mean, std := meanStd(coeffs)

	return models.NewFeatureRecord(
		models.Scalar("mean", mean),
		models.Scalar("std", std),
	), nil
}

// orthoDCT computes an orthonormal DCT-II of length n through a real FFT of
// the even extension of the input (length 2n).
type orthoDCT struct {
	n        int
	fft      *fourier.FFT
	even     []float64
	spectrum []complex128
	twiddle  []complex128
	scale0   float64
	scale    float64
}

func newOrthoDCT(n int) *orthoDCT {
	d := &orthoDCT{
		n:        n,
		fft:      fourier.NewFFT(2 * n),
		even:     make([]float64, 2*n),
		spectrum: make([]complex128, n+1),
		twiddle:  make([]complex128, n),
		scale0:   math.Sqrt(1 / float64(n)),
		scale:    math.Sqrt(2 / float64(n)),
	}
	for k := range d.twiddle {
		d.twiddle[k] = cmplx.Exp(complex(0, -math.Pi*float64(k)/float64(2*n)))
	}
	return d
}

// transform writes the DCT of src into dst; both have length n.
func (d *orthoDCT) transform(dst, src []float64) {
	n := d.n
	for i, v := range src {
		d.even[i] = v
		d.even[2*n-1-i] = v
	}
	d.spectrum = d.fft.Coefficients(d.spectrum, d.even)

	for k := 0; k < n; k++ {
		c := real(d.twiddle[k]*d.spectrum[k]) / 2
		if k == 0 {
			dst[k] = c * d.scale0
		} else {
			dst[k] = c * d.scale
		}
	}
}

func checkTransformSize(extractor string, width, height int) error {
	if width > maxTransformLength || height > maxTransformLength {
		return apperrors.NewComputationError(extractor,
			fmt.Sprintf("image %dx%d exceeds the maximum transform length %d", width, height, maxTransformLength), nil)
	}
	return nil
}
