package analyzer

import (
	"image"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// NewNoiseExtractor creates the Laplacian noise level extractor
func NewNoiseExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureNoiseLevel, compute: noiseLevel}
}

// noiseLevel reports the population variance of the 4-neighbour Laplacian
// response over the whole luma plane.
func noiseLevel(gray *image.Gray) (models.FeatureRecord, error) {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	at := func(y, x int) float64 {
		return float64(gray.Pix[reflect101(y, height)*gray.Stride+reflect101(x, width)])
	}

	response := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			response[y*width+x] = at(y-1, x) + at(y+1, x) + at(y, x-1) + at(y, x+1) - 4*at(y, x)
		}
	}

	_, variance := meanVariance(response)
	return models.NewFeatureRecord(
		models.Scalar("noise_level", variance),
	), nil
}

// reflect101 mirrors i into [0,n) without repeating the edge sample
// (d c b | a b c d becomes c b | a b c d).
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}
