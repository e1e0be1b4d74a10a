package analyzer

import (
	"image"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

const bitPlaneCount = 8

// NewLSBExtractor creates the least significant bit density extractor
func NewLSBExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureLSBPatterns, compute: lsbPatterns}
}

// NewBitPlaneExtractor creates the per-plane bit density extractor
func NewBitPlaneExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureBitPlane, compute: bitPlanes}
}

// lsbPatterns reports the fraction of luma samples with the lowest bit set.
func lsbPatterns(gray *image.Gray) (models.FeatureRecord, error) {
	counts, total := bitCounts(gray)
	return models.NewFeatureRecord(
		models.Scalar("lsb_density", fraction(counts[0], total)),
	), nil
}

// bitPlanes reports the fraction of set bits in each of the eight planes,
// least significant first.
func bitPlanes(gray *image.Gray) (models.FeatureRecord, error) {
	counts, total := bitCounts(gray)
	densities := make([]float64, bitPlaneCount)
	for i, c := range counts {
		densities[i] = fraction(c, total)
	}
	return models.NewFeatureRecord(
		models.Sequence("bit_planes", densities),
	), nil
}

func bitCounts(gray *image.Gray) ([bitPlaneCount]int, int) {
	var counts [bitPlaneCount]int
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	for y := 0; y < height; y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+width] {
			for bit := 0; bit < bitPlaneCount; bit++ {
				counts[bit] += int(v>>bit) & 1
			}
		}
	}
	return counts, width * height
}
