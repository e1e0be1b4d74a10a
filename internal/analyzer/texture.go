package analyzer

import (
	"image"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

const grayLevels = 256

// glcmOffsets are the (row, column) displacements for distance 1 at 0, 45,
// 90 and 135 degrees.
var glcmOffsets = [][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}}

// NewTextureExtractor creates the GLCM contrast extractor
func NewTextureExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureTexturePatterns, compute: texturePatterns}
}

// texturePatterns reports the GLCM contrast averaged over the four angles.
func texturePatterns(gray *image.Gray) (models.FeatureRecord, error) {
	sum := 0.0
	for _, off := range glcmOffsets {
		sum += newGLCM(gray, off[0], off[1]).contrast()
	}
	return models.NewFeatureRecord(
		models.Scalar("contrast", sum/float64(len(glcmOffsets))),
	), nil
}

// glcm is a symmetric, normalized gray-level co-occurrence matrix.
type glcm struct {
	p []float64
}

func newGLCM(gray *image.Gray, dr, dc int) *glcm {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	counts := make([]float64, grayLevels*grayLevels)
	total := 0.0

	for y := 0; y < height; y++ {
		ny := y + dr
		if ny < 0 || ny >= height {
			continue
		}
		for x := 0; x < width; x++ {
			nx := x + dc
			if nx < 0 || nx >= width {
				continue
			}
			a := int(gray.Pix[y*gray.Stride+x])
			b := int(gray.Pix[ny*gray.Stride+nx])
			counts[a*grayLevels+b]++
			counts[b*grayLevels+a]++
			total += 2
		}
	}

	if total > 0 {
		for i := range counts {
			counts[i] /= total
		}
	}
	return &glcm{p: counts}
}

// contrast is sum P(i,j)*(i-j)^2; an empty matrix has contrast 0.
func (g *glcm) contrast() float64 {
	c := 0.0
	for i := 0; i < grayLevels; i++ {
		row := g.p[i*grayLevels : (i+1)*grayLevels]
		for j, p := range row {
			if p == 0 {
				continue
			}
			d := float64(i - j)
			c += p * d * d
		}
	}
	return c
}
