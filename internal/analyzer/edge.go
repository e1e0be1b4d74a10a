package analyzer

import (
	"image"
	"math"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

const (
	cannySigma    = 2.0
	cannyTruncate = 4.0
	cannyLow      = 0.1
	cannyHigh     = 0.2
)

// NewEdgeExtractor creates the Canny edge density extractor
func NewEdgeExtractor() FeatureExtractor {
	return &grayExtractor{name: models.FeatureEdgePatterns, compute: edgePatterns}
}

// edgePatterns reports the fraction of pixels marked as edges by a Canny
// detector run on the luma plane scaled to [0,1].
func edgePatterns(gray *image.Gray) (models.FeatureRecord, error) {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	edges := cannyEdges(gray, width, height)
	count := 0
	for _, e := range edges {
		if e {
			count++
		}
	}

	return models.NewFeatureRecord(
		models.Scalar("edge_density", fraction(count, width*height)),
	), nil
}

// cannyEdges returns the edge mask, row-major.
func cannyEdges(gray *image.Gray, width, height int) []bool {
	img := make([]float64, width*height)
	for y := 0; y < height; y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+width]
		for x, v := range row {
			img[y*width+x] = float64(v) / 255
		}
	}

	smoothed := gaussianBlur(img, width, height, cannySigma, cannyTruncate)
	gy, gx := sobel(smoothed, width, height)

	magnitude := make([]float64, len(smoothed))
	for i := range magnitude {
		magnitude[i] = math.Hypot(gy[i], gx[i])
	}

	maxima := nonMaximumSuppression(magnitude, gy, gx, width, height)
	return hysteresis(magnitude, maxima, width, height, cannyLow, cannyHigh)
}

// gaussianKernel returns the normalized 1-D kernel of radius
// int(truncate*sigma+0.5).
func gaussianKernel(sigma, truncate float64) []float64 {
	radius := int(truncate*sigma + 0.5)
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = w
		sum += w
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur smooths separably with zero padding and divides by the kernel
// weight that fell inside the image, so borders are not darkened.
func gaussianBlur(img []float64, width, height int, sigma, truncate float64) []float64 {
	kernel := gaussianKernel(sigma, truncate)
	radius := len(kernel) / 2

	tmp := make([]float64, len(img))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			acc, weight := 0.0, 0.0
			for k := -radius; k <= radius; k++ {
				xx := x + k
				if xx < 0 || xx >= width {
					continue
				}
				w := kernel[k+radius]
				acc += w * img[y*width+xx]
				weight += w
			}
			tmp[y*width+x] = acc / weight
		}
	}

	out := make([]float64, len(img))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			acc, weight := 0.0, 0.0
			for k := -radius; k <= radius; k++ {
				yy := y + k
				if yy < 0 || yy >= height {
					continue
				}
				w := kernel[k+radius]
				acc += w * tmp[yy*width+x]
				weight += w
			}
			out[y*width+x] = acc / weight
		}
	}
	return out
}

// reflectIndex mirrors i into [0,n) repeating the edge sample (d c b a | a b c d).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - 1 - i
	}
	return i
}

// sobel returns the row (vertical) and column (horizontal) derivatives using
// the 3x3 Sobel operator with reflected borders.
func sobel(img []float64, width, height int) (gy, gx []float64) {
	at := func(y, x int) float64 {
		return img[reflectIndex(y, height)*width+reflectIndex(x, width)]
	}

	gy = make([]float64, len(img))
	gx = make([]float64, len(img))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx[y*width+x] = (at(y-1, x+1) - at(y-1, x-1)) +
				2*(at(y, x+1)-at(y, x-1)) +
				(at(y+1, x+1) - at(y+1, x-1))
			gy[y*width+x] = (at(y+1, x-1) - at(y-1, x-1)) +
				2*(at(y+1, x)-at(y-1, x)) +
				(at(y+1, x+1) - at(y-1, x+1))
		}
	}
	return gy, gx
}

// nonMaximumSuppression keeps pixels whose magnitude is not smaller than the
// magnitude interpolated on either side along the gradient direction. The
// one-pixel border and zero-magnitude pixels are never maxima.
func nonMaximumSuppression(magnitude, gy, gx []float64, width, height int) []bool {
	maxima := make([]bool, len(magnitude))
	mag := func(y, x int) float64 { return magnitude[y*width+x] }

	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			m := magnitude[i]
			if m <= 0 {
				continue
			}
			di, dj := gy[i], gx[i]
			ai, aj := math.Abs(di), math.Abs(dj)

			var c1p, c2p, c1m, c2m, w float64
			switch {
			case ((di <= 0 && dj >= 0) || (di >= 0 && dj <= 0)) && ai >= aj:
				// 135-180 degrees
				w = aj / ai
				c1p, c2p = mag(y-1, x), mag(y-1, x+1)
				c1m, c2m = mag(y+1, x), mag(y+1, x-1)
			case ((di <= 0 && dj >= 0) || (di >= 0 && dj <= 0)) && ai <= aj:
				// 90-135 degrees
				w = ai / aj
				c1p, c2p = mag(y, x+1), mag(y-1, x+1)
				c1m, c2m = mag(y, x-1), mag(y+1, x-1)
			case ((di >= 0 && dj >= 0) || (di <= 0 && dj <= 0)) && ai <= aj:
				// 45-90 degrees
				w = ai / aj
				c1p, c2p = mag(y, x+1), mag(y+1, x+1)
				c1m, c2m = mag(y, x-1), mag(y-1, x-1)
			default:
				// 0-45 degrees
				w = aj / ai
				c1p, c2p = mag(y+1, x), mag(y+1, x+1)
				c1m, c2m = mag(y-1, x), mag(y-1, x-1)
			}

			plus := c2p*w+c1p*(1-w) <= m
			minus := c2m*w+c1m*(1-w) <= m
			maxima[i] = plus && minus
		}
	}
	return maxima
}

// hysteresis keeps 8-connected components of maxima above low that contain
// at least one pixel above high.
func hysteresis(magnitude []float64, maxima []bool, width, height int, low, high float64) []bool {
	edges := make([]bool, len(magnitude))
	visited := make([]bool, len(magnitude))
	stack := make([]int, 0, 64)
	component := make([]int, 0, 64)

	weak := func(i int) bool { return maxima[i] && magnitude[i] >= low }

	for start := range magnitude {
		if visited[start] || !weak(start) {
			continue
		}

		component = component[:0]
		strong := false
		visited[start] = true
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			i := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			component = append(component, i)
			if magnitude[i] >= high {
				strong = true
			}

			y, x := i/width, i%width
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= height || nx < 0 || nx >= width {
						continue
					}
					n := ny*width + nx
					if visited[n] || !weak(n) {
						continue
					}
					visited[n] = true
					stack = append(stack, n)
				}
			}
		}

		if strong {
			for _, i := range component {
				edges[i] = true
			}
		}
	}
	return edges
}
