package analyzer

import (
	"math"
	"testing"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

const tolerance = 1e-9

func extract(t *testing.T, e FeatureExtractor, buf *Buffer) models.FeatureRecord {
	t.Helper()
	record, err := e.Extract(buf)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", e.Name(), err)
	}
	return record
}

func TestDefaultExtractors_Order(t *testing.T) {
	extractors := DefaultExtractors()
	if len(extractors) != len(models.FeatureKeys) {
		t.Fatalf("Expected %d extractors, got %d", len(models.FeatureKeys), len(extractors))
	}
	for i, e := range extractors {
		if e.Name() != models.FeatureKeys[i] {
			t.Errorf("Extractor %d: expected %s, got %s", i, models.FeatureKeys[i], e.Name())
		}
	}
}

func TestExtractors_FiniteOutputs(t *testing.T) {
	buffers := map[string]*Buffer{
		"square":   createSquareBuffer(),
		"noise":    createNoiseBuffer(37, 53, 1),
		"gradient": createGradientBuffer(64, 48),
		"single":   NewRGBBuffer(1, 1, []byte{10, 20, 30}),
		"row":      createNoiseBuffer(1, 17, 2),
	}

	for name, buf := range buffers {
		for _, e := range DefaultExtractors() {
			t.Run(name+"/"+e.Name(), func(t *testing.T) {
				record := extract(t, e, buf)
				if record.Len() == 0 {
					t.Fatal("Expected at least one metric")
				}
				for _, m := range record.Metrics() {
					values := m.Values
					if !m.IsSequence() {
						values = []float64{m.Value}
					}
					for _, v := range values {
						if math.IsNaN(v) || math.IsInf(v, 0) {
							t.Errorf("metric %s is not finite: %v", m.Name, v)
						}
						if v < 0 {
							t.Errorf("metric %s is negative: %v", m.Name, v)
						}
					}
				}
			})
		}
	}
}

func TestExtractors_GrayscaleEquivalence(t *testing.T) {
	rgb := createNoiseBuffer(40, 30, 7)
	gray := grayOf(rgb)

	for _, e := range DefaultExtractors() {
		if e.Name() == models.FeatureColorDistribution {
			continue
		}
		t.Run(e.Name(), func(t *testing.T) {
			fromRGB := extract(t, e, rgb)
			fromGray := extract(t, e, gray)
			a, _ := fromRGB.MarshalJSON()
			b, _ := fromGray.MarshalJSON()
			if string(a) != string(b) {
				t.Errorf("Expected identical records, got %s and %s", a, b)
			}
		})
	}
}

func TestColorDistribution_Square(t *testing.T) {
	record := extract(t, NewColorDistributionExtractor(), createSquareBuffer())

	// Normalized histogram: one bin at 1, one at 1/3, the rest 0.
	wantMean := (4.0 / 3.0) / 512
	wantStd := math.Sqrt((1+1.0/9)/512 - wantMean*wantMean)

	if math.Abs(record.Float("mean")-wantMean) > tolerance {
		t.Errorf("Expected mean %v, got %v", wantMean, record.Float("mean"))
	}
	if math.Abs(record.Float("std")-wantStd) > tolerance {
		t.Errorf("Expected std %v, got %v", wantStd, record.Float("std"))
	}
}

func TestColorDistribution_SingleColorFillsOneBin(t *testing.T) {
	buf := FromImage(createTestImage(20, 20, rgba(90, 90, 90)))
	record := extract(t, NewColorDistributionExtractor(), buf)

	// Normalized histogram: one bin at 1, the other 511 at 0.
	wantMean := 1.0 / 512
	wantStd := math.Sqrt(wantMean - wantMean*wantMean)

	if math.Abs(record.Float("mean")-wantMean) > tolerance {
		t.Errorf("Expected mean %v, got %v", wantMean, record.Float("mean"))
	}
	if math.Abs(record.Float("std")-wantStd) > tolerance {
		t.Errorf("Expected std %v, got %v", wantStd, record.Float("std"))
	}
}

func TestColorDistribution_FlatHistogramIsZero(t *testing.T) {
	// One pixel in each of the 512 bins.
	pix := make([]byte, 0, colorBins*colorBins*colorBins*3)
	for r := 0; r < colorBins; r++ {
		for g := 0; g < colorBins; g++ {
			for b := 0; b < colorBins; b++ {
				pix = append(pix, byte(r<<colorBinShift), byte(g<<colorBinShift), byte(b<<colorBinShift))
			}
		}
	}
	record := extract(t, NewColorDistributionExtractor(), NewRGBBuffer(16, 32, pix))

	if record.Float("mean") != 0 || record.Float("std") != 0 {
		t.Errorf("Expected zero statistics for a flat histogram, got mean=%v std=%v",
			record.Float("mean"), record.Float("std"))
	}
}

func TestColorDistribution_RejectsGrayBuffer(t *testing.T) {
	gray := grayOf(createSquareBuffer())
	_, err := NewColorDistributionExtractor().Extract(gray)
	if !apperrors.IsType(err, apperrors.ErrorTypeInvalidInput) {
		t.Errorf("Expected invalid input error, got %v", err)
	}
}

func TestLSBAndBitPlanes_Square(t *testing.T) {
	buf := createSquareBuffer()

	lsb := extract(t, NewLSBExtractor(), buf)
	if got := lsb.Float("lsb_density"); got != 0.25 {
		t.Errorf("Expected lsb_density 0.25, got %v", got)
	}

	planes := extract(t, NewBitPlaneExtractor(), buf).Floats("bit_planes")
	if len(planes) != 8 {
		t.Fatalf("Expected 8 bit planes, got %d", len(planes))
	}
	for i, p := range planes {
		if p != 0.25 {
			t.Errorf("plane %d: expected 0.25, got %v", i, p)
		}
	}
}

func TestLSB_MatchesBitPlaneZero(t *testing.T) {
	buf := createNoiseBuffer(31, 29, 3)
	lsb := extract(t, NewLSBExtractor(), buf).Float("lsb_density")
	planes := extract(t, NewBitPlaneExtractor(), buf).Floats("bit_planes")
	if lsb != planes[0] {
		t.Errorf("Expected lsb_density %v to equal plane 0 %v", lsb, planes[0])
	}
}

func TestNoiseLevel_Square(t *testing.T) {
	record := extract(t, NewNoiseExtractor(), createSquareBuffer())
	if got := record.Float("noise_level"); math.Abs(got-2653.02) > 1e-6 {
		t.Errorf("Expected noise_level 2653.02, got %v", got)
	}
}

func TestTexture_Square(t *testing.T) {
	record := extract(t, NewTextureExtractor(), createSquareBuffer())

	// Axis-aligned offsets see 100 transitions over 9900 pairs; diagonal
	// offsets see 198 over 9801.
	axis := 100 * 65025.0 / 9900
	diagonal := 198 * 65025.0 / 9801
	want := (2*axis + 2*diagonal) / 4

	if got := record.Float("contrast"); math.Abs(got-want) > 1e-6 {
		t.Errorf("Expected contrast %v, got %v", want, got)
	}
}

func TestTexture_SinglePixelHasNoPairs(t *testing.T) {
	record := extract(t, NewTextureExtractor(), NewGrayBuffer(1, 1, []byte{200}))
	if got := record.Float("contrast"); got != 0 {
		t.Errorf("Expected contrast 0, got %v", got)
	}
}

func TestDCT_FlatImage(t *testing.T) {
	buf := NewGrayBuffer(10, 10, filled(100, 128))
	record := extract(t, NewDCTExtractor(), buf)

	// Only the DC coefficient, 128*sqrt(100), is non-zero.
	wantMean := 128.0 * 10 / 100
	if got := record.Float("mean"); math.Abs(got-wantMean) > 1e-9 {
		t.Errorf("Expected mean %v, got %v", wantMean, got)
	}
}

func TestDCT_PreservesEnergy(t *testing.T) {
	buf := grayOf(createNoiseBuffer(24, 36, 11))
	record := extract(t, NewDCTExtractor(), buf)

	mean, std := record.Float("mean"), record.Float("std")
	if got, want := mean*mean+std*std, meanSquare(buf.Pix); math.Abs(got-want)/want > 1e-9 {
		t.Errorf("Expected mean square %v, got %v", want, got)
	}
}

func TestFrequency_FlatImage(t *testing.T) {
	buf := NewGrayBuffer(8, 12, filled(96, 50))
	record := extract(t, NewFrequencyExtractor(), buf)

	// The DC term is 50*96 and every other bin is 0.
	if got := record.Float("mean"); math.Abs(got-50) > 1e-9 {
		t.Errorf("Expected mean 50, got %v", got)
	}
}

func TestFrequency_Parseval(t *testing.T) {
	buf := grayOf(createNoiseBuffer(20, 15, 5))
	record := extract(t, NewFrequencyExtractor(), buf)

	mean, std := record.Float("mean"), record.Float("std")
	want := meanSquare(buf.Pix) * float64(len(buf.Pix))
	if got := mean*mean + std*std; math.Abs(got-want)/want > 1e-9 {
		t.Errorf("Expected mean squared magnitude %v, got %v", want, got)
	}
}

func TestTransforms_RejectOversizedImages(t *testing.T) {
	buf := NewGrayBuffer(1, maxTransformLength+1, make([]byte, maxTransformLength+1))

	for _, e := range []FeatureExtractor{NewDCTExtractor(), NewFrequencyExtractor()} {
		_, err := e.Extract(buf)
		if !apperrors.IsType(err, apperrors.ErrorTypeComputation) {
			t.Errorf("%s: expected computation error, got %v", e.Name(), err)
		}
	}
}

func TestEdges(t *testing.T) {
	tests := []struct {
		name    string
		buf     *Buffer
		wantMin float64
		wantMax float64
	}{
		{"flat", NewGrayBuffer(30, 30, filled(900, 77)), 0, 0},
		{"square", createSquareBuffer(), 0.005, 0.05},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extract(t, NewEdgeExtractor(), tt.buf).Float("edge_density")
			if got < tt.wantMin || got > tt.wantMax {
				t.Errorf("Expected edge_density in [%v, %v], got %v", tt.wantMin, tt.wantMax, got)
			}
		})
	}
}

func TestEdges_SquareFollowsBoundary(t *testing.T) {
	gray := createSquareBuffer().Gray()
	edges := cannyEdges(gray, 100, 100)

	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if !edges[y*100+x] {
				continue
			}
			outside := y < 20 || y >= 80 || x < 20 || x >= 80
			inside := y >= 30 && y < 70 && x >= 30 && x < 70
			if outside || inside {
				t.Errorf("Unexpected edge pixel at (%d,%d)", y, x)
			}
		}
	}
}

func TestReflectIndices(t *testing.T) {
	tests := []struct {
		i, n          int
		reflect, r101 int
	}{
		{-1, 5, 0, 1},
		{-2, 5, 1, 2},
		{5, 5, 4, 3},
		{6, 5, 3, 2},
		{2, 5, 2, 2},
		{-1, 1, 0, 0},
	}

	for _, tt := range tests {
		if got := reflectIndex(tt.i, tt.n); got != tt.reflect {
			t.Errorf("reflectIndex(%d,%d) = %d, want %d", tt.i, tt.n, got, tt.reflect)
		}
		if got := reflect101(tt.i, tt.n); got != tt.r101 {
			t.Errorf("reflect101(%d,%d) = %d, want %d", tt.i, tt.n, got, tt.r101)
		}
	}
}

func filled(n int, v byte) []byte {
	pix := make([]byte, n)
	for i := range pix {
		pix[i] = v
	}
	return pix
}

func meanSquare(pix []byte) float64 {
	sum := 0.0
	for _, v := range pix {
		sum += float64(v) * float64(v)
	}
	return sum / float64(len(pix))
}
