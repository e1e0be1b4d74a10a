package analyzer

import (
	"fmt"
	"image"
	"math"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// DefaultExtractors returns the eight feature extractors in canonical order.
func DefaultExtractors() []FeatureExtractor {
	return []FeatureExtractor{
		NewColorDistributionExtractor(),
		NewDCTExtractor(),
		NewEdgeExtractor(),
		NewLSBExtractor(),
		NewTextureExtractor(),
		NewFrequencyExtractor(),
		NewBitPlaneExtractor(),
		NewNoiseExtractor(),
	}
}

// grayExtractor adapts a function over the luma plane to FeatureExtractor.
type grayExtractor struct {
	name    string
	compute func(gray *image.Gray) (models.FeatureRecord, error)
}

func (e *grayExtractor) Name() string {
	return e.name
}

func (e *grayExtractor) Validate(buf *Buffer) error {
	return buf.Validate()
}

func (e *grayExtractor) Extract(buf *Buffer) (models.FeatureRecord, error) {
	if err := e.Validate(buf); err != nil {
		return models.FeatureRecord{}, err
	}
	return e.ExtractGray(buf.Gray())
}

func (e *grayExtractor) ExtractGray(gray *image.Gray) (models.FeatureRecord, error) {
	record, err := e.compute(gray)
	if err != nil {
		return models.FeatureRecord{}, err
	}
	if err := checkFinite(e.name, record); err != nil {
		return models.FeatureRecord{}, err
	}
	return record, nil
}

// colorDistributionExtractor works on the RGB samples directly.
type colorDistributionExtractor struct{}

// NewColorDistributionExtractor creates the color histogram extractor
func NewColorDistributionExtractor() FeatureExtractor {
	return &colorDistributionExtractor{}
}

func (e *colorDistributionExtractor) Name() string {
	return models.FeatureColorDistribution
}

func (e *colorDistributionExtractor) Validate(buf *Buffer) error {
	return buf.validateColor()
}

func (e *colorDistributionExtractor) Extract(buf *Buffer) (models.FeatureRecord, error) {
	if err := e.Validate(buf); err != nil {
		return models.FeatureRecord{}, err
	}
	record := colorDistribution(buf.Pix)
	if err := checkFinite(e.Name(), record); err != nil {
		return models.FeatureRecord{}, err
	}
	return record, nil
}

func checkFinite(extractor string, record models.FeatureRecord) error {
	for _, m := range record.Metrics() {
		values := m.Values
		if !m.IsSequence() {
			values = []float64{m.Value}
		}
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return apperrors.NewComputationError(extractor,
					fmt.Sprintf("metric %s is not finite", m.Name), nil)
			}
		}
	}
	return nil
}
