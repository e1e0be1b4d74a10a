package analyzer

import (
	"image"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// StegoAnalyzer runs every feature extractor over one image and aggregates
// the records into a detection probability.
type StegoAnalyzer interface {
	// Analyze validates buf and returns the merged analysis. It fails as a
	// whole if any extractor fails.
	Analyze(buf *Buffer) (AnalysisResult, error)

	// AnalyzeImage converts a decoded image to an RGB buffer and analyzes it.
	AnalyzeImage(img image.Image) (AnalysisResult, error)

	// Extractors lists the feature keys in evaluation order.
	Extractors() []string
}

// FeatureExtractor computes one feature record from an image buffer.
// Implementations are pure and safe for concurrent use.
type FeatureExtractor interface {
	Name() string
	Validate(buf *Buffer) error
	Extract(buf *Buffer) (models.FeatureRecord, error)
}

// grayFeatureExtractor is implemented by extractors that only look at the
// luma plane, letting the orchestrator convert once per image.
type grayFeatureExtractor interface {
	FeatureExtractor
	ExtractGray(gray *image.Gray) (models.FeatureRecord, error)
}

// Aggregator combines feature records into a probability and a label.
type Aggregator interface {
	Aggregate(records map[string]models.FeatureRecord) (float64, string)
}
