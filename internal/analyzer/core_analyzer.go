package analyzer

import (
	"image"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/internal/strategy"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// coreAnalyzer implements StegoAnalyzer by running every extractor and
// aggregating their records
type coreAnalyzer struct {
	extractors []FeatureExtractor
	aggregator Aggregator
	executor   strategy.ExecutionStrategy
}

// NewStegoAnalyzer creates an analyzer from options
func NewStegoAnalyzer(opts AnalysisOptions) (StegoAnalyzer, error) {
	executor, err := strategy.ForName(opts.StrategyName(), opts.MaxWorkers)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create execution strategy", err)
	}

	extractors := opts.Extractors
	if len(extractors) == 0 {
		extractors = DefaultExtractors()
	}
	aggregator := opts.Aggregator
	if aggregator == nil {
		aggregator = NewAggregator()
	}

	return &coreAnalyzer{
		extractors: extractors,
		aggregator: aggregator,
		executor:   executor,
	}, nil
}

// Analyze validates the buffer against every extractor before any transform
// runs, then extracts, aggregates and merges. Nothing partial is returned.
func (ca *coreAnalyzer) Analyze(buf *Buffer) (AnalysisResult, error) {
	for _, e := range ca.extractors {
		if err := e.Validate(buf); err != nil {
			return AnalysisResult{}, err
		}
	}

	var gray *image.Gray
	for _, e := range ca.extractors {
		if _, ok := e.(grayFeatureExtractor); ok {
			gray = buf.Gray()
			break
		}
	}

	records := make([]models.FeatureRecord, len(ca.extractors))
	tasks := make([]strategy.Task, len(ca.extractors))
	for i, e := range ca.extractors {
		i, e := i, e
		tasks[i] = func() error {
			var (
				record models.FeatureRecord
				err    error
			)
			if ge, ok := e.(grayFeatureExtractor); ok {
				record, err = ge.ExtractGray(gray)
			} else {
				record, err = e.Extract(buf)
			}
			if err != nil {
				return err
			}
			records[i] = record
			return nil
		}
	}

	if err := ca.executor.Execute(tasks); err != nil {
		return AnalysisResult{}, err
	}

	byKey := make(map[string]models.FeatureRecord, len(records))
	for i, e := range ca.extractors {
		byKey[e.Name()] = records[i]
	}
	probability, summary := ca.aggregator.Aggregate(byKey)

	return models.NewAnalysisResult(byKey, probability, summary), nil
}

// AnalyzeImage converts img to an RGB buffer and analyzes it
func (ca *coreAnalyzer) AnalyzeImage(img image.Image) (AnalysisResult, error) {
	if img == nil {
		return AnalysisResult{}, apperrors.NewInvalidInputError("image is nil", nil)
	}
	return ca.Analyze(FromImage(img))
}

// Extractors lists the feature keys in evaluation order
func (ca *coreAnalyzer) Extractors() []string {
	names := make([]string, len(ca.extractors))
	for i, e := range ca.extractors {
		names[i] = e.Name()
	}
	return names
}
