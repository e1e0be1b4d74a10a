package analyzer

import (
	"github.com/anime-shed/stego-inspector-go/internal/strategy"
)

// AnalysisOptions configures how the orchestrator runs its extractors
type AnalysisOptions struct {
	// ParallelExtractors runs the extractors of one image concurrently
	ParallelExtractors bool
	// MaxWorkers bounds the extractor goroutines; 0 means one per CPU
	MaxWorkers int

	// Extractors replaces the default extractor set when non-empty
	Extractors []FeatureExtractor
	// Aggregator replaces the fixed-weight aggregator when set
	Aggregator Aggregator
}

// DefaultOptions runs the eight default extractors one after another
func DefaultOptions() AnalysisOptions {
	return AnalysisOptions{
		ParallelExtractors: false,
		MaxWorkers:         0,
	}
}

// ConcurrentOptions runs the default extractors on a bounded set of goroutines
func ConcurrentOptions(maxWorkers int) AnalysisOptions {
	return DefaultOptions().WithParallelExtractors(maxWorkers)
}

// WithParallelExtractors enables concurrent extraction
func (opts AnalysisOptions) WithParallelExtractors(maxWorkers int) AnalysisOptions {
	opts.ParallelExtractors = true
	opts.MaxWorkers = maxWorkers
	return opts
}

// WithSequentialExtractors disables concurrent extraction
func (opts AnalysisOptions) WithSequentialExtractors() AnalysisOptions {
	opts.ParallelExtractors = false
	return opts
}

// WithExtractors replaces the extractor set
func (opts AnalysisOptions) WithExtractors(extractors ...FeatureExtractor) AnalysisOptions {
	opts.Extractors = append([]FeatureExtractor(nil), extractors...)
	return opts
}

// StrategyName names the execution strategy these options select
func (opts AnalysisOptions) StrategyName() string {
	if opts.ParallelExtractors {
		return strategy.ConcurrentName
	}
	return strategy.SequentialName
}
