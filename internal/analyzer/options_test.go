package analyzer

import (
	"testing"

	"github.com/anime-shed/stego-inspector-go/internal/strategy"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	if opts.ParallelExtractors {
		t.Error("Expected ParallelExtractors to be false by default")
	}
	if opts.MaxWorkers != 0 {
		t.Errorf("Expected MaxWorkers to be 0, got %d", opts.MaxWorkers)
	}
	if opts.StrategyName() != strategy.SequentialName {
		t.Errorf("Expected %s strategy, got %s", strategy.SequentialName, opts.StrategyName())
	}
}

func TestConcurrentOptions(t *testing.T) {
	opts := ConcurrentOptions(3)

	if !opts.ParallelExtractors {
		t.Error("Expected ParallelExtractors to be true")
	}
	if opts.MaxWorkers != 3 {
		t.Errorf("Expected MaxWorkers to be 3, got %d", opts.MaxWorkers)
	}
	if opts.StrategyName() != strategy.ConcurrentName {
		t.Errorf("Expected %s strategy, got %s", strategy.ConcurrentName, opts.StrategyName())
	}
}

func TestOptionsChaining(t *testing.T) {
	base := DefaultOptions()
	opts := base.WithParallelExtractors(2).WithSequentialExtractors()

	if opts.ParallelExtractors {
		t.Error("Expected the last option to win")
	}
	if base.ParallelExtractors || base.MaxWorkers != 0 {
		t.Error("Expected With methods to leave the receiver unchanged")
	}
}

func TestWithExtractors(t *testing.T) {
	extractors := []FeatureExtractor{NewLSBExtractor(), NewNoiseExtractor()}
	opts := DefaultOptions().WithExtractors(extractors...)
	extractors[0] = NewDCTExtractor()

	if len(opts.Extractors) != 2 {
		t.Fatalf("Expected 2 extractors, got %d", len(opts.Extractors))
	}
	if opts.Extractors[0].Name() != "lsb_patterns" {
		t.Errorf("Expected the extractor list to be copied, got %s", opts.Extractors[0].Name())
	}
}
