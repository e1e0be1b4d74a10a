package analyzer

import (
	"math"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// Summary labels for the detection probability.
const (
	SummaryHigh     = "High probability of hidden information detected"
	SummaryModerate = "Moderate probability of hidden information detected"
	SummaryLow      = "Low probability of hidden information detected"
)

// FeatureWeight is the share of the probability one feature contributes.
type FeatureWeight struct {
	Feature string
	Weight  float64
}

// Weights lists the aggregation weights in canonical feature order. They
// sum to 1.
var Weights = []FeatureWeight{
	{models.FeatureColorDistribution, 0.15},
	{models.FeatureDCTCoefficients, 0.20},
	{models.FeatureEdgePatterns, 0.15},
	{models.FeatureLSBPatterns, 0.20},
	{models.FeatureTexturePatterns, 0.10},
	{models.FeatureFrequencyDomain, 0.10},
	{models.FeatureBitPlane, 0.05},
	{models.FeatureNoiseLevel, 0.05},
}

// WeightedTerm is one feature's part of the weighted sum.
type WeightedTerm struct {
	Feature      string
	Metric       string
	Value        float64
	Weight       float64
	Contribution float64
}

type weightedAggregator struct{}

// NewAggregator returns the fixed-weight aggregator
func NewAggregator() Aggregator {
	return weightedAggregator{}
}

// Aggregate clamps the weighted sum of feature values to at most 1 and
// labels it. Missing features contribute nothing.
func (weightedAggregator) Aggregate(records map[string]models.FeatureRecord) (float64, string) {
	_, raw := WeightedTerms(records)
	p := math.Min(1, raw)
	return p, Summarize(p)
}

// WeightedTerms returns each present feature's term in weight order and the
// unclamped sum.
func WeightedTerms(records map[string]models.FeatureRecord) ([]WeightedTerm, float64) {
	terms := make([]WeightedTerm, 0, len(Weights))
	sum := 0.0
	for _, w := range Weights {
		record, ok := records[w.Feature]
		if !ok {
			continue
		}
		name, value, ok := FeatureValue(record)
		if !ok {
			continue
		}
		term := WeightedTerm{
			Feature:      w.Feature,
			Metric:       name,
			Value:        value,
			Weight:       w.Weight,
			Contribution: value * w.Weight,
		}
		terms = append(terms, term)
		sum += term.Contribution
	}
	return terms, sum
}

// FeatureValue returns the record's first metric as a scalar. Sequences are
// reduced to their mean. An empty record has no value.
func FeatureValue(record models.FeatureRecord) (string, float64, bool) {
	m, ok := record.First()
	if !ok {
		return "", 0, false
	}
	if !m.IsSequence() {
		return m.Name, m.Value, true
	}
	if len(m.Values) == 0 {
		return m.Name, 0, true
	}
	sum := 0.0
	for _, v := range m.Values {
		sum += v
	}
	return m.Name, sum / float64(len(m.Values)), true
}

// Summarize maps a probability to its label. Both boundaries are exclusive.
func Summarize(p float64) string {
	switch {
	case p > 0.7:
		return SummaryHigh
	case p > 0.4:
		return SummaryModerate
	default:
		return SummaryLow
	}
}
