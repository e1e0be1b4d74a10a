package validation

import (
	"fmt"

	"github.com/anime-shed/stego-inspector-go/pkg/config"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// MetricDetectionProbability names the value the general check compares
const MetricDetectionProbability = "detection_probability"

// AnomalyRule ties a threshold key to the feature metric it is compared with.
// An empty Feature selects the detection probability.
type AnomalyRule struct {
	Key     string
	Feature string
	Metric  string
}

// DefaultAnomalyRules lists the per-key checks in report order
func DefaultAnomalyRules() []AnomalyRule {
	return []AnomalyRule{
		{config.KeyGeneral, "", MetricDetectionProbability},
		{config.KeyColorAnomaly, models.FeatureColorDistribution, "mean"},
		{config.KeyDCTAnomaly, models.FeatureDCTCoefficients, "mean"},
		{config.KeyEdgeAnomaly, models.FeatureEdgePatterns, "edge_density"},
		{config.KeyLSBAnomaly, models.FeatureLSBPatterns, "lsb_density"},
		{config.KeyPaletteAnomaly, models.FeatureColorDistribution, "std"},
		{config.KeyTextureAnomaly, models.FeatureTexturePatterns, "contrast"},
		{config.KeyFrequencyAnomaly, models.FeatureFrequencyDomain, "mean"},
	}
}

// ThresholdEvaluator compares an analysis against configured thresholds.
// It never changes the probability; it only reports.
type ThresholdEvaluator struct {
	rules []AnomalyRule
}

// NewThresholdEvaluator creates an evaluator with the default rules
func NewThresholdEvaluator() *ThresholdEvaluator {
	return &ThresholdEvaluator{rules: DefaultAnomalyRules()}
}

// NewThresholdEvaluatorWithRules creates an evaluator with custom rules
func NewThresholdEvaluatorWithRules(rules []AnomalyRule) *ThresholdEvaluator {
	return &ThresholdEvaluator{rules: append([]AnomalyRule(nil), rules...)}
}

// IsDetected reports whether the probability reaches the detection threshold
func (e *ThresholdEvaluator) IsDetected(result models.AnalysisResult, cfg config.DetectionConfig) bool {
	return result.DetectionProbability >= cfg.Threshold()
}

// Evaluate runs every rule whose key is configured and whose metric is
// present. A value at or above its threshold is anomalous.
func (e *ThresholdEvaluator) Evaluate(result models.AnalysisResult, cfg config.DetectionConfig) []models.AnomalyCheck {
	checks := make([]models.AnomalyCheck, 0, len(e.rules))
	for _, rule := range e.rules {
		threshold, ok := cfg.ThresholdFor(rule.Key)
		if !ok {
			continue
		}
		value, ok := ruleValue(result, rule)
		if !ok {
			continue
		}
		checks = append(checks, models.AnomalyCheck{
			Key:       rule.Key,
			Feature:   rule.Feature,
			Metric:    rule.Metric,
			Value:     value,
			Threshold: threshold,
			Anomalous: value >= threshold,
		})
	}
	return checks
}

func ruleValue(result models.AnalysisResult, rule AnomalyRule) (float64, bool) {
	if rule.Feature == "" {
		return result.DetectionProbability, true
	}
	record, ok := result.Record(rule.Feature)
	if !ok {
		return 0, false
	}
	m, ok := record.Get(rule.Metric)
	if !ok || m.IsSequence() {
		return 0, false
	}
	return m.Value, true
}

// HasAnomalies reports whether any check is anomalous
func HasAnomalies(checks []models.AnomalyCheck) bool {
	for _, c := range checks {
		if c.Anomalous {
			return true
		}
	}
	return false
}

// AnomalyMessages converts anomalous checks to human-readable lines
func AnomalyMessages(checks []models.AnomalyCheck) []string {
	var messages []string
	for _, c := range checks {
		if !c.Anomalous {
			continue
		}
		source := c.Metric
		if c.Feature != "" {
			source = c.Feature + "." + c.Metric
		}
		messages = append(messages, fmt.Sprintf("%s: %s = %.4f exceeds %.2f", c.Key, source, c.Value, c.Threshold))
	}
	return messages
}
