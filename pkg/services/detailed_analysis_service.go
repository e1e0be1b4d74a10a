package services

import (
	"fmt"

	"github.com/anime-shed/stego-inspector-go/internal/analyzer"
	detection "github.com/anime-shed/stego-inspector-go/pkg/config"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

// anomalyHints are the follow-up suggestions for each anomalous key
var anomalyHints = map[string]string{
	detection.KeyColorAnomaly:     "Color histogram is unusually spread; compare against the camera's original output",
	detection.KeyDCTAnomaly:       "DCT coefficient magnitudes are high; check for JPEG-domain embedding (JSteg, F5, OutGuess)",
	detection.KeyEdgeAnomaly:      "Edge density is high; edge-adaptive embedding concentrates payload along contours",
	detection.KeyLSBAnomaly:       "Least significant bits are dense; run an LSB extraction or chi-square attack",
	detection.KeyPaletteAnomaly:   "Color histogram is uneven; inspect the palette for near-duplicate entries",
	detection.KeyTextureAnomaly:   "Local texture contrast is high; compare against a clean copy of the image",
	detection.KeyFrequencyAnomaly: "Spectral energy is high; look for spread-spectrum or watermark patterns",
}

// DetailedReportService breaks an analysis down into per-feature contributions
type DetailedReportService struct {
	evaluator *validation.ThresholdEvaluator
}

// NewDetailedReportService creates a new report service
func NewDetailedReportService() *DetailedReportService {
	return &DetailedReportService{evaluator: validation.NewThresholdEvaluator()}
}

// BuildReport computes the weighted contributions, anomaly checks and
// recommendations for result. Source and Timestamp are left empty.
func (s *DetailedReportService) BuildReport(result models.AnalysisResult, cfg detection.DetectionConfig) *models.DetailedReport {
	terms, raw := analyzer.WeightedTerms(result.Records())

	contributions := make([]models.FeatureContribution, 0, len(terms))
	dominant, best := "", 0.0
	for _, term := range terms {
		share := 0.0
		if raw > 0 {
			share = term.Contribution / raw
		}
		contributions = append(contributions, models.FeatureContribution{
			Feature:      term.Feature,
			Metric:       term.Metric,
			Value:        term.Value,
			Weight:       term.Weight,
			Contribution: term.Contribution,
			Share:        share,
		})
		if term.Contribution > best {
			dominant, best = term.Feature, term.Contribution
		}
	}

	anomalies := s.evaluator.Evaluate(result, cfg)
	detected := s.evaluator.IsDetected(result, cfg)

	return &models.DetailedReport{
		DetectionProbability: result.DetectionProbability,
		RawScore:             raw,
		Clamped:              raw > 1,
		AnalysisSummary:      result.AnalysisSummary,
		Detected:             detected,
		Threshold:            cfg.Threshold(),
		Contributions:        contributions,
		Anomalies:            anomalies,
		DominantFeature:      dominant,
		Result:               result,
		Recommendations:      recommendations(result, cfg, detected, anomalies),
	}
}

// BuildFromResponse builds a report for an analysis response, carrying its
// source and timestamp over
func (s *DetailedReportService) BuildFromResponse(response *models.AnalysisResponse, cfg detection.DetectionConfig) *models.DetailedReport {
	report := s.BuildReport(response.Result, cfg)
	report.Source = response.Source
	report.Timestamp = response.Timestamp
	return report
}

func recommendations(result models.AnalysisResult, cfg detection.DetectionConfig, detected bool, anomalies []models.AnomalyCheck) []string {
	var recs []string
	if detected {
		recs = append(recs, fmt.Sprintf(
			"Detection probability %.2f reaches the threshold %.2f; treat the image as suspect",
			result.DetectionProbability, cfg.Threshold()))
	}

	for _, check := range anomalies {
		if !check.Anomalous {
			continue
		}
		if hint, ok := anomalyHints[check.Key]; ok {
			recs = append(recs, hint)
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "No feature exceeds its configured threshold")
	}
	return recs
}
