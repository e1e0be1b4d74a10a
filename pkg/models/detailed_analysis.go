package models

// DetailedReport breaks a detection probability down into the weighted
// contribution of every feature, alongside the per-key threshold checks.
type DetailedReport struct {
	Source               string                `json:"source"`
	Timestamp            string                `json:"timestamp"`
	DetectionProbability float64               `json:"detection_probability"`
	RawScore             float64               `json:"raw_score"` // weighted sum before clamping
	Clamped              bool                  `json:"clamped"`
	AnalysisSummary      string                `json:"analysis_summary"`
	Detected             bool                  `json:"detected"`
	Threshold            float64               `json:"threshold"`
	Contributions        []FeatureContribution `json:"contributions"`
	Anomalies            []AnomalyCheck        `json:"anomalies"`
	DominantFeature      string                `json:"dominant_feature,omitempty"`
	Result               AnalysisResult        `json:"result"`
	Recommendations      []string              `json:"recommendations,omitempty"`
}

// FeatureContribution is one weighted term of the detection probability
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Metric       string  `json:"metric"`
	Value        float64 `json:"value"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
	Share        float64 `json:"share"` // fraction of the raw score, 0 when the score is 0
}

// DetailedAnalysisRequest represents a request for a detailed report
type DetailedAnalysisRequest struct {
	Source     string             `json:"source" binding:"required"`
	Threshold  *float64           `json:"threshold,omitempty"`
	Thresholds map[string]float64 `json:"thresholds,omitempty"`
	SaveReport bool               `json:"save_report,omitempty"`
}
