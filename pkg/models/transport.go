package models

// AnalysisRequest represents a request for steganalysis of an image source
type AnalysisRequest struct {
	Source     string             `json:"source" binding:"required"`
	Threshold  *float64           `json:"threshold,omitempty"`
	Thresholds map[string]float64 `json:"thresholds,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// AnomalyCheck is the outcome of comparing one feature against its
// configured per-key threshold.
type AnomalyCheck struct {
	Key       string  `json:"key"`
	Feature   string  `json:"feature"`
	Metric    string  `json:"metric"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Anomalous bool    `json:"anomalous"`
}

// AnalysisResponse wraps one AnalysisResult with request-level details
type AnalysisResponse struct {
	ID                string         `json:"id"`
	Source            string         `json:"source"`
	Timestamp         string         `json:"timestamp"`
	ProcessingTimeSec float64        `json:"processing_time_sec"`
	Image             ImageMetadata  `json:"image"`
	Result            AnalysisResult `json:"result"`
	Detected          bool           `json:"detected"`
	Threshold         float64        `json:"threshold"`
	Anomalies         []AnomalyCheck `json:"anomalies,omitempty"`
}

// BatchItem is the per-source outcome of a batch analysis
type BatchItem struct {
	Source   string            `json:"source"`
	Response *AnalysisResponse `json:"response,omitempty"`
	Error    string            `json:"error,omitempty"`
}

// BatchSummary aggregates the outcome of analyzing many sources
type BatchSummary struct {
	Total             int         `json:"total"`
	Analyzed          int         `json:"analyzed"`
	Failed            int         `json:"failed"`
	Detected          int         `json:"detected"`
	ProcessingTimeSec float64     `json:"processing_time_sec"`
	Items             []BatchItem `json:"items"`
}

// BatchRequest asks for the analysis of several sources at once
type BatchRequest struct {
	Sources    []string           `json:"sources" binding:"required,min=1"`
	Threshold  *float64           `json:"threshold,omitempty"`
	Thresholds map[string]float64 `json:"thresholds,omitempty"`
}
