package models

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/goccy/go-json"
)

// Feature keys, in the order the aggregator weighs them.
const (
	FeatureColorDistribution = "color_distribution"
	FeatureDCTCoefficients   = "dct_coefficients"
	FeatureEdgePatterns      = "edge_patterns"
	FeatureLSBPatterns       = "lsb_patterns"
	FeatureTexturePatterns   = "texture_patterns"
	FeatureFrequencyDomain   = "frequency_domain"
	FeatureBitPlane          = "bit_plane"
	FeatureNoiseLevel        = "noise_level"
)

// FeatureKeys lists every feature key in canonical order.
var FeatureKeys = []string{
	FeatureColorDistribution,
	FeatureDCTCoefficients,
	FeatureEdgePatterns,
	FeatureLSBPatterns,
	FeatureTexturePatterns,
	FeatureFrequencyDomain,
	FeatureBitPlane,
	FeatureNoiseLevel,
}

// Metric is one named value of a feature record. Sequence metrics carry
// Values; scalar metrics carry Value.
type Metric struct {
	Name   string
	Value  float64
	Values []float64
}

// Scalar builds a scalar metric.
func Scalar(name string, value float64) Metric {
	return Metric{Name: name, Value: value}
}

// Sequence builds a sequence metric. The values are copied.
func Sequence(name string, values []float64) Metric {
	return Metric{Name: name, Values: append([]float64{}, values...)}
}

// IsSequence reports whether the metric holds a float sequence.
func (m Metric) IsSequence() bool {
	return m.Values != nil
}

// FeatureRecord is the ordered set of metrics produced by one extractor.
// Order is significant: the aggregator weighs the first metric.
type FeatureRecord struct {
	metrics []Metric
}

// NewFeatureRecord builds a record from metrics in the given order.
func NewFeatureRecord(metrics ...Metric) FeatureRecord {
	record := FeatureRecord{metrics: make([]Metric, len(metrics))}
	for i, m := range metrics {
		if m.Values != nil {
			m.Values = append([]float64{}, m.Values...)
		}
		record.metrics[i] = m
	}
	return record
}

// Len returns the number of metrics in the record.
func (r FeatureRecord) Len() int {
	return len(r.metrics)
}

// Metrics returns a copy of the record's metrics.
func (r FeatureRecord) Metrics() []Metric {
	return NewFeatureRecord(r.metrics...).metrics
}

// First returns the first metric of the record.
func (r FeatureRecord) First() (Metric, bool) {
	if len(r.metrics) == 0 {
		return Metric{}, false
	}
	return r.metrics[0], true
}

// Get looks up a metric by name.
func (r FeatureRecord) Get(name string) (Metric, bool) {
	for _, m := range r.metrics {
		if m.Name == name {
			return m, true
		}
	}
	return Metric{}, false
}

// Float returns a scalar metric's value, or 0 when absent.
func (r FeatureRecord) Float(name string) float64 {
	m, _ := r.Get(name)
	return m.Value
}

// Floats returns a sequence metric's values, or nil when absent.
func (r FeatureRecord) Floats(name string) []float64 {
	m, ok := r.Get(name)
	if !ok || m.Values == nil {
		return nil
	}
	return append([]float64{}, m.Values...)
}

// MarshalJSON writes the record as a JSON object preserving metric order.
func (r FeatureRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range r.metrics {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		var value []byte
		if m.IsSequence() {
			value, err = json.Marshal(m.Values)
		} else {
			value, err = json.Marshal(m.Value)
		}
		if err != nil {
			return nil, fmt.Errorf("metric %s: %w", m.Name, err)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// metricOrder fixes the position of known metric names when decoding, since
// JSON objects carry no order once parsed into a map.
var metricOrder = map[string]int{
	"mean":         0,
	"edge_density": 0,
	"lsb_density":  0,
	"contrast":     0,
	"bit_planes":   0,
	"noise_level":  0,
	"std":          1,
}

// UnmarshalJSON reads a record written by MarshalJSON.
func (r *FeatureRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		oi, iKnown := metricOrder[names[i]]
		oj, jKnown := metricOrder[names[j]]
		if iKnown != jKnown {
			return iKnown
		}
		if oi != oj {
			return oi < oj
		}
		return names[i] < names[j]
	})

	metrics := make([]Metric, 0, len(names))
	for _, name := range names {
		value := bytes.TrimSpace(raw[name])
		if len(value) > 0 && value[0] == '[' {
			var values []float64
			if err := json.Unmarshal(value, &values); err != nil {
				return fmt.Errorf("metric %s: %w", name, err)
			}
			if values == nil {
				values = []float64{}
			}
			metrics = append(metrics, Metric{Name: name, Values: values})
			continue
		}
		var v float64
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("metric %s: %w", name, err)
		}
		metrics = append(metrics, Scalar(name, v))
	}
	r.metrics = metrics
	return nil
}

// AnalysisResult is the merged output of one image analysis: the eight
// feature records plus the weighted detection probability and its label.
// It carries no timing information so that identical buffers produce
// identical results.
//
// The record fields are exported for JSON encoding and can be reassigned.
// The result is a value: a FeatureRecord cannot be mutated in place, and
// replacing a field on one copy never affects another. Nothing in this
// module reassigns a field after NewAnalysisResult returns.
type AnalysisResult struct {
	ColorDistribution FeatureRecord `json:"color_distribution"`
	DCTCoefficients   FeatureRecord `json:"dct_coefficients"`
	EdgePatterns      FeatureRecord `json:"edge_patterns"`
	LSBPatterns       FeatureRecord `json:"lsb_patterns"`
	TexturePatterns   FeatureRecord `json:"texture_patterns"`
	FrequencyDomain   FeatureRecord `json:"frequency_domain"`
	BitPlane          FeatureRecord `json:"bit_plane"`
	NoiseLevel        FeatureRecord `json:"noise_level"`

	DetectionProbability float64 `json:"detection_probability"`
	AnalysisSummary      string  `json:"analysis_summary"`
}

// NewAnalysisResult assembles a result from records keyed by feature name.
// Records under unknown keys are ignored.
func NewAnalysisResult(records map[string]FeatureRecord, probability float64, summary string) AnalysisResult {
	result := AnalysisResult{
		DetectionProbability: probability,
		AnalysisSummary:      summary,
	}
	for key, record := range records {
		if slot := result.slot(key); slot != nil {
			*slot = NewFeatureRecord(record.metrics...)
		}
	}
	return result
}

// Record returns the feature record stored under key.
func (r AnalysisResult) Record(key string) (FeatureRecord, bool) {
	slot := r.slot(key)
	if slot == nil {
		return FeatureRecord{}, false
	}
	return *slot, true
}

// Records returns all eight feature records keyed by feature name.
func (r AnalysisResult) Records() map[string]FeatureRecord {
	records := make(map[string]FeatureRecord, len(FeatureKeys))
	for _, key := range FeatureKeys {
		record, _ := r.Record(key)
		records[key] = record
	}
	return records
}

func (r *AnalysisResult) slot(key string) *FeatureRecord {
	switch key {
	case FeatureColorDistribution:
		return &r.ColorDistribution
	case FeatureDCTCoefficients:
		return &r.DCTCoefficients
	case FeatureEdgePatterns:
		return &r.EdgePatterns
	case FeatureLSBPatterns:
		return &r.LSBPatterns
	case FeatureTexturePatterns:
		return &r.TexturePatterns
	case FeatureFrequencyDomain:
		return &r.FrequencyDomain
	case FeatureBitPlane:
		return &r.BitPlane
	case FeatureNoiseLevel:
		return &r.NoiseLevel
	}
	return nil
}

// ImageMetadata contains metadata about an image source
type ImageMetadata struct {
	ContentType   string `json:"content_type,omitempty"`
	ContentLength int64  `json:"content_length,omitempty"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	Format        string `json:"format,omitempty"`
}
