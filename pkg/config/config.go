// Package config holds the detection thresholds applied to an analysis.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"
)

// Threshold keys.
const (
	KeyGeneral          = "general"
	KeyColorAnomaly     = "color_anomaly"
	KeyDCTAnomaly       = "dct_anomaly"
	KeyEdgeAnomaly      = "edge_anomaly"
	KeyLSBAnomaly       = "lsb_anomaly"
	KeyPaletteAnomaly   = "palette_anomaly"
	KeyTextureAnomaly   = "texture_anomaly"
	KeyFrequencyAnomaly = "frequency_anomaly"
)

// DefaultDetectionThreshold is the probability at or above which an image is
// reported as carrying hidden data.
const DefaultDetectionThreshold = 0.8

var defaultThresholds = map[string]float64{
	KeyGeneral:          0.8,
	KeyColorAnomaly:     0.7,
	KeyDCTAnomaly:       0.75,
	KeyEdgeAnomaly:      0.65,
	KeyLSBAnomaly:       0.7,
	KeyPaletteAnomaly:   0.6,
	KeyTextureAnomaly:   0.7,
	KeyFrequencyAnomaly: 0.75,
}

// DetectionConfig is an immutable set of thresholds. Overrides return a new
// value and never change the receiver. Thresholds only affect reporting; the
// detection probability itself does not depend on them.
type DetectionConfig struct {
	threshold  float64
	thresholds map[string]float64
}

// Default returns the default detection configuration
func Default() DetectionConfig {
	return DetectionConfig{
		threshold:  DefaultDetectionThreshold,
		thresholds: copyThresholds(defaultThresholds),
	}
}

// KnownKeys returns the threshold keys in sorted order
func KnownKeys() []string {
	keys := make([]string, 0, len(defaultThresholds))
	for k := range defaultThresholds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Threshold returns the detection threshold
func (c DetectionConfig) Threshold() float64 {
	return c.threshold
}

// ThresholdFor returns the threshold stored under key
func (c DetectionConfig) ThresholdFor(key string) (float64, bool) {
	v, ok := c.thresholds[key]
	return v, ok
}

// Thresholds returns a copy of the per-key thresholds
func (c DetectionConfig) Thresholds() map[string]float64 {
	return copyThresholds(c.thresholds)
}

// WithThreshold returns a copy with a new detection threshold
func (c DetectionConfig) WithThreshold(threshold float64) DetectionConfig {
	out := DetectionConfig{threshold: threshold, thresholds: copyThresholds(c.thresholds)}
	return out
}

// WithThresholds returns a copy with the given per-key thresholds merged in
func (c DetectionConfig) WithThresholds(overrides map[string]float64) DetectionConfig {
	merged := copyThresholds(c.thresholds)
	for k, v := range overrides {
		merged[k] = v
	}
	return DetectionConfig{threshold: c.threshold, thresholds: merged}
}

// Validate checks that every threshold lies in [0,1] and every key is known
func (c DetectionConfig) Validate() error {
	if c.threshold < 0 || c.threshold > 1 {
		return fmt.Errorf("detection threshold must be within [0,1], got %v", c.threshold)
	}

	keys := make([]string, 0, len(c.thresholds))
	for k := range c.thresholds {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, ok := defaultThresholds[k]; !ok {
			msg := fmt.Sprintf("unknown threshold key %q", k)
			if s := Suggest(k); s != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", s)
			}
			return fmt.Errorf("%s", msg)
		}
		if v := c.thresholds[k]; v < 0 || v > 1 {
			return fmt.Errorf("threshold %q must be within [0,1], got %v", k, v)
		}
	}
	return nil
}

// Suggest returns the known key closest to key, or "" when nothing is close
func Suggest(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	best, bestDist := "", -1
	for _, known := range KnownKeys() {
		d := levenshtein.Distance(key, known)
		if bestDist < 0 || d < bestDist {
			best, bestDist = known, d
		}
	}
	if bestDist < 0 || bestDist > len(best)/2 {
		return ""
	}
	return best
}

func copyThresholds(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
