package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 0.8, cfg.Threshold())
	want := map[string]float64{
		"general":           0.8,
		"color_anomaly":     0.7,
		"dct_anomaly":       0.75,
		"edge_anomaly":      0.65,
		"lsb_anomaly":       0.7,
		"palette_anomaly":   0.6,
		"texture_anomaly":   0.7,
		"frequency_anomaly": 0.75,
	}
	assert.Equal(t, want, cfg.Thresholds())
	require.NoError(t, cfg.Validate())
}

func TestWithThreshold_DoesNotMutate(t *testing.T) {
	base := Default()
	changed := base.WithThreshold(0.5)

	assert.Equal(t, 0.8, base.Threshold())
	assert.Equal(t, 0.5, changed.Threshold())
	assert.Equal(t, base.Thresholds(), changed.Thresholds())
}

func TestWithThresholds_Merges(t *testing.T) {
	base := Default()
	overrides := map[string]float64{"lsb_anomaly": 0.9}
	changed := base.WithThresholds(overrides)
	overrides["lsb_anomaly"] = 0.1

	v, ok := changed.ThresholdFor("lsb_anomaly")
	require.True(t, ok)
	assert.Equal(t, 0.9, v)

	v, _ = base.ThresholdFor("lsb_anomaly")
	assert.Equal(t, 0.7, v)

	v, _ = changed.ThresholdFor("dct_anomaly")
	assert.Equal(t, 0.75, v)
}

func TestThresholds_ReturnsCopy(t *testing.T) {
	cfg := Default()
	m := cfg.Thresholds()
	m["general"] = 0

	v, _ := cfg.ThresholdFor("general")
	assert.Equal(t, 0.8, v)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DetectionConfig
		wantErr string
	}{
		{"defaults", Default(), ""},
		{"threshold above one", Default().WithThreshold(1.5), "detection threshold"},
		{"threshold below zero", Default().WithThreshold(-0.1), "detection threshold"},
		{"bounds inclusive", Default().WithThreshold(1).WithThresholds(map[string]float64{"general": 0}), ""},
		{"key out of range", Default().WithThresholds(map[string]float64{"edge_anomaly": 2}), "edge_anomaly"},
		{"unknown key", Default().WithThresholds(map[string]float64{"lsb_anomoly": 0.5}), `did you mean "lsb_anomaly"`},
		{"unrelated key", Default().WithThresholds(map[string]float64{"zzzz": 0.5}), `unknown threshold key "zzzz"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "dct_anomaly", Suggest("dct_anomally"))
	assert.Equal(t, "general", Suggest("GENERAL"))
	assert.Equal(t, "", Suggest("completely_different_key"))
}
