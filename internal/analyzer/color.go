package analyzer

import (
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

const (
	colorBins     = 8
	colorBinShift = 5 // 256 / colorBins == 1<<5
)

// colorDistribution builds an 8x8x8 joint RGB histogram, min-max normalizes
// it to [0,1] and reports its mean and standard deviation.
func colorDistribution(pix []byte) models.FeatureRecord {
	hist := make([]float64, colorBins*colorBins*colorBins)
	for i := 0; i+2 < len(pix); i += 3 {
		r := int(pix[i] >> colorBinShift)
		g := int(pix[i+1] >> colorBinShift)
		b := int(pix[i+2] >> colorBinShift)
		hist[(r*colorBins+g)*colorBins+b]++
	}

	normalizeMinMax(hist)
	mean, std := meanStd(hist)

	return models.NewFeatureRecord(
		models.Scalar("mean", mean),
		models.Scalar("std", std),
	)
}

// normalizeMinMax rescales data in place to [0,1]. A flat input becomes all
// zeros.
func normalizeMinMax(data []float64) {
	if len(data) == 0 {
		return
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	span := hi - lo
	for i, v := range data {
		if span == 0 {
			data[i] = 0
			continue
		}
		data[i] = (v - lo) / span
	}
}
