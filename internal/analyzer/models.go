package analyzer

import (
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

// AnalysisResult is an alias to the shared models.AnalysisResult
type AnalysisResult = models.AnalysisResult
