package repository

import (
	"context"

	"github.com/anime-shed/stego-inspector-go/internal/storage"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

// ImageRepository defines the interface for image data access operations
type ImageRepository interface {
	// FetchImage validates source and loads the decoded image
	FetchImage(ctx context.Context, source string) (*storage.FetchedImage, error)

	// ValidateSource checks a source and reports where it lives
	ValidateSource(source string) (validation.SourceKind, error)

	// GetImageMetadata reports format and dimensions of the image at source
	GetImageMetadata(ctx context.Context, source string) (*models.ImageMetadata, error)
}

// AnalysisRepository defines the interface for analysis result operations
type AnalysisRepository interface {
	// SaveAnalysis stores an analysis response and returns where it went
	SaveAnalysis(ctx context.Context, response *models.AnalysisResponse) (string, error)

	// GetAnalysis retrieves a stored analysis response
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisResponse, error)

	// SaveReport stores a detailed report under id
	SaveReport(ctx context.Context, id string, report *models.DetailedReport) (string, error)

	// ListAnalyses returns the IDs of stored analyses, sorted
	ListAnalyses(ctx context.Context) ([]string, error)
}
