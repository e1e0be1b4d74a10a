package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/stego-inspector-go/internal/analyzer"
	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/internal/logger"
	"github.com/anime-shed/stego-inspector-go/internal/observer"
	"github.com/anime-shed/stego-inspector-go/internal/repository"
	detection "github.com/anime-shed/stego-inspector-go/pkg/config"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

// StegoAnalysisService analyzes images from any supported source
type StegoAnalysisService interface {
	// AnalyzeImage fetches, decodes and analyzes the image at source
	AnalyzeImage(ctx context.Context, source string, cfg detection.DetectionConfig) (*models.AnalysisResponse, error)

	// AnalyzeDecoded analyzes an image that is already in memory
	AnalyzeDecoded(ctx context.Context, name string, img image.Image, cfg detection.DetectionConfig) (*models.AnalysisResponse, error)

	// AnalyzeBatch analyzes every source on the worker pool. Per-source
	// failures are reported in the summary items.
	AnalyzeBatch(ctx context.Context, sources []string, cfg detection.DetectionConfig) (*models.BatchSummary, error)

	// AnalyzeDirectory analyzes the supported images directly inside dir
	AnalyzeDirectory(ctx context.Context, dir string, cfg detection.DetectionConfig) (*models.BatchSummary, error)

	// ValidateSource checks a source without fetching it
	ValidateSource(source string) error
}

// Options tunes the service
type Options struct {
	NumWorkers      int           // batch worker pool size; <= 0 selects runtime.NumCPU
	MaxImageSize    int           // longest accepted side in pixels; <= 0 disables the check
	SaveReports     bool          // store every response through the analysis repository
	AnalysisTimeout time.Duration // per-image limit on feature extraction; 0 means none
}

// stegoAnalysisService implements StegoAnalysisService
type stegoAnalysisService struct {
	imageRepo    repository.ImageRepository
	analysisRepo repository.AnalysisRepository
	analyzer     analyzer.StegoAnalyzer
	evaluator    *validation.ThresholdEvaluator
	events       observer.Subject
	opts         Options
}

// NewStegoAnalysisService creates a new analysis service. analysisRepo and
// events may be nil.
func NewStegoAnalysisService(
	imageRepository repository.ImageRepository,
	analysisRepository repository.AnalysisRepository,
	stegoAnalyzer analyzer.StegoAnalyzer,
	events observer.Subject,
	opts Options,
) StegoAnalysisService {
	return &stegoAnalysisService{
		imageRepo:    imageRepository,
		analysisRepo: analysisRepository,
		analyzer:     stegoAnalyzer,
		evaluator:    validation.NewThresholdEvaluator(),
		events:       events,
		opts:         opts,
	}
}

// ValidateSource checks a source without fetching it
func (s *stegoAnalysisService) ValidateSource(source string) error {
	_, err := s.imageRepo.ValidateSource(source)
	return err
}

// AnalyzeImage fetches, decodes and analyzes the image at source
func (s *stegoAnalysisService) AnalyzeImage(ctx context.Context, source string, cfg detection.DetectionConfig) (*models.AnalysisResponse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), err)
	}

	kind, err := s.imageRepo.ValidateSource(source)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, AnalysisID: id, Source: source})

	fetched, err := s.imageRepo.FetchImage(ctx, source)
	if err != nil {
		err = asAppError(err)
		s.publish(ctx, observer.AnalysisEvent{
			EventType:    observer.ImageFetchFailed,
			AnalysisID:   id,
			Source:       source,
			ErrorMessage: err.Error(),
			Metadata:     map[string]interface{}{observer.MetaSourceKind: string(kind)},
		})
		s.publishFailure(ctx, id, source, start, err)
		return nil, err
	}
	s.publish(ctx, observer.AnalysisEvent{
		EventType:  observer.ImageFetched,
		AnalysisID: id,
		Source:     source,
		Success:    true,
		Metadata:   map[string]interface{}{observer.MetaSourceKind: string(kind)},
	})

	return s.analyze(ctx, id, source, fetched.Image, repository.MetadataFromFetched(fetched), cfg, start)
}

// AnalyzeDecoded analyzes an image that is already in memory
func (s *stegoAnalysisService) AnalyzeDecoded(ctx context.Context, name string, img image.Image, cfg detection.DetectionConfig) (*models.AnalysisResponse, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), err)
	}
	if img == nil {
		return nil, apperrors.NewInvalidInputError("image is nil", nil)
	}

	id := uuid.NewString()
	start := time.Now()
	s.publish(ctx, observer.AnalysisEvent{EventType: observer.AnalysisStarted, AnalysisID: id, Source: name})

	bounds := img.Bounds()
	meta := models.ImageMetadata{Width: bounds.Dx(), Height: bounds.Dy()}
	return s.analyze(ctx, id, name, img, meta, cfg, start)
}

type analysisOutcome struct {
	result models.AnalysisResult
	err    error
}

func (s *stegoAnalysisService) analyze(
	ctx context.Context,
	id, source string,
	img image.Image,
	meta models.ImageMetadata,
	cfg detection.DetectionConfig,
	start time.Time,
) (*models.AnalysisResponse, error) {
	if err := s.checkImageSize(meta); err != nil {
		s.publishFailure(ctx, id, source, start, err)
		return nil, err
	}

	if s.opts.AnalysisTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.AnalysisTimeout)
		defer cancel()
	}

	// Extraction cannot be interrupted. On timeout the goroutine runs to
	// completion and its outcome is dropped into the buffered channel.
	done := make(chan analysisOutcome, 1)
	go func() {
		result, err := s.analyzer.AnalyzeImage(img)
		done <- analysisOutcome{result: result, err: err}
	}()

	var outcome analysisOutcome
	select {
	case outcome = <-done:
	case <-ctx.Done():
		err := apperrors.NewTimeoutError("analysis cancelled", ctx.Err())
		s.publishFailure(ctx, id, source, start, err)
		return nil, err
	}
	if outcome.err != nil {
		err := asAppError(outcome.err)
		s.publishFailure(ctx, id, source, start, err)
		return nil, err
	}

	elapsed := time.Since(start)
	response := &models.AnalysisResponse{
		ID:                id,
		Source:            source,
		Timestamp:         start.UTC().Format(time.RFC3339),
		ProcessingTimeSec: elapsed.Seconds(),
		Image:             meta,
		Result:            outcome.result,
		Detected:          s.evaluator.IsDetected(outcome.result, cfg),
		Threshold:         cfg.Threshold(),
		Anomalies:         s.evaluator.Evaluate(outcome.result, cfg),
	}

	if s.opts.SaveReports && s.analysisRepo != nil {
		if path, err := s.analysisRepo.SaveAnalysis(ctx, response); err != nil {
			logger.Logger.WithError(err).WithField("analysis_id", id).Warn("Failed to save analysis report")
		} else {
			logger.Logger.WithField("path", path).Debug("Analysis report saved")
		}
	}

	s.publish(ctx, observer.AnalysisEvent{
		EventType:      observer.AnalysisCompleted,
		AnalysisID:     id,
		Source:         source,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata: map[string]interface{}{
			observer.MetaProbability: response.Result.DetectionProbability,
			observer.MetaDetected:    response.Detected,
		},
	})
	return response, nil
}

func (s *stegoAnalysisService) checkImageSize(meta models.ImageMetadata) error {
	limit := s.opts.MaxImageSize
	if limit <= 0 {
		return nil
	}
	if meta.Width > limit || meta.Height > limit {
		return apperrors.NewInvalidInputError(
			fmt.Sprintf("image %dx%d exceeds the maximum size of %d pixels", meta.Width, meta.Height, limit), nil)
	}
	return nil
}

// AnalyzeBatch analyzes every source on the worker pool
func (s *stegoAnalysisService) AnalyzeBatch(ctx context.Context, sources []string, cfg detection.DetectionConfig) (*models.BatchSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), err)
	}

	start := time.Now()
	items := make([]models.BatchItem, len(sources))

	pool := analyzer.NewWorkerPool(s.opts.NumWorkers)
	pool.Start()

	var cancelled error
	for i, source := range sources {
		items[i].Source = source
		if err := ctx.Err(); err != nil {
			cancelled = err
			items[i].Error = err.Error()
			continue
		}

		pool.Submit(func() {
			response, err := s.AnalyzeImage(ctx, source, cfg)
			if err != nil {
				items[i].Error = err.Error()
				return
			}
			items[i].Response = response
		})
	}
	pool.Wait()
	pool.Close()

	summary := &models.BatchSummary{
		Total:             len(items),
		ProcessingTimeSec: time.Since(start).Seconds(),
		Items:             items,
	}
	for _, item := range items {
		switch {
		case item.Response == nil:
			summary.Failed++
		case item.Response.Detected:
			summary.Analyzed++
			summary.Detected++
		default:
			summary.Analyzed++
		}
	}

	logger.Logger.WithFields(logrus.Fields{
		"total":    summary.Total,
		"analyzed": summary.Analyzed,
		"failed":   summary.Failed,
		"detected": summary.Detected,
	}).Info("Batch analysis finished")

	if cancelled != nil {
		return summary, apperrors.NewTimeoutError("batch analysis cancelled", cancelled)
	}
	return summary, nil
}

// AnalyzeDirectory analyzes the supported images directly inside dir, in
// name order. Subdirectories are not visited.
func (s *stegoAnalysisService) AnalyzeDirectory(ctx context.Context, dir string, cfg detection.DetectionConfig) (*models.BatchSummary, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("directory not found: "+dir, err)
		}
		return nil, apperrors.NewInvalidInputError("cannot read directory: "+dir, err)
	}

	var sources []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if _, err := s.imageRepo.ValidateSource(path); err != nil {
			continue
		}
		sources = append(sources, path)
	}

	logger.Logger.WithFields(logrus.Fields{
		"directory": dir,
		"images":    len(sources),
	}).Info("Analyzing directory")

	return s.AnalyzeBatch(ctx, sources, cfg)
}

func (s *stegoAnalysisService) publish(ctx context.Context, event observer.AnalysisEvent) {
	if s.events == nil {
		return
	}
	s.events.NotifyObservers(ctx, event)
}

func (s *stegoAnalysisService) publishFailure(ctx context.Context, id, source string, start time.Time, err error) {
	event := observer.AnalysisEvent{
		EventType:      observer.AnalysisFailed,
		AnalysisID:     id,
		Source:         source,
		ProcessingTime: time.Since(start),
		ErrorMessage:   err.Error(),
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		event.Metadata = map[string]interface{}{observer.MetaErrorType: string(appErr.Type)}
	}
	s.publish(ctx, event)
}

// asAppError keeps typed errors and classifies the rest as network failures
func asAppError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.NewNetworkError("failed to fetch image", err)
}
