package container

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/anime-shed/stego-inspector-go/internal/analyzer"
	"github.com/anime-shed/stego-inspector-go/internal/config"
	"github.com/anime-shed/stego-inspector-go/internal/factory"
	"github.com/anime-shed/stego-inspector-go/internal/logger"
	"github.com/anime-shed/stego-inspector-go/internal/observer"
	"github.com/anime-shed/stego-inspector-go/internal/repository"
	"github.com/anime-shed/stego-inspector-go/internal/service"
	"github.com/anime-shed/stego-inspector-go/internal/transport"
	"github.com/anime-shed/stego-inspector-go/pkg/services"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config             *config.Config
	stegoAnalyzer      analyzer.StegoAnalyzer
	imageRepository    repository.ImageRepository
	analysisRepository repository.AnalysisRepository
	analysisService    service.StegoAnalysisService
	reportService      *services.DetailedReportService
	events             *observer.EventPublisher
	stats              *observer.StatsObserver
	registry           *prometheus.Registry
	handler            http.Handler
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config) (*Container, error) {
	components := factory.NewComponentFactory(cfg)

	stegoAnalyzer, err := components.AnalyzerFactory.CreateAnalyzer(factory.AnalyzerTypeFor(cfg.Analysis))
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}

	fetchers, err := components.CreateFetchers()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observer.NewMetricsObserver(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	stats := observer.NewStatsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))
	events.Subscribe(metrics)
	events.Subscribe(stats)

	imageRepository := repository.NewSourceImageRepository(
		validation.NewSourceValidator(cfg.Analysis.SupportedFormats),
		fetchers,
	)
	analysisRepository := repository.NewFileAnalysisRepository(cfg.Output.Dir)

	analysisService := service.NewStegoAnalysisService(
		imageRepository,
		analysisRepository,
		stegoAnalyzer,
		events,
		service.Options{
			NumWorkers:      cfg.Analysis.NumWorkers,
			MaxImageSize:    cfg.Analysis.MaxImageSize,
			SaveReports:     cfg.Output.SaveReports,
			AnalysisTimeout: cfg.Server.AnalysisTimeout,
		},
	)
	reportService := services.NewDetailedReportService()

	handler := transport.NewHandler(transport.Dependencies{
		Service:  analysisService,
		Reports:  reportService,
		Store:    analysisRepository,
		Gatherer: registry,
		Stats:    stats,
	}, cfg)

	return &Container{
		config:             cfg,
		stegoAnalyzer:      stegoAnalyzer,
		imageRepository:    imageRepository,
		analysisRepository: analysisRepository,
		analysisService:    analysisService,
		reportService:      reportService,
		events:             events,
		stats:              stats,
		registry:           registry,
		handler:            handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// AnalysisService returns the analysis service
func (c *Container) AnalysisService() service.StegoAnalysisService {
	return c.analysisService
}

// ReportService returns the detailed report service
func (c *Container) ReportService() *services.DetailedReportService {
	return c.reportService
}

// AnalysisRepository returns the report store
func (c *Container) AnalysisRepository() repository.AnalysisRepository {
	return c.analysisRepository
}

// Stats returns the in-process event counters
func (c *Container) Stats() *observer.StatsObserver {
	return c.stats
}
