package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/anime-shed/stego-inspector-go/internal/config"
	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/internal/logger"
	"github.com/anime-shed/stego-inspector-go/internal/observer"
	"github.com/anime-shed/stego-inspector-go/internal/repository"
	"github.com/anime-shed/stego-inspector-go/internal/service"
	"github.com/anime-shed/stego-inspector-go/internal/storage"
	detection "github.com/anime-shed/stego-inspector-go/pkg/config"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/services"
)

const version = "1.0.0"

// Dependencies are the collaborators the HTTP handlers use. Store, Gatherer
// and Stats are optional.
type Dependencies struct {
	Service  service.StegoAnalysisService
	Reports  *services.DetailedReportService
	Store    repository.AnalysisRepository
	Gatherer prometheus.Gatherer
	Stats    *observer.StatsObserver
}

type handler struct {
	deps Dependencies
	cfg  *config.Config
}

// NewHandler builds the gin engine with every route registered
func NewHandler(deps Dependencies, cfg *config.Config) http.Handler {
	h := &handler{deps: deps, cfg: cfg}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		requestLogger(),
		requestSizeLimiter(cfg.Server.MaxRequestBodySize),
		errorHandler(),
	)

	r.GET("/health", healthCheck)
	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}
	if deps.Stats != nil {
		r.GET("/stats", h.stats)
	}

	r.POST("/analyze", h.analyze)
	r.POST("/analyze/upload", h.analyzeUpload)
	r.POST("/analyze/detailed", h.analyzeDetailed)
	r.POST("/analyze/batch", h.analyzeBatch)

	if deps.Store != nil {
		r.GET("/analyses", h.listAnalyses)
		r.GET("/analyses/:id", h.getAnalysis)
	}

	return r
}

func (h *handler) requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	if h.cfg.Server.RequestTimeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), h.cfg.Server.RequestTimeout)
}

// detectionConfig layers request overrides on the configured thresholds
func (h *handler) detectionConfig(threshold *float64, thresholds map[string]float64) detection.DetectionConfig {
	cfg := h.cfg.DetectionConfig()
	if threshold != nil {
		cfg = cfg.WithThreshold(*threshold)
	}
	if len(thresholds) > 0 {
		cfg = cfg.WithThresholds(thresholds)
	}
	return cfg
}

func (h *handler) analyze(c *gin.Context) {
	var req models.AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	response, err := h.deps.Service.AnalyzeImage(ctx, req.Source, h.detectionConfig(req.Threshold, req.Thresholds))
	if err != nil {
		respondError(c, determineStatusCode(err), "analysis failed", err)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *handler) analyzeUpload(c *gin.Context) {
	header, err := c.FormFile("image")
	if err != nil {
		code := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			code = http.StatusRequestEntityTooLarge
		}
		respondError(c, code, "missing image file",
			apperrors.NewInvalidInputError("multipart field \"image\" is required", err))
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "cannot read upload", err)
		return
	}
	defer file.Close()

	fetched, err := storage.DecodeImage(file, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(c, determineStatusCode(err), "cannot decode upload", err)
		return
	}

	var threshold *float64
	if raw := c.PostForm("threshold"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid threshold",
				apperrors.NewValidationError("threshold must be a number", err))
			return
		}
		threshold = &v
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	response, err := h.deps.Service.AnalyzeDecoded(ctx, header.Filename, fetched.Image, h.detectionConfig(threshold, nil))
	if err != nil {
		respondError(c, determineStatusCode(err), "analysis failed", err)
		return
	}
	response.Image.Format = fetched.Format
	response.Image.ContentType = fetched.ContentType
	response.Image.ContentLength = header.Size

	c.JSON(http.StatusOK, response)
}

func (h *handler) analyzeDetailed(c *gin.Context) {
	var req models.DetailedAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	cfg := h.detectionConfig(req.Threshold, req.Thresholds)
	response, err := h.deps.Service.AnalyzeImage(ctx, req.Source, cfg)
	if err != nil {
		respondError(c, determineStatusCode(err), "analysis failed", err)
		return
	}

	report := h.deps.Reports.BuildFromResponse(response, cfg)
	if req.SaveReport && h.deps.Store != nil {
		if _, err := h.deps.Store.SaveReport(ctx, response.ID, report); err != nil {
			logger.WithError(err).WithField("analysis_id", response.ID).Warn("Failed to save detailed report")
		}
	}

	c.JSON(http.StatusOK, report)
}

func (h *handler) analyzeBatch(c *gin.Context) {
	var req models.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request format", err)
		return
	}
	if limit := h.cfg.Analysis.BatchSize; limit > 0 && len(req.Sources) > limit {
		respondError(c, http.StatusBadRequest, "batch too large",
			apperrors.NewValidationError(fmt.Sprintf("at most %d sources per batch", limit), nil))
		return
	}

	ctx, cancel := h.requestContext(c)
	defer cancel()

	summary, err := h.deps.Service.AnalyzeBatch(ctx, req.Sources, h.detectionConfig(req.Threshold, req.Thresholds))
	if err != nil && summary == nil {
		respondError(c, determineStatusCode(err), "batch analysis failed", err)
		return
	}
	if err != nil {
		logger.WithError(err).Warn("Batch analysis incomplete")
	}

	c.JSON(http.StatusOK, summary)
}

func (h *handler) listAnalyses(c *gin.Context) {
	ids, err := h.deps.Store.ListAnalyses(c.Request.Context())
	if err != nil {
		respondError(c, determineStatusCode(err), "cannot list analyses", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"analyses": ids})
}

func (h *handler) getAnalysis(c *gin.Context) {
	response, err := h.deps.Store.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, determineStatusCode(err), "cannot load analysis", err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *handler) stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Stats.GetStats())
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Middleware and helper functions
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"ip":          c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}).Info("Request handled")
	}
}

func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
