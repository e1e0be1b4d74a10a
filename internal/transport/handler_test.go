package transport

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/stego-inspector-go/internal/analyzer"
	"github.com/anime-shed/stego-inspector-go/internal/config"
	"github.com/anime-shed/stego-inspector-go/internal/observer"
	"github.com/anime-shed/stego-inspector-go/internal/repository"
	"github.com/anime-shed/stego-inspector-go/internal/service"
	"github.com/anime-shed/stego-inspector-go/internal/storage"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
	"github.com/anime-shed/stego-inspector-go/pkg/services"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	handler http.Handler
	store   *repository.FileAnalysisRepository
	dir     string
}

func newTestServer(t *testing.T, cfg *config.Config) testServer {
	t.Helper()
	imageRepo := repository.NewSourceImageRepository(
		validation.NewSourceValidator(nil),
		map[validation.SourceKind]storage.ImageFetcher{
			validation.SourceLocal: storage.NewLocalImageFetcher(),
		},
	)
	store := repository.NewFileAnalysisRepository(filepath.Join(t.TempDir(), "out"))
	stego, err := analyzer.NewStegoAnalyzer(analyzer.DefaultOptions())
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	metrics, err := observer.NewMetricsObserver(registry)
	require.NoError(t, err)
	stats := observer.NewStatsObserver()
	events := observer.NewEventPublisher()
	events.Subscribe(metrics)
	events.Subscribe(stats)

	svc := service.NewStegoAnalysisService(imageRepo, store, stego, events, service.Options{
		NumWorkers:  2,
		SaveReports: cfg.Output.SaveReports,
	})

	h := NewHandler(Dependencies{
		Service:  svc,
		Reports:  services.NewDetailedReportService(),
		Store:    store,
		Gatherer: registry,
		Stats:    stats,
	}, cfg)
	return testServer{handler: h, store: store, dir: t.TempDir()}
}

func squarePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := color.RGBA{A: 255}
			if x >= 25 && x < 75 && y >= 25 && y < 75 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func (s testServer) writeImage(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(s.dir, name)
	require.NoError(t, os.WriteFile(path, squarePNG(t), 0o600))
	return path
}

func (s testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func postJSON(path string, body interface{}) *http.Request {
	data, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, config.Default())

	w := s.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "available", body["status"])
	assert.Equal(t, version, body["version"])
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, config.Default())
	path := s.writeImage(t, "square.png")

	w := s.do(postJSON("/analyze", map[string]interface{}{"source": path}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, path, resp.Source)
	assert.Equal(t, 1.0, resp.Result.DetectionProbability)
	assert.True(t, resp.Detected)
	assert.Equal(t, 100, resp.Image.Width)

	metrics := s.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `stego_analyses_total{status="completed"} 1`)

	stats := s.do(httptest.NewRequest(http.MethodGet, "/stats", nil))
	assert.Equal(t, http.StatusOK, stats.Code)
	assert.Contains(t, stats.Body.String(), `"successful_analyses":1`)
}

func TestAnalyze_ThresholdOverride(t *testing.T) {
	s := newTestServer(t, config.Default())
	path := s.writeImage(t, "square.png")

	w := s.do(postJSON("/analyze", map[string]interface{}{
		"source":     path,
		"thresholds": map[string]float64{"lsb_anomaly": 0.2},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	var lsb *models.AnomalyCheck
	for i := range resp.Anomalies {
		if resp.Anomalies[i].Key == "lsb_anomaly" {
			lsb = &resp.Anomalies[i]
		}
	}
	require.NotNil(t, lsb)
	assert.Equal(t, 0.2, lsb.Threshold)
	assert.True(t, lsb.Anomalous)
}

func TestAnalyze_Errors(t *testing.T) {
	s := newTestServer(t, config.Default())
	path := s.writeImage(t, "square.png")
	bad := 1.5

	tests := []struct {
		name string
		body interface{}
		want int
	}{
		{"missing source", map[string]interface{}{}, http.StatusBadRequest},
		{"missing file", map[string]interface{}{"source": filepath.Join(s.dir, "absent.png")}, http.StatusNotFound},
		{"bad scheme", map[string]interface{}{"source": "ftp://example.com/a.png"}, http.StatusBadRequest},
		{"threshold out of range", map[string]interface{}{"source": path, "threshold": bad}, http.StatusBadRequest},
		{"unknown key", map[string]interface{}{"source": path, "thresholds": map[string]float64{"lsb": 0.5}}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(postJSON("/analyze", tt.body))
			assert.Equal(t, tt.want, w.Code, w.Body.String())

			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestAnalyzeUpload(t *testing.T) {
	s := newTestServer(t, config.Default())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "square.png")
	require.NoError(t, err)
	_, err = part.Write(squarePNG(t))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("threshold", "0.99"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := s.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "square.png", resp.Source)
	assert.Equal(t, "png", resp.Image.Format)
	assert.Equal(t, 0.99, resp.Threshold)
	assert.True(t, resp.Detected)
}

func TestAnalyzeUpload_Errors(t *testing.T) {
	s := newTestServer(t, config.Default())

	w := s.do(httptest.NewRequest(http.MethodPost, "/analyze/upload", strings.NewReader("")))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "junk.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("junk"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w = s.do(req)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
}

func TestAnalyzeDetailed(t *testing.T) {
	s := newTestServer(t, config.Default())
	path := s.writeImage(t, "square.png")

	w := s.do(postJSON("/analyze/detailed", map[string]interface{}{"source": path, "save_report": true}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var report models.DetailedReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, path, report.Source)
	assert.True(t, report.Clamped)
	assert.Len(t, report.Contributions, 8)
	assert.NotEmpty(t, report.DominantFeature)
	assert.NotEmpty(t, report.Recommendations)

	matches, err := filepath.Glob(filepath.Join(s.store.Dir(), "*.report.json"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestAnalyzeBatch(t *testing.T) {
	cfg := config.Default()
	cfg.Analysis.BatchSize = 2
	s := newTestServer(t, cfg)
	path := s.writeImage(t, "square.png")

	w := s.do(postJSON("/analyze/batch", map[string]interface{}{
		"sources": []string{path, filepath.Join(s.dir, "absent.png")},
	}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary models.BatchSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.Total)
	assert.Equal(t, 1, summary.Analyzed)
	assert.Equal(t, 1, summary.Failed)

	w = s.do(postJSON("/analyze/batch", map[string]interface{}{
		"sources": []string{path, path, path},
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(postJSON("/analyze/batch", map[string]interface{}{"sources": []string{}}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStoredAnalyses(t *testing.T) {
	cfg := config.Default()
	cfg.Output.SaveReports = true
	s := newTestServer(t, cfg)
	path := s.writeImage(t, "square.png")

	w := s.do(postJSON("/analyze", map[string]interface{}{"source": path}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = s.do(httptest.NewRequest(http.MethodGet, "/analyses", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Analyses []string `json:"analyses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, []string{resp.ID}, list.Analyses)

	w = s.do(httptest.NewRequest(http.MethodGet, "/analyses/"+resp.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	var stored models.AnalysisResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stored))
	assert.Equal(t, resp.Result.DetectionProbability, stored.Result.DetectionProbability)

	w = s.do(httptest.NewRequest(http.MethodGet, "/analyses/unknown", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Server.MaxRequestBodySize = 16
	s := newTestServer(t, cfg)

	w := s.do(postJSON("/analyze", map[string]interface{}{"source": strings.Repeat("a", 64) + ".png"}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
