package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

const (
	analysisSuffix = ".analysis.json"
	reportSuffix   = ".report.json"
)

// FileAnalysisRepository stores analyses and reports as JSON files in one
// directory
type FileAnalysisRepository struct {
	dir string
}

// NewFileAnalysisRepository creates a store rooted at dir. The directory is
// created on first write.
func NewFileAnalysisRepository(dir string) *FileAnalysisRepository {
	return &FileAnalysisRepository{dir: dir}
}

// Dir returns the output directory
func (r *FileAnalysisRepository) Dir() string {
	return r.dir
}

// SaveAnalysis writes response to <dir>/<id>.analysis.json
func (r *FileAnalysisRepository) SaveAnalysis(ctx context.Context, response *models.AnalysisResponse) (string, error) {
	if response == nil {
		return "", apperrors.NewInvalidInputError("analysis response is nil", nil)
	}
	return r.write(ctx, response.ID, analysisSuffix, response)
}

// SaveReport writes report to <dir>/<id>.report.json
func (r *FileAnalysisRepository) SaveReport(ctx context.Context, id string, report *models.DetailedReport) (string, error) {
	if report == nil {
		return "", apperrors.NewInvalidInputError("report is nil", nil)
	}
	return r.write(ctx, id, reportSuffix, report)
}

// GetAnalysis reads a stored analysis response
func (r *FileAnalysisRepository) GetAnalysis(ctx context.Context, id string) (*models.AnalysisResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateID(id); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(r.dir, id+analysisSuffix))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("analysis "+id+" not found", ErrAnalysisNotFound)
		}
		return nil, apperrors.NewInternalError("failed to read analysis", err)
	}

	var response models.AnalysisResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return nil, apperrors.NewInternalError("stored analysis is corrupt", err)
	}
	return &response, nil
}

// ListAnalyses returns the IDs of stored analyses, sorted
func (r *FileAnalysisRepository) ListAnalyses(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, apperrors.NewInternalError("failed to list analyses", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), analysisSuffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), analysisSuffix))
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *FileAnalysisRepository) write(ctx context.Context, id, suffix string, v interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateID(id); err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", apperrors.NewInternalError("failed to encode report", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", apperrors.NewInternalError("failed to create output directory", err)
	}

	path := filepath.Join(r.dir, id+suffix)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", apperrors.NewInternalError("failed to write report", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", apperrors.NewInternalError("failed to write report", err)
	}
	return path, nil
}

func validateID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return apperrors.NewValidationError(fmt.Sprintf("invalid analysis id %q", id), ErrInvalidAnalysisID)
	}
	return nil
}
