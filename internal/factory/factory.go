package factory

import (
	"fmt"
	"time"

	"github.com/anime-shed/stego-inspector-go/internal/analyzer"
	"github.com/anime-shed/stego-inspector-go/internal/config"
	"github.com/anime-shed/stego-inspector-go/internal/storage"
	"github.com/anime-shed/stego-inspector-go/internal/strategy"
	"github.com/anime-shed/stego-inspector-go/pkg/validation"
)

// AnalyzerType selects how an analyzer schedules its extractors
type AnalyzerType string

const (
	// SequentialAnalyzer runs extractors one after another
	SequentialAnalyzer AnalyzerType = strategy.SequentialName
	// ConcurrentAnalyzer runs extractors on goroutines
	ConcurrentAnalyzer AnalyzerType = strategy.ConcurrentName
)

// StorageType represents different types of storage backends
type StorageType string

const (
	// HTTPStorage for HTTP-based image fetching
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// AnalyzerFactory creates steganalysis analyzers
type AnalyzerFactory interface {
	CreateAnalyzer(analyzerType AnalyzerType) (analyzer.StegoAnalyzer, error)
}

// StorageFactory creates storage implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.ImageFetcher, error)
}

// analyzerFactory implements AnalyzerFactory
type analyzerFactory struct {
	maxWorkers int
}

// NewAnalyzerFactory creates a new analyzer factory. maxWorkers bounds the
// concurrent analyzer; <= 0 runs every extractor at once.
func NewAnalyzerFactory(maxWorkers int) AnalyzerFactory {
	return &analyzerFactory{maxWorkers: maxWorkers}
}

// CreateAnalyzer creates an analyzer based on the specified type
func (f *analyzerFactory) CreateAnalyzer(analyzerType AnalyzerType) (analyzer.StegoAnalyzer, error) {
	switch analyzerType {
	case SequentialAnalyzer:
		return analyzer.NewStegoAnalyzer(analyzer.DefaultOptions())
	case ConcurrentAnalyzer:
		return analyzer.NewStegoAnalyzer(analyzer.ConcurrentOptions(f.maxWorkers))
	default:
		return nil, fmt.Errorf("unsupported analyzer type: %s", analyzerType)
	}
}

// storageFactory implements StorageFactory
type storageFactory struct {
	fetchTimeout time.Duration
	storage      config.StorageConfig
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(fetchTimeout time.Duration, storageCfg config.StorageConfig) StorageFactory {
	return &storageFactory{fetchTimeout: fetchTimeout, storage: storageCfg}
}

// CreateStorage creates a storage implementation based on the specified type
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.ImageFetcher, error) {
	switch storageType {
	case HTTPStorage:
		if f.fetchTimeout > 0 {
			return storage.NewHTTPImageFetcherWithTimeout(f.fetchTimeout), nil
		}
		return storage.NewHTTPImageFetcher(), nil
	case AzureStorage:
		if f.storage.AzureAccountName != "" && f.storage.AzureAccountKey != "" {
			return storage.NewAzureBlobFetcher(f.storage.AzureAccountName, f.storage.AzureAccountKey)
		}
		return storage.NewPublicAzureBlobFetcher(), nil
	case LocalStorage:
		return storage.NewLocalImageFetcher(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	AnalyzerFactory AnalyzerFactory
	StorageFactory  StorageFactory
}

// NewComponentFactory creates a new component factory from cfg
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	return &ComponentFactory{
		AnalyzerFactory: NewAnalyzerFactory(cfg.Analysis.MaxExtractorWorkers),
		StorageFactory:  NewStorageFactory(cfg.Server.ImageFetchTimeout, cfg.Storage),
	}
}

// AnalyzerTypeFor picks the analyzer type the configuration asks for
func AnalyzerTypeFor(cfg config.AnalysisConfig) AnalyzerType {
	if cfg.ParallelExtractors {
		return ConcurrentAnalyzer
	}
	return SequentialAnalyzer
}

// CreateFetchers builds one fetcher per source kind
func (f *ComponentFactory) CreateFetchers() (map[validation.SourceKind]storage.ImageFetcher, error) {
	kinds := []struct {
		kind        validation.SourceKind
		storageType StorageType
	}{
		{validation.SourceLocal, LocalStorage},
		{validation.SourceHTTP, HTTPStorage},
		{validation.SourceAzureBlob, AzureStorage},
	}

	fetchers := make(map[validation.SourceKind]storage.ImageFetcher, len(kinds))
	for _, k := range kinds {
		fetcher, err := f.StorageFactory.CreateStorage(k.storageType)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s storage: %w", k.storageType, err)
		}
		fetchers[k.kind] = fetcher
	}
	return fetchers, nil
}
