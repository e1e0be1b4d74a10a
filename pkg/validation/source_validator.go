package validation

import (
	"net/url"
	"path/filepath"
	"strings"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
)

// SourceKind says where an image source lives
type SourceKind string

const (
	SourceLocal     SourceKind = "local"
	SourceHTTP      SourceKind = "http"
	SourceAzureBlob SourceKind = "azure_blob"
)

const azureBlobHostSuffix = ".blob.core.windows.net"

// DefaultSupportedFormats are the file extensions accepted for local sources
var DefaultSupportedFormats = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff", ".gif", ".webp"}

// SourceValidator classifies and validates image sources: local paths,
// http(s) URLs and Azure blob URLs
type SourceValidator struct {
	allowedSchemes   []string
	allowedHosts     []string
	supportedFormats []string
}

// NewSourceValidator creates a validator accepting any http(s) host and the
// given local file extensions; nil formats selects the defaults
func NewSourceValidator(formats []string) *SourceValidator {
	return NewSourceValidatorWithOptions([]string{"http", "https"}, nil, formats)
}

// NewSourceValidatorWithOptions creates a validator with custom URL rules.
// An empty hosts list allows every host.
func NewSourceValidatorWithOptions(schemes, hosts, formats []string) *SourceValidator {
	if formats == nil {
		formats = DefaultSupportedFormats
	}
	return &SourceValidator{
		allowedSchemes:   schemes,
		allowedHosts:     hosts,
		supportedFormats: formats,
	}
}

// Classify validates source and reports its kind
func (v *SourceValidator) Classify(source string) (SourceKind, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return "", apperrors.NewValidationError("source cannot be empty", nil)
	}

	if looksLikeURL(source) {
		parsed, err := v.validateURL(source)
		if err != nil {
			return "", err
		}
		if strings.HasSuffix(strings.ToLower(parsed.Hostname()), azureBlobHostSuffix) {
			return SourceAzureBlob, nil
		}
		return SourceHTTP, nil
	}

	if err := v.ValidateLocalPath(source); err != nil {
		return "", err
	}
	return SourceLocal, nil
}

// ValidateImageURL validates an http(s) image URL
func (v *SourceValidator) ValidateImageURL(imageURL string) error {
	_, err := v.validateURL(imageURL)
	return err
}

// ValidateLocalPath checks that a local path names a supported image format
func (v *SourceValidator) ValidateLocalPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return apperrors.NewValidationError("path cannot be empty", nil)
	}
	if !v.IsSupportedFormat(path) {
		return apperrors.NewValidationError("unsupported image format: "+filepath.Ext(path), nil)
	}
	return nil
}

// IsSupportedFormat reports whether name has a supported extension
func (v *SourceValidator) IsSupportedFormat(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, f := range v.supportedFormats {
		if strings.ToLower(f) == ext {
			return true
		}
	}
	return false
}

func (v *SourceValidator) validateURL(imageURL string) (*url.URL, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, apperrors.NewValidationError("URL cannot be empty", nil)
	}

	parsedURL, err := url.Parse(imageURL)
	if err != nil {
		return nil, apperrors.NewValidationError("Invalid URL format", err)
	}

	if !v.isSchemeAllowed(parsedURL.Scheme) {
		return nil, apperrors.NewValidationError("URL scheme not allowed", nil)
	}

	if parsedURL.Host == "" {
		return nil, apperrors.NewValidationError("URL must have a valid host", nil)
	}

	if !v.isHostAllowed(parsedURL.Host) {
		return nil, apperrors.NewValidationError("URL host not allowed", nil)
	}

	return parsedURL, nil
}

func (v *SourceValidator) isSchemeAllowed(scheme string) bool {
	for _, allowed := range v.allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isHostAllowed returns true if no host restrictions are set
func (v *SourceValidator) isHostAllowed(host string) bool {
	if len(v.allowedHosts) == 0 {
		return true
	}
	for _, allowed := range v.allowedHosts {
		if host == allowed {
			return true
		}
	}
	return false
}

// looksLikeURL treats anything with a scheme separator as a URL so that a
// bad scheme is reported instead of a missing file
func looksLikeURL(source string) bool {
	i := strings.Index(source, "://")
	return i > 0 && !strings.ContainsAny(source[:i], `/\`)
}
