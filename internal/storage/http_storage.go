package storage

import (
	"context"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultRetryDelay  = 1 * time.Second
	maxFetchAttempts   = 3
)

// HTTPImageFetcher fetches images over http(s), retrying transient failures
type HTTPImageFetcher struct {
	client     *http.Client
	retryDelay time.Duration
}

// NewHTTPImageFetcher creates an HTTP image fetcher with default timeouts
func NewHTTPImageFetcher() *HTTPImageFetcher {
	return NewHTTPImageFetcherWithTimeout(defaultHTTPTimeout)
}

// NewHTTPImageFetcherWithTimeout creates an HTTP image fetcher whose whole
// request, body included, must finish within timeout
func NewHTTPImageFetcherWithTimeout(timeout time.Duration) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	// Connection pooling tuned for single image downloads
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		MaxResponseHeaderBytes: 4096,
	}

	return &HTTPImageFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		retryDelay: defaultRetryDelay,
	}
}

// WithRetryDelay sets the base backoff between attempts; attempt n waits n
// times this delay
func (h *HTTPImageFetcher) WithRetryDelay(d time.Duration) *HTTPImageFetcher {
	h.retryDelay = d
	return h
}

// FetchImage downloads and decodes the image at imageURL. 4xx responses fail
// immediately; network errors and 5xx responses are retried.
func (h *HTTPImageFetcher) FetchImage(ctx context.Context, imageURL string) (*FetchedImage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid URL", err)
	}

	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "Stego-Inspector/1.0")

	var (
		resp    *http.Response
		lastErr error
	)

	for attempt := 0; attempt < maxFetchAttempts; attempt++ {
		resp, err = h.client.Do(req)
		if err != nil {
			lastErr = apperrors.NewNetworkError("request failed", err)
			if ctx.Err() != nil {
				return nil, apperrors.NewTimeoutError("image fetch cancelled", ctx.Err())
			}
		} else if resp.StatusCode == http.StatusOK {
			break
		} else {
			status := resp.StatusCode
			resp.Body.Close()
			resp = nil

			if status >= 400 && status < 500 {
				msg := fmt.Sprintf("client error: status code %d", status)
				if status == http.StatusNotFound {
					return nil, apperrors.NewNotFoundError(msg, nil)
				}
				return nil, apperrors.NewNetworkError(msg, nil)
			}
			lastErr = apperrors.NewNetworkError(fmt.Sprintf("server error: status code %d", status), nil)
		}

		if attempt < maxFetchAttempts-1 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("image fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt+1) * h.retryDelay):
			}
		}
	}

	if resp == nil {
		return nil, fmt.Errorf("failed to fetch image after %d attempts: %w", maxFetchAttempts, lastErr)
	}
	defer resp.Body.Close()

	fetched, err := DecodeImage(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}
	if resp.ContentLength > 0 {
		fetched.ContentLength = resp.ContentLength
	}
	return fetched, nil
}
