package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"

	apperrors "github.com/anime-shed/stego-inspector-go/internal/errors"
)

const azureMaxRetries = 3

func clientOptions() *azblob.ClientOptions {
	return &azblob.ClientOptions{
		ClientOptions: policy.ClientOptions{
			Retry: policy.RetryOptions{MaxRetries: azureMaxRetries},
		},
	}
}

// AzureBlobFetcher downloads images from Azure Blob Storage. With no
// client configured it reads public containers of any account.
type AzureBlobFetcher struct {
	client *azblob.Client
	host   string
}

// NewAzureBlobFetcher authenticates with an account shared key
func NewAzureBlobFetcher(accountName, accountKey string) (*AzureBlobFetcher, error) {
	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid azure storage credentials", err)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(
		fmt.Sprintf("https://%s.blob.core.windows.net", accountName),
		credential,
		clientOptions(),
	)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create azure blob client", err)
	}

	return &AzureBlobFetcher{client: client, host: accountName + ".blob.core.windows.net"}, nil
}

// NewPublicAzureBlobFetcher reads public containers of whichever account a
// blob URL names
func NewPublicAzureBlobFetcher() *AzureBlobFetcher {
	return &AzureBlobFetcher{}
}

// NewAnonymousAzureBlobFetcher reads public containers under serviceURL
func NewAnonymousAzureBlobFetcher(serviceURL string) (*AzureBlobFetcher, error) {
	client, err := azblob.NewClientWithNoCredential(serviceURL, clientOptions())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create azure blob client", err)
	}
	parsed, err := url.Parse(serviceURL)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid blob service URL", err)
	}
	return &AzureBlobFetcher{client: client, host: parsed.Host}, nil
}

// FetchImage downloads and decodes the blob named by blobURL
func (s *AzureBlobFetcher) FetchImage(ctx context.Context, blobURL string) (*FetchedImage, error) {
	containerName, blobName, err := ParseBlobURL(blobURL)
	if err != nil {
		return nil, err
	}

	client, err := s.clientFor(blobURL)
	if err != nil {
		return nil, err
	}

	downloadResponse, err := client.DownloadStream(ctx, containerName, blobName, nil)
	if err != nil {
		return nil, downloadError(err)
	}

	body := downloadResponse.Body
	defer body.Close()

	contentType := ""
	if downloadResponse.ContentType != nil {
		contentType = *downloadResponse.ContentType
	}
	return DecodeImage(body, contentType)
}

func downloadError(err error) error {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
		return apperrors.NewNotFoundError("blob not found", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("blob download cancelled", err)
	}
	return apperrors.NewNetworkError("blob download failed", err)
}

func (s *AzureBlobFetcher) clientFor(blobURL string) (*azblob.Client, error) {
	parsed, err := url.Parse(blobURL)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid blob URL", err)
	}

	if s.client != nil {
		if !strings.EqualFold(parsed.Host, s.host) {
			return nil, apperrors.NewValidationError("blob URL is not in the configured storage account", nil)
		}
		return s.client, nil
	}

	client, err := azblob.NewClientWithNoCredential(parsed.Scheme+"://"+parsed.Host, clientOptions())
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create azure blob client", err)
	}
	return client, nil
}

// ParseBlobURL splits a blob URL into container and blob name. Both the
// path form (/container/dir/name.png) and the query form
// (/container?blob=name.png) are accepted.
func ParseBlobURL(blobURL string) (string, string, error) {
	parsedURL, err := url.Parse(blobURL)
	if err != nil {
		return "", "", apperrors.NewValidationError("invalid blob URL", err)
	}

	path := strings.Trim(parsedURL.Path, "/")
	if path == "" {
		return "", "", apperrors.NewValidationError("blob URL has no container", nil)
	}

	if blob := parsedURL.Query().Get("blob"); blob != "" {
		return path, blob, nil
	}

	containerName, blobName, ok := strings.Cut(path, "/")
	if !ok || blobName == "" {
		return "", "", apperrors.NewValidationError("blob URL has no blob name", nil)
	}
	return containerName, blobName, nil
}
