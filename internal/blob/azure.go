package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"docvault/internal/config"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/sas"
)

// AzureStore keeps blobs in an Azure Blob Storage container.
type AzureStore struct {
	client    *azblob.Client
	container string
}

func NewAzureStore(cfg config.BlobConfig) (*AzureStore, error) {
	client, err := azblob.NewClientFromConnectionString(cfg.AzureConnectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("create Azure blob client: %w", err)
	}
	return &AzureStore{client: client, container: cfg.AzureContainer}, nil
}

func (s *AzureStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	_, err := s.client.UploadStream(ctx, s.container, key, r, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("upload blob %q: %w", key, err)
	}
	return nil
}

func (s *AzureStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, key, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("download blob %q: %w", key, err)
	}
	return resp.Body, nil
}

func (s *AzureStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, key, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("delete blob %q: %w", key, err)
	}
	return nil
}

// SignedURL issues a read-only SAS URL. Only shared-key connection strings can
// sign; other credentials fall back to streaming.
func (s *AzureStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(key)
	sasURL, err := blobClient.GetSASURL(sas.BlobPermissions{Read: true}, time.Now().Add(ttl), nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignedURLUnsupported, err)
	}
	return sasURL, nil
}
