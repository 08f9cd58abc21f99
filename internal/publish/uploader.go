package publish

//go:generate go tool mockgen -source=uploader.go -destination=mock_uploader_test.go -package=publish

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
)

// Uploader stores one blob.
type Uploader interface {
	Upload(ctx context.Context, blobName string, data []byte, contentType string) error
}

// blobUploader is an Uploader over [*azblob.Client] for one container.
type blobUploader struct {
	client    *azblob.Client
	container string
}

// NewBlobUploader creates an Uploader for container in the storage account
// at accountURL. A nil cred uses [azidentity.NewDefaultAzureCredential].
func NewBlobUploader(accountURL, container string, cred azcore.TokenCredential) (Uploader, error) {
	if accountURL == "" {
		return nil, fmt.Errorf("storage account URL is required")
	}
	if container == "" {
		return nil, fmt.Errorf("container name is required")
	}
	if cred == nil {
		dc, err := azidentity.NewDefaultAzureCredential(nil)
		if err != nil {
			return nil, fmt.Errorf("creating Azure credential: %w", err)
		}
		cred = dc
	}
	client, err := azblob.NewClient(accountURL, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("creating blob client: %w", err)
	}
	return &blobUploader{client: client, container: container}, nil
}

func (u *blobUploader) Upload(ctx context.Context, blobName string, data []byte, contentType string) error {
	_, err := u.client.UploadBuffer(ctx, u.container, blobName, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: to.Ptr(contentType)},
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", blobName, err)
	}
	return nil
}
