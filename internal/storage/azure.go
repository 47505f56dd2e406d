package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

const csvContentType = "text/csv; charset=utf-8"

// BlobStore stores objects as block blobs in one Azure container.
type BlobStore struct {
	client    *azblob.Client
	container string
}

// NewBlobClient creates a client from an Azure Storage connection string.
func NewBlobClient(connectionString string) (*azblob.Client, error) {
	client, err := azblob.NewClientFromConnectionString(connectionString, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: azure client: %w", err)
	}
	return client, nil
}

// NewBlobStore returns a store over container.
func NewBlobStore(client *azblob.Client, container string) *BlobStore {
	return &BlobStore{client: client, container: container}
}

// EnsureContainer creates the container when it does not exist yet.
func (s *BlobStore) EnsureContainer(ctx context.Context) error {
	_, err := s.client.CreateContainer(ctx, s.container, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerAlreadyExists) {
		return fmt.Errorf("storage: create container %s: %w", s.container, err)
	}
	return nil
}

func (s *BlobStore) List(ctx context.Context) ([]string, error) {
	var names []string

	pager := s.client.NewListBlobsFlatPager(s.container, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("storage: list %s: %w", s.container, err)
		}
		for _, item := range page.Segment.BlobItems {
			if item.Name != nil {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (s *BlobStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if bloberror.HasCode(err, bloberror.BlobNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, s.container, name)
	}
	if err != nil {
		return nil, fmt.Errorf("storage: download %s/%s: %w", s.container, name, err)
	}
	return resp.Body, nil
}

// Put uploads data as a block blob. An existing blob is overwritten.
func (s *BlobStore) Put(ctx context.Context, name string, data []byte) error {
	contentType := csvContentType
	_, err := s.client.UploadBuffer(ctx, s.container, name, data, &azblob.UploadBufferOptions{
		HTTPHeaders: &blob.HTTPHeaders{BlobContentType: &contentType},
	})
	if err != nil {
		return fmt.Errorf("storage: upload %s/%s: %w", s.container, name, err)
	}
	return nil
}

func (s *BlobStore) Location() string {
	return "azure:" + s.container
}
