// Package azstore implements the remote.Store contract on Azure Blob
// Storage for productions homed on Azure instead of S3.
package azstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"

	"github.com/reelpipe/uplink/internal/remote"
)

// Config holds the settings for an Azure-backed store. AccountURL carries
// the SAS token; authentication internals stay outside the pipeline.
type Config struct {
	AccountURL string // https://{account}.blob.core.windows.net/?{sas}
	Container  string
}

// Store uploads blobs into a single container. Folders are virtual name
// prefixes, pinned with a zero-byte marker blob like the S3 provider.
type Store struct {
	client    *azblob.Client
	container string
}

// New constructs a Store from config.
func New(cfg Config) (*Store, error) {
	if cfg.AccountURL == "" {
		return nil, fmt.Errorf("azure account URL is required")
	}
	client, err := azblob.NewClientWithNoCredential(cfg.AccountURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create azure client: %w", err)
	}
	return &Store{client: client, container: cfg.Container}, nil
}

// GetOrCreateFolder pins a marker blob for the prefix. Overwriting the
// marker is harmless, so concurrent calls converge.
func (s *Store) GetOrCreateFolder(ctx context.Context, pathSegments []string) (string, error) {
	prefix := folderPrefix(pathSegments)
	if prefix == "" {
		return "", fmt.Errorf("empty folder path")
	}

	_, err := s.client.UploadStream(ctx, s.container, prefix+".keep", strings.NewReader(""), nil)
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", prefix, err)
	}
	return prefix, nil
}

// Upload streams src into folderID under displayName.
func (s *Store) Upload(ctx context.Context, src remote.Source, folderID, displayName string, onProgress remote.ProgressFunc) (*remote.Object, error) {
	body, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	defer body.Close()

	name := folderID + displayName
	reader := remote.NewProgressReader(body, src.Size(), onProgress)

	contentType := src.ContentType()
	_, err = s.client.UploadStream(ctx, s.container, name, reader, &azblob.UploadStreamOptions{
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: &contentType,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}

	if onProgress != nil {
		onProgress(src.Size(), src.Size())
	}

	return &remote.Object{
		RemoteID:  name,
		Link:      s.client.URL() + s.container + "/" + name,
		SizeBytes: src.Size(),
	}, nil
}

// Delete removes the blob. BlobNotFound maps to success for idempotency.
func (s *Store) Delete(ctx context.Context, remoteID string) error {
	_, err := s.client.DeleteBlob(ctx, s.container, remoteID, nil)
	if err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete %s: %w", remoteID, err)
	}
	return nil
}

// Exists reports whether the blob is still present.
func (s *Store) Exists(ctx context.Context, remoteID string) (bool, error) {
	blobClient := s.client.ServiceClient().NewContainerClient(s.container).NewBlobClient(remoteID)
	_, err := blobClient.GetProperties(ctx, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("get properties %s: %w", remoteID, err)
	}
	return true, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == 404
}

func folderPrefix(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.Trim(seg, "/")
		if seg != "" {
			parts = append(parts, seg)
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "/") + "/"
}
