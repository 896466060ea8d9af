package gcsuploader

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// StorageService provides an interface for cloud storage operations.
type StorageService interface {
	// UploadFile uploads a local file to the bucket under the given object name.
	UploadFile(ctx context.Context, objectName, filePath string) error

	// UploadBytes uploads data and returns the object's storage URI.
	UploadBytes(ctx context.Context, objectName, contentType string, data []byte) (string, error)

	// FetchFromGCS downloads file bytes from the given storage URI.
	FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error)
}

// GCSStorageService is the StorageService backed by one Google Cloud
// Storage bucket. It holds a shared client.
type GCSStorageService struct {
	client *storage.Client
	bucket string
}

// NewGCSStorageService creates a storage service writing to bucket.
func NewGCSStorageService(ctx context.Context, bucket string) (*GCSStorageService, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStorageService: create storage client: %w", err)
	}
	return &GCSStorageService{client: client, bucket: bucket}, nil
}

// Bucket returns the bucket uploads go to.
func (s *GCSStorageService) Bucket() string {
	return s.bucket
}

// Close closes the storage client.
func (s *GCSStorageService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// UploadFile uploads a local file into the service's bucket.
func (s *GCSStorageService) UploadFile(ctx context.Context, objectName, filePath string) error {
	return UploadFile(ctx, s.client, s.bucket, objectName, filePath)
}

// UploadBytes uploads data into the service's bucket.
func (s *GCSStorageService) UploadBytes(ctx context.Context, objectName, contentType string, data []byte) (string, error) {
	return UploadBytes(ctx, s.client, s.bucket, objectName, contentType, data)
}

// FetchFromGCS downloads an object from any bucket the client can read.
func (s *GCSStorageService) FetchFromGCS(ctx context.Context, gcsURI string) ([]byte, error) {
	return FetchFromGCS(ctx, s.client, gcsURI)
}

var _ StorageService = (*GCSStorageService)(nil)
