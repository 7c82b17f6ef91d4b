// Package gcs implements the archive mirror on Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// Mirror uploads archived snapshots into a GCS bucket. Authentication is
// handled via Application Default Credentials.
type Mirror struct {
	client *storage.Client
	bucket string
}

// New initializes a GCS client and verifies the bucket is reachable, failing
// fast on startup if the configuration is wrong.
func New(ctx context.Context, bucket string) (*Mirror, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	if _, err := client.Bucket(bucket).Attrs(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("get gcs bucket %q attributes: %w", bucket, err)
	}
	return &Mirror{client: client, bucket: bucket}, nil
}

// Save uploads data to the named object in the bucket.
func (m *Mirror) Save(ctx context.Context, objectName string, data []byte) error {
	wc := m.client.Bucket(m.bucket).Object(objectName).NewWriter(ctx)
	wc.ContentType = "image/png"
	if _, err := wc.Write(data); err != nil {
		_ = wc.Close()
		return fmt.Errorf("write gcs object %s: %w", objectName, err)
	}
	// Close finalizes the upload and flushes buffered data.
	if err := wc.Close(); err != nil {
		return fmt.Errorf("close gcs writer for %s: %w", objectName, err)
	}
	return nil
}

// Close releases the underlying client.
func (m *Mirror) Close() error {
	return m.client.Close()
}
