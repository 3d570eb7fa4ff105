package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcs "cloud.google.com/go/storage"
)

// SnapshotArchiver persists raw supplier feed payloads to a bucket so
// every reconciliation run can be replayed or audited later.
type SnapshotArchiver struct {
	client *gcs.Client
	bucket string
}

// NewSnapshotArchiver constructs a SnapshotArchiver for the bucket.
func NewSnapshotArchiver(client *gcs.Client, bucket string) (*SnapshotArchiver, error) {
	if client == nil {
		return nil, errors.New("storage: client is required")
	}
	if bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	return &SnapshotArchiver{client: client, bucket: bucket}, nil
}

// Archive writes the payload under a run-scoped object name and returns
// the object path.
func (a *SnapshotArchiver) Archive(ctx context.Context, runID string, payload []byte) (string, error) {
	if runID == "" {
		return "", errors.New("storage: run id is required")
	}

	name := fmt.Sprintf("feeds/%s/%s.json", time.Now().UTC().Format("2006-01-02"), runID)
	writer := a.client.Bucket(a.bucket).Object(name).NewWriter(ctx)
	writer.ContentType = "application/json"

	if _, err := writer.Write(payload); err != nil {
		_ = writer.Close()
		return "", fmt.Errorf("storage: write snapshot %s: %w", name, err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("storage: close snapshot %s: %w", name, err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, name), nil
}
