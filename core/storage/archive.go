package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
)

// Archive stores dated source-file snapshots so each import run can be
// audited against the exact input it saw.
type Archive struct {
	client Client
	bucket string
}

// NewArchive creates an archive over the given bucket.
func NewArchive(client Client, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// StoreSnapshot uploads raw source data under a dated key and returns the
// object name, e.g. "iso10383/2026-08-28/iso10383.csv".
func (a *Archive) StoreSnapshot(ctx context.Context, source, filename string, day time.Time, data []byte) (string, error) {
	objectName := fmt.Sprintf("%s/%s/%s", source, day.Format("2006-01-02"), filename)
	_, err := a.client.PutObject(ctx, a.bucket, objectName,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", objectName, err)
	}
	return objectName, nil
}

// Snapshot downloads a previously archived object.
func (a *Archive) Snapshot(ctx context.Context, objectName string) ([]byte, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", objectName, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", objectName, err)
	}
	return data, nil
}

// ListSnapshots returns the object names archived for a source, newest last.
func (a *Archive) ListSnapshots(ctx context.Context, source string) ([]string, error) {
	var names []string
	for info := range a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    source + "/",
		Recursive: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("list %s: %w", source, info.Err)
		}
		names = append(names, info.Key)
	}
	return names, nil
}
