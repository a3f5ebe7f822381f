package storage_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"market-sync/core/storage"
	"market-sync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestEnsureBucket(t *testing.T) {
	t.Run("AlreadyExists", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reference-data").Return(true, nil)

		archive := storage.NewArchive(client, "reference-data")
		err := archive.EnsureBucket(context.Background())

		assert.NoError(t, err)
		client.AssertNotCalled(t, "MakeBucket", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("CreatesWhenMissing", func(t *testing.T) {
		client := new(mocks.Client)
		client.On("BucketExists", mock.Anything, "reference-data").Return(false, nil)
		client.On("MakeBucket", mock.Anything, "reference-data", mock.Anything).Return(nil)

		archive := storage.NewArchive(client, "reference-data")
		err := archive.EnsureBucket(context.Background())

		assert.NoError(t, err)
		client.AssertExpectations(t)
	})
}

func TestStoreSnapshot(t *testing.T) {
	client := new(mocks.Client)
	client.On("PutObject", mock.Anything, "reference-data",
		"iso10383/2026-08-28/iso10383.csv", mock.Anything, int64(9), mock.Anything).
		Return(minio.UploadInfo{Size: 9}, nil)

	archive := storage.NewArchive(client, "reference-data")
	day := time.Date(2026, 8, 28, 15, 4, 5, 0, time.UTC)
	name, err := archive.StoreSnapshot(context.Background(), "iso10383", "iso10383.csv", day, []byte("MIC,NAME\n"))

	require.NoError(t, err)
	assert.Equal(t, "iso10383/2026-08-28/iso10383.csv", name)
	client.AssertExpectations(t)
}

func TestSnapshot(t *testing.T) {
	client := new(mocks.Client)
	client.On("GetObject", mock.Anything, "reference-data", "iso10383/2026-08-28/iso10383.csv", mock.Anything).
		Return(io.NopCloser(strings.NewReader("MIC,NAME\n")), nil)

	archive := storage.NewArchive(client, "reference-data")
	data, err := archive.Snapshot(context.Background(), "iso10383/2026-08-28/iso10383.csv")

	require.NoError(t, err)
	assert.Equal(t, "MIC,NAME\n", string(data))
}

func TestListSnapshots(t *testing.T) {
	ch := make(chan minio.ObjectInfo, 2)
	ch <- minio.ObjectInfo{Key: "iso10383/2026-08-27/iso10383.csv"}
	ch <- minio.ObjectInfo{Key: "iso10383/2026-08-28/iso10383.csv"}
	close(ch)

	client := new(mocks.Client)
	client.On("ListObjects", mock.Anything, "reference-data", mock.Anything).
		Return((<-chan minio.ObjectInfo)(ch))

	archive := storage.NewArchive(client, "reference-data")
	names, err := archive.ListSnapshots(context.Background(), "iso10383")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"iso10383/2026-08-27/iso10383.csv",
		"iso10383/2026-08-28/iso10383.csv",
	}, names)
}
