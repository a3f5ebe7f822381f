// Package storage archives raw source files in object storage.
//
// It wraps the MinIO Go client behind a small Client interface so tests can
// mock storage interactions (see core/storage/mocks), and layers an Archive
// on top that stores dated snapshots of imported source files. Each import
// run keeps the exact bytes it parsed, keyed by source name and day.
//
//	client, err := storage.NewClient(config)
//	archive := storage.NewArchive(client, config.Bucket)
//	key, err := archive.StoreSnapshot(ctx, "iso10383", "iso10383.csv", time.Now(), data)
package storage
