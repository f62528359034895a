// Package filestore defines the read-only object storage interface the
// s3:// backend is built on.
//
// Usage:
//
//	cfg := filestore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	cfg.DefaultBucket = "archive"
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	objs, err := store.ListObjects(ctx, "archive", filestore.ListOptions{Prefix: "2020/"})
package filestore

import "context"

// Store is implemented by every object storage provider.
type Store interface {
	// Ping verifies the storage backend is reachable. When the config names
	// a DefaultBucket, that bucket must exist.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// BucketExists reports whether bucket exists and is accessible.
	BucketExists(ctx context.Context, bucket string) (bool, error)

	// ListObjects returns the objects in bucket that match opts.
	// Virtual directory entries (common prefixes) are included when opts.Recursive is false.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) ([]ObjectInfo, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// StatObject returns metadata for the object at key without downloading it.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)
}
