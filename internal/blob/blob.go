// Package blob abstracts the object storage the document pipeline
// uploads watermarked files and previews to.
package blob

import "context"

// PutInfo echoes the storage coordinates of an uploaded object.
type PutInfo struct {
	Key      string
	Location string
	ETag     string
}

// Store is the boundary to object storage. Keys are path-like strings
// scoped by owner and document name; re-uploading the same key is safe.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (PutInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
