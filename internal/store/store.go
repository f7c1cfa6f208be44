// Package store provides the key-value blob persistence used by the schema
// cache and the job tracker. Each logical store is one named blob holding an
// entire serialized collection; callers load on startup and overwrite on every
// mutation.
package store

import "context"

// Store is a key-value blob store. Keys name whole collections (one per
// store), values are opaque serialized bytes.
type Store interface {
	// Load returns the blob for key, or (nil, nil) if no blob exists yet.
	Load(ctx context.Context, key string) ([]byte, error)
	// Save overwrites the blob for key.
	Save(ctx context.Context, key string, data []byte) error
	// Delete removes the blob for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases any underlying resources.
	Close() error
}
