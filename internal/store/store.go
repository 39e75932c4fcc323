package store

import "context"

// KV is the key-value capability the pipeline is built on: per-key atomic
// get/put/delete plus prefix listing. There are no transactions and no
// secondary indexes beyond what callers build manually; read-after-write
// visibility may be eventual depending on the backend.
type KV interface {
	// Get returns the value for key. The boolean reports presence.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Put stores value under key, overwriting any existing value.
	Put(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all keys starting with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)

	// Close releases backend resources.
	Close() error
}
