// Package blob abstracts the snapshot object storage used by the result store
// and the quota gate. A Store holds whole JSON documents keyed by object name;
// the backend (local file or remote object store) is chosen once at
// construction and never changes for the life of the process.
package blob

import (
	"context"
	"errors"
)

// ErrNotExist is returned by Load when the named object is absent.
var ErrNotExist = errors.New("blob: object does not exist")

type Store interface {
	// Exists reports whether the named object is present.
	Exists(ctx context.Context, name string) (bool, error)

	// Load returns the full object payload, or ErrNotExist when absent.
	Load(ctx context.Context, name string) ([]byte, error)

	// Save overwrites the named object with the given payload.
	Save(ctx context.Context, name string, data []byte) error
}
