// Package storage holds the blob backends uploads are written to.
package storage

import (
	"context"
	"errors"
)

// ErrOutsideRoot is returned when a name would resolve outside the storage root.
var ErrOutsideRoot = errors.New("name resolves outside storage root")

// Writer persists whole blobs under a name. Implementations must be safe for
// concurrent use; writes to the same name race and the last one wins.
type Writer interface {
	Write(ctx context.Context, name string, data []byte) error
	// Location describes where name is (or will be) stored.
	Location(name string) string
}
