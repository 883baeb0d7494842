package artifact

import (
	"context"
	"time"
)

// Repository defines the interface for artifact persistence
// This interface belongs to the domain layer and is implemented by the infrastructure layer
type Repository interface {
	// Insert stores the body and appends a record unless a record with the
	// same digest exists, in which case the existing record is returned with
	// inserted=false and nothing is written.
	Insert(ctx context.Context, in NewRecord) (rec Record, inserted bool, err error)

	// SetExecuted flags the record as executed. It reports false when no
	// record has the digest. Flagging an executed record again returns true.
	SetExecuted(ctx context.Context, digest string) (bool, error)

	// Find looks a record up by full digest
	Find(ctx context.Context, digest string) (Record, bool, error)

	// Resolve looks a record up by full digest or unique digest prefix
	Resolve(ctx context.Context, prefix string) (Record, error)

	// All returns every record in insertion order
	All(ctx context.Context) ([]Record, error)

	// LastUpdated returns the timestamp of the most recent mutation
	LastUpdated(ctx context.Context) (time.Time, error)

	// ReadContent returns the stored body of a record
	ReadContent(ctx context.Context, rec Record) ([]byte, error)
}
