package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no record matches the requested digest
	ErrNotFound = errors.New("artifact not found")

	// ErrNoArtifact means the classifier found nothing recognizable in the input
	ErrNoArtifact = errors.New("no recognizable artifact found")

	// ErrAmbiguousDigest means a digest prefix matches more than one record
	ErrAmbiguousDigest = errors.New("digest prefix is ambiguous")

	// ErrPersistence is the sentinel matched by every PersistenceError
	ErrPersistence = errors.New("persistence failure")

	// ErrUnsupportedEnvironment means an external capability such as the
	// clipboard is not available on this platform
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
)

// PersistenceError reports that the store document could not be read,
// parsed, or durably written. The on-disk document is left untouched.
type PersistenceError struct {
	Op   string // load, parse, write, content
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) match any PersistenceError
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
