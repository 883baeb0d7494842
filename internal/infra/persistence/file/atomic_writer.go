package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

type writeOptions struct {
	perm   os.FileMode
	verify func(data []byte) error
}

// WriteOption adjusts a single WriteFileAtomic call
type WriteOption func(*writeOptions)

// WithPerm sets the permission bits of the final file (default 0644)
func WithPerm(perm os.FileMode) WriteOption {
	return func(o *writeOptions) { o.perm = perm }
}

// WithVerify runs fn on the bytes read back from the temp file before the
// rename. A verify error aborts the write and leaves the target untouched.
func WithVerify(fn func(data []byte) error) WriteOption {
	return func(o *writeOptions) { o.verify = fn }
}

// WriteFileAtomic writes data to a file atomically using temp file + rename
// The target is either the previous content or data, never a mixture
func WriteFileAtomic(fs afero.Fs, path string, data []byte, opts ...WriteOption) error {
	o := writeOptions{perm: 0o644}
	for _, opt := range opts {
		opt(&o)
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// Temp file lives next to the target so the rename stays on one filesystem
	tmpFile, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	committed := false
	defer func() {
		if !committed {
			fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := fs.Chmod(tmpPath, o.perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if o.verify != nil {
		written, err := afero.ReadFile(fs, tmpPath)
		if err != nil {
			return fmt.Errorf("failed to read back temp file: %w", err)
		}
		if err := o.verify(written); err != nil {
			return fmt.Errorf("refusing to replace %s: %w", path, err)
		}
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}
	committed = true

	return nil
}
