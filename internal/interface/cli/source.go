package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/afero"
)

// readBlob returns the text to classify: a file path, "-" for stdin,
// or the clipboard when no argument is given
func (s *session) readBlob(ctx context.Context, args []string) (string, error) {
	if len(args) == 0 {
		if _, err := s.registry(); err != nil {
			return "", err
		}
		return s.container.GetClipboard().Read(ctx)
	}

	if args[0] == "-" {
		data, err := io.ReadAll(s.opts.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := afero.ReadFile(s.opts.Fs, args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(data), nil
}
