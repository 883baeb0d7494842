package clipboard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/0x-auth/artreg/internal/domain/artifact"
)

// DefaultTimeout bounds a single clipboard read
const DefaultTimeout = 5 * time.Second

// Command is one platform clipboard reader
type Command struct {
	Bin  string
	Args []string
}

// commands lists readers per GOOS in preference order
var commands = map[string][]Command{
	"darwin": {
		{Bin: "pbpaste"},
	},
	"linux": {
		{Bin: "wl-paste", Args: []string{"--no-newline"}},
		{Bin: "xclip", Args: []string{"-selection", "clipboard", "-o"}},
		{Bin: "xsel", Args: []string{"--clipboard", "--output"}},
	},
	"windows": {
		{Bin: "powershell", Args: []string{"-NoProfile", "-Command", "Get-Clipboard"}},
	},
}

// Reader reads the system clipboard by shelling out to a platform tool
type Reader struct {
	GOOS    string
	Timeout time.Duration

	LookPath func(file string) (string, error)
	Exec     func(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// NewReader returns a Reader for the running platform
func NewReader(timeout time.Duration) *Reader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Reader{
		GOOS:     runtime.GOOS,
		Timeout:  timeout,
		LookPath: exec.LookPath,
		Exec:     execOutput,
	}
}

// Resolve picks the first installed clipboard command for r.GOOS
func (r *Reader) Resolve() (Command, error) {
	for _, c := range commands[r.GOOS] {
		if _, err := r.LookPath(c.Bin); err == nil {
			return c, nil
		}
	}
	return Command{}, fmt.Errorf("%w: no clipboard tool found for %s", artifact.ErrUnsupportedEnvironment, r.GOOS)
}

// Read returns the clipboard text
func (r *Reader) Read(ctx context.Context) (string, error) {
	c, err := r.Resolve()
	if err != nil {
		return "", err
	}

	cctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	out, err := r.Exec(cctx, c.Bin, c.Args...)
	if err != nil {
		if errors.Is(cctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%s timed out after %s", c.Bin, r.Timeout)
		}
		return "", fmt.Errorf("%s failed: %w", c.Bin, err)
	}

	text := string(out)
	if r.GOOS == "windows" {
		// Get-Clipboard appends CRLF
		text = strings.TrimSuffix(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	}
	return text, nil
}

func execOutput(ctx context.Context, bin string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
