// Package journal appends one JSON line per registry mutation.
package journal

import (
	"bufio"
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/afero"
)

// Op names a journaled mutation
type Op string

const (
	OpAdd          Op = "add"
	OpMarkExecuted Op = "mark_executed"
)

// Event is one line of the journal
type Event struct {
	ID     string `json:"id"`
	TS     string `json:"ts"`
	Op     Op     `json:"op"`
	Digest string `json:"digest"`
	Name   string `json:"name"`
	Kind   string `json:"kind,omitempty"`
	Origin string `json:"origin,omitempty"`
}

// Writer appends events to an NDJSON file
type Writer struct {
	fs   afero.Fs
	path string

	Now  func() time.Time // Time provider (for testing)
	Rand io.Reader        // Random source for ULID generation (for testing)

	mu sync.Mutex
}

// NewWriter creates a Writer for path
func NewWriter(fs afero.Fs, path string) *Writer {
	return &Writer{
		fs:   fs,
		path: path,
		Now:  time.Now,
		Rand: ulid.Monotonic(rand.Reader, 0),
	}
}

// Path returns the journal file location
func (w *Writer) Path() string { return w.path }

// Append stamps e with an id and timestamp when missing and writes it as one line
func (w *Writer) Append(ctx context.Context, e Event) (Event, error) {
	if err := ctx.Err(); err != nil {
		return Event{}, err
	}
	if e.Op == "" {
		return Event{}, errors.New("journal event has no op")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.Now().UTC()
	if e.ID == "" {
		id, err := ulid.New(ulid.Timestamp(now), w.Rand)
		if err != nil {
			return Event{}, fmt.Errorf("generate event id: %w", err)
		}
		e.ID = id.String()
	}
	if e.TS == "" {
		e.TS = now.Format(time.RFC3339Nano)
	}

	line, err := json.Marshal(e)
	if err != nil {
		return Event{}, err
	}

	if err := w.fs.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return Event{}, err
	}
	f, err := w.fs.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return Event{}, err
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return Event{}, err
	}
	if err := f.Sync(); err != nil {
		return Event{}, fmt.Errorf("sync journal: %w", err)
	}
	return e, nil
}

// ReadAll parses every event in the journal. A missing file yields no events.
// Blank lines are ignored; a malformed line is an error naming its line number.
func ReadAll(fs afero.Fs, path string) ([]Event, error) {
	data, err := afero.ReadFile(fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var events []Event
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Event
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("journal line %d: %w", n, err)
		}
		events = append(events, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
