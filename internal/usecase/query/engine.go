package query

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/0x-auth/artreg/internal/app"
	"github.com/0x-auth/artreg/internal/domain/artifact"
)

// ContextLines is how many lines around a hit Search returns on each side
const ContextLines = 2

// Hit is one matching line with its surrounding window
type Hit struct {
	Line  int      // 1-based number of the matching line
	Start int      // 1-based number of Lines[0]
	Lines []string // window of up to ContextLines before and after the hit
}

// Match groups the hits found in one artifact's content
type Match struct {
	Record artifact.Record
	Hits   []Hit
}

// Engine answers read-only questions over the store
type Engine struct {
	Repo artifact.Repository
}

// NewEngine creates an Engine reading from repo
func NewEngine(repo artifact.Repository) *Engine {
	return &Engine{Repo: repo}
}

// List returns records whose name, kind, or origin contains filter.
// An empty filter returns everything. Insertion order is preserved.
func (e *Engine) List(ctx context.Context, filter string) ([]artifact.Record, error) {
	records, err := e.Repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if filter == "" {
		return records, nil
	}

	out := make([]artifact.Record, 0, len(records))
	for _, rec := range records {
		if strings.Contains(rec.Name, filter) ||
			strings.Contains(string(rec.Kind), filter) ||
			strings.Contains(rec.OriginID, filter) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Search scans every content file for term. Records whose content is
// missing are logged and skipped.
func (e *Engine) Search(ctx context.Context, term string) ([]Match, error) {
	if term == "" {
		return nil, nil
	}

	records, err := e.Repo.All(ctx)
	if err != nil {
		return nil, err
	}

	var matches []Match
	for _, rec := range records {
		content, err := e.Repo.ReadContent(ctx, rec)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			if errors.Is(err, os.ErrNotExist) {
				app.GetLogger().Warn("content of %s missing at %s, skipping", rec.Name, rec.Locator)
			} else {
				app.GetLogger().Warn("cannot read content of %s: %v", rec.Name, err)
			}
			continue
		}

		if hits := FindHits(string(content), term); len(hits) > 0 {
			matches = append(matches, Match{Record: rec, Hits: hits})
		}
	}
	return matches, nil
}

// Exists reports the record tracking body, if any
func (e *Engine) Exists(ctx context.Context, body []byte) (artifact.Record, bool, error) {
	return e.Repo.Find(ctx, artifact.Digest(body))
}

// FindHits returns one Hit per line containing term, in line order.
// Windows of nearby hits may overlap.
func FindHits(content, term string) []Hit {
	if term == "" {
		return nil
	}
	lines := splitLines(content)

	var hits []Hit
	for i, line := range lines {
		if !strings.Contains(line, term) {
			continue
		}
		lo := max(0, i-ContextLines)
		hi := min(len(lines), i+ContextLines+1)
		window := make([]string, hi-lo)
		copy(window, lines[lo:hi])
		hits = append(hits, Hit{Line: i + 1, Start: lo + 1, Lines: window})
	}
	return hits
}

// splitLines splits on \n without producing a phantom line after a trailing newline
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
