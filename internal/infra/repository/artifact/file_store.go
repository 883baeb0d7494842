// Package artifact is the file-backed implementation of the artifact repository.
//
// The store is one JSON document holding every record plus a last_updated
// timestamp. Bodies live in separate content files under a content directory.
// Every mutation rewrites the whole document through a temp file and a rename,
// so a reader never observes a half-written document.
package artifact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0x-auth/artreg/internal/app"
	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/0x-auth/artreg/internal/infra/persistence/file"
	"github.com/spf13/afero"
)

// MinPrefixLen is the shortest digest prefix Resolve accepts
const MinPrefixLen = 4

// document is the serialized form of the store
type document struct {
	Records     []artifact.Record `json:"records"`
	LastUpdated time.Time         `json:"last_updated"`
}

// Options configures a FileStore
type Options struct {
	StorePath  string           // path of the JSON document
	ContentDir string           // directory holding artifact bodies
	Now        func() time.Time // time provider (for testing)
}

// FileStore implements artifact.Repository on an afero filesystem
type FileStore struct {
	fs         afero.Fs
	storePath  string
	contentDir string
	now        func() time.Time

	mu    sync.Mutex
	doc   document
	index map[string]int // digest -> position in doc.Records
}

var _ artifact.Repository = (*FileStore)(nil)

// Open loads the store document, creating an empty one when none exists
func Open(fs afero.Fs, opts Options) (*FileStore, error) {
	if opts.StorePath == "" {
		return nil, errors.New("store path is required")
	}
	if opts.ContentDir == "" {
		return nil, errors.New("content directory is required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &FileStore{
		fs:         fs,
		storePath:  opts.StorePath,
		contentDir: opts.ContentDir,
		now:        opts.Now,
	}

	data, err := afero.ReadFile(fs, s.storePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		doc := document{Records: []artifact.Record{}, LastUpdated: s.now().UTC()}
		if err := s.persist(doc); err != nil {
			return nil, err
		}
		s.commit(doc)
		app.GetLogger().Debug("created registry at %s", s.storePath)
	case err != nil:
		return nil, &artifact.PersistenceError{Op: "load", Path: s.storePath, Err: err}
	default:
		doc, err := decodeDocument(data)
		if err != nil {
			return nil, &artifact.PersistenceError{Op: "parse", Path: s.storePath, Err: err}
		}
		s.commit(doc)
	}

	if err := fs.MkdirAll(s.contentDir, 0o755); err != nil {
		return nil, &artifact.PersistenceError{Op: "content", Path: s.contentDir, Err: err}
	}
	return s, nil
}

// Insert stores a new artifact unless its digest is already tracked
func (s *FileStore) Insert(ctx context.Context, in artifact.NewRecord) (artifact.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Record{}, false, err
	}
	if err := in.Validate(); err != nil {
		return artifact.Record{}, false, err
	}

	digest := artifact.Digest(in.Body)

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[digest]; ok {
		existing := s.doc.Records[i]
		app.GetLogger().Debug("digest %s already tracked as %s", existing.ShortDigest(), existing.Name)
		return existing, false, nil
	}

	origin := in.OriginID
	if origin == "" {
		origin = artifact.DefaultOrigin
	}

	now := s.now().UTC()
	rec := artifact.Record{
		Name:     in.Name,
		Kind:     in.Kind,
		Digest:   digest,
		Locator:  s.locatorFor(in.Name, in.Kind, digest),
		OriginID: origin,
		AddedAt:  now,
		Executed: false,
	}

	verifyBody := func(data []byte) error {
		if artifact.Digest(data) != digest {
			return errors.New("content does not match digest")
		}
		return nil
	}
	if err := file.WriteFileAtomic(s.fs, rec.Locator, in.Body, file.WithVerify(verifyBody)); err != nil {
		return artifact.Record{}, false, &artifact.PersistenceError{Op: "content", Path: rec.Locator, Err: err}
	}

	next := s.cloneDoc()
	next.Records = append(next.Records, rec)
	next.LastUpdated = s.bump(now)

	if err := s.persist(next); err != nil {
		// No record points at the body, so it must not outlive the failed insert
		if rmErr := s.fs.Remove(rec.Locator); rmErr != nil {
			app.GetLogger().Warn("failed to remove content %s: %v", rec.Locator, rmErr)
		}
		return artifact.Record{}, false, err
	}
	s.commit(next)

	app.GetLogger().Info("tracked %s (%s) as %s", rec.Name, rec.Kind, rec.ShortDigest())
	return rec, true, nil
}

// SetExecuted flags the record with digest as executed
func (s *FileStore) SetExecuted(ctx context.Context, digest string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[digest]
	if !ok {
		return false, nil
	}
	if s.doc.Records[i].Executed {
		return true, nil
	}

	next := s.cloneDoc()
	next.Records[i].Executed = true
	next.LastUpdated = s.bump(s.now().UTC())

	if err := s.persist(next); err != nil {
		return false, err
	}
	s.commit(next)
	return true, nil
}

// Find looks a record up by full digest
func (s *FileStore) Find(ctx context.Context, digest string) (artifact.Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Record{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[digest]
	if !ok {
		return artifact.Record{}, false, nil
	}
	return s.doc.Records[i], true, nil
}

// Resolve accepts a full digest or a unique prefix of at least MinPrefixLen characters
func (s *FileStore) Resolve(ctx context.Context, prefix string) (artifact.Record, error) {
	if err := ctx.Err(); err != nil {
		return artifact.Record{}, err
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	s.mu.Lock()
	defer s.mu.Unlock()

	if i, ok := s.index[prefix]; ok {
		return s.doc.Records[i], nil
	}
	if len(prefix) < MinPrefixLen {
		return artifact.Record{}, fmt.Errorf("%w: %q (need at least %d characters)", artifact.ErrNotFound, prefix, MinPrefixLen)
	}

	var matches []artifact.Record
	for _, rec := range s.doc.Records {
		if strings.HasPrefix(rec.Digest, prefix) {
			matches = append(matches, rec)
		}
	}
	switch len(matches) {
	case 0:
		return artifact.Record{}, fmt.Errorf("%w: %s", artifact.ErrNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return artifact.Record{}, fmt.Errorf("%w: %s matches %d records", artifact.ErrAmbiguousDigest, prefix, len(matches))
	}
}

// All returns a copy of every record in insertion order
func (s *FileStore) All(ctx context.Context) ([]artifact.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]artifact.Record, len(s.doc.Records))
	copy(out, s.doc.Records)
	return out, nil
}

// LastUpdated returns the timestamp of the latest successful mutation
func (s *FileStore) LastUpdated(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.LastUpdated, nil
}

// ReadContent returns the body stored at the record's locator
func (s *FileStore) ReadContent(ctx context.Context, rec artifact.Record) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := afero.ReadFile(s.fs, rec.Locator)
	if err != nil {
		return nil, fmt.Errorf("read content of %s: %w", rec.ShortDigest(), err)
	}
	return data, nil
}

// StorePath returns the location of the store document
func (s *FileStore) StorePath() string { return s.storePath }

// locatorFor picks the content path for a new body. A name and short digest
// already taken by another record falls back to the full digest.
// Callers hold s.mu.
func (s *FileStore) locatorFor(name string, kind artifact.Kind, digest string) string {
	locator := filepath.Join(s.contentDir, artifact.ContentFileName(name, kind, digest))
	for _, rec := range s.doc.Records {
		if rec.Locator == locator {
			return filepath.Join(s.contentDir, name+"_"+digest+kind.Extension())
		}
	}
	return locator
}

// bump keeps last_updated monotonic when the wall clock steps backwards
func (s *FileStore) bump(now time.Time) time.Time {
	if now.Before(s.doc.LastUpdated) {
		return s.doc.LastUpdated
	}
	return now
}

func (s *FileStore) cloneDoc() document {
	records := make([]artifact.Record, len(s.doc.Records), len(s.doc.Records)+1)
	copy(records, s.doc.Records)
	return document{Records: records, LastUpdated: s.doc.LastUpdated}
}

// commit swaps in a document that is already on disk
func (s *FileStore) commit(doc document) {
	if doc.Records == nil {
		doc.Records = []artifact.Record{}
	}
	index := make(map[string]int, len(doc.Records))
	for i, rec := range doc.Records {
		index[rec.Digest] = i
	}
	s.doc = doc
	s.index = index
}

// persist writes doc atomically. The bytes are re-parsed before the rename,
// so a document that would not load again never replaces the current one.
func (s *FileStore) persist(doc document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return &artifact.PersistenceError{Op: "encode", Path: s.storePath, Err: err}
	}

	verify := func(written []byte) error {
		_, err := decodeDocument(written)
		return err
	}
	if err := file.WriteFileAtomic(s.fs, s.storePath, data, file.WithVerify(verify)); err != nil {
		return &artifact.PersistenceError{Op: "write", Path: s.storePath, Err: err}
	}
	return nil
}

func encodeDocument(doc document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeDocument parses a store document and checks digest uniqueness
func decodeDocument(data []byte) (document, error) {
	var doc document
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return document{}, fmt.Errorf("invalid store document: %w", err)
	}
	if dec.More() {
		return document{}, errors.New("invalid store document: trailing data")
	}

	seen := make(map[string]struct{}, len(doc.Records))
	for i, rec := range doc.Records {
		if rec.Digest == "" {
			return document{}, fmt.Errorf("record %d has no digest", i)
		}
		if _, dup := seen[rec.Digest]; dup {
			return document{}, fmt.Errorf("duplicate digest %s", rec.Digest)
		}
		seen[rec.Digest] = struct{}{}
	}
	if doc.Records == nil {
		doc.Records = []artifact.Record{}
	}
	return doc, nil
}
