package artifact_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	store "github.com/0x-auth/artreg/internal/infra/repository/artifact"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

const (
	storePath  = "/reg/registry.json"
	contentDir = "/reg/artifacts"
)

// fakeClock returns successive instants; Set moves it anywhere, including backwards
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// renameFailFs fails every rename once armed
type renameFailFs struct {
	afero.Fs
	armed bool
}

func (f *renameFailFs) Rename(oldname, newname string) error {
	if f.armed {
		return errors.New("simulated crash before rename")
	}
	return f.Fs.Rename(oldname, newname)
}

// storeRenameFailFs fails only renames onto the store document
type storeRenameFailFs struct {
	afero.Fs
	armed bool
}

func (f *storeRenameFailFs) Rename(oldname, newname string) error {
	if f.armed && newname == storePath {
		return errors.New("simulated crash before document rename")
	}
	return f.Fs.Rename(oldname, newname)
}

func openStore(t *testing.T, fs afero.Fs, clock *fakeClock) *store.FileStore {
	t.Helper()
	s, err := store.Open(fs, store.Options{StorePath: storePath, ContentDir: contentDir, Now: clock.Now})
	require.NoError(t, err)
	return s
}

func newShell(name, body string) artifact.NewRecord {
	return artifact.NewRecord{Name: name, Kind: artifact.KindShell, Body: []byte(body), OriginID: "session-1"}
}

func TestOpen_CreatesEmptyDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	clock := newFakeClock()
	s := openStore(t, fs, clock)
	ctx := context.Background()

	exists, err := afero.Exists(fs, storePath)
	require.NoError(t, err)
	assert.True(t, exists)

	records, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	updated, err := s.LastUpdated(ctx)
	require.NoError(t, err)
	assert.False(t, updated.IsZero())

	isDir, err := afero.IsDir(fs, contentDir)
	require.NoError(t, err)
	assert.True(t, isDir)
}

func TestOpen_RequiresPaths(t *testing.T) {
	_, err := store.Open(afero.NewMemMapFs(), store.Options{ContentDir: contentDir})
	assert.Error(t, err)

	_, err = store.Open(afero.NewMemMapFs(), store.Options{StorePath: storePath})
	assert.Error(t, err)
}

func TestOpen_CorruptDocumentIsPersistenceFailure(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"truncated json", `{"records": [`},
		{"duplicate digest", `{"records":[{"digest":"aa"},{"digest":"aa"}],"last_updated":"2026-10-19T09:00:00Z"}`},
		{"missing digest", `{"records":[{"name":"x"}],"last_updated":"2026-10-19T09:00:00Z"}`},
		{"unknown field", `{"records":[],"last_updated":"2026-10-19T09:00:00Z","extra":1}`},
		{"trailing data", `{"records":[],"last_updated":"2026-10-19T09:00:00Z"} {}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, storePath, []byte(tt.data), 0o644))

			_, err := store.Open(fs, store.Options{StorePath: storePath, ContentDir: contentDir})
			require.Error(t, err)
			assert.ErrorIs(t, err, artifact.ErrPersistence)

			// The corrupt document is reported, never replaced
			data, err := afero.ReadFile(fs, storePath)
			require.NoError(t, err)
			assert.Equal(t, tt.data, string(data))
		})
	}
}

func TestInsert_WritesContentAndRecord(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	body := "# backup files\ntar czf b.tgz ."
	rec, inserted, err := s.Insert(ctx, newShell("backup_files", body))
	require.NoError(t, err)
	assert.True(t, inserted)

	digest := artifact.Digest([]byte(body))
	assert.Equal(t, digest, rec.Digest)
	assert.Equal(t, "backup_files", rec.Name)
	assert.Equal(t, artifact.KindShell, rec.Kind)
	assert.Equal(t, "session-1", rec.OriginID)
	assert.False(t, rec.Executed)
	assert.Equal(t, filepath.Join(contentDir, "backup_files_"+digest[:8]+".sh"), rec.Locator)

	content, err := afero.ReadFile(fs, rec.Locator)
	require.NoError(t, err)
	assert.Equal(t, body, string(content))
	assert.Equal(t, digest, artifact.Digest(content))

	viaRepo, err := s.ReadContent(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, content, viaRepo)
}

func TestInsert_DefaultOrigin(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())

	rec, _, err := s.Insert(context.Background(), artifact.NewRecord{Name: "n", Kind: artifact.KindText, Body: []byte("BAZINGA")})
	require.NoError(t, err)
	assert.Equal(t, artifact.DefaultOrigin, rec.OriginID)
}

func TestInsert_Idempotent(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	first, inserted, err := s.Insert(ctx, newShell("one", "echo hi"))
	require.NoError(t, err)
	require.True(t, inserted)

	before, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)
	updatedBefore, err := s.LastUpdated(ctx)
	require.NoError(t, err)

	second, inserted, err := s.Insert(ctx, newShell("renamed", "echo hi"))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first, second)

	records, err := s.All(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// Dedup short-circuits: no document write, no timestamp bump, no new content file
	after, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	updatedAfter, err := s.LastUpdated(ctx)
	require.NoError(t, err)
	assert.Equal(t, updatedBefore, updatedAfter)

	files, err := afero.ReadDir(fs, contentDir)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestInsert_WhitespaceVariantsAreDistinct(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())
	ctx := context.Background()

	_, inserted, err := s.Insert(ctx, newShell("a", "ls"))
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = s.Insert(ctx, newShell("a", "ls\n"))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestInsert_Validation(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())

	_, _, err := s.Insert(context.Background(), artifact.NewRecord{Kind: artifact.KindShell, Body: []byte("x")})
	assert.Error(t, err)
}

func TestInsert_RejectsNamesEscapingContentDir(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	for _, name := range []string{"../escape", "a/b", "..", strings.Repeat("n", artifact.MaxNameLen+1)} {
		_, _, err := s.Insert(ctx, newShell(name, "echo "+name))
		assert.Error(t, err, name)
	}

	exists, err := afero.Exists(fs, "/reg/escape_"+artifact.ShortDigest(artifact.Digest([]byte("echo ../escape")))+".sh")
	require.NoError(t, err)
	assert.False(t, exists)

	files, err := afero.ReadDir(fs, contentDir)
	require.NoError(t, err)
	assert.Empty(t, files)

	records, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInsert_CanceledContext(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := s.Insert(ctx, newShell("a", "x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInsert_SameNameDistinctLocators(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())
	ctx := context.Background()

	first, _, err := s.Insert(ctx, newShell("same", "echo 1"))
	require.NoError(t, err)
	second, _, err := s.Insert(ctx, newShell("same", "echo 2"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Locator, second.Locator)
}

func TestSetExecuted(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	rec, _, err := s.Insert(ctx, newShell("a", "echo a"))
	require.NoError(t, err)

	ok, err := s.SetExecuted(ctx, rec.Digest)
	require.NoError(t, err)
	assert.True(t, ok)

	got, found, err := s.Find(ctx, rec.Digest)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Executed)
	assert.Equal(t, rec.AddedAt, got.AddedAt)

	// Second flip is a no-op that still reports success
	before, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)

	ok, err = s.SetExecuted(ctx, rec.Digest)
	require.NoError(t, err)
	assert.True(t, ok)

	after, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, _, err = s.Find(ctx, rec.Digest)
	require.NoError(t, err)
	assert.True(t, got.Executed)
}

func TestSetExecuted_NotFound(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())

	ok, err := s.SetExecuted(context.Background(), artifact.Digest([]byte("nope")))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLastUpdated_Monotonic(t *testing.T) {
	clock := newFakeClock()
	s := openStore(t, afero.NewMemMapFs(), clock)
	ctx := context.Background()

	prev, err := s.LastUpdated(ctx)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		rec, _, err := s.Insert(ctx, newShell(fmt.Sprintf("n%d", i), fmt.Sprintf("echo %d", i)))
		require.NoError(t, err)

		cur, err := s.LastUpdated(ctx)
		require.NoError(t, err)
		assert.False(t, cur.Before(prev), "insert moved last_updated backwards")
		prev = cur

		_, err = s.SetExecuted(ctx, rec.Digest)
		require.NoError(t, err)
		cur, err = s.LastUpdated(ctx)
		require.NoError(t, err)
		assert.False(t, cur.Before(prev), "set executed moved last_updated backwards")
		prev = cur
	}

	// Wall clock steps back an hour
	clock.Set(prev.Add(-time.Hour))
	_, _, err = s.Insert(ctx, newShell("late", "echo late"))
	require.NoError(t, err)

	cur, err := s.LastUpdated(ctx)
	require.NoError(t, err)
	assert.Equal(t, prev, cur)
}

func TestRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	clock := newFakeClock()
	s := openStore(t, fs, clock)
	ctx := context.Background()

	for i, body := range []string{"echo a", "print('b')", "BAZINGA c"} {
		kind := []artifact.Kind{artifact.KindShell, artifact.KindPython, artifact.KindText}[i]
		rec, _, err := s.Insert(ctx, artifact.NewRecord{Name: fmt.Sprintf("r%d", i), Kind: kind, Body: []byte(body)})
		require.NoError(t, err)
		if i == 1 {
			_, err = s.SetExecuted(ctx, rec.Digest)
			require.NoError(t, err)
		}
	}

	want, err := s.All(ctx)
	require.NoError(t, err)
	wantUpdated, err := s.LastUpdated(ctx)
	require.NoError(t, err)

	reopened := openStore(t, fs, clock)
	got, err := reopened.All(ctx)
	require.NoError(t, err)
	gotUpdated, err := reopened.LastUpdated(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records changed across reload (-want +got):\n%s", diff)
	}
	assert.True(t, wantUpdated.Equal(gotUpdated))
}

func TestAtomicity_InterruptedInsertKeepsPreviousDocument(t *testing.T) {
	fs := &renameFailFs{Fs: afero.NewMemMapFs()}
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	_, _, err := s.Insert(ctx, newShell("kept", "echo kept"))
	require.NoError(t, err)

	before, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)

	fs.armed = true
	_, _, err = s.Insert(ctx, newShell("lost", "echo lost"))
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrPersistence)

	after, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// In-memory view did not advance either
	records, err := s.All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "kept", records[0].Name)
}

func TestAtomicity_FailedDocumentWriteRemovesContent(t *testing.T) {
	fs := &storeRenameFailFs{Fs: afero.NewMemMapFs()}
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	before, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)

	// The content file lands, then the document rename fails
	fs.armed = true
	_, _, err = s.Insert(ctx, newShell("orphan", "echo orphan"))
	require.Error(t, err)
	assert.ErrorIs(t, err, artifact.ErrPersistence)

	files, err := afero.ReadDir(fs, contentDir)
	require.NoError(t, err)
	assert.Empty(t, files)

	after, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	records, err := s.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// The same body ingests cleanly once the filesystem recovers
	fs.armed = false
	rec, inserted, err := s.Insert(ctx, newShell("orphan", "echo orphan"))
	require.NoError(t, err)
	assert.True(t, inserted)
	content, err := afero.ReadFile(fs, rec.Locator)
	require.NoError(t, err)
	assert.Equal(t, "echo orphan", string(content))
}

func TestAtomicity_InterruptedSetExecutedKeepsPreviousDocument(t *testing.T) {
	fs := &renameFailFs{Fs: afero.NewMemMapFs()}
	s := openStore(t, fs, newFakeClock())
	ctx := context.Background()

	rec, _, err := s.Insert(ctx, newShell("a", "echo a"))
	require.NoError(t, err)
	before, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)

	fs.armed = true
	ok, err := s.SetExecuted(ctx, rec.Digest)
	require.Error(t, err)
	assert.False(t, ok)

	after, err := afero.ReadFile(fs, storePath)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	got, _, err := s.Find(ctx, rec.Digest)
	require.NoError(t, err)
	assert.False(t, got.Executed)
}

func TestResolve(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())
	ctx := context.Background()

	rec, _, err := s.Insert(ctx, newShell("a", "echo a"))
	require.NoError(t, err)

	got, err := s.Resolve(ctx, rec.Digest)
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got, err = s.Resolve(ctx, rec.Digest[:8])
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	got, err = s.Resolve(ctx, " "+rec.Digest[:6]+" ")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = s.Resolve(ctx, rec.Digest[:3])
	assert.ErrorIs(t, err, artifact.ErrNotFound)

	_, err = s.Resolve(ctx, "zzzzzzzz")
	assert.ErrorIs(t, err, artifact.ErrNotFound)
}

func TestResolve_Ambiguous(t *testing.T) {
	s := openStore(t, afero.NewMemMapFs(), newFakeClock())
	ctx := context.Background()

	// Insert until two digests share a 4-character prefix
	byPrefix := map[string]string{}
	var prefix string
	for i := 0; prefix == ""; i++ {
		rec, _, err := s.Insert(ctx, newShell(fmt.Sprintf("n%d", i), fmt.Sprintf("echo %d", i)))
		require.NoError(t, err)
		p := rec.Digest[:4]
		if _, seen := byPrefix[p]; seen {
			prefix = p
		}
		byPrefix[p] = rec.Digest
	}

	_, err := s.Resolve(ctx, prefix)
	assert.ErrorIs(t, err, artifact.ErrAmbiguousDigest)
}

func TestProperty_InsertIdempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s, err := store.Open(afero.NewMemMapFs(), store.Options{StorePath: storePath, ContentDir: contentDir})
		if err != nil {
			rt.Fatalf("open: %v", err)
		}
		ctx := context.Background()

		bodies := rapid.SliceOfN(rapid.String(), 1, 8).Draw(rt, "bodies")
		distinct := map[string]struct{}{}
		for _, b := range bodies {
			for pass := 0; pass < 2; pass++ {
				rec, inserted, err := s.Insert(ctx, artifact.NewRecord{Name: "p", Kind: artifact.KindText, Body: []byte(b)})
				if err != nil {
					rt.Fatalf("insert: %v", err)
				}
				_, seen := distinct[b]
				if inserted == seen {
					rt.Fatalf("inserted=%v for body seen=%v", inserted, seen)
				}
				if rec.Digest != artifact.Digest([]byte(b)) {
					rt.Fatalf("digest mismatch for %q", b)
				}
				distinct[b] = struct{}{}
			}
		}

		records, err := s.All(ctx)
		if err != nil {
			rt.Fatalf("all: %v", err)
		}
		if len(records) != len(distinct) {
			rt.Fatalf("records = %d, want %d", len(records), len(distinct))
		}
	})
}
