// Package registry is the facade the command surface talks to.
//
// It composes the classifier, the record store, the query engine, and the
// journal. NotFound and NoArtifact outcomes are reported as a Status on the
// result; only persistence and environment failures come back as errors.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/0x-auth/artreg/internal/app"
	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/0x-auth/artreg/internal/domain/classify"
	"github.com/0x-auth/artreg/internal/infra/journal"
	"github.com/0x-auth/artreg/internal/usecase/query"
)

// EventSink records successful mutations
type EventSink interface {
	Append(ctx context.Context, e journal.Event) (journal.Event, error)
}

// Service implements the registry operations
type Service struct {
	Repo    artifact.Repository
	Query   *query.Engine
	Journal EventSink        // optional
	Origin  string           // default origin for Add; empty means artifact.DefaultOrigin
	Now     func() time.Time // Time provider (for testing)
}

// NewService builds a Service over repo. sink may be nil.
func NewService(repo artifact.Repository, sink EventSink, origin string) *Service {
	return &Service{
		Repo:    repo,
		Query:   query.NewEngine(repo),
		Journal: sink,
		Origin:  origin,
		Now:     time.Now,
	}
}

// Add classifies the blob and tracks every candidate it yields
func (s *Service) Add(ctx context.Context, in AddInput) (*AddResult, error) {
	origin := in.Origin
	if origin == "" {
		origin = s.Origin
	}
	override := classify.SanitizeName(in.Name)
	now := s.now()

	var items []AddItem
	for c := range classify.Classify(in.Blob) {
		name := override
		if name == "" {
			name = classify.DeriveName(c.Kind, c.Body, now)
		}

		rec, inserted, err := s.Repo.Insert(ctx, artifact.NewRecord{
			Name:     name,
			Kind:     c.Kind,
			Body:     []byte(c.Body),
			OriginID: origin,
		})
		if err != nil {
			return nil, err
		}
		if inserted {
			s.record(ctx, journal.OpAdd, rec)
		}
		items = append(items, AddItem{Record: rec, Inserted: inserted})
	}

	if len(items) == 0 {
		return &AddResult{Status: StatusNoArtifact, Message: artifact.ErrNoArtifact.Error()}, nil
	}

	added := 0
	for _, it := range items {
		if it.Inserted {
			added++
		}
	}
	return &AddResult{
		Status:  StatusOK,
		Message: fmt.Sprintf("%d added, %d already tracked", added, len(items)-added),
		Items:   items,
	}, nil
}

// Check classifies the blob and reports which candidates are already tracked.
// It never mutates the store.
func (s *Service) Check(ctx context.Context, blob string) (*CheckResult, error) {
	var items []CheckItem
	for c := range classify.Classify(blob) {
		rec, ok, err := s.Query.Exists(ctx, []byte(c.Body))
		if err != nil {
			return nil, err
		}
		item := CheckItem{Candidate: c, Digest: artifact.Digest([]byte(c.Body)), Exists: ok}
		if ok {
			item.Record = &rec
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return &CheckResult{Status: StatusNoArtifact, Message: artifact.ErrNoArtifact.Error()}, nil
	}

	tracked := 0
	for _, it := range items {
		if it.Exists {
			tracked++
		}
	}
	return &CheckResult{
		Status:  StatusOK,
		Message: fmt.Sprintf("%d tracked, %d new", tracked, len(items)-tracked),
		Items:   items,
	}, nil
}

// List returns records matching filter. An empty result is still StatusOK.
func (s *Service) List(ctx context.Context, filter string) (*ListResult, error) {
	records, err := s.Query.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Status: StatusOK, Records: records}, nil
}

// Search greps artifact content for term
func (s *Service) Search(ctx context.Context, term string) (*SearchResult, error) {
	matches, err := s.Query.Search(ctx, term)
	if err != nil {
		return nil, err
	}
	return &SearchResult{Status: StatusOK, Matches: matches}, nil
}

// MarkExecuted flags the record named by a full digest or unique prefix
func (s *Service) MarkExecuted(ctx context.Context, digest string) (*MarkResult, error) {
	rec, err := s.Repo.Resolve(ctx, digest)
	switch {
	case errors.Is(err, artifact.ErrNotFound):
		return &MarkResult{Status: StatusNotFound, Message: err.Error()}, nil
	case errors.Is(err, artifact.ErrAmbiguousDigest):
		return &MarkResult{Status: StatusAmbiguous, Message: err.Error()}, nil
	case err != nil:
		return nil, err
	}

	wasExecuted := rec.Executed
	ok, err := s.Repo.SetExecuted(ctx, rec.Digest)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &MarkResult{Status: StatusNotFound, Message: fmt.Sprintf("%v: %s", artifact.ErrNotFound, digest)}, nil
	}
	rec.Executed = true

	if wasExecuted {
		return &MarkResult{Status: StatusOK, Message: "already executed", Record: rec}, nil
	}
	s.record(ctx, journal.OpMarkExecuted, rec)
	return &MarkResult{Status: StatusOK, Message: "marked executed", Record: rec}, nil
}

// Stats counts records by state and kind
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	records, err := s.Repo.All(ctx)
	if err != nil {
		return nil, err
	}
	updated, err := s.Repo.LastUpdated(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{
		Total:       len(records),
		ByKind:      make(map[artifact.Kind]int),
		LastUpdated: updated,
	}
	for _, rec := range records {
		if rec.Executed {
			st.Executed++
		}
		st.ByKind[rec.Kind]++
	}
	st.Pending = st.Total - st.Executed
	return st, nil
}

// Verify checks that every record's content file exists and still hashes to its digest
func (s *Service) Verify(ctx context.Context) (*VerifyResult, error) {
	records, err := s.Repo.All(ctx)
	if err != nil {
		return nil, err
	}

	res := &VerifyResult{Status: StatusOK, Checked: len(records)}
	for _, rec := range records {
		content, err := s.Repo.ReadContent(ctx, rec)
		switch {
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, os.ErrNotExist):
			res.Problems = append(res.Problems, Problem{Record: rec, Reason: "content file missing"})
		case err != nil:
			res.Problems = append(res.Problems, Problem{Record: rec, Reason: err.Error()})
		case artifact.Digest(content) != rec.Digest:
			res.Problems = append(res.Problems, Problem{Record: rec, Reason: "content does not match digest"})
		}
	}
	return res, nil
}

// record appends a journal event. The mutation is already durable, so a
// journal failure is logged rather than returned.
func (s *Service) record(ctx context.Context, op journal.Op, rec artifact.Record) {
	if s.Journal == nil {
		return
	}
	_, err := s.Journal.Append(ctx, journal.Event{
		Op:     op,
		Digest: rec.Digest,
		Name:   rec.Name,
		Kind:   string(rec.Kind),
		Origin: rec.OriginID,
	})
	if err != nil {
		app.GetLogger().Warn("journal append for %s failed: %v", rec.ShortDigest(), err)
	}
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
