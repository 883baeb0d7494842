package registry

import (
	"time"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	"github.com/0x-auth/artreg/internal/domain/classify"
	"github.com/0x-auth/artreg/internal/usecase/query"
)

// Status is the outcome of a facade call that did not fail outright
type Status string

const (
	StatusOK         Status = "ok"
	StatusNoArtifact Status = "no_artifact"
	StatusNotFound   Status = "not_found"
	StatusAmbiguous  Status = "ambiguous"
)

// AddInput is the blob to register plus optional overrides
type AddInput struct {
	Blob   string
	Name   string // overrides the derived name for every candidate
	Origin string // empty uses the service default
}

// AddItem reports one candidate of an Add call
type AddItem struct {
	Record   artifact.Record
	Inserted bool // false when the digest was already tracked
}

type AddResult struct {
	Status  Status
	Message string
	Items   []AddItem
}

// CheckItem reports whether one candidate is already tracked
type CheckItem struct {
	Candidate classify.Candidate
	Digest    string
	Record    *artifact.Record // set when Exists
	Exists    bool
}

type CheckResult struct {
	Status  Status
	Message string
	Items   []CheckItem
}

type ListResult struct {
	Status  Status
	Records []artifact.Record
}

type SearchResult struct {
	Status  Status
	Matches []query.Match
}

type MarkResult struct {
	Status  Status
	Message string
	Record  artifact.Record
}

// Stats summarizes the store
type Stats struct {
	Total       int
	Executed    int
	Pending     int
	ByKind      map[artifact.Kind]int
	LastUpdated time.Time
}

// Problem is a record whose content no longer backs it
type Problem struct {
	Record artifact.Record
	Reason string
}

type VerifyResult struct {
	Status   Status
	Checked  int
	Problems []Problem
}

// Healthy reports whether every record passed verification
func (r VerifyResult) Healthy() bool { return len(r.Problems) == 0 }
