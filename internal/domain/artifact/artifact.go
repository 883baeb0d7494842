// Package artifact holds the registry's domain model: the tracked record,
// its kind tags, and the content digest that identifies it.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Kind is a short type tag for an artifact body
type Kind string

const (
	KindShell      Kind = "sh"
	KindPython     Kind = "py"
	KindJavaScript Kind = "js"
	KindTypeScript Kind = "ts"
	KindJSON       Kind = "json"
	KindHTML       Kind = "html"
	KindCSS        Kind = "css"
	KindText       Kind = "txt"
)

// DefaultOrigin is the origin id used when the caller does not name a session
const DefaultOrigin = "manual"

// ShortDigestLen is the digest prefix length used in locators and listings
const ShortDigestLen = 8

// MaxNameLen caps a record name in runes so content file names stay well
// under common filesystem limits
const MaxNameLen = 64

var extensions = map[Kind]string{
	KindShell:      ".sh",
	KindPython:     ".py",
	KindJavaScript: ".js",
	KindTypeScript: ".ts",
	KindJSON:       ".json",
	KindHTML:       ".html",
	KindCSS:        ".css",
	KindText:       ".txt",
}

// Extension returns the file extension used for content files of this kind.
// Unknown kinds are stored as plain text.
func (k Kind) Extension() string {
	if ext, ok := extensions[k]; ok {
		return ext
	}
	return ".txt"
}

// Record is one tracked artifact.
//
// Digest is the identity key and is unique across a store. Name is advisory
// and may repeat. AddedAt never changes after creation; Executed only moves
// from false to true.
type Record struct {
	Name     string    `json:"name"`
	Kind     Kind      `json:"kind"`
	Digest   string    `json:"digest"`
	Locator  string    `json:"locator"`
	OriginID string    `json:"origin_id"`
	AddedAt  time.Time `json:"added_at"`
	Executed bool      `json:"executed"`
}

// ShortDigest returns the display prefix of the record digest
func (r Record) ShortDigest() string {
	return ShortDigest(r.Digest)
}

// NewRecord is the input for inserting an artifact into a repository
type NewRecord struct {
	Name     string
	Kind     Kind
	Body     []byte
	OriginID string
}

// Validate checks the fields a repository needs before it can insert
func (n NewRecord) Validate() error {
	if n.Name == "" {
		return errors.New("name cannot be empty")
	}
	if strings.ContainsAny(n.Name, `/\`) || strings.Contains(n.Name, "..") {
		return fmt.Errorf("name %q must not contain path separators or '..'", n.Name)
	}
	if utf8.RuneCountInString(n.Name) > MaxNameLen {
		return fmt.Errorf("name exceeds %d characters", MaxNameLen)
	}
	if n.Kind == "" {
		return errors.New("kind cannot be empty")
	}
	return nil
}

// Digest returns the lowercase hex sha256 of body.
// The same function is used at ingest and at verification time.
func Digest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// ShortDigest truncates a digest to ShortDigestLen characters
func ShortDigest(digest string) string {
	if len(digest) <= ShortDigestLen {
		return digest
	}
	return digest[:ShortDigestLen]
}

// ContentFileName is the deterministic file name for a body: <name>_<digest8><ext>
func ContentFileName(name string, kind Kind, digest string) string {
	return name + "_" + ShortDigest(digest) + kind.Extension()
}
