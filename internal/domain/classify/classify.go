// Package classify extracts typed artifact candidates from a raw text blob.
//
// Two patterns are recognized. Fenced code blocks whose opening fence carries
// a known language tag yield one candidate each, in order of appearance. When
// the blob has no tagged fence but contains the Sentinel marker, the whole
// blob becomes a single text candidate. Anything else yields nothing.
package classify

import (
	"iter"
	"strings"

	"github.com/0x-auth/artreg/internal/domain/artifact"
)

// Sentinel marks framework-specific artifacts that carry no language tag
const Sentinel = "BAZINGA"

const fence = "```"

// Candidate is an artifact body extracted from a blob
type Candidate struct {
	Kind artifact.Kind
	Body string
}

// languageTags maps fence tags to artifact kinds
var languageTags = map[string]artifact.Kind{
	"shell":      artifact.KindShell,
	"sh":         artifact.KindShell,
	"bash":       artifact.KindShell,
	"zsh":        artifact.KindShell,
	"python":     artifact.KindPython,
	"py":         artifact.KindPython,
	"javascript": artifact.KindJavaScript,
	"js":         artifact.KindJavaScript,
	"typescript": artifact.KindTypeScript,
	"ts":         artifact.KindTypeScript,
	"json":       artifact.KindJSON,
	"html":       artifact.KindHTML,
	"css":        artifact.KindCSS,
}

// KindForTag returns the artifact kind for a fence language tag
func KindForTag(tag string) (artifact.Kind, bool) {
	k, ok := languageTags[strings.ToLower(strings.TrimSpace(tag))]
	return k, ok
}

// Classify scans blob and lazily yields candidates in order of appearance.
func Classify(blob string) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		found := false
		lines := strings.Split(blob, "\n")

		for i := 0; i < len(lines); i++ {
			tag, ok := openFence(lines[i])
			if !ok {
				continue
			}

			// Find the closing fence; an unterminated block runs to the end
			end := len(lines)
			for j := i + 1; j < len(lines); j++ {
				if isFence(lines[j]) {
					end = j
					break
				}
			}

			if kind, known := KindForTag(tag); known {
				found = true
				body := strings.Join(lines[i+1:end], "\n")
				if !yield(Candidate{Kind: kind, Body: body}) {
					return
				}
			}
			i = end
		}

		if !found && strings.Contains(blob, Sentinel) {
			yield(Candidate{Kind: artifact.KindText, Body: blob})
		}
	}
}

// Collect drains Classify into a slice
func Collect(blob string) []Candidate {
	var out []Candidate
	for c := range Classify(blob) {
		out = append(out, c)
	}
	return out
}

// openFence reports whether line opens a fence and returns its tag
func openFence(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, fence) {
		return "", false
	}
	rest := strings.TrimLeft(trimmed, "`")
	if fields := strings.Fields(rest); len(fields) > 0 {
		return fields[0], true
	}
	return "", true
}

func isFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), fence)
}
