package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/0x-auth/artreg/internal/domain/artifact"
	"golang.org/x/text/unicode/norm"
)

// DeriveName picks an advisory name for a candidate body.
//
// Shell and python bodies use their first comment line as a label. Other
// kinds, and bodies whose label sanitizes to nothing, get
// <kind>_artifact_<YYYYMMDD>.
func DeriveName(kind artifact.Kind, body string, now time.Time) string {
	if kind == artifact.KindShell || kind == artifact.KindPython {
		if label := firstCommentLabel(body); label != "" {
			if name := SanitizeName(label); name != "" {
				return name
			}
		}
	}
	return fmt.Sprintf("%s_artifact_%s", kind, now.Format("20060102"))
}

// SanitizeName reduces s to letters, digits, '_' and '-'.
// Whitespace runs become a single '_'. The result is capped at
// artifact.MaxNameLen characters.
func SanitizeName(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Join(strings.Fields(s), "_")

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	name := strings.Trim(b.String(), "_")
	// Only ASCII survives the filter, so byte and rune lengths agree
	if len(name) > artifact.MaxNameLen {
		name = strings.TrimRight(name[:artifact.MaxNameLen], "_")
	}
	return name
}

// firstCommentLabel returns the text of the first '#' comment, skipping a shebang
func firstCommentLabel(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "#!") {
			continue
		}
		return strings.TrimSpace(strings.TrimLeft(trimmed, "#"))
	}
	return ""
}
