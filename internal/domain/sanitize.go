package domain

import (
	"regexp"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxFilenameLength caps the length of a sanitized filename segment
const MaxFilenameLength = 200

var (
	disallowedFilenameChars = regexp.MustCompile(`[^\w\s-]`)
	filenameSeparatorRuns   = regexp.MustCompile(`[-\s]+`)
)

// SanitizeFilename reduces an arbitrary title to a safe path segment.
// Accents are folded to their base letter, anything other than ASCII word
// characters, whitespace and hyphens is dropped, and separator runs become a
// single hyphen. The result is at most MaxFilenameLength bytes and
// SanitizeFilename(SanitizeFilename(s)) == SanitizeFilename(s).
func SanitizeFilename(s string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	out := disallowedFilenameChars.ReplaceAllString(folded, "")
	out = filenameSeparatorRuns.ReplaceAllString(out, "-")
	if len(out) > MaxFilenameLength {
		out = out[:MaxFilenameLength]
	}
	return out
}
