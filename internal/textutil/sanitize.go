// Package textutil holds small string-shaping helpers shared by the ripper,
// the identifier, and the file mover: disc-title-to-filename sanitization
// and Unicode normalization.
package textutil

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// forbiddenFileChars are characters common library filesystems (and MakeMKV
// itself) reject in a path component.
const forbiddenFileChars = `<>:"/\|?*`

// SanitizeFileName normalizes s to NFC and strips characters disallowed by
// common library filesystems, then trims surrounding dots and whitespace.
// An all-forbidden input collapses to the empty string; callers substitute
// a fallback name in that case.
func SanitizeFileName(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(forbiddenFileChars, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), " .")
}
