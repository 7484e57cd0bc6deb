package disc

import (
	"regexp"
	"strings"
)

// discMarkerPattern matches disc/DVD sequence markers such as "disc 1",
// "disc", "dvd2", and the bare "d1"/"d2" form, so they can be stripped as a
// unit before the remaining words are filtered individually.
var discMarkerPattern = regexp.MustCompile(`\b(?:disc|dvd)\s*\d*\b|\bd\d+\b`)

var formatTagWords = map[string]bool{
	"widescreen": true,
	"fullscreen": true,
	"ws":         true,
	"fs":         true,
	"16x9":       true,
	"ps":         true,
}

var regionRatingWords = map[string]bool{
	"ntsc":  true,
	"pal":   true,
	"rated": true,
	"pg":    true,
	"r1":    true,
	"r2":    true,
	"r3":    true,
	"r4":    true,
	"r5":    true,
	"r6":    true,
}

var fillerWords = map[string]bool{
	"movie":   true,
	"feature": true,
	"main":    true,
	"title":   true,
	"us":      true,
	"des":     true,
}

// CleanLabel normalizes a raw disc label into a search-ready title
// fragment: lowercased, underscores turned into spaces, disc-number
// markers, format tags, region/rating codes, and filler words removed,
// and whitespace collapsed. It never strips letters from inside a word
// that survives the word-level filter.
func CleanLabel(label string) string {
	cleaned := strings.ToLower(label)
	cleaned = strings.ReplaceAll(cleaned, "_", " ")
	cleaned = discMarkerPattern.ReplaceAllString(cleaned, " ")

	words := strings.Fields(cleaned)
	kept := make([]string, 0, len(words))
	for _, word := range words {
		if formatTagWords[word] || regionRatingWords[word] || fillerWords[word] {
			continue
		}
		kept = append(kept, word)
	}
	return strings.Join(kept, " ")
}

// IsUnusableLabel reports whether a raw disc label carries no identifiable
// content signal at all (empty, or cleans down to nothing), in which case
// the identifier should not bother querying the catalog and should route
// straight to an UNKNOWN result.
func IsUnusableLabel(label string) bool {
	return strings.TrimSpace(CleanLabel(label)) == ""
}
