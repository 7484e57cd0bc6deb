package textutil_test

import (
	"testing"

	"discpipe/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"A:B/C?":              "ABC",
		"  leading and dots.": "leading and dots",
		"The Matrix":          "The Matrix",
		"":                    "",
	}
	for input, want := range cases {
		if got := textutil.SanitizeFileName(input); got != want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", input, got, want)
		}
	}
}
