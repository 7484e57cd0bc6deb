package mover

import (
	"fmt"
	"path/filepath"
	"strings"

	"discpipe/internal/textutil"
)

// fallbackTitle is substituted when sanitization collapses a title to the
// empty string (e.g. a title made entirely of forbidden characters).
const fallbackTitle = "Untitled"

// MoviePath returns the destination path for a movie: a per-title folder
// under root holding a single file named the same way.
//
//	<root>/<Title> (<Year>)/<Title> (<Year>).<ext>
func MoviePath(root, title string, year int, ext string) string {
	name := movieBaseName(title, year)
	ext = strings.TrimPrefix(ext, ".")
	folder := filepath.Join(root, name)
	return filepath.Join(folder, name+"."+ext)
}

func movieBaseName(title string, year int) string {
	clean := textutil.SanitizeFileName(title)
	if clean == "" {
		clean = fallbackTitle
	}
	if year > 0 {
		return fmt.Sprintf("%s (%d)", clean, year)
	}
	return clean
}

// TVEpisodePath returns the destination path for a TV episode. The
// multi-disc/episode-matching lifecycle that would populate season and
// episode numbers is out of scope for the core; this contract is kept so a
// future extension has a stable naming target.
//
//	<root>/<Show>/<Show> - S<NN>E<NN> - <Title>.<ext>
func TVEpisodePath(root, show string, season, episode int, title string, ext string) string {
	cleanShow := textutil.SanitizeFileName(show)
	if cleanShow == "" {
		cleanShow = fallbackTitle
	}
	cleanTitle := textutil.SanitizeFileName(title)
	ext = strings.TrimPrefix(ext, ".")
	fileName := fmt.Sprintf("%s - S%02dE%02d", cleanShow, season, episode)
	if cleanTitle != "" {
		fileName += " - " + cleanTitle
	}
	return filepath.Join(root, cleanShow, fileName+"."+ext)
}
