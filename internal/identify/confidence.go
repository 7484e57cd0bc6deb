// Package identify resolves an encoded job into a catalog match with a
// confidence score, or hands it off to a human reviewer.
package identify

import (
	"strings"

	"discpipe/internal/catalog"
)

// firstResultBonus is added to the top-ranked candidate's score.
const firstResultBonus = 0.15

// maxConfidence is the ceiling for an automatic match; 1.0 is reserved
// for a human assertion (pre_identify / identify).
const maxConfidence = 0.99

// popularityWeight is the linear contribution popularity makes once
// scaled to [0,1].
const popularityWeight = 0.1

// popularityScale divides a TMDb-shaped popularity figure down to
// roughly [0,1]; TMDb popularity commonly runs into the low hundreds.
const popularityScale = 100.0

// score rates how well candidate matches cleanedLabel. isFirst marks the
// top-ranked candidate returned by the catalog for the bonus in step 4.
func score(cleanedLabel string, candidate catalog.Candidate, isFirst bool) float64 {
	title := strings.ToLower(strings.TrimSpace(candidate.Title))
	label := strings.ToLower(strings.TrimSpace(cleanedLabel))

	var titleScore float64
	switch {
	case title == "" || label == "":
		titleScore = 0
	case title == label:
		titleScore = 0.9
	case strings.Contains(title, label) || strings.Contains(label, title):
		titleScore = 0.6
	default:
		titleScore = jaccard(label, title)
	}

	popularity := candidate.Popularity / popularityScale
	if popularity > 1 {
		popularity = 1
	}
	if popularity < 0 {
		popularity = 0
	}

	confidence := titleScore + popularity*popularityWeight
	if isFirst {
		confidence += firstResultBonus
	}
	if confidence < 0 {
		confidence = 0
	}
	if confidence > maxConfidence {
		confidence = maxConfidence
	}
	return confidence
}

// best picks the highest-scoring candidate among candidates for
// cleanedLabel. candidates is assumed ordered as returned by the catalog,
// so index 0 carries the first-result bonus.
func best(cleanedLabel string, candidates []catalog.Candidate) (catalog.Candidate, float64, bool) {
	if len(candidates) == 0 {
		return catalog.Candidate{}, 0, false
	}
	var bestCandidate catalog.Candidate
	var bestScore float64
	found := false
	for i, candidate := range candidates {
		s := score(cleanedLabel, candidate, i == 0)
		if !found || s > bestScore {
			bestCandidate = candidate
			bestScore = s
			found = true
		}
	}
	return bestCandidate, bestScore, found
}

// jaccard returns the token-overlap similarity of a and b: the size of
// their shared word set divided by the size of their combined word set.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	shared := 0
	for word := range setA {
		if setB[word] {
			shared++
		}
	}
	union := len(setA) + len(setB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func tokenSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
