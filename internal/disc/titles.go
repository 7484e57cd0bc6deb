package disc

import "errors"

// mainFeatureMinDuration is the minimum title length, in seconds, that
// qualifies a title as a plausible main feature on its own.
const mainFeatureMinDuration = 60 * 60

// ErrNoTitles is returned when a disc scan produced no titles at all.
var ErrNoTitles = errors.New("disc scan produced no titles")

// SelectMainTitle picks the title MakeMKV should rip as the main feature.
// Among titles at least mainFeatureMinDuration long it picks the longest;
// if none qualify it falls back to the longest title overall.
func SelectMainTitle(titles []Title) (Title, error) {
	if len(titles) == 0 {
		return Title{}, ErrNoTitles
	}

	var longestOverall Title
	haveOverall := false
	var longestQualifying Title
	haveQualifying := false

	for _, title := range titles {
		if !haveOverall || title.Duration > longestOverall.Duration {
			longestOverall = title
			haveOverall = true
		}
		if title.Duration >= mainFeatureMinDuration {
			if !haveQualifying || title.Duration > longestQualifying.Duration {
				longestQualifying = title
				haveQualifying = true
			}
		}
	}

	if haveQualifying {
		return longestQualifying, nil
	}
	return longestOverall, nil
}
