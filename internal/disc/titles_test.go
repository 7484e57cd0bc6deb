package disc

import (
	"errors"
	"testing"
)

func TestSelectMainTitlePrefersLongestQualifying(t *testing.T) {
	titles := []Title{
		{ID: 0, Duration: 120},
		{ID: 1, Duration: 6332},
		{ID: 2, Duration: 60},
	}

	got, err := SelectMainTitle(titles)
	if err != nil {
		t.Fatalf("SelectMainTitle: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected title index 1, got %d", got.ID)
	}
}

func TestSelectMainTitleFallsBackToLongestOverall(t *testing.T) {
	titles := []Title{
		{ID: 0, Duration: 300},
		{ID: 1, Duration: 1800},
		{ID: 2, Duration: 90},
	}

	got, err := SelectMainTitle(titles)
	if err != nil {
		t.Fatalf("SelectMainTitle: %v", err)
	}
	if got.ID != 1 {
		t.Fatalf("expected the longest title overall (index 1), got %d", got.ID)
	}
}

func TestSelectMainTitleNoTitlesFails(t *testing.T) {
	_, err := SelectMainTitle(nil)
	if !errors.Is(err, ErrNoTitles) {
		t.Fatalf("expected ErrNoTitles, got %v", err)
	}
}
