package main

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"

	"discpipe/internal/queue"
)

func formatIntPtr(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func formatInt64Ptr(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func formatConfidence(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func formatOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// formatRelativeTime renders a timestamp as a short human-relative string
// ("3 minutes ago"), matching the CLI's general preference for readable
// output over raw RFC3339 strings.
func formatRelativeTime(j *queue.Job) string {
	return humanize.Time(j.UpdatedAt)
}

func formatTitle(j *queue.Job) string {
	if j.IdentifiedTitle == "" {
		return "-"
	}
	if j.IdentifiedYear != nil {
		return fmt.Sprintf("%s (%d)", j.IdentifiedTitle, *j.IdentifiedYear)
	}
	return j.IdentifiedTitle
}
