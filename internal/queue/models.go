package queue

import "time"

// Status is the lifecycle state of a Job. The legal transitions between
// statuses are enforced by Store.UpdateJobStatus and are listed in the
// transitions table in store_transitions.go.
type Status string

const (
	StatusPending     Status = "pending"
	StatusRipping     Status = "ripping"
	StatusRipped      Status = "ripped"
	StatusEncoding    Status = "encoding"
	StatusEncoded     Status = "encoded"
	StatusIdentifying Status = "identifying"
	StatusReview      Status = "review"
	StatusMoving      Status = "moving"
	StatusComplete    Status = "complete"
	StatusFailed      Status = "failed"
	StatusArchived    Status = "archived"
)

// terminalStatuses are statuses that never transition except via Archive.
var terminalStatuses = map[Status]bool{
	StatusComplete: true,
	StatusFailed:   true,
	StatusArchived: true,
}

// IsTerminal reports whether s is one of the statuses archive applies to,
// or archived itself.
func (s Status) IsTerminal() bool {
	return terminalStatuses[s]
}

// ContentType classifies what a Job was identified as.
type ContentType string

const (
	ContentUnknown  ContentType = "unknown"
	ContentMovie    ContentType = "movie"
	ContentTVSeason ContentType = "tv_season"
)

// Job is the central entity: one row per inserted disc.
type Job struct {
	ID     int64
	Status Status

	DriveID   string
	DiscLabel string

	ContentType     ContentType
	IdentifiedTitle string
	IdentifiedYear  *int
	CatalogID       *int64
	Confidence      *float64
	PosterRef       string

	RipPath    string
	EncodePath string
	FinalPath  string

	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsProcessing reports whether the job is actively owned by a worker
// (as opposed to waiting, under review, or terminal).
func (j *Job) IsProcessing() bool {
	switch j.Status {
	case StatusRipping, StatusEncoding, StatusIdentifying, StatusMoving:
		return true
	default:
		return false
	}
}

// CollectionItem records a successfully moved title. Written only by the
// file mover; read by the UI and duplicate checks. Never mutated in place.
type CollectionItem struct {
	ID          int64
	ContentType ContentType
	Title       string
	Year        *int
	CatalogID   *int64
	FinalPath   string
	AddedAt     time.Time
}

// WantedItem is user-maintained and independent of jobs.
type WantedItem struct {
	ID          int64
	Title       string
	Year        *int
	ContentType ContentType
	CatalogID   *int64
	PosterRef   string
	Notes       string
	AddedAt     time.Time
}

// HealthSummary is an aggregate queue diagnostic used by the control
// surface and the CLI.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Failed     int
	Review     int
	Completed  int
}

// RepairEvent records a single oversight repair action for later
// inspection via oversight_history. It is append-only: oversight never
// edits or deletes a past entry, only adds new ones.
type RepairEvent struct {
	ID            int64
	Kind          string
	Message       string
	JobIDs        []int64
	RepairedCount int
	OccurredAt    time.Time
}
