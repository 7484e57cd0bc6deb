package preflight

import (
	"context"

	"discpipe/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the applicable preflight checks for cfg: required
// external binaries, and the directories the supervisor will read and
// write before any worker accepts a job.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Workspace root", cfg.WorkspaceRoot))
	results = append(results, CheckDirectoryAccess("Movies library", cfg.MoviesLibraryRoot))
	results = append(results, CheckDirectoryAccess("TV library", cfg.TVLibraryRoot))

	for _, result := range CheckBinaries(cfg) {
		results = append(results, result)
	}

	if cfg.CatalogEnabled() {
		results = append(results, CheckCatalog(ctx, cfg.CatalogBaseURL, cfg.CatalogToken))
	}

	return results
}
