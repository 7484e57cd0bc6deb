package preflight

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"discpipe/internal/config"
)

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable/executable by the current process.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckBinaries evaluates the external tools the pipeline shells out to.
// bd_info is optional: it only improves disc metadata when a MakeMKV title
// is generic, so its absence is reported but never treated as a failure.
func CheckBinaries(cfg *config.Config) []Result {
	type requirement struct {
		name     string
		command  string
		optional bool
	}
	requirements := []requirement{
		{name: "MakeMKV", command: cfg.MakemkvBinary()},
		{name: "HandBrakeCLI", command: cfg.HandbrakeBinary()},
		{name: "ffprobe", command: cfg.FFprobeBinary()},
		{name: "bd_info", command: "bd_info", optional: true},
	}

	results := make([]Result, 0, len(requirements))
	for _, req := range requirements {
		path, err := exec.LookPath(req.command)
		if err != nil {
			if req.optional {
				results = append(results, Result{Name: req.name, Passed: true, Detail: fmt.Sprintf("%s not found on PATH (optional)", req.command)})
				continue
			}
			results = append(results, Result{Name: req.name, Detail: fmt.Sprintf("%s not found on PATH", req.command)})
			continue
		}
		results = append(results, Result{Name: req.name, Passed: true, Detail: path})
	}
	return results
}

// CheckCatalog verifies the catalog API is reachable with a lightweight
// request, using a 5-second timeout and no retries.
func CheckCatalog(ctx context.Context, baseURL, token string) Result {
	const name = "Catalog"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "missing token"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/configuration", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable: %v", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "reachable"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}
}
