package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"discpipe/internal/config"
)

func TestLoadDefaultConfigExpandsPathsUnderHome(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	want := filepath.Join(tempHome, "DVDWorkspace")
	if cfg.WorkspaceRoot != want {
		t.Fatalf("unexpected workspace root: got %q want %q", cfg.WorkspaceRoot, want)
	}
	if cfg.DrivePollInterval != 15 {
		t.Fatalf("expected default drive poll interval 15, got %d", cfg.DrivePollInterval)
	}
	if cfg.AutoApproveThreshold != 0.85 {
		t.Fatalf("expected default auto-approve threshold 0.85, got %v", cfg.AutoApproveThreshold)
	}
	if cfg.CatalogEnabled() {
		t.Fatal("expected catalog disabled with no token")
	}
	if cfg.NotifyEnabled() {
		t.Fatal("expected notifications disabled with no credentials")
	}
}

func TestLoadReadsTOMLFileAndDedupesDriveIDs(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	path := filepath.Join(tempHome, "discpipe.toml")
	contents := `
workspace_root = "~/workspace"
movies_library_root = "~/library/movies"
tv_library_root = "~/library/tv"
drive_ids = ["/dev/sr0", "/dev/sr0", "/dev/sr1"]
catalog_token = "token-123"
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be detected")
	}
	if len(cfg.DriveIDs) != 2 {
		t.Fatalf("expected drive ids deduped to 2, got %v", cfg.DriveIDs)
	}
	if !cfg.CatalogEnabled() {
		t.Fatal("expected catalog enabled with token set")
	}
}

func TestValidateRejectsOutOfRangeThreshold(t *testing.T) {
	cfg := config.Default()
	cfg.WorkspaceRoot = "/tmp/ws"
	cfg.MoviesLibraryRoot = "/tmp/movies"
	cfg.TVLibraryRoot = "/tmp/tv"
	cfg.AutoApproveThreshold = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range threshold")
	}
}

func TestEnsureDirectoriesCreatesWorkspaceLayout(t *testing.T) {
	root := t.TempDir()
	cfg := config.Default()
	cfg.WorkspaceRoot = filepath.Join(root, "workspace")
	cfg.MoviesLibraryRoot = filepath.Join(root, "movies")
	cfg.TVLibraryRoot = filepath.Join(root, "tv")

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}

	for _, dir := range []string{"staging", "encoding", "logs", "data"} {
		if info, err := os.Stat(filepath.Join(cfg.WorkspaceRoot, dir)); err != nil || !info.IsDir() {
			t.Fatalf("expected %s directory under workspace root: %v", dir, err)
		}
	}
}
