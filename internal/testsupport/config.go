package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"discpipe/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test
// and a loopback control surface bind address, and applies any provided
// options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.WorkspaceRoot = base
	cfgVal.MoviesLibraryRoot = filepath.Join(base, "library", "movies")
	cfgVal.TVLibraryRoot = filepath.Join(base, "library", "tv")
	cfgVal.APIBind = "127.0.0.1:0"
	cfgVal.CatalogToken = ""
	cfgVal.NotifyUserKey = ""
	cfgVal.NotifyAppToken = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithCatalogToken sets the catalog API token on the test config.
func WithCatalogToken(token string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CatalogToken = token
	}
}

// WithDriveIDs overrides the polled drive identifiers on the test config.
func WithDriveIDs(ids ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.DriveIDs = ids
	}
}

// WithStubbedBinaries writes no-op stub executables for the provided
// names and prepends them to PATH, so preflight/worker binary lookups
// succeed without the real tools installed. If names is empty, the
// default discpipe external binaries are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"makemkvcon", "HandBrakeCLI", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return cfg.WorkspaceRoot
}
