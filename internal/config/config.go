package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Config encapsulates all configuration values for discpipe.
type Config struct {
	WorkspaceRoot     string `toml:"workspace_root"`
	MoviesLibraryRoot string `toml:"movies_library_root"`
	TVLibraryRoot     string `toml:"tv_library_root"`

	DriveIDs           []string `toml:"drive_ids"`
	DrivePollInterval  int      `toml:"drive_poll_interval"`
	DiscProbeBackend   string   `toml:"disc_probe_backend"`

	AutoApproveThreshold float64 `toml:"auto_approve_threshold"`

	CatalogToken   string `toml:"catalog_token"`
	CatalogBaseURL string `toml:"catalog_base_url"`
	CatalogTimeout int    `toml:"catalog_timeout"`

	NotifyUserKey   string `toml:"notify_user_key"`
	NotifyAppToken  string `toml:"notify_app_token"`
	NotifyBaseURL   string `toml:"notify_base_url"`
	NotifyTimeout   int    `toml:"notify_timeout"`

	APIBind string `toml:"api_bind"`

	MakeMKVRipTimeout  int `toml:"makemkv_rip_timeout"`
	HandBrakeTimeout   int `toml:"handbrake_timeout"`

	HeartbeatInterval int `toml:"heartbeat_interval"`
	HeartbeatTimeout  int `toml:"heartbeat_timeout"`

	StaleRippingHours    int `toml:"stale_ripping_hours"`
	StaleEncodingHours   int `toml:"stale_encoding_hours"`
	StaleIdentifyMinutes int `toml:"stale_identify_minutes"`

	LogFormat string `toml:"log_format"`
	LogLevel  string `toml:"log_level"`
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		WorkspaceRoot:        defaultWorkspaceRoot,
		MoviesLibraryRoot:    defaultMoviesLibraryRoot,
		TVLibraryRoot:        defaultTVLibraryRoot,
		DrivePollInterval:    defaultDrivePollInterval,
		DiscProbeBackend:     "poll",
		AutoApproveThreshold: defaultAutoApproveThresh,
		CatalogBaseURL:       defaultCatalogBaseURL,
		CatalogTimeout:       defaultCatalogTimeout,
		NotifyBaseURL:        defaultNotifyBaseURL,
		NotifyTimeout:        defaultNotifyTimeout,
		APIBind:              defaultAPIBind,
		MakeMKVRipTimeout:    defaultMakeMKVRipTimeout,
		HandBrakeTimeout:     defaultHandBrakeTimeout,
		HeartbeatInterval:    defaultHeartbeatInterval,
		HeartbeatTimeout:     defaultHeartbeatTimeout,
		StaleRippingHours:    defaultStaleRippingHours,
		StaleEncodingHours:   defaultStaleEncodingHours,
		StaleIdentifyMinutes: defaultStaleIdentifyMins,
		LogFormat:            defaultLogFormat,
		LogLevel:             defaultLogLevel,
	}
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/discpipe/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. If path is empty, the
// default config path is used when present, falling back to
// ./discpipe.toml, falling back to built-in defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/discpipe/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("discpipe.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the workspace layout discpipe expects:
// staging/, encoding/, logs/, data/ under the workspace root, plus both
// library roots.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.WorkspaceRoot,
		filepath.Join(c.WorkspaceRoot, "staging"),
		filepath.Join(c.WorkspaceRoot, "encoding"),
		filepath.Join(c.WorkspaceRoot, "logs"),
		filepath.Join(c.WorkspaceRoot, "data"),
		c.MoviesLibraryRoot,
		c.TVLibraryRoot,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the path to the job store database under the
// workspace root.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.WorkspaceRoot, "data", "queue.db")
}

// StagingDir returns the per-job staging directory for id.
func (c *Config) StagingDir(id int64) string {
	return filepath.Join(c.WorkspaceRoot, "staging", fmt.Sprintf("job_%d", id))
}

// EncodingDir returns the per-job encoding directory for id.
func (c *Config) EncodingDir(id int64) string {
	return filepath.Join(c.WorkspaceRoot, "encoding", fmt.Sprintf("job_%d", id))
}

// LogDir returns the log directory under the workspace root.
func (c *Config) LogDir() string {
	return filepath.Join(c.WorkspaceRoot, "logs")
}

// CatalogEnabled reports whether catalog lookups are configured.
func (c *Config) CatalogEnabled() bool {
	return strings.TrimSpace(c.CatalogToken) != ""
}

// NotifyEnabled reports whether notifications are configured.
func (c *Config) NotifyEnabled() bool {
	return strings.TrimSpace(c.NotifyUserKey) != "" && strings.TrimSpace(c.NotifyAppToken) != ""
}

// MakemkvBinary returns the MakeMKV executable name.
func (c *Config) MakemkvBinary() string { return "makemkvcon" }

// HandbrakeBinary returns the HandBrakeCLI executable name.
func (c *Config) HandbrakeBinary() string { return "HandBrakeCLI" }

// FFprobeBinary returns the ffprobe executable name that preflight looks
// up on PATH.
func (c *Config) FFprobeBinary() string { return "ffprobe" }

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other
// packages (the CLI's config commands use it to resolve a config path).
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified
// location.
func CreateSample(path string) error {
	sample := `# discpipe configuration
# =======================
# Edit the REQUIRED settings below, then customize optional settings as needed.

# ============================================================================
# REQUIRED SETTINGS
# ============================================================================

workspace_root      = "~/DVDWorkspace"             # Parent of staging/encoding/logs/data
movies_library_root = "~/DVDWorkspace/library/movies"
tv_library_root      = "~/DVDWorkspace/library/tv"

# Opaque drive identifiers to poll (e.g. device paths or /dev/disk/by-id entries)
drive_ids = ["/dev/sr0"]

# ============================================================================
# CATALOG & NOTIFICATIONS (optional; disabled when empty)
# ============================================================================

catalog_token      = ""                            # Disables catalog lookups when empty
catalog_base_url   = "https://api.themoviedb.org/3"
catalog_timeout    = 10

notify_user_key  = ""                              # Disables notifications when either is empty
notify_app_token = ""
notify_base_url  = "https://ntfy.sh"
notify_timeout   = 10

# ============================================================================
# WORKFLOW TUNING
# ============================================================================

drive_poll_interval      = 15                       # seconds between disc probes per drive
disc_probe_backend       = "poll"                   # "poll" or "udev"
auto_approve_threshold   = 0.85                     # confidence >= threshold auto-approves
makemkv_rip_timeout      = 3600                      # seconds
handbrake_timeout        = 14400                     # seconds
heartbeat_interval       = 15                        # seconds
heartbeat_timeout        = 120                       # seconds
stale_ripping_hours      = 4
stale_encoding_hours     = 8
stale_identify_minutes   = 60

# ============================================================================
# CONTROL SURFACE & LOGGING
# ============================================================================

api_bind   = "127.0.0.1:7487"
log_format = "console"                              # "console" or "json"
log_level  = "info"                                 # debug, info, warn, error
`

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
