package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.WorkspaceRoot, err = expandPath(c.WorkspaceRoot); err != nil {
		return fmt.Errorf("workspace_root: %w", err)
	}
	if c.MoviesLibraryRoot, err = expandPath(c.MoviesLibraryRoot); err != nil {
		return fmt.Errorf("movies_library_root: %w", err)
	}
	if c.TVLibraryRoot, err = expandPath(c.TVLibraryRoot); err != nil {
		return fmt.Errorf("tv_library_root: %w", err)
	}

	c.APIBind = strings.TrimSpace(c.APIBind)
	if c.APIBind == "" {
		c.APIBind = defaultAPIBind
	}

	if c.DrivePollInterval <= 0 {
		c.DrivePollInterval = defaultDrivePollInterval
	}
	if c.AutoApproveThreshold <= 0 {
		c.AutoApproveThreshold = defaultAutoApproveThresh
	}

	c.DiscProbeBackend = strings.ToLower(strings.TrimSpace(c.DiscProbeBackend))
	switch c.DiscProbeBackend {
	case "":
		c.DiscProbeBackend = "poll"
	case "poll", "udev":
	default:
		return fmt.Errorf("disc_probe_backend: unsupported value %q", c.DiscProbeBackend)
	}

	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	switch c.LogFormat {
	case "":
		c.LogFormat = "console"
	case "console", "json":
	default:
		return fmt.Errorf("log_format: unsupported value %q", c.LogFormat)
	}

	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}

	if c.CatalogToken == "" {
		if value, ok := os.LookupEnv("DISCPIPE_CATALOG_TOKEN"); ok {
			c.CatalogToken = value
		}
	}
	c.CatalogBaseURL = strings.TrimSpace(c.CatalogBaseURL)
	if c.CatalogBaseURL == "" {
		c.CatalogBaseURL = defaultCatalogBaseURL
	}
	if c.CatalogTimeout <= 0 {
		c.CatalogTimeout = defaultCatalogTimeout
	}

	if c.NotifyUserKey == "" {
		if value, ok := os.LookupEnv("DISCPIPE_NOTIFY_USER_KEY"); ok {
			c.NotifyUserKey = value
		}
	}
	if c.NotifyAppToken == "" {
		if value, ok := os.LookupEnv("DISCPIPE_NOTIFY_APP_TOKEN"); ok {
			c.NotifyAppToken = value
		}
	}
	c.NotifyBaseURL = strings.TrimSpace(c.NotifyBaseURL)
	if c.NotifyBaseURL == "" {
		c.NotifyBaseURL = defaultNotifyBaseURL
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = defaultNotifyTimeout
	}

	if c.MakeMKVRipTimeout <= 0 {
		c.MakeMKVRipTimeout = defaultMakeMKVRipTimeout
	}
	if c.HandBrakeTimeout <= 0 {
		c.HandBrakeTimeout = defaultHandBrakeTimeout
	}
	if c.HeartbeatInterval <= 0 {
		c.HeartbeatInterval = defaultHeartbeatInterval
	}
	if c.HeartbeatTimeout <= 0 {
		c.HeartbeatTimeout = defaultHeartbeatTimeout
	}
	if c.StaleRippingHours <= 0 {
		c.StaleRippingHours = defaultStaleRippingHours
	}
	if c.StaleEncodingHours <= 0 {
		c.StaleEncodingHours = defaultStaleEncodingHours
	}
	if c.StaleIdentifyMinutes <= 0 {
		c.StaleIdentifyMinutes = defaultStaleIdentifyMins
	}

	cleaned := make([]string, 0, len(c.DriveIDs))
	seen := make(map[string]struct{}, len(c.DriveIDs))
	for _, id := range c.DriveIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		cleaned = append(cleaned, id)
	}
	c.DriveIDs = cleaned

	return nil
}
