package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is internally consistent. It does not
// require catalog or notification credentials — those boundaries degrade
// gracefully to disabled when unset, per the external interface contract.
func (c *Config) Validate() error {
	if c.WorkspaceRoot == "" {
		return errors.New("workspace_root must be set")
	}
	if c.MoviesLibraryRoot == "" {
		return errors.New("movies_library_root must be set")
	}
	if c.TVLibraryRoot == "" {
		return errors.New("tv_library_root must be set")
	}
	if c.AutoApproveThreshold < 0 || c.AutoApproveThreshold > 1 {
		return errors.New("auto_approve_threshold must be between 0 and 1")
	}
	if err := ensurePositiveMap(map[string]int{
		"drive_poll_interval":    c.DrivePollInterval,
		"makemkv_rip_timeout":    c.MakeMKVRipTimeout,
		"handbrake_timeout":      c.HandBrakeTimeout,
		"catalog_timeout":        c.CatalogTimeout,
		"notify_timeout":         c.NotifyTimeout,
		"heartbeat_interval":     c.HeartbeatInterval,
		"heartbeat_timeout":      c.HeartbeatTimeout,
		"stale_ripping_hours":    c.StaleRippingHours,
		"stale_encoding_hours":   c.StaleEncodingHours,
		"stale_identify_minutes": c.StaleIdentifyMinutes,
	}); err != nil {
		return err
	}
	if c.HeartbeatTimeout <= c.HeartbeatInterval {
		return errors.New("heartbeat_timeout must be greater than heartbeat_interval")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
