package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.LibraryDir == "" {
		return errors.New("paths.library_dir must be set")
	}
	if c.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.APIBind == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.ClipLengthSeconds <= 0 {
		return errors.New("pipeline.clip_length_seconds must be positive")
	}
	if c.MinClipBytes < 0 {
		return errors.New("pipeline.min_clip_bytes must not be negative")
	}
	if c.ProbeTimeoutSeconds <= 0 {
		return errors.New("pipeline.probe_timeout_seconds must be positive")
	}
	if c.TranscodeTimeoutSeconds <= 0 {
		return errors.New("pipeline.transcode_timeout_seconds must be positive")
	}
	if c.StaleJobTimeoutSeconds <= 0 {
		return errors.New("pipeline.stale_job_timeout_seconds must be positive")
	}
	if c.Workers <= 0 {
		return errors.New("pipeline.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.LogFormat)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
	return nil
}
