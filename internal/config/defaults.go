package config

import "time"

const (
	defaultLibraryDir              = "~/.local/share/clipforge/library"
	defaultLogDir                  = "~/.local/share/clipforge/logs"
	defaultAPIBind                 = "127.0.0.1:7519"
	defaultClipLengthSeconds       = 120
	defaultMinClipBytes            = 1024
	defaultProbeTimeoutSeconds     = 60
	defaultTranscodeTimeoutSeconds = 600
	defaultStaleJobTimeoutSeconds  = 600
	defaultWorkers                 = 2
	defaultLogFormat               = "console"
	defaultLogLevel                = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Pipeline: Pipeline{
			ClipLengthSeconds:       defaultClipLengthSeconds,
			MinClipBytes:            defaultMinClipBytes,
			ProbeTimeoutSeconds:     defaultProbeTimeoutSeconds,
			TranscodeTimeoutSeconds: defaultTranscodeTimeoutSeconds,
			StaleJobTimeoutSeconds:  defaultStaleJobTimeoutSeconds,
			Workers:                 defaultWorkers,
		},
		Logging: Logging{
			LogFormat: defaultLogFormat,
			LogLevel:  defaultLogLevel,
		},
	}
}

// ProbeTimeout returns the prober timeout as a duration.
func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

// TranscodeTimeout returns the transcoder timeout as a duration.
func (c *Config) TranscodeTimeout() time.Duration {
	return time.Duration(c.TranscodeTimeoutSeconds) * time.Second
}

// StaleJobTimeout returns the crash-recovery staleness window as a duration.
func (c *Config) StaleJobTimeout() time.Duration {
	return time.Duration(c.StaleJobTimeoutSeconds) * time.Second
}
