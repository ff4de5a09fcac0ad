package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrProbe marks failures of the external media prober or unparseable output.
	ErrProbe = errors.New("probe error")
	// ErrDurationUnknown marks assets whose duration could not be resolved.
	ErrDurationUnknown = errors.New("duration unknown")
	// ErrTranscode marks non-zero exits from the external transcoder.
	ErrTranscode = errors.New("transcode error")
	// ErrExternalTool marks generic external tool failures.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks rejected input or state preconditions.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks lookups for unknown assets or clips.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks external commands that exceeded their deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

// Message returns the human-readable portion of a wrapped error with the
// sentinel prefix stripped, suitable for persisting onto an asset record.
func Message(err error) string {
	if err == nil {
		return ""
	}
	text := err.Error()
	for _, marker := range []error{ErrProbe, ErrDurationUnknown, ErrTranscode, ErrExternalTool, ErrValidation, ErrConfiguration, ErrNotFound, ErrTimeout} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(text, prefix) {
			return strings.TrimPrefix(text, prefix)
		}
	}
	return text
}
