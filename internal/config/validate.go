package config

import (
	"errors"
	"fmt"
	"strings"

	"photoaudit/internal/profiles"
)

// ValidationError aggregates every problem found in one pass so users can fix
// their file once instead of replaying failures.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "config: " + e.Problems[0]
	}
	return fmt.Sprintf("config: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	var problems []string

	if c.Firebase.ProjectID == "" {
		problems = append(problems, "firebase.project_id is required")
	}
	if c.Firebase.Bucket == "" {
		problems = append(problems, "firebase.bucket is required")
	}
	if c.Photos.Prefix == "" {
		problems = append(problems, "photos.prefix must not be empty")
	}
	if _, err := profiles.ParseSource(c.Photos.ProfileSource); err != nil {
		problems = append(problems, fmt.Sprintf("photos.profile_source: unsupported value %q", c.Photos.ProfileSource))
	}
	if c.Run.Workers < 1 {
		problems = append(problems, "run.workers must be at least 1")
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format: unsupported value %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level: unsupported value %q", c.Logging.Level))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// IsValidation reports whether err is a config validation failure.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
