// Package logging constructs the slog loggers used across photoaudit.
//
// Two formats are supported: a compact console format for interactive runs
// and JSON for log shipping. When a log directory is configured, output is
// mirrored into photoaudit.log there.
package logging
