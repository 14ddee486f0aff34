// Package config loads and validates photoaudit configuration.
//
// Configuration comes from a TOML file resolved from an explicit path,
// ~/.config/photoaudit/config.toml, or photoaudit.toml in the working
// directory. Defaults cover everything except the [firebase] section, which
// every command needs to reach the project.
package config
