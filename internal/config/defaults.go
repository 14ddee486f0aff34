package config

import (
	"os"
	"path/filepath"
	"strings"

	"photoaudit/internal/naming"
)

const (
	defaultRejectedSummary = "No se reconocio la planta del pie."
	defaultRejectedMessage = "No se reconocio la planta del pie."
)

// Default returns the configuration used before any file is applied.
func Default() Config {
	return Config{
		Photos: Photos{
			Prefix:          naming.KeyRoot,
			ProfileSource:   "users",
			SetToken:        true,
			RejectedSummary: defaultRejectedSummary,
			RejectedMessage: defaultRejectedMessage,
		},
		Run: Run{
			Workers: 1,
			LockDir: defaultStateDir("lock"),
		},
		Output: Output{
			ReportDir: defaultStateDir("reports"),
			BackupDir: defaultStateDir("backups"),
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}

func defaultStateDir(sub string) string {
	if base, ok := os.LookupEnv("XDG_STATE_HOME"); ok && strings.TrimSpace(base) != "" {
		return filepath.Join(base, "photoaudit", sub)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("~", ".local", "state", "photoaudit", sub)
	}
	return filepath.Join(home, ".local", "state", "photoaudit", sub)
}
