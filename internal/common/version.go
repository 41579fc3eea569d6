package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Version information (set via -ldflags during build)
var (
	Version   = "dev"
	Build     = "unknown"
	GitCommit = "unknown"
)

// GetVersion returns the current version string, preferring a .version
// file next to the executable when one exists
func GetVersion() string {
	if exePath, err := os.Executable(); err == nil {
		versionFile := filepath.Join(filepath.Dir(exePath), ".version")
		if data, err := os.ReadFile(versionFile); err == nil {
			if v := strings.TrimSpace(string(data)); v != "" {
				Version = v
			}
		}
	}
	return Version
}

// GetFullVersion returns version with build info
func GetFullVersion() string {
	return fmt.Sprintf("%s (build: %s, commit: %s)", GetVersion(), Build, GitCommit)
}
