// utils.go: path helpers for configuration
package conf

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/tphakala/voicedetect/internal/logger"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml,
// in order: the working directory, then $HOME/.config/voicedetect.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".config", "voicedetect"))
	} else {
		GetLogger().Debug("home directory unavailable, skipping user config path", logger.Error(err))
	}
	return paths
}

// ValidateToolPath resolves an external tool. A configured path that exists
// is used as is; otherwise the tool is looked up on PATH. When neither works
// the bare tool name is returned so the failure surfaces at first use.
func ValidateToolPath(configuredPath, toolName string) string {
	if configuredPath != "" {
		if info, err := os.Stat(configuredPath); err == nil && !info.IsDir() {
			return configuredPath
		}
		GetLogger().Warn("configured tool path invalid or not found, checking system PATH",
			logger.String("configured_path", configuredPath),
			logger.String("tool", toolName))
	}

	if found, err := exec.LookPath(toolName); err == nil {
		return found
	}

	GetLogger().Warn("tool not found, fallback decoding unavailable", logger.String("tool", toolName))
	if configuredPath != "" {
		return configuredPath
	}
	return toolName
}
