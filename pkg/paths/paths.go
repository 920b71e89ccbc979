// Package paths centralizes filesystem locations for devprep following
// the XDG Base Directory specification.
package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	// AppDirName is the directory name used under each XDG base dir
	AppDirName = "devprep"

	// ConfigFileToml is the preferred config file name
	ConfigFileToml = "devprep.toml"

	// ConfigFileYaml is the alternate config file name
	ConfigFileYaml = "devprep.yaml"

	// LogFileName is the name of the log file
	LogFileName = "devprep.log"

	// EnvConfigDir overrides the XDG config directory for devprep
	EnvConfigDir = "DEVPREP_CONFIG_DIR"

	// SystemConfigDir is the machine-wide config location
	SystemConfigDir = "/etc/devprep"
)

// ConfigDir returns the user configuration directory for devprep.
func ConfigDir() string {
	if dir := os.Getenv(EnvConfigDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.ConfigHome, AppDirName)
}

// StateDir returns the state directory (log files live here).
func StateDir() string {
	return filepath.Join(xdg.StateHome, AppDirName)
}

// LogFilePath returns the path of the append-mode log file.
func LogFilePath() string {
	return filepath.Join(StateDir(), LogFileName)
}

// ConfigCandidates returns the config file paths that are consulted, in
// ascending precedence (system first, user last).
func ConfigCandidates() []string {
	return []string{
		filepath.Join(SystemConfigDir, ConfigFileToml),
		filepath.Join(SystemConfigDir, ConfigFileYaml),
		filepath.Join(ConfigDir(), ConfigFileToml),
		filepath.Join(ConfigDir(), ConfigFileYaml),
	}
}
