package store

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	EnvConfigDir = "CTBOARD_CONFIG_DIR"
	EnvAPIURL    = "CTBOARD_API_URL"
	EnvAPIToken  = "CTBOARD_API_TOKEN"

	settingsFileName = "settings.sqlite"
	profileFileName  = "board.yaml"
	logFileName      = "ctboard.log"
)

func ConfigDir() (string, error) {
	// Test/advanced override (keeps unit tests from touching ~/.ctboard).
	if v := strings.TrimSpace(os.Getenv(EnvConfigDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ctboard"), nil
}

func configFile(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func SettingsPath() (string, error) { return configFile(settingsFileName) }

func ProfilePath() (string, error) { return configFile(profileFileName) }

// LogPath is where the TUI writes its log unless told otherwise.
func LogPath() (string, error) { return configFile(logFileName) }

func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
