// Package subnet persists the three-octet LAN prefix the AOG UDP codec
// broadcasts to and binds against (spec.md §3, §4.5).
package subnet

import (
	"encoding/json"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

const (
	productDir  = "AOG-TaskController"
	settingsFile = "settings.json"
)

// Config is the persisted subnet prefix.
type Config struct {
	A, B, C byte
}

// Default is used when no settings file exists or it fails to parse
// (spec.md §4.5).
func Default() Config {
	return Config{192, 168, 1}
}

type document struct {
	Subnet [3]byte `json:"subnet"`
}

// Path returns the settings file path under the user's config directory.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, productDir, settingsFile), nil
}

// Load reads the persisted subnet, falling back to Default on a missing
// file or a parse error (spec.md §7: configuration errors are logged, not
// fatal).
func Load() Config {
	logger := log.WithField("service", "[SUBNET]")

	path, err := Path()
	if err != nil {
		logger.WithError(err).Warn("no user config directory, using default subnet")
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.WithError(err).Warn("failed to read settings file, using default subnet")
		}
		return Default()
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.WithError(err).Warn("failed to parse settings file, using default subnet")
		return Default()
	}
	return Config{doc.Subnet[0], doc.Subnet[1], doc.Subnet[2]}
}

// Save persists cfg, creating the product directory if needed. Errors are
// returned for the caller to log; a failed save never aborts a discovery
// rebind (spec.md §5: "last-writer-wins is acceptable").
func Save(cfg Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	doc := document{Subnet: [3]byte{cfg.A, cfg.B, cfg.C}}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
