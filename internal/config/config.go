// SPDX-License-Identifier: MPL-2.0

// Package config resolves lola's directory layout and settings.
//
// The lola home defaults to ~/.lola and can be overridden with the
// LOLA_HOME environment variable (bound through viper). Everything lola
// owns lives under the home: the module registry, the installation ledger,
// and marketplace state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "lola"

	// InstalledFileName is the installation ledger filename under the home.
	InstalledFileName = "installed.yml"
)

// homeOverride allows tests to redirect the lola home.
var homeOverride string

func init() {
	viper.SetEnvPrefix(strings.ToUpper(AppName))
	viper.AutomaticEnv()
}

// SetHomeOverride redirects the lola home for tests. Pass "" to restore the
// default resolution.
func SetHomeOverride(dir string) { homeOverride = dir }

// Home returns the lola home directory.
func Home() (string, error) {
	if homeOverride != "" {
		return homeOverride, nil
	}
	if dir := viper.GetString("home"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, "."+AppName), nil
}

// ModulesDir returns the module registry directory.
func ModulesDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "modules"), nil
}

// InstalledFile returns the installation ledger path.
func InstalledFile() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, InstalledFileName), nil
}

// MarketDir returns the marketplace reference directory.
func MarketDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "market"), nil
}

// MarketCacheDir returns the marketplace catalog cache directory.
func MarketCacheDir() (string, error) {
	home, err := Home()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "market", "cache"), nil
}

// LocalModulesDir returns the project-local module copy directory for a
// project path.
func LocalModulesDir(projectPath string) string {
	return filepath.Join(projectPath, "."+AppName, "modules")
}

// EnsureDirs creates the home and registry directories if absent.
func EnsureDirs() error {
	dir, err := ModulesDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating modules directory: %w", err)
	}
	return nil
}
