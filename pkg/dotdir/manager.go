// Package dotdir manages the .specialist/ and ~/.specialist directories that
// hold config.toml, credentials.toml, the usage log and the default memory
// store.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the specialist directory.
	dirName = ".specialist"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .specialist/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.specialist/ dir
//  3. Home ~/.specialist/ dir
//
// The resolved directory is created if it does not exist.
func (m *Manager) Target(overrideDir string) (string, error) {
	var dir string

	switch {
	case overrideDir != "":
		dir = overrideDir

	case m.localDirExists():
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting current directory: %w", err)
		}
		dir = filepath.Join(cwd, dirName)

	default:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		dir = filepath.Join(home, dirName)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating specialist directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// Join resolves the target directory and joins name onto it. Used for files
// and subdirectories that default to living in the dot directory, such as
// usage.json and memories/.
func (m *Manager) Join(overrideDir, name string) (string, error) {
	target, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}
	return filepath.Join(target, name), nil
}

// localDirExists checks whether a .specialist/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
