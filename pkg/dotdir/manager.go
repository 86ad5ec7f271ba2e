// Package dotdir manages the .fable/ and ~/.fable directories.
//
// Besides configuration, the directory holds the bookmark state: the book a
// reader last left off in, persisted as a JSON file so chat sessions can
// resume the same story.
package dotdir

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// dirName is the name of the fable directory.
	dirName = ".fable"
)

type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

// Target returns the target absolute path to a .fable/ directory.
// Order of precedence is as follows:
//  1. Provided override
//  2. Local ./.fable/ dir
//  3. Home ~/.fable/ dir
//  4. If none found, attempt to create ~/.fable/ dir
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
		return "", fmt.Errorf("creating fable directory %s: %w", dir, err)
	}

	return filepath.Abs(dir)
}

// DataDir returns the absolute path to the data directory under the resolved
// .fable/ directory, creating it if needed. Book, persona, and prompt files
// live beneath it.
func (m *Manager) DataDir(overrideDir string) (string, error) {
	dir, err := m.Target(overrideDir)
	if err != nil {
		return "", err
	}

	dataDir := filepath.Join(dir, "data")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dataDir, err)
	}

	return dataDir, nil
}

// localDirExists checks whether a .fable/ directory exists in the current
// working directory.
func (m *Manager) localDirExists() bool {
	cwd, err := os.Getwd()
	if err != nil {
		return false
	}

	info, err := os.Stat(filepath.Join(cwd, dirName))
	return err == nil && info.IsDir()
}
