package locator

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/podhmo/go-tslint/fs"
)

// Markers are the files that identify a project root, in priority order.
var Markers = []string{".tslint.yaml", "tsconfig.json", "package.json", ".git"}

// Locator finds the project root and resolves paths relative to it.
type Locator struct {
	rootDir     string
	projectName string
	marker      string // the marker found at rootDir, empty if none
}

// New creates a new Locator by searching for one of the Markers.
// It starts searching from startPath and moves up the directory tree.
// If no marker is found, startPath itself is used as the root.
func New(startPath string, fsys fs.FS) (*Locator, error) {
	absPath, err := filepath.Abs(startPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for %s: %w", startPath, err)
	}
	if info, err := fsys.Stat(absPath); err == nil && !info.IsDir() {
		absPath = filepath.Dir(absPath)
	}

	rootDir, marker := findProjectRoot(absPath, fsys)
	if rootDir == "" {
		return &Locator{rootDir: absPath}, nil
	}

	l := &Locator{rootDir: rootDir, marker: marker}
	if content, err := fsys.ReadFile(filepath.Join(rootDir, "package.json")); err == nil {
		name, err := getProjectNameFromBytes(content)
		if err != nil {
			return nil, fmt.Errorf("failed to read project name from package.json in %s: %w", rootDir, err)
		}
		l.projectName = name
	}
	return l, nil
}

// RootDir returns the absolute path of the project root.
func (l *Locator) RootDir() string {
	return l.rootDir
}

// ProjectName returns the "name" of the root package.json, if any.
func (l *Locator) ProjectName() string {
	return l.projectName
}

// Marker returns the marker file that identified the root, or "" when the
// root is only the starting directory.
func (l *Locator) Marker() string {
	return l.marker
}

// Rel returns path relative to the project root, with forward slashes.
// Paths outside the root are returned cleaned but otherwise unchanged.
func (l *Locator) Rel(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(filepath.Clean(path))
	}
	rel, err := filepath.Rel(l.rootDir, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func findProjectRoot(dir string, fsys fs.FS) (string, string) {
	currentDir := dir
	for {
		for _, marker := range Markers {
			if _, err := fsys.Stat(filepath.Join(currentDir, marker)); err == nil {
				return currentDir, marker
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ""
		}
		currentDir = parentDir
	}
}

func getProjectNameFromBytes(content []byte) (string, error) {
	var pkg struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(content, &pkg); err != nil {
		return "", err
	}
	return pkg.Name, nil
}
