package fs

import (
	"bytes"
	"errors"
	i_fs "io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"
)

// FS is an interface abstracting the file system operations used by the linter.
// This allows for testable code by mocking the file system.
type FS interface {
	Stat(name string) (i_fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm i_fs.FileMode) error
	WalkDir(root string, fn i_fs.WalkDirFunc) error
	MkdirAll(path string, perm i_fs.FileMode) error
}

// osFS implements FS using the underlying os package. This is the default
// implementation used for real file system operations.
type osFS struct{}

// NewOSFS creates a new osFS instance.
func NewOSFS() FS {
	return &osFS{}
}

func (f *osFS) Stat(name string) (i_fs.FileInfo, error) {
	return os.Stat(name)
}

func (f *osFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (f *osFS) WriteFile(name string, data []byte, perm i_fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

func (f *osFS) WalkDir(root string, fn i_fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

func (f *osFS) MkdirAll(path string, perm i_fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// Overlay maps absolute file paths to in-memory content, e.g. unsaved
// editor buffers. Overlay files shadow the files on disk.
type Overlay map[string][]byte

// overlayFS serves Overlay content on top of a base FS.
// Writes to overlay paths update the overlay, not the disk.
type overlayFS struct {
	base    FS
	overlay Overlay
}

// NewOverlayFS returns an FS that consults overlay before base.
func NewOverlayFS(base FS, overlay Overlay) FS {
	cleaned := make(Overlay, len(overlay))
	for k, v := range overlay {
		cleaned[filepath.Clean(k)] = v
	}
	return &overlayFS{base: base, overlay: cleaned}
}

func (f *overlayFS) Stat(name string) (i_fs.FileInfo, error) {
	if content, ok := f.overlay[filepath.Clean(name)]; ok {
		return overlayFileInfo{name: filepath.Base(name), size: int64(len(content))}, nil
	}
	if f.isOverlayDir(name) {
		return overlayFileInfo{name: filepath.Base(name), dir: true}, nil
	}
	return f.base.Stat(name)
}

func (f *overlayFS) ReadFile(name string) ([]byte, error) {
	if content, ok := f.overlay[filepath.Clean(name)]; ok {
		return bytes.Clone(content), nil
	}
	return f.base.ReadFile(name)
}

func (f *overlayFS) WriteFile(name string, data []byte, perm i_fs.FileMode) error {
	key := filepath.Clean(name)
	if _, ok := f.overlay[key]; ok {
		f.overlay[key] = bytes.Clone(data)
		return nil
	}
	return f.base.WriteFile(name, data, perm)
}

// MkdirAll is a no-op for directories that only exist in the overlay.
func (f *overlayFS) MkdirAll(path string, perm i_fs.FileMode) error {
	if f.isOverlayDir(path) {
		return nil
	}
	return f.base.MkdirAll(path, perm)
}

// WalkDir walks root on the base FS and then visits the overlay files
// under root that do not exist on disk. Directories that only exist in the
// overlay are reported to fn before their files, so fn can skip them.
func (f *overlayFS) WalkDir(root string, fn i_fs.WalkDirFunc) error {
	root = filepath.Clean(root)
	seen := map[string]bool{}
	var skipped []string // directories fn returned SkipDir for
	stopped := false
	if _, err := f.base.Stat(root); err == nil {
		err := f.base.WalkDir(root, func(path string, d i_fs.DirEntry, err error) error {
			seen[filepath.Clean(path)] = true
			err = fn(path, d, err)
			switch {
			case errors.Is(err, filepath.SkipAll):
				stopped = true
			case errors.Is(err, filepath.SkipDir) && d != nil && d.IsDir():
				skipped = append(skipped, filepath.Clean(path))
			}
			return err
		})
		if err != nil {
			return err
		}
	}
	if stopped {
		return nil
	}

	var extra []string
	for path := range f.overlay {
		if seen[path] {
			continue
		}
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			extra = append(extra, path)
		}
	}
	sort.Strings(extra)

	isSkipped := func(path string) bool {
		for _, dir := range skipped {
			if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}

walk:
	for _, path := range extra {
		if isSkipped(path) {
			continue
		}
		for _, dir := range ancestors(root, path) {
			if seen[dir] {
				continue
			}
			seen[dir] = true
			info := overlayFileInfo{name: filepath.Base(dir), dir: true}
			if err := fn(dir, i_fs.FileInfoToDirEntry(info), nil); err != nil {
				switch {
				case errors.Is(err, filepath.SkipDir):
					skipped = append(skipped, dir)
					continue walk
				case errors.Is(err, filepath.SkipAll):
					return nil
				default:
					return err
				}
			}
		}

		info := overlayFileInfo{name: filepath.Base(path), size: int64(len(f.overlay[path]))}
		if err := fn(path, i_fs.FileInfoToDirEntry(info), nil); err != nil {
			switch {
			case errors.Is(err, filepath.SkipDir):
				// the remaining files of the directory are skipped
				skipped = append(skipped, filepath.Dir(path))
			case errors.Is(err, filepath.SkipAll):
				return nil
			default:
				return err
			}
		}
	}
	return nil
}

// ancestors returns the directories between root (inclusive) and path
// (exclusive), outermost first.
func ancestors(root, path string) []string {
	if path == root {
		return nil
	}
	var dirs []string
	for dir := filepath.Dir(path); dir != root && len(dir) > len(root); dir = filepath.Dir(dir) {
		dirs = append(dirs, dir)
	}
	dirs = append(dirs, root)
	slices.Reverse(dirs)
	return dirs
}

func (f *overlayFS) isOverlayDir(name string) bool {
	prefix := filepath.Clean(name) + string(filepath.Separator)
	for path := range f.overlay {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

type overlayFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi overlayFileInfo) Name() string { return fi.name }
func (fi overlayFileInfo) Size() int64  { return fi.size }
func (fi overlayFileInfo) Mode() i_fs.FileMode {
	if fi.dir {
		return i_fs.ModeDir | 0o755
	}
	return 0o644
}
func (fi overlayFileInfo) ModTime() time.Time { return time.Time{} }
func (fi overlayFileInfo) IsDir() bool        { return fi.dir }
func (fi overlayFileInfo) Sys() any           { return nil }
