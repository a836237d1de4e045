package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/podhmo/go-tslint/fs"
	"github.com/podhmo/go-tslint/rule"
)

// DefaultFileName is the cache file name used when only a directory is configured.
const DefaultFileName = ".tslintcache"

// formatVersion changes whenever the on-disk layout changes; older files are discarded.
const formatVersion = 1

// Entry is the cached result of linting one file.
type Entry struct {
	Hash        string            `json:"hash"`
	Diagnostics []rule.Diagnostic `json:"diagnostics"`
}

type fileFormat struct {
	Version int               `json:"version"`
	Entries map[string]*Entry `json:"entries"`
}

// ResultCache remembers lint results by file content hash.
// It is responsible for loading, saving, and providing access to cached results.
type ResultCache struct {
	mu       sync.RWMutex
	entries  map[string]*Entry // Key: slash path relative to rootDir
	filePath string
	useCache bool
	rootDir  string
	fs       fs.FS
	logger   *slog.Logger
}

// NewResultCache creates a new ResultCache.
//
// rootDir is the project's root directory. Keys in the cache are relative to this directory.
// path is the cache file. If empty, caching is disabled.
// The cache file is read and written through fsys; nil means the OS file system.
func NewResultCache(rootDir string, path string, fsys fs.FS, logger *slog.Logger) *ResultCache {
	if fsys == nil {
		fsys = fs.NewOSFS()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultCache{
		entries:  make(map[string]*Entry),
		rootDir:  rootDir,
		filePath: path,
		useCache: path != "",
		fs:       fsys,
		logger:   logger,
	}
}

// Sum returns the hex SHA-256 of parts written in order.
// The linter hashes the source together with the effective configuration.
func Sum(parts ...[]byte) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Load loads the cache file.
// A missing, empty or unreadable-as-JSON file leaves the cache empty and is not an error.
func (c *ResultCache) Load() error {
	if !c.useCache {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*Entry)
	data, err := c.fs.ReadFile(c.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read cache file %s: %w", c.filePath, err)
	}
	if len(data) == 0 {
		return nil
	}

	var ff fileFormat
	if err := json.Unmarshal(data, &ff); err != nil {
		c.logger.Warn("failed to unmarshal cache file, starting with an empty cache", "path", c.filePath, "error", err)
		return nil
	}
	if ff.Version != formatVersion {
		c.logger.Debug("discarding cache file with a different version", "path", c.filePath, "version", ff.Version)
		return nil
	}
	for k, v := range ff.Entries {
		if v != nil {
			c.entries[k] = v
		}
	}
	return nil
}

// Save writes the cache file, creating its directory if needed.
func (c *ResultCache) Save() error {
	if !c.useCache {
		return nil
	}

	c.mu.RLock()
	ff := fileFormat{Version: formatVersion, Entries: make(map[string]*Entry, len(c.entries))}
	for k, v := range c.entries {
		ff.Entries[k] = v
	}
	c.mu.RUnlock()

	data, err := json.MarshalIndent(ff, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	dir := filepath.Dir(c.filePath)
	if err := c.fs.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	if err := c.fs.WriteFile(c.filePath, data, 0640); err != nil {
		return fmt.Errorf("failed to write cache file %s: %w", c.filePath, err)
	}
	return nil
}

// Get returns the cached diagnostics for absPath if the stored hash equals hash.
func (c *ResultCache) Get(absPath string, hash string) ([]rule.Diagnostic, bool) {
	if !c.useCache {
		return nil, false
	}
	key, err := c.key(absPath)
	if err != nil {
		return nil, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || entry.Hash != hash {
		return nil, false
	}
	return entry.Diagnostics, true
}

// Set stores the diagnostics for absPath under hash.
// absPath must be inside the root directory.
func (c *ResultCache) Set(absPath string, hash string, diagnostics []rule.Diagnostic) error {
	if !c.useCache {
		return nil
	}
	key, err := c.key(absPath)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &Entry{Hash: hash, Diagnostics: diagnostics}
	return nil
}

// Delete forgets absPath.
func (c *ResultCache) Delete(absPath string) {
	if !c.useCache {
		return
	}
	key, err := c.key(absPath)
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Len returns the number of cached files.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) key(absPath string) (string, error) {
	if c.rootDir == "" {
		return "", fmt.Errorf("rootDir is empty in ResultCache, cannot key %s", absPath)
	}
	if !filepath.IsAbs(absPath) {
		return "", fmt.Errorf("path to cache must be absolute, got %s", absPath)
	}
	rel, err := filepath.Rel(filepath.Clean(c.rootDir), filepath.Clean(absPath))
	if err != nil {
		return "", fmt.Errorf("filepath.Rel failed for %s relative to %s: %w", absPath, c.rootDir, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is not within the configured rootDir %s", absPath, c.rootDir)
	}
	return filepath.ToSlash(rel), nil
}

// RootDir returns the project root directory used by the cache.
func (c *ResultCache) RootDir() string {
	return c.rootDir
}

// FilePath returns the path to the cache file.
func (c *ResultCache) FilePath() string {
	return c.filePath
}

// IsEnabled returns true if the cache is configured to be used.
func (c *ResultCache) IsEnabled() bool {
	return c.useCache
}
