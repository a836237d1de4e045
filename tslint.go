// Package tslint lints TypeScript sources.
//
// A Linter discovers files under a project root, parses them with
// tree-sitter and runs the registered rules on each file in parallel.
package tslint

import (
	"context"
	"errors"
	"fmt"
	i_fs "io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/podhmo/go-tslint/cache"
	"github.com/podhmo/go-tslint/directive"
	"github.com/podhmo/go-tslint/fix"
	"github.com/podhmo/go-tslint/fs"
	"github.com/podhmo/go-tslint/locator"
	"github.com/podhmo/go-tslint/parser"
	"github.com/podhmo/go-tslint/rule"
	"github.com/podhmo/go-tslint/rule/nounnecessarytypeconstraint"
)

// skipDirs are never walked into.
var skipDirs = map[string]bool{"node_modules": true, ".git": true}

// maxFixPasses bounds how often Fix re-lints a file after applying edits.
const maxFixPasses = 10

// Linter runs rules over files.
type Linter struct {
	workDir     string
	fs          fs.FS
	overlay     fs.Overlay
	Logger      *slog.Logger
	config      *Config
	configFile  string
	registry    *rule.Registry
	concurrency int
	cachePath   string

	locator *locator.Locator
	cache   *cache.ResultCache
	ruleSet []byte // names and versions of the registered rules
}

// Option is a function that configures a Linter.
type Option func(*Linter) error

// WithWorkDir sets the directory relative paths are resolved against.
// The project root is searched upwards from it.
func WithWorkDir(path string) Option {
	return func(l *Linter) error {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("getting absolute path for workdir %q: %w", path, err)
		}
		l.workDir = absPath
		return nil
	}
}

// WithLogger sets the logger for the linter and its rules.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linter) error {
		l.Logger = logger
		return nil
	}
}

// WithConfig uses c instead of looking for a configuration file.
func WithConfig(c *Config) Option {
	return func(l *Linter) error {
		l.config = c
		return nil
	}
}

// WithConfigFile loads the configuration from path instead of the project root.
func WithConfigFile(path string) Option {
	return func(l *Linter) error {
		l.configFile = path
		return nil
	}
}

// WithOverlay provides in-memory file content that shadows the disk.
func WithOverlay(overlay fs.Overlay) Option {
	return func(l *Linter) error {
		if l.overlay == nil {
			l.overlay = make(fs.Overlay)
		}
		for k, v := range overlay {
			l.overlay[k] = v
		}
		return nil
	}
}

// WithFS replaces the file system. It is mainly for tests.
func WithFS(fsys fs.FS) Option {
	return func(l *Linter) error {
		l.fs = fsys
		return nil
	}
}

// WithCachePath enables the result cache stored at path.
func WithCachePath(path string) Option {
	return func(l *Linter) error {
		l.cachePath = path
		return nil
	}
}

// WithConcurrency limits the number of files linted at the same time.
// n <= 0 means runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(l *Linter) error {
		l.concurrency = n
		return nil
	}
}

// WithRules replaces the default rule set.
func WithRules(rules ...rule.Rule) Option {
	return func(l *Linter) error {
		l.registry = rule.NewRegistry(rules...)
		return nil
	}
}

// New creates a new Linter.
func New(options ...Option) (*Linter, error) {
	l := &Linter{}
	for _, option := range options {
		if err := option(l); err != nil {
			return nil, err
		}
	}

	if l.workDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		l.workDir = cwd
	}
	if l.Logger == nil {
		l.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	if l.fs == nil {
		l.fs = fs.NewOSFS()
	}
	if len(l.overlay) > 0 {
		abs := make(fs.Overlay, len(l.overlay))
		for k, v := range l.overlay {
			abs[l.abs(k)] = v
		}
		l.fs = fs.NewOverlayFS(l.fs, abs)
	}
	if l.registry == nil {
		l.registry = rule.NewRegistry(nounnecessarytypeconstraint.New())
	}
	if l.concurrency <= 0 {
		l.concurrency = runtime.GOMAXPROCS(0)
	}
	for _, r := range l.Rules() {
		l.ruleSet = fmt.Appendf(l.ruleSet, "%s@%s\n", r.Name(), r.Meta().Version)
	}

	loc, err := locator.New(l.workDir, l.fs)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize locator: %w", err)
	}
	l.locator = loc

	switch {
	case l.config != nil:
		l.config.compile()
	case l.configFile != "":
		c, err := LoadConfig(l.fs, l.abs(l.configFile))
		if err != nil {
			return nil, err
		}
		l.config = c
	default:
		c, path, err := findConfig(l.fs, loc.RootDir())
		if err != nil {
			return nil, err
		}
		l.config = c
		l.configFile = path
	}
	for name := range l.config.Rules {
		if _, ok := l.registry.Get(name); !ok {
			l.Logger.Warn("unknown rule in config", slog.String("rule", name))
		}
	}

	cachePath := ""
	if l.cachePath != "" {
		cachePath = l.abs(l.cachePath)
	}
	l.cache = cache.NewResultCache(loc.RootDir(), cachePath, l.fs, l.Logger)
	if err := l.cache.Load(); err != nil {
		return nil, fmt.Errorf("loading cache: %w", err)
	}

	l.Logger.Debug("linter initialized",
		slog.String("root", loc.RootDir()),
		slog.String("config", l.configFile),
		slog.Any("rules", l.registry.Names()),
		slog.Int("concurrency", l.concurrency),
	)
	return l, nil
}

// RootDir returns the project root.
func (l *Linter) RootDir() string {
	return l.locator.RootDir()
}

// Config returns the effective configuration.
func (l *Linter) Config() *Config {
	return l.config
}

// Rules returns the registered rules in name order.
func (l *Linter) Rules() []rule.Rule {
	names := l.registry.Names()
	rules := make([]rule.Rule, 0, len(names))
	for _, name := range names {
		r, _ := l.registry.Get(name)
		rules = append(rules, r)
	}
	return rules
}

// FileResult is the outcome of linting one file.
type FileResult struct {
	// Path is relative to the project root, slash separated.
	Path        string            `json:"path"`
	AbsPath     string            `json:"-"`
	Diagnostics []rule.Diagnostic `json:"diagnostics"`
	// Err is set when the file could not be read or parsed.
	Err    error  `json:"-"`
	Source []byte `json:"-"`
	Cached bool   `json:"-"`
}

// ApplySuggestions applies the first suggestion of every diagnostic to the
// source. Suggestions whose edits overlap an earlier one are left out.
func (r *FileResult) ApplySuggestions() ([]byte, int, error) {
	return fix.Apply(r.Source, fix.Suggestions(r.Diagnostics))
}

// Lint lints the files named by paths. Directories are walked recursively.
// With no paths the work directory is linted.
//
// Per-file failures are reported in FileResult.Err; the returned error is
// non-nil only when the file set cannot be determined or ctx is done.
func (l *Linter) Lint(ctx context.Context, paths ...string) ([]*FileResult, error) {
	files, err := l.collect(paths)
	if err != nil {
		return nil, err
	}
	l.Logger.Debug("collected files", slog.Int("count", len(files)))

	results := make([]*FileResult, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = l.lintFile(ctx, path)
			if errors.Is(results[i].Err, context.Canceled) || errors.Is(results[i].Err, context.DeadlineExceeded) {
				return results[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}

// LintSource lints src as the content of filename. The file does not need
// to exist; directives in src are honored.
func (l *Linter) LintSource(ctx context.Context, filename string, src []byte) ([]rule.Diagnostic, error) {
	file, err := parser.Parse(ctx, filename, src)
	if err != nil {
		return nil, err
	}
	suppressed := directive.NewSet(directive.FromFile(file))

	var diagnostics []rule.Diagnostic
	for _, r := range l.Rules() {
		sev := l.config.Severity(r)
		if sev == rule.SeverityOff {
			continue
		}
		rc := rule.NewContext(r.Name(), file, l.Logger)
		r.Check(rc)
		for _, d := range rc.Diagnostics() {
			if suppressed.Suppressed(d.Rule, d.Start.Line, d.Range.Start) {
				l.Logger.Debug("suppressed", slog.String("rule", d.Rule), slog.String("file", filename), slog.Int("line", d.Start.Line))
				continue
			}
			d.Severity = sev
			diagnostics = append(diagnostics, d)
		}
	}
	rule.SortDiagnostics(diagnostics)
	return diagnostics, nil
}

// Fix applies suggestions to the file of res until no more apply, writes the
// result and returns the final lint result with the number of edits applied.
func (l *Linter) Fix(ctx context.Context, res *FileResult) (*FileResult, int, error) {
	if res.Err != nil {
		return res, 0, res.Err
	}
	current := res
	total := 0
	for pass := 0; pass < maxFixPasses; pass++ {
		out, applied, err := current.ApplySuggestions()
		if err != nil {
			return current, total, fmt.Errorf("fixing %s: %w", res.Path, err)
		}
		if applied == 0 {
			break
		}
		total += applied
		diagnostics, err := l.LintSource(ctx, res.AbsPath, out)
		if err != nil {
			return current, total, fmt.Errorf("re-linting %s after fix: %w", res.Path, err)
		}
		current = &FileResult{Path: res.Path, AbsPath: res.AbsPath, Diagnostics: diagnostics, Source: out}
	}
	if total == 0 {
		return current, 0, nil
	}

	if err := l.fs.WriteFile(res.AbsPath, current.Source, 0644); err != nil {
		return current, total, fmt.Errorf("writing %s: %w", res.Path, err)
	}
	if err := l.cache.Set(res.AbsPath, l.hash(current.Source), current.Diagnostics); err != nil {
		l.Logger.Debug("cache set failed", slog.String("file", res.Path), slog.Any("error", err))
	}
	l.Logger.Info("fixed", slog.String("file", res.Path), slog.Int("edits", total))
	return current, total, nil
}

// SaveCache writes the result cache if one is configured.
func (l *Linter) SaveCache() error {
	return l.cache.Save()
}

func (l *Linter) lintFile(ctx context.Context, absPath string) *FileResult {
	res := &FileResult{Path: l.locator.Rel(absPath), AbsPath: absPath}
	src, err := l.fs.ReadFile(absPath)
	if err != nil {
		res.Err = fmt.Errorf("reading %s: %w", res.Path, err)
		return res
	}
	res.Source = src

	hash := l.hash(src)
	if diagnostics, ok := l.cache.Get(absPath, hash); ok {
		l.Logger.Debug("cache hit", slog.String("file", res.Path))
		res.Diagnostics = diagnostics
		res.Cached = true
		return res
	}

	l.Logger.Debug("linting", slog.String("file", res.Path))
	diagnostics, err := l.LintSource(ctx, absPath, src)
	if err != nil {
		res.Err = err
		l.cache.Delete(absPath)
		return res
	}
	res.Diagnostics = diagnostics
	if err := l.cache.Set(absPath, hash, diagnostics); err != nil {
		l.Logger.Debug("cache set failed", slog.String("file", res.Path), slog.Any("error", err))
	}
	return res
}

// hash keys cache entries by the source, the rule severities and the rule set.
func (l *Linter) hash(src []byte) string {
	return cache.Sum(src, l.config.fingerprint(), l.ruleSet)
}

// collect resolves paths to the sorted list of files to lint.
// Explicitly named files are linted whenever the parser supports them;
// walked files must also pass the extension and ignore filters.
func (l *Linter) collect(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{l.workDir}
	}
	seen := map[string]bool{}
	var files []string
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, p := range paths {
		root := l.abs(p)
		info, err := l.fs.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", p, err)
		}
		if !info.IsDir() {
			if !parser.Supported(root) {
				return nil, fmt.Errorf("%s: unsupported file type", p)
			}
			if l.config.Ignored(l.locator.Rel(root)) {
				l.Logger.Warn("file ignored by config", slog.String("file", p))
				continue
			}
			add(root)
			continue
		}

		err = l.fs.WalkDir(root, func(path string, d i_fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel := l.locator.Rel(path)
			if d.IsDir() {
				if path != root && (skipDirs[d.Name()] || l.config.Ignored(rel+"/")) {
					return filepath.SkipDir
				}
				return nil
			}
			if !l.config.Accepts(path) || l.config.Ignored(rel) {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", p, err)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (l *Linter) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(l.workDir, path)
}
