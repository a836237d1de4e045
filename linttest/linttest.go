// Package linttest provides helpers for tests that lint real files.
package linttest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tslint "github.com/podhmo/go-tslint"
	"github.com/podhmo/go-tslint/parser"
	"github.com/podhmo/go-tslint/rule"
)

// ActionFunc inspects the results of a Run.
type ActionFunc func(ctx context.Context, l *tslint.Linter, results []*tslint.FileResult) error

// Run creates a Linter rooted at dir, lints paths and hands the results to action.
func Run(t *testing.T, dir string, paths []string, action ActionFunc, options ...tslint.Option) error {
	t.Helper()
	options = append([]tslint.Option{tslint.WithWorkDir(dir), tslint.WithLogger(Logger(t))}, options...)
	l, err := tslint.New(options...)
	if err != nil {
		return fmt.Errorf("new linter: %w", err)
	}

	ctx := context.Background()
	results, err := l.Lint(ctx, paths...)
	if err != nil {
		return fmt.Errorf("lint: %w", err)
	}
	if err := action(ctx, l, results); err != nil {
		return fmt.Errorf("action: %w", err)
	}
	return nil
}

// Logger returns a debug-level logger writing through t.Log, so the output
// is shown only for failing or verbose tests.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{t: t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// WriteFiles creates a temporary directory and populates it with files.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll(%q): %v", filepath.Dir(path), err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("WriteFile(%q): %v", path, err)
		}
	}
	return dir
}

// Check parses src as filename and runs r on it, without directives or
// severities. It fails the test if src does not parse.
func Check(t *testing.T, r rule.Rule, filename string, src string) []rule.Diagnostic {
	t.Helper()
	file, err := parser.Parse(context.Background(), filename, []byte(src))
	if err != nil {
		t.Fatalf("Parse(%q): %v", filename, err)
	}
	ctx := rule.NewContext(r.Name(), file, nil)
	r.Check(ctx)
	return ctx.Diagnostics()
}
