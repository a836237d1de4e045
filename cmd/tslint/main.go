package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	tslint "github.com/podhmo/go-tslint"
)

// errProblems is returned when the run found errors; main turns it into exit status 1.
var errProblems = errors.New("problems found")

type options struct {
	dir              string
	config           string
	format           string
	applySuggestions bool
	cache            string
	concurrency      int
	logLevel         string
}

func main() {
	cmd := newRootCmd(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, errProblems) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:           "tslint [paths...]",
		Short:         "Lint TypeScript sources",
		Long:          `tslint lints .ts, .tsx, .mts and .cts files. Directories are walked recursively; with no paths the current directory is linted.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(stderr, opts.logLevel)
			if err != nil {
				return err
			}
			return runLint(cmd.Context(), stdout, logger, opts, args)
		},
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.dir, "dir", "C", "", "run as if started in this directory")
	flags.StringVar(&opts.config, "config", "", "path to the config file (default: .tslint.yaml at the project root)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.Flags().StringVar(&opts.format, "format", "text", "output format (text, json)")
	rootCmd.Flags().BoolVar(&opts.applySuggestions, "apply-suggestions", false, "apply rule suggestions and write the files")
	rootCmd.Flags().StringVar(&opts.cache, "cache", "", "path to the result cache file (disabled when empty)")
	rootCmd.Flags().IntVar(&opts.concurrency, "concurrency", 0, "number of files linted in parallel (default: GOMAXPROCS)")

	rootCmd.AddCommand(newRulesCmd(stdout, stderr, opts))
	return rootCmd
}

func newRulesCmd(stdout, stderr io.Writer, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the available rules and their effective severity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(stderr, opts.logLevel)
			if err != nil {
				return err
			}
			l, err := tslint.New(opts.linterOptions(logger)...)
			if err != nil {
				return fmt.Errorf("error initializing linter: %w", err)
			}
			for _, r := range l.Rules() {
				meta := r.Meta()
				fmt.Fprintf(stdout, "%-40s %-6s %s\n", r.Name(), l.Config().Severity(r), meta.Description)
			}
			return nil
		},
	}
}

func (opts *options) linterOptions(logger *slog.Logger) []tslint.Option {
	linterOpts := []tslint.Option{
		tslint.WithLogger(logger),
		tslint.WithConcurrency(opts.concurrency),
	}
	if opts.dir != "" {
		linterOpts = append(linterOpts, tslint.WithWorkDir(opts.dir))
	}
	if opts.config != "" {
		linterOpts = append(linterOpts, tslint.WithConfigFile(opts.config))
	}
	if opts.cache != "" {
		linterOpts = append(linterOpts, tslint.WithCachePath(opts.cache))
	}
	return linterOpts
}

func runLint(ctx context.Context, out io.Writer, logger *slog.Logger, opts *options, paths []string) error {
	switch opts.format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}

	l, err := tslint.New(opts.linterOptions(logger)...)
	if err != nil {
		return fmt.Errorf("error initializing linter: %w", err)
	}

	results, err := l.Lint(ctx, paths...)
	if err != nil {
		return fmt.Errorf("error linting: %w", err)
	}

	if opts.applySuggestions {
		for i, r := range results {
			fixed, n, err := l.Fix(ctx, r)
			if err != nil {
				logger.Warn("could not apply suggestions", slog.String("file", r.Path), slog.Any("error", err))
				continue
			}
			if n > 0 {
				results[i] = fixed
			}
		}
	}

	if err := l.SaveCache(); err != nil {
		logger.Warn("could not save cache", slog.Any("error", err))
	}

	switch opts.format {
	case "json":
		err = tslint.WriteJSON(out, results)
	default:
		err = tslint.WriteText(out, results)
	}
	if err != nil {
		return err
	}
	if tslint.Summarize(results).Failed() {
		return errProblems
	}
	return nil
}

func newLogger(w io.Writer, logLevel string) (*slog.Logger, error) {
	var level slog.Level
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return nil, fmt.Errorf("unknown log level: %s", logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
