package tslint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/podhmo/go-tslint/rule"
)

// Summary counts the problems in a set of results.
type Summary struct {
	Files       int `json:"files"`
	Errors      int `json:"errors"`
	Warnings    int `json:"warnings"`
	ParseErrors int `json:"parseErrors"`
}

// Summarize counts diagnostics by severity and files that failed.
func Summarize(results []*FileResult) Summary {
	s := Summary{Files: len(results)}
	for _, r := range results {
		if r.Err != nil {
			s.ParseErrors++
		}
		for _, d := range r.Diagnostics {
			switch d.Severity {
			case rule.SeverityError:
				s.Errors++
			case rule.SeverityWarn:
				s.Warnings++
			}
		}
	}
	return s
}

// Failed reports whether the run should exit with a non-zero status.
func (s Summary) Failed() bool {
	return s.Errors > 0 || s.ParseErrors > 0
}

// WriteText writes one line per problem:
//
//	src/a.ts:1:15: error Constraining the generic type `T` to `any` does nothing and is unnecessary. (no-unnecessary-type-constraint)
func WriteText(w io.Writer, results []*FileResult) error {
	for _, r := range results {
		if r.Err != nil {
			if _, err := fmt.Fprintf(w, "%s: error %v\n", r.Path, r.Err); err != nil {
				return err
			}
			continue
		}
		for _, d := range r.Diagnostics {
			if _, err := fmt.Fprintf(w, "%s:%d:%d: %s %s (%s)\n", r.Path, d.Start.Line, d.Start.Column, d.Severity, d.Message, d.Rule); err != nil {
				return err
			}
		}
	}
	s := Summarize(results)
	if s.Errors+s.Warnings+s.ParseErrors == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w, "\n%d problems (%d errors, %d warnings) in %d files", s.Errors+s.Warnings+s.ParseErrors, s.Errors+s.ParseErrors, s.Warnings, s.Files)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}

type jsonFileResult struct {
	Path        string            `json:"path"`
	Error       string            `json:"error,omitempty"`
	Diagnostics []rule.Diagnostic `json:"diagnostics"`
}

// WriteJSON writes the results and their summary as one JSON document.
func WriteJSON(w io.Writer, results []*FileResult) error {
	out := struct {
		Results []jsonFileResult `json:"results"`
		Summary Summary          `json:"summary"`
	}{
		Results: make([]jsonFileResult, 0, len(results)),
		Summary: Summarize(results),
	}
	for _, r := range results {
		jr := jsonFileResult{Path: r.Path, Diagnostics: r.Diagnostics}
		if jr.Diagnostics == nil {
			jr.Diagnostics = []rule.Diagnostic{}
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		out.Results = append(out.Results, jr)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return nil
}
