// Package rule defines the contract between lint rules and the host that
// runs them.
package rule

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/podhmo/go-tslint/tsast"
)

// Severity is how a diagnostic is reported.
type Severity int

const (
	SeverityOff Severity = iota
	SeverityWarn
	SeverityError
)

// String returns the configuration spelling of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityOff:
		return "off"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity parses "off", "warn" or "error" (and the numeric 0, 1, 2).
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "off", "0":
		return SeverityOff, nil
	case "warn", "warning", "1":
		return SeverityWarn, nil
	case "error", "2":
		return SeverityError, nil
	}
	return SeverityOff, fmt.Errorf("unknown severity %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Meta describes a rule.
type Meta struct {
	Description    string
	Recommended    bool
	Type           string // "problem", "suggestion" or "layout"
	HasSuggestions bool
	// Messages maps message ids to templates with {{placeholders}}.
	Messages map[string]string
	// Version changes whenever the rule may report differently for the
	// same source. Cached results of other versions are not reused.
	Version string
}

// Rule is implemented by every lint rule.
type Rule interface {
	Name() string
	Meta() Meta
	Check(ctx *Context)
}

// TextEdit replaces the source in Range with NewText.
type TextEdit struct {
	Range   tsast.Range `json:"range"`
	NewText string      `json:"newText"`
}

// Suggestion is an opt-in fix. The host never applies it unless asked to.
type Suggestion struct {
	MessageID string            `json:"messageId"`
	Message   string            `json:"message"`
	Data      map[string]string `json:"data,omitempty"`
	Edits     []TextEdit        `json:"edits"`
}

// Diagnostic is a single finding.
type Diagnostic struct {
	Rule        string            `json:"rule"`
	Severity    Severity          `json:"severity"`
	MessageID   string            `json:"messageId"`
	Message     string            `json:"message"`
	Data        map[string]string `json:"data,omitempty"`
	Range       tsast.Range       `json:"range"`
	Start       tsast.Position    `json:"start"`
	End         tsast.Position    `json:"end"`
	Suggestions []Suggestion      `json:"suggestions,omitempty"`
}

// Format interpolates {{key}} placeholders in template with data.
// Unknown placeholders are left as they are.
func Format(template string, data map[string]string) string {
	if len(data) == 0 || !strings.Contains(template, "{{") {
		return template
	}
	var sb strings.Builder
	rest := template
	for {
		i := strings.Index(rest, "{{")
		if i < 0 {
			sb.WriteString(rest)
			break
		}
		j := strings.Index(rest[i:], "}}")
		if j < 0 {
			sb.WriteString(rest)
			break
		}
		key := strings.TrimSpace(rest[i+2 : i+j])
		sb.WriteString(rest[:i])
		if v, ok := data[key]; ok {
			sb.WriteString(v)
		} else {
			sb.WriteString(rest[i : i+j+2])
		}
		rest = rest[i+j+2:]
	}
	return sb.String()
}

// Context is handed to Rule.Check for one file.
type Context struct {
	File   *tsast.File
	Logger *slog.Logger

	rule        string
	diagnostics []Diagnostic
}

// NewContext creates a context for running the named rule on file.
func NewContext(ruleName string, file *tsast.File, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{File: file, Logger: logger, rule: ruleName}
}

// Filename returns the name of the file being checked.
func (c *Context) Filename() string {
	return c.File.Name
}

// Report records d, filling in the rule name and the line/column positions.
func (c *Context) Report(d Diagnostic) {
	if d.Rule == "" {
		d.Rule = c.rule
	}
	d.Start = c.File.Position(d.Range.Start)
	d.End = c.File.Position(d.Range.End)
	c.Logger.Debug("report", slog.String("rule", d.Rule), slog.String("file", c.File.Name), slog.Int("line", d.Start.Line), slog.String("messageId", d.MessageID))
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns everything reported so far.
func (c *Context) Diagnostics() []Diagnostic {
	return c.diagnostics
}

// SortDiagnostics orders diagnostics by position, then by rule name.
func SortDiagnostics(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		if ds[i].Range.Start != ds[j].Range.Start {
			return ds[i].Range.Start < ds[j].Range.Start
		}
		return ds[i].Rule < ds[j].Rule
	})
}

// Registry holds rules by name.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// NewRegistry creates a registry containing rules.
func NewRegistry(rules ...Rule) *Registry {
	r := &Registry{rules: make(map[string]Rule, len(rules))}
	for _, rule := range rules {
		r.Register(rule)
	}
	return r
}

// Register adds rule, replacing any rule with the same name.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Name()] = rule
}

// Get looks a rule up by name.
func (r *Registry) Get(name string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[name]
	return rule, ok
}

// Names returns the registered rule names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
