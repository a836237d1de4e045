// Package directive extracts inline lint directives from comments, e.g.
//
//	// tslint-disable-next-line no-unnecessary-type-constraint -- generated
//	/* tslint-disable */ ... /* tslint-enable */
//
// The "eslint-" prefix is accepted as an alias so that existing sources
// keep working.
package directive

import (
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/podhmo/go-tslint/tsast"
)

// Kind is the directive type.
type Kind string

const (
	Disable         Kind = "disable"
	Enable          Kind = "enable"
	DisableLine     Kind = "disable-line"
	DisableNextLine Kind = "disable-next-line"
)

var prefixes = []string{"tslint-", "eslint-"}

// Directive is one parsed comment.
type Directive struct {
	Kind Kind
	// Rules lists the rules the directive applies to. Empty means all rules.
	Rules []string
	// Line is the line the comment starts on.
	Line int
	// EndLine is the line the comment ends on.
	EndLine int
	// Offset and EndOffset are the byte offsets of the comment.
	Offset, EndOffset int
}

// Parse parses a single comment, including its delimiters.
func Parse(text string) (Kind, []string, bool) {
	body := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(body, "//"):
		body = body[2:]
	case strings.HasPrefix(body, "/*"):
		body = strings.TrimSuffix(body[2:], "*/")
	default:
		return "", nil, false
	}
	body = strings.TrimSpace(body)

	// "-- reason" is a free-form justification.
	if i := strings.Index(body, "--"); i >= 0 && (i == 0 || body[i-1] == ' ' || body[i-1] == '\t') {
		body = strings.TrimSpace(body[:i])
	}

	var rest string
	found := false
	for _, prefix := range prefixes {
		if strings.HasPrefix(body, prefix) {
			rest = body[len(prefix):]
			found = true
			break
		}
	}
	if !found {
		return "", nil, false
	}

	// Longest kinds first: "disable-next-line" also starts with "disable".
	var kind Kind
	for _, k := range []Kind{DisableNextLine, DisableLine, Disable, Enable} {
		if strings.HasPrefix(rest, string(k)) && (len(rest) == len(k) || unicode.IsSpace(rune(rest[len(k)]))) {
			kind = k
			rest = strings.TrimSpace(rest[len(k):])
			break
		}
	}
	if kind == "" {
		return "", nil, false
	}

	var rules []string
	for _, name := range strings.Split(rest, ",") {
		if name = strings.TrimSpace(name); name != "" {
			rules = append(rules, name)
		}
	}
	return kind, rules, true
}

// FromFile returns the directives of file in source order.
func FromFile(file *tsast.File) []Directive {
	var directives []Directive
	for _, c := range file.Comments {
		kind, rules, ok := Parse(c.Text)
		if !ok {
			continue
		}
		directives = append(directives, Directive{
			Kind:      kind,
			Rules:     rules,
			Line:      file.Position(c.Range.Start).Line,
			EndLine:   file.Position(c.Range.End).Line,
			Offset:    c.Range.Start,
			EndOffset: c.Range.End,
		})
	}
	return directives
}

// Set answers whether a rule is suppressed at a position.
type Set struct {
	lines  map[int][]string // line -> rules ("" for all)
	blocks []Directive      // disable and enable comments in source order
}

// NewSet builds a Set from directives in source order.
func NewSet(directives []Directive) *Set {
	s := &Set{lines: map[int][]string{}}
	for _, d := range directives {
		rules := d.Rules
		if len(rules) == 0 {
			rules = []string{""}
		}
		switch d.Kind {
		case DisableLine:
			s.lines[d.Line] = append(s.lines[d.Line], rules...)
		case DisableNextLine:
			s.lines[d.EndLine+1] = append(s.lines[d.EndLine+1], rules...)
		case Disable, Enable:
			s.blocks = append(s.blocks, d)
		}
	}
	sort.SliceStable(s.blocks, func(i, j int) bool { return s.blocks[i].EndOffset < s.blocks[j].EndOffset })
	return s
}

// Suppressed reports whether a diagnostic of rule starting at offset, on
// line, is silenced. Block comments take effect after their end, so a
// diagnostic before a disable comment on the same line is still reported.
//
// A bare enable re-enables every rule. A named enable re-enables that rule
// even inside a bare disable block.
func (s *Set) Suppressed(rule string, line, offset int) bool {
	if s == nil {
		return false
	}
	for _, r := range s.lines[line] {
		if r == "" || r == rule {
			return true
		}
	}

	all := false      // inside a bare disable block
	var own, set bool // the state of rule itself, if a directive named it
	for _, d := range s.blocks {
		if d.EndOffset > offset {
			break
		}
		disable := d.Kind == Disable
		if len(d.Rules) == 0 {
			all, set = disable, false
			continue
		}
		if slices.Contains(d.Rules, rule) {
			own, set = disable, true
		}
	}
	if set {
		return own
	}
	return all
}
