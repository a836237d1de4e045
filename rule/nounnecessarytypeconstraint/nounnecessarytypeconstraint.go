// Package nounnecessarytypeconstraint reports generic type parameters
// constrained to `any` or `unknown`. Every type satisfies those
// constraints, so they can be removed.
//
// Only the syntactic shape of the constraint is inspected. Aliases or
// unions that resolve to `any`/`unknown` are not reported; the rule runs
// without type information.
package nounnecessarytypeconstraint

import (
	"path/filepath"
	"strings"

	"github.com/podhmo/go-tslint/astwalk"
	"github.com/podhmo/go-tslint/rule"
	"github.com/podhmo/go-tslint/tsast"
)

// Name is the rule identifier used in configuration and directives.
const Name = "no-unnecessary-type-constraint"

// Message ids.
const (
	MessageUnnecessaryConstraint       = "unnecessaryConstraint"
	MessageRemoveUnnecessaryConstraint = "removeUnnecessaryConstraint"
)

var meta = rule.Meta{
	Description:    "Disallow unnecessary constraints on generic types",
	Recommended:    true,
	Type:           "suggestion",
	HasSuggestions: true,
	Messages: map[string]string{
		MessageUnnecessaryConstraint:       "Constraining the generic type `{{name}}` to `{{constraint}}` does nothing and is unnecessary.",
		MessageRemoveUnnecessaryConstraint: "Remove the unnecessary `{{constraint}}` constraint.",
	},
	Version: "1",
}

// unnecessaryConstraints maps the constraint kinds every type satisfies to
// the keyword used in messages. Read-only after initialization.
var unnecessaryConstraints = map[tsast.Kind]string{
	tsast.KindAnyKeyword:     "any",
	tsast.KindUnknownKeyword: "unknown",
}

// Rule is the no-unnecessary-type-constraint rule. It has no options.
type Rule struct{}

// New returns the rule.
func New() *Rule {
	return &Rule{}
}

// Name implements rule.Rule.
func (r *Rule) Name() string { return Name }

// Meta implements rule.Rule.
func (r *Rule) Meta() rule.Meta { return meta }

// Check implements rule.Rule.
func (r *Rule) Check(ctx *rule.Context) {
	for param := range astwalk.ConstrainedTypeParameters(ctx.File, astwalk.OutsideArrowFunction) {
		if d, ok := Evaluate(ctx.File, param, false); ok {
			ctx.Report(d)
		}
	}
	for param := range astwalk.ConstrainedTypeParameters(ctx.File, astwalk.InArrowFunction) {
		if d, ok := Evaluate(ctx.File, param, true); ok {
			ctx.Report(d)
		}
	}
}

// Evaluate checks one constrained type parameter of file. inArrowFunction
// tells whether its declaration list belongs to an arrow function.
// It returns false when the constraint is not redundant.
func Evaluate(file *tsast.File, node *tsast.TypeParameter, inArrowFunction bool) (rule.Diagnostic, bool) {
	if node.Constraint == nil {
		return rule.Diagnostic{}, false
	}
	constraint, ok := unnecessaryConstraints[node.Constraint.Kind]
	if !ok {
		return rule.Diagnostic{}, false
	}

	replacement := ""
	if shouldAddTrailingComma(file, node, inArrowFunction) {
		replacement = ","
	}

	data := map[string]string{
		"name":       node.Name.Name,
		"constraint": constraint,
	}
	suggestionData := map[string]string{
		"constraint": constraint,
	}
	return rule.Diagnostic{
		Rule:      Name,
		MessageID: MessageUnnecessaryConstraint,
		Message:   rule.Format(meta.Messages[MessageUnnecessaryConstraint], data),
		Data:      data,
		Range:     node.Range,
		Suggestions: []rule.Suggestion{{
			MessageID: MessageRemoveUnnecessaryConstraint,
			Message:   rule.Format(meta.Messages[MessageRemoveUnnecessaryConstraint], suggestionData),
			Data:      suggestionData,
			Edits: []rule.TextEdit{{
				Range:   tsast.Range{Start: node.Name.Range.End, End: node.Constraint.Range.End},
				NewText: replacement,
			}},
		}},
	}, true
}

// shouldAddTrailingComma reports whether removing the constraint would
// leave `<T>() => ...`, which is a JSX tag in .tsx files and reserved
// syntax in .mts/.cts files. Only a lone parameter without a default
// and without a comma after it needs `<T,>`.
func shouldAddTrailingComma(file *tsast.File, node *tsast.TypeParameter, inArrowFunction bool) bool {
	if !inArrowFunction || !RequiresGenericDeclarationDisambiguation(file.Name) {
		return false
	}
	if node.Parent == nil || len(node.Parent.Params) != 1 {
		return false
	}
	if node.Default != nil {
		return false
	}
	next, ok := file.TokenAfter(node.Range.End)
	return !ok || next.Value != ","
}

// RequiresGenericDeclarationDisambiguation reports whether filename is a
// .cts, .mts or .tsx file (case-insensitive). In those files a lone
// `<T>` on an arrow function needs a trailing comma to be read as a type
// parameter list.
func RequiresGenericDeclarationDisambiguation(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".cts", ".mts", ".tsx":
		return true
	default:
		return false
	}
}
