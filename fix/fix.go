// Package fix applies text edits produced by rules to source text.
package fix

import (
	"bytes"
	"errors"
	"fmt"
	"sort"

	"github.com/podhmo/go-tslint/rule"
)

// ErrInvalidRange is returned for an edit that does not fit in the source.
var ErrInvalidRange = errors.New("edit range out of bounds")

// Apply applies edits to src and returns the new text together with the
// number of edits applied. Edits are applied in offset order; an edit that
// overlaps one already applied is skipped, so the caller can lint again
// and pick it up on the next pass.
func Apply(src []byte, edits []rule.TextEdit) ([]byte, int, error) {
	sorted := make([]rule.TextEdit, len(edits))
	copy(sorted, edits)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Range.Start != sorted[j].Range.Start {
			return sorted[i].Range.Start < sorted[j].Range.Start
		}
		return sorted[i].Range.End < sorted[j].Range.End
	})

	for _, e := range sorted {
		if e.Range.Start < 0 || e.Range.End > len(src) || e.Range.Start > e.Range.End {
			return nil, 0, fmt.Errorf("edit [%d, %d) on %d bytes: %w", e.Range.Start, e.Range.End, len(src), ErrInvalidRange)
		}
	}

	var buf bytes.Buffer
	buf.Grow(len(src))
	applied := 0
	last := 0 // end of the last applied edit
	for _, e := range sorted {
		if e.Range.Start < last {
			continue // overlaps
		}
		buf.Write(src[last:e.Range.Start])
		buf.WriteString(e.NewText)
		last = e.Range.End
		applied++
	}
	buf.Write(src[last:])
	return buf.Bytes(), applied, nil
}

// Suggestions collects the edits of the first suggestion of every
// diagnostic.
func Suggestions(diagnostics []rule.Diagnostic) []rule.TextEdit {
	var edits []rule.TextEdit
	for _, d := range diagnostics {
		if len(d.Suggestions) == 0 {
			continue
		}
		edits = append(edits, d.Suggestions[0].Edits...)
	}
	return edits
}
