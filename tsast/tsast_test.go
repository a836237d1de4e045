package tsast

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFile_Position(t *testing.T) {
	f := NewFile("a.ts", []byte("type A = 1;\n\ntype B<T> = T;\n"))
	tests := []struct {
		offset int
		want   Position
	}{
		{offset: 0, want: Position{Line: 1, Column: 1}},
		{offset: 5, want: Position{Line: 1, Column: 6}},
		{offset: 12, want: Position{Line: 2, Column: 1}},
		{offset: 13, want: Position{Line: 3, Column: 1}},
		{offset: 19, want: Position{Line: 3, Column: 7}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, f.Position(tt.offset)); diff != "" {
			t.Errorf("Position(%d) mismatch (-want +got):\n%s", tt.offset, diff)
		}
	}
}

func TestFile_TokenAfter(t *testing.T) {
	f := NewFile("a.ts", []byte("<T, U>"))
	f.Tokens = []Token{
		{Value: "<", Range: Range{Start: 0, End: 1}},
		{Value: "T", Range: Range{Start: 1, End: 2}},
		{Value: ",", Range: Range{Start: 2, End: 3}},
		{Value: "U", Range: Range{Start: 4, End: 5}},
		{Value: ">", Range: Range{Start: 5, End: 6}},
	}

	tok, ok := f.TokenAfter(2)
	if !ok || tok.Value != "," {
		t.Errorf("TokenAfter(2) = %q, %v; want \",\", true", tok.Value, ok)
	}
	tok, ok = f.TokenAfter(3)
	if !ok || tok.Value != "U" {
		t.Errorf("TokenAfter(3) = %q, %v; want \"U\", true", tok.Value, ok)
	}
	if _, ok := f.TokenAfter(6); ok {
		t.Errorf("TokenAfter(6) found a token past the end of the file")
	}
}

func TestRange_Overlaps(t *testing.T) {
	tests := []struct {
		a, b Range
		want bool
	}{
		{a: Range{0, 3}, b: Range{3, 5}, want: false},
		{a: Range{0, 4}, b: Range{3, 5}, want: true},
		{a: Range{2, 2}, b: Range{0, 5}, want: true},
		{a: Range{6, 8}, b: Range{0, 5}, want: false},
	}
	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%v.Overlaps(%v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
