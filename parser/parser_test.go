package parser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/podhmo/go-tslint/tsast"
)

// param is a pointer-free view of a tsast.TypeParameter.
type param struct {
	Owner      tsast.OwnerKind
	Name       string
	Constraint string
	Kind       tsast.Kind
	Default    string
}

func params(f *tsast.File) []param {
	var got []param
	for _, decl := range f.TypeParameterDeclarations {
		for _, p := range decl.Params {
			v := param{Owner: decl.Owner}
			if p.Name != nil {
				v.Name = p.Name.Name
			}
			if p.Constraint != nil {
				v.Constraint = f.Text(p.Constraint.Range)
				v.Kind = p.Constraint.Kind
			}
			if p.Default != nil {
				v.Default = f.Text(p.Default.Range)
			}
			got = append(got, v)
		}
	}
	return got
}

func TestParse_TypeParameters(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		src      string
		want     []param
	}{
		{
			name:     "function declaration",
			filename: "a.ts",
			src:      "function f<T extends any>() {}",
			want:     []param{{Owner: tsast.OwnerFunctionDeclaration, Name: "T", Constraint: "any", Kind: tsast.KindAnyKeyword}},
		},
		{
			name:     "class",
			filename: "a.ts",
			src:      "class C<T extends unknown> {}",
			want:     []param{{Owner: tsast.OwnerClassDeclaration, Name: "T", Constraint: "unknown", Kind: tsast.KindUnknownKeyword}},
		},
		{
			name:     "interface",
			filename: "a.ts",
			src:      "interface I<T extends string> {}",
			want:     []param{{Owner: tsast.OwnerInterfaceDeclaration, Name: "T", Constraint: "string", Kind: tsast.KindStringKeyword}},
		},
		{
			name:     "type alias with default",
			filename: "a.ts",
			src:      "type A<T extends Foo = Bar> = T;",
			want:     []param{{Owner: tsast.OwnerTypeAlias, Name: "T", Constraint: "Foo", Kind: tsast.KindTypeReference, Default: "Bar"}},
		},
		{
			name:     "arrow function",
			filename: "a.ts",
			src:      "const f = <T extends any>() => {};",
			want:     []param{{Owner: tsast.OwnerArrowFunction, Name: "T", Constraint: "any", Kind: tsast.KindAnyKeyword}},
		},
		{
			name:     "arrow function in mts",
			filename: "a.mts",
			src:      "const f = <T extends unknown>(x: T) => x;",
			want:     []param{{Owner: tsast.OwnerArrowFunction, Name: "T", Constraint: "unknown", Kind: tsast.KindUnknownKeyword}},
		},
		{
			name:     "method",
			filename: "a.ts",
			src:      "class C { m<T extends any>(): void {} }",
			want:     []param{{Owner: tsast.OwnerMethodDefinition, Name: "T", Constraint: "any", Kind: tsast.KindAnyKeyword}},
		},
		{
			name:     "parenthesized constraint keeps parens",
			filename: "a.ts",
			src:      "function f<T extends (any)>() {}",
			want:     []param{{Owner: tsast.OwnerFunctionDeclaration, Name: "T", Constraint: "(any)", Kind: tsast.KindAnyKeyword}},
		},
		{
			name:     "unconstrained and union",
			filename: "a.ts",
			src:      "function f<T, U extends string | number>() {}",
			want: []param{
				{Owner: tsast.OwnerFunctionDeclaration, Name: "T"},
				{Owner: tsast.OwnerFunctionDeclaration, Name: "U", Constraint: "string | number", Kind: tsast.KindUnionType},
			},
		},
		{
			name:     "tsx function declaration",
			filename: "a.tsx",
			src:      "function f<T extends any>() { return <div />; }",
			want:     []param{{Owner: tsast.OwnerFunctionDeclaration, Name: "T", Constraint: "any", Kind: tsast.KindAnyKeyword}},
		},
		{
			name:     "no type parameters",
			filename: "a.ts",
			src:      "const x: number = 1;",
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse(context.Background(), tt.filename, []byte(tt.src))
			if err != nil {
				t.Fatalf("Parse() unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, params(f)); diff != "" {
				t.Errorf("type parameters mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParse_Ranges(t *testing.T) {
	src := "function f<T extends any, U>() {}"
	f, err := Parse(context.Background(), "a.ts", []byte(src))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	if len(f.TypeParameterDeclarations) != 1 {
		t.Fatalf("want 1 declaration, got %d", len(f.TypeParameterDeclarations))
	}
	decl := f.TypeParameterDeclarations[0]
	if len(decl.Params) != 2 {
		t.Fatalf("want 2 params, got %d", len(decl.Params))
	}

	tp := decl.Params[0]
	if got, want := tp.Name.Range, (tsast.Range{Start: strings.Index(src, "T"), End: strings.Index(src, "T") + 1}); got != want {
		t.Errorf("name range = %v, want %v", got, want)
	}
	if got, want := f.Text(tp.Range), "T extends any"; got != want {
		t.Errorf("param text = %q, want %q", got, want)
	}
	if tp.Parent != decl {
		t.Error("param parent is not its declaration")
	}
	next, ok := f.TokenAfter(tp.Range.End)
	if !ok || next.Value != "," {
		t.Errorf("TokenAfter(param end) = %q, %v; want \",\"", next.Value, ok)
	}
	if got, want := f.Text(decl.Range), "<T extends any, U>"; got != want {
		t.Errorf("declaration text = %q, want %q", got, want)
	}
}

func TestParse_Comments(t *testing.T) {
	src := "// tslint-disable-next-line\nfunction f</* c */ T extends any>() {}\n"
	f, err := Parse(context.Background(), "a.ts", []byte(src))
	if err != nil {
		t.Fatalf("Parse() unexpected error: %v", err)
	}
	var got []string
	for _, c := range f.Comments {
		got = append(got, c.Text)
	}
	if diff := cmp.Diff([]string{"// tslint-disable-next-line", "/* c */"}, got); diff != "" {
		t.Errorf("comments mismatch (-want +got):\n%s", diff)
	}
	for _, tok := range f.Tokens {
		if strings.HasPrefix(tok.Value, "//") || strings.HasPrefix(tok.Value, "/*") {
			t.Errorf("comment %q recorded as a token", tok.Value)
		}
	}
	if diff := cmp.Diff([]param{{Owner: tsast.OwnerFunctionDeclaration, Name: "T", Constraint: "any", Kind: tsast.KindAnyKeyword}}, params(f)); diff != "" {
		t.Errorf("type parameters mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_SyntaxError(t *testing.T) {
	_, err := Parse(context.Background(), "a.ts", []byte("function f<T extends any>( {"))
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("want ErrSyntax, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "a.ts:1:") {
		t.Errorf("error %q does not carry a position", err)
	}
}

func TestParse_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Parse(ctx, "a.ts", []byte("let x = 1;")); !errors.Is(err, context.Canceled) {
		t.Errorf("want context.Canceled, got %v", err)
	}
}

func TestSupported(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"a.ts", true},
		{"a.tsx", true},
		{"a.mts", true},
		{"a.cts", true},
		{"A.TSX", true},
		{"a.js", false},
		{"a.d.ts", true},
		{"Makefile", false},
	}
	for _, tt := range tests {
		if got := Supported(tt.filename); got != tt.want {
			t.Errorf("Supported(%q) = %v, want %v", tt.filename, got, tt.want)
		}
	}
}
