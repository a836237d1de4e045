// Package tsast defines the syntax model the lint rules operate on.
// It is a small view of a TypeScript file: the generic type-parameter
// declarations, the token stream, and the comments.
package tsast

import (
	"sort"
)

// Kind is the node type of a type expression, named after the
// typescript-estree node types so that rule code reads like its
// documentation.
type Kind string

const (
	KindAnyKeyword       Kind = "TSAnyKeyword"
	KindUnknownKeyword   Kind = "TSUnknownKeyword"
	KindStringKeyword    Kind = "TSStringKeyword"
	KindNumberKeyword    Kind = "TSNumberKeyword"
	KindBooleanKeyword   Kind = "TSBooleanKeyword"
	KindBigIntKeyword    Kind = "TSBigIntKeyword"
	KindSymbolKeyword    Kind = "TSSymbolKeyword"
	KindObjectKeyword    Kind = "TSObjectKeyword"
	KindNeverKeyword     Kind = "TSNeverKeyword"
	KindVoidKeyword      Kind = "TSVoidKeyword"
	KindNullKeyword      Kind = "TSNullKeyword"
	KindUndefinedKeyword Kind = "TSUndefinedKeyword"

	KindTypeReference       Kind = "TSTypeReference"
	KindUnionType           Kind = "TSUnionType"
	KindIntersectionType    Kind = "TSIntersectionType"
	KindTypeLiteral         Kind = "TSTypeLiteral"
	KindArrayType           Kind = "TSArrayType"
	KindTupleType           Kind = "TSTupleType"
	KindFunctionType        Kind = "TSFunctionType"
	KindConstructorType     Kind = "TSConstructorType"
	KindLiteralType         Kind = "TSLiteralType"
	KindTypeQuery           Kind = "TSTypeQuery"
	KindTypeOperator        Kind = "TSTypeOperator"
	KindIndexedAccessType   Kind = "TSIndexedAccessType"
	KindConditionalType     Kind = "TSConditionalType"
	KindMappedType          Kind = "TSMappedType"
	KindTemplateLiteralType Kind = "TSTemplateLiteralType"

	// KindOther is used for type expressions the parser does not classify.
	KindOther Kind = "TSType"
)

// OwnerKind names the construct a type-parameter list is declared on.
type OwnerKind string

const (
	OwnerArrowFunction        OwnerKind = "ArrowFunctionExpression"
	OwnerFunctionDeclaration  OwnerKind = "FunctionDeclaration"
	OwnerFunctionExpression   OwnerKind = "FunctionExpression"
	OwnerDeclareFunction      OwnerKind = "TSDeclareFunction"
	OwnerClassDeclaration     OwnerKind = "ClassDeclaration"
	OwnerClassExpression      OwnerKind = "ClassExpression"
	OwnerInterfaceDeclaration OwnerKind = "TSInterfaceDeclaration"
	OwnerTypeAlias            OwnerKind = "TSTypeAliasDeclaration"
	OwnerMethodDefinition     OwnerKind = "MethodDefinition"
	OwnerMethodSignature      OwnerKind = "TSMethodSignature"
	OwnerCallSignature        OwnerKind = "TSCallSignatureDeclaration"
	OwnerConstructSignature   OwnerKind = "TSConstructSignatureDeclaration"
	OwnerFunctionType         OwnerKind = "TSFunctionType"
	OwnerConstructorType      OwnerKind = "TSConstructorType"
	OwnerOther                OwnerKind = "Unknown"
)

// Range is a half-open interval of byte offsets into the file source.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of bytes covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// Overlaps reports whether r and other intersect. An empty range that only
// touches a boundary of the other range does not overlap it.
func (r Range) Overlaps(other Range) bool {
	return r.Start < other.End && other.Start < r.End
}

// Position is a 1-based line and column (in bytes).
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// Identifier is a name together with its location.
type Identifier struct {
	Name  string
	Range Range
}

// TypeNode is a type expression. Only its kind and extent are modeled.
type TypeNode struct {
	Kind  Kind
	Range Range
}

// TypeParameter is one entry of a generic parameter list, e.g. the
// `T extends any = string` in `<T extends any = string>`.
type TypeParameter struct {
	Name       *Identifier
	Constraint *TypeNode // nil when there is no `extends` clause
	Default    *TypeNode // nil when there is no `= Type` clause
	Range      Range
	Parent     *TypeParameterDeclaration
}

// TypeParameterDeclaration is the `<...>` list of a generic construct.
type TypeParameterDeclaration struct {
	Owner  OwnerKind
	Params []*TypeParameter
	Range  Range
}

// Token is a lexical token (comments excluded).
type Token struct {
	Value string
	Range Range
}

// Comment is a line or block comment, including its delimiters.
type Comment struct {
	Text  string
	Range Range
}

// File is a parsed source file.
type File struct {
	Name   string
	Source []byte

	// TypeParameterDeclarations are in source order of their `<`.
	TypeParameterDeclarations []*TypeParameterDeclaration
	// Tokens are sorted by offset.
	Tokens []Token
	// Comments are sorted by offset.
	Comments []Comment

	lineStarts []int
}

// NewFile creates a File for the given source. The parser fills in the
// declarations, tokens and comments.
func NewFile(name string, src []byte) *File {
	lineStarts := []int{0}
	for i, b := range src {
		if b == '\n' {
			lineStarts = append(lineStarts, i+1)
		}
	}
	return &File{Name: name, Source: src, lineStarts: lineStarts}
}

// Text returns the source text covered by r.
func (f *File) Text(r Range) string {
	if r.Start < 0 || r.End > len(f.Source) || r.Start > r.End {
		return ""
	}
	return string(f.Source[r.Start:r.End])
}

// Position converts a byte offset into a line and column.
func (f *File) Position(offset int) Position {
	line := sort.Search(len(f.lineStarts), func(i int) bool { return f.lineStarts[i] > offset }) - 1
	if line < 0 {
		line = 0
	}
	return Position{Line: line + 1, Column: offset - f.lineStarts[line] + 1}
}

// TokenAfter returns the first token that starts at or after offset.
func (f *File) TokenAfter(offset int) (Token, bool) {
	i := sort.Search(len(f.Tokens), func(i int) bool { return f.Tokens[i].Range.Start >= offset })
	if i == len(f.Tokens) {
		return Token{}, false
	}
	return f.Tokens[i], true
}
