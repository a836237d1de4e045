// Package parser builds tsast.File values from TypeScript and TSX source
// using tree-sitter.
package parser

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/podhmo/go-tslint/tsast"
)

// ErrSyntax is returned when the source contains syntax errors.
var ErrSyntax = errors.New("syntax error")

// Extensions lists the file extensions the parser understands.
var Extensions = []string{".ts", ".tsx", ".mts", ".cts"}

// Supported reports whether filename has one of the Extensions.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func languageFor(filename string) *sitter.Language {
	if strings.ToLower(filepath.Ext(filename)) == ".tsx" {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}

// Parse parses src as the contents of filename. The grammar is chosen by
// extension: TSX for ".tsx", plain TypeScript for everything else.
//
// A new tree-sitter parser is created per call, so Parse is safe for
// concurrent use.
func Parse(ctx context.Context, filename string, src []byte) (*tsast.File, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("parse canceled before start: %w", err)
	}

	p := sitter.NewParser()
	p.SetLanguage(languageFor(filename))

	tree, err := p.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parse failed for %s: %w", filename, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("tree-sitter returned nil root node for %s", filename)
	}
	if root.HasError() {
		if at := firstError(root); at != nil {
			pos := tsast.NewFile(filename, src).Position(int(at.StartByte()))
			return nil, fmt.Errorf("%s:%d:%d: %w", filename, pos.Line, pos.Column, ErrSyntax)
		}
		return nil, fmt.Errorf("%s: %w", filename, ErrSyntax)
	}

	b := &builder{file: tsast.NewFile(filename, src), src: src}
	b.walk(root)
	return b.file, nil
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := firstError(n.Child(i)); found != nil {
			return found
		}
	}
	return n
}

type builder struct {
	file *tsast.File
	src  []byte
}

func (b *builder) walk(n *sitter.Node) {
	if n == nil {
		return
	}
	if n.Type() == "comment" {
		b.file.Comments = append(b.file.Comments, tsast.Comment{Text: n.Content(b.src), Range: rangeOf(n)})
		return
	}

	count := int(n.ChildCount())
	if count == 0 {
		if n.EndByte() > n.StartByte() {
			b.file.Tokens = append(b.file.Tokens, tsast.Token{Value: n.Content(b.src), Range: rangeOf(n)})
		}
		return
	}

	if n.Type() == "type_parameters" {
		b.file.TypeParameterDeclarations = append(b.file.TypeParameterDeclarations, b.typeParameters(n))
	}
	for i := 0; i < count; i++ {
		b.walk(n.Child(i))
	}
}

func (b *builder) typeParameters(n *sitter.Node) *tsast.TypeParameterDeclaration {
	decl := &tsast.TypeParameterDeclaration{
		Owner: ownerKind(n.Parent()),
		Range: rangeOf(n),
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Type() != "type_parameter" {
			continue
		}
		param := &tsast.TypeParameter{Range: rangeOf(child), Parent: decl}
		if name := child.ChildByFieldName("name"); name != nil {
			param.Name = &tsast.Identifier{Name: name.Content(b.src), Range: rangeOf(name)}
		}
		if constraint := child.ChildByFieldName("constraint"); constraint != nil {
			param.Constraint = b.typeNode(firstNamedChild(constraint))
		}
		if value := child.ChildByFieldName("value"); value != nil {
			param.Default = b.typeNode(firstNamedChild(value))
		}
		decl.Params = append(decl.Params, param)
	}
	return decl
}

// typeNode keeps the extent of n but classifies it by its innermost
// non-parenthesized type, so `(any)` is an any keyword spanning the parens.
func (b *builder) typeNode(n *sitter.Node) *tsast.TypeNode {
	if n == nil {
		return nil
	}
	inner := n
	for inner.Type() == "parenthesized_type" {
		next := firstNamedChild(inner)
		if next == nil {
			break
		}
		inner = next
	}
	return &tsast.TypeNode{Kind: b.kindOf(inner), Range: rangeOf(n)}
}

func (b *builder) kindOf(n *sitter.Node) tsast.Kind {
	switch n.Type() {
	case "predefined_type":
		if kind, ok := predefinedKinds[strings.TrimSpace(n.Content(b.src))]; ok {
			return kind
		}
		return tsast.KindOther
	case "type_identifier", "nested_type_identifier", "generic_type":
		return tsast.KindTypeReference
	case "union_type":
		return tsast.KindUnionType
	case "intersection_type":
		return tsast.KindIntersectionType
	case "object_type":
		return tsast.KindTypeLiteral
	case "array_type", "readonly_type":
		return tsast.KindArrayType
	case "tuple_type":
		return tsast.KindTupleType
	case "function_type":
		return tsast.KindFunctionType
	case "constructor_type":
		return tsast.KindConstructorType
	case "literal_type":
		if lit := firstNamedChild(n); lit != nil {
			switch lit.Type() {
			case "null":
				return tsast.KindNullKeyword
			case "undefined":
				return tsast.KindUndefinedKeyword
			}
		}
		return tsast.KindLiteralType
	case "type_query":
		return tsast.KindTypeQuery
	case "index_type_query":
		return tsast.KindTypeOperator
	case "lookup_type":
		return tsast.KindIndexedAccessType
	case "conditional_type":
		return tsast.KindConditionalType
	case "template_literal_type":
		return tsast.KindTemplateLiteralType
	case "undefined":
		return tsast.KindUndefinedKeyword
	}
	return tsast.KindOther
}

var predefinedKinds = map[string]tsast.Kind{
	"any":     tsast.KindAnyKeyword,
	"unknown": tsast.KindUnknownKeyword,
	"string":  tsast.KindStringKeyword,
	"number":  tsast.KindNumberKeyword,
	"boolean": tsast.KindBooleanKeyword,
	"bigint":  tsast.KindBigIntKeyword,
	"symbol":  tsast.KindSymbolKeyword,
	"object":  tsast.KindObjectKeyword,
	"never":   tsast.KindNeverKeyword,
	"void":    tsast.KindVoidKeyword,
}

var ownerKinds = map[string]tsast.OwnerKind{
	"arrow_function":                 tsast.OwnerArrowFunction,
	"function_declaration":           tsast.OwnerFunctionDeclaration,
	"generator_function_declaration": tsast.OwnerFunctionDeclaration,
	"function":                       tsast.OwnerFunctionExpression,
	"function_expression":            tsast.OwnerFunctionExpression,
	"generator_function":             tsast.OwnerFunctionExpression,
	"function_signature":             tsast.OwnerDeclareFunction,
	"class_declaration":              tsast.OwnerClassDeclaration,
	"abstract_class_declaration":     tsast.OwnerClassDeclaration,
	"class":                          tsast.OwnerClassExpression,
	"interface_declaration":          tsast.OwnerInterfaceDeclaration,
	"type_alias_declaration":         tsast.OwnerTypeAlias,
	"method_definition":              tsast.OwnerMethodDefinition,
	"method_signature":               tsast.OwnerMethodSignature,
	"abstract_method_signature":      tsast.OwnerMethodSignature,
	"call_signature":                 tsast.OwnerCallSignature,
	"construct_signature":            tsast.OwnerConstructSignature,
	"function_type":                  tsast.OwnerFunctionType,
	"constructor_type":               tsast.OwnerConstructorType,
}

func ownerKind(n *sitter.Node) tsast.OwnerKind {
	if n == nil {
		return tsast.OwnerOther
	}
	if kind, ok := ownerKinds[n.Type()]; ok {
		return kind
	}
	return tsast.OwnerOther
}

func firstNamedChild(n *sitter.Node) *sitter.Node {
	if n == nil {
		return nil
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child != nil && child.Type() != "comment" {
			return child
		}
	}
	return nil
}

func rangeOf(n *sitter.Node) tsast.Range {
	return tsast.Range{Start: int(n.StartByte()), End: int(n.EndByte())}
}
