package astwalk

import (
	"github.com/podhmo/go-tslint/tsast"
)

// DeclarationFilter selects type-parameter declarations by where they are declared.
type DeclarationFilter func(decl *tsast.TypeParameterDeclaration) bool

// InArrowFunction matches `ArrowFunctionExpression > TSTypeParameterDeclaration`.
func InArrowFunction(decl *tsast.TypeParameterDeclaration) bool {
	return decl.Owner == tsast.OwnerArrowFunction
}

// OutsideArrowFunction matches `:not(ArrowFunctionExpression) > TSTypeParameterDeclaration`.
func OutsideArrowFunction(decl *tsast.TypeParameterDeclaration) bool {
	return decl.Owner != tsast.OwnerArrowFunction
}

// ConstrainedTypeParameters returns an iterator over the type parameters
// that have a constraint, in declarations accepted by filter.
// A nil filter accepts every declaration.
// Example:
//
//	for param := range ConstrainedTypeParameters(file, InArrowFunction) {
//		// use param
//	}
func ConstrainedTypeParameters(file *tsast.File, filter DeclarationFilter) func(yield func(*tsast.TypeParameter) bool) {
	return func(yield func(*tsast.TypeParameter) bool) {
		if file == nil {
			return
		}

		for _, decl := range file.TypeParameterDeclarations {
			if filter != nil && !filter(decl) {
				continue
			}
			for _, param := range decl.Params {
				if param.Constraint == nil {
					continue
				}
				if !yield(param) {
					return // Stop iteration if yield returns false
				}
			}
		}
	}
}
