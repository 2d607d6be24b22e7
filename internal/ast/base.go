// Package ast defines the tree produced by the parser: expressions,
// statements, data types and the scope/namespace scaffolding elaboration
// walks over. Node kinds are plain structs implementing small Expr/Stmt
// interfaces (Accept + Src), in the same visitor shape the rest of this
// module's front end uses for dispatch.
package ast

import (
	"fmt"

	"planar/internal/core"
)

// LineCol is a one-based source position.
type LineCol struct {
	Line int
	Col  int
}

func (lc LineCol) String() string {
	return fmt.Sprintf("%d:%d", lc.Line, lc.Col)
}

// SrcInfo locates a span of source text, for diagnostics.
type SrcInfo struct {
	File  core.Name
	Start LineCol
	End   LineCol
}

// Attribute is a `[[name]]` or `[[name(value)]]` annotation attached to a
// declaration or statement.
type Attribute struct {
	Name  core.Name
	Value Expr // nil if the attribute carries no value
}

// AttributeList is the attribute set carried by a declaration.
type AttributeList []Attribute

// Has reports whether name appears anywhere in the list.
func (al AttributeList) Has(name core.Name) bool {
	for _, a := range al {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Get returns the first attribute named name.
func (al AttributeList) Get(name core.Name) (Attribute, bool) {
	for _, a := range al {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}
