package ast

import "planar/internal/core"

// Scope is the capability a parser/elaborator needs to answer "is this
// identifier a type, function or variable here" while walking nested
// blocks, structs, functions and modules. Each concrete scope wraps one
// declaring statement plus a link to its enclosing scope; resolution
// walks outward through Parent until it finds a match or runs out of
// scopes.
type Scope interface {
	// ScopeName returns the scope's own name, if it has one (a struct or
	// module name; blocks and the top-level namespace have none).
	ScopeName() (core.Name, bool)
	IsType(ident core.Name) bool
	IsFunc(ident core.Name) bool
	IsVar(ident core.Name) bool
	// Decls returns every statement in this scope (not ancestors) that
	// could declare a type, function or variable.
	Decls() []Stmt
}

// StmtScope is a Scope rooted at a single statement (block, function,
// struct or module body) with an optional enclosing scope.
type StmtScope struct {
	Owner  Stmt
	Name   core.Name
	Named  bool
	Parent Scope
}

// NewStmtScope builds a scope over owner's direct children, chained to
// parent for names owner doesn't declare itself.
func NewStmtScope(owner Stmt, parent Scope) *StmtScope {
	s := &StmtScope{Owner: owner, Parent: parent}
	switch t := owner.(type) {
	case *Function:
		s.Name, s.Named = t.Name, true
	case *StructureDef:
		s.Name, s.Named = t.Name, true
	case *Module:
		s.Name, s.Named = t.Name, true
	}
	return s
}

func (s *StmtScope) ScopeName() (core.Name, bool) { return s.Name, s.Named }

func (s *StmtScope) Decls() []Stmt { return Children(s.Owner) }

func (s *StmtScope) IsType(ident core.Name) bool {
	for _, c := range Children(s.Owner) {
		if LeafIsType(c, ident) {
			return true
		}
	}
	if s.Parent != nil {
		return s.Parent.IsType(ident)
	}
	return false
}

func (s *StmtScope) IsFunc(ident core.Name) bool {
	for _, c := range Children(s.Owner) {
		if f, ok := c.(*Function); ok && f.Name == ident {
			return true
		}
	}
	if s.Parent != nil {
		return s.Parent.IsFunc(ident)
	}
	return false
}

func (s *StmtScope) IsVar(ident core.Name) bool {
	for _, c := range Children(s.Owner) {
		if LeafIsVar(c, ident) {
			return true
		}
	}
	if s.Parent != nil {
		return s.Parent.IsVar(ident)
	}
	return false
}

// NamespaceScope is a Scope rooted at a Namespace, used for top-level
// resolution before any module or function body has been entered.
type NamespaceScope struct {
	NS     *Namespace
	Parent Scope
}

func NewNamespaceScope(ns *Namespace, parent Scope) *NamespaceScope {
	return &NamespaceScope{NS: ns, Parent: parent}
}

func (s *NamespaceScope) ScopeName() (core.Name, bool) { return s.NS.Name, s.NS.HasName }

func (s *NamespaceScope) Decls() []Stmt {
	var out []Stmt
	for _, item := range s.NS.Content {
		if item.Stmt != nil {
			out = append(out, item.Stmt)
		}
	}
	return out
}

func (s *NamespaceScope) IsType(ident core.Name) bool {
	for _, d := range s.Decls() {
		if LeafIsType(d, ident) {
			return true
		}
	}
	if s.Parent != nil {
		return s.Parent.IsType(ident)
	}
	return false
}

func (s *NamespaceScope) IsFunc(ident core.Name) bool {
	for _, d := range s.Decls() {
		if f, ok := d.(*Function); ok && f.Name == ident {
			return true
		}
	}
	if s.Parent != nil {
		return s.Parent.IsFunc(ident)
	}
	return false
}

func (s *NamespaceScope) IsVar(ident core.Name) bool {
	for _, d := range s.Decls() {
		if LeafIsVar(d, ident) {
			return true
		}
	}
	if s.Parent != nil {
		return s.Parent.IsVar(ident)
	}
	return false
}
