package ast

import "planar/internal/core"

// NamespaceItem is one entry inside a Namespace: either a nested
// namespace or a plain statement (a module, struct, function, or
// declaration living at namespace scope).
type NamespaceItem struct {
	Nested *Namespace // non-nil for a nested namespace
	Stmt   Stmt        // non-nil for a leaf statement
}

// Namespace groups declarations under an optional name. The parser
// produces one root (anonymous) Namespace per compiled file.
type Namespace struct {
	Name    core.Name
	HasName bool
	Content []NamespaceItem
	Attrs   AttributeList
	Info    SrcInfo
}

func NewNamespace(name core.Name, hasName bool, attrs AttributeList, src SrcInfo) *Namespace {
	return &Namespace{Name: name, HasName: hasName, Attrs: attrs, Info: src}
}

func (n *Namespace) Src() SrcInfo { return n.Info }
