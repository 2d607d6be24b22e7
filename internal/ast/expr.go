package ast

import "planar/internal/core"

// Expr is any expression node. Concrete node types are plain structs;
// dispatch goes through Accept rather than type switches, so adding an
// ExprVisitor implementation (elaborator, printer) never has to touch
// the node definitions.
type Expr interface {
	Accept(v ExprVisitor) any
	Src() SrcInfo
}

type exprBase struct {
	Attrs AttributeList
	Info  SrcInfo
}

func (e exprBase) Src() SrcInfo { return e.Info }

// NullExpr is the empty expression, used for e.g. an omitted for-loop
// clause.
type NullExpr struct{ exprBase }

func (e *NullExpr) Accept(v ExprVisitor) any { return v.VisitNull(e) }

// LiteralExpr is a constant bit-vector literal.
type LiteralExpr struct {
	exprBase
	Value core.BitVector
}

func (e *LiteralExpr) Accept(v ExprVisitor) any { return v.VisitLiteral(e) }

// VariableExpr references a name bound somewhere in an enclosing scope.
type VariableExpr struct {
	exprBase
	Name core.Name
}

func (e *VariableExpr) Accept(v ExprVisitor) any { return v.VisitVariable(e) }

// ScopedVariableExpr is `Base::Name`, a name looked up inside the scope
// produced by evaluating Base (a namespace, struct instance or module).
type ScopedVariableExpr struct {
	exprBase
	Base Expr
	Name core.Name
}

func (e *ScopedVariableExpr) Accept(v ExprVisitor) any { return v.VisitScopedVariable(e) }

// TemplateArgExpr references a template parameter by name, valid only
// inside the body of the template it parameterizes.
type TemplateArgExpr struct {
	exprBase
	Name core.Name
}

func (e *TemplateArgExpr) Accept(v ExprVisitor) any { return v.VisitTemplateArg(e) }

// ListExpr is a brace-enclosed list of expressions: an array/structure
// literal or a template argument list, disambiguated by context.
type ListExpr struct {
	exprBase
	Elements []Expr
}

func (e *ListExpr) Accept(v ExprVisitor) any { return v.VisitList(e) }

// OpExpr applies Operator to Args, in the arity the operator declares.
type OpExpr struct {
	exprBase
	Operator Operator
	Args     []Expr
}

func (e *OpExpr) Accept(v ExprVisitor) any { return v.VisitOp(e) }

// FuncCallExpr calls FuncName, optionally as a member of Dest (the
// expression the call binds `this`/scope to).
type FuncCallExpr struct {
	exprBase
	FuncName core.Name
	Dest     Expr // nil for a free function call
	Args     []Expr
}

func (e *FuncCallExpr) Accept(v ExprVisitor) any { return v.VisitFuncCall(e) }

// ArrayAccessExpr is `Array[Indices...]`.
type ArrayAccessExpr struct {
	exprBase
	Array   Expr
	Indices []Expr
}

func (e *ArrayAccessExpr) Accept(v ExprVisitor) any { return v.VisitArrayAccess(e) }

// BitSliceExpr is `Array[Start:End]`.
type BitSliceExpr struct {
	exprBase
	Array Expr
	Start Expr
	End   Expr
}

func (e *BitSliceExpr) Accept(v ExprVisitor) any { return v.VisitBitSlice(e) }

// BuiltinKind distinguishes the compile-time builtin queries.
type BuiltinKind int

const (
	BuiltinSizeOf BuiltinKind = iota
	BuiltinWidthOf
	BuiltinLengthOf
	BuiltinPipeline
	BuiltinDelay
)

// BuiltinExpr invokes a builtin query over Arg, e.g. `widthof(x)`.
type BuiltinExpr struct {
	exprBase
	Kind BuiltinKind
	Arg  Expr
}

func (e *BuiltinExpr) Accept(v ExprVisitor) any { return v.VisitBuiltin(e) }

// ExprVisitor dispatches over every Expr node kind.
type ExprVisitor interface {
	VisitNull(*NullExpr) any
	VisitLiteral(*LiteralExpr) any
	VisitVariable(*VariableExpr) any
	VisitScopedVariable(*ScopedVariableExpr) any
	VisitTemplateArg(*TemplateArgExpr) any
	VisitList(*ListExpr) any
	VisitOp(*OpExpr) any
	VisitFuncCall(*FuncCallExpr) any
	VisitArrayAccess(*ArrayAccessExpr) any
	VisitBitSlice(*BitSliceExpr) any
	VisitBuiltin(*BuiltinExpr) any
}

// newExprBase constructs the exprBase embedded in every concrete node.
func newExprBase(attrs AttributeList, src SrcInfo) exprBase {
	return exprBase{Attrs: attrs, Info: src}
}

func NewNull(attrs AttributeList, src SrcInfo) *NullExpr {
	return &NullExpr{newExprBase(attrs, src)}
}

func NewLiteral(v core.BitVector, attrs AttributeList, src SrcInfo) *LiteralExpr {
	return &LiteralExpr{newExprBase(attrs, src), v}
}

func NewVariable(name core.Name, attrs AttributeList, src SrcInfo) *VariableExpr {
	return &VariableExpr{newExprBase(attrs, src), name}
}

func NewScopedVariable(base Expr, name core.Name, attrs AttributeList, src SrcInfo) *ScopedVariableExpr {
	return &ScopedVariableExpr{newExprBase(attrs, src), base, name}
}

func NewTemplateArg(name core.Name, attrs AttributeList, src SrcInfo) *TemplateArgExpr {
	return &TemplateArgExpr{newExprBase(attrs, src), name}
}

func NewList(elems []Expr, attrs AttributeList, src SrcInfo) *ListExpr {
	return &ListExpr{newExprBase(attrs, src), elems}
}

func NewOp(op Operator, args []Expr, attrs AttributeList, src SrcInfo) *OpExpr {
	return &OpExpr{newExprBase(attrs, src), op, args}
}

func NewFuncCall(name core.Name, dest Expr, args []Expr, attrs AttributeList, src SrcInfo) *FuncCallExpr {
	return &FuncCallExpr{newExprBase(attrs, src), name, dest, args}
}

func NewArrayAccess(arr Expr, indices []Expr, attrs AttributeList, src SrcInfo) *ArrayAccessExpr {
	return &ArrayAccessExpr{newExprBase(attrs, src), arr, indices}
}

func NewBitSlice(arr, start, end Expr, attrs AttributeList, src SrcInfo) *BitSliceExpr {
	return &BitSliceExpr{newExprBase(attrs, src), arr, start, end}
}

func NewBuiltin(kind BuiltinKind, arg Expr, attrs AttributeList, src SrcInfo) *BuiltinExpr {
	return &BuiltinExpr{newExprBase(attrs, src), kind, arg}
}
