package elaborate

import (
	"fmt"

	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/design"
	"planar/internal/diag"
)

// Eval walks a module's statement tree and builds a design.Design from
// it. It is the Go counterpart of the reference's Eval<'a> (st, sc,
// is_const): the vars store plays the role of GenState.vars, the scope
// stack the role of a chain of GenScope.var_map, and isConst the role
// of Eval.is_const.
type Eval struct {
	in  *core.Interner
	des *design.Design

	vars   *core.Store[Variable]
	scopes []*scope

	isConst bool

	anonCounters map[string]uint64
}

// ElaborateModule elaborates a single, non-templated module into a
// fresh Design. Clock/enable/reset domains, template arguments and
// interface-typed ports are accepted by the grammar but not lowered
// here; see SPEC_FULL.md's elaboration section for the features this
// first pass covers.
func ElaborateModule(in *core.Interner, mod *ast.Module) (*design.Design, error) {
	d := design.New(mod.Name, in)
	e := &Eval{
		in:           in,
		des:          d,
		vars:         core.NewStore[Variable](),
		anonCounters: make(map[string]uint64),
	}
	e.pushScope()
	defer e.popScope()

	if len(mod.TemplArgs) > 0 {
		return nil, diag.NotImplementedf(diag.Location{}, "templated modules")
	}
	if mod.Clock != nil || mod.Enable != nil || mod.Reset != nil {
		return nil, diag.NotImplementedf(diag.Location{}, "clock/enable/reset domains")
	}

	type outputPort struct {
		node core.Index[design.Node]
		vr   core.Index[Variable]
	}
	var outputs []outputPort

	for _, port := range mod.Ports {
		if port.Dir == ast.DirInterface {
			return nil, diag.NotImplementedf(diag.Location{}, "interface-typed port %s", port.Name)
		}
		rt, err := Resolve(e, port.Type)
		if err != nil {
			return nil, err
		}
		if rt.Kind != ResInteger {
			return nil, diag.NotImplementedf(diag.Location{}, "non-scalar port %s", port.Name)
		}
		isInput := port.Dir == ast.DirInput
		nodeIdx, err := d.AddTopLevelNode(port.Name, rt.Integer, isInput, !isInput)
		if err != nil {
			return nil, wrapErr(diag.Location{}, err)
		}
		varIdx, err := e.declareVar(port.Name, rt, NodeValue(nodeIdx), diag.Location{})
		if err != nil {
			return nil, err
		}
		if !isInput {
			outputs = append(outputs, outputPort{node: nodeIdx, vr: varIdx})
		}
	}

	if err := e.Exec(mod.Content); err != nil {
		return nil, err
	}

	// Every output port started out bound to its own top-level
	// placeholder node (driven by the environment, same as an input),
	// so that it is assignable like any other scalar variable. Once the
	// body has run, retarget each placeholder's Driver to whatever
	// actually produced the variable's final value: an output the body
	// never assigned keeps its original placeholder driver, which
	// downstream lowering treats as undriven rather than an error here.
	for _, out := range outputs {
		v := e.vars.Get(out.vr)
		if v.Value.Kind == VVoid {
			continue
		}
		finalIdx, err := e.materialize(v.Value, diag.Location{})
		if err != nil {
			return nil, err
		}
		if finalIdx == out.node {
			continue
		}
		d.Nodes.Get(out.node).Driver = d.Nodes.Get(finalIdx).Driver
	}

	return d, nil
}

// locOf extracts a diag.Location from anything with source-span info:
// both ast.Expr and ast.Stmt satisfy this without a shared base type,
// so a structural interface covers both.
func locOf(n interface{ Src() ast.SrcInfo }) diag.Location {
	if n == nil {
		return diag.Location{}
	}
	info := n.Src()
	return diag.Location{File: info.File, Line: info.Start.Line, Column: info.Start.Col}
}

// Location implements the resolver interface that resolvedtype.go's
// Resolve expects.
func (e *Eval) Location(expr ast.Expr) diag.Location {
	return locOf(expr)
}

// ConstEvalScalar implements the resolver interface: the Go analogue
// of const_eval_scalar, routing through the same is_const toggle as
// const_eval.
func (e *Eval) ConstEvalScalar(expr ast.Expr) (core.BitVector, error) {
	old := e.isConst
	e.isConst = true
	v, err := e.Eval(expr)
	e.isConst = old
	if err != nil {
		return core.BitVector{}, err
	}
	if v.Kind != VConstant {
		return core.BitVector{}, diag.Constnessf(e.Location(expr), "expected a compile-time constant, found a %s", kindName(v.Kind))
	}
	return v.Const, nil
}

func kindName(k ValueKind) string {
	switch k {
	case VVoid:
		return "void value"
	case VNode:
		return "non-constant value"
	case VStructure:
		return "structure value"
	case VArray:
		return "array value"
	case VFunc:
		return "function value"
	default:
		return "value"
	}
}

func wrapErr(loc diag.Location, err error) error {
	if err == nil {
		return nil
	}
	return diag.Resolutionf(loc, "%s", err.Error())
}

// --- scope / variable bookkeeping ---

func (e *Eval) pushScope() {
	e.scopes = append(e.scopes, newScope())
}

func (e *Eval) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *Eval) curScope() *scope {
	return e.scopes[len(e.scopes)-1]
}

func (e *Eval) declareVar(name core.Name, ty ResolvedType, val Value, loc diag.Location) (core.Index[Variable], error) {
	if _, exists := e.curScope().vars[name]; exists {
		return core.Index[Variable]{}, diag.Resolutionf(loc, "redeclaration of %s in the same scope", name)
	}
	idx := e.vars.Add(Variable{Type: ty, Value: val})
	v := e.vars.Get(idx)
	v.SetName(name)
	v.SetIndex(idx)
	e.curScope().vars[name] = idx
	return idx, nil
}

func (e *Eval) lookupVar(name core.Name) (core.Index[Variable], bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if idx, ok := e.scopes[i].vars[name]; ok {
			return idx, true
		}
	}
	return core.Index[Variable]{}, false
}

func (e *Eval) anonName(prefix string) core.Name {
	n := e.anonCounters[prefix]
	e.anonCounters[prefix] = n + 1
	return e.in.ID(fmt.Sprintf("%s$%d$", prefix, n))
}

// --- expression evaluation ---

// Eval evaluates expr through the ExprVisitor dispatch below. Every
// VisitX method returns either a Value or an error as `any`; Eval is
// the single place that unwraps that convention.
func (e *Eval) Eval(expr ast.Expr) (Value, error) {
	res := expr.Accept(e)
	switch r := res.(type) {
	case Value:
		return r, nil
	case error:
		return Value{}, r
	default:
		return Value{}, diag.NotImplementedf(e.Location(expr), "expression kind %T", expr)
	}
}

func (e *Eval) VisitNull(x *ast.NullExpr) any {
	return VoidValue()
}

func (e *Eval) VisitLiteral(x *ast.LiteralExpr) any {
	return ConstValue(minimizeLiteral(x.Value))
}

func (e *Eval) VisitVariable(x *ast.VariableExpr) any {
	idx, ok := e.lookupVar(x.Name)
	if !ok {
		return diag.Resolutionf(e.Location(x), "undefined variable %s", x.Name)
	}
	v := e.vars.Get(idx)
	if e.isConst && !v.Value.IsFullyConst() {
		return diag.Constnessf(e.Location(x), "%s is not a compile-time constant here", x.Name)
	}
	return v.Value
}

func (e *Eval) VisitScopedVariable(x *ast.ScopedVariableExpr) any {
	return diag.NotImplementedf(e.Location(x), "scoped member access")
}

func (e *Eval) VisitTemplateArg(x *ast.TemplateArgExpr) any {
	return diag.NotImplementedf(e.Location(x), "template argument references")
}

func (e *Eval) VisitList(x *ast.ListExpr) any {
	elems := make([]Value, len(x.Elements))
	for i, el := range x.Elements {
		v, err := e.Eval(el)
		if err != nil {
			return err
		}
		elems[i] = v
	}
	return Value{Kind: VArray, Array: elems}
}

func (e *Eval) VisitOp(x *ast.OpExpr) any {
	v, err := e.evalOp(x)
	if err != nil {
		return err
	}
	return v
}

func (e *Eval) VisitFuncCall(x *ast.FuncCallExpr) any {
	return diag.NotImplementedf(e.Location(x), "function calls")
}

func (e *Eval) VisitArrayAccess(x *ast.ArrayAccessExpr) any {
	base, err := e.Eval(x.Array)
	if err != nil {
		return err
	}
	if len(x.Indices) != 1 {
		return diag.NotImplementedf(e.Location(x), "multi-dimensional array indexing")
	}
	idxVal, err := e.Eval(x.Indices[0])
	if err != nil {
		return err
	}
	if idxVal.Kind != VConstant {
		return diag.NotImplementedf(e.Location(x), "array indexing by a non-constant value")
	}
	iv, ok := idxVal.Const.AsDefU64()
	if !ok {
		return diag.Constnessf(e.Location(x), "array index is not fully defined")
	}
	v, ok := GetPath(base, ValuePath{{Kind: PathConstIndex, ConstIdx: int(iv)}})
	if !ok {
		return diag.Resolutionf(e.Location(x), "array index %d out of range", iv)
	}
	return v
}

func (e *Eval) VisitBitSlice(x *ast.BitSliceExpr) any {
	return diag.NotImplementedf(e.Location(x), "bit-slice expressions")
}

func (e *Eval) VisitBuiltin(x *ast.BuiltinExpr) any {
	switch x.Kind {
	case ast.BuiltinWidthOf:
		ty, err := e.typeOfExpr(x.Arg)
		if err != nil {
			return err
		}
		if ty.Kind != ResInteger {
			return diag.Typef(e.Location(x), "widthof requires a scalar integer operand")
		}
		return ConstValue(core.FromU64(uint64(ty.Integer.Width), 32))
	case ast.BuiltinSizeOf:
		return diag.NotImplementedf(e.Location(x), "sizeof")
	case ast.BuiltinLengthOf:
		return diag.NotImplementedf(e.Location(x), "lengthof")
	case ast.BuiltinPipeline:
		return diag.NotImplementedf(e.Location(x), "pipeline timing annotations")
	case ast.BuiltinDelay:
		return diag.NotImplementedf(e.Location(x), "delay timing annotations")
	default:
		return diag.NotImplementedf(e.Location(x), "builtin query")
	}
}

func (e *Eval) typeOfExpr(expr ast.Expr) (ResolvedType, error) {
	v, err := e.Eval(expr)
	if err != nil {
		return ResolvedType{}, err
	}
	return e.typeOfValue(v, e.Location(expr))
}

func (e *Eval) typeOfValue(v Value, loc diag.Location) (ResolvedType, error) {
	switch v.Kind {
	case VVoid:
		return Void(), nil
	case VConstant:
		return Integer(v.Const.OpType()), nil
	case VNode:
		return Integer(e.des.Nodes.Get(v.Node).Type), nil
	case VArray:
		result := Void()
		for _, el := range v.Array {
			elTy, err := e.typeOfValue(el, loc)
			if err != nil {
				return ResolvedType{}, err
			}
			result, err = Merge(result, elTy, loc)
			if err != nil {
				return ResolvedType{}, err
			}
		}
		return result, nil
	default:
		return ResolvedType{}, diag.NotImplementedf(loc, "type query over this value kind")
	}
}

// --- operator evaluation ---

func (e *Eval) evalOp(x *ast.OpExpr) (Value, error) {
	switch x.Operator {
	case ast.OpAssign, ast.OpAsAdd, ast.OpAsSub, ast.OpAsMul, ast.OpAsDiv, ast.OpAsMod,
		ast.OpAsShl, ast.OpAsShr, ast.OpAsAnd, ast.OpAsOr, ast.OpAsXor:
		return e.evalAssign(x)
	case ast.OpPreInc, ast.OpPreDec, ast.OpPostInc, ast.OpPostDec:
		return e.evalIncDec(x)
	case ast.OpPromote:
		return e.Eval(x.Args[0])
	case ast.OpRedAnd, ast.OpRedOr, ast.OpRedXor:
		return Value{}, diag.NotImplementedf(e.Location(x), "bitwise reduction operator %s", x.Operator.Token())
	}

	basicOp, ok := toBasicOp(x.Operator)
	if !ok {
		return Value{}, diag.NotImplementedf(e.Location(x), "operator %s", x.Operator.Token())
	}
	args := make([]Value, len(x.Args))
	for i, a := range x.Args {
		v, err := e.Eval(a)
		if err != nil {
			return Value{}, err
		}
		args[i] = v
	}
	return e.applyBasicOp(basicOp, args, e.Location(x))
}

// applyBasicOp mirrors op_value: fully-constant operands fold in
// place, otherwise a BasicOp primitive is instantiated and wired to
// each operand's node.
func (e *Eval) applyBasicOp(op core.BasicOp, args []Value, loc diag.Location) (Value, error) {
	types := make([]core.OperandType, len(args))
	bits := make([]core.BitVector, len(args))
	fullyConst := true
	for i, a := range args {
		switch a.Kind {
		case VConstant:
			bits[i] = a.Const
			types[i] = a.Const.OpType()
		case VNode:
			fullyConst = false
			types[i] = e.des.Nodes.Get(a.Node).Type
		default:
			return Value{}, diag.Typef(loc, "non-scalar value passed to operator %s", op.String())
		}
	}

	if fullyConst {
		if unimplementedFold(op) {
			return Value{}, diag.NotImplementedf(loc, "constant folding for operator %s", op.String())
		}
		return ConstValue(op.Apply(bits)), nil
	}

	resTy := op.ResultType(types)
	primIdx, err := e.des.AddPrim(e.anonName("op"), design.PrimitiveType{Kind: design.PrimBasicOp, BasicOp: op})
	if err != nil {
		return Value{}, wrapErr(loc, err)
	}
	for i, a := range args {
		node, err := e.materialize(a, loc)
		if err != nil {
			return Value{}, err
		}
		if _, err := e.des.AddPrimInput(primIdx, e.in.ID(operandPort(i)), node); err != nil {
			return Value{}, wrapErr(loc, err)
		}
	}
	outIdx, err := e.des.AddNode(e.anonName("q"), resTy, primIdx, e.in.ID("Q"))
	if err != nil {
		return Value{}, wrapErr(loc, err)
	}
	return NodeValue(outIdx), nil
}

func operandPort(i int) string {
	names := [...]string{"A", "B", "C", "D"}
	if i < len(names) {
		return names[i]
	}
	return fmt.Sprintf("IN%d", i)
}

// materialize turns a Value into a design node, adding a const
// primitive for compile-time constants that are about to drive a
// non-constant computation.
func (e *Eval) materialize(v Value, loc diag.Location) (core.Index[design.Node], error) {
	switch v.Kind {
	case VNode:
		return v.Node, nil
	case VConstant:
		idx, err := e.des.AddConst(core.BitsConstant(v.Const))
		if err != nil {
			return core.Index[design.Node]{}, wrapErr(loc, err)
		}
		return idx, nil
	default:
		return core.Index[design.Node]{}, diag.NotImplementedf(loc, "materializing a non-scalar value into the design")
	}
}

func (e *Eval) valueType(v Value, loc diag.Location) (core.OperandType, error) {
	switch v.Kind {
	case VConstant:
		return v.Const.OpType(), nil
	case VNode:
		return e.des.Nodes.Get(v.Node).Type, nil
	default:
		return core.OperandType{}, diag.Typef(loc, "expected a scalar value")
	}
}

// toBasicOp maps the general operator set onto core.BasicOp. The
// reference's eval_oper only ever wires up Add; the rest of this table
// is this elaborator's own extension, using the same ResultType/Apply
// machinery eval_oper's Add arm already relies on (see DESIGN.md).
func toBasicOp(op ast.Operator) (core.BasicOp, bool) {
	switch op {
	case ast.OpAdd:
		return core.OpAdd, true
	case ast.OpSub:
		return core.OpSub, true
	case ast.OpNegate:
		return core.OpNeg, true
	case ast.OpMul:
		return core.OpMul, true
	case ast.OpDiv:
		return core.OpDiv, true
	case ast.OpMod:
		return core.OpMod, true
	case ast.OpEq:
		return core.OpEq, true
	case ast.OpNeq:
		return core.OpNeq, true
	case ast.OpGt:
		return core.OpGt, true
	case ast.OpLt:
		return core.OpLt, true
	case ast.OpGtEq:
		return core.OpGtEq, true
	case ast.OpLtEq:
		return core.OpLtEq, true
	case ast.OpShl:
		return core.OpShl, true
	case ast.OpShr:
		return core.OpShr, true
	case ast.OpBwAnd:
		return core.OpBwAnd, true
	case ast.OpBwOr:
		return core.OpBwOr, true
	case ast.OpBwXor:
		return core.OpBwXor, true
	case ast.OpBwNot:
		return core.OpBwNot, true
	case ast.OpLogAnd:
		return core.OpLogAnd, true
	case ast.OpLogOr:
		return core.OpLogOr, true
	case ast.OpLogNot:
		return core.OpLogNot, true
	default:
		return 0, false
	}
}

func compoundBasicOp(op ast.Operator) (core.BasicOp, bool) {
	switch op {
	case ast.OpAsAdd:
		return core.OpAdd, true
	case ast.OpAsSub:
		return core.OpSub, true
	case ast.OpAsMul:
		return core.OpMul, true
	case ast.OpAsDiv:
		return core.OpDiv, true
	case ast.OpAsMod:
		return core.OpMod, true
	case ast.OpAsShl:
		return core.OpShl, true
	case ast.OpAsShr:
		return core.OpShr, true
	case ast.OpAsAnd:
		return core.OpBwAnd, true
	case ast.OpAsOr:
		return core.OpBwOr, true
	case ast.OpAsXor:
		return core.OpBwXor, true
	default:
		return 0, false
	}
}

// unimplementedFold reports the BasicOp kinds whose Apply panics
// rather than folding (see internal/core/operand.go): constant
// operands hitting these must surface as a diagnostic, not a panic.
func unimplementedFold(op core.BasicOp) bool {
	switch op {
	case core.OpMul, core.OpDiv, core.OpMod, core.OpShl, core.OpShr,
		core.OpGt, core.OpLt, core.OpGtEq, core.OpLtEq:
		return true
	default:
		return false
	}
}

// --- literal sizing ---

// minimizeLiteral narrows a fully-defined literal to the smallest
// width that holds its value, rather than the width the lexer
// happened to scan it at (always 64 for a bare decimal literal). The
// reference's eval_expr clones the literal's bit vector verbatim
// (Literal(x) => Ok(Value::Constant(x.clone()))) with no such
// narrowing, but the reference also does not give bare decimal
// literals a 64-bit token width the way this lexer does (see
// scanner.go); minimizing here keeps a bare `a + 1` from silently
// becoming a 65-bit computation.
func minimizeLiteral(bv core.BitVector) core.BitVector {
	val, ok := bv.AsDefU64()
	if !ok {
		return bv
	}
	w := minimalWidth(val)
	if bv.IsSigned() {
		return core.FromI64(int64(val), w)
	}
	return core.FromU64(val, w)
}

func minimalWidth(v uint64) int {
	w := 1
	for v>>uint(w) != 0 {
		w++
	}
	return w
}

// isPureLiteral reports whether expr is built entirely out of integer
// literals and plain operators, with no variable, call or other
// non-constant leaf anywhere in it.
func isPureLiteral(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.LiteralExpr:
		return true
	case *ast.OpExpr:
		if t.Operator.IsAssignment() || t.Operator.IsPostfix() {
			return false
		}
		for _, a := range t.Args {
			if !isPureLiteral(a) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// evalHintedTo evaluates expr as the value being bound to a location
// of type target. When expr is a pure-literal expression, its literal
// leaves are widened (never narrowed) to target's width before
// folding: `unsigned<8> x = 42 + 69;` binds x to the 9-bit constant
// 111 this way, by widening both 42 and 69 to 8 bits before the add
// carries into a 9th. A literal mixed with a non-constant operand
// keeps its own minimal width instead, since the fold can't happen at
// elaboration time anyway: `a + 1` against an 8-bit `a` wires a 1-bit
// constant into the Add primitive's B input.
func (e *Eval) evalHintedTo(expr ast.Expr, target ResolvedType) (Value, error) {
	if target.Kind == ResInteger && isPureLiteral(expr) {
		return e.evalWithHint(expr, &target.Integer)
	}
	return e.Eval(expr)
}

func (e *Eval) evalWithHint(expr ast.Expr, hint *core.OperandType) (Value, error) {
	switch t := expr.(type) {
	case *ast.LiteralExpr:
		return ConstValue(hintedLiteral(t.Value, hint)), nil
	case *ast.OpExpr:
		basicOp, ok := toBasicOp(t.Operator)
		if !ok {
			return e.evalOp(t)
		}
		args := make([]Value, len(t.Args))
		for i, a := range t.Args {
			v, err := e.evalWithHint(a, hint)
			if err != nil {
				return Value{}, err
			}
			args[i] = v
		}
		return e.applyBasicOp(basicOp, args, e.Location(t))
	default:
		return e.Eval(expr)
	}
}

func hintedLiteral(bv core.BitVector, hint *core.OperandType) core.BitVector {
	val, ok := bv.AsDefU64()
	if !ok {
		return bv
	}
	w := minimalWidth(val)
	if hint != nil && hint.Width > w {
		w = hint.Width
	}
	if bv.IsSigned() {
		return core.FromI64(int64(val), w)
	}
	return core.FromU64(val, w)
}

// --- assignment / l-values ---

func (e *Eval) evalLValue(expr ast.Expr) (core.Index[Variable], ValuePath, error) {
	switch t := expr.(type) {
	case *ast.VariableExpr:
		idx, ok := e.lookupVar(t.Name)
		if !ok {
			return core.Index[Variable]{}, nil, diag.Resolutionf(e.Location(expr), "undefined variable %s", t.Name)
		}
		return idx, nil, nil
	case *ast.ArrayAccessExpr:
		varIdx, path, err := e.evalLValue(t.Array)
		if err != nil {
			return core.Index[Variable]{}, nil, err
		}
		if len(t.Indices) != 1 {
			return core.Index[Variable]{}, nil, diag.NotImplementedf(e.Location(expr), "multi-dimensional array indexing")
		}
		idxVal, err := e.Eval(t.Indices[0])
		if err != nil {
			return core.Index[Variable]{}, nil, err
		}
		if idxVal.Kind != VConstant {
			return core.Index[Variable]{}, nil, diag.NotImplementedf(e.Location(expr), "assignment through a non-constant array index")
		}
		iv, ok := idxVal.Const.AsDefU64()
		if !ok {
			return core.Index[Variable]{}, nil, diag.Constnessf(e.Location(expr), "array index is not fully defined")
		}
		return varIdx, append(path, ValuePathItem{Kind: PathConstIndex, ConstIdx: int(iv)}), nil
	case *ast.ScopedVariableExpr:
		return core.Index[Variable]{}, nil, diag.NotImplementedf(e.Location(expr), "assignment through member access")
	default:
		return core.Index[Variable]{}, nil, diag.Syntaxf(e.Location(expr), "invalid assignment target")
	}
}

func (e *Eval) evalAssign(x *ast.OpExpr) (Value, error) {
	lhsExpr, rhsExpr := x.Args[0], x.Args[1]

	varIdx, path, err := e.evalLValue(lhsExpr)
	if err != nil {
		return Value{}, err
	}
	v := e.vars.Get(varIdx)
	cur, ok := GetPath(v.Value, path)
	if !ok {
		cur = VoidValue()
	}

	var rhsVal Value
	if x.Operator == ast.OpAssign {
		rhsVal, err = e.evalHintedTo(rhsExpr, v.Type)
		if err != nil {
			return Value{}, err
		}
	} else {
		basicOp, ok := compoundBasicOp(x.Operator)
		if !ok {
			return Value{}, diag.NotImplementedf(e.Location(x), "compound assignment operator %s", x.Operator.Token())
		}
		rhs, err := e.Eval(rhsExpr)
		if err != nil {
			return Value{}, err
		}
		rhsVal, err = e.applyBasicOp(basicOp, []Value{cur, rhs}, e.Location(x))
		if err != nil {
			return Value{}, err
		}
	}

	v.Value = SetPath(v.Value, path, rhsVal)
	result, ok := GetPath(v.Value, path)
	if !ok {
		return Value{}, diag.Resolutionf(e.Location(x), "assigned path is no longer valid")
	}
	return result, nil
}

func (e *Eval) evalIncDec(x *ast.OpExpr) (Value, error) {
	target, deltaExpr := x.Args[0], x.Args[1]
	varIdx, path, err := e.evalLValue(target)
	if err != nil {
		return Value{}, err
	}
	v := e.vars.Get(varIdx)
	cur, ok := GetPath(v.Value, path)
	if !ok {
		return Value{}, diag.Resolutionf(e.Location(x), "assignment path is no longer valid")
	}
	delta, err := e.Eval(deltaExpr)
	if err != nil {
		return Value{}, err
	}
	basicOp := core.OpAdd
	if x.Operator == ast.OpPreDec || x.Operator == ast.OpPostDec {
		basicOp = core.OpSub
	}
	updated, err := e.applyBasicOp(basicOp, []Value{cur, delta}, e.Location(x))
	if err != nil {
		return Value{}, err
	}
	v.Value = SetPath(v.Value, path, updated)
	result, ok := GetPath(v.Value, path)
	if !ok {
		return Value{}, diag.Resolutionf(e.Location(x), "assignment path is no longer valid")
	}
	if x.Operator == ast.OpPreInc || x.Operator == ast.OpPreDec {
		return result, nil
	}
	return cur, nil
}

// --- conditional merge ---

// condMerge wires a `cond` primitive selecting between a variable's
// pre-branch value (A) and the value a branch just wrote to it (B),
// driven by the branch's own condition (S0). invert sets InvMask's
// low bit so an else branch selects B when the condition is false
// instead of true, letting if/else lower as two stacked cond
// primitives sharing the same select line rather than one primitive
// needing to know about both branches at once.
func (e *Eval) condMerge(pre, newVal, cond Value, invert bool, loc diag.Location) (Value, error) {
	preTy, err := e.valueType(pre, loc)
	if err != nil {
		return Value{}, err
	}
	newTy, err := e.valueType(newVal, loc)
	if err != nil {
		return Value{}, err
	}
	if _, err := e.valueType(cond, loc); err != nil {
		return Value{}, err
	}
	resTy := core.Merge(preTy, newTy)

	mask := uint64(0)
	if invert {
		mask = 1
	}
	primIdx, err := e.des.AddPrim(e.anonName("cond"), design.PrimitiveType{Kind: design.PrimCond, InvMask: mask})
	if err != nil {
		return Value{}, wrapErr(loc, err)
	}

	preNode, err := e.materialize(pre, loc)
	if err != nil {
		return Value{}, err
	}
	newNode, err := e.materialize(newVal, loc)
	if err != nil {
		return Value{}, err
	}
	condNode, err := e.materialize(cond, loc)
	if err != nil {
		return Value{}, err
	}

	if _, err := e.des.AddPrimInput(primIdx, e.in.ID("A"), preNode); err != nil {
		return Value{}, wrapErr(loc, err)
	}
	if _, err := e.des.AddPrimInput(primIdx, e.in.ID("B"), newNode); err != nil {
		return Value{}, wrapErr(loc, err)
	}
	if _, err := e.des.AddPrimInput(primIdx, e.in.ID("S0"), condNode); err != nil {
		return Value{}, wrapErr(loc, err)
	}

	outIdx, err := e.des.AddNode(e.anonName("q"), resTy, primIdx, e.in.ID("Q"))
	if err != nil {
		return Value{}, wrapErr(loc, err)
	}
	return NodeValue(outIdx), nil
}

func sameValue(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case VVoid:
		return true
	case VConstant:
		return a.Const.Equal(b.Const)
	case VNode:
		return a.Node == b.Node
	case VArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !sameValue(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case VStructure:
		if a.Struct.Type != b.Struct.Type || len(a.Struct.Values) != len(b.Struct.Values) {
			return false
		}
		for k, av := range a.Struct.Values {
			bv, ok := b.Struct.Values[k]
			if !ok || !sameValue(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// mergeConditional folds a branch's post-value back against its
// pre-branch value one leaf at a time: a scalar leaf that actually
// changed goes through condMerge, a leaf that didn't is left alone,
// and an array/structure is walked element-wise instead of being
// handed to condMerge (which only understands scalars) as a whole.
// This is runBranch's half of SPEC_FULL.md 4.3's "the assignment
// recurses componentwise: array R-value elements to indexed paths,
// structure R-value members to member paths" — applied here to the
// whole-variable diff runBranch already computes, rather than at each
// individual assignment.
func (e *Eval) mergeConditional(pre, post, cond Value, invert bool, loc diag.Location) (Value, error) {
	if sameValue(pre, post) {
		return post, nil
	}
	switch post.Kind {
	case VArray:
		preArr := pre.Array
		merged := make([]Value, len(post.Array))
		for i, elem := range post.Array {
			preElem := VoidValue()
			if i < len(preArr) {
				preElem = preArr[i]
			}
			m, err := e.mergeConditional(preElem, elem, cond, invert, loc)
			if err != nil {
				return Value{}, err
			}
			merged[i] = m
		}
		return Value{Kind: VArray, Array: merged}, nil
	case VStructure:
		merged := make(map[core.Name]Value, len(post.Struct.Values))
		for k, v := range post.Struct.Values {
			preVal, ok := pre.Struct.Values[k]
			if !ok {
				preVal = VoidValue()
			}
			m, err := e.mergeConditional(preVal, v, cond, invert, loc)
			if err != nil {
				return Value{}, err
			}
			merged[k] = m
		}
		return Value{Kind: VStructure, Struct: StructureValue{Type: post.Struct.Type, Values: merged}}, nil
	default:
		return e.condMerge(pre, post, cond, invert, loc)
	}
}

// --- statement evaluation ---

// Exec runs stmt through the StmtVisitor dispatch below. Every VisitX
// method returns either nil or an error as `any`.
func (e *Eval) Exec(stmt ast.Stmt) error {
	if stmt == nil {
		return nil
	}
	res := stmt.Accept(e)
	if res == nil {
		return nil
	}
	err, ok := res.(error)
	if !ok {
		return diag.NotImplementedf(locOf(stmt), "statement kind %T", stmt)
	}
	return err
}

func (e *Eval) VisitNullStmt(x *ast.NullStmt) any {
	return nil
}

func zeroValue(rt ResolvedType) Value {
	switch rt.Kind {
	case ResInteger, ResAutoInt:
		return ConstValue(core.Undefined(rt.Integer.Width, rt.Integer.IsSigned))
	case ResArray:
		elems := make([]Value, rt.ArrayLen)
		for i := range elems {
			elems[i] = zeroValue(*rt.ArrayElem)
		}
		return Value{Kind: VArray, Array: elems}
	default:
		return VoidValue()
	}
}

func (e *Eval) VisitVariableDecl(x *ast.VariableDecl) any {
	rt, err := Resolve(e, x.Type)
	if err != nil {
		return err
	}
	val := zeroValue(rt)
	if x.Init != nil {
		v, err := e.evalHintedTo(x.Init, rt)
		if err != nil {
			return err
		}
		val = v
	}
	if _, err := e.declareVar(x.Name, rt, val, locOf(x)); err != nil {
		return err
	}
	return nil
}

func (e *Eval) VisitTypedefDecl(x *ast.TypedefDecl) any {
	return diag.NotImplementedf(locOf(x), "typedef declarations")
}

func (e *Eval) VisitUsingDecl(x *ast.UsingDecl) any {
	return diag.NotImplementedf(locOf(x), "using declarations")
}

func (e *Eval) VisitIfStmt(x *ast.IfStmt) any {
	if x.IsMeta {
		return diag.NotImplementedf(locOf(x), "meta-if (compile-time conditional generation)")
	}
	cond, err := e.Eval(x.Cond)
	if err != nil {
		return err
	}
	if !cond.IsScalar() {
		return diag.Typef(e.Location(x.Cond), "if condition must be a scalar value")
	}

	beforeTrue := e.snapshotVars()
	if err := e.runBranch(x.IfTrue, beforeTrue, cond, false, locOf(x)); err != nil {
		return err
	}
	if x.IfFalse != nil {
		beforeFalse := e.snapshotVars()
		if err := e.runBranch(x.IfFalse, beforeFalse, cond, true, locOf(x)); err != nil {
			return err
		}
	}
	return nil
}

func (e *Eval) snapshotVars() map[core.Index[Variable]]Value {
	snap := make(map[core.Index[Variable]]Value)
	e.vars.All(func(idx core.Index[Variable], v *Variable) bool {
		snap[idx] = v.Value
		return true
	})
	return snap
}

func (e *Eval) runBranch(stmt ast.Stmt, pre map[core.Index[Variable]]Value, cond Value, invert bool, loc diag.Location) error {
	if err := e.Exec(stmt); err != nil {
		return err
	}
	var changed []core.Index[Variable]
	e.vars.All(func(idx core.Index[Variable], v *Variable) bool {
		if old, ok := pre[idx]; ok && !sameValue(old, v.Value) {
			changed = append(changed, idx)
		}
		return true
	})
	for _, idx := range changed {
		v := e.vars.Get(idx)
		merged, err := e.mergeConditional(pre[idx], v.Value, cond, invert, loc)
		if err != nil {
			return err
		}
		v.Value = merged
	}
	return nil
}

// maxMetaForIterations bounds the unrolling a `meta for` performs at
// elaboration time. The reference has no such cap (its GenLoop runs
// until the constexpr condition goes false), but an unbounded Go loop
// over a buggy non-terminating condition would hang the elaborator
// rather than surface a diagnostic.
const maxMetaForIterations = 1 << 20

func (e *Eval) VisitForLoop(x *ast.ForLoop) any {
	if !x.IsMeta {
		return diag.NotImplementedf(locOf(x), "non-meta for loops")
	}
	e.pushScope()
	defer e.popScope()

	if x.Init != nil {
		if err := e.Exec(x.Init); err != nil {
			return err
		}
	}

	old := e.isConst
	e.isConst = true
	defer func() { e.isConst = old }()

	for i := 0; ; i++ {
		if i >= maxMetaForIterations {
			return diag.NotImplementedf(locOf(x), "meta for loop did not terminate within %d iterations", maxMetaForIterations)
		}
		if x.Cond != nil {
			condVal, err := e.Eval(x.Cond)
			if err != nil {
				return err
			}
			if condVal.Kind != VConstant {
				return diag.Constnessf(e.Location(x.Cond), "meta for condition must be a compile-time constant")
			}
			cont, ok := condVal.Const.AsDefU64()
			if !ok {
				return diag.Constnessf(e.Location(x.Cond), "meta for condition is not fully defined")
			}
			if cont == 0 {
				break
			}
		}
		if err := e.Exec(x.Body); err != nil {
			return err
		}
		if x.Incr != nil {
			if _, err := e.Eval(x.Incr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Eval) VisitBlock(x *ast.BlockStmt) any {
	e.pushScope()
	defer e.popScope()
	for _, s := range x.Body {
		if err := e.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Eval) VisitMulticycle(x *ast.MulticycleBlock) any {
	return diag.NotImplementedf(locOf(x), "multicycle blocks")
}

func (e *Eval) VisitReturn(x *ast.ReturnStmt) any {
	return diag.NotImplementedf(locOf(x), "return statements outside a function body")
}

func (e *Eval) VisitBreak(x *ast.BreakStmt) any {
	return diag.NotImplementedf(locOf(x), "break statements")
}

func (e *Eval) VisitContinue(x *ast.ContinueStmt) any {
	return diag.NotImplementedf(locOf(x), "continue statements")
}

func (e *Eval) VisitFunc(x *ast.Function) any {
	return diag.NotImplementedf(locOf(x), "function definitions")
}

func (e *Eval) VisitModule(x *ast.Module) any {
	return diag.NotImplementedf(locOf(x), "nested module definitions")
}

func (e *Eval) VisitStruct(x *ast.StructureDef) any {
	return diag.NotImplementedf(locOf(x), "structure definitions")
}

func (e *Eval) VisitExprStmt(x *ast.ExprStmt) any {
	if _, err := e.Eval(x.Expr); err != nil {
		return err
	}
	return nil
}
