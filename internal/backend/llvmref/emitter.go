// Package llvmref is a reference implementation of backend.Emitter
// built on github.com/llir/llvm. It exists to give the Emitter trait
// concrete, runnable test coverage without depending on the (out of
// scope) RTLIL serializer: every primitive kind the Design IR can
// produce gets mapped onto some LLVM IR instruction, even where the
// hardware semantics (a register's clock edge, an undefined bit) have
// no faithful LLVM counterpart and are necessarily approximated.
//
// A real backend would target a hardware description language; this
// one targets LLVM purely to exercise the boundary end-to-end.
package llvmref

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"planar/internal/backend"
	"planar/internal/core"
)

// Emitter translates Design-level Declare* calls into a single LLVM
// function: every node becomes a named SSA value (or, for flip-flops,
// a stack slot modeling a storage cell), top-level input ports become
// function parameters, and top-level output ports are written back to
// IR globals so they remain observable after the function returns.
type Emitter struct {
	in *core.Interner

	mod  *ir.Module
	fn   *ir.Func
	blk  *ir.Block
	name string

	values  map[core.Name]value.Value
	widths  map[core.Name]int
	outputs map[core.Name]*ir.Global

	pendingInputs []core.Name
	err           error
}

// New returns an Emitter whose names are resolved through in.
func New(in *core.Interner) *Emitter {
	return &Emitter{
		in:      in,
		values:  make(map[core.Name]value.Value),
		widths:  make(map[core.Name]int),
		outputs: make(map[core.Name]*ir.Global),
	}
}

// Module returns the llir/llvm module assembled by Finalize. Valid
// only after a successful Finalize call.
func (e *Emitter) Module() *ir.Module { return e.mod }

func (e *Emitter) str(n core.Name) string { return e.in.Str(n) }

func (e *Emitter) intType(width int) *types.IntType {
	if width <= 0 {
		width = 1
	}
	return types.NewInt(uint64(width))
}

func (e *Emitter) fail(format string, args ...any) error {
	if e.err == nil {
		e.err = fmt.Errorf(format, args...)
	}
	return e.err
}

// Init starts a fresh module and a single function standing in for
// the hardware module's combinational body. Ports are collected as
// they arrive via DeclarePort and only turned into real ir.Param
// values once DeclareNode/DeclarePort ordering is known to be done —
// in practice, since Lower emits LowPort cells before any cell that
// reads them, this resolves eagerly.
func (e *Emitter) Init(name core.Name) error {
	e.name = e.str(name)
	e.mod = ir.NewModule()
	return nil
}

func (e *Emitter) DeclareNode(name core.Name, ty core.OperandType, attrs map[core.Name]core.Constant) error {
	e.widths[name] = ty.Width
	return nil
}

// DeclarePort records an input port as a pending function parameter
// (materialized lazily, since e.fn isn't built until the first
// non-port Declare* call needs a block to emit into) or an output
// port as a module-level global the function body stores its final
// value into.
func (e *Emitter) DeclarePort(node core.Name, isInput bool) error {
	if isInput {
		e.pendingInputs = append(e.pendingInputs, node)
		return nil
	}
	width := e.widths[node]
	g := e.mod.NewGlobalDef(e.name+"."+e.str(node), constant.NewInt(e.intType(width), 0))
	e.outputs[node] = g
	return nil
}

// ensureFunc lazily builds e.fn/e.blk the first time a cell body needs
// somewhere to append instructions. Each input parameter takes the width
// an earlier DeclareNode call recorded for that port; backend.Emit makes
// no DeclareNode calls, so under Emit input parameters (like the output
// globals DeclarePort creates) fall back to 1 bit wide.
func (e *Emitter) ensureFunc() *ir.Block {
	if e.fn != nil {
		return e.blk
	}
	var params []*ir.Param
	for _, in := range e.pendingInputs {
		p := ir.NewParam(e.str(in), e.intType(e.widths[in]))
		params = append(params, p)
		e.values[in] = p
	}
	e.fn = e.mod.NewFunc(e.name, types.Void, params...)
	e.blk = e.fn.NewBlock("entry")
	return e.blk
}

func (e *Emitter) DeclareConst(node core.Name, val core.BitVector) error {
	e.ensureFunc()
	u, _ := val.AsDefU64()
	e.values[node] = constant.NewInt(e.intType(val.Len()), int64(u))
	return nil
}

var basicOpPred = map[core.BasicOp]enum.IPred{
	core.OpEq:   enum.IPredEQ,
	core.OpNeq:  enum.IPredNE,
	core.OpGt:   enum.IPredSGT,
	core.OpLt:   enum.IPredSLT,
	core.OpGtEq: enum.IPredSGE,
	core.OpLtEq: enum.IPredSLE,
}

func (e *Emitter) DeclareBasicOp(node core.Name, op core.BasicOp, inputs []core.Name) error {
	blk := e.ensureFunc()
	args := make([]value.Value, len(inputs))
	for i, in := range inputs {
		v, ok := e.values[in]
		if !ok {
			return e.fail("llvmref: operand %s used before it was declared", e.str(in))
		}
		args[i] = v
	}

	var out value.Value
	switch op {
	case core.OpAdd:
		out = blk.NewAdd(args[0], args[1])
	case core.OpSub:
		out = blk.NewSub(args[0], args[1])
	case core.OpMul:
		out = blk.NewMul(args[0], args[1])
	case core.OpDiv:
		out = blk.NewSDiv(args[0], args[1])
	case core.OpMod:
		out = blk.NewSRem(args[0], args[1])
	case core.OpNeg:
		out = blk.NewSub(constant.NewInt(args[0].Type().(*types.IntType), 0), args[0])
	case core.OpShl:
		out = blk.NewShl(args[0], args[1])
	case core.OpShr:
		out = blk.NewAShr(args[0], args[1])
	case core.OpBwAnd:
		out = blk.NewAnd(args[0], args[1])
	case core.OpBwOr:
		out = blk.NewOr(args[0], args[1])
	case core.OpBwXor:
		out = blk.NewXor(args[0], args[1])
	case core.OpBwNot:
		out = blk.NewXor(args[0], constant.NewInt(args[0].Type().(*types.IntType), -1))
	case core.OpEq, core.OpNeq, core.OpGt, core.OpLt, core.OpGtEq, core.OpLtEq:
		out = blk.NewICmp(basicOpPred[op], args[0], args[1])
	case core.OpLogAnd:
		out = blk.NewAnd(args[0], args[1])
	case core.OpLogOr:
		out = blk.NewOr(args[0], args[1])
	case core.OpLogNot, core.OpLogCast:
		out = blk.NewICmp(enum.IPredEQ, args[0], constant.NewInt(args[0].Type().(*types.IntType), 0))
	default:
		return e.fail("llvmref: operator %s has no LLVM lowering", op.String())
	}
	e.values[node] = out
	return nil
}

// DeclareMux chains ways into a sequence of select instructions,
// innermost-first, falling back to def: select(s0, v0, select(s1, v1,
// ... def)).
func (e *Emitter) DeclareMux(node core.Name, ways []backend.MuxWay, def core.Name) error {
	blk := e.ensureFunc()
	cur, ok := e.values[def]
	if !ok {
		return e.fail("llvmref: mux default %s used before it was declared", e.str(def))
	}
	for i := len(ways) - 1; i >= 0; i-- {
		sel, ok := e.values[ways[i].Select]
		if !ok {
			return e.fail("llvmref: mux select %s used before it was declared", e.str(ways[i].Select))
		}
		val, ok := e.values[ways[i].Value]
		if !ok {
			return e.fail("llvmref: mux value %s used before it was declared", e.str(ways[i].Value))
		}
		boolSel := blk.NewICmp(enum.IPredNE, sel, constant.NewInt(sel.Type().(*types.IntType), 0))
		cur = blk.NewSelect(boolSel, val, cur)
	}
	e.values[node] = cur
	return nil
}

// DeclareFlipFlop approximates a register as a stack slot: the value
// is stored from d and immediately read back, so the produced SSA
// value is distinguishable (by instruction identity) from a plain
// passthrough even though no clock edge is modeled. delay beyond one
// cycle (a pipeline register) has no representation here; the backend
// boundary's job is only to prove the call shape, not to reproduce
// multi-stage timing.
func (e *Emitter) DeclareFlipFlop(node core.Name, d, clk core.Name, delay int) error {
	blk := e.ensureFunc()
	dv, ok := e.values[d]
	if !ok {
		return e.fail("llvmref: flip-flop data input %s used before it was declared", e.str(d))
	}
	slot := blk.NewAlloca(dv.Type())
	blk.NewStore(dv, slot)
	e.values[node] = blk.NewLoad(dv.Type(), slot)
	return nil
}

func (e *Emitter) DeclareAssign(node, src core.Name) error {
	e.ensureFunc()
	v, ok := e.values[src]
	if !ok {
		return e.fail("llvmref: assign source %s used before it was declared", e.str(src))
	}
	e.values[node] = v
	return nil
}

// Finalize writes every declared output global from its final value
// and terminates the function with a bare ret.
func (e *Emitter) Finalize() error {
	if e.err != nil {
		return e.err
	}
	blk := e.ensureFunc()
	for node, g := range e.outputs {
		v, ok := e.values[node]
		if !ok {
			return e.fail("llvmref: output port %s was never driven", e.str(node))
		}
		blk.NewStore(v, g)
	}
	blk.NewRet(nil)
	return nil
}
