// Package backend fixes the boundary an RTL serializer consumes the
// Design through, without implementing one: an Emitter trait a
// concrete backend (RTLIL, the llvmref reference backend here, or
// anything else) satisfies, and a flat "low netlist" IR that sits
// between the elaborated Design and a backend's own representation.
//
// Nothing in this package knows how to turn a Design into text or
// bytes; it only fixes the shape of the handoff, per SPEC_FULL.md
// section 4.5.
package backend

import "planar/internal/core"

// MuxWay is one (select, value) arm of a multiplexer cell. A mux with
// one way and no default is degenerate but legal; a backend is free to
// reject that case itself.
type MuxWay struct {
	Select core.Name
	Value  core.Name
}

// Emitter is the trait a backend implements to consume an elaborated
// Design. Calls arrive in a fixed order: Init, then any number of
// Declare* calls in the order Lower lists their cells, then Finalize. A backend that only cares about a subset of
// cell kinds still has to satisfy every method — the boundary is the
// Design's full vocabulary, not a backend's actual appetite for it.
type Emitter interface {
	// Init begins emission of a single module named name.
	Init(name core.Name) error

	// DeclareNode registers a wire the backend will need to reference
	// by name from later Declare* calls, before anything drives it.
	DeclareNode(name core.Name, ty core.OperandType, attrs map[core.Name]core.Constant) error

	// DeclarePort additionally marks node as a top-level module I/O;
	// isInput is false for an output port.
	DeclarePort(node core.Name, isInput bool) error

	// DeclareConst binds node to a compile-time constant value.
	DeclareConst(node core.Name, value core.BitVector) error

	// DeclareBasicOp binds node to the output of op applied to operand
	// nodes named by inputs, in the fixed A/B/... port order the
	// elaborator wired them in.
	DeclareBasicOp(node core.Name, op core.BasicOp, inputs []core.Name) error

	// DeclareMux binds node to a multiplexer selecting among ways, in
	// priority order; def is the fallback when no way's select is true.
	DeclareMux(node core.Name, ways []MuxWay, def core.Name) error

	// DeclareFlipFlop binds node to a registered copy of d, clocked by
	// clk; delay is the number of cycles of latency (1 for a plain
	// D flip-flop, >1 for a pipeline register modeling multiple stages).
	DeclareFlipFlop(node core.Name, d, clk core.Name, delay int) error

	// DeclareAssign binds node to a plain wire bridge from src, with no
	// intervening cell — used for identity passthroughs a lowering
	// pass introduces (e.g. unwrapping a ready/valid handshake).
	DeclareAssign(node, src core.Name) error

	// Finalize closes out emission, returning any deferred error (e.g.
	// a dangling reference discovered only once every Declare* call has
	// been seen).
	Finalize() error
}

// LowCellKind tags which variant a LowCell holds.
type LowCellKind int

const (
	LowConst LowCellKind = iota
	LowBasicOp
	LowAssign
	LowBitSelect
	LowConcat
	LowMux
	LowPort
)

// LowCell is one flat descriptor in a LowNetlist: exactly one of its
// kind-specific fields is meaningful, selected by Kind.
type LowCell struct {
	Kind LowCellKind
	Out  core.Name

	// LowConst
	Value core.BitVector

	// LowBasicOp
	Op     core.BasicOp
	Inputs []core.Name

	// LowAssign / LowBitSelect (Offset/Width reused for the slice)
	Src    core.Name
	Offset int
	Width  int

	// LowConcat: Inputs holds the operands, most-significant first.

	// LowMux
	Ways    []MuxWay
	Default core.Name

	// LowPort
	IsInput bool
}

// LowNetlist is the optional flat sugar between an elaborated Design
// and a backend: every cell a Design's primitives and nodes reduce to,
// in a single ordered slice with no graph structure left to walk.
type LowNetlist struct {
	Name  core.Name
	Cells []LowCell
}

// Emit replays nl's cells against e in order, calling Init first and
// Finalize last. This is the straight-line driver a backend's own
// "consume a LowNetlist" entry point delegates to; lowering the Design
// into nl in the first place is a separate, backend-agnostic step (see
// Lower in lower.go).
func Emit(e Emitter, nl *LowNetlist) error {
	if err := e.Init(nl.Name); err != nil {
		return err
	}
	for _, c := range nl.Cells {
		if err := emitCell(e, c); err != nil {
			return err
		}
	}
	return e.Finalize()
}

func emitCell(e Emitter, c LowCell) error {
	switch c.Kind {
	case LowPort:
		return e.DeclarePort(c.Out, c.IsInput)
	case LowConst:
		return e.DeclareConst(c.Out, c.Value)
	case LowBasicOp:
		return e.DeclareBasicOp(c.Out, c.Op, c.Inputs)
	case LowAssign:
		return e.DeclareAssign(c.Out, c.Src)
	case LowMux:
		return e.DeclareMux(c.Out, c.Ways, c.Default)
	case LowBitSelect, LowConcat:
		// Neither slice kind has a dedicated Emitter method: both
		// lower to DeclareAssign from their first operand, since
		// SPEC_FULL.md leaves "lowering from Design to low netlist" as
		// an open boundary concern rather than something this package
		// implements in full. A real backend that cares about the
		// distinction reads c.Offset/c.Width/c.Inputs directly instead
		// of going through the Emitter trait for these two kinds.
		if len(c.Inputs) == 0 {
			return nil
		}
		return e.DeclareAssign(c.Out, c.Inputs[0])
	default:
		return nil
	}
}
