package backend

import (
	"planar/internal/core"
	"planar/internal/design"
)

// Lower flattens d into a LowNetlist, walking the nodes in node-store
// order: a top-level port node gets a LowPort cell, and a node driven by
// a primitive gets one LowCell describing that driver. The driver cells
// of output port nodes are appended after all other cells, since an
// output port's node is created before the body whose nodes its final
// driver reads. This "un-abstracts"
// nothing about clocks or ready/valid handshakes yet (every PrimReg
// cell lowers to a plain assign from its data input, and HasReady/
// HasValid is dropped) — per SPEC_FULL.md 4.5 that un-abstraction is a
// real backend's job, not this boundary's.
func Lower(d *design.Design) *LowNetlist {
	in := d.Interner()
	nl := &LowNetlist{Name: d.Name}

	var outputDrivers []LowCell
	d.Nodes.All(func(_ core.Index[design.Node], n *design.Node) bool {
		if n.IsInput || n.IsOutput {
			nl.Cells = append(nl.Cells, LowCell{Kind: LowPort, Out: n.Name(), IsInput: n.IsInput})
		}
		if n.Driver.Kind != design.PortOnPrim {
			return true
		}
		prim, ok := d.Prims.TryGet(n.Driver.Prim)
		if !ok {
			return true
		}
		if cell, ok := lowerDriver(d, in, n.Name(), prim); ok {
			if n.IsOutput {
				outputDrivers = append(outputDrivers, cell)
			} else {
				nl.Cells = append(nl.Cells, cell)
			}
		}
		return true
	})
	nl.Cells = append(nl.Cells, outputDrivers...)
	return nl
}

// portNode resolves a primitive's named input port to the node it is
// currently wired to, or the null index if unconnected.
func portNode(prim *design.Primitive, name core.Name) (core.Index[design.Node], bool) {
	idx, ok := prim.Inputs[name]
	return idx, ok
}

// lowerDriver builds the LowCell describing how out is driven by prim.
// A LowCell's operand fields hold node names rather than handles, so
// the Emitter trait's methods stay keyed purely by core.Name.
func lowerDriver(d *design.Design, in *core.Interner, out core.Name, prim *design.Primitive) (LowCell, bool) {
	switch prim.Type.Kind {
	case design.PrimConst:
		val := prim.Attrs[in.ID("$const_value")]
		return LowCell{Kind: LowConst, Out: out, Value: val.Bits}, true

	case design.PrimBasicOp:
		return LowCell{
			Kind:   LowBasicOp,
			Out:    out,
			Op:     prim.Type.BasicOp,
			Inputs: orderedInputs(d, in, prim),
		}, true

	case design.PrimCond:
		// A `cond` primitive is a 2-way mux: B selected when every S_i
		// XOR its inversion-mask bit is true, else A. This lowering
		// only reduces the single-condition case the elaborator in
		// this module ever emits (k=1, S0) to a one-way DeclareMux
		// call; a Design with k>1 condition inputs (reachable through
		// design's own mutation API even though nothing here builds
		// one) would need a real priority-mux lowering this package
		// does not implement, matching the open boundary SPEC_FULL.md
		// 4.5 leaves to an actual backend.
		aIdx, _ := portNode(prim, core.PortA)
		bIdx, _ := portNode(prim, core.PortB)
		s0Idx, _ := portNode(prim, core.CondPortName(in, 0))
		a, b, s0 := d.Nodes.Get(aIdx).Name(), d.Nodes.Get(bIdx).Name(), d.Nodes.Get(s0Idx).Name()
		sel, def := b, a
		if prim.Type.InvMask&1 != 0 {
			sel, def = a, b
		}
		return LowCell{
			Kind:    LowMux,
			Out:     out,
			Ways:    []MuxWay{{Select: s0, Value: sel}},
			Default: def,
		}, true

	case design.PrimSpecOp:
		switch prim.Type.SpecOp.Kind {
		case design.SpecMux:
			return LowCell{Kind: LowMux, Out: out, Ways: muxWays(d, prim)}, true
		case design.SpecSliceGetFix, design.SpecSliceGetVar,
			design.SpecSliceSetFix, design.SpecSliceSetVar:
			return LowCell{
				Kind:   LowBitSelect,
				Out:    out,
				Inputs: orderedInputs(d, in, prim),
				Offset: prim.Type.SpecOp.Offset,
				Width:  prim.Type.SpecOp.Width,
			}, true
		default: // SpecSetIfEq
			return LowCell{Kind: LowAssign, Out: out, Src: firstInput(d, prim)}, true
		}

	case design.PrimReg:
		dIdx, ok := portNode(prim, in.ID("D"))
		if !ok {
			return LowCell{Kind: LowAssign, Out: out, Src: firstInput(d, prim)}, true
		}
		return LowCell{Kind: LowAssign, Out: out, Src: d.Nodes.Get(dIdx).Name()}, true

	default:
		return LowCell{}, false
	}
}

// operandPortOrder mirrors elaborate's operandPort: "A","B","C","D",
// then IN4, IN5, ... for anything beyond a 4-ary operator.
func operandPortOrder(in *core.Interner, n int) []core.Name {
	fixed := []core.Name{core.PortA, core.PortB, in.ID("C"), in.ID("D")}
	out := make([]core.Name, 0, n)
	for i := 0; i < n; i++ {
		if i < len(fixed) {
			out = append(out, fixed[i])
		} else {
			out = append(out, in.ID("IN"+itoa(i)))
		}
	}
	return out
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var buf [8]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	return string(buf[p:])
}

// orderedInputs resolves prim's positional A/B/C/D... input ports to
// node names, skipping ports that are not connected.
func orderedInputs(d *design.Design, in *core.Interner, prim *design.Primitive) []core.Name {
	var out []core.Name
	for _, port := range operandPortOrder(in, len(prim.Inputs)) {
		if idx, ok := portNode(prim, port); ok {
			out = append(out, d.Nodes.Get(idx).Name())
		}
	}
	return out
}

func firstInput(d *design.Design, prim *design.Primitive) core.Name {
	for _, nodeIdx := range prim.Inputs {
		return d.Nodes.Get(nodeIdx).Name()
	}
	return core.NoName
}

func muxWays(d *design.Design, prim *design.Primitive) []MuxWay {
	var ways []MuxWay
	for _, nodeIdx := range prim.Inputs {
		ways = append(ways, MuxWay{Value: d.Nodes.Get(nodeIdx).Name()})
	}
	return ways
}
