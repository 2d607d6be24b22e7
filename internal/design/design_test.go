package design

import (
	"testing"

	"planar/internal/core"
)

func newTestDesign() (*Design, *core.Interner) {
	in := core.NewInterner()
	core.SeedReserved(in)
	return New(in.ID("top"), in), in
}

func TestAddConstCreatesNodeAndPrim(t *testing.T) {
	d, _ := newTestDesign()
	node, err := d.AddConst(core.BitsConstant(core.FromU64(42, 8)))
	if err != nil {
		t.Fatal(err)
	}
	n := d.Nodes.Get(node)
	if n.Driver.Kind != PortOnPrim {
		t.Fatalf("const node driver kind = %v, want PortOnPrim", n.Driver.Kind)
	}
	prim := d.Prims.Get(n.Driver.Prim)
	if prim.Type.Kind != PrimConst {
		t.Fatalf("driver primitive kind = %v, want PrimConst", prim.Type.Kind)
	}
}

func TestAddPrimInputWiresUserBack(t *testing.T) {
	d, in := newTestDesign()
	a, err := d.AddConst(core.BitsConstant(core.FromU64(1, 1)))
	if err != nil {
		t.Fatal(err)
	}
	addPrim, err := d.AddPrim(in.ID("add0"), PrimitiveType{Kind: PrimBasicOp, BasicOp: core.OpAdd})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.AddPrimInput(addPrim, core.PortA, a); err != nil {
		t.Fatal(err)
	}
	node := d.Nodes.Get(a)
	if node.Users.Count() != 1 {
		t.Fatalf("Users.Count() = %d, want 1", node.Users.Count())
	}
	prim := d.Prims.Get(addPrim)
	if prim.Inputs[core.PortA] != a {
		t.Fatalf("add0's A input = %v, want %v", prim.Inputs[core.PortA], a)
	}
}

func TestRemoveNodeRequiresNoUsers(t *testing.T) {
	d, in := newTestDesign()
	a, _ := d.AddConst(core.BitsConstant(core.FromU64(1, 1)))
	addPrim, _ := d.AddPrim(in.ID("add0"), PrimitiveType{Kind: PrimBasicOp, BasicOp: core.OpAdd})
	d.AddPrimInput(addPrim, core.PortA, a)

	if err := d.RemoveNode(a); err == nil {
		t.Fatal("expected RemoveNode to fail while a user remains")
	}
	if err := d.DisconnectPort(addPrim, core.PortA); err != nil {
		t.Fatal(err)
	}
	if err := d.RemoveNode(a); err != nil {
		t.Fatalf("RemoveNode after disconnect: %v", err)
	}
}

func TestTrimRemovesDeadSubgraph(t *testing.T) {
	d, _ := newTestDesign()
	if _, err := d.AddConst(core.BitsConstant(core.FromU64(7, 4))); err != nil {
		t.Fatal(err)
	}
	stats := d.Trim()
	if stats.NodesRemoved == 0 || stats.PrimsRemoved == 0 {
		t.Fatalf("Trim() = %+v, want an unused const node+prim fully removed", stats)
	}
	if d.Nodes.Count() != 0 || d.Prims.Count() != 0 {
		t.Fatalf("design not empty after trim: %d nodes, %d prims", d.Nodes.Count(), d.Prims.Count())
	}
}

func TestTrimKeepsLiveTopLevelOutputs(t *testing.T) {
	d, in := newTestDesign()
	node, err := d.AddTopLevelNode(in.ID("q"), core.OperandType{Width: 8}, false, true)
	if err != nil {
		t.Fatal(err)
	}
	d.Trim()
	if _, ok := d.Nodes.TryGet(node); !ok {
		t.Fatal("Trim() removed a top-level output node, it should be kept live")
	}
}
