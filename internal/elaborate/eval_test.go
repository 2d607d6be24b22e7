package elaborate

import (
	"strings"
	"testing"

	"github.com/kr/pretty"

	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/design"
	"planar/internal/lexer"
	"planar/internal/parser"
)

// elaborateSrc lexes, parses and elaborates the single module defined
// in src, returning the resulting Design alongside the interner it was
// built against.
func elaborateSrc(t *testing.T, src string) (*design.Design, *core.Interner) {
	t.Helper()
	in := core.NewInterner()
	core.SeedReserved(in)
	sc := lexer.New(in, src, "test.pla")
	toks, lexErr := sc.ScanTokens()
	if lexErr != nil {
		t.Fatalf("lex error: %s", lexErr.Message)
	}
	p := parser.New(in, toks)
	ns, parseErr := p.Parse()
	if parseErr != nil {
		t.Fatalf("parse error: %s", parseErr.Message)
	}
	var mod *ast.Module
	for _, item := range ns.Content {
		if m, ok := item.Stmt.(*ast.Module); ok {
			mod = m
			break
		}
	}
	if mod == nil {
		t.Fatalf("no module found in %q", src)
	}
	d, err := ElaborateModule(in, mod)
	if err != nil {
		t.Fatalf("ElaborateModule: %s", err.Error())
	}
	return d, in
}

// Scenario 5: elaborating `module m { unsigned<8> x = 42 + 69; }` binds
// x to the constant 111 (unsigned, width 9) and creates zero primitives
// in the Design.
func TestConstantFoldingCreatesNoPrimitives(t *testing.T) {
	d, _ := elaborateSrc(t, "module m { unsigned<8> x = 42 + 69; }")
	if d.Prims.Count() != 0 {
		t.Fatalf("Prims.Count() = %d, want 0 (fully folded)", d.Prims.Count())
	}
	if d.Nodes.Count() != 0 {
		t.Fatalf("Nodes.Count() = %d, want 0 (no ports, no dynamic nodes)", d.Nodes.Count())
	}
}

// Scenario 6: elaborating `module m(in unsigned<8> a) { unsigned<9> y
// = a + 1; }` creates one top-level input port node, one constant node
// holding 1:unsigned<1>, and one Add primitive wiring them to an output
// node of type unsigned<9>.
func TestNodeCreationForDynamicAdd(t *testing.T) {
	d, in := elaborateSrc(t, "module m(in unsigned<8> a) { unsigned<9> y = a + 1; }")

	aNode, ok := d.Nodes.Named(in.ID("a"))
	if !ok {
		t.Fatal("no node named 'a'")
	}
	if !aNode.IsInput || aNode.Type.Width != 8 {
		t.Fatalf("a = %+v, want an 8-bit input", aNode)
	}
	if aNode.Driver.Kind != design.PortTopLevel {
		t.Fatalf("a.Driver.Kind = %v, want PortTopLevel", aNode.Driver.Kind)
	}

	var addPrim *design.Primitive
	d.Prims.All(func(_ core.Index[design.Primitive], p *design.Primitive) bool {
		if p.Type.Kind == design.PrimBasicOp && p.Type.BasicOp == core.OpAdd {
			addPrim = p
			return false
		}
		return true
	})
	if addPrim == nil {
		t.Fatal("no Add primitive found")
	}

	aIn, ok := addPrim.Inputs[core.PortA]
	if !ok || d.Nodes.Get(aIn).Name() != in.ID("a") {
		t.Fatalf("Add.A = %v, want the node named 'a'", aIn)
	}
	bIn, ok := addPrim.Inputs[core.PortB]
	if !ok {
		t.Fatal("Add.B is not connected")
	}
	bNode := d.Nodes.Get(bIn)
	if bNode.Type.Width != 1 || bNode.Type.IsSigned {
		t.Fatalf("Add.B type = %+v, want unsigned<1>", bNode.Type)
	}
	constPrim := d.Prims.Get(bNode.Driver.Prim)
	if constPrim.Type.Kind != design.PrimConst {
		t.Fatalf("Add.B's driver kind = %v, want PrimConst", constPrim.Type.Kind)
	}

	qOut, ok := addPrim.Outputs[core.PortQ]
	if !ok {
		t.Fatal("Add has no Q output")
	}
	qNode := d.Nodes.Get(qOut)
	if qNode.Type.Width != 9 || qNode.Type.IsSigned {
		t.Fatalf("Add.Q type = %+v, want unsigned<9>", qNode.Type)
	}
}

// Scenario 7: a conditional assignment inside a plain if produces a
// single `cond` primitive with InvMask 0 selecting A=const 0, B=a,
// guarded by c.
func TestConditionalMergeSingleBranch(t *testing.T) {
	d, in := elaborateSrc(t, "module m(in unsigned<1> c, in unsigned<8> a) { unsigned<8> y = 0; if (c) { y = a; } }")

	var condPrim *design.Primitive
	d.Prims.All(func(_ core.Index[design.Primitive], p *design.Primitive) bool {
		if p.Type.Kind == design.PrimCond {
			condPrim = p
			return false
		}
		return true
	})
	if condPrim == nil {
		t.Fatal("no cond primitive found")
	}
	if condPrim.Type.InvMask != 0 {
		t.Fatalf("InvMask = %d, want 0", condPrim.Type.InvMask)
	}

	bIn, ok := condPrim.Inputs[core.PortB]
	if !ok || d.Nodes.Get(bIn).Name() != in.ID("a") {
		t.Fatal("cond.B must be driven by 'a'")
	}
	s0 := core.CondPortName(in, 0)
	s0In, ok := condPrim.Inputs[s0]
	if !ok || d.Nodes.Get(s0In).Name() != in.ID("c") {
		t.Fatal("cond.S0 must be driven by 'c'")
	}
}

// Scenario 7 continued: replacing the if body with an else clause
// stacks two cond primitives, mask bits 0 and 1 respectively, sharing
// the same select.
func TestConditionalMergeIfElseStacksTwoConds(t *testing.T) {
	d, in := elaborateSrc(t, "module m(in unsigned<1> c, in unsigned<8> a) { unsigned<8> y = 0; if (c) { y = a; } else { y = 7; } }")

	var conds []*design.Primitive
	d.Prims.All(func(_ core.Index[design.Primitive], p *design.Primitive) bool {
		if p.Type.Kind == design.PrimCond {
			conds = append(conds, p)
		}
		return true
	})
	if len(conds) != 2 {
		t.Fatalf("got %d cond primitives, want 2", len(conds))
	}
	masks := map[uint64]bool{}
	for _, c := range conds {
		masks[c.Type.InvMask] = true
		s0 := core.CondPortName(in, 0)
		s0In, ok := c.Inputs[s0]
		if !ok || d.Nodes.Get(s0In).Name() != in.ID("c") {
			t.Error("every stacked cond must share the same S0 = 'c'")
		}
	}
	if !masks[0] || !masks[1] {
		t.Fatalf("masks = %v, want {0, 1}", masks)
	}
}

// A branch that assigns a single array element must only instantiate a
// cond primitive for that element's leaf, not for the whole array: the
// other three elements are structurally unchanged and should pass
// through untouched.
func TestConditionalMergeArrayElementMergesOnlyThatLeaf(t *testing.T) {
	d, in := elaborateSrc(t, "module m(in unsigned<1> c, in unsigned<8> a) { unsigned<8>[4] arr; if (c) { arr[0] = a; } }")

	var conds []*design.Primitive
	d.Prims.All(func(_ core.Index[design.Primitive], p *design.Primitive) bool {
		if p.Type.Kind == design.PrimCond {
			conds = append(conds, p)
		}
		return true
	})
	if len(conds) != 1 {
		t.Fatalf("got %d cond primitives, want 1 (only arr[0] changed)", len(conds))
	}
	bIn, ok := conds[0].Inputs[core.PortB]
	if !ok || d.Nodes.Get(bIn).Name() != in.ID("a") {
		t.Fatal("the single cond primitive's B input must be driven by 'a'")
	}
}

// A branch that never touches an array variable at all must not
// instantiate anything for it: sameValue must report the whole array
// unchanged rather than forcing a spurious whole-composite merge.
func TestConditionalMergeArrayUntouchedCreatesNoPrimitives(t *testing.T) {
	d, _ := elaborateSrc(t, "module m(in unsigned<1> c) { unsigned<8>[4] arr; if (c) { } }")
	if d.Prims.Count() != 0 {
		t.Fatalf("Prims.Count() = %d, want 0 (array never touched by the branch)", d.Prims.Count())
	}
}

// Nested ifs each merge independently as their own runBranch resolves,
// so an assignment two levels deep produces one cond primitive per
// enclosing if, innermost first.
func TestConditionalMergeNestedIf(t *testing.T) {
	d, _ := elaborateSrc(t, "module m(in unsigned<1> c, in unsigned<1> e, in unsigned<8> a) { unsigned<8> y = 0; if (c) { if (e) { y = a; } } }")

	var conds []*design.Primitive
	d.Prims.All(func(_ core.Index[design.Primitive], p *design.Primitive) bool {
		if p.Type.Kind == design.PrimCond {
			conds = append(conds, p)
		}
		return true
	})
	if len(conds) != 2 {
		t.Fatalf("got %d cond primitives, want 2 (inner 'e' merge, outer 'c' merge)", len(conds))
	}
}

func TestMetaForUnrollsBody(t *testing.T) {
	d, _ := elaborateSrc(t, `module m {
		unsigned<8> total = 0;
		meta for (unsigned<4> i = 0; i < 3; i += 1) {
			total += 1;
		}
	}`)
	// Three meta-unrolled increments fold into a single compile-time
	// constant with no dynamic nodes, exactly like plain constant
	// folding: the loop itself leaves no trace in the Design once it
	// has fully run at elaboration time.
	if d.Prims.Count() != 0 {
		t.Fatalf("Prims.Count() = %d, want 0 (loop fully constant-folded)", d.Prims.Count())
	}
}

// TestOutputPortIsReconnectedToFinalValue exercises the retargeting
// step ElaborateModule runs after the body evaluates: an `out` port's
// placeholder node must end up driven by whatever primitive produced
// the variable's final value, not left pointing at its own
// environment-driven placeholder. pretty.Diff gives a field-by-field
// structural diff on failure instead of a single opaque bool.
func TestOutputPortIsReconnectedToFinalValue(t *testing.T) {
	d, in := elaborateSrc(t, "module m(in unsigned<8> a, out unsigned<9> y) { y = a + 1; }")

	yNode, ok := d.Nodes.Named(in.ID("y"))
	if !ok {
		t.Fatal("no node named 'y'")
	}
	if diff := pretty.Diff(design.PortOnPrim, yNode.Driver.Kind); len(diff) != 0 {
		t.Fatalf("y.Driver.Kind mismatch:\n%s", strings.Join(diff, "\n"))
	}

	addPrim, ok := d.Prims.TryGet(yNode.Driver.Prim)
	if !ok || addPrim.Type.Kind != design.PrimBasicOp || addPrim.Type.BasicOp != core.OpAdd {
		t.Fatalf("y is not driven by the Add primitive: %+v", yNode.Driver)
	}
}

func TestAddResultTypeMatchesExpectedStructurally(t *testing.T) {
	d, _ := elaborateSrc(t, "module m(in unsigned<8> a) { unsigned<9> y = a + 1; }")

	var addPrim *design.Primitive
	d.Prims.All(func(_ core.Index[design.Primitive], p *design.Primitive) bool {
		if p.Type.Kind == design.PrimBasicOp && p.Type.BasicOp == core.OpAdd {
			addPrim = p
			return false
		}
		return true
	})
	if addPrim == nil {
		t.Fatal("no Add primitive found")
	}
	qNode := d.Nodes.Get(addPrim.Outputs[core.PortQ])
	want := core.OperandType{Width: 9, IsSigned: false}
	if diff := pretty.Diff(want, qNode.Type); len(diff) != 0 {
		t.Fatalf("Add.Q type mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

func TestUndefinedVariableIsResolutionError(t *testing.T) {
	in := core.NewInterner()
	core.SeedReserved(in)
	sc := lexer.New(in, "module m { unsigned<8> x = y; }", "test.pla")
	toks, lexErr := sc.ScanTokens()
	if lexErr != nil {
		t.Fatalf("lex error: %s", lexErr.Message)
	}
	p := parser.New(in, toks)
	ns, parseErr := p.Parse()
	if parseErr != nil {
		t.Fatalf("parse error: %s", parseErr.Message)
	}
	mod := ns.Content[0].Stmt.(*ast.Module)
	if _, err := ElaborateModule(in, mod); err == nil {
		t.Fatal("want a resolution error for an undefined variable, got none")
	}
}
