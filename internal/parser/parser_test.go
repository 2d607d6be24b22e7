package parser

import (
	"strings"
	"testing"

	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/lexer"
)

// newParser scans src and returns a ready-to-use Parser sharing its
// scope stack setup with Parse (a root namespace scope), so tests can
// call individual grammar entry points without going through Parse.
func newParser(t *testing.T, src string) (*Parser, *core.Interner) {
	t.Helper()
	in := core.NewInterner()
	core.SeedReserved(in)
	sc := lexer.New(in, src, "test.pla")
	toks, err := sc.ScanTokens()
	if err != nil {
		t.Fatalf("lex error: %s", err.Message)
	}
	p := New(in, toks)
	root := ast.NewNamespace(core.NoName, false, nil, ast.SrcInfo{})
	p.pushScope(ast.NewNamespaceScope(root, nil))
	return p, in
}

func wantInt(t *testing.T, dt *ast.DataType, wantWidth uint64, wantSigned bool) {
	t.Helper()
	if dt.Kind != ast.TypeInteger {
		t.Fatalf("kind = %v, want TypeInteger", dt.Kind)
	}
	w, ok := dt.Integer.Width.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("width is %T, want *ast.LiteralExpr", dt.Integer.Width)
	}
	if got := w.Value.AsU64(); got != wantWidth {
		t.Errorf("width = %d, want %d", got, wantWidth)
	}
	s, ok := dt.Integer.IsSigned.(*ast.LiteralExpr)
	if !ok {
		t.Fatalf("signed is %T, want *ast.LiteralExpr", dt.Integer.IsSigned)
	}
	gotSigned := s.Value.AsU64() != 0
	if gotSigned != wantSigned {
		t.Errorf("signed = %v, want %v", gotSigned, wantSigned)
	}
}

// Scenario 2: "char; unsigned<33>; unsigned short int; signed;" parsed
// as four consecutive data types yields (width, signed) = (8, true),
// (33, false), (16, false), (32, true).
func TestParsePrimTypes(t *testing.T) {
	p, _ := newParser(t, "char; unsigned<33>; unsigned short int; signed;")

	want := []struct {
		width  uint64
		signed bool
	}{
		{8, true},
		{33, false},
		{16, false},
		{32, true},
	}
	for i, w := range want {
		dt, ok, err := p.parseDataType()
		if err != nil {
			t.Fatalf("type %d: %s", i, err.Message)
		}
		if !ok {
			t.Fatalf("type %d: parseDataType reported no match", i)
		}
		wantInt(t, dt, w.width, w.signed)
		if _, err := p.expectSym(";"); err != nil {
			t.Fatalf("type %d: %s", i, err.Message)
		}
	}
	if !p.atEnd() {
		t.Fatalf("tokens remain after parsing four types: %q", p.cur().Text)
	}
}

// Scenario 3: "typename our_struct<unsigned<19>, our_const>" yields a
// user type named our_struct with two template arguments: a type
// argument (integer width 19 unsigned) and an expression argument
// (variable our_const).
func TestParseComplexType(t *testing.T) {
	p, in := newParser(t, "typename our_struct<unsigned<19>, our_const>")

	dt, ok, err := p.parseDataType()
	if err != nil {
		t.Fatalf("parseDataType: %s", err.Message)
	}
	if !ok {
		t.Fatal("parseDataType reported no match")
	}
	if dt.Kind != ast.TypeUser {
		t.Fatalf("kind = %v, want TypeUser", dt.Kind)
	}
	if got, want := in.Str(dt.User.Name), "our_struct"; got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
	if len(dt.User.Args) != 2 {
		t.Fatalf("len(Args) = %d, want 2", len(dt.User.Args))
	}

	arg0 := dt.User.Args[0]
	if !arg0.IsType {
		t.Fatal("arg 0: want a type argument")
	}
	wantInt(t, arg0.Type, 19, false)

	arg1 := dt.User.Args[1]
	if arg1.IsType {
		t.Fatal("arg 1: want an expression argument")
	}
	v, ok := arg1.Expr.(*ast.VariableExpr)
	if !ok {
		t.Fatalf("arg 1 is %T, want *ast.VariableExpr", arg1.Expr)
	}
	if got, want := in.Str(v.Name), "our_const"; got != want {
		t.Errorf("arg 1 name = %q, want %q", got, want)
	}
	if !p.atEnd() {
		t.Fatalf("tokens remain: %q", p.cur().Text)
	}
}

// Scenario 4: "4+5*(6+-7)" yields
// Add(Literal(4), Mul(Literal(5), Add(Literal(6), Negate(Literal(7))))).
func TestExpressionPrecedence(t *testing.T) {
	p, _ := newParser(t, "4+5*(6+-7)")

	e, err := p.parseExpr(0)
	if err != nil {
		t.Fatalf("parseExpr: %s", err.Message)
	}
	if !p.atEnd() {
		t.Fatalf("tokens remain: %q", p.cur().Text)
	}

	add, ok := e.(*ast.OpExpr)
	if !ok || add.Operator != ast.OpAdd {
		t.Fatalf("top = %#v, want Add", e)
	}
	lhs, ok := add.Args[0].(*ast.LiteralExpr)
	if !ok || lhs.Value.AsU64() != 4 {
		t.Fatalf("lhs = %#v, want Literal(4)", add.Args[0])
	}

	mul, ok := add.Args[1].(*ast.OpExpr)
	if !ok || mul.Operator != ast.OpMul {
		t.Fatalf("rhs = %#v, want Mul", add.Args[1])
	}
	five, ok := mul.Args[0].(*ast.LiteralExpr)
	if !ok || five.Value.AsU64() != 5 {
		t.Fatalf("mul lhs = %#v, want Literal(5)", mul.Args[0])
	}

	innerAdd, ok := mul.Args[1].(*ast.OpExpr)
	if !ok || innerAdd.Operator != ast.OpAdd {
		t.Fatalf("mul rhs = %#v, want Add", mul.Args[1])
	}
	six, ok := innerAdd.Args[0].(*ast.LiteralExpr)
	if !ok || six.Value.AsU64() != 6 {
		t.Fatalf("inner add lhs = %#v, want Literal(6)", innerAdd.Args[0])
	}
	neg, ok := innerAdd.Args[1].(*ast.OpExpr)
	if !ok || neg.Operator != ast.OpNegate {
		t.Fatalf("inner add rhs = %#v, want Negate", innerAdd.Args[1])
	}
	seven, ok := neg.Args[0].(*ast.LiteralExpr)
	if !ok || seven.Value.AsU64() != 7 {
		t.Fatalf("negate arg = %#v, want Literal(7)", neg.Args[0])
	}
}

// parseDataType must report "no match, no error" rather than consuming
// anything when the current token plainly cannot start a type, so
// statement-head disambiguation can fall back to expression parsing for
// free.
func TestParseDataTypeNoMatch(t *testing.T) {
	p, _ := newParser(t, "our_var + 1")
	save := p.pos
	dt, ok, err := p.parseDataType()
	if err != nil {
		t.Fatalf("unexpected error: %s", err.Message)
	}
	if ok || dt != nil {
		t.Fatalf("parseDataType matched %#v, want no match", dt)
	}
	if p.pos != save {
		t.Fatalf("cursor advanced from %d to %d on a non-match", save, p.pos)
	}
}

func TestParseModuleWithPorts(t *testing.T) {
	p, in := newParser(t, "module m(in unsigned<8> a) { unsigned<9> y = a + 1; }")

	ns, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %s", err.Message)
	}
	if len(ns.Content) != 1 || ns.Content[0].Stmt == nil {
		t.Fatalf("want exactly one top-level statement, got %#v", ns.Content)
	}
	mod, ok := ns.Content[0].Stmt.(*ast.Module)
	if !ok {
		t.Fatalf("top-level statement is %T, want *ast.Module", ns.Content[0].Stmt)
	}
	if got, want := in.Str(mod.Name), "m"; got != want {
		t.Errorf("module name = %q, want %q", got, want)
	}
	if len(mod.Ports) != 1 {
		t.Fatalf("len(Ports) = %d, want 1", len(mod.Ports))
	}
	port := mod.Ports[0]
	if port.Dir != ast.DirInput {
		t.Errorf("port dir = %v, want DirInput", port.Dir)
	}
	wantInt(t, port.Type, 8, false)
	if got, want := in.Str(port.Name), "a"; got != want {
		t.Errorf("port name = %q, want %q", got, want)
	}

	body, ok := mod.Content.(*ast.BlockStmt)
	if !ok || len(body.Body) != 1 {
		t.Fatalf("module body = %#v, want a one-statement block", mod.Content)
	}
	decl, ok := body.Body[0].(*ast.VariableDecl)
	if !ok {
		t.Fatalf("body statement is %T, want *ast.VariableDecl", body.Body[0])
	}
	wantInt(t, decl.Type, 9, false)
	if got, want := in.Str(decl.Name), "y"; got != want {
		t.Errorf("decl name = %q, want %q", got, want)
	}
	if _, ok := decl.Init.(*ast.OpExpr); !ok {
		t.Fatalf("decl init = %#v, want an OpExpr (a + 1)", decl.Init)
	}
}

func TestParseStructSelfReference(t *testing.T) {
	p, in := newParser(t, "struct node { node& next; }")

	s, err := p.statement()
	if err != nil {
		t.Fatalf("statement: %s", err.Message)
	}
	sd, ok := s.(*ast.StructureDef)
	if !ok {
		t.Fatalf("statement is %T, want *ast.StructureDef", s)
	}
	if got, want := in.Str(sd.Name), "node"; got != want {
		t.Errorf("name = %q, want %q", got, want)
	}
	block, ok := sd.Block.(*ast.BlockStmt)
	if !ok || len(block.Body) != 1 {
		t.Fatalf("block = %#v, want one member", sd.Block)
	}
	field, ok := block.Body[0].(*ast.VariableDecl)
	if !ok {
		t.Fatalf("member is %T, want *ast.VariableDecl", block.Body[0])
	}
	if field.Type.Kind != ast.TypeReference {
		t.Fatalf("field type kind = %v, want TypeReference", field.Type.Kind)
	}
	if field.Type.Reference.Kind != ast.TypeUser {
		t.Fatalf("referenced type kind = %v, want TypeUser", field.Type.Reference.Kind)
	}
	if got, want := in.Str(field.Type.Reference.User.Name), "node"; got != want {
		t.Errorf("referenced type name = %q, want %q", got, want)
	}
}

// A malformed type head ("unsigned<8" missing its closing ">") at a
// statement position must surface the type diagnostic, not whatever
// unhelpful error falls out of retrying the same tokens as an
// expression — mirroring parseTemplateValue's preference for the
// original type error when both paths fail.
func TestDeclOrExprStmtPrefersTypeErrorWhenBothFail(t *testing.T) {
	p, _ := newParser(t, "unsigned<8 q;")
	_, err := p.statement()
	if err == nil {
		t.Fatal("want an error, got nil")
	}
	if !strings.Contains(err.Message, ">") {
		t.Fatalf("err = %q, want the missing '>' type diagnostic", err.Message)
	}
}

func TestParseConditionalMerge(t *testing.T) {
	p, _ := newParser(t, "module m(in unsigned<1> c, in unsigned<8> a) { unsigned<8> y = 0; if (c) { y = a; } else { y = 7; } }")

	ns, err := p.Parse()
	if err != nil {
		t.Fatalf("Parse: %s", err.Message)
	}
	mod := ns.Content[0].Stmt.(*ast.Module)
	body := mod.Content.(*ast.BlockStmt)
	if len(body.Body) != 2 {
		t.Fatalf("len(body) = %d, want 2", len(body.Body))
	}
	ifs, ok := body.Body[1].(*ast.IfStmt)
	if !ok {
		t.Fatalf("second statement is %T, want *ast.IfStmt", body.Body[1])
	}
	if ifs.IsMeta {
		t.Error("plain 'if' must not be marked IsMeta")
	}
	if ifs.IfFalse == nil {
		t.Fatal("want an else clause")
	}
}
