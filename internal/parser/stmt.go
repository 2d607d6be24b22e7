package parser

import (
	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/diag"
	"planar/internal/lexer"
)

// checkIdentText reports whether the current token is the plain
// identifier s. Used for the handful of context keywords ("module",
// "in", "out", "inout") that the reserved-name table does not seed,
// since they only mean something positionally (e.g. a bare variable
// can legally be named "module" anywhere outside a namespace head).
func (p *Parser) checkIdentText(s string) bool {
	t := p.cur()
	return t.Kind == lexer.Ident && t.Text == s
}

// selfRefScope makes a struct's own name resolve as a type inside its
// own body, the forward-declaration scope the grammar describes for
// struct definitions, without having to special-case it in StmtScope
// (whose children come from an already-built Stmt this scope precedes).
type selfRefScope struct {
	name   core.Name
	parent ast.Scope
}

func (s *selfRefScope) ScopeName() (core.Name, bool) { return s.name, true }

func (s *selfRefScope) IsType(ident core.Name) bool {
	if ident == s.name {
		return true
	}
	if s.parent != nil {
		return s.parent.IsType(ident)
	}
	return false
}

func (s *selfRefScope) IsFunc(ident core.Name) bool {
	if s.parent != nil {
		return s.parent.IsFunc(ident)
	}
	return false
}

func (s *selfRefScope) IsVar(ident core.Name) bool {
	if s.parent != nil {
		return s.parent.IsVar(ident)
	}
	return false
}

func (s *selfRefScope) Decls() []ast.Stmt { return nil }

// parseAttributes consumes zero or more `[[name]]` / `[[name(value), ...]]`
// groups at the current position.
func (p *Parser) parseAttributes() (ast.AttributeList, *diag.Diagnostic) {
	var out ast.AttributeList
	for p.checkSym("[") && p.peekAt(1).Kind == lexer.Symbol && p.peekAt(1).Text == "[" {
		p.advance()
		p.advance()
		for {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			attr := ast.Attribute{Name: name.Name}
			if p.matchSym("(") {
				v, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				attr.Value = v
				if _, err := p.expectSym(")"); err != nil {
					return nil, err
				}
			}
			out = append(out, attr)
			if !p.matchSym(",") {
				break
			}
		}
		if _, err := p.expectSym("]"); err != nil {
			return nil, err
		}
		if _, err := p.expectSym("]"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// topLevelItem parses one entry directly inside a namespace body: a
// nested namespace, a module definition, or any ordinary statement
// (typedef/using/struct/function/variable declaration).
func (p *Parser) topLevelItem(parent *ast.Namespace) (ast.NamespaceItem, *diag.Diagnostic) {
	attrs, err := p.parseAttributes()
	if err != nil {
		return ast.NamespaceItem{}, err
	}
	start := p.cur()

	switch {
	case p.checkKw(core.KwNamespace):
		ns, err := p.namespaceDef(start, attrs)
		if err != nil {
			return ast.NamespaceItem{}, err
		}
		return ast.NamespaceItem{Nested: ns}, nil
	case p.checkIdentText("module"):
		mod, err := p.moduleDef(start, attrs)
		if err != nil {
			return ast.NamespaceItem{}, err
		}
		return ast.NamespaceItem{Stmt: mod}, nil
	default:
		s, err := p.statementBody(start, attrs)
		if err != nil {
			return ast.NamespaceItem{}, err
		}
		return ast.NamespaceItem{Stmt: s}, nil
	}
}

// namespaceDef parses `namespace [name] { items... }`.
func (p *Parser) namespaceDef(start lexer.Token, attrs ast.AttributeList) (*ast.Namespace, *diag.Diagnostic) {
	p.advance() // 'namespace'
	var name core.Name
	hasName := false
	if p.cur().Kind == lexer.Ident {
		name = p.cur().Name
		hasName = true
		p.advance()
	}
	ns := ast.NewNamespace(name, hasName, attrs, ast.SrcInfo{File: start.File})
	if _, err := p.expectSym("{"); err != nil {
		return nil, err
	}
	p.pushScope(ast.NewNamespaceScope(ns, p.scope()))
	for !p.checkSym("}") && !p.atEnd() {
		item, err := p.topLevelItem(ns)
		if err != nil {
			p.popScope()
			return nil, err
		}
		ns.Content = append(ns.Content, item)
	}
	p.popScope()
	end, err := p.expectSym("}")
	if err != nil {
		return nil, err
	}
	ns.Info = spanOf(start, end)
	return ns, nil
}

// parseIODir reads a module port direction. "in"/"out"/"inout" are not
// reserved keywords (the distilled spec's section-6 table omits them,
// the same way it omits the builtin query names), so they are matched
// positionally here rather than through checkKw. A port with neither
// reads as DirOutput, the common case for a combinational result port.
func (p *Parser) parseIODir() ast.IODir {
	switch {
	case p.checkIdentText("in"):
		p.advance()
		return ast.DirInput
	case p.checkIdentText("out"):
		p.advance()
		return ast.DirOutput
	case p.checkIdentText("inout"):
		p.advance()
		return ast.DirInterface
	default:
		return ast.DirOutput
	}
}

func (p *Parser) parseModulePort() (ast.ModuleIO, *diag.Diagnostic) {
	dir := p.parseIODir()
	dt, matched, err := p.parseDataType()
	if err != nil {
		return ast.ModuleIO{}, err
	}
	if !matched {
		return ast.ModuleIO{}, diag.Syntaxf(p.loc(), "expected a port type, found %q", p.cur().Text)
	}
	name, err := p.expectIdent()
	if err != nil {
		return ast.ModuleIO{}, err
	}
	return ast.ModuleIO{Type: dt, Name: name.Name, Dir: dir}, nil
}

// moduleDef parses `module Name [< templargs >] ( ports ) body`. Clock,
// enable and reset attachment has no worked example in the scenarios
// this parser is built against, so a module's Clock/Enable/Reset always
// come back nil here; wiring an explicit clock/reset syntax is left for
// a later elaboration phase.
func (p *Parser) moduleDef(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'module'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var templArgs []ast.TemplateArg
	if p.matchSym("<") {
		templArgs, err = p.parseTemplateArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSym(">"); err != nil {
			return nil, err
		}
	}

	if _, err := p.expectSym("("); err != nil {
		return nil, err
	}
	p.parenDepth++
	var ports []ast.ModuleIO
	if !p.checkSym(")") {
		for {
			port, err := p.parseModulePort()
			if err != nil {
				p.parenDepth--
				return nil, err
			}
			ports = append(ports, port)
			if !p.matchSym(",") {
				break
			}
		}
	}
	p.parenDepth--
	if _, err := p.expectSym(")"); err != nil {
		return nil, err
	}

	mod := ast.NewModule(name.Name, templArgs, ports, nil, nil, nil, nil, attrs, ast.SrcInfo{File: start.File})
	p.pushScope(ast.NewStmtScope(mod, p.scope()))
	content, err := p.statement()
	p.popScope()
	if err != nil {
		return nil, err
	}
	mod.Content = content
	mod.Info = spanOf(start, p.prevTok())
	return mod, nil
}

// parseTemplateArgList parses the declaration-site parameter list of a
// struct, module or function template: each entry is either `typename
// Name [= DefaultType]` or `Type Name [= DefaultExpr]`.
func (p *Parser) parseTemplateArgList() ([]ast.TemplateArg, *diag.Diagnostic) {
	var out []ast.TemplateArg
	for {
		attrs, err := p.parseAttributes()
		if err != nil {
			return nil, err
		}
		if p.matchKw(core.KwTypename) {
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			arg := ast.TemplateArg{Name: name.Name, Kind: ast.TemplTypename, Attrs: attrs}
			if p.matchSym("=") {
				dt, matched, err := p.parseDataType()
				if err != nil {
					return nil, err
				}
				if !matched {
					return nil, diag.Syntaxf(p.loc(), "expected a default type")
				}
				arg.DefType = dt
			}
			out = append(out, arg)
		} else {
			dt, matched, err := p.parseDataType()
			if err != nil {
				return nil, err
			}
			if !matched {
				return nil, diag.Syntaxf(p.loc(), "expected a template parameter type")
			}
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			arg := ast.TemplateArg{Name: name.Name, Kind: ast.TemplValue, ValType: dt, Attrs: attrs}
			if p.matchSym("=") {
				e, err := p.parseExpr(0)
				if err != nil {
					return nil, err
				}
				arg.Default = e
			}
			out = append(out, arg)
		}
		if !p.matchSym(",") {
			break
		}
	}
	return out, nil
}

// statement parses one statement, including its leading attribute list.
func (p *Parser) statement() (ast.Stmt, *diag.Diagnostic) {
	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, err
	}
	return p.statementBody(p.cur(), attrs)
}

// statementBody dispatches on an already-consumed attribute list, so
// topLevelItem and statement can share it without parsing attributes
// twice.
func (p *Parser) statementBody(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	switch {
	case p.checkSym(";"):
		p.advance()
		return ast.NewNullStmt(attrs, spanOf(start, start)), nil
	case p.checkKw(core.KwTypedef):
		return p.typedefDecl(start, attrs)
	case p.checkKw(core.KwUsing):
		return p.usingDecl(start, attrs)
	case p.checkKw(core.KwStruct):
		return p.structDef(start, attrs)
	case p.checkKw(core.KwMeta):
		return p.metaStmt(start, attrs)
	case p.checkKw(core.KwIf):
		return p.ifStmt(start, attrs, false)
	case p.checkKw(core.KwFor):
		return p.forLoop(start, attrs, false)
	case p.checkKw(core.KwMulticycle):
		return p.multicycleBlock(start, attrs)
	case p.checkSym("{"):
		return p.block(attrs)
	case p.checkKw(core.KwReturn):
		return p.returnStmt(start, attrs)
	case p.checkKw(core.KwBreak):
		p.advance()
		semi, err := p.expectSym(";")
		if err != nil {
			return nil, err
		}
		return ast.NewBreakStmt(attrs, spanOf(start, semi)), nil
	case p.checkKw(core.KwContinue):
		p.advance()
		semi, err := p.expectSym(";")
		if err != nil {
			return nil, err
		}
		return ast.NewContinueStmt(attrs, spanOf(start, semi)), nil
	default:
		return p.declOrExprStmt(start, attrs)
	}
}

func (p *Parser) typedefDecl(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'typedef'
	dt, matched, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, diag.Syntaxf(p.loc(), "expected a type after 'typedef'")
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	semi, err := p.expectSym(";")
	if err != nil {
		return nil, err
	}
	return ast.NewTypedefDecl(name.Name, dt, attrs, spanOf(start, semi)), nil
}

func (p *Parser) usingDecl(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'using'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if _, err := p.expectSym("="); err != nil {
		return nil, err
	}
	dt, matched, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if !matched {
		return nil, diag.Syntaxf(p.loc(), "expected a type after '='")
	}
	semi, err := p.expectSym(";")
	if err != nil {
		return nil, err
	}
	return ast.NewUsingDecl(name.Name, dt, attrs, spanOf(start, semi)), nil
}

// structDef parses a struct definition, pushing a forward-declaration
// scope around the body so members can refer to the struct's own name
// (a self-referential field or method return type) before the
// StructureDef node exists to anchor a normal StmtScope.
func (p *Parser) structDef(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'struct'
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}

	var templArgs []ast.TemplateArg
	if p.matchSym("<") {
		templArgs, err = p.parseTemplateArgList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectSym(">"); err != nil {
			return nil, err
		}
	}

	p.pushScope(&selfRefScope{name: name.Name, parent: p.scope()})
	block, err := p.block(nil)
	p.popScope()
	if err != nil {
		return nil, err
	}
	p.matchSym(";") // optional trailing ';', as in C++

	return ast.NewStructureDef(name.Name, false, templArgs, block, attrs, spanOf(start, p.prevTok())), nil
}

func (p *Parser) metaStmt(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'meta'
	switch {
	case p.checkKw(core.KwIf):
		return p.ifStmt(start, attrs, true)
	case p.checkKw(core.KwFor):
		return p.forLoop(start, attrs, true)
	default:
		return nil, diag.Syntaxf(p.loc(), "expected 'if' or 'for' after 'meta', found %q", p.cur().Text)
	}
}

func (p *Parser) ifStmt(start lexer.Token, attrs ast.AttributeList, isMeta bool) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'if'
	if _, err := p.expectSym("("); err != nil {
		return nil, err
	}
	p.parenDepth++
	cond, err := p.parseExpr(0)
	if err != nil {
		p.parenDepth--
		return nil, err
	}
	p.parenDepth--
	if _, err := p.expectSym(")"); err != nil {
		return nil, err
	}
	ifTrue, err := p.statement()
	if err != nil {
		return nil, err
	}
	var ifFalse ast.Stmt
	if p.matchKw(core.KwElse) {
		ifFalse, err = p.statement()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIfStmt(cond, ifTrue, ifFalse, isMeta, attrs, spanOf(start, p.prevTok())), nil
}

// forLoop parses a C-style `for (init; cond; incr) body`. Init is
// parsed inside a scope wrapping the loop node itself, so cond/incr/body
// can see a loop variable the init clause declares; the loop's fields
// are filled in as each clause is parsed since the node must exist
// before the scope that exposes it can be pushed.
func (p *Parser) forLoop(start lexer.Token, attrs ast.AttributeList, isMeta bool) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'for'
	if _, err := p.expectSym("("); err != nil {
		return nil, err
	}
	p.parenDepth++
	defer func() { p.parenDepth-- }()

	placeholder := ast.NewNullStmt(nil, ast.SrcInfo{})
	fl := ast.NewForLoop(placeholder, ast.NewNull(nil, ast.SrcInfo{}), ast.NewNull(nil, ast.SrcInfo{}), placeholder, isMeta, attrs, ast.SrcInfo{File: start.File})
	p.pushScope(ast.NewStmtScope(fl, p.scope()))
	defer p.popScope()

	init, err := p.statement() // consumes its own trailing ';'
	if err != nil {
		return nil, err
	}
	fl.Init = init

	var cond ast.Expr = ast.NewNull(nil, spanOf(p.cur(), p.cur()))
	if !p.checkSym(";") {
		cond, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expectSym(";"); err != nil {
		return nil, err
	}
	fl.Cond = cond

	var incr ast.Expr = ast.NewNull(nil, spanOf(p.cur(), p.cur()))
	if !p.checkSym(")") {
		incr, err = p.parseExpr(0)
		if err != nil {
			return nil, err
		}
	}
	fl.Incr = incr
	if _, err := p.expectSym(")"); err != nil {
		return nil, err
	}

	body, err := p.statement()
	if err != nil {
		return nil, err
	}
	fl.Body = body
	fl.Info = spanOf(start, p.prevTok())
	return fl, nil
}

func (p *Parser) block(attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	start, err := p.expectSym("{")
	if err != nil {
		return nil, err
	}
	var body []ast.Stmt
	for !p.checkSym("}") && !p.atEnd() {
		s, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, s)
	}
	end, err := p.expectSym("}")
	if err != nil {
		return nil, err
	}
	return ast.NewBlock(body, attrs, spanOf(start, end)), nil
}

func (p *Parser) multicycleBlock(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'multicycle'
	content, err := p.statement()
	if err != nil {
		return nil, err
	}
	return ast.NewMulticycleBlock(content, attrs, spanOf(start, p.prevTok())), nil
}

func (p *Parser) returnStmt(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // 'return'
	var value ast.Expr
	if !p.checkSym(";") {
		v, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		value = v
	}
	semi, err := p.expectSym(";")
	if err != nil {
		return nil, err
	}
	return ast.NewReturnStmt(value, attrs, spanOf(start, semi)), nil
}

// declOrExprStmt resolves the statement-head ambiguity between a
// declaration (data type followed by an identifier) and a bare
// expression statement (an assignment or call), and further between a
// variable declaration and a function definition once the identifier is
// in hand: `(` immediately after the name means a function. A data type
// that doesn't consume anything when it fails (the overwhelmingly
// common case: no static/const/typename prefix, no integral keyword, no
// scope-recognized type name) needs no backtracking at all; the save
// point only matters when a user-type name was consumed but turned out
// not to be followed by a declarator, so the whole head must be
// reparsed as an expression (the `T<U>(v)` ambiguity).
func (p *Parser) declOrExprStmt(start lexer.Token, attrs ast.AttributeList) (ast.Stmt, *diag.Diagnostic) {
	save := p.enterAmbig()
	dt, matched, typeErr := p.parseDataType()
	if typeErr == nil && matched && p.cur().Kind == lexer.Ident {
		nameTok := p.cur()
		p.advance()
		if p.checkSym("(") {
			p.ambigSuccess(save)
			return p.functionDef(start, attrs, dt, nameTok)
		}
		p.ambigSuccess(save)
		var init ast.Expr
		if p.matchSym("=") {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			init = e
		}
		semi, err := p.expectSym(";")
		if err != nil {
			return nil, err
		}
		return ast.NewVariableDecl(nameTok.Name, dt, init, attrs, spanOf(start, semi)), nil
	}
	p.ambigFailure(save)

	e, exprErr := p.parseExpr(0)
	if exprErr != nil {
		if typeErr != nil {
			return nil, typeErr
		}
		return nil, exprErr
	}
	semi, err := p.expectSym(";")
	if err != nil {
		return nil, err
	}
	return ast.NewExprStmt(e, attrs, spanOf(start, semi)), nil
}

func (p *Parser) functionDef(start lexer.Token, attrs ast.AttributeList, retType *ast.DataType, nameTok lexer.Token) (ast.Stmt, *diag.Diagnostic) {
	p.advance() // '('
	p.parenDepth++
	var args []ast.FunctionArg
	if !p.checkSym(")") {
		for {
			argAttrs, err := p.parseAttributes()
			if err != nil {
				p.parenDepth--
				return nil, err
			}
			dt, matched, err := p.parseDataType()
			if err != nil {
				p.parenDepth--
				return nil, err
			}
			if !matched {
				p.parenDepth--
				return nil, diag.Syntaxf(p.loc(), "expected a parameter type")
			}
			pname, err := p.expectIdent()
			if err != nil {
				p.parenDepth--
				return nil, err
			}
			arg := ast.FunctionArg{Name: pname.Name, Type: dt, Attrs: argAttrs}
			if p.matchSym("=") {
				def, err := p.parseExpr(0)
				if err != nil {
					p.parenDepth--
					return nil, err
				}
				arg.Default = def
			}
			args = append(args, arg)
			if !p.matchSym(",") {
				break
			}
		}
	}
	p.parenDepth--
	if _, err := p.expectSym(")"); err != nil {
		return nil, err
	}

	fn := ast.NewFunction(nameTok.Name, nil, args, retType, nil, attrs, ast.SrcInfo{File: start.File})
	p.pushScope(ast.NewStmtScope(fn, p.scope()))
	content, err := p.statement()
	p.popScope()
	if err != nil {
		return nil, err
	}
	fn.Content = content
	fn.Info = spanOf(start, p.prevTok())
	return fn, nil
}
