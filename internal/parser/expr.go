package parser

import (
	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/diag"
	"planar/internal/lexer"
)

// builtinNames maps the spelling of a builtin query to its BuiltinKind.
// `sizeof` is a reserved keyword; the others are plain identifiers that
// the parser recognizes positionally (name immediately followed by
// `(`), since the distilled reserved-name table does not list them.
var builtinNames = map[string]ast.BuiltinKind{
	"sizeof":   ast.BuiltinSizeOf,
	"widthof":  ast.BuiltinWidthOf,
	"lengthof": ast.BuiltinLengthOf,
	"pipeline": ast.BuiltinPipeline,
	"delay":    ast.BuiltinDelay,
}

// parseExpr parses a full expression by precedence climbing: equivalent
// to the shunting-yard operator-stack/operand-stack/last-was-operator
// scheme the grammar is specified against, but expressed as direct
// recursion since this parser's tokens are fully buffered (no
// incremental deque to thread an explicit stack through). minPrec
// filters out operators binding looser than the caller wants; pass 0 to
// parse everything down to assignment.
func (p *Parser) parseExpr(minPrec int) (ast.Expr, *diag.Diagnostic) {
	lhs, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekInfixOperator()
		if !ok || op.Precedence() < minPrec {
			return lhs, nil
		}
		p.advance()
		nextMin := op.Precedence() + 1
		if rightAssoc(op) {
			nextMin = op.Precedence()
		}
		rhs, err := p.parseExpr(nextMin)
		if err != nil {
			return nil, err
		}
		lhs = ast.NewOp(op, []ast.Expr{lhs, rhs}, nil, spanExpr(lhs, rhs))
	}
}

// peekInfixOperator reports the binary operator starting at the cursor,
// if any. A `>` terminates a template-argument expression rather than
// being read as the greater-than comparison, unless an unmatched `(`
// opened inside that template argument shields it.
func (p *Parser) peekInfixOperator() (ast.Operator, bool) {
	tok := p.cur()
	if tok.Kind != lexer.Symbol {
		return 0, false
	}
	if tok.Text == ">" && p.templateDepth > 0 && p.parenDepth == 0 {
		return 0, false
	}
	cands := ast.OperatorsForToken(tok.Text)
	if len(cands) == 0 {
		return 0, false
	}
	return selectOperator(cands, false)
}

// rightAssoc reports whether op is right-associative, per the operator
// table's `r` column: prefix unary operators (precedence 15) and the
// assignment group (precedence 2).
func rightAssoc(op ast.Operator) bool {
	switch op.Precedence() {
	case 15, 2:
		return true
	default:
		return false
	}
}

// selectOperator disambiguates a token spelling shared by more than one
// Operator (e.g. `&` is both bitwise-AND and reduction-AND) using
// whether the position expects a prefix operand (prefixPosition) or an
// infix/postfix continuation.
func selectOperator(candidates []ast.Operator, prefixPosition bool) (ast.Operator, bool) {
	for _, op := range candidates {
		switch op {
		case ast.OpPreInc, ast.OpPreDec:
			if prefixPosition {
				return op, true
			}
		case ast.OpPostInc, ast.OpPostDec:
			if !prefixPosition {
				return op, true
			}
		default:
			if op.ArgCount() == 1 {
				if prefixPosition {
					return op, true
				}
			} else if !prefixPosition {
				return op, true
			}
		}
	}
	return 0, false
}

// parsePrimary parses one operand: an atom (possibly with a leading
// chain of prefix operators, resolved by direct recursion since they
// bind tighter than anything else) followed by any postfix chain of
// calls, indexing, member access and postfix ++/--.
func (p *Parser) parsePrimary() (ast.Expr, *diag.Diagnostic) {
	e, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parseTrailers(e)
}

func (p *Parser) parseAtom() (ast.Expr, *diag.Diagnostic) {
	tok := p.cur()

	if tok.Kind == lexer.Symbol {
		switch tok.Text {
		case "++", "--":
			p.advance()
			operand, err := p.parsePrimary()
			if err != nil {
				return nil, err
			}
			op := ast.OpPreInc
			if tok.Text == "--" {
				op = ast.OpPreDec
			}
			return ast.NewOp(op, []ast.Expr{operand, litOne(tok)}, nil, spanExpr2(tok, operand)), nil
		case "(":
			p.advance()
			p.parenDepth++
			inner, err := p.parseExpr(0)
			if err != nil {
				p.parenDepth--
				return nil, err
			}
			if _, err := p.expectSym(")"); err != nil {
				p.parenDepth--
				return nil, err
			}
			p.parenDepth--
			return inner, nil
		case "{":
			return p.parseListExpr()
		}
		if cands := ast.OperatorsForToken(tok.Text); len(cands) > 0 {
			if op, ok := selectOperator(cands, true); ok {
				p.advance()
				operand, err := p.parsePrimary()
				if err != nil {
					return nil, err
				}
				return ast.NewOp(op, []ast.Expr{operand}, nil, spanExpr2(tok, operand)), nil
			}
		}
	}

	if tok.Kind == lexer.Keyword || tok.Kind == lexer.Ident {
		if kind, ok := builtinNames[tok.Text]; ok && p.peekAt(1).Kind == lexer.Symbol && p.peekAt(1).Text == "(" {
			return p.parseBuiltinCall(kind)
		}
	}

	switch tok.Kind {
	case lexer.IntLiteral:
		p.advance()
		return ast.NewLiteral(tok.Int, nil, spanOf(tok, tok)), nil
	case lexer.CharLiteral:
		p.advance()
		var b byte
		if len(tok.Str) > 0 {
			b = tok.Str[0]
		}
		return ast.NewLiteral(core.FromU64(uint64(b), 8), nil, spanOf(tok, tok)), nil
	case lexer.StringLiteral:
		return nil, diag.NotImplementedf(tok.Loc(), "string literal expressions")
	case lexer.Ident:
		p.advance()
		return ast.NewVariable(tok.Name, nil, spanOf(tok, tok)), nil
	default:
		return nil, diag.Syntaxf(p.loc(), "expected an expression, found %q", tok.Text)
	}
}

func (p *Parser) parseBuiltinCall(kind ast.BuiltinKind) (ast.Expr, *diag.Diagnostic) {
	start := p.cur()
	p.advance() // builtin name
	p.advance() // '('
	arg, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	end, err := p.expectSym(")")
	if err != nil {
		return nil, err
	}
	return ast.NewBuiltin(kind, arg, nil, spanOf(start, end)), nil
}

func (p *Parser) parseTrailers(e ast.Expr) (ast.Expr, *diag.Diagnostic) {
	for {
		switch {
		case p.checkSym(".") || p.checkSym("::"):
			p.advance()
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			e = ast.NewScopedVariable(e, name.Name, nil, spanExpr2(p.prevTok(), e))
		case p.checkSym("["):
			p.advance()
			p.parenDepth++
			first, err := p.parseExpr(0)
			if err != nil {
				p.parenDepth--
				return nil, err
			}
			if p.matchSym(":") {
				end, err := p.parseExpr(0)
				if err != nil {
					p.parenDepth--
					return nil, err
				}
				closeTok, err := p.expectSym("]")
				p.parenDepth--
				if err != nil {
					return nil, err
				}
				e = ast.NewBitSlice(e, first, end, nil, spanExpr2(closeTok, e))
				continue
			}
			indices := []ast.Expr{first}
			for p.matchSym(",") {
				idx, err := p.parseExpr(0)
				if err != nil {
					p.parenDepth--
					return nil, err
				}
				indices = append(indices, idx)
			}
			closeTok, err := p.expectSym("]")
			p.parenDepth--
			if err != nil {
				return nil, err
			}
			e = ast.NewArrayAccess(e, indices, nil, spanExpr2(closeTok, e))
		case p.checkSym("("):
			name, dest, ok := funcNameAndDest(e)
			if !ok {
				return nil, diag.Syntaxf(p.loc(), "call target must be a name")
			}
			args, closeTok, err := p.parseCallArgs()
			if err != nil {
				return nil, err
			}
			e = ast.NewFuncCall(name, dest, args, nil, spanExpr2(closeTok, e))
		case p.checkSym("++"):
			tok := p.advance()
			e = ast.NewOp(ast.OpPostInc, []ast.Expr{e, litOne(tok)}, nil, spanExpr2(tok, e))
		case p.checkSym("--"):
			tok := p.advance()
			e = ast.NewOp(ast.OpPostDec, []ast.Expr{e, litOne(tok)}, nil, spanExpr2(tok, e))
		default:
			return e, nil
		}
	}
}

func (p *Parser) parseCallArgs() ([]ast.Expr, lexer.Token, *diag.Diagnostic) {
	p.advance() // '('
	p.parenDepth++
	defer func() { p.parenDepth-- }()
	var args []ast.Expr
	if !p.checkSym(")") {
		for {
			a, err := p.parseExpr(0)
			if err != nil {
				return nil, lexer.Token{}, err
			}
			args = append(args, a)
			if !p.matchSym(",") {
				break
			}
		}
	}
	closeTok, err := p.expectSym(")")
	if err != nil {
		return nil, lexer.Token{}, err
	}
	return args, closeTok, nil
}

func (p *Parser) parseListExpr() (ast.Expr, *diag.Diagnostic) {
	start := p.advance() // '{'
	p.parenDepth++
	defer func() { p.parenDepth-- }()
	var elems []ast.Expr
	if !p.checkSym("}") {
		for {
			e, err := p.parseExpr(0)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if !p.matchSym(",") {
				break
			}
		}
	}
	end, err := p.expectSym("}")
	if err != nil {
		return nil, err
	}
	return ast.NewList(elems, nil, spanOf(start, end)), nil
}

func funcNameAndDest(e ast.Expr) (core.Name, ast.Expr, bool) {
	switch t := e.(type) {
	case *ast.VariableExpr:
		return t.Name, nil, true
	case *ast.ScopedVariableExpr:
		return t.Name, t.Base, true
	default:
		return 0, nil, false
	}
}

func litOne(tok lexer.Token) ast.Expr {
	return ast.NewLiteral(core.FromU64(1, 32), nil, spanOf(tok, tok))
}

func spanExpr(a, b ast.Expr) ast.SrcInfo {
	return ast.SrcInfo{File: a.Src().File, Start: a.Src().Start, End: b.Src().End}
}

func spanExpr2(tok lexer.Token, e ast.Expr) ast.SrcInfo {
	return ast.SrcInfo{File: tok.File, Start: ast.LineCol{Line: tok.Line, Col: tok.Column}, End: e.Src().End}
}
