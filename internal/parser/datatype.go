package parser

import (
	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/diag"
	"planar/internal/lexer"
)

// parseDataType attempts to parse a data type at the current position.
// A false ok with a nil diagnostic means "definitely not a type" (the
// token here cannot start one) rather than "malformed" — callers use
// that distinction to fall back to expression parsing under an
// ambiguity save point.
func (p *Parser) parseDataType() (*ast.DataType, bool, *diag.Diagnostic) {
	start := p.cur()

	isStatic := p.matchKw(core.KwStatic)
	forceTypename := p.matchKw(core.KwTypename)
	isConst := p.matchKw(core.KwConst)
	if !isStatic {
		isStatic = p.matchKw(core.KwStatic)
	}

	base, ok, err := p.parseDataTypeBase(forceTypename)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		if isStatic || forceTypename || isConst {
			return nil, false, diag.Syntaxf(start.Loc(), "expected a type after qualifier")
		}
		return nil, false, nil
	}

	var dims []ast.Expr
	for p.checkSym("[") {
		p.advance()
		d, err := p.parseExpr(0)
		if err != nil {
			return nil, false, err
		}
		if _, err := p.expectSym("]"); err != nil {
			return nil, false, err
		}
		dims = append(dims, d)
	}
	if len(dims) > 0 {
		base = &ast.DataType{Kind: ast.TypeArray, Array: ast.ArrayType{Base: base, Dims: dims}}
	}

	for p.matchSym("::") {
		name, err := p.expectIdent()
		if err != nil {
			return nil, false, err
		}
		base = &ast.DataType{Kind: ast.TypeScoped, ScopedBase: base, ScopedName: name.Name}
	}

	if p.matchSym("&") {
		base = &ast.DataType{Kind: ast.TypeReference, Reference: base}
	}

	base.IsStatic = isStatic
	base.IsConst = isConst
	return base, true, nil
}

// parseDataTypeBase handles the unqualified type spelling: auto, void,
// auto_int, a C-style integral specifier, or a user-defined name that
// the current scope (or a preceding `typename`) reports as a type.
func (p *Parser) parseDataTypeBase(forceTypename bool) (*ast.DataType, bool, *diag.Diagnostic) {
	switch {
	case p.matchKw(core.KwVoid):
		return &ast.DataType{Kind: ast.TypeVoid}, true, nil
	case p.matchKw(core.KwAuto):
		return &ast.DataType{Kind: ast.TypeAuto}, true, nil
	case p.matchKw(core.KwAutoInt):
		return &ast.DataType{Kind: ast.TypeAutoInt}, true, nil
	}

	if dt, err := p.parseIntegralSpecifier(); dt != nil || err != nil {
		return dt, dt != nil, err
	}

	if p.cur().Kind == lexer.Ident {
		name := p.cur().Name
		if forceTypename || p.isType(name) {
			p.advance()
			dt := &ast.DataType{Kind: ast.TypeUser, User: ast.UserType{Name: name}}
			if p.matchSym("<") {
				args, err := p.parseTemplateValueList()
				if err != nil {
					return nil, false, err
				}
				dt.User.Args = args
				if _, err := p.expectSym(">"); err != nil {
					return nil, false, err
				}
			}
			return dt, true, nil
		}
	}
	return nil, false, nil
}

// parseIntegralSpecifier recognizes the C-style integral-type grammar:
// signed/unsigned optionally followed by either a `<width>` template
// argument or a size keyword (char/short/int/long), with an optional
// redundant trailing `int` after the size keyword; or a bare size
// keyword on its own, defaulting to signed. Returns (nil, nil) when the
// current token starts none of this.
func (p *Parser) parseIntegralSpecifier() (*ast.DataType, *diag.Diagnostic) {
	var isSigned bool
	switch {
	case p.matchKw(core.KwSigned):
		isSigned = true
	case p.matchKw(core.KwUnsigned):
		isSigned = false
	case p.matchKw(core.KwChar):
		return p.sizedInteger(8, true), nil
	case p.matchKw(core.KwShort):
		p.matchKw(core.KwInt)
		return p.sizedInteger(16, true), nil
	case p.matchKw(core.KwInt):
		return p.sizedInteger(32, true), nil
	case p.matchKw(core.KwLong):
		p.matchKw(core.KwInt)
		return p.sizedInteger(64, true), nil
	default:
		return nil, nil
	}

	var widthExpr ast.Expr
	width := 32
	if p.matchSym("<") {
		e, err := p.templateWidthExpr()
		if err != nil {
			return nil, err
		}
		widthExpr = e
		if _, err := p.expectSym(">"); err != nil {
			return nil, err
		}
	} else {
		switch {
		case p.matchKw(core.KwChar):
			width = 8
		case p.matchKw(core.KwShort):
			width = 16
			p.matchKw(core.KwInt)
		case p.matchKw(core.KwInt):
			width = 32
		case p.matchKw(core.KwLong):
			width = 64
			p.matchKw(core.KwInt)
		}
	}
	if widthExpr == nil {
		widthExpr = litWidth(p.prevTok(), width)
	}
	return &ast.DataType{
		Kind: ast.TypeInteger,
		Integer: ast.IntegerType{
			Width:    widthExpr,
			IsSigned: litBool(p.prevTok(), isSigned),
		},
	}, nil
}

// templateWidthExpr parses the expression inside `unsigned<...>`,
// respecting the template-argument-list `>` terminator rule. parenDepth
// restarts at 0 so a `(` opened before the `<` does not shield the `>`.
func (p *Parser) templateWidthExpr() (ast.Expr, *diag.Diagnostic) {
	p.templateDepth++
	savedParen := p.parenDepth
	p.parenDepth = 0
	defer func() { p.templateDepth--; p.parenDepth = savedParen }()
	return p.parseExpr(0)
}

func (p *Parser) sizedInteger(width int, signed bool) *ast.DataType {
	tok := p.prevTok()
	return &ast.DataType{
		Kind: ast.TypeInteger,
		Integer: ast.IntegerType{
			Width:    litWidth(tok, width),
			IsSigned: litBool(tok, signed),
		},
	}
}

func litWidth(tok lexer.Token, width int) ast.Expr {
	return ast.NewLiteral(core.FromU64(uint64(width), 32), nil, spanOf(tok, tok))
}

func litBool(tok lexer.Token, b bool) ast.Expr {
	v := uint64(0)
	if b {
		v = 1
	}
	return ast.NewLiteral(core.FromU64(v, 1), nil, spanOf(tok, tok))
}

// parseTemplateValueList parses the comma-separated contents of a `<...>`
// template argument or value list (the caller consumes the delimiters).
func (p *Parser) parseTemplateValueList() ([]ast.TemplateValue, *diag.Diagnostic) {
	p.templateDepth++
	savedParen := p.parenDepth
	p.parenDepth = 0
	defer func() { p.templateDepth--; p.parenDepth = savedParen }()

	var out []ast.TemplateValue
	if p.checkSym(">") {
		return out, nil
	}
	for {
		v, err := p.parseTemplateValue()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		if !p.matchSym(",") {
			break
		}
	}
	return out, nil
}

// parseTemplateValue resolves the type-vs-expression ambiguity at a
// single template argument position: try a data type first under a
// save point, and fall back to an expression.
func (p *Parser) parseTemplateValue() (ast.TemplateValue, *diag.Diagnostic) {
	save := p.enterAmbig()
	dt, ok, err := p.parseDataType()
	if err == nil && ok {
		p.ambigSuccess(save)
		return ast.TemplateValue{IsType: true, Type: dt}, nil
	}
	p.ambigFailure(save)

	e, exprErr := p.parseExpr(0)
	if exprErr != nil {
		if err != nil {
			return ast.TemplateValue{}, err
		}
		return ast.TemplateValue{}, exprErr
	}
	return ast.TemplateValue{IsType: false, Expr: e}, nil
}
