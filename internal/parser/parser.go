// Package parser turns a buffered token stream into an ast.Namespace.
// The grammar is ambiguous wherever a data type and an expression can
// start the same way (`T<U>(v)`), so the parser supports bounded
// backtracking: enterAmbig/ambigSuccess/ambigFailure save and restore a
// cursor position. Unlike the reference implementation this is built
// from, which buffers tokens incrementally behind a growing deque, this
// parser's lexer already runs to completion up front (see
// internal/lexer), so a save point collapses to a plain integer cursor
// rather than a deque-length bookkeeping exercise.
package parser

import (
	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/diag"
	"planar/internal/lexer"
)

// Parser holds the full token buffer, a read cursor, and the scope
// stack the data-type grammar consults to decide whether a bare
// identifier names a type.
type Parser struct {
	in   *core.Interner
	toks []lexer.Token
	pos  int

	scopes []ast.Scope

	// templateDepth counts how many enclosing template-argument lists
	// are currently being parsed; parenDepth counts unmatched '(' seen
	// since the innermost one was entered. A bare '>' terminates the
	// current template-argument expression only when templateDepth > 0
	// and parenDepth == 0 (an unmatched '(' shields it, same as `foo<(a>b)>`).
	templateDepth int
	parenDepth    int
}

// New builds a parser over an already-scanned token stream (which must
// end in an EOF token, as internal/lexer.Scanner.ScanTokens produces).
func New(in *core.Interner, toks []lexer.Token) *Parser {
	return &Parser{in: in, toks: toks}
}

// Parse consumes the entire token stream and returns the root (unnamed)
// namespace, or the first diagnostic encountered.
func (p *Parser) Parse() (*ast.Namespace, *diag.Diagnostic) {
	startTok := p.cur()
	root := ast.NewNamespace(core.NoName, false, nil, spanOf(startTok, startTok))
	p.pushScope(ast.NewNamespaceScope(root, nil))
	defer p.popScope()

	for !p.atEnd() {
		item, err := p.topLevelItem(root)
		if err != nil {
			return nil, err
		}
		root.Content = append(root.Content, item)
	}
	root.Info.End = ast.LineCol{Line: p.prevTok().Line, Col: p.prevTok().Column}
	return root, nil
}

// --- scope stack ---

func (p *Parser) pushScope(s ast.Scope) { p.scopes = append(p.scopes, s) }

func (p *Parser) popScope() { p.scopes = p.scopes[:len(p.scopes)-1] }

func (p *Parser) scope() ast.Scope {
	if len(p.scopes) == 0 {
		return nil
	}
	return p.scopes[len(p.scopes)-1]
}

func (p *Parser) isType(name core.Name) bool {
	s := p.scope()
	return s != nil && s.IsType(name)
}

// --- token cursor ---

func (p *Parser) cur() lexer.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1] // the buffered EOF token
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(n int) lexer.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) prevTok() lexer.Token {
	if p.pos == 0 {
		return p.toks[0]
	}
	return p.toks[p.pos-1]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) atEnd() bool { return p.cur().Kind == lexer.EOF }

func (p *Parser) loc() diag.Location { return p.cur().Loc() }

// --- ambiguity save points ---

// ambigPoint is a saved cursor position; enterAmbig/ambigSuccess/
// ambigFailure may nest freely since each is just an independent
// integer.
type ambigPoint int

func (p *Parser) enterAmbig() ambigPoint { return ambigPoint(p.pos) }

// ambigSuccess commits the speculative read: since this parser has no
// separate "unread" buffer to pop from, committing is a no-op — the
// cursor is already where the caller wants it.
func (p *Parser) ambigSuccess(ambigPoint) {}

func (p *Parser) ambigFailure(save ambigPoint) { p.pos = int(save) }

// --- token matching primitives ---

func (p *Parser) checkSym(s string) bool {
	t := p.cur()
	return t.Kind == lexer.Symbol && t.Text == s
}

func (p *Parser) checkKw(kw core.Name) bool {
	t := p.cur()
	return t.Kind == lexer.Keyword && t.Name == kw
}

func (p *Parser) matchSym(s string) bool {
	if p.checkSym(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) matchKw(kw core.Name) bool {
	if p.checkKw(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectSym(s string) (lexer.Token, *diag.Diagnostic) {
	if p.checkSym(s) {
		return p.advance(), nil
	}
	return lexer.Token{}, diag.Syntaxf(p.loc(), "expected %q, found %q", s, p.cur().Text)
}

func (p *Parser) expectKw(kw core.Name) (lexer.Token, *diag.Diagnostic) {
	if p.checkKw(kw) {
		return p.advance(), nil
	}
	return lexer.Token{}, diag.Syntaxf(p.loc(), "expected a keyword, found %q", p.cur().Text)
}

func (p *Parser) expectIdent() (lexer.Token, *diag.Diagnostic) {
	if p.cur().Kind == lexer.Ident {
		return p.advance(), nil
	}
	return lexer.Token{}, diag.Syntaxf(p.loc(), "expected an identifier, found %q", p.cur().Text)
}

// spanOf builds a source span covering [start, end] inclusive.
func spanOf(start, end lexer.Token) ast.SrcInfo {
	return ast.SrcInfo{
		File:  start.File,
		Start: ast.LineCol{Line: start.Line, Col: start.Column},
		End:   ast.LineCol{Line: end.Line, Col: end.Column},
	}
}
