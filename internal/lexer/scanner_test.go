package lexer

import (
	"testing"

	"planar/internal/core"
	"planar/internal/diag"
)

func scanAll(t *testing.T, src string) ([]Token, *core.Interner) {
	t.Helper()
	in := core.NewInterner()
	core.SeedReserved(in)
	s := New(in, src, "test.pla")
	toks, err := s.ScanTokens()
	if err != nil {
		t.Fatalf("ScanTokens(%q): %s", src, err.Message)
	}
	return toks, in
}

// Scenario 1: "1234 0x1234 0b101010 0o1234" produces four integer-
// literal tokens with widths 64, 16, 6, 12 and values 1234, 0x1234,
// 0b101010, 0o1234.
func TestLexIntegerBases(t *testing.T) {
	toks, _ := scanAll(t, "1234 0x1234 0b101010 0o1234")

	// ScanTokens appends a trailing EOF; strip it for the length check.
	if n := len(toks); n != 0 && toks[n-1].Kind == EOF {
		toks = toks[:n-1]
	}
	if len(toks) != 4 {
		t.Fatalf("got %d tokens, want 4: %#v", len(toks), toks)
	}

	want := []struct {
		width int
		value uint64
	}{
		{64, 1234},
		{16, 0x1234},
		{6, 0b101010},
		{12, 0o1234},
	}
	for i, w := range want {
		tok := toks[i]
		if tok.Kind != IntLiteral {
			t.Fatalf("token %d: kind = %v, want IntLiteral", i, tok.Kind)
		}
		if got := tok.Int.Len(); got != w.width {
			t.Errorf("token %d: width = %d, want %d", i, got, w.width)
		}
		got, ok := tok.Int.AsDefU64()
		if !ok {
			t.Fatalf("token %d: value has undefined bits", i)
		}
		if got != w.value {
			t.Errorf("token %d: value = %d, want %d", i, got, w.value)
		}
	}
}

// "0b1234" is a lexical error: '2','3','4' are not valid binary digits.
func TestLexInvalidBinaryDigit(t *testing.T) {
	in := core.NewInterner()
	core.SeedReserved(in)
	s := New(in, "0b1234", "test.pla")
	if _, err := s.ScanTokens(); err == nil {
		t.Fatal("want a lexical error for 0b1234, got none")
	}
}

// A leading 0 followed by an ordinary digit (no base letter) is
// rejected to avoid C-style octal ambiguity.
func TestLexLeadingZeroAmbiguity(t *testing.T) {
	in := core.NewInterner()
	core.SeedReserved(in)
	s := New(in, "0123", "test.pla")
	_, err := s.ScanTokens()
	if err == nil {
		t.Fatal("want a lexical error for 0123, got none")
	}
	if err.Kind != diag.Lexical {
		t.Errorf("error kind = %v, want lexical", err.Kind)
	}
}

func TestLexDigitSeparators(t *testing.T) {
	toks, _ := scanAll(t, "1_000_000")
	if toks[0].Kind != IntLiteral {
		t.Fatalf("kind = %v, want IntLiteral", toks[0].Kind)
	}
	got, ok := toks[0].Int.AsDefU64()
	if !ok || got != 1000000 {
		t.Errorf("value = %d (ok=%v), want 1000000", got, ok)
	}
}

func TestLexKeywordVsIdentifier(t *testing.T) {
	toks, in := scanAll(t, "if else my_var")
	if toks[0].Kind != Keyword || in.Str(toks[0].Name) != "if" {
		t.Errorf("token 0 = %#v, want keyword 'if'", toks[0])
	}
	if toks[1].Kind != Keyword || in.Str(toks[1].Name) != "else" {
		t.Errorf("token 1 = %#v, want keyword 'else'", toks[1])
	}
	if toks[2].Kind != Ident || in.Str(toks[2].Name) != "my_var" {
		t.Errorf("token 2 = %#v, want identifier 'my_var'", toks[2])
	}
}

// Symbols are matched longest-first: "<<=" must not split into "<<"
// followed by "=".
func TestLexLongestSymbolMatch(t *testing.T) {
	toks, _ := scanAll(t, "a <<= b")
	var syms []string
	for _, tok := range toks {
		if tok.Kind == Symbol {
			syms = append(syms, tok.Text)
		}
	}
	if len(syms) != 1 || syms[0] != "<<=" {
		t.Fatalf("symbols = %v, want [\"<<=\"]", syms)
	}
}

func TestLexLineColumnTracking(t *testing.T) {
	toks, _ := scanAll(t, "a\nbb")
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Errorf("token 0 loc = %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 1 {
		t.Errorf("token 1 loc = %d:%d, want 2:1", toks[1].Line, toks[1].Column)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	in := core.NewInterner()
	core.SeedReserved(in)
	s := New(in, `"hello`, "test.pla")
	if _, err := s.ScanTokens(); err == nil {
		t.Fatal("want a lexical error for an unterminated string, got none")
	}
}
