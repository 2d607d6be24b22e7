package core

import "testing"

func TestInternIdempotent(t *testing.T) {
	in := NewInterner()
	a := in.ID("foo")
	b := in.ID("foo")
	if a != b {
		t.Fatalf("ID(foo) returned different handles: %v vs %v", a, b)
	}
	if got := in.Str(a); got != "foo" {
		t.Fatalf("Str(id(foo)) = %q, want foo", got)
	}
}

func TestInternEmptyStringAtZero(t *testing.T) {
	in := NewInterner()
	if in.Str(NoName) != "" {
		t.Fatalf("slot 0 = %q, want empty string", in.Str(NoName))
	}
}

func TestInternLookup(t *testing.T) {
	in := NewInterner()
	foo := in.ID("foo")
	bar := in.ID("bar")
	if got, ok := in.Lookup("foo"); !ok || got != foo {
		t.Fatalf("Lookup(foo) = (%v, %v), want (%v, true)", got, ok, foo)
	}
	if _, ok := in.Lookup("xyz"); ok {
		t.Fatal("Lookup(xyz) should not be found")
	}
	_ = bar
}

func TestSeedReserved(t *testing.T) {
	in := NewInterner()
	SeedReserved(in)
	if got := in.Str(KwIf); got != "if" {
		t.Fatalf("KwIf resolves to %q, want if", got)
	}
	if !IsKeyword(KwIf) {
		t.Fatal("KwIf should be a keyword")
	}
	if IsKeyword(in.ID("not_a_keyword")) {
		t.Fatal("arbitrary identifier should not be a keyword")
	}
	if got := in.Str(PortA); got != "A" {
		t.Fatalf("PortA resolves to %q, want A", got)
	}
}
