package diag

import (
	"strings"
	"testing"

	"planar/internal/core"
)

func TestRenderSubstitutesPlaceholders(t *testing.T) {
	in := core.NewInterner()
	foo := in.ID("foo")

	loc := Location{File: in.ID("test.hdl"), Line: 3, Column: 7}
	d := Resolutionf(loc, "unknown identifier %s", foo.String())

	rendered := d.Render(in)
	if !strings.Contains(rendered, "unknown identifier foo") {
		t.Fatalf("Render() = %q, want it to contain %q", rendered, "unknown identifier foo")
	}
	if strings.Contains(rendered, "`") {
		t.Fatalf("Render() left a raw placeholder: %q", rendered)
	}
}

func TestErrorWithoutRenderKeepsPlaceholder(t *testing.T) {
	in := core.NewInterner()
	foo := in.ID("foo")
	loc := Location{File: in.ID("test.hdl"), Line: 1, Column: 1}
	d := Resolutionf(loc, "unknown identifier %s", foo.String())

	if !strings.Contains(d.Error(), "`"+itoa(uint32(foo))+"`") {
		t.Fatalf("Error() = %q, want a raw `N` placeholder for an unrendered name", d.Error())
	}
}

func TestWithNote(t *testing.T) {
	loc := Location{Line: 1, Column: 1}
	d := Syntaxf(loc, "unexpected token").WithNote("expected one of: %s", "if, for, return")
	if len(d.Notes) != 1 {
		t.Fatalf("len(Notes) = %d, want 1", len(d.Notes))
	}
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
