// Package diag implements the diagnostic type every stage of the front
// end returns on failure: a typed, source-located error that can embed
// interned names without needing the string pool threaded through every
// call that might fail.
package diag

import (
	"fmt"
	"strings"

	"planar/internal/core"
)

// Kind classifies a diagnostic per the error taxonomy: lexical and
// syntactic errors from the scanner/parser, three flavors of semantic
// error from the elaborator, and a catch-all for recognized-but-not-yet-
// elaborated constructs.
type Kind string

const (
	Lexical        Kind = "lexical"
	Syntactic      Kind = "syntactic"
	Resolution     Kind = "resolution"
	TypeMismatch   Kind = "type"
	Constness      Kind = "constness"
	NotImplemented Kind = "not-implemented"
)

// Location is a source position: a file name (itself an interned name,
// so it round-trips through the same placeholder scheme) and a 1-based
// line/column.
type Location struct {
	File   core.Name
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is a typed, source-located error. Message may contain
// `` `N` `` placeholders, one per interned core.Name the message wants
// to mention; Render substitutes them once a string pool is available.
type Diagnostic struct {
	Kind     Kind
	Message  string
	Location Location
	Notes    []string
}

func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", d.Location, d.Kind, d.Message)
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n  note: %s", n)
	}
	return b.String()
}

// Render substitutes every `` `N` `` placeholder in the diagnostic's
// location (its file name), message and notes with the string the
// interner holds at index N. This
// is the "final rendering pass" mentioned as a deferred step: elaboration
// can produce diagnostics that mention identifiers without having to
// pass the interner into every evaluation function.
func (d *Diagnostic) Render(in *core.Interner) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", renderPlaceholders(d.Location.String(), in), d.Kind, renderPlaceholders(d.Message, in))
	for _, n := range d.Notes {
		fmt.Fprintf(&b, "\n  note: %s", renderPlaceholders(n, in))
	}
	return b.String()
}

// renderPlaceholders walks s looking for `` `digits` `` runs and replaces
// each with the interner's string at that index, leaving anything else
// untouched.
func renderPlaceholders(s string, in *core.Interner) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] != '`' {
			b.WriteByte(s[i])
			i++
			continue
		}
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > i+1 && j < len(s) && s[j] == '`' {
			var idx uint32
			fmt.Sscanf(s[i+1:j], "%d", &idx)
			b.WriteString(in.Str(core.Name(idx)))
			i = j + 1
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// New builds a diagnostic at loc. Use fmt.Sprintf("...%s...", name) with
// name.String() (which already yields the `` `N` `` form) to embed
// interned names in msg without needing an interner in scope.
func New(kind Kind, loc Location, format string, args ...any) *Diagnostic {
	return &Diagnostic{Kind: kind, Message: fmt.Sprintf(format, args...), Location: loc}
}

// WithNote appends an explanatory note, mirroring the teacher's
// WithSource/AddStackFrame chaining style for building up a diagnostic
// incrementally.
func (d *Diagnostic) WithNote(format string, args ...any) *Diagnostic {
	d.Notes = append(d.Notes, fmt.Sprintf(format, args...))
	return d
}

// Lexf, Syntaxf, Resolutionf, Typef, Constnessf, NotImplementedf are
// terse constructors for the common case of a one-line diagnostic with
// no notes, named after the taxonomy category they produce.
func Lexf(loc Location, format string, args ...any) *Diagnostic {
	return New(Lexical, loc, format, args...)
}

func Syntaxf(loc Location, format string, args ...any) *Diagnostic {
	return New(Syntactic, loc, format, args...)
}

func Resolutionf(loc Location, format string, args ...any) *Diagnostic {
	return New(Resolution, loc, format, args...)
}

func Typef(loc Location, format string, args ...any) *Diagnostic {
	return New(TypeMismatch, loc, format, args...)
}

func Constnessf(loc Location, format string, args ...any) *Diagnostic {
	return New(Constness, loc, format, args...)
}

func NotImplementedf(loc Location, format string, args ...any) *Diagnostic {
	return New(NotImplemented, loc, format, args...)
}
