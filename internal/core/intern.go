package core

// Name is an interned string handle. Zero is reserved to mean "none" —
// the pool always seeds slot 0 with the empty string so the zero value
// of Name is meaningful without any special-casing at call sites.
type Name uint32

// NoName is the reserved "absent name" handle.
const NoName Name = 0

func (n Name) String() string {
	// We deliberately cannot resolve to the real text here: rendering a
	// Name requires the Interner it came from, and threading that
	// through every fmt call would defeat the point of interning.
	// Diagnostics instead carry a `N`-style placeholder (see diag) that
	// a final presentation pass substitutes.
	return placeholder(uint32(n))
}

func placeholder(n uint32) string {
	return "`" + itoa(n) + "`"
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

// Interner is the global append-only string pool. Handles never change
// meaning once assigned, so an Interner may be shared freely by value of
// its pointer across the lexer, parser and elaborator.
type Interner struct {
	strs    []string
	byValue map[string]Name
}

// NewInterner returns a pool with slot 0 pre-seeded as the empty string.
func NewInterner() *Interner {
	in := &Interner{
		strs:    make([]string, 0, 64),
		byValue: make(map[string]Name, 64),
	}
	in.intern("")
	return in
}

func (in *Interner) intern(s string) Name {
	if n, ok := in.byValue[s]; ok {
		return n
	}
	n := Name(len(in.strs))
	in.strs = append(in.strs, s)
	in.byValue[s] = n
	return n
}

// ID interns s, returning its (possibly pre-existing) handle.
func (in *Interner) ID(s string) Name {
	return in.intern(s)
}

// Lookup returns the handle for s without inserting it.
func (in *Interner) Lookup(s string) (Name, bool) {
	n, ok := in.byValue[s]
	return n, ok
}

// Str resolves n back to its text. Panics on an out-of-range handle,
// which can only happen from a handle minted by a different Interner.
func (in *Interner) Str(n Name) string {
	return in.strs[n]
}

// Len reports how many distinct strings have been interned, including
// the empty string at index 0.
func (in *Interner) Len() int { return len(in.strs) }

// SeedAt interns s and asserts it lands at the given index — used during
// start-up to lock down the reserved keyword/port-name table at
// deterministic indices so compiled-in constants can reference them
// without a map lookup.
func (in *Interner) SeedAt(s string, want Name) {
	got := in.intern(s)
	if got != want {
		panic("core.Interner: reserved name " + s + " seeded at unexpected index")
	}
}
