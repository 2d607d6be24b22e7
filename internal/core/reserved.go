package core

// Reserved names are interned at deterministic indices immediately after
// the empty string at index 0, so compiled-in constants (keywords,
// built-in port names) can refer to them without a lookup. This mirrors
// the teacher's constids! macro: a fixed ordered list seeded once at
// start-up, with named constants exposing their index.
// "long" is not in the distilled spec's section-6 reserved-name list, but
// 4.2's C-style integral specifier grammar ("char/short/int/long
// selecting 8/16/32/64") requires it as a keyword; added here rather
// than silently falling back to treating it as a plain identifier.
var reservedKeywords = []string{
	"void", "int", "short", "char", "string", "signed", "unsigned",
	"auto", "auto_int", "operator", "typename", "template", "namespace",
	"typedef", "using", "struct", "enum", "union", "if", "else", "for",
	"while", "multicycle", "meta", "break", "continue", "return",
	"sizeof", "block", "static_cast", "const", "static", "long",
}

var reservedPortNames = []string{"A", "B", "Q"}

// Keyword handles, fixed once SeedReserved has run against an Interner.
var (
	KwVoid       Name
	KwInt        Name
	KwShort      Name
	KwChar       Name
	KwString     Name
	KwSigned     Name
	KwUnsigned   Name
	KwAuto       Name
	KwAutoInt    Name
	KwOperator   Name
	KwTypename   Name
	KwTemplate   Name
	KwNamespace  Name
	KwTypedef    Name
	KwUsing      Name
	KwStruct     Name
	KwEnum       Name
	KwUnion      Name
	KwIf         Name
	KwElse       Name
	KwFor        Name
	KwWhile      Name
	KwMulticycle Name
	KwMeta       Name
	KwBreak      Name
	KwContinue   Name
	KwReturn     Name
	KwSizeof     Name
	KwBlock      Name
	KwStaticCast Name
	KwConst      Name
	KwStatic     Name
	KwLong       Name

	PortA Name
	PortB Name
	PortQ Name
)

var keywordSlots = []*Name{
	&KwVoid, &KwInt, &KwShort, &KwChar, &KwString, &KwSigned, &KwUnsigned,
	&KwAuto, &KwAutoInt, &KwOperator, &KwTypename, &KwTemplate, &KwNamespace,
	&KwTypedef, &KwUsing, &KwStruct, &KwEnum, &KwUnion, &KwIf, &KwElse, &KwFor,
	&KwWhile, &KwMulticycle, &KwMeta, &KwBreak, &KwContinue, &KwReturn,
	&KwSizeof, &KwBlock, &KwStaticCast, &KwConst, &KwStatic, &KwLong,
}

var portSlots = []*Name{&PortA, &PortB, &PortQ}

// keywordSet is populated by SeedReserved and used by the lexer to
// classify an identifier-shaped token as a keyword.
var keywordSet map[Name]bool

// SeedReserved interns the fixed keyword and built-in port name table at
// deterministic indices and populates the package-level Kw*/Port*
// constants. It must be called exactly once per process against the
// Interner that will be used for the rest of the pipeline (tests each
// construct their own Interner and call this once).
func SeedReserved(in *Interner) {
	for i, s := range reservedKeywords {
		n := in.intern(s)
		*keywordSlots[i] = n
	}
	for i, s := range reservedPortNames {
		n := in.intern(s)
		*portSlots[i] = n
	}
	keywordSet = make(map[Name]bool, len(reservedKeywords))
	for _, slot := range keywordSlots {
		keywordSet[*slot] = true
	}
}

// IsKeyword reports whether n names one of the reserved keywords.
func IsKeyword(n Name) bool {
	return keywordSet[n]
}

// CondPortName synthesizes the S0, S1, ... port names used for
// conditional-merge fan-in; generated on demand rather than pre-seeded
// since the count is unbounded (nesting depth dependent).
func CondPortName(in *Interner, i int) Name {
	return in.ID("S" + itoa(uint32(i)))
}
