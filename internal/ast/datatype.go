package ast

import (
	"fmt"
	"strings"

	"planar/internal/core"
)

// DataTypeKind tags which variant a DataType holds.
type DataTypeKind int

const (
	TypeVoid DataTypeKind = iota
	TypeAuto
	TypeAutoInt
	TypeTemplParam
	TypeScoped
	TypeInteger
	TypeUser
	TypeReference
	TypeFIFO
	TypeMemory
	TypeArray
)

// IntegerType is `int<Width, IsSigned>`, both of which may be compile-time
// expressions (template-parameterized width is the common case).
type IntegerType struct {
	Width    Expr
	IsSigned Expr
}

// TemplateValue is one bound template argument: either a value expression
// or a nested data type, depending on whether the parameter was declared
// as a value or a typename.
type TemplateValue struct {
	IsType bool
	Expr   Expr
	Type   *DataType
}

// UserType names a struct/interface, optionally instantiated with
// template arguments.
type UserType struct {
	Name core.Name
	Args []TemplateValue
}

// FIFOType and MemoryType both wrap a base element type with a depth
// expression; kept as distinct kinds since they lower to different
// primitives.
type FIFOType struct {
	Base  *DataType
	Depth Expr
}

type MemoryType struct {
	Base  *DataType
	Depth Expr
}

// ArrayType is a fixed-size array of Base, one dimension per entry in
// Dims (multi-dimensional arrays are nested one dimension at a time).
type ArrayType struct {
	Base *DataType
	Dims []Expr
}

// DataType is a tagged union over every spelling the type grammar
// accepts, plus the static/const qualifiers that apply uniformly to any
// of them.
type DataType struct {
	Kind     DataTypeKind
	IsStatic bool
	IsConst  bool

	TemplParam core.Name // TypeTemplParam
	ScopedBase *DataType // TypeScoped
	ScopedName core.Name // TypeScoped
	Integer    IntegerType
	User       UserType
	Reference  *DataType
	FIFO       FIFOType
	Memory     MemoryType
	Array      ArrayType
}

func (t *DataType) String() string {
	var b strings.Builder
	if t.IsStatic {
		b.WriteString("static ")
	}
	if t.IsConst {
		b.WriteString("const ")
	}
	switch t.Kind {
	case TypeVoid:
		b.WriteString("void")
	case TypeAuto:
		b.WriteString("auto")
	case TypeAutoInt:
		b.WriteString("auto_int")
	case TypeTemplParam:
		fmt.Fprintf(&b, "%s", t.TemplParam)
	case TypeScoped:
		fmt.Fprintf(&b, "%s::%s", t.ScopedBase, t.ScopedName)
	case TypeInteger:
		fmt.Fprintf(&b, "integer<%v, %v>", t.Integer.IsSigned, t.Integer.Width)
	case TypeUser:
		fmt.Fprintf(&b, "%s", t.User.Name)
		if len(t.User.Args) > 0 {
			b.WriteString("<...>")
		}
	case TypeReference:
		fmt.Fprintf(&b, "%s&", t.Reference)
	case TypeFIFO:
		fmt.Fprintf(&b, "fifo<%s>", t.FIFO.Base)
	case TypeMemory:
		fmt.Fprintf(&b, "memory<%s>", t.Memory.Base)
	case TypeArray:
		fmt.Fprintf(&b, "%s[]", t.Array.Base)
	}
	return b.String()
}

// TemplateArgKind distinguishes a value-typed template parameter from a
// typename parameter.
type TemplateArgKind int

const (
	TemplValue TemplateArgKind = iota
	TemplTypename
)

// TemplateArg is one entry in a template parameter list.
type TemplateArg struct {
	Name    core.Name
	Kind    TemplateArgKind
	ValType *DataType // TemplValue
	Default Expr      // TemplValue: default value expr; TemplTypename: unused
	DefType *DataType // TemplTypename: default type, if any
	Attrs   AttributeList
}
