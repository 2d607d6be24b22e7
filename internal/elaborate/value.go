package elaborate

import (
	"planar/internal/core"
	"planar/internal/design"
)

// ValueKind tags which variant a Value holds.
type ValueKind int

const (
	VVoid ValueKind = iota
	VConstant
	VNode
	VStructure
	VArray
	VFunc
)

// StructureValue is a structure instance: a name→Value map tagged with
// the resolved structure key it was built from.
type StructureValue struct {
	Type   ResolvedKey
	Values map[core.Name]Value
}

// Value is the elaborator's compile-time value representation: either
// fully known (Void, a constant bit vector), a handle into the Design
// being built (Node), or a composite of other Values (Structure, Array).
// VFunc is a forward reference to an as-yet-uncalled function; the
// elaborator in this module never materializes one (see eval.go).
type Value struct {
	Kind   ValueKind
	Const  core.BitVector
	Node   core.Index[design.Node]
	Struct StructureValue
	Array  []Value
}

func VoidValue() Value                       { return Value{Kind: VVoid} }
func ConstValue(bv core.BitVector) Value      { return Value{Kind: VConstant, Const: bv} }
func NodeValue(n core.Index[design.Node]) Value { return Value{Kind: VNode, Node: n} }

// IsScalar reports whether v is directly usable as an operator operand:
// a constant or a node, never a composite.
func (v Value) IsScalar() bool {
	return v.Kind == VConstant || v.Kind == VNode
}

// IsFullyConst reports whether v, and everything nested inside it, is a
// compile-time constant.
func (v Value) IsFullyConst() bool {
	switch v.Kind {
	case VConstant:
		return true
	case VArray:
		for _, e := range v.Array {
			if !e.IsFullyConst() {
				return false
			}
		}
		return true
	case VStructure:
		for _, e := range v.Struct.Values {
			if !e.IsFullyConst() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Variable is a named, typed slot in the elaborator's variable store.
type Variable struct {
	name  core.Name
	index core.Index[Variable]

	Type  ResolvedType
	Value Value
}

func (v *Variable) Name() core.Name                   { return v.name }
func (v *Variable) SetName(n core.Name)                { v.name = n }
func (v *Variable) SetIndex(idx core.Index[Variable]) { v.index = idx }

// PathItemKind tags which variant a ValuePathItem holds.
type PathItemKind int

const (
	PathConstIndex PathItemKind = iota
	PathVarIndex
	PathMember
)

// ValuePathItem is one step into a composite value: a compile-time array
// index, a run-time (node-valued) array index, or a structure member
// name.
type ValuePathItem struct {
	Kind      PathItemKind
	ConstIdx  int
	VarIdx    core.Index[design.Node]
	Member    core.Name
}

// ValuePath is a full address within a composite value.
type ValuePath []ValuePathItem

// LValue is an assignable location: a variable plus a path into its
// current value.
type LValue struct {
	Var  core.Index[Variable]
	Path ValuePath
}

// GetPath navigates v along path, returning the leaf value. Only
// constant-index steps are supported here: indexing by a run-time node
// value requires materializing an array-read primitive, which is one of
// the lowering features this elaborator does not yet implement (see
// eval.go's handling of ArrayAccessExpr).
func GetPath(v Value, path ValuePath) (Value, bool) {
	cur := v
	for _, item := range path {
		switch item.Kind {
		case PathConstIndex:
			if cur.Kind != VArray || item.ConstIdx < 0 || item.ConstIdx >= len(cur.Array) {
				return Value{}, false
			}
			cur = cur.Array[item.ConstIdx]
		case PathMember:
			if cur.Kind != VStructure {
				return Value{}, false
			}
			m, ok := cur.Struct.Values[item.Member]
			if !ok {
				return Value{}, false
			}
			cur = m
		default:
			return Value{}, false
		}
	}
	return cur, true
}

// SetPath replaces the leaf at path inside v with leaf, allocating
// intermediate array/structure slots as needed, and returns the updated
// top-level value.
func SetPath(v Value, path ValuePath, leaf Value) Value {
	if len(path) == 0 {
		return leaf
	}
	item := path[0]
	switch item.Kind {
	case PathConstIndex:
		arr := append([]Value(nil), v.Array...)
		for len(arr) <= item.ConstIdx {
			arr = append(arr, VoidValue())
		}
		arr[item.ConstIdx] = SetPath(arr[item.ConstIdx], path[1:], leaf)
		return Value{Kind: VArray, Array: arr}
	case PathMember:
		values := make(map[core.Name]Value, len(v.Struct.Values))
		for k, val := range v.Struct.Values {
			values[k] = val
		}
		values[item.Member] = SetPath(values[item.Member], path[1:], leaf)
		return Value{Kind: VStructure, Struct: StructureValue{Type: v.Struct.Type, Values: values}}
	default:
		return v
	}
}
