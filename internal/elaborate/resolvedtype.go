package elaborate

import (
	"fmt"

	"planar/internal/ast"
	"planar/internal/core"
	"planar/internal/diag"
)

// ResolvedKind tags which variant a ResolvedType holds.
type ResolvedKind int

const (
	ResVoid ResolvedKind = iota
	ResInteger
	ResAutoInt
	ResReference
	ResArray
	ResStruct
)

// ResolvedKey names a function or structure instantiated with a specific
// set of resolved template arguments — the cache key derived types are
// stored under.
type ResolvedKey struct {
	Name     core.Name
	TemplArg string // stable string encoding of resolved template args
}

// ResolvedType is a DataType with every width/signedness expression
// constant-evaluated away, tagged by ResolvedKind.
type ResolvedType struct {
	Kind     ResolvedKind
	IsConst  bool
	IsStatic bool

	Integer   core.OperandType // ResInteger
	Reference *ResolvedType    // ResReference
	ArrayElem *ResolvedType    // ResArray
	ArrayLen  int              // ResArray
	Struct    ResolvedKey      // ResStruct
}

func Void() ResolvedType { return ResolvedType{Kind: ResVoid, IsConst: true} }

func Integer(t core.OperandType) ResolvedType {
	return ResolvedType{Kind: ResInteger, IsConst: true, Integer: t}
}

// Merge combines a and b into their common supertype, per the merge
// rules in the elaborator component: void absorbs into the other,
// integers merge via core.Merge, references merge componentwise, arrays
// take the element-wise merge with the larger length, identical struct
// keys merge to themselves, anything else fails.
func Merge(a, b ResolvedType, loc diag.Location) (ResolvedType, error) {
	if a.Kind == ResVoid {
		return b, nil
	}
	if b.Kind == ResVoid {
		return a, nil
	}
	if a.Kind != b.Kind {
		return ResolvedType{}, diag.Typef(loc, "cannot merge incompatible types")
	}
	switch a.Kind {
	case ResInteger:
		return Integer(core.Merge(a.Integer, b.Integer)), nil
	case ResReference:
		inner, err := Merge(*a.Reference, *b.Reference, loc)
		if err != nil {
			return ResolvedType{}, err
		}
		return ResolvedType{Kind: ResReference, IsConst: true, Reference: &inner}, nil
	case ResArray:
		elem, err := Merge(*a.ArrayElem, *b.ArrayElem, loc)
		if err != nil {
			return ResolvedType{}, err
		}
		n := a.ArrayLen
		if b.ArrayLen > n {
			n = b.ArrayLen
		}
		return ResolvedType{Kind: ResArray, IsConst: true, ArrayElem: &elem, ArrayLen: n}, nil
	case ResStruct:
		if a.Struct == b.Struct {
			return a, nil
		}
		return ResolvedType{}, diag.Typef(loc, "cannot merge distinct structure types")
	default:
		return ResolvedType{}, diag.Typef(loc, "cannot merge these types")
	}
}

// resolver is the subset of Eval that type resolution needs: constant
// evaluation of width/signedness expressions under the current scope.
type resolver interface {
	ConstEvalScalar(e ast.Expr) (core.BitVector, error)
	Location(e ast.Expr) diag.Location
}

// Resolve turns a parsed DataType into a ResolvedType by constant-
// evaluating any width/signedness sub-expressions under the current
// scope.
func Resolve(r resolver, t *ast.DataType) (ResolvedType, error) {
	rt := ResolvedType{IsConst: t.IsConst, IsStatic: t.IsStatic}
	switch t.Kind {
	case ast.TypeVoid:
		rt.Kind = ResVoid
	case ast.TypeAutoInt:
		rt.Kind = ResAutoInt
	case ast.TypeInteger:
		widthBV, err := r.ConstEvalScalar(t.Integer.Width)
		if err != nil {
			return ResolvedType{}, err
		}
		width, ok := widthBV.AsDefU64()
		if !ok {
			return ResolvedType{}, diag.Constnessf(r.Location(t.Integer.Width), "integer width must be a fully-defined constant")
		}
		signedBV, err := r.ConstEvalScalar(t.Integer.IsSigned)
		if err != nil {
			return ResolvedType{}, err
		}
		signed, _ := signedBV.AsDefU64()
		rt.Kind = ResInteger
		rt.Integer = core.OperandType{Width: int(width), IsSigned: signed != 0}
	case ast.TypeReference:
		inner, err := Resolve(r, t.Reference)
		if err != nil {
			return ResolvedType{}, err
		}
		rt.Kind = ResReference
		rt.Reference = &inner
	case ast.TypeArray:
		base, err := Resolve(r, t.Array.Base)
		if err != nil {
			return ResolvedType{}, err
		}
		cur := base
		for i := len(t.Array.Dims) - 1; i >= 0; i-- {
			dimBV, err := r.ConstEvalScalar(t.Array.Dims[i])
			if err != nil {
				return ResolvedType{}, err
			}
			n, _ := dimBV.AsDefU64()
			elem := cur
			cur = ResolvedType{Kind: ResArray, IsConst: true, ArrayElem: &elem, ArrayLen: int(n)}
		}
		return cur, nil
	default:
		return ResolvedType{}, diag.NotImplementedf(r.Location(nil), fmt.Sprintf("data type kind %d not yet resolvable", t.Kind))
	}
	return rt, nil
}
