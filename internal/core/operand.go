package core

// OperandType is the (width, is_signed) pair attached to nodes and to
// operator results.
type OperandType struct {
	Width    int
	IsSigned bool
}

// Bool is the canonical 1-bit unsigned operand type produced by
// comparisons and logical operators.
var Bool = OperandType{Width: 1, IsSigned: false}

func extraBit(a, b OperandType) int {
	if a.IsSigned != b.IsSigned {
		return 1
	}
	return 0
}

// Merge widens to max(a,b)+1 if signedness differs, OR's the
// signedness flags. This rule underlies every basic operator's result
// type as well as resolved-type merging during initializer typing.
func Merge(a, b OperandType) OperandType {
	w := a.Width
	if b.Width > w {
		w = b.Width
	}
	return OperandType{
		Width:    w + extraBit(a, b),
		IsSigned: a.IsSigned || b.IsSigned,
	}
}

// Extend returns the type widened by add bits, signedness unchanged.
func (t OperandType) Extend(add int) OperandType {
	return OperandType{Width: t.Width + add, IsSigned: t.IsSigned}
}

// BasicOp enumerates the fixed set of scalar operators.
type BasicOp int

const (
	OpAdd BasicOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpEq
	OpNeq
	OpGt
	OpLt
	OpGtEq
	OpLtEq
	OpShl
	OpShr
	OpBwAnd
	OpBwOr
	OpBwXor
	OpBwNot
	OpLogAnd
	OpLogOr
	OpLogNot
	OpLogCast
)

var basicOpNames = map[BasicOp]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%", OpNeg: "neg",
	OpEq: "==", OpNeq: "!=", OpGt: ">", OpLt: "<", OpGtEq: ">=", OpLtEq: "<=",
	OpShl: "<<", OpShr: ">>", OpBwAnd: "&", OpBwOr: "|", OpBwXor: "^", OpBwNot: "~",
	OpLogAnd: "&&", OpLogOr: "||", OpLogNot: "!", OpLogCast: "(bool)",
}

func (op BasicOp) String() string { return basicOpNames[op] }

// ResultType computes the compile-time result type of op applied to
// operand types t (one entry per operand, in order).
func (op BasicOp) ResultType(t []OperandType) OperandType {
	switch op {
	case OpAdd, OpSub:
		return Merge(t[0], t[1]).Extend(1)
	case OpMul:
		return OperandType{Width: t[0].Width + t[1].Width + extraBit(t[0], t[1]), IsSigned: t[0].IsSigned || t[1].IsSigned}
	case OpDiv:
		return OperandType{Width: t[0].Width + extraBit(t[0], t[1]), IsSigned: t[0].IsSigned || t[1].IsSigned}
	case OpMod:
		return OperandType{Width: t[1].Width + extraBit(t[0], t[1]), IsSigned: t[0].IsSigned || t[1].IsSigned}
	case OpNeg:
		return OperandType{Width: t[0].Width + 1, IsSigned: true}
	case OpEq, OpNeq, OpGt, OpLt, OpGtEq, OpLtEq:
		return Bool
	case OpShl, OpShr:
		return t[0]
	case OpBwAnd, OpBwOr, OpBwXor:
		return Merge(t[0], t[1])
	case OpBwNot:
		return t[0]
	case OpLogAnd, OpLogOr, OpLogNot, OpLogCast:
		return Bool
	default:
		panic("core.BasicOp.ResultType: unhandled operator")
	}
}

// IsUnary reports whether op takes exactly one operand.
func (op BasicOp) IsUnary() bool {
	switch op {
	case OpNeg, OpBwNot, OpLogNot, OpLogCast:
		return true
	default:
		return false
	}
}

// Apply constant-folds op over its concrete operands, preserving
// undefinedness: any operand bit of x at a position that matters
// produces x in the corresponding result bit.
func (op BasicOp) Apply(operands []BitVector) BitVector {
	types := make([]OperandType, len(operands))
	for i, o := range operands {
		types[i] = o.OpType()
	}
	rt := op.ResultType(types)
	result := NewBitVector(rt.Width, rt.IsSigned)

	switch op {
	case OpAdd:
		carry := S0
		for i := 0; i < result.Len(); i++ {
			a := operands[0].GetExt(i)
			b := operands[1].GetExt(i)
			result.Set(i, a.Xor(b).Xor(carry))
			carry = a.And(b).Or(a.And(carry)).Or(b.And(carry))
		}
	case OpSub:
		// a - b == a + (~b) + 1
		notB := make([]State, operands[1].Len())
		for i := range notB {
			notB[i] = operands[1].GetExt(i).Not()
		}
		carry := S1
		for i := 0; i < result.Len(); i++ {
			a := operands[0].GetExt(i)
			var b State
			if i < len(notB) {
				b = notB[i]
			} else if operands[1].IsSigned() {
				b = notB[len(notB)-1]
			} else {
				b = S1
			}
			result.Set(i, a.Xor(b).Xor(carry))
			carry = a.And(b).Or(a.And(carry)).Or(b.And(carry))
		}
	case OpNeg:
		zero := NewBitVector(result.Len(), true)
		folded := OpSub.Apply([]BitVector{zero, extendTo(operands[0], result.Len())})
		result = folded
	case OpBwAnd:
		for i := 0; i < result.Len(); i++ {
			result.Set(i, operands[0].GetExt(i).And(operands[1].GetExt(i)))
		}
	case OpBwOr:
		for i := 0; i < result.Len(); i++ {
			result.Set(i, operands[0].GetExt(i).Or(operands[1].GetExt(i)))
		}
	case OpBwXor:
		for i := 0; i < result.Len(); i++ {
			result.Set(i, operands[0].GetExt(i).Xor(operands[1].GetExt(i)))
		}
	case OpBwNot:
		for i := 0; i < result.Len(); i++ {
			result.Set(i, operands[0].GetExt(i).Not())
		}
	case OpEq, OpNeq:
		width := operands[0].Len()
		if operands[1].Len() > width {
			width = operands[1].Len()
		}
		eq := S1
		for i := 0; i < width; i++ {
			bitEq := operands[0].GetExt(i).Xor(operands[1].GetExt(i)).Not()
			eq = eq.And(bitEq)
		}
		if op == OpNeq {
			eq = eq.Not()
		}
		result.Set(0, eq)
	case OpLogAnd:
		result.Set(0, reduceBool(operands[0]).And(reduceBool(operands[1])))
	case OpLogOr:
		result.Set(0, reduceBool(operands[0]).Or(reduceBool(operands[1])))
	case OpLogNot:
		result.Set(0, reduceBool(operands[0]).Not())
	case OpLogCast:
		result.Set(0, reduceBool(operands[0]))
	case OpGt, OpLt, OpGtEq, OpLtEq, OpMul, OpDiv, OpMod, OpShl, OpShr:
		panic("core.BasicOp.Apply: " + op.String() + " constant folding not implemented")
	default:
		panic("core.BasicOp.Apply: unhandled operator")
	}
	return result
}

// reduceBool ORs every bit of v together into a single boolean state,
// used for logical-and/or/not and the explicit cast-to-bool operator.
func reduceBool(v BitVector) State {
	acc := S0
	for i := 0; i < v.Len(); i++ {
		acc = acc.Or(v.GetExt(i))
	}
	return acc
}

func extendTo(v BitVector, width int) BitVector {
	out := NewBitVector(width, v.IsSigned())
	for i := 0; i < width; i++ {
		out.Set(i, v.GetExt(i))
	}
	return out
}
