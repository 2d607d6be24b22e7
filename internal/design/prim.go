package design

import "planar/internal/core"

// PrimitiveKind tags which variant of PrimitiveType a Primitive holds.
type PrimitiveKind int

const (
	PrimBasicOp PrimitiveKind = iota
	PrimSpecOp
	PrimReg
	// PrimConst is a nullary constant generator: its single output node
	// carries the bit vector stashed in Attrs under constValueAttr. The
	// reference primitive enum this is grounded on (SpecialOperation /
	// BasicOperation / Register) has no constant-source variant of its
	// own; add_const's "fresh constant primitive" wording in the mutation
	// API is otherwise unimplementable, so this kind supplements it.
	PrimConst
	// PrimCond implements the conditional-merge primitive the elaborator
	// instantiates on every non-constant assignment: inputs "A" (old
	// value), "B" (new value), and "S0".."Sk-1" (condition bits), output
	// "Q". InvMask bit i inverts condition input i before the AND-reduce
	// that selects B over A.
	PrimCond
)

// SpecialOpKind enumerates the non-arithmetic primitive behaviors: muxes,
// array/bit-slice read and write, and masked array-store comparisons.
type SpecialOpKind int

const (
	SpecMux SpecialOpKind = iota
	SpecSetIfEq
	SpecSliceGetFix
	SpecSliceGetVar
	SpecSliceSetFix
	SpecSliceSetVar
)

// SpecialOperation carries the kind-specific parameters alongside
// SpecMux/SpecSetIfEq/etc.
type SpecialOperation struct {
	Kind SpecialOpKind

	MuxWays  int            // SpecMux
	Pattern  core.BitVector // SpecSetIfEq
	Offset   int            // SliceGetFix / SliceSetFix
	Step     int            // SliceGetVar / SliceSetVar
	Width    int            // all slice kinds
}

// RegisterKind enumerates the register flavors a sequential primitive
// can be.
type RegisterKind int

const (
	RegDelay RegisterKind = iota
	RegStorage
	RegPipeline
)

// Register carries the kind-specific parameter for RegDelay.
type Register struct {
	Kind  RegisterKind
	Delay int // RegDelay: number of cycles
}

// PrimitiveType is a tagged union over every primitive flavor the
// Design IR understands: basic operators (reused from core.BasicOp so
// constant folding and hardware instantiation agree on result-type
// rules), special operations, registers, constants and conditional
// merges.
type PrimitiveType struct {
	Kind    PrimitiveKind
	BasicOp core.BasicOp
	SpecOp  SpecialOperation
	Reg     Register
	InvMask uint64 // PrimCond: per-condition-input inversion bits
}

const constValueAttr = "$const_value"

// Primitive is one instance of a PrimitiveType: named, with attribute
// constants and a fixed-name port map to Node handles on both the input
// and output side.
type Primitive struct {
	name  core.Name
	index core.Index[Primitive]

	Type   PrimitiveType
	Attrs  map[core.Name]core.Constant
	Inputs map[core.Name]core.Index[Node]

	// Outputs maps a port name to the node it drives. remove_prim
	// requires this to be empty (every output node already removed)
	// before the primitive itself can go.
	Outputs map[core.Name]core.Index[Node]
}

func newPrimitive(ty PrimitiveType) *Primitive {
	return &Primitive{
		Type:    ty,
		Attrs:   make(map[core.Name]core.Constant),
		Inputs:  make(map[core.Name]core.Index[Node]),
		Outputs: make(map[core.Name]core.Index[Node]),
	}
}

func (p *Primitive) Name() core.Name                  { return p.name }
func (p *Primitive) SetName(name core.Name)           { p.name = name }
func (p *Primitive) SetIndex(idx core.Index[Primitive]) { p.index = idx }
func (p *Primitive) Index() core.Index[Primitive]     { return p.index }
