// Package design implements the Design IR: a cyclic bipartite graph of
// Nodes and Primitives connected only through stable integer handles,
// never pointers, so the graph can be mutated (removed, reconnected)
// without invalidating anything but the handles that point directly at
// the removed entry.
package design

import "planar/internal/core"

// PortRefKind tags which variant of PortRef is populated.
type PortRefKind int

const (
	PortTopLevel PortRefKind = iota
	PortOnPrim
)

// PortRef identifies either an external module I/O port or a named port
// on a primitive instance. It's the value stored at both ends of a
// connection: a Node's Driver, and an entry in a Node's Users store.
type PortRef struct {
	Kind PortRefKind
	Name core.Name              // PortTopLevel: the external port name
	Prim core.Index[Primitive]  // PortOnPrim: the primitive instance
	Port core.Name              // PortOnPrim: the port name on that primitive
}

func TopLevelPort(name core.Name) PortRef {
	return PortRef{Kind: PortTopLevel, Name: name}
}

func PrimPort(prim core.Index[Primitive], port core.Name) PortRef {
	return PortRef{Kind: PortOnPrim, Prim: prim, Port: port}
}

// Node is a single wire in the design: it carries an operand type and
// knows exactly one driver (what sources it) and a set of users (what
// reads it). Nodes double as top-level module ports when IsInput or
// IsOutput is set.
type Node struct {
	name  core.Name
	index core.Index[Node]

	Type core.OperandType

	HasReady bool
	HasValid bool
	IsInput  bool
	IsOutput bool

	// Delay and Latency are advisory timing attributes a backend may
	// consult; nil means "unspecified", not "zero".
	Delay   *uint64
	Latency *uint32

	Driver PortRef
	Users  *core.Store[PortRef]
}

func newNode(ty core.OperandType, driver PortRef) *Node {
	return &Node{Type: ty, Driver: driver, Users: core.NewStore[PortRef]()}
}

func (n *Node) Name() core.Name                { return n.name }
func (n *Node) SetName(name core.Name)         { n.name = name }
func (n *Node) SetIndex(idx core.Index[Node])  { n.index = idx }
func (n *Node) Index() core.Index[Node]        { return n.index }
