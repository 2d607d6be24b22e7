package design

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"planar/internal/core"
)

// Design is one elaborated module: a named store of Nodes and a named
// store of Primitives, connected only through the Index handles each
// store hands out. Nothing in this package ever holds a Go pointer from
// one node/primitive into another — every cross-reference goes through
// Nodes/Prims, so removing an entry can never leave a dangling pointer,
// only a stale handle that the next lookup rejects.
type Design struct {
	Name    core.Name
	BuildID uuid.UUID

	Nodes *core.NamedStore[Node, *Node]
	Prims *core.NamedStore[Primitive, *Primitive]

	interner *core.Interner
	nextAnon uint64
}

// New creates an empty design named name. A fresh UUID is stamped on
// every build so two elaborations of the same module can be told apart
// in logs or golden-file diffs even when their IR is bit-for-bit
// identical.
func New(name core.Name, in *core.Interner) *Design {
	return &Design{
		Name:     name,
		BuildID:  uuid.New(),
		Nodes:    core.NewNamedStore[Node, *Node](),
		Prims:    core.NewNamedStore[Primitive, *Primitive](),
		interner: in,
	}
}

// Interner returns the string pool this Design's names were minted
// from, so a downstream consumer (the backend boundary, a lowering
// pass) can resolve a core.Name back to text or mint comparable names
// of its own without this package needing to export anything else
// about its internals.
func (d *Design) Interner() *core.Interner { return d.interner }

// anonName mints a fresh interned name of the form `prefix$N$`, the
// same `base${n}$` shape the elaborator uses for its synthesized names.
func (d *Design) anonName(prefix string) core.Name {
	n := d.nextAnon
	d.nextAnon++
	return d.interner.ID(fmt.Sprintf("%s$%d$", prefix, n))
}

// AddPrim registers a new primitive instance named name. Fails if that
// name is already in use.
func (d *Design) AddPrim(name core.Name, kind PrimitiveType) (core.Index[Primitive], error) {
	p := *newPrimitive(kind)
	p.SetName(name)
	return d.Prims.Add(p)
}

// AddNode creates a node of type ty, driven by the named output port of
// driverPrim, and simultaneously registers that port on the primitive
// (Outputs[driverPort] = the new node). Fails if name is taken or
// driverPrim does not exist.
func (d *Design) AddNode(name core.Name, ty core.OperandType, driverPrim core.Index[Primitive], driverPort core.Name) (core.Index[Node], error) {
	prim, ok := d.Prims.TryGet(driverPrim)
	if !ok {
		return core.Index[Node]{}, fmt.Errorf("add_node: no such primitive")
	}
	n := *newNode(ty, PrimPort(driverPrim, driverPort))
	n.SetName(name)
	idx, err := d.Nodes.Add(n)
	if err != nil {
		return core.Index[Node]{}, err
	}
	prim.Outputs[driverPort] = idx
	return idx, nil
}

// AddTopLevelNode is AddNode's counterpart for module I/O ports, which
// are driven by the environment rather than a primitive.
func (d *Design) AddTopLevelNode(name core.Name, ty core.OperandType, isInput, isOutput bool) (core.Index[Node], error) {
	n := *newNode(ty, TopLevelPort(name))
	n.IsInput = isInput
	n.IsOutput = isOutput
	n.SetName(name)
	return d.Nodes.Add(n)
}

// AddPrimInput wires node to the named input port of prim: the
// primitive becomes a registered user of node, and Inputs[portName] is
// set. Returns the handle of the new entry in node's Users store.
func (d *Design) AddPrimInput(prim core.Index[Primitive], portName core.Name, node core.Index[Node]) (core.Index[PortRef], error) {
	p := d.Prims.Get(prim)
	n := d.Nodes.Get(node)
	userIdx := n.Users.Add(PrimPort(prim, portName))
	p.Inputs[portName] = node
	return userIdx, nil
}

// AddConst allocates a fresh constant-generator primitive and a node
// fed by its single output, returning that node's handle.
func (d *Design) AddConst(value core.Constant) (core.Index[Node], error) {
	name := d.anonName("$const")
	primIdx, err := d.AddPrim(name, PrimitiveType{Kind: PrimConst})
	if err != nil {
		return core.Index[Node]{}, err
	}
	prim := d.Prims.Get(primIdx)
	prim.Attrs[d.interner.ID(constValueAttr)] = value

	ty := core.OperandType{Width: 0}
	if value.Kind == core.ConstBits {
		ty = value.Bits.OpType()
	}
	return d.AddNode(d.anonName("$constq"), ty, primIdx, d.interner.ID("Q"))
}

// DisconnectPort removes prim's named input port and the matching user
// entry on the node that used to drive it.
func (d *Design) DisconnectPort(prim core.Index[Primitive], portName core.Name) error {
	p := d.Prims.Get(prim)
	nodeIdx, ok := p.Inputs[portName]
	if !ok {
		return fmt.Errorf("disconnect_port: no such input port")
	}
	delete(p.Inputs, portName)

	n := d.Nodes.Get(nodeIdx)
	var toRemove []core.Index[PortRef]
	n.Users.All(func(idx core.Index[PortRef], ref *PortRef) bool {
		if ref.Kind == PortOnPrim && ref.Prim == prim && ref.Port == portName {
			toRemove = append(toRemove, idx)
		}
		return true
	})
	for _, idx := range toRemove {
		n.Users.Remove(idx)
	}
	return nil
}

// RemoveNode removes n, which must have no remaining users, and clears
// the output port it occupied on its driving primitive (if any; a
// top-level port has none).
func (d *Design) RemoveNode(n core.Index[Node]) error {
	node := d.Nodes.Get(n)
	if node.Users.Count() != 0 {
		return fmt.Errorf("remove_node: node still has users")
	}
	if node.Driver.Kind == PortOnPrim {
		if prim, ok := d.Prims.TryGet(node.Driver.Prim); ok {
			delete(prim.Outputs, node.Driver.Port)
		}
	}
	d.Nodes.Remove(n)
	return nil
}

// RemovePrim removes p, which must have no remaining output ports
// (every node it used to drive has already been removed). Its inputs
// are disconnected first.
func (d *Design) RemovePrim(p core.Index[Primitive]) error {
	prim := d.Prims.Get(p)
	if len(prim.Outputs) != 0 {
		return fmt.Errorf("remove_prim: primitive still has outputs")
	}
	for portName := range prim.Inputs {
		if err := d.DisconnectPort(p, portName); err != nil {
			return err
		}
	}
	d.Prims.Remove(p)
	return nil
}

// TrimStats reports how much of the graph a Trim pass discarded.
type TrimStats struct {
	NodesRemoved int
	PrimsRemoved int
}

// Summary renders a one-line human-readable count, using the same
// thousands-grouping go-humanize applies elsewhere in this module's
// reporting.
func (s TrimStats) Summary() string {
	return fmt.Sprintf("removed %s dead node(s), %s dead primitive(s)",
		humanize.Comma(int64(s.NodesRemoved)), humanize.Comma(int64(s.PrimsRemoved)))
}

// Trim repeatedly removes nodes with no users and primitives with no
// outputs until a full pass removes nothing. Top-level output port
// nodes are always kept, even with no users.
func (d *Design) Trim() TrimStats {
	var stats TrimStats
	for {
		changed := false

		var deadNodes []core.Index[Node]
		d.Nodes.All(func(idx core.Index[Node], n *Node) bool {
			if !n.IsOutput && n.Users.Count() == 0 {
				deadNodes = append(deadNodes, idx)
			}
			return true
		})
		for _, idx := range deadNodes {
			if err := d.RemoveNode(idx); err == nil {
				stats.NodesRemoved++
				changed = true
			}
		}

		var deadPrims []core.Index[Primitive]
		d.Prims.All(func(idx core.Index[Primitive], p *Primitive) bool {
			if len(p.Outputs) == 0 {
				deadPrims = append(deadPrims, idx)
			}
			return true
		})
		for _, idx := range deadPrims {
			if err := d.RemovePrim(idx); err == nil {
				stats.PrimsRemoved++
				changed = true
			}
		}

		if !changed {
			break
		}
	}
	return stats
}
