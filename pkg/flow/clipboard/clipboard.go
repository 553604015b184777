// Package clipboard holds a detached copy of a node/wire subgraph for
// paste-with-remapped-identifiers.
package clipboard

import (
	"github.com/google/uuid"

	"github.com/iamoneai/laneflow/pkg/flow"
)

// IDGenerator mints a fresh element identifier for the given prefix
// ("node" or "wire"). Paste runs every id through the generator so
// pasted elements never collide with existing ones.
type IDGenerator func(prefix string) string

// UUIDGenerator returns an IDGenerator backed by random UUIDs.
func UUIDGenerator() IDGenerator {
	return func(prefix string) string {
		return prefix + "-" + uuid.NewString()
	}
}

// Buffer stores one copied selection. The buffer is replaced only by a
// new Copy, never consumed by Paste, so repeated paste is supported.
// Not safe for concurrent use.
type Buffer struct {
	nodes  []*flow.Node
	wires  []*flow.Wire
	origin flow.Position
}

// Pasted is the freshly remapped element set produced by [Buffer.Paste].
type Pasted struct {
	Nodes []flow.Node
	Wires []flow.Wire
}

// Copy stores deep, detached copies of the given nodes and of the
// subset of wires whose both endpoints are inside the node set. Wires
// crossing the selection boundary are dropped. Lane membership is
// dropped too: a pasted node starts outside any lane.
func (b *Buffer) Copy(nodes []*flow.Node, wires []*flow.Wire, origin flow.Position) {
	inSelection := make(map[string]bool, len(nodes))
	b.nodes = make([]*flow.Node, 0, len(nodes))
	for _, n := range nodes {
		c := n.Clone()
		c.LaneID = ""
		b.nodes = append(b.nodes, c)
		inSelection[n.ID] = true
	}
	b.wires = nil
	for _, w := range wires {
		if inSelection[w.FromNode] && inSelection[w.ToNode] {
			b.wires = append(b.wires, w.Clone())
		}
	}
	b.origin = origin
}

// IsEmpty reports whether the buffer holds no nodes.
func (b *Buffer) IsEmpty() bool { return len(b.nodes) == 0 }

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.nodes, b.wires, b.origin = nil, nil, flow.Position{}
}

// Paste produces a fresh copy of the buffered subgraph: every node and
// wire id is remapped through gen, wire endpoints are rewritten to the
// new node ids, and node positions are translated by target - origin.
// Returns nil if the buffer is empty. Each call remaps again, so
// pasting twice yields two independent element sets.
func (b *Buffer) Paste(target flow.Position, gen IDGenerator) *Pasted {
	if b.IsEmpty() {
		return nil
	}
	if gen == nil {
		gen = UUIDGenerator()
	}
	dx := target.X - b.origin.X
	dy := target.Y - b.origin.Y

	remap := make(map[string]string, len(b.nodes))
	out := &Pasted{Nodes: make([]flow.Node, 0, len(b.nodes)), Wires: make([]flow.Wire, 0, len(b.wires))}
	for _, n := range b.nodes {
		c := n.Clone()
		remap[n.ID] = gen("node")
		c.ID = remap[n.ID]
		c.Position.X += dx
		c.Position.Y += dy
		out.Nodes = append(out.Nodes, *c)
	}
	for _, w := range b.wires {
		c := w.Clone()
		c.ID = gen("wire")
		c.FromNode = remap[w.FromNode]
		c.ToNode = remap[w.ToNode]
		out.Wires = append(out.Wires, *c)
	}
	return out
}
