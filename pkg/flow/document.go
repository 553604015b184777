package flow

import (
	"errors"
	"fmt"
	"slices"
)

var (
	// ErrInvalidElementID is returned when an element is added with an
	// empty identifier and no counter-generated fallback applies.
	ErrInvalidElementID = errors.New("element ID must not be empty")

	// ErrDuplicateElementID is returned when an element with the same ID
	// already exists in the document.
	ErrDuplicateElementID = errors.New("duplicate element ID")

	// ErrUnknownNode is returned by [Document.AddWire] when an endpoint
	// node does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrUnknownPort is returned by [Document.AddWire] when an endpoint
	// node exists but lacks the referenced port.
	ErrUnknownPort = errors.New("unknown port")

	// ErrDuplicateWire is returned by [Document.AddWire] when a wire with
	// an identical endpoint tuple already exists. The add is a no-op.
	ErrDuplicateWire = errors.New("duplicate wire")
)

// Document is the aggregate of all lanes, nodes, and wires for one
// pipeline, plus a monotonic identifier counter. Create one with [New]
// or rebuild one from a persisted snapshot via the docio package.
//
// The zero value is not usable.
type Document struct {
	Name string

	lanes map[string]*Lane
	nodes map[string]*Node
	wires map[string]*Wire

	// Insertion order, preserved for deterministic iteration, layout
	// stability, and round-trip serialization.
	laneOrder []string
	nodeOrder []string
	wireOrder []string

	counter int
}

// New creates an empty document.
func New(name string) *Document {
	return &Document{
		Name:  name,
		lanes: make(map[string]*Lane),
		nodes: make(map[string]*Node),
		wires: make(map[string]*Wire),
	}
}

// NextID returns a fresh identifier of the form "prefix-N" and advances
// the counter. Identifiers are unique for the lifetime of the document,
// including across undo of the element they were minted for.
func (d *Document) NextID(prefix string) string {
	d.counter++
	return fmt.Sprintf("%s-%d", prefix, d.counter)
}

// Counter returns the current identifier counter value.
func (d *Document) Counter() int { return d.counter }

// BumpCounter raises the counter to at least n. Used after import so
// freshly minted identifiers cannot collide with imported ones.
func (d *Document) BumpCounter(n int) {
	if n > d.counter {
		d.counter = n
	}
}

// =============================================================================
// Queries
// =============================================================================

// Node returns the node with the given ID, or nil and false.
func (d *Document) Node(id string) (*Node, bool) {
	n, ok := d.nodes[id]
	return n, ok
}

// Wire returns the wire with the given ID, or nil and false.
func (d *Document) Wire(id string) (*Wire, bool) {
	w, ok := d.wires[id]
	return w, ok
}

// Lane returns the lane with the given ID, or nil and false.
func (d *Document) Lane(id string) (*Lane, bool) {
	l, ok := d.lanes[id]
	return l, ok
}

// Nodes returns all nodes in insertion order. The returned slice holds
// the live node pointers; treat them as read-only and mutate through
// the document instead.
func (d *Document) Nodes() []*Node {
	out := make([]*Node, 0, len(d.nodeOrder))
	for _, id := range d.nodeOrder {
		out = append(out, d.nodes[id])
	}
	return out
}

// Wires returns all wires in insertion order.
func (d *Document) Wires() []*Wire {
	out := make([]*Wire, 0, len(d.wireOrder))
	for _, id := range d.wireOrder {
		out = append(out, d.wires[id])
	}
	return out
}

// Lanes returns all lanes in display order.
func (d *Document) Lanes() []*Lane {
	out := make([]*Lane, 0, len(d.laneOrder))
	for _, id := range d.laneOrder {
		out = append(out, d.lanes[id])
	}
	return out
}

// NodeCount returns the number of nodes.
func (d *Document) NodeCount() int { return len(d.nodes) }

// WireCount returns the number of wires.
func (d *Document) WireCount() int { return len(d.wires) }

// LaneCount returns the number of lanes.
func (d *Document) LaneCount() int { return len(d.lanes) }

// WiresTouching returns every wire with either endpoint on the node,
// in insertion order.
func (d *Document) WiresTouching(nodeID string) []*Wire {
	var out []*Wire
	for _, id := range d.wireOrder {
		if w := d.wires[id]; w.Touches(nodeID) {
			out = append(out, w)
		}
	}
	return out
}

// =============================================================================
// Node mutators
// =============================================================================

// AddNode adds a node to the document. An empty ID is assigned from the
// counter. The stored node is a deep copy; the returned snapshot is the
// stored state after the add. If the node names a lane, its ID is
// appended to that lane's node list (a missing lane clears LaneID).
func (d *Document) AddNode(n Node) (*Node, error) {
	if n.ID == "" {
		n.ID = d.NextID("node")
	}
	if _, exists := d.nodes[n.ID]; exists {
		return nil, fmt.Errorf("node %s: %w", n.ID, ErrDuplicateElementID)
	}
	if n.Size == (Size{}) {
		n.Size = Size{W: DefaultNodeWidth, H: DefaultNodeHeight}
	}
	if n.LaneID != "" {
		lane, ok := d.lanes[n.LaneID]
		if !ok {
			n.LaneID = ""
		} else if !slices.Contains(lane.NodeIDs, n.ID) {
			lane.NodeIDs = append(lane.NodeIDs, n.ID)
		}
	}
	stored := n.Clone()
	d.nodes[stored.ID] = stored
	d.nodeOrder = append(d.nodeOrder, stored.ID)
	return stored.Clone(), nil
}

// RemoveNode removes a node, every wire touching it, and its entry in
// its lane's node list. It returns snapshots of the removed node and
// wires so each removal can be recorded as an independently reversible
// operation, wires first in log order. Unknown ids are a no-op.
func (d *Document) RemoveNode(id string) (*Node, []*Wire) {
	node, ok := d.nodes[id]
	if !ok {
		return nil, nil
	}

	var removed []*Wire
	for _, w := range d.WiresTouching(id) {
		removed = append(removed, w.Clone())
		d.dropWire(w.ID)
	}

	if node.LaneID != "" {
		if lane, ok := d.lanes[node.LaneID]; ok {
			lane.NodeIDs = slices.DeleteFunc(lane.NodeIDs, func(s string) bool { return s == id })
		}
	}

	before := node.Clone()
	delete(d.nodes, id)
	d.nodeOrder = slices.DeleteFunc(d.nodeOrder, func(s string) bool { return s == id })
	return before, removed
}

// MoveNode updates a node's position, returning before/after snapshots.
// Unknown ids are a no-op returning nils.
func (d *Document) MoveNode(id string, x, y float64) (before, after *Node) {
	node, ok := d.nodes[id]
	if !ok {
		return nil, nil
	}
	before = node.Clone()
	node.Position = Position{X: x, Y: y}
	return before, node.Clone()
}

// SetNodeProperties replaces a node's property map, returning
// before/after snapshots. Unknown ids are a no-op.
func (d *Document) SetNodeProperties(id string, props map[string]any) (before, after *Node) {
	node, ok := d.nodes[id]
	if !ok {
		return nil, nil
	}
	before = node.Clone()
	node.Properties = props
	return before, node.Clone()
}

// AssignNodeLane moves a node into the given lane (or out of every lane
// when laneID is empty), maintaining both lanes' node lists. Unknown
// node or lane ids are a no-op.
func (d *Document) AssignNodeLane(id, laneID string) (before, after *Node) {
	node, ok := d.nodes[id]
	if !ok {
		return nil, nil
	}
	if laneID != "" {
		if _, ok := d.lanes[laneID]; !ok {
			return nil, nil
		}
	}
	before = node.Clone()
	if node.LaneID != "" {
		if prev, ok := d.lanes[node.LaneID]; ok {
			prev.NodeIDs = slices.DeleteFunc(prev.NodeIDs, func(s string) bool { return s == id })
		}
	}
	node.LaneID = laneID
	if laneID != "" {
		lane := d.lanes[laneID]
		if !slices.Contains(lane.NodeIDs, id) {
			lane.NodeIDs = append(lane.NodeIDs, id)
		}
	}
	return before, node.Clone()
}

// =============================================================================
// Wire mutators
// =============================================================================

// AddWire adds a wire between an existing output port and an existing
// input port. An empty ID is assigned from the counter. Adding a wire
// whose endpoint tuple already exists is rejected with
// [ErrDuplicateWire] and leaves the document unchanged.
func (d *Document) AddWire(w Wire) (*Wire, error) {
	from, ok := d.nodes[w.FromNode]
	if !ok {
		return nil, fmt.Errorf("wire source %s: %w", w.FromNode, ErrUnknownNode)
	}
	to, ok := d.nodes[w.ToNode]
	if !ok {
		return nil, fmt.Errorf("wire target %s: %w", w.ToNode, ErrUnknownNode)
	}
	if _, ok := from.Output(w.FromPort); !ok {
		return nil, fmt.Errorf("output %s.%s: %w", w.FromNode, w.FromPort, ErrUnknownPort)
	}
	if _, ok := to.Input(w.ToPort); !ok {
		return nil, fmt.Errorf("input %s.%s: %w", w.ToNode, w.ToPort, ErrUnknownPort)
	}
	for _, id := range d.wireOrder {
		if d.wires[id].SameTuple(w) {
			return nil, ErrDuplicateWire
		}
	}
	if w.ID == "" {
		w.ID = d.NextID("wire")
	}
	if _, exists := d.wires[w.ID]; exists {
		return nil, fmt.Errorf("wire %s: %w", w.ID, ErrDuplicateElementID)
	}
	stored := w.Clone()
	d.wires[stored.ID] = stored
	d.wireOrder = append(d.wireOrder, stored.ID)
	return stored.Clone(), nil
}

// RemoveWire removes a wire, returning its snapshot. Unknown ids are a
// no-op returning nil.
func (d *Document) RemoveWire(id string) *Wire {
	w, ok := d.wires[id]
	if !ok {
		return nil
	}
	before := w.Clone()
	d.dropWire(id)
	return before
}

func (d *Document) dropWire(id string) {
	delete(d.wires, id)
	d.wireOrder = slices.DeleteFunc(d.wireOrder, func(s string) bool { return s == id })
}

// =============================================================================
// Lane mutators
// =============================================================================

// AddLane adds a lane. An empty ID is assigned from the counter; a zero
// height gets [DefaultLaneHeight]. Display order is renumbered.
func (d *Document) AddLane(l Lane) (*Lane, error) {
	if l.ID == "" {
		l.ID = d.NextID("lane")
	}
	if _, exists := d.lanes[l.ID]; exists {
		return nil, fmt.Errorf("lane %s: %w", l.ID, ErrDuplicateElementID)
	}
	if l.Height == 0 {
		l.Height = DefaultLaneHeight
	}
	stored := l.Clone()
	d.lanes[stored.ID] = stored
	d.laneOrder = append(d.laneOrder, stored.ID)
	d.renumberLanes()
	return stored.Clone(), nil
}

// RemoveLane removes a lane and cascades: every node in the lane is
// removed along with its wires. Snapshots of everything removed are
// returned (wires first, then nodes, then the lane) so each can be
// recorded as its own reversible operation. Unknown ids are a no-op.
func (d *Document) RemoveLane(id string) (*Lane, []*Node, []*Wire) {
	lane, ok := d.lanes[id]
	if !ok {
		return nil, nil, nil
	}

	var nodes []*Node
	var wires []*Wire
	for _, nodeID := range slices.Clone(lane.NodeIDs) {
		n, ws := d.RemoveNode(nodeID)
		if n != nil {
			nodes = append(nodes, n)
			wires = append(wires, ws...)
		}
	}

	before := lane.Clone()
	delete(d.lanes, id)
	d.laneOrder = slices.DeleteFunc(d.laneOrder, func(s string) bool { return s == id })
	d.renumberLanes()
	return before, nodes, wires
}

// MoveLane updates a lane's vertical position and renumbers display
// order. Unknown ids are a no-op.
func (d *Document) MoveLane(id string, y float64) (before, after *Lane) {
	lane, ok := d.lanes[id]
	if !ok {
		return nil, nil
	}
	before = lane.Clone()
	lane.Y = y
	d.renumberLanes()
	return before, lane.Clone()
}

// CollapseLane sets a lane's collapsed flag. Unknown ids are a no-op.
func (d *Document) CollapseLane(id string, collapsed bool) (before, after *Lane) {
	lane, ok := d.lanes[id]
	if !ok {
		return nil, nil
	}
	before = lane.Clone()
	lane.Collapsed = collapsed
	return before, lane.Clone()
}

// renumberLanes sorts display order by vertical position (insertion
// order as tiebreak) and reassigns sequential Order values.
func (d *Document) renumberLanes() {
	slices.SortStableFunc(d.laneOrder, func(a, b string) int {
		ya, yb := d.lanes[a].Y, d.lanes[b].Y
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		default:
			return 0
		}
	})
	for i, id := range d.laneOrder {
		d.lanes[id].Order = i
	}
}

// =============================================================================
// Raw restore primitives
// =============================================================================
//
// The history log reverses operations element by element. These
// primitives reinstate or drop a single element exactly as snapshotted,
// without cascading, so a multi-element gesture can be unwound in log
// order. They preserve the document's indexes but skip the semantic
// checks of the public mutators.

// RestoreNode reinstates a node snapshot, re-adding it to its lane's
// node list if the lane exists.
func (d *Document) RestoreNode(n *Node) {
	if n == nil {
		return
	}
	stored := n.Clone()
	if _, exists := d.nodes[stored.ID]; !exists {
		d.nodeOrder = append(d.nodeOrder, stored.ID)
	}
	d.nodes[stored.ID] = stored
	if stored.LaneID != "" {
		if lane, ok := d.lanes[stored.LaneID]; ok && !slices.Contains(lane.NodeIDs, stored.ID) {
			lane.NodeIDs = append(lane.NodeIDs, stored.ID)
		}
	}
}

// DiscardNode drops a node without cascading to wires or lanes.
func (d *Document) DiscardNode(id string) {
	if node, ok := d.nodes[id]; ok {
		if node.LaneID != "" {
			if lane, ok := d.lanes[node.LaneID]; ok {
				lane.NodeIDs = slices.DeleteFunc(lane.NodeIDs, func(s string) bool { return s == id })
			}
		}
		delete(d.nodes, id)
		d.nodeOrder = slices.DeleteFunc(d.nodeOrder, func(s string) bool { return s == id })
	}
}

// RestoreWire reinstates a wire snapshot.
func (d *Document) RestoreWire(w *Wire) {
	if w == nil {
		return
	}
	stored := w.Clone()
	if _, exists := d.wires[stored.ID]; !exists {
		d.wireOrder = append(d.wireOrder, stored.ID)
	}
	d.wires[stored.ID] = stored
}

// DiscardWire drops a wire.
func (d *Document) DiscardWire(id string) { d.dropWire(id) }

// RestoreLane reinstates a lane snapshot and renumbers display order.
func (d *Document) RestoreLane(l *Lane) {
	if l == nil {
		return
	}
	stored := l.Clone()
	if _, exists := d.lanes[stored.ID]; !exists {
		d.laneOrder = append(d.laneOrder, stored.ID)
	}
	d.lanes[stored.ID] = stored
	d.renumberLanes()
}

// DiscardLane drops a lane without cascading to its nodes.
func (d *Document) DiscardLane(id string) {
	if _, ok := d.lanes[id]; ok {
		delete(d.lanes, id)
		d.laneOrder = slices.DeleteFunc(d.laneOrder, func(s string) bool { return s == id })
		d.renumberLanes()
	}
}

// Clone returns a deep copy of the document, counter included.
func (d *Document) Clone() *Document {
	c := New(d.Name)
	c.counter = d.counter
	for _, id := range d.laneOrder {
		c.lanes[id] = d.lanes[id].Clone()
		c.laneOrder = append(c.laneOrder, id)
	}
	for _, id := range d.nodeOrder {
		c.nodes[id] = d.nodes[id].Clone()
		c.nodeOrder = append(c.nodeOrder, id)
	}
	for _, id := range d.wireOrder {
		c.wires[id] = d.wires[id].Clone()
		c.wireOrder = append(c.wireOrder, id)
	}
	return c
}
