// Package history records reversible edit operations against a flow
// document and provides undo/redo.
//
// Every mutation goes through the [Log], which applies it to the
// document and pushes one [Operation] per touched element. Undo pops
// the most recent operation, applies its inverse, and moves it to the
// redo stack; any new edit clears the redo stack, so history never
// branches. Multi-element gestures (removing a node and its wires,
// removing a lane and its contents) record one operation per element,
// each independently reversible in log order.
package history

import (
	"context"
	"fmt"

	"github.com/iamoneai/laneflow/pkg/flow"
	"github.com/iamoneai/laneflow/pkg/observability"
)

// OpType identifies the kind of edit an operation records.
type OpType int

const (
	OpAddNode OpType = iota
	OpRemoveNode
	OpMoveNode
	OpUpdateNode
	OpAddWire
	OpRemoveWire
	OpAddLane
	OpRemoveLane
	OpMoveLane
	OpCollapseLane
)

var opNames = map[OpType]string{
	OpAddNode:      "add node",
	OpRemoveNode:   "remove node",
	OpMoveNode:     "move node",
	OpUpdateNode:   "update node",
	OpAddWire:      "add wire",
	OpRemoveWire:   "remove wire",
	OpAddLane:      "add lane",
	OpRemoveLane:   "remove lane",
	OpMoveLane:     "move lane",
	OpCollapseLane: "collapse lane",
}

func (t OpType) String() string { return opNames[t] }

// Kind identifies which element family an operation touches.
type Kind int

const (
	KindNode Kind = iota
	KindWire
	KindLane
)

// Operation is one recorded, reversible edit. Before is nil for adds,
// After is nil for removes; moves and updates carry both.
type Operation struct {
	Type        OpType
	Kind        Kind
	ElementID   string
	Before      any // *flow.Node, *flow.Wire, or *flow.Lane snapshot
	After       any
	Description string
}

// DefaultLimit bounds undo depth; the oldest operation falls off the
// bottom once the stack is full.
const DefaultLimit = 100

// Log is the undo/redo history for one document. It owns the mutation
// path: callers edit the document through the Log's gesture methods so
// every change is recorded. Not safe for concurrent use.
type Log struct {
	doc   *flow.Document
	undo  []Operation
	redo  []Operation
	limit int
}

// NewLog creates a history log bound to doc with [DefaultLimit] depth.
func NewLog(doc *flow.Document) *Log {
	return &Log{doc: doc, limit: DefaultLimit}
}

// Document returns the document this log mutates.
func (l *Log) Document() *flow.Document { return l.doc }

// UndoDepth returns the number of undoable operations.
func (l *Log) UndoDepth() int { return len(l.undo) }

// RedoDepth returns the number of redoable operations.
func (l *Log) RedoDepth() int { return len(l.redo) }

// Record pushes an operation onto the undo stack and clears the redo
// stack. Callers normally use the gesture methods instead, which apply
// the mutation and record it in one step.
func (l *Log) Record(op Operation) {
	l.undo = append(l.undo, op)
	if len(l.undo) > l.limit {
		l.undo = l.undo[1:]
	}
	l.redo = nil
	observability.Document().OnOperation(context.Background(), op.Type.String(), op.ElementID)
}

// Undo reverses the most recent operation and moves it to the redo
// stack. It returns the operation description for user feedback, or
// "" and false if there is nothing to undo.
func (l *Log) Undo() (string, bool) {
	if len(l.undo) == 0 {
		return "", false
	}
	op := l.undo[len(l.undo)-1]
	l.undo = l.undo[:len(l.undo)-1]
	l.apply(op.Kind, op.ElementID, op.Before)
	l.redo = append(l.redo, op)
	observability.Document().OnUndo(context.Background(), op.Description)
	return op.Description, true
}

// Redo re-applies the most recently undone operation. It returns the
// operation description, or "" and false if there is nothing to redo.
func (l *Log) Redo() (string, bool) {
	if len(l.redo) == 0 {
		return "", false
	}
	op := l.redo[len(l.redo)-1]
	l.redo = l.redo[:len(l.redo)-1]
	l.apply(op.Kind, op.ElementID, op.After)
	l.undo = append(l.undo, op)
	observability.Document().OnRedo(context.Background(), op.Description)
	return op.Description, true
}

// apply reinstates the given element state, or discards the element
// when state is nil.
func (l *Log) apply(kind Kind, id string, state any) {
	switch kind {
	case KindNode:
		if state == nil {
			l.doc.DiscardNode(id)
		} else {
			l.doc.RestoreNode(state.(*flow.Node))
		}
	case KindWire:
		if state == nil {
			l.doc.DiscardWire(id)
		} else {
			l.doc.RestoreWire(state.(*flow.Wire))
		}
	case KindLane:
		if state == nil {
			l.doc.DiscardLane(id)
		} else {
			l.doc.RestoreLane(state.(*flow.Lane))
		}
	}
}

// =============================================================================
// Gesture methods
// =============================================================================

// AddNode adds a node and records the operation.
func (l *Log) AddNode(n flow.Node) (*flow.Node, error) {
	added, err := l.doc.AddNode(n)
	if err != nil {
		return nil, err
	}
	l.Record(Operation{
		Type: OpAddNode, Kind: KindNode, ElementID: added.ID, After: added,
		Description: fmt.Sprintf("add node %q", added.Name),
	})
	return added, nil
}

// RemoveNode removes a node, recording one operation per removed wire
// (in log order) followed by one for the node itself, so undoing the
// gesture restores the node and then each wire independently.
func (l *Log) RemoveNode(id string) bool {
	node, wires := l.doc.RemoveNode(id)
	if node == nil {
		return false
	}
	for _, w := range wires {
		l.Record(Operation{
			Type: OpRemoveWire, Kind: KindWire, ElementID: w.ID, Before: w,
			Description: fmt.Sprintf("remove wire %s", w.ID),
		})
	}
	l.Record(Operation{
		Type: OpRemoveNode, Kind: KindNode, ElementID: node.ID, Before: node,
		Description: fmt.Sprintf("remove node %q", node.Name),
	})
	return true
}

// MoveNode repositions a node and records the operation.
func (l *Log) MoveNode(id string, x, y float64) bool {
	before, after := l.doc.MoveNode(id, x, y)
	if before == nil {
		return false
	}
	l.Record(Operation{
		Type: OpMoveNode, Kind: KindNode, ElementID: id, Before: before, After: after,
		Description: fmt.Sprintf("move node %q", after.Name),
	})
	return true
}

// SetNodeProperties replaces a node's properties and records the operation.
func (l *Log) SetNodeProperties(id string, props map[string]any) bool {
	before, after := l.doc.SetNodeProperties(id, props)
	if before == nil {
		return false
	}
	l.Record(Operation{
		Type: OpUpdateNode, Kind: KindNode, ElementID: id, Before: before, After: after,
		Description: fmt.Sprintf("update node %q", after.Name),
	})
	return true
}

// AssignNodeLane moves a node into a lane and records the operation.
func (l *Log) AssignNodeLane(id, laneID string) bool {
	before, after := l.doc.AssignNodeLane(id, laneID)
	if before == nil {
		return false
	}
	l.Record(Operation{
		Type: OpUpdateNode, Kind: KindNode, ElementID: id, Before: before, After: after,
		Description: fmt.Sprintf("assign node %q to lane", after.Name),
	})
	return true
}

// AddWire adds a wire and records the operation.
func (l *Log) AddWire(w flow.Wire) (*flow.Wire, error) {
	added, err := l.doc.AddWire(w)
	if err != nil {
		return nil, err
	}
	l.Record(Operation{
		Type: OpAddWire, Kind: KindWire, ElementID: added.ID, After: added,
		Description: fmt.Sprintf("add wire %s", added.ID),
	})
	return added, nil
}

// RemoveWire removes a wire and records the operation.
func (l *Log) RemoveWire(id string) bool {
	before := l.doc.RemoveWire(id)
	if before == nil {
		return false
	}
	l.Record(Operation{
		Type: OpRemoveWire, Kind: KindWire, ElementID: id, Before: before,
		Description: fmt.Sprintf("remove wire %s", id),
	})
	return true
}

// AddLane adds a lane and records the operation.
func (l *Log) AddLane(lane flow.Lane) (*flow.Lane, error) {
	added, err := l.doc.AddLane(lane)
	if err != nil {
		return nil, err
	}
	l.Record(Operation{
		Type: OpAddLane, Kind: KindLane, ElementID: added.ID, After: added,
		Description: fmt.Sprintf("add lane %q", added.Name),
	})
	return added, nil
}

// RemoveLane removes a lane and cascades, recording one operation per
// removed wire, node, and finally the lane itself.
func (l *Log) RemoveLane(id string) bool {
	lane, nodes, wires := l.doc.RemoveLane(id)
	if lane == nil {
		return false
	}
	for _, w := range wires {
		l.Record(Operation{
			Type: OpRemoveWire, Kind: KindWire, ElementID: w.ID, Before: w,
			Description: fmt.Sprintf("remove wire %s", w.ID),
		})
	}
	for _, n := range nodes {
		l.Record(Operation{
			Type: OpRemoveNode, Kind: KindNode, ElementID: n.ID, Before: n,
			Description: fmt.Sprintf("remove node %q", n.Name),
		})
	}
	l.Record(Operation{
		Type: OpRemoveLane, Kind: KindLane, ElementID: lane.ID, Before: lane,
		Description: fmt.Sprintf("remove lane %q", lane.Name),
	})
	return true
}

// MoveLane repositions a lane and records the operation.
func (l *Log) MoveLane(id string, y float64) bool {
	before, after := l.doc.MoveLane(id, y)
	if before == nil {
		return false
	}
	l.Record(Operation{
		Type: OpMoveLane, Kind: KindLane, ElementID: id, Before: before, After: after,
		Description: fmt.Sprintf("move lane %q", after.Name),
	})
	return true
}

// CollapseLane toggles a lane's collapsed state and records the operation.
func (l *Log) CollapseLane(id string, collapsed bool) bool {
	before, after := l.doc.CollapseLane(id, collapsed)
	if before == nil {
		return false
	}
	verb := "collapse"
	if !collapsed {
		verb = "expand"
	}
	l.Record(Operation{
		Type: OpCollapseLane, Kind: KindLane, ElementID: id, Before: before, After: after,
		Description: fmt.Sprintf("%s lane %q", verb, after.Name),
	})
	return true
}
