package clipboard

import (
	"fmt"
	"testing"

	"github.com/iamoneai/laneflow/pkg/flow"
)

func testNode(id string, x, y float64) *flow.Node {
	return &flow.Node{
		ID:         id,
		TemplateID: "test.step",
		Name:       "Step " + id,
		LaneID:     "lane-1",
		Position:   flow.Position{X: x, Y: y},
		Inputs:     []flow.Port{{Key: "in", DataType: flow.TypeAny}},
		Outputs:    []flow.Port{{Key: "out", DataType: flow.TypeAny}},
	}
}

// sequentialGen returns predictable ids for assertions.
func sequentialGen() IDGenerator {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-copy-%d", prefix, n)
	}
}

func TestCopyPaste(t *testing.T) {
	var buf Buffer
	a := testNode("a", 10, 20)
	b := testNode("b", 110, 20)
	inside := &flow.Wire{ID: "w1", FromNode: "a", FromPort: "out", ToNode: "b", ToPort: "in"}
	crossing := &flow.Wire{ID: "w2", FromNode: "b", FromPort: "out", ToNode: "c", ToPort: "in"}

	buf.Copy([]*flow.Node{a, b}, []*flow.Wire{inside, crossing}, flow.Position{X: 10, Y: 20})
	if buf.IsEmpty() {
		t.Fatal("Buffer should not be empty after Copy")
	}

	out := buf.Paste(flow.Position{X: 210, Y: 120}, sequentialGen())
	if out == nil {
		t.Fatal("Paste should produce elements")
	}

	// Fresh ids, translated positions, lane membership dropped
	if out.Nodes[0].ID == "a" || out.Nodes[1].ID == "b" {
		t.Error("Pasted nodes should have fresh ids")
	}
	if out.Nodes[0].LaneID != "" {
		t.Errorf("Pasted node should not belong to a lane: %s", out.Nodes[0].LaneID)
	}
	if out.Nodes[0].Position.X != 210 || out.Nodes[0].Position.Y != 120 {
		t.Errorf("First node should land at the target: %+v", out.Nodes[0].Position)
	}
	if out.Nodes[1].Position.X != 310 || out.Nodes[1].Position.Y != 120 {
		t.Errorf("Relative offsets should be preserved: %+v", out.Nodes[1].Position)
	}

	// Only the wire inside the selection survives, endpoints remapped
	if len(out.Wires) != 1 {
		t.Fatalf("Boundary-crossing wire should be dropped: %d", len(out.Wires))
	}
	w := out.Wires[0]
	if w.FromNode != out.Nodes[0].ID || w.ToNode != out.Nodes[1].ID {
		t.Errorf("Wire endpoints should be remapped: %s -> %s", w.FromNode, w.ToNode)
	}
}

func TestRepeatedPaste(t *testing.T) {
	var buf Buffer
	buf.Copy([]*flow.Node{testNode("a", 0, 0)}, nil, flow.Position{})

	first := buf.Paste(flow.Position{X: 50, Y: 50}, nil)
	second := buf.Paste(flow.Position{X: 100, Y: 100}, nil)
	if first == nil || second == nil {
		t.Fatal("Both pastes should succeed")
	}
	if first.Nodes[0].ID == second.Nodes[0].ID {
		t.Error("Each paste should mint fresh ids")
	}
	if second.Nodes[0].Position.X != 100 {
		t.Errorf("Second paste should use its own target: %+v", second.Nodes[0].Position)
	}
}

func TestCopyDetachesFromSource(t *testing.T) {
	var buf Buffer
	src := testNode("a", 0, 0)
	buf.Copy([]*flow.Node{src}, nil, flow.Position{})

	// Mutating the source after Copy does not leak into pastes
	src.Name = "changed"
	src.Position.X = 999
	out := buf.Paste(flow.Position{}, sequentialGen())
	if out.Nodes[0].Name != "Step a" || out.Nodes[0].Position.X != 0 {
		t.Errorf("Buffer should hold a detached copy: %+v", out.Nodes[0])
	}
}

func TestEmptyBuffer(t *testing.T) {
	var buf Buffer
	if !buf.IsEmpty() {
		t.Error("Zero buffer should be empty")
	}
	if buf.Paste(flow.Position{}, nil) != nil {
		t.Error("Paste on empty buffer should return nil")
	}

	buf.Copy([]*flow.Node{testNode("a", 0, 0)}, nil, flow.Position{})
	buf.Clear()
	if !buf.IsEmpty() {
		t.Error("Clear should empty the buffer")
	}
}
