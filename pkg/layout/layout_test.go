package layout

import (
	"testing"

	"github.com/iamoneai/laneflow/pkg/flow"
)

func node(id string) *flow.Node {
	return &flow.Node{ID: id, Name: "Step " + id}
}

func wire(from, to string) *flow.Wire {
	return &flow.Wire{ID: "w-" + from + "-" + to, FromNode: from, FromPort: "out", ToNode: to, ToPort: "in"}
}

func TestChainLayout(t *testing.T) {
	nodes := []*flow.Node{node("a"), node("b"), node("c")}
	wires := []*flow.Wire{wire("a", "b"), wire("b", "c")}

	pos := Calculate(nodes, wires)
	if len(pos) != 3 {
		t.Fatalf("Every node should get a position: %d", len(pos))
	}

	// A chain occupies one column per node, same row
	if pos["a"].X != OriginX || pos["b"].X != OriginX+ColumnWidth || pos["c"].X != OriginX+2*ColumnWidth {
		t.Errorf("Chain columns unexpected: %v %v %v", pos["a"], pos["b"], pos["c"])
	}
	if pos["a"].Y != pos["b"].Y || pos["b"].Y != pos["c"].Y {
		t.Errorf("Chain should stay in one row: %v %v %v", pos["a"], pos["b"], pos["c"])
	}
}

func TestDiamondLayout(t *testing.T) {
	// a fans out to b and c, both feed d
	nodes := []*flow.Node{node("a"), node("b"), node("c"), node("d")}
	wires := []*flow.Wire{wire("a", "b"), wire("a", "c"), wire("b", "d"), wire("c", "d")}

	pos := Calculate(nodes, wires)

	// b and c share a column, stacked in insertion order
	if pos["b"].X != pos["c"].X {
		t.Errorf("Parallel branches should share a column: %v %v", pos["b"], pos["c"])
	}
	if pos["b"].Y >= pos["c"].Y {
		t.Errorf("Insertion order should decide row order: %v %v", pos["b"], pos["c"])
	}

	// d sits one column past the branches (longest path wins)
	if pos["d"].X != pos["b"].X+ColumnWidth {
		t.Errorf("Join node should follow the branch column: %v", pos["d"])
	}
}

func TestLongestPathDepth(t *testing.T) {
	// a -> c directly and a -> b -> c; c's depth follows the longer path
	nodes := []*flow.Node{node("a"), node("b"), node("c")}
	wires := []*flow.Wire{wire("a", "c"), wire("a", "b"), wire("b", "c")}

	pos := Calculate(nodes, wires)
	if pos["c"].X != OriginX+2*ColumnWidth {
		t.Errorf("Depth should be the longest path: %v", pos["c"])
	}
}

func TestDisconnectedNodes(t *testing.T) {
	nodes := []*flow.Node{node("a"), node("b")}

	pos := Calculate(nodes, nil)
	// Both are sources, sharing column zero
	if pos["a"].X != OriginX || pos["b"].X != OriginX {
		t.Errorf("Sources should share column zero: %v %v", pos["a"], pos["b"])
	}
	if pos["a"].Y == pos["b"].Y {
		t.Error("Nodes in one column should not overlap")
	}
}

func TestCycleOverflowRow(t *testing.T) {
	// a feeds a two-node cycle; the cycle members land in the overflow row
	nodes := []*flow.Node{node("a"), node("b"), node("c")}
	wires := []*flow.Wire{wire("a", "b"), wire("b", "c"), wire("c", "b")}

	pos := Calculate(nodes, wires)
	if len(pos) != 3 {
		t.Fatalf("Cycle members still get positions: %d", len(pos))
	}
	if pos["b"].Y <= pos["a"].Y || pos["c"].Y <= pos["a"].Y {
		t.Errorf("Cycle-trapped nodes should sit below the grid: %v %v", pos["b"], pos["c"])
	}
	if pos["b"].Y != pos["c"].Y || pos["b"].X == pos["c"].X {
		t.Errorf("Overflow row should spread horizontally: %v %v", pos["b"], pos["c"])
	}
}

func TestWiresToMissingNodesIgnored(t *testing.T) {
	nodes := []*flow.Node{node("a")}
	wires := []*flow.Wire{wire("a", "ghost"), wire("ghost", "a")}

	pos := Calculate(nodes, wires)
	if pos["a"] != (flow.Position{X: OriginX, Y: OriginY}) {
		t.Errorf("Dangling wires should not affect placement: %v", pos["a"])
	}
}

func TestEmptyGraph(t *testing.T) {
	pos := Calculate(nil, nil)
	if len(pos) != 0 {
		t.Errorf("Empty graph should yield no positions: %d", len(pos))
	}
}

func TestDeterminism(t *testing.T) {
	nodes := []*flow.Node{node("a"), node("b"), node("c"), node("d")}
	wires := []*flow.Wire{wire("a", "b"), wire("a", "c"), wire("b", "d"), wire("c", "d")}

	first := Calculate(nodes, wires)
	for i := 0; i < 10; i++ {
		again := Calculate(nodes, wires)
		for id, p := range first {
			if again[id] != p {
				t.Fatalf("Layout should be deterministic: %s moved from %v to %v", id, p, again[id])
			}
		}
	}
}
