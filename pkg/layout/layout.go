// Package layout computes node coordinates from graph topology.
//
// The algorithm is a longest-path layering via topological sort
// (Kahn's algorithm): each node's depth is the length of its longest
// path from any source, nodes of equal depth share a horizontal
// column, and within a column nodes are spaced evenly in their
// original insertion order. Layout never mutates the graph; the editor
// applies the returned positions itself.
package layout

import "github.com/iamoneai/laneflow/pkg/flow"

// Geometry for the computed grid.
const (
	ColumnWidth = 240 // horizontal distance between depth columns
	RowSpacing  = 120 // vertical distance between nodes in a column
	OriginX     = 40
	OriginY     = 40
)

// Calculate returns a position for every node. Nodes trapped in a
// cycle never reach a defined depth under Kahn's algorithm; rather
// than failing, they are placed in an overflow row below the deepest
// column (cycles are surfaced by validation, not by layout).
func Calculate(nodes []*flow.Node, wires []*flow.Wire) map[string]flow.Position {
	positions := make(map[string]flow.Position, len(nodes))
	if len(nodes) == 0 {
		return positions
	}

	byID := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = true
	}

	inDegree := make(map[string]int, len(nodes))
	children := make(map[string][]string)
	for _, w := range wires {
		if !byID[w.FromNode] || !byID[w.ToNode] {
			continue
		}
		children[w.FromNode] = append(children[w.FromNode], w.ToNode)
		inDegree[w.ToNode]++
	}

	depth := make(map[string]int, len(nodes))
	placed := make(map[string]bool, len(nodes))

	// Seed the queue in insertion order so equal-depth ordering is stable.
	var queue []string
	for _, n := range nodes {
		if inDegree[n.ID] == 0 {
			queue = append(queue, n.ID)
			placed[n.ID] = true
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, child := range children[curr] {
			if d := depth[curr] + 1; d > depth[child] {
				depth[child] = d
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
				placed[child] = true
			}
		}
	}

	// Bucket placed nodes by depth, preserving insertion order.
	columns := make(map[int][]string)
	maxDepth := 0
	for _, n := range nodes {
		if !placed[n.ID] {
			continue
		}
		d := depth[n.ID]
		columns[d] = append(columns[d], n.ID)
		if d > maxDepth {
			maxDepth = d
		}
	}

	maxRows := 0
	for d := 0; d <= maxDepth; d++ {
		for row, id := range columns[d] {
			positions[id] = flow.Position{
				X: OriginX + float64(d)*ColumnWidth,
				Y: OriginY + float64(row)*RowSpacing,
			}
		}
		if len(columns[d]) > maxRows {
			maxRows = len(columns[d])
		}
	}

	// Overflow row for cycle-trapped nodes, below the main grid.
	overflowY := OriginY + float64(maxRows)*RowSpacing + RowSpacing
	col := 0
	for _, n := range nodes {
		if placed[n.ID] {
			continue
		}
		positions[n.ID] = flow.Position{
			X: OriginX + float64(col)*ColumnWidth,
			Y: overflowY,
		}
		col++
	}

	return positions
}
