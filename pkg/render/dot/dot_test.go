package dot

import (
	"strings"
	"testing"

	"github.com/iamoneai/laneflow/pkg/flow"
)

func buildDocument(t *testing.T) *flow.Document {
	t.Helper()
	doc := flow.New("Render Test")
	lane, err := doc.AddLane(flow.Lane{Name: "LLM", Type: flow.LaneLLM})
	if err != nil {
		t.Fatalf("AddLane: %v", err)
	}
	a, err := doc.AddNode(flow.Node{
		ID: "node-1", TemplateID: "llm.prompt", Name: "Prompt", LaneID: lane.ID,
		Inputs:  []flow.Port{{Key: "prompt", DataType: flow.TypeText}},
		Outputs: []flow.Port{{Key: "completion", DataType: flow.TypeText}},
	})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	b, err := doc.AddNode(flow.Node{
		ID: "node-2", TemplateID: "passthrough.relay", Name: "Relay",
		Inputs:  []flow.Port{{Key: "input", DataType: flow.TypeAny}},
		Outputs: []flow.Port{{Key: "output", DataType: flow.TypeAny}},
	})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := doc.AddWire(flow.Wire{FromNode: a.ID, FromPort: "completion", ToNode: b.ID, ToPort: "input"}); err != nil {
		t.Fatalf("AddWire: %v", err)
	}
	return doc
}

func TestToDOT(t *testing.T) {
	dot := ToDOT(buildDocument(t), Options{})

	// Lanes become clusters with their fill color
	if !strings.Contains(dot, "subgraph cluster_0") {
		t.Error("Lane should become a cluster")
	}
	if !strings.Contains(dot, `label="LLM"`) {
		t.Error("Cluster should carry the lane name")
	}
	if !strings.Contains(dot, laneFill[flow.LaneLLM]) {
		t.Error("Cluster should carry the lane fill color")
	}

	// Lane member inside the cluster, laneless node at top level
	if !strings.Contains(dot, `"node-1" [label="Prompt"]`) {
		t.Error("Lane node should render with its name")
	}
	if !strings.Contains(dot, `"node-2" [label="Relay"]`) {
		t.Error("Laneless node should render at top level")
	}

	// Simple mode edges have no labels
	if !strings.Contains(dot, `"node-1" -> "node-2";`) {
		t.Error("Wire should become an edge")
	}
	if strings.Contains(dot, "completion -> input") {
		t.Error("Simple mode should not label edges")
	}

	// Default orientation is top down
	if !strings.Contains(dot, "rankdir=TB") {
		t.Error("Default orientation should be top down")
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(buildDocument(t), Options{Detailed: true, Horizontal: true})

	if !strings.Contains(dot, "rankdir=LR") {
		t.Error("Horizontal should switch rankdir")
	}
	// Detailed labels carry template id and port lists
	if !strings.Contains(dot, "llm.prompt") {
		t.Error("Detailed label should include the template id")
	}
	if !strings.Contains(dot, "in: prompt") || !strings.Contains(dot, "out: completion") {
		t.Error("Detailed label should include port lists")
	}
	// Edges carry port labels
	if !strings.Contains(dot, "completion -> input") {
		t.Error("Detailed edges should be port labeled")
	}
}

func TestToDOTFallbackLabel(t *testing.T) {
	doc := flow.New("test")
	doc.AddNode(flow.Node{ID: "node-1"})

	dot := ToDOT(doc, Options{})
	if !strings.Contains(dot, `"node-1" [label="node-1"]`) {
		t.Error("Nameless node should fall back to its id")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	svg := []byte(`<svg width="100pt" height="50pt" viewBox="10.00 20.00 100.00 50.00" xmlns="http://www.w3.org/2000/svg">`)
	out := normalizeViewBox(svg)
	if !strings.Contains(string(out), `viewBox="0 0 100.00 50.00"`) {
		t.Errorf("ViewBox should be rebased to the origin: %s", out)
	}

	// SVG without a viewBox passes through unchanged
	plain := []byte(`<svg xmlns="http://www.w3.org/2000/svg">`)
	if string(normalizeViewBox(plain)) != string(plain) {
		t.Error("Missing viewBox should pass through")
	}
}
