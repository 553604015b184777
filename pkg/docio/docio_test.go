package docio

import (
	"bytes"
	"strings"
	"testing"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

func buildDocument(t *testing.T) *flow.Document {
	t.Helper()
	doc := flow.New("Order Pipeline")
	lane, err := doc.AddLane(flow.Lane{Name: "Rules", Type: flow.LaneRules})
	if err != nil {
		t.Fatalf("AddLane: %v", err)
	}
	a, err := doc.AddNode(flow.Node{
		TemplateID: "rules.condition",
		Name:       "Check",
		LaneID:     lane.ID,
		Position:   flow.Position{X: 40, Y: 60},
		Inputs:     []flow.Port{{Key: "in", DataType: flow.TypeAny}},
		Outputs:    []flow.Port{{Key: "out", DataType: flow.TypeBoolean}},
		Properties: map[string]any{"expression": "total > 100"},
	})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	b, err := doc.AddNode(flow.Node{
		TemplateID: "passthrough.relay",
		Name:       "Relay",
		Inputs:     []flow.Port{{Key: "in", DataType: flow.TypeAny}},
		Outputs:    []flow.Port{{Key: "out", DataType: flow.TypeAny}},
	})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if _, err := doc.AddWire(flow.Wire{FromNode: a.ID, FromPort: "out", ToNode: b.ID, ToPort: "in"}); err != nil {
		t.Fatalf("AddWire: %v", err)
	}
	return doc
}

func TestRoundTrip(t *testing.T) {
	doc := buildDocument(t)
	settings := Settings{Zoom: 1.5, Offset: flow.Position{X: 10, Y: 20}}

	var buf bytes.Buffer
	if err := Write(&buf, Export(doc, settings)); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	env, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	if env.Version != Version || env.Name != "Order Pipeline" {
		t.Errorf("Envelope header unexpected: %+v", env)
	}
	if env.Settings.Zoom != 1.5 {
		t.Errorf("Settings should round-trip: %+v", env.Settings)
	}

	restored, err := Import(env)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if restored.LaneCount() != 1 || restored.NodeCount() != 2 || restored.WireCount() != 1 {
		t.Errorf("Element counts should round-trip: %d/%d/%d",
			restored.LaneCount(), restored.NodeCount(), restored.WireCount())
	}

	// Element content survives, including properties and lane membership
	orig := doc.Nodes()[0]
	got, ok := restored.Node(orig.ID)
	if !ok {
		t.Fatalf("Node %s should survive the round trip", orig.ID)
	}
	if got.Properties["expression"] != "total > 100" {
		t.Errorf("Properties should round-trip: %v", got.Properties)
	}
	if got.LaneID != orig.LaneID {
		t.Errorf("Lane membership should round-trip: %s", got.LaneID)
	}
	lane := restored.Lanes()[0]
	if len(lane.NodeIDs) != 1 || lane.NodeIDs[0] != orig.ID {
		t.Errorf("Lane node list should round-trip: %v", lane.NodeIDs)
	}
}

func TestEmptyDocumentRoundTrip(t *testing.T) {
	doc := flow.New("empty")

	var buf bytes.Buffer
	if err := Write(&buf, Export(doc, DefaultSettings())); err != nil {
		t.Fatalf("Write error: %v", err)
	}
	// An empty canvas must serialize as empty lists, not null
	if strings.Contains(buf.String(), "null") {
		t.Errorf("Empty canvas should encode as empty lists: %s", buf.String())
	}

	env, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read should accept its own empty export: %v", err)
	}
	restored, err := Import(env)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}
	if restored.Name != "empty" || restored.NodeCount() != 0 {
		t.Errorf("Empty document should round-trip: %q %d", restored.Name, restored.NodeCount())
	}

	// A present canvas key with null element lists is still a canvas
	env, err = Read(strings.NewReader(`{"version":"1.0","name":"x","canvas":{"lanes":null,"nodes":null,"wires":null}}`))
	if err != nil {
		t.Fatalf("Null element lists should not fail Read: %v", err)
	}
	if _, err := Import(env); err != nil {
		t.Errorf("Import error: %v", err)
	}
}

func TestImportCounterFollowsHighestSuffix(t *testing.T) {
	env := &Envelope{
		Version: Version,
		Name:    "test",
		Canvas: Canvas{
			Nodes: []flow.Node{
				{ID: "node-3", Name: "A"},
				{ID: "node-7", Name: "B"},
			},
		},
	}
	doc, err := Import(env)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}

	// The next minted id must not collide with any imported one
	id := doc.NextID("node")
	if id != "node-8" {
		t.Errorf("Counter should continue past the highest suffix: %s", id)
	}
}

func TestImportFillsDefaults(t *testing.T) {
	env := &Envelope{
		Version: Version,
		Name:    "test",
		Canvas: Canvas{
			Lanes: []flow.Lane{{ID: "lane-1", Name: "Bare"}},
			Nodes: []flow.Node{{ID: "node-1", Name: "Bare"}},
		},
	}
	doc, err := Import(env)
	if err != nil {
		t.Fatalf("Import error: %v", err)
	}

	lane, _ := doc.Lane("lane-1")
	if lane.Height != flow.DefaultLaneHeight || lane.Type != flow.LanePassthrough {
		t.Errorf("Lane defaults should be filled: %+v", lane)
	}
	node, _ := doc.Node("node-1")
	if node.Size.W != flow.DefaultNodeWidth || node.Size.H != flow.DefaultNodeHeight {
		t.Errorf("Node size defaults should be filled: %+v", node.Size)
	}
}

func TestImportRejectsBrokenEnvelopes(t *testing.T) {
	// Wire referencing a missing node aborts the import
	env := &Envelope{
		Version: Version,
		Name:    "test",
		Canvas: Canvas{
			Nodes: []flow.Node{{ID: "node-1", Name: "A"}},
			Wires: []flow.Wire{{ID: "wire-1", FromNode: "node-1", FromPort: "out", ToNode: "ghost", ToPort: "in"}},
		},
	}
	if _, err := Import(env); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Dangling wire should abort import: %v", err)
	}

	// Elements without ids abort too
	env = &Envelope{Version: Version, Name: "test", Canvas: Canvas{Nodes: []flow.Node{{Name: "A"}}}}
	if _, err := Import(env); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Node without id should abort import: %v", err)
	}

	// Invalid document name
	env = &Envelope{Version: Version, Name: "", Canvas: Canvas{Nodes: []flow.Node{}}}
	if _, err := Import(env); !flowerrors.Is(err, flowerrors.ErrCodeInvalidDocument) {
		t.Errorf("Empty name should abort import: %v", err)
	}
}

func TestReadRejectsMalformedInput(t *testing.T) {
	// Not JSON at all
	if _, err := Read(strings.NewReader("not json")); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Malformed JSON should fail: %v", err)
	}

	// Missing version
	if _, err := Read(strings.NewReader(`{"name":"x","canvas":{"nodes":[]}}`)); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Missing version should fail: %v", err)
	}

	// Missing canvas
	if _, err := Read(strings.NewReader(`{"version":"1.0","name":"x"}`)); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Missing canvas should fail: %v", err)
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	doc := buildDocument(t)
	data, err := Marshal(doc, DefaultSettings())
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if restored.NodeCount() != doc.NodeCount() || restored.WireCount() != doc.WireCount() {
		t.Errorf("Blob round trip should preserve counts: %d/%d",
			restored.NodeCount(), restored.WireCount())
	}

	if _, err := Unmarshal([]byte("{}")); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Empty blob should fail: %v", err)
	}
}

func TestExportDetachesFromDocument(t *testing.T) {
	doc := buildDocument(t)
	env := Export(doc, DefaultSettings())
	if env.ExportedAt.IsZero() {
		t.Error("Export should stamp a timestamp")
	}

	// Mutating the document after export does not change the envelope
	nodeCount := len(env.Canvas.Nodes)
	doc.RemoveNode(doc.Nodes()[0].ID)
	if len(env.Canvas.Nodes) != nodeCount {
		t.Error("Envelope should be detached from the document")
	}
}
