package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iamoneai/laneflow/pkg/docio"
	"github.com/iamoneai/laneflow/pkg/engine"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

func TestParseLaneSpec(t *testing.T) {
	name, typ, err := parseLaneSpec("Scoring:rules")
	if err != nil {
		t.Fatalf("parseLaneSpec error: %v", err)
	}
	if name != "Scoring" || typ != flow.LaneRules {
		t.Errorf("Spec parse unexpected: %s %s", name, typ)
	}

	for _, bad := range []string{"NoType", ":rules", "Name:banana", ""} {
		if _, _, err := parseLaneSpec(bad); !flowerrors.Is(err, flowerrors.ErrCodeInvalidInput) {
			t.Errorf("Spec %q should be rejected: %v", bad, err)
		}
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"Order Pipeline":  "order-pipeline",
		"my_doc-2":        "my_doc-2",
		"weird/../chars!": "weirdchars",
		"日本語":             "document",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"", "simulated", "sim", "SIM"} {
		mode, err := parseMode(s)
		if err != nil || mode != engine.ModeSimulated {
			t.Errorf("parseMode(%q) = %s, %v", s, mode, err)
		}
	}
	mode, err := parseMode("live")
	if err != nil || mode != engine.ModeLive {
		t.Errorf("parseMode(live) = %s, %v", mode, err)
	}
	if _, err := parseMode("dry-run"); !flowerrors.Is(err, flowerrors.ErrCodeInvalidInput) {
		t.Errorf("Unknown mode should be rejected: %v", err)
	}
}

func TestParseInput(t *testing.T) {
	// Empty means no input
	input, err := parseInput("")
	if err != nil || input != nil {
		t.Errorf("Empty arg should yield nil input: %v %v", input, err)
	}

	// Inline JSON
	input, err = parseInput(`{"total": 42}`)
	if err != nil {
		t.Fatalf("parseInput error: %v", err)
	}
	if input["total"] != float64(42) {
		t.Errorf("Inline input unexpected: %v", input)
	}

	// @file reads from disk
	path := filepath.Join(t.TempDir(), "input.json")
	os.WriteFile(path, []byte(`{"source": "file"}`), 0o600)
	input, err = parseInput("@" + path)
	if err != nil {
		t.Fatalf("parseInput error: %v", err)
	}
	if input["source"] != "file" {
		t.Errorf("File input unexpected: %v", input)
	}

	// Errors
	if _, err := parseInput("not json"); !flowerrors.Is(err, flowerrors.ErrCodeInvalidInput) {
		t.Errorf("Malformed JSON should be rejected: %v", err)
	}
	if _, err := parseInput("@/nonexistent/input.json"); !flowerrors.Is(err, flowerrors.ErrCodeInvalidInput) {
		t.Errorf("Missing file should be rejected: %v", err)
	}
}

func TestDocumentFileRoundTrip(t *testing.T) {
	doc := flow.New("CLI Test")
	lane, err := doc.AddLane(flow.Lane{Name: "Rules", Type: flow.LaneRules})
	if err != nil {
		t.Fatalf("AddLane: %v", err)
	}
	if _, err := doc.AddNode(flow.Node{
		TemplateID: "rules.condition",
		Name:       "Check",
		LaneID:     lane.ID,
		Outputs:    []flow.Port{{Key: "out", DataType: flow.TypeAny}},
	}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "doc.json")
	settings := docio.Settings{Zoom: 2}
	if err := writeDocumentFile(path, doc, settings); err != nil {
		t.Fatalf("writeDocumentFile error: %v", err)
	}

	restored, env, err := readDocumentFile(path)
	if err != nil {
		t.Fatalf("readDocumentFile error: %v", err)
	}
	if restored.Name != "CLI Test" || restored.NodeCount() != 1 || restored.LaneCount() != 1 {
		t.Errorf("Round trip unexpected: %s %d/%d", restored.Name, restored.NodeCount(), restored.LaneCount())
	}
	if env.Settings.Zoom != 2 {
		t.Errorf("Settings should round-trip: %+v", env.Settings)
	}

	// Missing and malformed files fail with structured errors
	if _, _, err := readDocumentFile(filepath.Join(t.TempDir(), "missing.json")); !flowerrors.Is(err, flowerrors.ErrCodeInvalidInput) {
		t.Errorf("Missing file error unexpected: %v", err)
	}
	broken := filepath.Join(t.TempDir(), "broken.json")
	os.WriteFile(broken, []byte("{"), 0o600)
	if _, _, err := readDocumentFile(broken); !flowerrors.Is(err, flowerrors.ErrCodeInvalidFormat) {
		t.Errorf("Broken file error unexpected: %v", err)
	}
}

func TestRunRenderFormats(t *testing.T) {
	doc := flow.New("Render Test")
	if _, err := doc.AddNode(flow.Node{Name: "Step"}); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "doc.json")
	if err := writeDocumentFile(path, doc, docio.DefaultSettings()); err != nil {
		t.Fatalf("writeDocumentFile error: %v", err)
	}

	c := New(os.Stderr, LogInfo)

	// An unrecognized format is rejected before any file is written
	if err := c.runRender(path, "pdf", "", false, false); !flowerrors.Is(err, flowerrors.ErrCodeUnsupported) {
		t.Errorf("Unknown format error unexpected: %v", err)
	}

	// DOT output needs no graphviz layout pass
	out := filepath.Join(t.TempDir(), "doc.dot")
	if err := c.runRender(path, "dot", out, false, false); err != nil {
		t.Fatalf("runRender error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if !strings.Contains(string(data), "digraph") {
		t.Errorf("DOT output unexpected: %s", data)
	}
}

func TestRunNewCreatesDocument(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "fresh.json")

	c := New(os.Stderr, LogInfo)
	if err := c.runNew("Fresh Pipeline", out, false, nil); err != nil {
		t.Fatalf("runNew error: %v", err)
	}

	doc, _, err := readDocumentFile(out)
	if err != nil {
		t.Fatalf("readDocumentFile error: %v", err)
	}
	if doc.Name != "Fresh Pipeline" {
		t.Errorf("Document name unexpected: %s", doc.Name)
	}
	// Default canvas carries one lane per type, stacked vertically
	lanes := doc.Lanes()
	if len(lanes) != 4 {
		t.Fatalf("Default lane set unexpected: %d", len(lanes))
	}
	for i, lane := range lanes {
		if lane.Order != i {
			t.Errorf("Lane order unexpected: %+v", lane)
		}
		if lane.Y != float64(i)*flow.DefaultLaneHeight {
			t.Errorf("Lane stacking unexpected: %+v", lane)
		}
	}
}

func TestRunNewCustomLanes(t *testing.T) {
	out := filepath.Join(t.TempDir(), "custom.json")
	c := New(os.Stderr, LogInfo)
	if err := c.runNew("Custom", out, false, []string{"Scoring:rules", "Draft:llm"}); err != nil {
		t.Fatalf("runNew error: %v", err)
	}

	doc, _, err := readDocumentFile(out)
	if err != nil {
		t.Fatalf("readDocumentFile error: %v", err)
	}
	lanes := doc.Lanes()
	if len(lanes) != 2 || lanes[0].Name != "Scoring" || lanes[1].Type != flow.LaneLLM {
		t.Errorf("Custom lanes unexpected: %+v", lanes)
	}

	// Empty canvas
	out = filepath.Join(t.TempDir(), "empty.json")
	if err := c.runNew("Empty", out, true, nil); err != nil {
		t.Fatalf("runNew error: %v", err)
	}
	doc, _, _ = readDocumentFile(out)
	if doc.LaneCount() != 0 {
		t.Errorf("Empty canvas should have no lanes: %d", doc.LaneCount())
	}

	// Invalid name is rejected before any file is written
	if err := c.runNew("", out, true, nil); !flowerrors.Is(err, flowerrors.ErrCodeInvalidDocument) {
		t.Errorf("Empty name should be rejected: %v", err)
	}
}

func TestRootCommand(t *testing.T) {
	c := New(os.Stderr, LogInfo)
	root := c.RootCommand()
	if root.Use != appName {
		t.Errorf("Root use unexpected: %s", root.Use)
	}

	// Every top-level command is registered
	want := []string{"new", "validate", "layout", "run", "import", "export", "list", "snapshot", "render", "serve", "completion"}
	have := make(map[string]bool)
	for _, cmd := range root.Commands() {
		have[cmd.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("Command %s should be registered", name)
		}
	}
}
