package template

import (
	"os"
	"path/filepath"
	"testing"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	tpl := &Template{
		ID:       "test.echo",
		Name:     "Echo",
		Category: "passthrough",
		Outputs:  []flow.Port{{Key: "out", DataType: flow.TypeAny}},
	}
	if err := r.Register(tpl); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	got, err := r.Template("test.echo")
	if err != nil {
		t.Fatalf("Template error: %v", err)
	}
	if got.Name != "Echo" {
		t.Errorf("Template unexpected: %+v", got)
	}

	// Lookups return clones, not the stored value
	got.Name = "mutated"
	again, _ := r.Template("test.echo")
	if again.Name != "Echo" {
		t.Error("Template should return a clone")
	}

	// Unknown ids carry the not-found code
	if _, err := r.Template("ghost"); !flowerrors.Is(err, flowerrors.ErrCodeTemplateNotFound) {
		t.Errorf("Unknown template error unexpected: %v", err)
	}

	// Templates without ids are rejected
	if err := r.Register(&Template{Name: "anonymous"}); !flowerrors.Is(err, flowerrors.ErrCodeInvalidTemplate) {
		t.Errorf("Missing id should be rejected: %v", err)
	}
	if err := r.Register(nil); err == nil {
		t.Error("Nil template should be rejected")
	}
}

func TestRegisterReplaceKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Register(&Template{ID: "a", Category: "x"})
	r.Register(&Template{ID: "b", Category: "x"})
	r.Register(&Template{ID: "a", Name: "replaced", Category: "x"})

	group := r.TemplatesByCategory()["x"]
	if len(group) != 2 {
		t.Fatalf("Replacement should not duplicate: %d", len(group))
	}
	if group[0].ID != "a" || group[0].Name != "replaced" {
		t.Errorf("Replacement should keep registration position: %+v", group[0])
	}
}

func TestTemplatesByCategory(t *testing.T) {
	r := Builtin()
	grouped := r.TemplatesByCategory()

	// Every lane category has at least one builtin
	for _, cat := range []string{"rules", "llm", "database", "passthrough"} {
		if len(grouped[cat]) == 0 {
			t.Errorf("Category %s should have builtins", cat)
		}
	}
}

func TestBuiltinCatalog(t *testing.T) {
	r := Builtin()
	tpl, err := r.Template("llm.prompt")
	if err != nil {
		t.Fatalf("Builtin llm.prompt should exist: %v", err)
	}
	in, ok := findPort(tpl.Inputs, "prompt")
	if !ok || !in.Required || in.DataType != flow.TypeText {
		t.Errorf("Prompt input unexpected: %+v", in)
	}
}

func findPort(ports []flow.Port, key string) (flow.Port, bool) {
	for _, p := range ports {
		if p.Key == key {
			return p, true
		}
	}
	return flow.Port{}, false
}

func TestOutputPorts(t *testing.T) {
	r := Builtin()
	ports := r.OutputPorts("llm.classify")
	if len(ports) != 2 {
		t.Fatalf("Classify should declare two outputs: %v", ports)
	}
	if r.OutputPorts("ghost") != nil {
		t.Error("Unknown template should yield nil ports")
	}
}

func TestInstantiate(t *testing.T) {
	r := Builtin()
	tpl, _ := r.Template("rules.condition")
	n := Instantiate(tpl)

	if n.TemplateID != "rules.condition" || n.Category != "rules" {
		t.Errorf("Node identity unexpected: %+v", n)
	}
	if n.ID != "" {
		t.Error("Instantiate should leave id assignment to the document")
	}
	if len(n.Outputs) != 2 {
		t.Errorf("Template ports should be frozen onto the node: %v", n.Outputs)
	}
	if n.Properties["operator"] != "equals" {
		t.Errorf("Default properties should be copied: %v", n.Properties)
	}

	// The frozen copy is detached from the template
	n.Outputs[0].Key = "mutated"
	n.Properties["operator"] = "mutated"
	again, _ := r.Template("rules.condition")
	if again.Outputs[0].Key != "match" || again.DefaultProperties["operator"] != "equals" {
		t.Error("Node mutation should not reach the catalog")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.toml")
	content := `
[[template]]
id = "llm.summarize"
name = "Summarize"
category = "llm"
color = "#b48ead"

[template.default_properties]
model = "small"

[[template.inputs]]
key = "text"
dataType = "text"
required = true

[[template.outputs]]
key = "summary"
dataType = "text"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	r := Builtin()
	if err := LoadFile(r, path); err != nil {
		t.Fatalf("LoadFile error: %v", err)
	}
	tpl, err := r.Template("llm.summarize")
	if err != nil {
		t.Fatalf("Loaded template should resolve: %v", err)
	}
	if len(tpl.Inputs) != 1 || !tpl.Inputs[0].Required {
		t.Errorf("Ports should parse: %+v", tpl.Inputs)
	}
	if tpl.DefaultProperties["model"] != "small" {
		t.Errorf("Default properties should parse: %v", tpl.DefaultProperties)
	}

	// Builtins survive alongside loaded templates
	if _, err := r.Template("rules.condition"); err != nil {
		t.Errorf("Builtins should survive a catalog load: %v", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	r := NewRegistry()
	if err := LoadFile(r, filepath.Join(t.TempDir(), "missing.toml")); !flowerrors.Is(err, flowerrors.ErrCodeInvalidTemplate) {
		t.Errorf("Missing file should fail with a template error: %v", err)
	}

	path := filepath.Join(t.TempDir(), "broken.toml")
	os.WriteFile(path, []byte("[[template\n"), 0o600)
	if err := LoadFile(r, path); !flowerrors.Is(err, flowerrors.ErrCodeInvalidTemplate) {
		t.Errorf("Malformed TOML should fail with a template error: %v", err)
	}
}
