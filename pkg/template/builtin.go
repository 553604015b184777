package template

import "github.com/iamoneai/laneflow/pkg/flow"

// Builtin returns the default catalog shipped with the editor: a small
// set of templates per lane category covering the common pipeline
// shapes. Callers may register additional templates on top.
func Builtin() *Registry {
	r := NewRegistry()
	for _, t := range builtinTemplates {
		// Registration cannot fail here, every builtin carries an id.
		_ = r.Register(t)
	}
	return r
}

var builtinTemplates = []*Template{
	{
		ID:       "rules.condition",
		Name:     "Condition",
		Icon:     "branch",
		Category: string(flow.LaneRules),
		Color:    "#d08770",
		Inputs: []flow.Port{
			{Key: "value", Label: "Value", DataType: flow.TypeAny, Required: true},
		},
		Outputs: []flow.Port{
			{Key: "match", Label: "Match", DataType: flow.TypeBoolean},
			{Key: "value", Label: "Value", DataType: flow.TypeAny},
		},
		DefaultProperties: map[string]any{"operator": "equals", "operand": ""},
	},
	{
		ID:       "rules.transform",
		Name:     "Transform",
		Icon:     "shuffle",
		Category: string(flow.LaneRules),
		Color:    "#d08770",
		Inputs: []flow.Port{
			{Key: "input", Label: "Input", DataType: flow.TypeAny, Required: true},
		},
		Outputs: []flow.Port{
			{Key: "output", Label: "Output", DataType: flow.TypeAny},
		},
		DefaultProperties: map[string]any{"expression": "."},
	},
	{
		ID:       "llm.prompt",
		Name:     "Prompt",
		Icon:     "sparkles",
		Category: string(flow.LaneLLM),
		Color:    "#b48ead",
		Inputs: []flow.Port{
			{Key: "prompt", Label: "Prompt", DataType: flow.TypeText, Required: true},
			{Key: "context", Label: "Context", DataType: flow.TypeObject},
		},
		Outputs: []flow.Port{
			{Key: "completion", Label: "Completion", DataType: flow.TypeText},
		},
		DefaultProperties: map[string]any{"model": "default", "temperature": 0.2},
	},
	{
		ID:       "llm.classify",
		Name:     "Classify",
		Icon:     "tag",
		Category: string(flow.LaneLLM),
		Color:    "#b48ead",
		Inputs: []flow.Port{
			{Key: "text", Label: "Text", DataType: flow.TypeText, Required: true},
		},
		Outputs: []flow.Port{
			{Key: "label", Label: "Label", DataType: flow.TypeText},
			{Key: "confidence", Label: "Confidence", DataType: flow.TypeNumber},
		},
		DefaultProperties: map[string]any{"labels": []any{}},
	},
	{
		ID:       "database.query",
		Name:     "Query",
		Icon:     "database",
		Category: string(flow.LaneDatabase),
		Color:    "#88c0d0",
		Inputs: []flow.Port{
			{Key: "params", Label: "Parameters", DataType: flow.TypeObject},
		},
		Outputs: []flow.Port{
			{Key: "rows", Label: "Rows", DataType: flow.TypeArray},
		},
		DefaultProperties: map[string]any{"query": ""},
	},
	{
		ID:       "database.write",
		Name:     "Write",
		Icon:     "save",
		Category: string(flow.LaneDatabase),
		Color:    "#88c0d0",
		Inputs: []flow.Port{
			{Key: "record", Label: "Record", DataType: flow.TypeObject, Required: true},
		},
		Outputs: []flow.Port{
			{Key: "id", Label: "ID", DataType: flow.TypeText},
		},
	},
	{
		ID:       "passthrough.relay",
		Name:     "Relay",
		Icon:     "arrow-right",
		Category: string(flow.LanePassthrough),
		Color:    "#a3be8c",
		Inputs: []flow.Port{
			{Key: "input", Label: "Input", DataType: flow.TypeAny},
		},
		Outputs: []flow.Port{
			{Key: "output", Label: "Output", DataType: flow.TypeAny},
		},
	},
	{
		ID:       "passthrough.merge",
		Name:     "Merge",
		Icon:     "git-merge",
		Category: string(flow.LanePassthrough),
		Color:    "#a3be8c",
		Inputs: []flow.Port{
			{Key: "left", Label: "Left", DataType: flow.TypeAny},
			{Key: "right", Label: "Right", DataType: flow.TypeAny},
		},
		Outputs: []flow.Port{
			{Key: "merged", Label: "Merged", DataType: flow.TypeObject},
		},
	},
}
