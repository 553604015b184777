// Package template is the node template catalog. A template describes
// a palette entry: identity, visual hints, typed ports, and default
// properties. Instantiating a node freezes a copy of the template's
// ports onto the node, so later catalog changes never retroactively
// alter documents.
package template

import (
	"maps"
	"slices"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// Template describes one palette entry.
type Template struct {
	ID                string         `json:"id" toml:"id"`
	Name              string         `json:"name" toml:"name"`
	Icon              string         `json:"icon" toml:"icon"`
	Category          string         `json:"category" toml:"category"`
	Color             string         `json:"color" toml:"color"`
	Inputs            []flow.Port    `json:"inputs" toml:"inputs"`
	Outputs           []flow.Port    `json:"outputs" toml:"outputs"`
	DefaultProperties map[string]any `json:"defaultProperties,omitempty" toml:"default_properties"`
}

// Clone returns a deep copy so callers can mutate freely.
func (t *Template) Clone() *Template {
	c := *t
	c.Inputs = slices.Clone(t.Inputs)
	c.Outputs = slices.Clone(t.Outputs)
	if t.DefaultProperties != nil {
		c.DefaultProperties = maps.Clone(t.DefaultProperties)
	}
	return &c
}

// Catalog resolves templates for node instantiation and palette
// display.
type Catalog interface {
	// Template returns the template with the given id, or a
	// TEMPLATE_NOT_FOUND error.
	Template(id string) (*Template, error)

	// TemplatesByCategory groups all templates by category, each group
	// in registration order.
	TemplatesByCategory() map[string][]*Template
}

// Registry is an in-memory Catalog keyed by template id, preserving
// registration order.
type Registry struct {
	byID  map[string]*Template
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Template)}
}

// Register adds or replaces a template. Replacement keeps the original
// registration position.
func (r *Registry) Register(t *Template) error {
	if t == nil || t.ID == "" {
		return flowerrors.New(flowerrors.ErrCodeInvalidTemplate, "template requires an id")
	}
	if _, exists := r.byID[t.ID]; !exists {
		r.order = append(r.order, t.ID)
	}
	r.byID[t.ID] = t.Clone()
	return nil
}

// Template implements Catalog.
func (r *Registry) Template(id string) (*Template, error) {
	t, ok := r.byID[id]
	if !ok {
		return nil, flowerrors.New(flowerrors.ErrCodeTemplateNotFound, "unknown template: %s", id)
	}
	return t.Clone(), nil
}

// TemplatesByCategory implements Catalog.
func (r *Registry) TemplatesByCategory() map[string][]*Template {
	grouped := make(map[string][]*Template)
	for _, id := range r.order {
		t := r.byID[id]
		grouped[t.Category] = append(grouped[t.Category], t.Clone())
	}
	return grouped
}

// OutputPorts returns a template's declared output ports, or nil when
// the template is unknown. Satisfies the simulated invoker's port
// source without an error path.
func (r *Registry) OutputPorts(templateID string) []flow.Port {
	t, ok := r.byID[templateID]
	if !ok {
		return nil
	}
	return slices.Clone(t.Outputs)
}

// Instantiate builds a document node from a template, freezing copies
// of the template ports and default properties onto it. The returned
// node has no id or position; the document assigns those on AddNode.
func Instantiate(t *Template) *flow.Node {
	n := &flow.Node{
		TemplateID: t.ID,
		Name:       t.Name,
		Category:   t.Category,
		Inputs:     slices.Clone(t.Inputs),
		Outputs:    slices.Clone(t.Outputs),
	}
	if len(t.DefaultProperties) > 0 {
		n.Properties = maps.Clone(t.DefaultProperties)
	}
	return n
}
