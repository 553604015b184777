// Package validate detects structural problems in a pipeline graph.
//
// Validation is a pure function over a snapshot of nodes and wires. It
// never mutates the graph and never blocks editing: results are
// advisory, surfaced to the user as badges and messages. All checks
// run independently and their results are unioned.
package validate

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/iamoneai/laneflow/pkg/flow"
)

// Severity ranks an issue. Only errors make a graph invalid.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "info"
	}
}

// MarshalJSON serializes severities by name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Issue is one finding against a specific element.
type Issue struct {
	Severity  Severity `json:"severity"`
	ElementID string   `json:"elementId"`
	Message   string   `json:"message"`
}

// Result is the outcome of one validation pass. It is a derived view
// of the input graph at call time; revalidate after any change.
type Result struct {
	Issues []Issue `json:"issues"`
	Valid  bool    `json:"isValid"`

	byElement map[string][]Issue
}

// IssuesForElement returns every issue recorded against the element.
func (r *Result) IssuesForElement(id string) []Issue { return r.byElement[id] }

// HighestSeverityForElement returns the most severe issue level for an
// element, or false if the element has no issues.
func (r *Result) HighestSeverityForElement(id string) (Severity, bool) {
	issues := r.byElement[id]
	if len(issues) == 0 {
		return 0, false
	}
	highest := issues[0].Severity
	for _, is := range issues[1:] {
		if is.Severity > highest {
			highest = is.Severity
		}
	}
	return highest, true
}

func (r *Result) add(sev Severity, elementID, format string, args ...any) {
	issue := Issue{Severity: sev, ElementID: elementID, Message: fmt.Sprintf(format, args...)}
	r.Issues = append(r.Issues, issue)
	r.byElement[elementID] = append(r.byElement[elementID], issue)
	if sev == SeverityError {
		r.Valid = false
	}
}

// Validate runs every structural check over the given snapshot:
//
//   - cycles: a directed cycle through the wires is an error on both
//     endpoint nodes of each back-edge
//   - required ports: a required input port with no incoming wire is an
//     error on its node
//   - orphans: a node with no wires at all, in a graph of more than one
//     node, is a warning (a sink with side effects is legitimate)
//   - dangling wires: a wire referencing a missing node or port is an
//     error; the document mutators cannot produce one but import can
//   - type mismatches: a wire joining incompatible port types is a
//     warning; fan-in above one into a typed port is an info
func Validate(nodes []*flow.Node, wires []*flow.Wire) *Result {
	r := &Result{Valid: true, byElement: make(map[string][]Issue)}

	byID := make(map[string]*flow.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}

	checkDangling(r, byID, wires)
	checkCycles(r, byID, wires)
	checkRequiredPorts(r, nodes, wires)
	checkOrphans(r, nodes, wires)
	checkPortTypes(r, byID, wires)

	return r
}

// ValidateDocument is a convenience wrapper over [Validate] for a whole
// document snapshot.
func ValidateDocument(doc *flow.Document) *Result {
	return Validate(doc.Nodes(), doc.Wires())
}

func checkDangling(r *Result, byID map[string]*flow.Node, wires []*flow.Wire) {
	for _, w := range wires {
		from, okFrom := byID[w.FromNode]
		if !okFrom {
			r.add(SeverityError, w.ID, "wire references missing node %s", w.FromNode)
		} else if _, ok := from.Output(w.FromPort); !ok {
			r.add(SeverityError, w.ID, "wire references missing output port %s.%s", w.FromNode, w.FromPort)
		}
		to, okTo := byID[w.ToNode]
		if !okTo {
			r.add(SeverityError, w.ID, "wire references missing node %s", w.ToNode)
		} else if _, ok := to.Input(w.ToPort); !ok {
			r.add(SeverityError, w.ID, "wire references missing input port %s.%s", w.ToNode, w.ToPort)
		}
	}
}

// checkCycles runs a depth-first traversal with white/gray/black
// coloring; every back-edge yields an error on both endpoint nodes.
func checkCycles(r *Result, byID map[string]*flow.Node, wires []*flow.Wire) {
	adjacent := make(map[string][]string)
	for _, w := range wires {
		if _, ok := byID[w.FromNode]; !ok {
			continue
		}
		if _, ok := byID[w.ToNode]; !ok {
			continue
		}
		adjacent[w.FromNode] = append(adjacent[w.FromNode], w.ToNode)
	}

	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(byID))

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, next := range adjacent[id] {
			switch color[next] {
			case white:
				dfs(next)
			case gray:
				r.add(SeverityError, id, "wire from %s to %s closes a cycle", id, next)
				r.add(SeverityError, next, "wire from %s to %s closes a cycle", id, next)
			}
		}
		color[id] = black
	}

	for _, n := range sortedIDs(byID) {
		if color[n] == white {
			dfs(n)
		}
	}
}

func checkRequiredPorts(r *Result, nodes []*flow.Node, wires []*flow.Wire) {
	wired := make(map[[2]string]bool, len(wires))
	for _, w := range wires {
		wired[[2]string{w.ToNode, w.ToPort}] = true
	}
	for _, n := range nodes {
		for _, p := range n.Inputs {
			if p.Required && !wired[[2]string{n.ID, p.Key}] {
				r.add(SeverityError, n.ID, "required input %q has no incoming wire", p.Key)
			}
		}
	}
}

func checkOrphans(r *Result, nodes []*flow.Node, wires []*flow.Wire) {
	if len(nodes) <= 1 {
		return
	}
	connected := make(map[string]bool, len(nodes))
	for _, w := range wires {
		connected[w.FromNode] = true
		connected[w.ToNode] = true
	}
	for _, n := range nodes {
		if !connected[n.ID] {
			r.add(SeverityWarning, n.ID, "node %q is not wired to anything", n.Name)
		}
	}
}

func checkPortTypes(r *Result, byID map[string]*flow.Node, wires []*flow.Wire) {
	fanIn := make(map[[2]string]int, len(wires))
	for _, w := range wires {
		from, ok := byID[w.FromNode]
		if !ok {
			continue
		}
		to, ok := byID[w.ToNode]
		if !ok {
			continue
		}
		out, okOut := from.Output(w.FromPort)
		in, okIn := to.Input(w.ToPort)
		if !okOut || !okIn {
			continue // already reported as dangling
		}
		if !out.DataType.Compatible(in.DataType) {
			r.add(SeverityWarning, w.ID, "wire joins %s output to %s input", out.DataType, in.DataType)
		}
		fanIn[[2]string{w.ToNode, w.ToPort}]++
	}
	// Fixed key order keeps issue output stable across runs
	for _, key := range slices.SortedFunc(maps.Keys(fanIn), func(a, b [2]string) int {
		if c := strings.Compare(a[0], b[0]); c != 0 {
			return c
		}
		return strings.Compare(a[1], b[1])
	}) {
		count := fanIn[key]
		if count <= 1 {
			continue
		}
		node := byID[key[0]]
		if in, ok := node.Input(key[1]); ok && in.DataType != flow.TypeAny {
			r.add(SeverityInfo, key[0], "input %q receives %d wires; values merge in completion order", key[1], count)
		}
	}
}

// sortedIDs keeps traversal order, and therefore issue output, stable.
func sortedIDs(byID map[string]*flow.Node) []string {
	return slices.Sorted(maps.Keys(byID))
}
