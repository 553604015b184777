// Package dot renders documents as Graphviz DOT and rasterized
// formats. Lanes become clusters, nodes become boxes colored by lane
// type, wires become port-labeled edges. The output is an artifact
// export; it is not the interactive canvas.
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/iamoneai/laneflow/pkg/flow"
)

// Options configures DOT rendering.
type Options struct {
	// Detailed includes template ids and port labels in the output.
	// When false, only node names are shown.
	Detailed bool

	// Horizontal lays the graph out left to right instead of top down.
	Horizontal bool
}

var laneFill = map[flow.LaneType]string{
	flow.LaneRules:       "#f4ddd0",
	flow.LaneLLM:         "#e6dcec",
	flow.LaneDatabase:    "#d8e9ee",
	flow.LanePassthrough: "#e2ecd8",
}

// ToDOT converts a document to Graphviz DOT. Each lane becomes a
// cluster in lane order; nodes outside any lane render at the top
// level. The DOT string can be rendered with [RenderSVG] or
// [RenderPNG].
func ToDOT(doc *flow.Document, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Horizontal {
		buf.WriteString("  rankdir=LR;\n")
	} else {
		buf.WriteString("  rankdir=TB;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	inLane := make(map[string]bool)
	for i, lane := range doc.Lanes() {
		fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&buf, "    label=%q;\n", lane.Name)
		buf.WriteString("    style=\"rounded\";\n")
		if fill, ok := laneFill[lane.Type]; ok {
			fmt.Fprintf(&buf, "    bgcolor=%q;\n", fill)
		}
		for _, id := range lane.NodeIDs {
			node, ok := doc.Node(id)
			if !ok {
				continue
			}
			inLane[id] = true
			fmt.Fprintf(&buf, "    %q [label=%q];\n", node.ID, fmtLabel(node, opts.Detailed))
		}
		buf.WriteString("  }\n")
	}

	for _, node := range doc.Nodes() {
		if inLane[node.ID] {
			continue
		}
		fmt.Fprintf(&buf, "  %q [label=%q];\n", node.ID, fmtLabel(node, opts.Detailed))
	}

	buf.WriteString("\n")
	for _, wire := range doc.Wires() {
		if opts.Detailed {
			fmt.Fprintf(&buf, "  %q -> %q [label=%q, fontsize=10];\n",
				wire.FromNode, wire.ToNode, wire.FromPort+" -> "+wire.ToPort)
		} else {
			fmt.Fprintf(&buf, "  %q -> %q;\n", wire.FromNode, wire.ToNode)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n *flow.Node, detailed bool) string {
	name := n.Name
	if name == "" {
		name = n.ID
	}
	if !detailed {
		return name
	}
	var parts []string
	parts = append(parts, name, n.TemplateID)
	if len(n.Inputs) > 0 {
		keys := make([]string, len(n.Inputs))
		for i, p := range n.Inputs {
			keys[i] = p.Key
		}
		parts = append(parts, "in: "+strings.Join(keys, ", "))
	}
	if len(n.Outputs) > 0 {
		keys := make([]string, len(n.Outputs))
		for i, p := range n.Outputs {
			keys[i] = p.Key
		}
		parts = append(parts, "out: "+strings.Join(keys, ", "))
	}
	return strings.Join(parts, "\n")
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(dot string) ([]byte, error) {
	return render(dot, graphviz.SVG, normalizeViewBox)
}

// RenderPNG renders a DOT graph to PNG using Graphviz.
func RenderPNG(dot string) ([]byte, error) {
	return render(dot, graphviz.PNG, nil)
}

func render(dot string, format graphviz.Format, post func([]byte) []byte) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	out := buf.Bytes()
	if post != nil {
		out = post(out)
	}
	return out, nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the svg tag so the viewBox starts at the
// origin, which keeps downstream converters from clipping.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
