package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/render/dot"
)

// renderCommand creates the render command for producing visual
// artifacts from a document.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		format     string
		output     string
		detailed   bool
		horizontal bool
	)

	cmd := &cobra.Command{
		Use:   "render <document.json>",
		Short: "Render a document as DOT, SVG, or PNG",
		Long: `Render a document as DOT, SVG, or PNG.

Lanes become Graphviz clusters, nodes become boxes colored by lane
type, and wires become edges. With --detailed the output includes
template ids and port labels.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(args[0], format, output, detailed, horizontal)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: dot, svg, png")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.<format>)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include template ids and port labels")
	cmd.Flags().BoolVar(&horizontal, "horizontal", false, "lay the graph out left to right")

	return cmd
}

func (c *CLI) runRender(input, format, output string, detailed, horizontal bool) error {
	doc, _, err := readDocumentFile(input)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	graph := dot.ToDOT(doc, dot.Options{Detailed: detailed, Horizontal: horizontal})

	var data []byte
	switch strings.ToLower(format) {
	case "dot":
		data = []byte(graph)
	case "svg":
		data, err = dot.RenderSVG(graph)
	case "png":
		data, err = dot.RenderPNG(graph)
	default:
		return flowerrors.New(flowerrors.ErrCodeUnsupported, "unknown format %q (want dot, svg, or png)", format)
	}
	if err != nil {
		return err
	}
	prog.done("Rendered " + StyleValue.Render(doc.Name))

	if output == "" {
		base := strings.TrimSuffix(input, filepath.Ext(input))
		output = base + "." + strings.ToLower(format)
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return err
	}

	printSuccess("Render complete")
	printFile(output)
	return nil
}
