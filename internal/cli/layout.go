package cli

import (
	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/pkg/layout"
)

// layoutCommand creates the layout command for auto-arranging nodes.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "layout <document.json>",
		Short: "Auto-arrange a document's nodes by dependency depth",
		Long: `Auto-arrange a document's nodes by dependency depth.

Nodes are placed on a column grid: sources in the first column, each
other node one column right of its deepest upstream dependency. Nodes
sharing a column are spaced evenly top to bottom. Nodes trapped in a
cycle fall into an overflow row below the grid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayoutCmd(args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: overwrite input)")

	return cmd
}

func (c *CLI) runLayoutCmd(input, output string) error {
	doc, env, err := readDocumentFile(input)
	if err != nil {
		return err
	}

	prog := newProgress(c.Logger)
	positions := layout.Calculate(doc.Nodes(), doc.Wires())
	for id, pos := range positions {
		doc.MoveNode(id, pos.X, pos.Y)
	}
	prog.done("Arranged " + StyleValue.Render(doc.Name))

	if output == "" {
		output = input
	}
	if err := writeDocumentFile(output, doc, env.Settings); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(doc.LaneCount(), doc.NodeCount(), doc.WireCount())
	return nil
}
