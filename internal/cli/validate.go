package cli

import (
	"github.com/spf13/cobra"

	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/validate"
)

// validateCommand creates the validate command for checking document structure.
func (c *CLI) validateCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <document.json>",
		Short: "Run structural validation over a pipeline document",
		Long: `Run structural validation over a pipeline document.

Checks for cycles, unconnected required input ports, orphaned nodes,
dangling wires, and port type mismatches. Errors make the document
invalid; warnings and infos are advisory.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runValidate(args[0], strict)
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures")

	return cmd
}

func (c *CLI) runValidate(path string, strict bool) error {
	doc, _, err := readDocumentFile(path)
	if err != nil {
		return err
	}

	result := validate.ValidateDocument(doc)
	for _, issue := range result.Issues {
		printIssue(issue)
	}

	failed := !result.Valid
	if strict && !failed {
		for _, issue := range result.Issues {
			if issue.Severity == validate.SeverityWarning {
				failed = true
				break
			}
		}
	}

	if failed {
		printNewline()
		printError("%s has structural problems", path)
		return flowerrors.New(flowerrors.ErrCodeInvalidDocument, "document %s failed validation", doc.Name)
	}

	printSuccess("%s is valid", StyleHighlight.Render(doc.Name))
	printStats(doc.LaneCount(), doc.NodeCount(), doc.WireCount())
	return nil
}
