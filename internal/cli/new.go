package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/pkg/docio"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/flow"
)

// defaultLanes are created for a fresh canvas unless --empty is given.
var defaultLanes = []struct {
	name string
	typ  flow.LaneType
}{
	{"Rules", flow.LaneRules},
	{"LLM", flow.LaneLLM},
	{"Database", flow.LaneDatabase},
	{"Passthrough", flow.LanePassthrough},
}

// newCommand creates the new command for starting a fresh document.
func (c *CLI) newCommand() *cobra.Command {
	var (
		output string
		empty  bool
		lanes  []string
	)

	cmd := &cobra.Command{
		Use:   "new <name>",
		Short: "Create a new pipeline document",
		Long: `Create a new pipeline document.

By default the canvas starts with one lane per lane type (rules, llm,
database, passthrough). Pass --empty for a bare canvas or --lane
"Name:type" (repeatable) for a custom lane set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNew(args[0], output, empty, lanes)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <name>.json)")
	cmd.Flags().BoolVar(&empty, "empty", false, "create a canvas without lanes")
	cmd.Flags().StringArrayVar(&lanes, "lane", nil, `lane as "Name:type" (type: rules, llm, database, passthrough)`)

	return cmd
}

func (c *CLI) runNew(name, output string, empty bool, laneSpecs []string) error {
	if err := flowerrors.ValidateDocumentName(name); err != nil {
		return err
	}

	doc := flow.New(name)
	addLane := func(laneName string, laneType flow.LaneType) error {
		_, err := doc.AddLane(flow.Lane{
			Name: laneName,
			Type: laneType,
			Y:    float64(doc.LaneCount()) * flow.DefaultLaneHeight,
		})
		return err
	}
	switch {
	case empty:
	case len(laneSpecs) > 0:
		for _, spec := range laneSpecs {
			laneName, laneType, err := parseLaneSpec(spec)
			if err != nil {
				return err
			}
			if err := addLane(laneName, laneType); err != nil {
				return err
			}
		}
	default:
		for _, l := range defaultLanes {
			if err := addLane(l.name, l.typ); err != nil {
				return err
			}
		}
	}

	if output == "" {
		output = sanitizeFilename(name) + ".json"
	}
	if err := writeDocumentFile(output, doc, docio.DefaultSettings()); err != nil {
		return err
	}

	printSuccess("Created %s", StyleHighlight.Render(name))
	printFile(output)
	printStats(doc.LaneCount(), doc.NodeCount(), doc.WireCount())
	printNewline()
	printNextStep("Validate", appName+" validate "+output)
	return nil
}

func parseLaneSpec(spec string) (string, flow.LaneType, error) {
	name, typ, ok := strings.Cut(spec, ":")
	if !ok || name == "" {
		return "", "", flowerrors.New(flowerrors.ErrCodeInvalidInput, `lane spec %q must be "Name:type"`, spec)
	}
	switch lt := flow.LaneType(typ); lt {
	case flow.LaneRules, flow.LaneLLM, flow.LaneDatabase, flow.LanePassthrough:
		return name, lt, nil
	default:
		return "", "", flowerrors.New(flowerrors.ErrCodeInvalidInput, "unknown lane type %q", typ)
	}
}

// sanitizeFilename keeps document-derived filenames shell friendly.
func sanitizeFilename(name string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '-'
		default:
			return -1
		}
	}, name)
	if mapped == "" {
		return "document"
	}
	return strings.ToLower(mapped)
}
