package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/pkg/engine"
	flowerrors "github.com/iamoneai/laneflow/pkg/errors"
	"github.com/iamoneai/laneflow/pkg/validate"
)

// runCommand creates the run command for executing documents.
func (c *CLI) runCommand() *cobra.Command {
	var (
		mode        string
		inputArg    string
		step        bool
		catalogPath string
		jsonOut     bool
	)

	cmd := &cobra.Command{
		Use:   "run <document.json>",
		Short: "Execute a pipeline document",
		Long: `Execute a pipeline document.

Nodes run one at a time in dependency order. Simulated mode (the
default) fabricates deterministic outputs without side effects; live
mode posts each node to the configured remote invoker. With --step the
run pauses before every node and advances on keypress.

The --input value is either inline JSON or an @-prefixed path to a
JSON file; it is handed to every source node.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRun(cmd.Context(), args[0], mode, inputArg, catalogPath, step, jsonOut)
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "simulated", "execution mode: simulated, live")
	cmd.Flags().StringVarP(&inputArg, "input", "i", "", "sample input as inline JSON or @file.json")
	cmd.Flags().BoolVar(&step, "step", false, "pause before each node; advance interactively")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "TOML template catalog file")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the run result as JSON")

	return cmd
}

func (c *CLI) runRun(ctx context.Context, path, modeStr, inputArg, catalogPath string, step, jsonOut bool) error {
	doc, _, err := readDocumentFile(path)
	if err != nil {
		return err
	}

	mode, err := parseMode(modeStr)
	if err != nil {
		return err
	}
	input, err := parseInput(inputArg)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(catalogPath)
	if err != nil {
		return err
	}
	invoker, err := newInvoker(mode, catalog)
	if err != nil {
		return err
	}

	// Surface structural problems before the engine rejects them.
	if result := validate.ValidateDocument(doc); !result.Valid {
		for _, issue := range result.Issues {
			if issue.Severity == validate.SeverityError {
				printIssue(issue)
			}
		}
		return flowerrors.New(flowerrors.ErrCodeInvalidDocument, "document %s failed validation", doc.Name)
	}

	eng := engine.New(invoker)

	var result *engine.Result
	if step {
		result, err = c.runStepped(ctx, eng, doc, input, mode)
	} else {
		prog := newProgress(loggerFromContext(ctx))
		result, err = eng.Execute(ctx, doc, input, engine.Options{Mode: mode})
		if err == nil {
			prog.done(fmt.Sprintf("Executed %d nodes", len(result.Trace)))
		}
	}
	if err != nil {
		return err
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	printRunResult(result)
	if !result.Success {
		return flowerrors.New(flowerrors.ErrCodeExecutionFault, "run of %s did not complete cleanly", doc.Name)
	}
	return nil
}

func parseMode(s string) (engine.Mode, error) {
	switch strings.ToLower(s) {
	case "simulated", "sim", "":
		return engine.ModeSimulated, nil
	case "live":
		return engine.ModeLive, nil
	default:
		return "", flowerrors.New(flowerrors.ErrCodeInvalidInput, "unknown mode %q (want simulated or live)", s)
	}
}

// parseInput accepts inline JSON or "@path" for a JSON file.
func parseInput(arg string) (map[string]any, error) {
	if arg == "" {
		return nil, nil
	}

	data := []byte(arg)
	if strings.HasPrefix(arg, "@") {
		var err error
		data, err = os.ReadFile(arg[1:])
		if err != nil {
			return nil, flowerrors.Wrap(flowerrors.ErrCodeInvalidInput, err, "read input file")
		}
	}

	var input map[string]any
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, flowerrors.Wrap(flowerrors.ErrCodeInvalidInput, err, "parse input JSON")
	}
	return input, nil
}

func printRunResult(result *engine.Result) {
	printNewline()
	for _, entry := range result.Trace {
		printTraceEntry(entry)
	}
	printNewline()

	if result.Success {
		printSuccess("Run completed in %s", result.TotalDuration.Round(time.Millisecond).String())
	} else {
		printError("Run finished with failures (%s)", result.TotalDuration.Round(time.Millisecond).String())
	}

	if len(result.FinalOutput) > 0 {
		printNewline()
		printInfo("Final output")
		data, err := json.MarshalIndent(result.FinalOutput, "  ", "  ")
		if err == nil {
			fmt.Println("  " + string(data))
		}
	}
}

func printTraceEntry(entry engine.TraceEntry) {
	name := entry.NodeName
	if name == "" {
		name = entry.NodeID
	}
	switch entry.State {
	case engine.StateCompleted:
		printSuccess("%s %s", name, StyleDim.Render(entry.Duration.Round(time.Millisecond).String()))
	case engine.StateError:
		printError("%s %s", name, StyleError.Render(entry.Fault))
	case engine.StateSkipped:
		printDetail("%s skipped", name)
	}
}
