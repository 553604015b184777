// Package cli implements the laneflow command-line interface.
//
// This package provides commands for creating, validating, laying out,
// executing, and rendering pipeline documents, plus document store
// management and an HTTP server mode. The CLI is built using cobra and
// supports verbose logging via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - new: Create an empty pipeline document
//   - validate: Run structural validation over a document
//   - layout: Auto-arrange a document's nodes
//   - run: Execute a document in simulated or live mode
//   - import / export / list: Move documents between files and the store
//   - snapshot: Manage named snapshots of stored documents
//   - render: Generate DOT, SVG, or PNG visualizations
//   - serve: Expose the document store and engine over HTTP
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context to allow structured progress
// tracking.
package cli

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "laneflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Laneflow edits and executes lane-based pipeline documents",
		Long:         `Laneflow is a CLI for building visual pipeline documents: swimlane canvases of typed nodes joined by wires, with validation, auto-layout, step-through execution, and persistence.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.newCommand())
	root.AddCommand(c.validateCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.listCommand())
	root.AddCommand(c.snapshotCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}
