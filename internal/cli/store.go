package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/pkg/docio"
	"github.com/iamoneai/laneflow/pkg/store"
)

// importCommand creates the import command for saving a document file
// into the store.
func (c *CLI) importCommand() *cobra.Command {
	var id string

	cmd := &cobra.Command{
		Use:   "import <document.json>",
		Short: "Import a document file into the document store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runImport(cmd.Context(), args[0], id)
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "document id (default: derived from the document name)")

	return cmd
}

func (c *CLI) runImport(ctx context.Context, path, id string) error {
	doc, env, err := readDocumentFile(path)
	if err != nil {
		return err
	}

	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if id == "" {
		id = sanitizeFilename(doc.Name)
	}
	if err := st.Save(ctx, id, env); err != nil {
		return err
	}

	printSuccess("Imported %s", StyleHighlight.Render(doc.Name))
	printKeyValue("id", id)
	printStats(doc.LaneCount(), doc.NodeCount(), doc.WireCount())
	printNewline()
	printNextStep("Snapshot", appName+" snapshot save "+id+" --name baseline")
	return nil
}

// exportCommand creates the export command for writing a stored
// document to a file.
func (c *CLI) exportCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export <id>",
		Short: "Export a stored document to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExport(cmd.Context(), args[0], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <id>.json)")

	return cmd
}

func (c *CLI) runExport(ctx context.Context, id, output string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	env, err := st.Load(ctx, id)
	if err != nil {
		return err
	}

	if output == "" {
		output = id + ".json"
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := docio.Write(f, env); err != nil {
		return err
	}

	printSuccess("Exported %s", StyleHighlight.Render(env.Name))
	printFile(output)
	return nil
}

// listCommand creates the list command for showing stored documents.
func (c *CLI) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents in the document store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context())
		},
	}
}

func (c *CLI) runList(ctx context.Context) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	infos, err := st.List(ctx)
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		printInfo("No documents stored")
		return nil
	}

	for _, info := range infos {
		printDocumentInfo(info)
	}
	return nil
}

func printDocumentInfo(info store.DocumentInfo) {
	printInfo("%s %s", StyleValue.Render(info.ID), StyleDim.Render(info.Name))
	printDetail("updated %s", info.UpdatedAt.Format("2006-01-02 15:04:05"))
}
