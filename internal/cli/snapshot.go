package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/iamoneai/laneflow/pkg/docio"
)

// snapshotCommand creates the snapshot command group for managing
// named snapshots of stored documents.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage named snapshots of stored documents",
		Long: `Manage named snapshots of stored documents.

A snapshot is an immutable copy of a stored document taken at save
time. Restoring writes the snapshot back as the live document (or to a
file with --output) without deleting the snapshot itself.`,
	}

	cmd.AddCommand(c.snapshotSaveCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotRestoreCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

func (c *CLI) snapshotSaveCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "save <document-id>",
		Short: "Save a snapshot of a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotSave(cmd.Context(), args[0], name)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "snapshot name")
	cmd.MarkFlagRequired("name")

	return cmd
}

func (c *CLI) runSnapshotSave(ctx context.Context, docID, name string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	env, err := st.Load(ctx, docID)
	if err != nil {
		return err
	}
	snapshotID, err := st.SaveSnapshot(ctx, docID, name, env)
	if err != nil {
		return err
	}

	printSuccess("Saved snapshot %s", StyleHighlight.Render(name))
	printKeyValue("id", snapshotID)
	return nil
}

func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <document-id>",
		Short: "List a document's snapshots",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotList(cmd.Context(), args[0])
		},
	}
}

func (c *CLI) runSnapshotList(ctx context.Context, docID string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	snaps, err := st.ListSnapshots(ctx, docID)
	if err != nil {
		return err
	}
	if len(snaps) == 0 {
		printInfo("No snapshots for %s", docID)
		return nil
	}

	for _, snap := range snaps {
		printInfo("%s %s", StyleValue.Render(snap.ID), StyleDim.Render(snap.Name))
		printDetail("created %s", snap.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func (c *CLI) snapshotRestoreCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "restore <document-id> <snapshot-id>",
		Short: "Restore a snapshot over the live document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotRestore(cmd.Context(), args[0], args[1], output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot to a file instead of the store")

	return cmd
}

func (c *CLI) runSnapshotRestore(ctx context.Context, docID, snapshotID, output string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	env, err := st.RestoreSnapshot(ctx, docID, snapshotID)
	if err != nil {
		return err
	}

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := docio.Write(f, env); err != nil {
			return err
		}
		printSuccess("Restored snapshot to file")
		printFile(output)
		return nil
	}

	if err := st.Save(ctx, docID, env); err != nil {
		return err
	}
	printSuccess("Restored %s to snapshot %s", StyleHighlight.Render(docID), snapshotID)
	return nil
}

func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <document-id> <snapshot-id>",
		Short: "Delete a snapshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runSnapshotDelete(cmd.Context(), args[0], args[1])
		},
	}
}

func (c *CLI) runSnapshotDelete(ctx context.Context, docID, snapshotID string) error {
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.DeleteSnapshot(ctx, docID, snapshotID); err != nil {
		return err
	}
	printSuccess("Deleted snapshot %s", snapshotID)
	return nil
}
