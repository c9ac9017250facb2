package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/internal/cli/output"
	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/pkg/bridge"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

var (
	lsBase  string
	lsGrant string
	lsJSON  bool
)

var lsCmd = &cobra.Command{
	Use:   "ls [relative-path]",
	Short: "List the children of a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLs,
}

func init() {
	lsCmd.Flags().StringVar(&lsBase, "base", "", "Base reference to resolve against")
	lsCmd.Flags().StringVar(&lsGrant, "grant", "", "Root grant identifier of the base")
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Print the listing as JSON")
	_ = lsCmd.MarkFlagRequired("base")
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	ref := entry.Ref{Reference: lsBase, RootGrant: lsGrant}
	if len(args) == 1 {
		ref, err = a.resolver.Resolve(ctx, ref, args[0], entry.KindDirectory)
		if err != nil {
			return err
		}
	}

	var resp bridge.ListDirectoryResponse
	err = a.bridge.Invoke(ctx, bridge.OpListDirectory, bridge.ListDirectoryRequest{Reference: ref.Reference}, &resp)
	if err != nil {
		return err
	}
	logger.DebugCtx(ctx, "directory listed",
		logger.KeyRef, ref.Reference,
		logger.KeyEntries, len(resp.Entries))

	if lsJSON {
		return output.PrintJSON(os.Stdout, resp.Entries)
	}

	table := output.NewTableData("NAME", "KIND", "REFERENCE")
	for _, e := range resp.Entries {
		table.AddRow(e.Name, e.Kind, e.Reference)
	}
	return output.PrintTable(os.Stdout, table)
}
