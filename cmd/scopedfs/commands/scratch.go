package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/internal/cli/prompt"
)

var scratchCmd = &cobra.Command{
	Use:   "scratch",
	Short: "Manage the process-private scratch directory",
}

var sweepYes bool

var scratchSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove every scratch file",
	Long: `Remove the whole scratch subtree. Scratch files backing streams that
are still open in another process are removed too, so only run this when no
other scopedfs process is writing.`,
	RunE: runScratchSweep,
}

func init() {
	scratchSweepCmd.Flags().BoolVar(&sweepYes, "yes", false, "Skip the confirmation prompt")

	scratchCmd.AddCommand(scratchSweepCmd)
}

func runScratchSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	root, err := a.scratch.Root()
	if err != nil {
		return err
	}

	if !sweepYes {
		ok, err := prompt.Confirm(fmt.Sprintf("Remove all scratch files under %s?", root), false)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := a.scratch.SweepAll(); err != nil {
		return err
	}
	fmt.Printf("Scratch directory %s swept.\n", root)
	return nil
}
