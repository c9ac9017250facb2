package commands

import (
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/pkg/access"
	"github.com/scopedfs/scopedfs/pkg/entry"
)

var (
	catBase  string
	catGrant string
)

var catCmd = &cobra.Command{
	Use:   "cat [relative-path]",
	Short: "Print an entry's contents to stdout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCat,
}

func init() {
	catCmd.Flags().StringVar(&catBase, "base", "", "Base reference to resolve against")
	catCmd.Flags().StringVar(&catGrant, "grant", "", "Root grant identifier of the base")
	_ = catCmd.MarkFlagRequired("base")
}

func runCat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	ref := entry.Ref{Reference: catBase, RootGrant: catGrant}
	if len(args) == 1 {
		ref, err = a.resolver.Resolve(ctx, ref, args[0], entry.KindFile)
		if err != nil {
			return err
		}
	}

	h, _, err := access.OpenWithFallback(ctx, a.bridge, ref, []entry.AccessMode{entry.ModeRead})
	if err != nil {
		return err
	}
	defer func() { _ = h.Close(ctx) }()

	buf := make([]byte, 64*1024)
	for {
		n, err := h.Read(ctx, buf)
		if n > 0 {
			if _, werr := os.Stdout.Write(buf[:n]); werr != nil {
				return werr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
