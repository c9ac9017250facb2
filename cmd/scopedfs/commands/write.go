package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/internal/logger"
	"github.com/scopedfs/scopedfs/pkg/entry"
	"github.com/scopedfs/scopedfs/pkg/stream"
)

var (
	writeBase  string
	writeGrant string
)

var writeCmd = &cobra.Command{
	Use:   "write [relative-path]",
	Short: "Write stdin to an entry through a writable stream",
	Long: `Write stdin to the target entry. The write goes through a writable
stream: direct when the provider supports reliable descriptor writes for the
ref, scratch-buffered with a final reflect otherwise. Either way the entry
holds exactly the written bytes afterwards.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWrite,
}

func init() {
	writeCmd.Flags().StringVar(&writeBase, "base", "", "Base reference to resolve against")
	writeCmd.Flags().StringVar(&writeGrant, "grant", "", "Root grant identifier of the base")
	_ = writeCmd.MarkFlagRequired("base")
}

func runWrite(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	ref := entry.Ref{Reference: writeBase, RootGrant: writeGrant}
	if len(args) == 1 {
		// KindAny: the target is allowed to not exist yet.
		ref, err = a.resolver.Resolve(ctx, ref, args[0], entry.KindAny)
		if err != nil {
			return err
		}
	}

	w, err := stream.New(ctx, a.streamDeps(), ref)
	if err != nil {
		return err
	}

	var total int64
	buf := make([]byte, 64*1024)
	for {
		n, rerr := os.Stdin.Read(buf)
		if n > 0 {
			if _, werr := w.Write(ctx, buf[:n]); werr != nil {
				_ = w.Dispose(ctx)
				return werr
			}
			total += int64(n)
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			_ = w.Dispose(ctx)
			return rerr
		}
	}

	if err := w.Reflect(ctx); err != nil {
		return err
	}

	logger.DebugCtx(ctx, "stream write finished",
		logger.KeyTarget, ref.Reference,
		logger.KeyBytesWritten, total)
	fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", total, ref.Reference)
	return nil
}
