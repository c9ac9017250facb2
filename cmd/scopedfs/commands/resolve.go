package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scopedfs/scopedfs/pkg/entry"
)

var (
	resolveBase  string
	resolveGrant string
	resolveKind  string
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <relative-path>",
	Short: "Resolve a relative path against a base reference",
	Long: `Resolve a slash-separated relative path against a base reference and
print the resulting entry reference.

Plain path and tree-document references resolve without contacting the
provider; opaque references are walked segment by segment through directory
listings.`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().StringVar(&resolveBase, "base", "", "Base reference to resolve against")
	resolveCmd.Flags().StringVar(&resolveGrant, "grant", "", "Root grant identifier of the base")
	resolveCmd.Flags().StringVar(&resolveKind, "kind", "any", "Required entry kind: any, file, or directory")
	_ = resolveCmd.MarkFlagRequired("base")
}

func runResolve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	switch resolveKind {
	case "any", "file", "directory":
	default:
		return fmt.Errorf("unknown kind %q", resolveKind)
	}
	kind := entry.ParseKind(resolveKind)

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	base := entry.Ref{Reference: resolveBase, RootGrant: resolveGrant}
	ref, err := a.resolver.Resolve(ctx, base, args[0], kind)
	if err != nil {
		return err
	}

	fmt.Println(ref.Reference)
	return nil
}
