package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "build <source-tree>",
		Short: "Scan a C source tree and write the call graph",
		Long: `Scan every *.c file under source-tree, keep only calls to functions defined
somewhere in the tree, and write the result to the graph artifact
(function_calls.json unless --graph says otherwise). The artifact is
overwritten on every build.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}
			if root == "" || !treeExists(root) {
				return missingTree(cmd, root)
			}

			res, err := a.build(cmd.Context(), root)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(a.stdout, "Wrote %s: %d functions from %d files\n",
				a.v.GetString(graphKey), len(res.Graph), res.Files)
			return nil
		},
	}
}
