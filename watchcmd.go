package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/phobologic/cgraph/internal/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <source-tree>",
		Short: "Rebuild the call graph whenever a C file changes",
		Long: `Build the call graph once, then rebuild it from scratch each time a *.c file
under source-tree is created, written, renamed or removed. Bursts of changes
are coalesced into a single rebuild after --debounce of quiet. Rebuilds never
overlap. Stop with Ctrl-C.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}
			if root == "" || !treeExists(root) {
				return missingTree(cmd, root)
			}

			rebuild := func(ctx context.Context) error {
				res, err := a.build(ctx, root)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(a.stdout, "Wrote %s: %d functions from %d files\n",
					a.v.GetString(graphKey), len(res.Graph), res.Files)
				return nil
			}

			ctx := cmd.Context()
			if err := rebuild(ctx); err != nil {
				return err
			}

			w, err := watch.New(root, watch.Options{
				Debounce: a.v.GetDuration(debounceKey),
				Logger:   a.logger,
			}, rebuild)
			if err != nil {
				return err
			}
			defer func() { _ = w.Close() }()

			a.logger.Info("watching for changes", "root", root)
			return w.Run(ctx)
		},
	}

	cmd.Flags().Duration("debounce", watch.DefaultDebounce, "quiet period before a rebuild")
	bindFlagToConfig(a.v, cmd.Flags().Lookup("debounce"), debounceKey)
	return cmd
}
