package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/phobologic/cgraph/internal/graph"
	"github.com/phobologic/cgraph/internal/store"
)

func newCallersCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "callers <function> [source-tree]",
		Short: "List the functions that call a function",
		Long: `List every function whose body calls <function>, matched by exact name.

With a source tree the graph is rebuilt first and the query runs against the
fresh artifact. Without one the existing artifact is queried. A function that
nothing calls yields an empty list, not an error.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := args[0]

			if len(args) == 2 {
				if !treeExists(args[1]) {
					return missingTree(cmd, args[1])
				}
				if _, err := a.build(cmd.Context(), args[1]); err != nil {
					return err
				}
			}

			g, err := store.Load(a.v.GetString(graphKey))
			if err != nil {
				if errors.Is(err, store.ErrNoGraph) {
					return fmt.Errorf("%w (run cgraph build first)", err)
				}
				return err
			}

			res := graph.Query(g, target)
			a.logger.Debug("caller query", "function", target, "count", res.Count)

			switch {
			case asJSON:
				return writeJSON(a.stdout, res)
			case isTerminal(a.stdout):
				writeCallersTable(a.stdout, res)
			default:
				writeCallersPlain(a.stdout, res)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func writeCallersPlain(w io.Writer, res graph.CallerResult) {
	_, _ = fmt.Fprintf(w, "Functions that call %s (%d):\n", res.Function, res.Count)
	for _, c := range res.Callers {
		_, _ = fmt.Fprintf(w, "  %s\n", c)
	}
}

func writeCallersTable(w io.Writer, res graph.CallerResult) {
	rows := make([][]string, 0, len(res.Callers))
	for _, c := range res.Callers {
		rows = append(rows, []string{c})
	}
	renderTable(w,
		[]string{"Callers of " + res.Function},
		[]int{tablewriter.ALIGN_LEFT},
		rows,
		[]string{fmt.Sprintf("Total %d", res.Count)},
	)
}
