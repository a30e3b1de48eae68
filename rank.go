package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/phobologic/cgraph/internal/model"
	"github.com/phobologic/cgraph/internal/ranking"
)

const defaultRankTop = 20

func newRankCmd(a *app) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "rank [source-tree]",
		Short: "Show the most central functions by PageRank",
		Long: `Rank the functions of the call graph with PageRank, where every call is a
vote for the callee, and show the top entries with their distinct caller and
callee counts. With a source tree the graph is rebuilt first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gm, err := a.graphMap(cmd, args)
			if err != nil || gm == nil {
				return err
			}

			gm = ranking.SelectFunctions(gm, top)
			if isTerminal(a.stdout) {
				writeRankTable(a.stdout, gm.Functions)
			} else {
				writeRankPlain(a.stdout, gm.Functions)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", defaultRankTop, "number of functions to show (0 = all)")
	return cmd
}

func writeRankPlain(w io.Writer, functions []model.RankedFunction) {
	for _, fn := range functions {
		_, _ = fmt.Fprintf(w, "%.4f %s callers=%d callees=%d\n", fn.Rank, fn.Name, fn.Callers, fn.Callees)
	}
}

func writeRankTable(w io.Writer, functions []model.RankedFunction) {
	rows := make([][]string, 0, len(functions))
	for _, fn := range functions {
		rows = append(rows, []string{
			fn.Name,
			strconv.FormatFloat(fn.Rank, 'f', 4, 64),
			strconv.Itoa(fn.Callers),
			strconv.Itoa(fn.Callees),
		})
	}
	renderTable(w,
		[]string{"Function", "Rank", "Callers", "Callees"},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT},
		rows,
		nil,
	)
}
