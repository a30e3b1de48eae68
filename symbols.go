package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/phobologic/cgraph/internal/scan"
)

type symbolKind string

const (
	kindFunction symbolKind = "function"
	kindMacro    symbolKind = "macro"
)

// symbol is one row of the symbols listing.
type symbol struct {
	File  string     `json:"file"`
	Line  int        `json:"line"`
	Kind  symbolKind `json:"kind"`
	Name  string     `json:"name"`
	Value string     `json:"value,omitempty"`
}

func newSymbolsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "symbols <source-tree>",
		Short: "List function definitions and #define macros per file",
		Long: `List, file by file, every function definition the extractor recognizes and
every object-like #define macro with its replacement text. Nothing is
written to the graph artifact.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var root string
			if len(args) > 0 {
				root = args[0]
			}
			if root == "" || !treeExists(root) {
				return missingTree(cmd, root)
			}

			symbols, err := a.symbols(root)
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				if symbols == nil {
					symbols = []symbol{}
				}
				return writeJSON(a.stdout, symbols)
			case isTerminal(a.stdout):
				writeSymbolsTable(a.stdout, symbols)
			default:
				writeSymbolsPlain(a.stdout, symbols)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the listing as JSON")
	return cmd
}

func (a *app) symbols(root string) ([]symbol, error) {
	ex, err := newExtractor(a.v.GetString(extractorKey))
	if err != nil {
		return nil, err
	}

	files, err := a.sources(root)
	if err != nil {
		return nil, err
	}

	var symbols []symbol
	for _, f := range files {
		src, err := os.ReadFile(filepath.Join(root, f.Path))
		if err != nil {
			if a.v.GetBool(keepGoingKey) {
				_, _ = fmt.Fprintf(a.stderr, "Warning: %s: skipped: %v\n", f.Path, err)
				continue
			}
			return nil, fmt.Errorf("reading %s: %w", f.Path, err)
		}

		for _, d := range ex.Definitions(src) {
			symbols = append(symbols, symbol{File: f.Path, Line: d.Line, Kind: kindFunction, Name: d.Name})
		}
		for _, m := range scan.Macros(src) {
			symbols = append(symbols, symbol{File: f.Path, Line: m.Line, Kind: kindMacro, Name: m.Name, Value: m.Value})
		}
	}
	return symbols, nil
}

func writeSymbolsPlain(w io.Writer, symbols []symbol) {
	for _, s := range symbols {
		if s.Kind == kindMacro {
			_, _ = fmt.Fprintf(w, "%s:%d: %s %s %s\n", s.File, s.Line, s.Kind, s.Name, s.Value)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s:%d: %s %s\n", s.File, s.Line, s.Kind, s.Name)
	}
}

func writeSymbolsTable(w io.Writer, symbols []symbol) {
	rows := make([][]string, 0, len(symbols))
	functions := 0
	for _, s := range symbols {
		if s.Kind == kindFunction {
			functions++
		}
		rows = append(rows, []string{s.File, strconv.Itoa(s.Line), string(s.Kind), s.Name, s.Value})
	}
	renderTable(w,
		[]string{"File", "Line", "Kind", "Name", "Value"},
		[]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT},
		rows,
		[]string{"", "", "", fmt.Sprintf("%d functions", functions), fmt.Sprintf("%d macros", len(symbols)-functions)},
	)
}
