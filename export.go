package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/phobologic/cgraph/internal/model"
	"github.com/phobologic/cgraph/internal/ranking"
	"github.com/phobologic/cgraph/internal/store"
	"github.com/phobologic/cgraph/internal/toon"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatTOON = "toon"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		format     string
		top        int
		nameFilter string
	)

	cmd := &cobra.Command{
		Use:   "export [source-tree]",
		Short: "Print the ranked call graph as JSON, YAML or TOON",
		Long: `Print the functions of the call graph ordered by PageRank, with their
deduplicated caller -> callee edges.

With a source tree the graph is rebuilt first. --top keeps the highest ranked
functions; --symbol keeps functions whose name contains the given text (case
insensitive) together with their direct callers and callees.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			switch format {
			case formatJSON, formatYAML, formatTOON:
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, formatJSON, formatYAML, formatTOON)
			}

			gm, err := a.graphMap(cmd, args)
			if err != nil || gm == nil {
				return err
			}

			if nameFilter != "" {
				gm = ranking.FilterByName(gm, nameFilter)
			}
			if top > 0 {
				gm = ranking.SelectFunctions(gm, top)
			}

			return writeGraphMap(a.stdout, gm, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatTOON, "output format: json, yaml or toon")
	cmd.Flags().IntVarP(&top, "top", "n", 0, "keep only the N highest ranked functions")
	cmd.Flags().StringVarP(&nameFilter, "symbol", "s", "", "keep functions matching this name and their neighbors")
	return cmd
}

// graphMap loads the ranked view of the graph, rebuilding first when a
// source tree is given. A nil map with a nil error means usage was printed.
func (a *app) graphMap(cmd *cobra.Command, args []string) (*model.GraphMap, error) {
	source := a.v.GetString(graphKey)

	if len(args) > 0 {
		if !treeExists(args[0]) {
			return nil, missingTree(cmd, args[0])
		}
		if _, err := a.build(cmd.Context(), args[0]); err != nil {
			return nil, err
		}
		if abs, err := filepath.Abs(args[0]); err == nil {
			source = filepath.Base(abs)
		}
	}

	g, err := store.Load(a.v.GetString(graphKey))
	if err != nil {
		if errors.Is(err, store.ErrNoGraph) {
			return nil, fmt.Errorf("%w (run cgraph build first)", err)
		}
		return nil, err
	}

	return ranking.NewMap(source, g), nil
}

func writeGraphMap(w io.Writer, gm *model.GraphMap, format string) error {
	out := *gm
	if out.Functions == nil {
		out.Functions = []model.RankedFunction{}
	}
	if out.Calls == nil {
		out.Calls = []model.CallEdge{}
	}

	switch format {
	case formatJSON:
		return writeJSON(w, out)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	default:
		_, err := fmt.Fprintln(w, toon.Encode(&out))
		return err
	}
}
