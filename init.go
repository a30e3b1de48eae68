package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

const (
	sentinelStart = "<!-- cgraph:start -->"
	sentinelEnd   = "<!-- cgraph:end -->"
)

func newInitCmd(a *app) *cobra.Command {
	var (
		docsPath string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:   "init [config-path]",
		Short: "Generate a default cgraph.yaml configuration file",
		Long: `Create a cgraph.yaml (or config-path) populated with the current settings so
it can be edited manually. An existing file is never overwritten.

With --docs, also write a cgraph usage section to a Markdown file. The
section is wrapped in sentinel comments so later runs update it in place
without touching surrounding content.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			target := configFileName
			if len(args) > 0 {
				target = args[0]
			}

			if dryRun {
				if docsPath == "" {
					_, _ = fmt.Fprintln(a.stdout, generateSection())
					return nil
				}
				existing, _ := os.ReadFile(docsPath)
				_, _ = fmt.Fprint(a.stdout, applySection(string(existing), generateSection()))
				return nil
			}

			if err := a.v.SafeWriteConfigAs(target); err != nil {
				return fmt.Errorf("failed to write config file: %w", err)
			}
			_, _ = fmt.Fprintf(a.stderr, "wrote %s\n", target)

			if docsPath == "" {
				return nil
			}

			existing, _ := os.ReadFile(docsPath)
			updated := applySection(string(existing), generateSection())
			if err := os.WriteFile(docsPath, []byte(updated), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", docsPath, err)
			}
			_, _ = fmt.Fprintf(a.stderr, "wrote cgraph section to %s\n", docsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&docsPath, "docs", "", "also write a usage section to this Markdown file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying any file")
	return cmd
}

// generateSection returns the full sentinel-wrapped cgraph documentation block.
func generateSection() string {
	body := `## cgraph: C call graph

This project's C call graph is produced by ` + "`cgraph`" + `. It records, for every
function defined under the source tree, which other functions of the tree its
body calls.

**Run it:**
` + "```" + `bash
cgraph build src                      # write function_calls.json
cgraph callers parse_header           # who calls parse_header?
cgraph callers parse_header src       # rebuild, then ask
cgraph rank -n 20                     # most central functions
cgraph export --symbol header         # neighborhood of matching functions
cgraph watch src                      # rebuild on every change
` + "```" + `

**Limits:** matching is lexical. Only definitions returning void, int, char,
double, float or bool are found, functions sharing a name collapse into one
entry, and calls through pointers or macros are not seen.

**All flags:** ` + "`cgraph --help`"

	return sentinelStart + "\n" + body + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return content + "\n" + section + "\n"
}
