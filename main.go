// cgraph builds a lexical call graph of a C source tree and answers
// "who calls this function?" against it.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phobologic/cgraph/internal/discover"
	"github.com/phobologic/cgraph/internal/graph"
	"github.com/phobologic/cgraph/internal/parse"
	"github.com/phobologic/cgraph/internal/scan"
	"github.com/phobologic/cgraph/internal/store"
)

var version = "dev"

const rootLongDescription = `cgraph scans a tree of C sources with lexical patterns, records which known
functions each function body calls, and stores the result as a flat JSON
document (name -> [callee, ...]).

Definitions are recognized by a fixed set of return types (void, int, char,
double, float, bool). Calls to names not defined anywhere in the tree, such
as library functions, are dropped. Functions sharing a name collapse into a
single entry; the one found last wins.`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runContext(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	return runContext(context.Background(), args, stdout, stderr)
}

func runContext(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if args == nil {
		args = []string{}
	}

	a := &app{v: newConfig(), stdout: stdout, stderr: stderr}
	defer a.close()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return cmd.ExecuteContext(ctx)
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	v          *viper.Viper
	stdout     io.Writer
	stderr     io.Writer
	logger     *slog.Logger
	logCloser  io.Closer
	configFile string
	verbose    bool
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "cgraph",
		Short:         "Lexical call graph builder for C source trees",
		Long:          rootLongDescription,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := readConfig(a.v, a.configFile); err != nil {
				return err
			}
			a.logger, a.logCloser = configureLogger(a.v, a.stderr, a.verbose)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.SetVersionTemplate("cgraph {{.Version}}\n")

	configureRootFlags(a, cmd)

	cmd.AddCommand(
		newBuildCmd(a),
		newCallersCmd(a),
		newSymbolsCmd(a),
		newExportCmd(a),
		newRankCmd(a),
		newWatchCmd(a),
		newInitCmd(a),
	)
	return cmd
}

func configureRootFlags(a *app, cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&a.configFile, "config", "", "config file (default ./"+configFileName+")")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	flags.StringP("graph", "g", a.v.GetString(graphKey), "call graph artifact path")
	bindFlagToConfig(a.v, flags.Lookup("graph"), graphKey)

	flags.StringP("extractor", "e", a.v.GetString(extractorKey), "definition extractor: heuristic or treesitter")
	bindFlagToConfig(a.v, flags.Lookup("extractor"), extractorKey)

	flags.IntP("workers", "j", a.v.GetInt(workersKey), "files scanned in parallel (0 = GOMAXPROCS)")
	bindFlagToConfig(a.v, flags.Lookup("workers"), workersKey)

	flags.Bool("keep-going", a.v.GetBool(keepGoingKey), "skip unreadable files instead of failing")
	bindFlagToConfig(a.v, flags.Lookup("keep-going"), keepGoingKey)

	flags.Int64("max-file-size", a.v.GetInt64(maxFileSizeKey), "skip files larger than this many bytes (0 = no limit)")
	bindFlagToConfig(a.v, flags.Lookup("max-file-size"), maxFileSizeKey)

	flags.Bool("gitignore", a.v.GetBool(gitignoreKey), "honor .gitignore and skip hidden and vendored directories")
	bindFlagToConfig(a.v, flags.Lookup("gitignore"), gitignoreKey)

	flags.StringArrayP("exclude", "x", a.v.GetStringSlice(excludeKey), "exclude files matching regex (can be repeated)")
	bindFlagToConfig(a.v, flags.Lookup("exclude"), excludeKey)

	flags.String("log-file", a.v.GetString(logFilenameKey), "write logs to a rotating file instead of stderr")
	bindFlagToConfig(a.v, flags.Lookup("log-file"), logFilenameKey)

	flags.String("log-level", a.v.GetString(logLevelKey), "log level: debug, info, warn or error")
	bindFlagToConfig(a.v, flags.Lookup("log-level"), logLevelKey)
}

func newExtractor(name string) (graph.Extractor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", extractorHeuristic:
		return scan.New(), nil
	case extractorTreeSitter:
		ex, err := parse.New()
		if err != nil {
			return nil, err
		}
		return ex, nil
	default:
		return nil, fmt.Errorf("unknown extractor %q (want %s or %s)", name, extractorHeuristic, extractorTreeSitter)
	}
}

// treeExists reports whether root is an existing directory.
func treeExists(root string) bool {
	info, err := os.Stat(root)
	return err == nil && info.IsDir()
}

// missingTree prints a usage hint for a source tree that does not exist.
func missingTree(cmd *cobra.Command, root string) error {
	if root == "" {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Please provide a source tree to scan")
	} else {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Source tree %s not found\n", root)
	}
	return cmd.Usage()
}

// sources lists the C files under root, honoring the path settings.
func (a *app) sources(root string) ([]discover.FileEntry, error) {
	excludes, err := discover.CompileExcludes(a.v.GetStringSlice(excludeKey))
	if err != nil {
		return nil, err
	}

	files, err := discover.Files(root, discover.Options{
		Gitignore: a.v.GetBool(gitignoreKey),
		Exclude:   excludes,
		KeepGoing: a.v.GetBool(keepGoingKey),
		Logger:    a.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("discovering files: %w", err)
	}
	a.logger.Debug("discovered sources", "root", root, "files", len(files))
	return files, nil
}

// build runs the full pipeline over root and writes the artifact.
func (a *app) build(ctx context.Context, root string) (*graph.Result, error) {
	ex, err := newExtractor(a.v.GetString(extractorKey))
	if err != nil {
		return nil, err
	}

	files, err := a.sources(root)
	if err != nil {
		return nil, err
	}

	res, err := graph.NewBuilder(ex, graph.Options{
		Workers:     a.v.GetInt(workersKey),
		KeepGoing:   a.v.GetBool(keepGoingKey),
		MaxFileSize: a.v.GetInt64(maxFileSizeKey),
		Logger:      a.logger,
	}).Build(ctx, root, files)
	if err != nil {
		return nil, err
	}

	for _, fe := range res.Skipped {
		_, _ = fmt.Fprintf(a.stderr, "Warning: %s: skipped: %v\n", fe.Path, fe.Err)
	}

	if err := store.Save(a.v.GetString(graphKey), res.Graph); err != nil {
		return nil, err
	}
	return res, nil
}
