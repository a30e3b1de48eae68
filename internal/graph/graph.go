// Package graph builds the function call graph of a C source tree and answers
// caller queries against it.
//
// Building runs in two passes. Pass 1 extracts definitions and raw call sites
// from every file, in parallel. Once every file is done, the names defined
// anywhere in the tree form the known set. Pass 2 keeps only calls to known
// names and merges the files, in discovery order, into one graph keyed by bare
// function name. When two definitions share a name the later one wins.
package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/cgraph/internal/discover"
	"github.com/phobologic/cgraph/internal/model"
)

// Extractor finds function definitions in a file and call sites in a body.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Definitions(src []byte) []model.Definition
	Calls(body []byte) []string
}

// FileError records a source file that could not be processed.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Options tunes a Builder.
type Options struct {
	// Workers bounds pass 1 parallelism. Zero means GOMAXPROCS.
	Workers int

	// KeepGoing skips unreadable files instead of failing the build.
	KeepGoing bool

	// MaxFileSize skips files larger than this many bytes. Zero disables it.
	MaxFileSize int64

	Logger *slog.Logger
}

// Result is the outcome of a build.
type Result struct {
	Graph   model.CallGraph
	Files   int // files scanned
	Names   int // distinct function names defined in the tree
	Skipped []*FileError
}

// Builder runs the extraction pipeline.
type Builder struct {
	extractor Extractor
	opts      Options
}

// NewBuilder returns a Builder using ex for extraction.
func NewBuilder(ex Extractor, opts Options) *Builder {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Builder{extractor: ex, opts: opts}
}

// Build scans files (relative to root) and returns the filtered call graph.
// No files yields an empty graph. Without KeepGoing the first unreadable file
// aborts the build.
func (b *Builder) Build(ctx context.Context, root string, files []discover.FileEntry) (*Result, error) {
	if len(files) == 0 {
		b.opts.Logger.Warn("no C source files found", "root", root)
	}

	scans, skipped, err := b.extract(ctx, root, files)
	if err != nil {
		return nil, err
	}

	// Barrier: every file has been scanned, the known set is complete.
	names := CollectNames(scans)
	g := Assemble(scans, names)

	b.opts.Logger.Info("call graph built",
		"files", len(scans),
		"names", len(names),
		"functions", len(g),
		"skipped", len(skipped),
	)

	return &Result{
		Graph:   g,
		Files:   len(scans),
		Names:   len(names),
		Skipped: skipped,
	}, nil
}

// extract is pass 1. The returned scans keep the order of files; skipped
// files leave no entry.
func (b *Builder) extract(ctx context.Context, root string, files []discover.FileEntry) ([]model.FileScan, []*FileError, error) {
	indexed := make([]*model.FileScan, len(files))

	var (
		skipped []*FileError
		mu      sync.Mutex
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(b.opts.Workers)

	for i, f := range files {
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}

			src, err := b.read(filepath.Join(root, f.Path))
			if err != nil {
				if !b.opts.KeepGoing {
					return fmt.Errorf("reading %s: %w", f.Path, err)
				}
				b.opts.Logger.Warn("skipping unreadable file", "path", f.Path, "error", err)
				mu.Lock()
				skipped = append(skipped, &FileError{Path: f.Path, Err: err})
				mu.Unlock()
				return nil
			}
			if src == nil {
				return nil
			}

			scan := ScanFile(b.extractor, model.SourceFile{Path: f.Path, Text: src})
			b.opts.Logger.Debug("scanned file", "path", f.Path, "functions", len(scan.Functions))
			indexed[i] = &scan
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, nil, err
	}

	scans := make([]model.FileScan, 0, len(files))
	for _, s := range indexed {
		if s != nil {
			scans = append(scans, *s)
		}
	}

	sort.Slice(skipped, func(i, j int) bool {
		return skipped[i].Path < skipped[j].Path
	})

	return scans, skipped, nil
}

// read returns the file contents, or nil contents and no error when the file
// is over the size limit.
func (b *Builder) read(path string) ([]byte, error) {
	if b.opts.MaxFileSize > 0 {
		fi, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if fi.Size() > b.opts.MaxFileSize {
			b.opts.Logger.Warn("skipping large file", "path", path, "size", fi.Size(), "limit", b.opts.MaxFileSize)
			return nil, nil
		}
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = []byte{}
	}
	return src, nil
}

// ScanFile extracts every definition in f with its raw call sites.
func ScanFile(ex Extractor, f model.SourceFile) model.FileScan {
	defs := ex.Definitions(f.Text)
	scan := model.FileScan{Path: f.Path, Functions: make([]model.Function, 0, len(defs))}
	for _, d := range defs {
		d.File = f.Path
		scan.Functions = append(scan.Functions, model.Function{
			Definition: d,
			Calls:      ex.Calls(d.Body(f.Text)),
		})
	}
	return scan
}

// CollectNames returns the set of every function name defined in scans.
func CollectNames(scans []model.FileScan) model.NameSet {
	names := make(model.NameSet)
	for i := range scans {
		for j := range scans[i].Functions {
			names[scans[i].Functions[j].Name] = struct{}{}
		}
	}
	return names
}

// Filter returns the calls that name a known function, in order, duplicates
// kept. The result is never nil.
func Filter(calls []string, names model.NameSet) []string {
	kept := make([]string, 0, len(calls))
	for _, c := range calls {
		if names.Has(c) {
			kept = append(kept, c)
		}
	}
	return kept
}

// Assemble merges scans in order into a single graph. names must hold every
// name defined across all scans. A later definition of a name replaces an
// earlier one.
func Assemble(scans []model.FileScan, names model.NameSet) model.CallGraph {
	g := make(model.CallGraph)
	for i := range scans {
		for j := range scans[i].Functions {
			fn := &scans[i].Functions[j]
			g[fn.Name] = Filter(fn.Calls, names)
		}
	}
	return g
}
