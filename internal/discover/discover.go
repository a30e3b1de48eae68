// Package discover finds C source files under a root directory.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/cgraph/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to root
	Language string
}

// Options controls which files are returned.
type Options struct {
	// Gitignore limits results to files git would track, falling back to the
	// root .gitignore outside a repository. Hidden and build directories are
	// skipped too.
	Gitignore bool

	// Exclude drops files whose relative path matches any pattern.
	Exclude []*regexp.Regexp

	// KeepGoing skips unreadable directories below root instead of failing.
	KeepGoing bool

	Logger *slog.Logger
}

// vcsDirs are never descended into.
var vcsDirs = map[string]struct{}{
	".git": {},
	".hg":  {},
	".svn": {},
}

// skipDirs are additionally skipped when Gitignore is set.
var skipDirs = map[string]struct{}{
	"node_modules": {},
	"build":        {},
	"dist":         {},
	"vendor":       {},
	"third_party":  {},
}

// CompileExcludes compiles exclude patterns, reporting the first bad one.
func CompileExcludes(patterns []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		res = append(res, re)
	}
	return res, nil
}

// Files returns every C source file under root, recursively, sorted by
// relative path. The order is the merge order of the call graph.
func Files(root string, opts Options) ([]FileEntry, error) {
	var gitFiles map[string]struct{}
	var gi *ignore.GitIgnore
	if opts.Gitignore {
		gitFiles = gitLsFiles(root)
		if gitFiles == nil {
			gi = loadGitignore(root)
		}
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return walkError(root, path, err, opts)
		}

		name := d.Name()

		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := vcsDirs[name]; skip {
				return filepath.SkipDir
			}
			if opts.Gitignore {
				if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
			}
			return nil
		}

		// Skip symlinks
		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		langName := lang.ForExtension(filepath.Ext(name))
		if langName == "" {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}

		if opts.Gitignore {
			if strings.HasPrefix(name, ".") {
				return nil
			}
			if gitFiles != nil {
				if _, ok := gitFiles[filepath.ToSlash(rel)]; !ok {
					return nil
				}
			} else if gi != nil && gi.MatchesPath(rel) {
				return nil
			}
		}

		for _, re := range opts.Exclude {
			if re.MatchString(filepath.ToSlash(rel)) {
				return nil
			}
		}

		results = append(results, FileEntry{Path: rel, Language: langName})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})

	return results, nil
}

// walkError decides whether a walk failure at path ends discovery. Failures at
// root always do; below root they are skipped only with KeepGoing.
func walkError(root, path string, err error, opts Options) error {
	if path == root || !opts.KeepGoing {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if opts.Logger != nil {
		opts.Logger.Warn("skipping unreadable path", "path", path, "error", err)
	}
	return nil
}

func gitLsFiles(root string) map[string]struct{} {
	gitDir := filepath.Join(root, ".git")
	info, err := os.Stat(gitDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return nil
	}

	files := make(map[string]struct{})
	for _, line := range strings.Split(strings.TrimRight(string(out), "\n"), "\n") {
		if line != "" {
			files[line] = struct{}{}
		}
	}
	return files
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
