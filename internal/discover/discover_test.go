package discover

import (
	"bytes"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(entries []FileEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestDiscoverCFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	writeFile(t, dir, "main.c", "int main(void) { return 0; }")
	writeFile(t, dir, "lib/util.c", "void helper(void) {}")
	writeFile(t, dir, "lib/util.h", "void helper(void);")
	writeFile(t, dir, "readme.txt", "hello")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join("lib", "util.c"), "main.c"}, paths(entries))
	for _, e := range entries {
		assert.Equal(t, "c", e.Language, e.Path)
	}
}

func TestDiscoverHiddenIncludedByDefault(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.c", "")
	writeFile(t, dir, ".hidden/secret.c", "")
	writeFile(t, dir, "build/gen.c", "")
	writeFile(t, dir, ".git/hooks/x.c", "")

	entries, err := Files(dir, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(".hidden", "secret.c"),
		filepath.Join("build", "gen.c"),
		"main.c",
	}, paths(entries))
}

func TestDiscoverGitignore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "generated/\n")
	writeFile(t, dir, "main.c", "")
	writeFile(t, dir, "generated/out.c", "")
	writeFile(t, dir, "build/gen.c", "")
	writeFile(t, dir, ".hidden/secret.c", "")

	entries, err := Files(dir, Options{Gitignore: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"main.c"}, paths(entries))
}

func TestDiscoverExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "main.c", "")
	writeFile(t, dir, "test/main_test.c", "")
	writeFile(t, dir, "src/core.c", "")

	excludes, err := CompileExcludes([]string{`^test/`})
	require.NoError(t, err)

	entries, err := Files(dir, Options{Exclude: excludes})
	require.NoError(t, err)

	assert.Equal(t, []string{"main.c", filepath.Join("src", "core.c")}, paths(entries))
}

func TestCompileExcludesInvalid(t *testing.T) {
	t.Parallel()

	_, err := CompileExcludes([]string{"ok", "("})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"("`)
}

func TestDiscoverSymlinksSkipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "real.c", "")

	err := os.Symlink(filepath.Join(dir, "real.c"), filepath.Join(dir, "link.c"))
	if err != nil {
		t.Skip("symlinks not supported")
	}

	entries, err := Files(dir, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"real.c"}, paths(entries))
}

func TestDiscoverMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := Files(filepath.Join(t.TempDir(), "absent"), Options{})
	require.Error(t, err)
}

func TestDiscoverUnreadableDir(t *testing.T) {
	t.Parallel()
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}

	dir := t.TempDir()
	writeFile(t, dir, "main.c", "int main(void) { return 0; }")
	writeFile(t, dir, "locked/hidden.c", "void hidden(void) {}")
	locked := filepath.Join(dir, "locked")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	_, err := Files(dir, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "locked")

	entries, err := Files(dir, Options{KeepGoing: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.c"}, paths(entries))
}

func TestWalkError(t *testing.T) {
	t.Parallel()

	root := "/src"
	below := filepath.Join(root, "locked")

	err := walkError(root, root, fs.ErrPermission, Options{KeepGoing: true})
	assert.True(t, errors.Is(err, fs.ErrPermission), "root failure is fatal even with KeepGoing")

	err = walkError(root, below, fs.ErrPermission, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrPermission))
	assert.Contains(t, err.Error(), below)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	require.NoError(t, walkError(root, below, fs.ErrPermission, Options{KeepGoing: true, Logger: logger}))
	assert.Contains(t, logs.String(), "path="+below)
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
