// Package store persists a call graph as a flat JSON object mapping each
// function name to the array of its callee names.
//
// Save truncates and overwrites the target. Two builds writing the same path
// at the same time can interleave; callers must serialize them.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/phobologic/cgraph/internal/model"
)

// DefaultPath is the artifact location used when none is configured.
const DefaultPath = "function_calls.json"

var (
	// ErrNoGraph is returned by Load when the artifact does not exist.
	ErrNoGraph = errors.New("call graph not found")

	// ErrMalformed is returned by Load when the artifact is not a flat object
	// of string arrays.
	ErrMalformed = errors.New("malformed call graph")
)

// Encode writes g as indented JSON with sorted keys and a trailing newline.
// A function calling nothing known is written as an empty array.
func Encode(w io.Writer, g model.CallGraph) error {
	out := make(map[string][]string, len(g))
	for name, callees := range g {
		if callees == nil {
			callees = []string{}
		}
		out[name] = callees
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// Decode reads a graph written by Encode.
func Decode(r io.Reader) (model.CallGraph, error) {
	var g model.CallGraph
	dec := json.NewDecoder(r)
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var rest json.RawMessage
	if err := dec.Decode(&rest); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: trailing data after graph", ErrMalformed)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformed)
	}
	for name, callees := range g {
		if callees == nil {
			g[name] = []string{}
		}
	}
	return g, nil
}

// Save writes g to path, replacing any previous content.
func Save(path string, g model.CallGraph) error {
	var buf bytes.Buffer
	if err := Encode(&buf, g); err != nil {
		return fmt.Errorf("encoding call graph: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Load reads the graph stored at path.
func Load(path string) (model.CallGraph, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoGraph, path)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	g, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return g, nil
}
