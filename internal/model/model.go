// Package model defines core data structures for cgraph.
package model

import "sort"

// SourceFile is a discovered source file and its full text, read once.
type SourceFile struct {
	Path string // Relative to the scanned root
	Text []byte
}

// Definition is a function definition found in one file.
// BodyStart and BodyEnd delimit the body text, braces excluded.
type Definition struct {
	Name      string
	File      string
	Line      int
	BodyStart int
	BodyEnd   int
}

// Body returns the body text of d within src.
func (d Definition) Body(src []byte) []byte {
	return src[d.BodyStart:d.BodyEnd]
}

// Function is a definition together with every call site found in its body,
// in discovery order, before any filtering.
type Function struct {
	Definition
	Calls []string
}

// FileScan holds the extraction results for a single source file.
type FileScan struct {
	Path      string
	Functions []Function
}

// NameSet is the set of function names defined anywhere in the tree.
type NameSet map[string]struct{}

// Has reports whether name is a known function.
func (s NameSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// CallGraph maps a function name to the known functions its body calls.
// Callee lists keep discovery order and duplicates.
type CallGraph map[string][]string

// Names returns the graph keys in sorted order.
func (g CallGraph) Names() []string {
	names := make([]string, 0, len(g))
	for name := range g {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CallEdge is a deduplicated caller -> callee relation.
type CallEdge struct {
	Caller string `json:"caller" yaml:"caller"`
	Callee string `json:"callee" yaml:"callee"`
}

// RankedFunction is a function with its PageRank score and degrees.
type RankedFunction struct {
	Name    string  `json:"name" yaml:"name"`
	Rank    float64 `json:"rank" yaml:"rank"`
	Callers int     `json:"callers" yaml:"callers"` // distinct functions calling this one
	Callees int     `json:"callees" yaml:"callees"` // distinct known functions called
}

// GraphMap is the exported view of a call graph: functions ordered by rank
// and the deduplicated edges between them.
type GraphMap struct {
	Source    string           `json:"source" yaml:"source"`
	Functions []RankedFunction `json:"functions" yaml:"functions"`
	Calls     []CallEdge       `json:"calls" yaml:"calls"`
}
