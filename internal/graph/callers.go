package graph

import (
	"sort"

	"github.com/phobologic/cgraph/internal/model"
)

// CallerResult is the answer to "who calls Function?".
type CallerResult struct {
	Function string   `json:"function"`
	Callers  []string `json:"callers"`
	Count    int      `json:"count"`
}

// Callers returns every function whose callee list contains target, by exact
// name, sorted. A function calling target several times is listed once.
// The result is empty, never nil, when nothing calls target.
func Callers(g model.CallGraph, target string) []string {
	callers := []string{}
	for name, callees := range g {
		for _, c := range callees {
			if c == target {
				callers = append(callers, name)
				break
			}
		}
	}
	sort.Strings(callers)
	return callers
}

// Query runs Callers and reports the count alongside.
func Query(g model.CallGraph, target string) CallerResult {
	callers := Callers(g, target)
	return CallerResult{Function: target, Callers: callers, Count: len(callers)}
}

// CallerIndex inverts the whole graph: callee -> sorted distinct callers.
// It is derived on demand and never persisted.
func CallerIndex(g model.CallGraph) map[string][]string {
	index := make(map[string][]string)
	for _, e := range Edges(g) {
		index[e.Callee] = append(index[e.Callee], e.Caller)
	}
	return index
}

// Edges returns the deduplicated caller -> callee relations of g, sorted by
// caller then callee.
func Edges(g model.CallGraph) []model.CallEdge {
	type edgeKey struct{ caller, callee string }
	seen := make(map[edgeKey]struct{})

	var edges []model.CallEdge
	for caller, callees := range g {
		for _, callee := range callees {
			key := edgeKey{caller, callee}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, model.CallEdge{Caller: caller, Callee: callee})
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Caller != edges[j].Caller {
			return edges[i].Caller < edges[j].Caller
		}
		return edges[i].Callee < edges[j].Callee
	})

	return edges
}
