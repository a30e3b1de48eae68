// Package ranking builds ranked views of a call graph and narrows them.
package ranking

import (
	"strings"

	"github.com/phobologic/cgraph/internal/graph"
	"github.com/phobologic/cgraph/internal/model"
)

// NewMap ranks every function of g and collects the edges between them.
func NewMap(source string, g model.CallGraph) *model.GraphMap {
	return &model.GraphMap{
		Source:    source,
		Functions: graph.Rank(g),
		Calls:     graph.Edges(g),
	}
}

// SelectFunctions returns a new GraphMap with only the top-ranked functions
// and the edges between them. If maxFunctions is <= 0 or >= the number of
// functions, gm is returned unchanged.
func SelectFunctions(gm *model.GraphMap, maxFunctions int) *model.GraphMap {
	if maxFunctions <= 0 || maxFunctions >= len(gm.Functions) {
		return gm
	}

	selected := gm.Functions[:maxFunctions]
	selectedNames := make(map[string]struct{}, maxFunctions)
	for i := range selected {
		selectedNames[selected[i].Name] = struct{}{}
	}

	var calls []model.CallEdge
	for i := range gm.Calls {
		ce := &gm.Calls[i]
		_, callerOK := selectedNames[ce.Caller]
		_, calleeOK := selectedNames[ce.Callee]
		if callerOK && calleeOK {
			calls = append(calls, *ce)
		}
	}

	return &model.GraphMap{
		Source:    gm.Source,
		Functions: selected,
		Calls:     calls,
	}
}

// FilterByName returns a new GraphMap containing the functions whose name
// contains substr (case-insensitive), their direct callers and callees, and
// the edges touching a matched function. Rank order is preserved.
func FilterByName(gm *model.GraphMap, substr string) *model.GraphMap {
	lower := strings.ToLower(substr)

	matched := make(map[string]struct{})
	for i := range gm.Functions {
		if strings.Contains(strings.ToLower(gm.Functions[i].Name), lower) {
			matched[gm.Functions[i].Name] = struct{}{}
		}
	}

	related := make(map[string]struct{})
	var calls []model.CallEdge
	for i := range gm.Calls {
		ce := &gm.Calls[i]
		_, callerOK := matched[ce.Caller]
		_, calleeOK := matched[ce.Callee]
		if callerOK {
			related[ce.Callee] = struct{}{}
		}
		if calleeOK {
			related[ce.Caller] = struct{}{}
		}
		if callerOK || calleeOK {
			calls = append(calls, *ce)
		}
	}

	var functions []model.RankedFunction
	for i := range gm.Functions {
		name := gm.Functions[i].Name
		_, isMatched := matched[name]
		_, isRelated := related[name]
		if isMatched || isRelated {
			functions = append(functions, gm.Functions[i])
		}
	}

	return &model.GraphMap{
		Source:    gm.Source,
		Functions: functions,
		Calls:     calls,
	}
}
