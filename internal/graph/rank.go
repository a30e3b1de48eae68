package graph

import (
	"math"
	"sort"

	"github.com/phobologic/cgraph/internal/model"
)

// Rank applies PageRank to the functions of g and returns them sorted by rank
// descending, then by name. Every call occurrence is an edge; recursive calls
// are ignored.
func Rank(g model.CallGraph) []model.RankedFunction {
	if len(g) == 0 {
		return nil
	}

	nodes := make(map[string]struct{})
	outEdges := make(map[string][]string) // node → targets, with repeats for multi-edges
	outDegree := make(map[string]int)

	for name, callees := range g {
		nodes[name] = struct{}{}
		for _, c := range callees {
			nodes[c] = struct{}{}
			if c == name {
				continue
			}
			outEdges[name] = append(outEdges[name], c)
			outDegree[name]++
		}
	}

	order := make([]string, 0, len(nodes))
	for name := range nodes {
		order = append(order, name)
	}
	sort.Strings(order)

	ranks := pageRank(order, outEdges, outDegree, 0.85, 100, 1e-6)

	callers := CallerIndex(g)
	ranked := make([]model.RankedFunction, 0, len(order))
	for _, name := range order {
		ranked = append(ranked, model.RankedFunction{
			Name:    name,
			Rank:    math.Round(ranks[name]/rankPrecision) * rankPrecision,
			Callers: len(callers[name]),
			Callees: distinct(g[name]),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rank != ranked[j].Rank {
			return ranked[i].Rank > ranked[j].Rank
		}
		return ranked[i].Name < ranked[j].Name
	})

	return ranked
}

// rankPrecision is the granularity ranks are rounded to, so that functions in
// symmetric positions compare equal and fall back to name order.
const rankPrecision = 1e-12

// pageRank iterates nodes in the given order so that float sums are
// reproducible from run to run.
func pageRank(
	nodes []string,
	outEdges map[string][]string,
	outDegree map[string]int,
	alpha float64,
	maxIter int,
	tol float64,
) map[string]float64 {
	n := len(nodes)
	if n == 0 {
		return nil
	}

	rank := make(map[string]float64, n)
	initial := 1.0 / float64(n)
	for _, node := range nodes {
		rank[node] = initial
	}

	teleport := (1.0 - alpha) / float64(n)

	for iter := 0; iter < maxIter; iter++ {
		newRank := make(map[string]float64, n)

		// Dangling node contribution (functions calling nothing known)
		var danglingSum float64
		for _, node := range nodes {
			if outDegree[node] == 0 {
				danglingSum += rank[node]
			}
		}
		danglingContrib := alpha * danglingSum / float64(n)

		for _, node := range nodes {
			newRank[node] = teleport + danglingContrib
		}

		for _, src := range nodes {
			targets := outEdges[src]
			if len(targets) == 0 {
				continue
			}
			deg := float64(outDegree[src])
			contrib := alpha * rank[src] / deg
			for _, tgt := range targets {
				newRank[tgt] += contrib
			}
		}

		var diff float64
		for _, node := range nodes {
			diff += math.Abs(newRank[node] - rank[node])
		}

		rank = newRank

		if diff < tol {
			break
		}
	}

	return rank
}

func distinct(names []string) int {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	return len(seen)
}
