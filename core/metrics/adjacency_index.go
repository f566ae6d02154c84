package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
)

// AdjacencyIndex scores every node by its proximity to growth-stage
// companies. For each node it is the mean over companies in status
// high_growth_target or prospect, restricted to the node's own cluster
// and clusters adjacent to it, of 1/(1+d) where d is the shortest
// weighted distance; unreachable targets contribute 0, and nodes with
// no targets in range score 0.
func AdjacencyIndex(g *graph.Graph, clusters ClusterResult) map[graph.NodeKey]float64 {
	u := buildUndirected(g)
	keys := u.keys
	n := len(keys)
	out := make(map[graph.NodeKey]float64, n)
	if n == 0 {
		return out
	}

	// Growth-stage company target indices.
	var targets []int
	for i, key := range keys {
		if key.Kind != model.KindCompany {
			continue
		}
		node := g.Node(key)
		if node == nil {
			continue
		}
		if node.Status == model.StatusHighGrowthTarget || node.Status == model.StatusProspect {
			targets = append(targets, i)
		}
	}
	if len(targets) == 0 {
		for _, key := range keys {
			out[key] = 0
		}
		return out
	}

	inRange := func(self, target graph.NodeKey) bool {
		sc, tc := clusters.Assignment[self], clusters.Assignment[target]
		if sc == tc {
			return true
		}
		for _, adj := range clusters.Adjacent[sc] {
			if adj == tc {
				return true
			}
		}
		return false
	}

	for i, key := range keys {
		dist := u.shortestDistances(i)
		var vals []float64
		for _, t := range targets {
			if t == i || !inRange(key, keys[t]) {
				continue
			}
			if math.IsInf(dist[t], 1) {
				vals = append(vals, 0)
				continue
			}
			vals = append(vals, 1.0/(1.0+dist[t]))
		}
		if len(vals) == 0 {
			out[key] = 0
			continue
		}
		out[key] = floats.Sum(vals) / float64(len(vals))
	}
	return out
}
