package metrics

import (
	"sort"

	"github.com/adalundhe/nexus/core/graph"
)

// ClusterResult maps every node to a community id. Ids are dense,
// starting at 0, numbered by the lowest node in each community so that
// identical input always produces identical assignments.
type ClusterResult struct {
	Assignment map[graph.NodeKey]int64
	Count      int
	// Adjacent lists, per cluster id, the ids of clusters sharing at
	// least one edge with it (excluding itself).
	Adjacent map[int64][]int64
}

// Clusters runs greedy modularity-maximizing agglomeration (Louvain
// local-move phase) on the undirected projection. Ties in modularity
// gain break toward the community containing the lowest node id.
func Clusters(g *graph.Graph) ClusterResult {
	u := buildUndirected(g)
	n := len(u.keys)
	if n == 0 {
		return ClusterResult{Assignment: map[graph.NodeKey]int64{}, Adjacent: map[int64][]int64{}}
	}

	// Total undirected weight and per-node strengths.
	m := 0.0
	strength := make([]float64, n)
	for i := range u.neighbors {
		for p := range u.neighbors[i] {
			strength[i] += u.weights[i][p]
		}
		m += strength[i]
	}
	m /= 2

	community := make([]int, n)
	for i := range community {
		community[i] = i
	}

	if m > 0 {
		// commLowest tracks the lowest node index inside each community,
		// used for deterministic tie-breaks.
		commLowest := make([]int, n)
		for i := range commLowest {
			commLowest[i] = i
		}
		commStrength := make([]float64, n)
		copy(commStrength, strength)

		for improved := true; improved; {
			improved = false
			for node := 0; node < n; node++ {
				cur := community[node]

				// Weight from node into each neighboring community.
				into := make(map[int]float64)
				for p, w := range u.neighbors[node] {
					into[community[w]] += u.weights[node][p]
				}

				commStrength[cur] -= strength[node]
				best := cur
				bestGain := 0.0
				curIn := into[cur]

				// Candidate communities in deterministic order.
				cands := make([]int, 0, len(into))
				for c := range into {
					if c != cur {
						cands = append(cands, c)
					}
				}
				sort.Ints(cands)

				for _, c := range cands {
					gain := (into[c]-curIn)/m - strength[node]*(commStrength[c]-commStrength[cur])/(2*m*m)
					switch {
					case gain > bestGain:
						bestGain, best = gain, c
					case gain == bestGain && gain > 0 && commLowest[c] < commLowest[best]:
						best = c
					}
				}

				commStrength[best] += strength[node]
				if best != cur {
					community[node] = best
					if node < commLowest[best] {
						commLowest[best] = node
					}
					improved = true
				}
			}
		}
	}

	// Renumber communities densely by lowest member node.
	lowest := make(map[int]int)
	for node, c := range community {
		if cur, ok := lowest[c]; !ok || node < cur {
			lowest[c] = node
		}
	}
	order := make([]int, 0, len(lowest))
	for c := range lowest {
		order = append(order, c)
	}
	sort.Slice(order, func(i, j int) bool { return lowest[order[i]] < lowest[order[j]] })
	remap := make(map[int]int64, len(order))
	for dense, c := range order {
		remap[c] = int64(dense)
	}

	assignment := make(map[graph.NodeKey]int64, n)
	clusterOf := make([]int64, n)
	for i, key := range u.keys {
		id := remap[community[i]]
		assignment[key] = id
		clusterOf[i] = id
	}

	// Cluster adjacency from inter-cluster edges.
	adjSet := make(map[int64]map[int64]bool)
	for i := range u.neighbors {
		for _, j := range u.neighbors[i] {
			a, b := clusterOf[i], clusterOf[j]
			if a == b {
				continue
			}
			if adjSet[a] == nil {
				adjSet[a] = make(map[int64]bool)
			}
			adjSet[a][b] = true
		}
	}
	adjacent := make(map[int64][]int64, len(adjSet))
	for a, set := range adjSet {
		ids := make([]int64, 0, len(set))
		for b := range set {
			ids = append(ids, b)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		adjacent[a] = ids
	}

	return ClusterResult{Assignment: assignment, Count: len(order), Adjacent: adjacent}
}
