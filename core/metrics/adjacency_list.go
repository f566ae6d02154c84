// Package metrics computes the network-position metrics: betweenness
// centrality, company-subgraph leverage, PageRank influence, modularity
// clusters, and the strategic adjacency index. Every computation
// iterates nodes in the graph's sorted order so identical input yields
// byte-identical output.
package metrics

import (
	"container/heap"
	"math"

	"github.com/adalundhe/nexus/core/graph"
)

// undirected is a compact undirected view of the graph: parallel edges
// between a pair are merged by summing weights, and neighbor lists are
// sorted by node index.
type undirected struct {
	keys      []graph.NodeKey
	neighbors [][]int32
	weights   [][]float64
}

func buildUndirected(g *graph.Graph) *undirected {
	keys := g.Nodes()
	n := len(keys)
	agg := make([]map[int32]float64, n)
	for i := range agg {
		agg[i] = make(map[int32]float64)
	}

	for i, key := range keys {
		for _, e := range g.Out(key) {
			j := g.Index(e.To)
			if j < 0 || e.Weight <= 0 {
				continue
			}
			agg[i][int32(j)] += e.Weight
			agg[int32(j)][int32(i)] += e.Weight
		}
	}

	u := &undirected{
		keys:      keys,
		neighbors: make([][]int32, n),
		weights:   make([][]float64, n),
	}
	for i := range agg {
		idxs := make([]int32, 0, len(agg[i]))
		for j := range agg[i] {
			idxs = append(idxs, j)
		}
		sortInt32(idxs)
		ws := make([]float64, len(idxs))
		for p, j := range idxs {
			ws[p] = agg[i][j]
		}
		u.neighbors[i] = idxs
		u.weights[i] = ws
	}
	return u
}

func sortInt32(s []int32) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

// cost converts an aggregated weight into a traversal cost: a stronger
// relationship is a shorter distance.
func cost(weight float64) float64 {
	if weight <= 0 {
		return math.Inf(1)
	}
	return 1.0 / weight
}

// distItem is a priority-queue entry. Ties on distance break toward the
// lower node index to keep traversal order deterministic.
type distItem struct {
	node int32
	dist float64
}

type distHeap []distItem

func (h distHeap) Len() int { return len(h) }
func (h distHeap) Less(i, j int) bool {
	if h[i].dist != h[j].dist {
		return h[i].dist < h[j].dist
	}
	return h[i].node < h[j].node
}
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x any)         { *h = append(*h, x.(distItem)) }
func (h *distHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// shortestDistances runs Dijkstra from src over the undirected view and
// returns the distance array (Inf where unreachable).
func (u *undirected) shortestDistances(src int) []float64 {
	n := len(u.keys)
	dist := make([]float64, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0

	h := &distHeap{{node: int32(src), dist: 0}}
	for h.Len() > 0 {
		item := heap.Pop(h).(distItem)
		if item.dist > dist[item.node] {
			continue
		}
		for p, j := range u.neighbors[item.node] {
			d := item.dist + cost(u.weights[item.node][p])
			if d < dist[j] {
				dist[j] = d
				heap.Push(h, distItem{node: j, dist: d})
			}
		}
	}
	return dist
}
