package metrics

import (
	"container/heap"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/adalundhe/nexus/core/graph"
)

// Betweenness computes Brandes betweenness centrality over the whole
// graph, treating edges as undirected with cost 1/weight, normalized so
// the most central node scores 1.0. Returns an empty map for graphs too
// small to have intermediaries.
func Betweenness(g *graph.Graph) map[graph.NodeKey]float64 {
	u := buildUndirected(g)
	n := len(u.keys)
	scores := make([]float64, n)

	if n > 2 {
		for src := 0; src < n; src++ {
			brandesAccumulate(u, src, scores)
		}
	}

	out := make(map[graph.NodeKey]float64, n)
	if n == 0 {
		return out
	}
	max := floats.Max(append([]float64{0}, scores...))
	for i, key := range u.keys {
		if max > 0 {
			out[key] = scores[i] / max
		} else {
			out[key] = 0
		}
	}
	return out
}

// Leverage is betweenness restricted to the company-only projection,
// capturing structural position in capital and deal flow.
func Leverage(g *graph.Graph) map[graph.NodeKey]float64 {
	return Betweenness(g.CompanyProjection())
}

// brandesAccumulate runs one weighted Brandes source iteration and adds
// the pair dependencies into scores.
func brandesAccumulate(u *undirected, src int, scores []float64) {
	n := len(u.keys)
	dist := make([]float64, n)
	sigma := make([]float64, n)
	delta := make([]float64, n)
	preds := make([][]int32, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[src] = 0
	sigma[src] = 1

	var order []int32
	h := &distHeap{{node: int32(src), dist: 0}}
	settled := make([]bool, n)

	for h.Len() > 0 {
		item := heap.Pop(h).(distItem)
		v := item.node
		if settled[v] {
			continue
		}
		settled[v] = true
		order = append(order, v)

		for p, w := range u.neighbors[v] {
			d := dist[v] + cost(u.weights[v][p])
			switch {
			case d < dist[w]:
				dist[w] = d
				sigma[w] = sigma[v]
				preds[w] = append(preds[w][:0], v)
				heap.Push(h, distItem{node: w, dist: d})
			case d == dist[w]:
				sigma[w] += sigma[v]
				preds[w] = append(preds[w], v)
			}
		}
	}

	// Dependency accumulation in reverse settle order.
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range preds[w] {
			delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
		}
		if int(w) != src {
			scores[w] += delta[w]
		}
	}
}
