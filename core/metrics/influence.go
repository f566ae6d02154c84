package metrics

import (
	"math"

	"github.com/adalundhe/nexus/core/graph"
)

const (
	// InfluenceDamping is the standard PageRank damping factor.
	InfluenceDamping = 0.85
	// InfluenceTolerance is the L1 convergence tolerance.
	InfluenceTolerance = 1e-6
	// InfluenceMaxIterations caps the propagation loop; hitting the cap
	// degrades to the best available estimate instead of hanging.
	InfluenceMaxIterations = 100
)

// InfluenceResult carries the propagated scores and whether the loop
// converged inside the iteration cap.
type InfluenceResult struct {
	Scores     map[graph.NodeKey]float64
	Converged  bool
	Iterations int
}

// Influence runs weighted PageRank over the directed graph. Scores sum
// to 1 across all nodes.
func Influence(g *graph.Graph) InfluenceResult {
	keys := g.Nodes()
	n := len(keys)
	if n == 0 {
		return InfluenceResult{Scores: map[graph.NodeKey]float64{}, Converged: true}
	}

	// Compact directed adjacency: for each node, incoming contributors
	// with their edge weights, plus total outgoing weight per node.
	outWeight := make([]float64, n)
	type contrib struct {
		from   int32
		weight float64
	}
	incoming := make([][]contrib, n)
	for i, key := range keys {
		for _, e := range g.Out(key) {
			j := g.Index(e.To)
			if j < 0 || e.Weight <= 0 {
				continue
			}
			outWeight[i] += e.Weight
			incoming[j] = append(incoming[j], contrib{from: int32(i), weight: e.Weight})
		}
	}

	scores := make([]float64, n)
	next := make([]float64, n)
	for i := range scores {
		scores[i] = 1.0 / float64(n)
	}

	iterations := 0
	converged := false
	for iterations < InfluenceMaxIterations {
		iterations++

		sink := 0.0
		for i := range scores {
			if outWeight[i] == 0 {
				sink += scores[i]
			}
		}

		diff := 0.0
		for i := range next {
			in := 0.0
			for _, c := range incoming[i] {
				in += scores[c.from] * c.weight / outWeight[c.from]
			}
			next[i] = (1-InfluenceDamping)/float64(n) + InfluenceDamping*(in+sink/float64(n))
			diff += math.Abs(next[i] - scores[i])
		}
		scores, next = next, scores

		if diff < InfluenceTolerance {
			converged = true
			break
		}
	}

	out := make(map[graph.NodeKey]float64, n)
	for i, key := range keys {
		out[key] = scores[i]
	}
	return InfluenceResult{Scores: out, Converged: converged, Iterations: iterations}
}
