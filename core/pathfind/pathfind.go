// Package pathfind answers introduction-path and mutual-connection
// queries over a built graph snapshot. Edges are traversed in both
// directions: an introduction can flow either way along a relationship.
package pathfind

import (
	"container/heap"
	"errors"
	"fmt"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/adalundhe/nexus/core/graph"
)

// DefaultMaxHops bounds path searches when the caller does not override
// the hop limit.
const DefaultMaxHops = 4

// ErrNoPath is returned when no path exists within the hop limit.
var ErrNoPath = errors.New("no connection path found")

// Path is one resolved route between two entities. Strength is the
// reciprocal of the accumulated cost, so stronger chains score higher.
type Path struct {
	Nodes    []graph.NodeKey
	Edges    []*graph.Edge
	Cost     float64
	Strength float64
}

// Hops returns the number of edges traversed.
func (p Path) Hops() int { return len(p.Edges) }

// Mutual is one shared connection between two query entities, with the
// edge weight toward each side.
type Mutual struct {
	Key      graph.NodeKey
	WeightA  float64
	WeightB  float64
	Combined float64
}

// Finder runs read-only queries against a single snapshot. Results are
// cached for the snapshot's lifetime; build a new Finder after each
// recompute.
type Finder struct {
	g       *graph.Graph
	maxHops int
	cache   *lru.Cache[string, Path]
}

// Option configures a Finder.
type Option func(*Finder)

// WithMaxHops overrides the default hop limit.
func WithMaxHops(hops int) Option {
	return func(f *Finder) {
		if hops > 0 {
			f.maxHops = hops
		}
	}
}

// WithCacheSize sets the path cache capacity.
func WithCacheSize(size int) Option {
	return func(f *Finder) {
		if size > 0 {
			cache, err := lru.New[string, Path](size)
			if err == nil {
				f.cache = cache
			}
		}
	}
}

// NewFinder wraps a built graph snapshot.
func NewFinder(g *graph.Graph, opts ...Option) *Finder {
	f := &Finder{g: g, maxHops: DefaultMaxHops}
	cache, _ := lru.New[string, Path](512)
	f.cache = cache
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// ShortestPath finds the lowest-cost route from src to dst, where each
// edge costs the reciprocal of its weight. Equal-cost ties prefer the
// path whose oldest interaction is most recent, then the lower node
// order. Returns ErrNoPath when dst is unreachable within the hop
// limit.
func (f *Finder) ShortestPath(src, dst graph.NodeKey) (Path, error) {
	if !f.g.Has(src) {
		return Path{}, fmt.Errorf("pathfind: unknown entity %s", src)
	}
	if !f.g.Has(dst) {
		return Path{}, fmt.Errorf("pathfind: unknown entity %s", dst)
	}
	if src == dst {
		return Path{Nodes: []graph.NodeKey{src}, Strength: 1}, nil
	}

	cacheKey := src.String() + ">" + dst.String()
	if p, ok := f.cache.Get(cacheKey); ok {
		return p, nil
	}

	p, ok := f.search(src, dst)
	if !ok {
		return Path{}, fmt.Errorf("%w: %s to %s within %d hops", ErrNoPath, src, dst, f.maxHops)
	}
	f.cache.Add(cacheKey, p)
	return p, nil
}

// state is one (node, hops) entry in the layered Dijkstra. Tracking
// hops separately keeps the hop bound exact: a longer-but-cheaper
// prefix never hides a shorter one that could still reach dst in
// budget.
type state struct {
	node int
	hops int
}

type visit struct {
	cost   float64
	oldest time.Time // zero means no interaction recorded on the path
	prev   state
	via    *graph.Edge
}

func (f *Finder) search(src, dst graph.NodeKey) (Path, bool) {
	srcIdx, dstIdx := f.g.Index(src), f.g.Index(dst)
	keys := f.g.Nodes()

	best := make(map[state]visit)
	start := state{node: srcIdx}
	best[start] = visit{oldest: maxTime, prev: state{node: -1}}

	h := &pathHeap{{state: start}}
	for h.Len() > 0 {
		cur := heap.Pop(h).(pathItem)
		cv, ok := best[cur.state]
		if !ok || cur.cost > cv.cost {
			continue
		}
		if cur.state.node == dstIdx {
			return f.reconstruct(best, cur.state), true
		}
		if cur.state.hops == f.maxHops {
			continue
		}

		key := keys[cur.state.node]
		for _, e := range f.g.Touching(key) {
			if e.Weight <= 0 {
				continue
			}
			next := f.g.Index(graph.Neighbor(key, e))
			if next < 0 || next == cur.state.node {
				continue
			}
			ns := state{node: next, hops: cur.state.hops + 1}
			nv := visit{
				cost:   cv.cost + 1/e.Weight,
				oldest: olderOf(cv.oldest, e.LastInteraction),
				prev:   cur.state,
				via:    e,
			}
			if old, seen := best[ns]; seen && !betterVisit(nv, old) {
				continue
			}
			best[ns] = nv
			heap.Push(h, pathItem{state: ns, cost: nv.cost})
		}
	}
	return Path{}, false
}

// betterVisit orders candidate visits: lower cost wins, then the more
// recent oldest interaction, then the lower predecessor node order.
func betterVisit(a, b visit) bool {
	const eps = 1e-12
	if a.cost < b.cost-eps {
		return true
	}
	if a.cost > b.cost+eps {
		return false
	}
	if !a.oldest.Equal(b.oldest) {
		return a.oldest.After(b.oldest)
	}
	return a.prev.node < b.prev.node
}

// maxTime seeds the source state so the first traversed edge always
// sets the path's oldest interaction.
var maxTime = time.Unix(1<<62, 0)

// olderOf folds an edge interaction time into the path's oldest
// interaction. A nil edge time counts as never interacted, which is
// older than any recorded time.
func olderOf(pathOldest time.Time, edgeTime *time.Time) time.Time {
	et := time.Time{}
	if edgeTime != nil {
		et = *edgeTime
	}
	if et.Before(pathOldest) {
		return et
	}
	return pathOldest
}

func (f *Finder) reconstruct(best map[state]visit, end state) Path {
	keys := f.g.Nodes()
	var nodes []graph.NodeKey
	var edges []*graph.Edge
	for s := end; s.node >= 0; {
		nodes = append(nodes, keys[s.node])
		v := best[s]
		if v.via != nil {
			edges = append(edges, v.via)
		}
		s = v.prev
	}
	reverseKeys(nodes)
	reverseEdges(edges)

	p := Path{Nodes: nodes, Edges: edges, Cost: best[end].cost}
	if p.Cost > 0 {
		p.Strength = 1 / p.Cost
	}
	return p
}

func reverseKeys(s []graph.NodeKey) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseEdges(s []*graph.Edge) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// MutualConnections returns every node with a direct edge to both a and
// b, strongest combined weight first. Ties order by node key.
func (f *Finder) MutualConnections(a, b graph.NodeKey) ([]Mutual, error) {
	if !f.g.Has(a) {
		return nil, fmt.Errorf("pathfind: unknown entity %s", a)
	}
	if !f.g.Has(b) {
		return nil, fmt.Errorf("pathfind: unknown entity %s", b)
	}

	toA := strongestNeighbors(f.g, a)
	toB := strongestNeighbors(f.g, b)

	var out []Mutual
	for key, wa := range toA {
		if key == b {
			continue
		}
		wb, ok := toB[key]
		if !ok || key == a {
			continue
		}
		out = append(out, Mutual{Key: key, WeightA: wa, WeightB: wb, Combined: wa + wb})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Combined != out[j].Combined {
			return out[i].Combined > out[j].Combined
		}
		return graph.Less(out[i].Key, out[j].Key)
	})
	return out, nil
}

// strongestNeighbors maps each neighbor of key to the strongest edge
// weight between them, ignoring edge direction.
func strongestNeighbors(g *graph.Graph, key graph.NodeKey) map[graph.NodeKey]float64 {
	m := make(map[graph.NodeKey]float64)
	for _, e := range g.Touching(key) {
		n := graph.Neighbor(key, e)
		if n == key || e.Weight <= 0 {
			continue
		}
		if e.Weight > m[n] {
			m[n] = e.Weight
		}
	}
	return m
}

// pathHeap orders frontier items by cost, breaking ties on lower node
// order then lower hop count so identical input explores identically.
type pathItem struct {
	state state
	cost  float64
}

type pathHeap []pathItem

func (h pathHeap) Len() int { return len(h) }
func (h pathHeap) Less(i, j int) bool {
	if h[i].cost != h[j].cost {
		return h[i].cost < h[j].cost
	}
	if h[i].state.node != h[j].state.node {
		return h[i].state.node < h[j].state.node
	}
	return h[i].state.hops < h[j].state.hops
}
func (h pathHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *pathHeap) Push(x any)   { *h = append(*h, x.(pathItem)) }
func (h *pathHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
