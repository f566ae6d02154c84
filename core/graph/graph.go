// Package graph holds the in-memory relationship graph: a typed,
// weighted, directed multigraph built once per run and treated as an
// immutable snapshot by every consumer.
package graph

import (
	"sort"
	"strconv"
	"time"

	"github.com/adalundhe/nexus/core/model"
)

// NodeKey tags a node with its entity kind and row id.
type NodeKey struct {
	Kind model.EntityKind
	ID   int64
}

// CompanyKey builds the key for a company node.
func CompanyKey(id int64) NodeKey { return NodeKey{Kind: model.KindCompany, ID: id} }

// ContactKey builds the key for a contact node.
func ContactKey(id int64) NodeKey { return NodeKey{Kind: model.KindContact, ID: id} }

func (k NodeKey) String() string {
	return k.Kind.String() + "_" + strconv.FormatInt(k.ID, 10)
}

// Less orders keys by kind then id. All deterministic iteration in the
// metrics and pathfinding code relies on this ordering.
func Less(a, b NodeKey) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.ID < b.ID
}

// Node carries the attributes scoring and metrics need; everything else
// stays in the store.
type Node struct {
	Key       NodeKey
	Name      string
	Status    string
	Sector    string
	Title     string
	RoleLevel model.RoleLevel
	CompanyID int64 // employer for contacts, 0 otherwise
}

// Edge is one directed edge. Symmetric relationship types appear as two
// Edge values with equal weight.
type Edge struct {
	From, To        NodeKey
	Type            model.RelationshipType
	Weight          float64
	LastInteraction *time.Time
}

// Graph is the immutable snapshot. Build it through a Builder; do not
// mutate after Freeze.
type Graph struct {
	nodes map[NodeKey]*Node
	order []NodeKey
	index map[NodeKey]int
	out   map[NodeKey][]*Edge
	in    map[NodeKey][]*Edge
	edges int
}

func newGraph() *Graph {
	return &Graph{
		nodes: make(map[NodeKey]*Node),
		out:   make(map[NodeKey][]*Edge),
		in:    make(map[NodeKey][]*Edge),
	}
}

func (g *Graph) addNode(n *Node) {
	g.nodes[n.Key] = n
}

func (g *Graph) addEdge(e *Edge) {
	g.out[e.From] = append(g.out[e.From], e)
	g.in[e.To] = append(g.in[e.To], e)
	g.edges++
}

// freeze sorts the node order and builds the position index. Called once
// by the builder.
func (g *Graph) freeze() {
	g.order = make([]NodeKey, 0, len(g.nodes))
	for k := range g.nodes {
		g.order = append(g.order, k)
	}
	sort.Slice(g.order, func(i, j int) bool { return Less(g.order[i], g.order[j]) })
	g.index = make(map[NodeKey]int, len(g.order))
	for i, k := range g.order {
		g.index[k] = i
	}
}

// Nodes returns all node keys in sorted order. Callers must not mutate
// the returned slice.
func (g *Graph) Nodes() []NodeKey { return g.order }

// Index returns the position of key in the sorted node order, or -1.
func (g *Graph) Index(key NodeKey) int {
	if i, ok := g.index[key]; ok {
		return i
	}
	return -1
}

// Node returns the node for key, or nil.
func (g *Graph) Node(key NodeKey) *Node { return g.nodes[key] }

// Has reports whether key is present.
func (g *Graph) Has(key NodeKey) bool { _, ok := g.nodes[key]; return ok }

// Out returns the outgoing edges of key in insertion order.
func (g *Graph) Out(key NodeKey) []*Edge { return g.out[key] }

// In returns the incoming edges of key in insertion order.
func (g *Graph) In(key NodeKey) []*Edge { return g.in[key] }

// Touching returns all edges incident to key, outgoing first. The
// returned order is deterministic for identical build input.
func (g *Graph) Touching(key NodeKey) []*Edge {
	outs := g.out[key]
	ins := g.in[key]
	all := make([]*Edge, 0, len(outs)+len(ins))
	all = append(all, outs...)
	all = append(all, ins...)
	return all
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of directed edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Neighbor returns the endpoint of e that is not key.
func Neighbor(key NodeKey, e *Edge) NodeKey {
	if e.From == key {
		return e.To
	}
	return e.From
}
