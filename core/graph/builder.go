package graph

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/model"
)

// defaultInteractionAgeDays is the age assumed for edges that have never
// recorded an interaction.
const defaultInteractionAgeDays = 365

// IntegrityIssue describes a relationship row that could not enter the
// graph. Issues are dropped and logged, never fatal to a run.
type IntegrityIssue struct {
	RelationshipID int64
	Reason         string
}

func (i IntegrityIssue) Error() string {
	return fmt.Sprintf("graph integrity: relationship %d: %s", i.RelationshipID, i.Reason)
}

// Builder assembles the graph snapshot from persisted rows.
type Builder struct {
	decay decay.Model
	now   time.Time
}

// NewBuilder creates a Builder. The reference time fixes every decay
// evaluation in the build, keeping repeated builds byte-identical.
func NewBuilder(d decay.Model, now time.Time) *Builder {
	return &Builder{decay: d, now: now}
}

// Build constructs the graph. Edges referencing missing endpoints or
// forming self-loops are dropped and reported as integrity issues.
func (b *Builder) Build(
	companies []model.Company,
	contacts []model.Contact,
	relationships []model.Relationship,
) (*Graph, []IntegrityIssue) {
	g := newGraph()

	for i := range companies {
		c := &companies[i]
		g.addNode(&Node{
			Key:    CompanyKey(c.ID),
			Name:   c.Name,
			Status: c.Status,
			Sector: c.Sector,
		})
	}
	for i := range contacts {
		c := &contacts[i]
		g.addNode(&Node{
			Key:       ContactKey(c.ID),
			Name:      c.Name(),
			Title:     c.Title,
			RoleLevel: c.RoleLevel,
			CompanyID: c.CompanyID,
		})
	}

	// Insertion order must not depend on storage order.
	rels := make([]model.Relationship, len(relationships))
	copy(rels, relationships)
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })

	var issues []IntegrityIssue
	for i := range rels {
		r := &rels[i]
		src := NodeKey{Kind: r.SourceKind, ID: r.SourceID}
		dst := NodeKey{Kind: r.TargetKind, ID: r.TargetID}

		if src == dst {
			issues = append(issues, IntegrityIssue{r.ID, "self-loop"})
			continue
		}
		if !g.Has(src) {
			issues = append(issues, IntegrityIssue{r.ID, fmt.Sprintf("missing source %s", src)})
			continue
		}
		if !g.Has(dst) {
			issues = append(issues, IntegrityIssue{r.ID, fmt.Sprintf("missing target %s", dst)})
			continue
		}

		w := b.edgeWeight(r)
		g.addEdge(&Edge{From: src, To: dst, Type: r.Type, Weight: w, LastInteraction: r.LastInteraction})
		if r.Type.Symmetric() {
			g.addEdge(&Edge{From: dst, To: src, Type: r.Type, Weight: w, LastInteraction: r.LastInteraction})
		}
	}

	g.freeze()

	for _, issue := range issues {
		slog.Warn("dropped relationship", "relationship_id", issue.RelationshipID, "reason", issue.Reason)
	}
	return g, issues
}

// edgeWeight = base_weight × strength × confidence × interaction decay.
func (b *Builder) edgeWeight(r *model.Relationship) float64 {
	strength := r.Strength
	if strength < 1 {
		strength = 1
	}
	var d float64
	if r.LastInteraction != nil {
		d = b.decay.Weight(*r.LastInteraction, model.SignalRelationship, b.now)
	} else {
		d = b.decay.WeightDays(defaultInteractionAgeDays, model.SignalRelationship)
	}
	return r.BaseWeight * float64(strength) * r.Confidence * d
}

// CompanyProjection collapses the graph onto company nodes only.
// Contacts fold onto their employer: an edge touching a contact becomes
// an edge touching the contact's company, and edges between contacts of
// different employers become company-company edges. Parallel projected
// edges are kept; betweenness on the projection treats them as a
// multigraph the same way the full graph does.
func (g *Graph) CompanyProjection() *Graph {
	p := newGraph()

	employer := make(map[NodeKey]NodeKey)
	for _, key := range g.order {
		n := g.nodes[key]
		switch key.Kind {
		case model.KindCompany:
			p.addNode(&Node{Key: key, Name: n.Name, Status: n.Status, Sector: n.Sector})
		case model.KindContact:
			// A works_at edge wins over the stored employer column.
			for _, e := range g.out[key] {
				if e.Type == model.RelWorksAt && e.To.Kind == model.KindCompany {
					employer[key] = e.To
					break
				}
			}
			if _, ok := employer[key]; !ok && n.CompanyID != 0 && g.Has(CompanyKey(n.CompanyID)) {
				employer[key] = CompanyKey(n.CompanyID)
			}
		}
	}

	project := func(key NodeKey) (NodeKey, bool) {
		if key.Kind == model.KindCompany {
			return key, true
		}
		emp, ok := employer[key]
		return emp, ok
	}

	for _, key := range g.order {
		for _, e := range g.out[key] {
			from, ok := project(e.From)
			if !ok {
				continue
			}
			to, ok := project(e.To)
			if !ok || from == to {
				continue
			}
			p.addEdge(&Edge{From: from, To: to, Type: e.Type, Weight: e.Weight, LastInteraction: e.LastInteraction})
		}
	}

	p.freeze()
	return p
}
