package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

// chain builds A–B–C with symmetric partner edges of equal strength.
func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	companies := []model.Company{{ID: 1, Name: "A"}, {ID: 2, Name: "B"}, {ID: 3, Name: "C"}}
	rels := []model.Relationship{
		{ID: 1, SourceKind: model.KindCompany, SourceID: 1, TargetKind: model.KindCompany, TargetID: 2,
			Type: model.RelPartnerWith, Strength: 5, Confidence: 1, BaseWeight: 1},
		{ID: 2, SourceKind: model.KindCompany, SourceID: 2, TargetKind: model.KindCompany, TargetID: 3,
			Type: model.RelPartnerWith, Strength: 5, Confidence: 1, BaseWeight: 1},
	}
	b := graph.NewBuilder(decay.New(decay.DefaultHalfLives()), testNow)
	g, issues := b.Build(companies, nil, rels)
	require.Empty(t, issues)
	return g
}

func TestBetweennessBridgeScoresHighest(t *testing.T) {
	g := chainGraph(t)
	scores := Betweenness(g)

	assert.Equal(t, 1.0, scores[graph.CompanyKey(2)])
	assert.Equal(t, 0.0, scores[graph.CompanyKey(1)])
	assert.Equal(t, 0.0, scores[graph.CompanyKey(3)])
}

func TestBetweennessBounds(t *testing.T) {
	g := chainGraph(t)
	for key, s := range Betweenness(g) {
		assert.GreaterOrEqual(t, s, 0.0, key.String())
		assert.LessOrEqual(t, s, 1.0, key.String())
	}
}

func TestLeverageUsesCompanyProjection(t *testing.T) {
	companies := []model.Company{{ID: 1}, {ID: 2}, {ID: 3}}
	contacts := []model.Contact{{ID: 10, CompanyID: 1}, {ID: 11, CompanyID: 2}, {ID: 12, CompanyID: 3}}
	rels := []model.Relationship{
		{ID: 1, SourceKind: model.KindContact, SourceID: 10, TargetKind: model.KindContact, TargetID: 11,
			Type: model.RelColleague, Strength: 5, Confidence: 1, BaseWeight: 1},
		{ID: 2, SourceKind: model.KindContact, SourceID: 11, TargetKind: model.KindContact, TargetID: 12,
			Type: model.RelColleague, Strength: 5, Confidence: 1, BaseWeight: 1},
	}
	b := graph.NewBuilder(decay.New(decay.DefaultHalfLives()), testNow)
	g, issues := b.Build(companies, contacts, rels)
	require.Empty(t, issues)

	lev := Leverage(g)
	assert.Equal(t, 1.0, lev[graph.CompanyKey(2)], "middle employer brokers the only company path")
	assert.Equal(t, 0.0, lev[graph.CompanyKey(1)])
}

func TestInfluenceSumsToOneAndConverges(t *testing.T) {
	g := chainGraph(t)
	res := Influence(g)

	assert.True(t, res.Converged)
	assert.LessOrEqual(t, res.Iterations, InfluenceMaxIterations)

	sum := 0.0
	for _, s := range res.Scores {
		sum += s
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestInfluenceEmptyGraph(t *testing.T) {
	b := graph.NewBuilder(decay.New(decay.DefaultHalfLives()), testNow)
	g, _ := b.Build(nil, nil, nil)

	res := Influence(g)
	assert.True(t, res.Converged)
	assert.Empty(t, res.Scores)
}

// twoTriangles builds two dense triangles joined by a single weak edge.
func twoTriangles(t *testing.T) *graph.Graph {
	t.Helper()
	var companies []model.Company
	for id := int64(1); id <= 6; id++ {
		companies = append(companies, model.Company{ID: id})
	}
	mk := func(id, a, b int64, strength int) model.Relationship {
		return model.Relationship{
			ID: id, SourceKind: model.KindCompany, SourceID: a,
			TargetKind: model.KindCompany, TargetID: b,
			Type: model.RelPartnerWith, Strength: strength, Confidence: 1, BaseWeight: 1,
		}
	}
	rels := []model.Relationship{
		mk(1, 1, 2, 5), mk(2, 2, 3, 5), mk(3, 1, 3, 5),
		mk(4, 4, 5, 5), mk(5, 5, 6, 5), mk(6, 4, 6, 5),
		mk(7, 3, 4, 1),
	}
	b := graph.NewBuilder(decay.New(decay.DefaultHalfLives()), testNow)
	g, issues := b.Build(companies, nil, rels)
	require.Empty(t, issues)
	return g
}

func TestClustersSplitTriangles(t *testing.T) {
	g := twoTriangles(t)
	res := Clusters(g)

	assert.Equal(t, 2, res.Count)
	a := res.Assignment
	assert.Equal(t, a[graph.CompanyKey(1)], a[graph.CompanyKey(2)])
	assert.Equal(t, a[graph.CompanyKey(1)], a[graph.CompanyKey(3)])
	assert.Equal(t, a[graph.CompanyKey(4)], a[graph.CompanyKey(5)])
	assert.NotEqual(t, a[graph.CompanyKey(1)], a[graph.CompanyKey(4)])
	// Dense ids numbered by lowest member: cluster of node 1 is 0.
	assert.Equal(t, int64(0), a[graph.CompanyKey(1)])
	// The bridge edge makes the two clusters adjacent.
	assert.Equal(t, []int64{1}, res.Adjacent[0])
	assert.Equal(t, []int64{0}, res.Adjacent[1])
}

func TestClustersDeterministic(t *testing.T) {
	g := twoTriangles(t)
	first := Clusters(g)
	for i := 0; i < 5; i++ {
		again := Clusters(g)
		assert.Equal(t, first.Assignment, again.Assignment)
		assert.Equal(t, first.Count, again.Count)
	}
}

func TestAdjacencyIndexProximity(t *testing.T) {
	// 1 –– 2(target) and isolated 3.
	companies := []model.Company{
		{ID: 1, Status: model.StatusActiveClient},
		{ID: 2, Status: model.StatusHighGrowthTarget},
		{ID: 3, Status: model.StatusActiveClient},
	}
	rels := []model.Relationship{
		{ID: 1, SourceKind: model.KindCompany, SourceID: 1, TargetKind: model.KindCompany, TargetID: 2,
			Type: model.RelPartnerWith, Strength: 5, Confidence: 1, BaseWeight: 1},
	}
	b := graph.NewBuilder(decay.New(decay.DefaultHalfLives()), testNow)
	g, issues := b.Build(companies, nil, rels)
	require.Empty(t, issues)

	res := Clusters(g)
	idx := AdjacencyIndex(g, res)

	assert.Greater(t, idx[graph.CompanyKey(1)], 0.0)
	assert.Equal(t, 0.0, idx[graph.CompanyKey(3)], "different, non-adjacent cluster sees no targets")
}

func TestMetricsIdempotent(t *testing.T) {
	g := twoTriangles(t)

	c1, c2 := Betweenness(g), Betweenness(g)
	assert.Equal(t, c1, c2)

	i1, i2 := Influence(g), Influence(g)
	assert.Equal(t, i1.Scores, i2.Scores)

	cl := Clusters(g)
	a1 := AdjacencyIndex(g, cl)
	a2 := AdjacencyIndex(g, cl)
	assert.Equal(t, a1, a2)
}
