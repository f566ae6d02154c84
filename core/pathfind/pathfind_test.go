package pathfind

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func rel(id, a, b int64, strength int, last *time.Time) model.Relationship {
	return model.Relationship{
		ID: id, SourceKind: model.KindContact, SourceID: a,
		TargetKind: model.KindContact, TargetID: b,
		Type: model.RelColleague, Strength: strength, Confidence: 1, BaseWeight: 1,
		LastInteraction: last,
	}
}

func build(t *testing.T, contacts []model.Contact, rels []model.Relationship) *graph.Graph {
	t.Helper()
	b := graph.NewBuilder(decay.New(decay.DefaultHalfLives()), testNow)
	g, issues := b.Build(nil, contacts, rels)
	require.Empty(t, issues)
	return g
}

func TestShortestPathPrefersStrongerRoute(t *testing.T) {
	// 1–2–4 is two strong hops; 1–3–4 is two weak hops. The strong
	// route costs less despite equal length.
	contacts := []model.Contact{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	rels := []model.Relationship{
		rel(1, 1, 2, 8, nil),
		rel(2, 2, 4, 8, nil),
		rel(3, 1, 3, 1, nil),
		rel(4, 3, 4, 1, nil),
	}
	f := NewFinder(build(t, contacts, rels))

	p, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(4))
	require.NoError(t, err)
	assert.Equal(t, []graph.NodeKey{
		graph.ContactKey(1), graph.ContactKey(2), graph.ContactKey(4),
	}, p.Nodes)
	assert.Equal(t, 2, p.Hops())
	assert.Greater(t, p.Strength, 0.0)
}

func TestShortestPathRecencyTieBreak(t *testing.T) {
	recent := testNow.AddDate(0, 0, -1)
	stale := testNow.AddDate(-3, 0, 0)
	// Two symmetric routes of equal strength; the one touched
	// yesterday wins over the one idle for years. Decay uses the
	// relationship half-life, so keep both interactions recent enough
	// that the weights stay close and pin equality via raw strength.
	contacts := []model.Contact{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}
	rels := []model.Relationship{
		rel(1, 1, 2, 5, &recent),
		rel(2, 2, 4, 5, &recent),
		rel(3, 1, 3, 5, &stale),
		rel(4, 3, 4, 5, &stale),
	}
	f := NewFinder(build(t, contacts, rels))

	p, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(4))
	require.NoError(t, err)
	assert.Equal(t, graph.ContactKey(2), p.Nodes[1],
		"recently active route should win; stale route also costs more after decay")
}

func TestShortestPathHopLimit(t *testing.T) {
	contacts := []model.Contact{{ID: 1}, {ID: 2}, {ID: 3}}
	rels := []model.Relationship{
		rel(1, 1, 2, 5, nil),
		rel(2, 2, 3, 5, nil),
	}
	f := NewFinder(build(t, contacts, rels), WithMaxHops(1))

	_, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(3))
	assert.ErrorIs(t, err, ErrNoPath)

	p, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(2))
	require.NoError(t, err)
	assert.Equal(t, 1, p.Hops())
}

func TestShortestPathUnknownEntity(t *testing.T) {
	f := NewFinder(build(t, []model.Contact{{ID: 1}}, nil))

	_, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(99))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoPath), "unknown entities are a caller error, not unreachability")
}

func TestShortestPathSelf(t *testing.T) {
	f := NewFinder(build(t, []model.Contact{{ID: 1}}, nil))

	p, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(1))
	require.NoError(t, err)
	assert.Equal(t, 0, p.Hops())
	assert.Equal(t, []graph.NodeKey{graph.ContactKey(1)}, p.Nodes)
}

func TestShortestPathCached(t *testing.T) {
	contacts := []model.Contact{{ID: 1}, {ID: 2}}
	f := NewFinder(build(t, contacts, []model.Relationship{rel(1, 1, 2, 5, nil)}))

	first, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(2))
	require.NoError(t, err)
	again, err := f.ShortestPath(graph.ContactKey(1), graph.ContactKey(2))
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestMutualConnectionsRankedByWeight(t *testing.T) {
	// 3 and 4 both know 1 and 2; 3's ties are stronger.
	contacts := []model.Contact{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}}
	rels := []model.Relationship{
		rel(1, 1, 3, 9, nil),
		rel(2, 2, 3, 9, nil),
		rel(3, 1, 4, 2, nil),
		rel(4, 2, 4, 2, nil),
		rel(5, 1, 5, 5, nil), // knows only one side
	}
	f := NewFinder(build(t, contacts, rels))

	mutuals, err := f.MutualConnections(graph.ContactKey(1), graph.ContactKey(2))
	require.NoError(t, err)
	require.Len(t, mutuals, 2)
	assert.Equal(t, graph.ContactKey(3), mutuals[0].Key)
	assert.Equal(t, graph.ContactKey(4), mutuals[1].Key)
	assert.Greater(t, mutuals[0].Combined, mutuals[1].Combined)
}

func TestMutualConnectionsExcludesEndpoints(t *testing.T) {
	contacts := []model.Contact{{ID: 1}, {ID: 2}}
	f := NewFinder(build(t, contacts, []model.Relationship{rel(1, 1, 2, 5, nil)}))

	mutuals, err := f.MutualConnections(graph.ContactKey(1), graph.ContactKey(2))
	require.NoError(t, err)
	assert.Empty(t, mutuals)
}
