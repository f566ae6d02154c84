package query

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
	"github.com/adalundhe/nexus/core/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := store.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	cfg := config.Default()
	cfg.Store.Path = dbPath
	svc, err := New(s, cfg, WithClock(clockwork.NewFakeClockAt(testNow)))
	require.NoError(t, err)
	return svc, s
}

func seedFixture(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	stmts := []struct {
		q    string
		args []any
	}{
		{`INSERT INTO companies (id, name, sector, status, employee_count, updated_at)
			VALUES (1, 'Northwind Labs', 'tech', 'high_growth_target', 200, ?)`, []any{testNow}},
		{`INSERT INTO companies (id, name, sector, status, updated_at)
			VALUES (2, 'Meridian Capital', 'private_equity', 'active_client', ?)`, []any{testNow}},
		{`INSERT INTO contacts (id, first_name, last_name, company_id, role_level, updated_at)
			VALUES (1, 'Kim', 'Osei', 0, 'team', ?)`, []any{testNow}},
		{`INSERT INTO contacts (id, first_name, last_name, company_id, role_level, updated_at)
			VALUES (2, 'Dana', 'Reyes', 1, 'c_suite', ?)`, []any{testNow}},
		{`INSERT INTO contacts (id, first_name, last_name, company_id, role_level, updated_at)
			VALUES (3, 'Lee', 'Park', 2, 'decision_maker', ?)`, []any{testNow}},
		{`INSERT INTO relationships (id, source_kind, source_id, target_kind, target_id, relationship_type, strength, confidence, base_weight, last_interaction)
			VALUES (1, 'contact', 1, 'contact', 2, 'colleague', 5, 1, 1, ?)`, []any{testNow.AddDate(0, 0, -5)}},
		{`INSERT INTO relationships (id, source_kind, source_id, target_kind, target_id, relationship_type, strength, confidence, base_weight, last_interaction)
			VALUES (2, 'contact', 1, 'contact', 3, 'alumni', 3, 0.9, 1, ?)`, []any{testNow.AddDate(0, -2, 0)}},
		{`INSERT INTO relationships (id, source_kind, source_id, target_kind, target_id, relationship_type)
			VALUES (3, 'contact', 2, 'company', 1, 'works_at')`, nil},
		{`INSERT INTO funding_events (id, company_id, event_date, amount, source_url)
			VALUES (1, 1, ?, 60000000, 'https://news.example/a')`, []any{testNow.AddDate(0, 0, -10)}},
		{`INSERT INTO hiring_signals (id, company_id, signal_date, signal_type, relevance, details)
			VALUES (1, 1, ?, 'leadership_hire', 'high', 'Hired VP of Engineering')`, []any{testNow.AddDate(0, 0, -7)}},
		{`INSERT INTO outreach_log (id, company_id, contact_id, outreach_date, outcome, owner)
			VALUES (1, 1, 2, ?, 'meeting_held', 'kim')`, []any{testNow.AddDate(0, 0, -3)}},
		{`INSERT INTO buildings (id, address, total_sf, in_portfolio)
			VALUES (1, '1 Main St', 45000, 1)`, nil},
		{`INSERT INTO leases (id, company_id, building_id, lease_expiry, square_feet)
			VALUES (1, 1, 1, ?, 40000)`, []any{testNow.AddDate(0, 6, 0)}},
	}
	for _, st := range stmts {
		_, err := s.DB().ExecContext(ctx, st.q, st.args...)
		require.NoError(t, err)
	}
}

func seedScores(t *testing.T, s *store.Store) {
	t.Helper()
	rows := []store.CompanyScoreRow{
		{CompanyID: 1, Scores: model.CompanyScores{
			Category: model.CategoryHighGrowth, Centrality: 0.4, Leverage: 0.6, Opportunity: 72,
		}},
		{CompanyID: 2, Scores: model.CompanyScores{
			Category: model.CategoryInstitutional, Centrality: 0.1, Leverage: 0.2, Opportunity: 41,
		}},
	}
	require.NoError(t, s.PersistScores(context.Background(), rows, nil))
}

func TestRankingOrderAndCache(t *testing.T) {
	svc, s := newTestService(t)
	seedFixture(t, s)
	seedScores(t, s)
	ctx := context.Background()

	ranked, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].ID)
	assert.Equal(t, int64(2), ranked[1].ID)

	// A later score change is invisible until the cache is invalidated.
	svc.cache.Wait()
	_, err = s.DB().ExecContext(ctx, `UPDATE companies SET opportunity_score = 99 WHERE id = 2`)
	require.NoError(t, err)

	cached, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cached[0].ID)

	require.NoError(t, svc.Refresh(ctx))
	fresh, err := svc.Ranking(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), fresh[0].ID)
}

func TestPathDelegatesToFinder(t *testing.T) {
	svc, s := newTestService(t)
	seedFixture(t, s)
	ctx := context.Background()

	path, err := svc.Path(ctx, graph.ContactKey(1), graph.CompanyKey(1))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(path.Nodes), 2)
	assert.Equal(t, graph.ContactKey(1), path.Nodes[0])
	assert.Equal(t, graph.CompanyKey(1), path.Nodes[len(path.Nodes)-1])
	assert.Greater(t, path.Strength, 0.0)
}

func TestMutualConnections(t *testing.T) {
	svc, s := newTestService(t)
	seedFixture(t, s)
	ctx := context.Background()

	// Contacts 2 and 3 share contact 1 as their only common neighbor.
	mutual, err := svc.MutualConnections(ctx, graph.ContactKey(2), graph.ContactKey(3))
	require.NoError(t, err)
	require.Len(t, mutual, 1)
	assert.Equal(t, graph.ContactKey(1), mutual[0].Key)
}

func TestRescoreSingleCompany(t *testing.T) {
	svc, s := newTestService(t)
	seedFixture(t, s)
	seedScores(t, s)
	ctx := context.Background()

	results, err := svc.Rescore(ctx, 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	r := results[0]
	assert.Equal(t, int64(1), r.CompanyID)
	assert.Equal(t, "Northwind Labs", r.Name)
	assert.Equal(t, model.CategoryHighGrowth, r.Category)
	assert.Greater(t, r.Opportunity, 0.0)
	assert.Greater(t, r.ChainProb, 0.0)
	assert.NotEmpty(t, string(r.Stage))

	snap, err := s.ReadSnapshot(ctx)
	require.NoError(t, err)
	for i := range snap.Companies {
		c := snap.Companies[i]
		switch c.ID {
		case 1:
			assert.InDelta(t, r.Opportunity, c.Scores.Opportunity, 1e-9)
			// Network metrics are reused, not recomputed.
			assert.InDelta(t, 0.4, c.Scores.Centrality, 1e-9)
		case 2:
			assert.InDelta(t, 41, c.Scores.Opportunity, 1e-9)
		}
	}
}

func TestRescoreAll(t *testing.T) {
	svc, s := newTestService(t)
	seedFixture(t, s)
	seedScores(t, s)

	results, err := svc.Rescore(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestRescoreUnknownCompany(t *testing.T) {
	svc, s := newTestService(t)
	seedFixture(t, s)

	_, err := svc.Rescore(context.Background(), 42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "company 42 not found")
}
