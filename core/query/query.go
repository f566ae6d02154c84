// Package query is the on-demand read surface: opportunity rankings,
// introduction paths, mutual connections, and single-company rescoring.
// Queries run against the last committed snapshot and never trigger a
// full recompute.
package query

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/jonboulle/clockwork"

	"github.com/adalundhe/nexus/core/chain"
	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
	"github.com/adalundhe/nexus/core/pathfind"
	"github.com/adalundhe/nexus/core/scoring"
	"github.com/adalundhe/nexus/core/store"
)

const rankingTTL = 5 * time.Minute

// Service answers read queries over the store and a lazily built graph
// snapshot.
type Service struct {
	store *store.Store
	cfg   *config.Config
	clock clockwork.Clock
	cache *ristretto.Cache

	mu     sync.RWMutex
	g      *graph.Graph
	finder *pathfind.Finder
}

// Option configures a Service.
type Option func(*Service)

// WithClock substitutes the wall clock.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// New creates a Service.
func New(st *store.Store, cfg *config.Config, opts ...Option) (*Service, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build ranking cache: %w", err)
	}
	s := &Service{
		store: st,
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		cache: cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Refresh rebuilds the in-memory graph from the current store state and
// drops every cached result. Call it after a recompute commits.
func (s *Service) Refresh(ctx context.Context) error {
	snap, err := s.store.ReadSnapshot(ctx)
	if err != nil {
		return err
	}
	d := decay.New(s.cfg.Decay.HalfLives())
	g, _ := graph.NewBuilder(d, s.clock.Now().UTC()).Build(snap.Companies, snap.Contacts, snap.Relations)
	finder := pathfind.NewFinder(g,
		pathfind.WithMaxHops(s.cfg.Pathfind.MaxHops),
		pathfind.WithCacheSize(s.cfg.Pathfind.CacheSize))

	s.mu.Lock()
	s.g, s.finder = g, finder
	s.mu.Unlock()
	s.cache.Clear()
	return nil
}

func (s *Service) snapshotGraph(ctx context.Context) (*graph.Graph, *pathfind.Finder, error) {
	s.mu.RLock()
	g, finder := s.g, s.finder
	s.mu.RUnlock()
	if g != nil {
		return g, finder, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.g, s.finder, nil
}

// Ranking returns the top companies by opportunity score, cached for a
// few minutes under each distinct limit.
func (s *Service) Ranking(ctx context.Context, limit int) ([]store.RankedCompany, error) {
	key := "ranking:" + strconv.Itoa(limit)
	if hit, ok := s.cache.Get(key); ok {
		if ranked, ok := hit.([]store.RankedCompany); ok {
			return ranked, nil
		}
	}
	ranked, err := s.store.TopOpportunities(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.SetWithTTL(key, ranked, int64(len(ranked)+1), rankingTTL)
	return ranked, nil
}

// Path finds the strongest introduction path between two entities.
func (s *Service) Path(ctx context.Context, src, dst graph.NodeKey) (pathfind.Path, error) {
	_, finder, err := s.snapshotGraph(ctx)
	if err != nil {
		return pathfind.Path{}, err
	}
	return finder.ShortestPath(src, dst)
}

// MutualConnections lists nodes directly connected to both entities.
func (s *Service) MutualConnections(ctx context.Context, a, b graph.NodeKey) ([]pathfind.Mutual, error) {
	_, finder, err := s.snapshotGraph(ctx)
	if err != nil {
		return nil, err
	}
	return finder.MutualConnections(a, b)
}

// RescoreResult is one company's refreshed scores plus the chain stage,
// which is surfaced here but never persisted.
type RescoreResult struct {
	CompanyID   int64
	Name        string
	Category    model.CompanyCategory
	Opportunity float64
	ChainProb   float64
	ChainScore  float64
	Stage       chain.Stage
}

// Rescore recomputes the opportunity and chain scores for one company
// (or every company when companyID is 0) against current signals,
// reusing the persisted network metrics. It persists the refreshed
// scores and invalidates the ranking cache.
func (s *Service) Rescore(ctx context.Context, companyID int64) ([]RescoreResult, error) {
	snap, err := s.store.ReadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	g, finder, err := s.snapshotGraph(ctx)
	if err != nil {
		return nil, err
	}

	// Reuse the last run's metrics; a rescore refreshes signal-driven
	// scores, not network position.
	centrality := make(map[graph.NodeKey]float64, len(snap.Contacts)+len(snap.Companies))
	leverage := make(map[graph.NodeKey]float64, len(snap.Companies))
	for i := range snap.Companies {
		key := graph.CompanyKey(snap.Companies[i].ID)
		centrality[key] = snap.Companies[i].Scores.Centrality
		leverage[key] = snap.Companies[i].Scores.Leverage
	}
	for i := range snap.Contacts {
		centrality[graph.ContactKey(snap.Contacts[i].ID)] = snap.Contacts[i].Centrality
	}

	now := s.clock.Now().UTC()
	d := decay.New(s.cfg.Decay.HalfLives())
	scorer := scoring.New(s.cfg.Thresholds, d, now, g, finder, centrality, leverage)
	predictor := chain.New(s.cfg.Chain, d, now)

	byCompany := groupSnapshot(snap)

	var results []RescoreResult
	var rows []store.CompanyScoreRow
	for i := range snap.Companies {
		c := &snap.Companies[i]
		if companyID != 0 && c.ID != companyID {
			continue
		}
		in := scoring.CompanyInput{
			Company:  c,
			Funding:  byCompany.funding[c.ID],
			Hiring:   byCompany.hiring[c.ID],
			Outreach: byCompany.outreach[c.ID],
			Leases:   byCompany.leases[c.ID],
			Contacts: byCompany.contacts[c.ID],
		}
		score := scorer.ScoreCompany(in)
		velocity := 0.0
		if w := scoring.Profiles[score.Category]; w.Velocity > 0 {
			velocity = score.Velocity / w.Velocity
		}
		pred := predictor.Predict(chain.Input{
			Company:        c,
			Funding:        in.Funding,
			Hiring:         in.Hiring,
			Leases:         in.Leases,
			Buildings:      snap.Buildings,
			HiringVelocity: velocity,
		})

		updated := c.Scores
		updated.Category = score.Category
		updated.Opportunity = score.Composite
		updated.Funding = score.Funding
		updated.Hiring = score.Hiring
		updated.Lease = score.Lease
		updated.Relationship = score.Relationship
		updated.HiringVelocity = score.Velocity
		updated.FundingAccel = score.Accel
		updated.RelDepth = score.Depth
		updated.Coverage = score.Coverage
		updated.ChainLeaseProb = pred.LeaseProb
		updated.ChainScore = pred.Score

		rows = append(rows, store.CompanyScoreRow{CompanyID: c.ID, Scores: updated})
		results = append(results, RescoreResult{
			CompanyID:   c.ID,
			Name:        c.Name,
			Category:    score.Category,
			Opportunity: score.Composite,
			ChainProb:   pred.LeaseProb,
			ChainScore:  pred.Score,
			Stage:       pred.Stage,
		})
	}
	if companyID != 0 && len(rows) == 0 {
		return nil, fmt.Errorf("company %d not found", companyID)
	}

	if err := s.store.PersistScores(ctx, rows, nil); err != nil {
		return nil, err
	}
	s.cache.Clear()
	return results, nil
}

type snapshotGroups struct {
	contacts map[int64][]model.Contact
	funding  map[int64][]model.FundingEvent
	hiring   map[int64][]model.HiringSignal
	outreach map[int64][]model.OutreachLog
	leases   map[int64][]model.Lease
}

func groupSnapshot(snap *store.Snapshot) snapshotGroups {
	g := snapshotGroups{
		contacts: make(map[int64][]model.Contact),
		funding:  make(map[int64][]model.FundingEvent),
		hiring:   make(map[int64][]model.HiringSignal),
		outreach: make(map[int64][]model.OutreachLog),
		leases:   make(map[int64][]model.Lease),
	}
	for i := range snap.Contacts {
		if id := snap.Contacts[i].CompanyID; id != 0 {
			g.contacts[id] = append(g.contacts[id], snap.Contacts[i])
		}
	}
	for i := range snap.Funding {
		g.funding[snap.Funding[i].CompanyID] = append(g.funding[snap.Funding[i].CompanyID], snap.Funding[i])
	}
	for i := range snap.Hiring {
		g.hiring[snap.Hiring[i].CompanyID] = append(g.hiring[snap.Hiring[i].CompanyID], snap.Hiring[i])
	}
	for i := range snap.Outreach {
		if id := snap.Outreach[i].CompanyID; id != 0 {
			g.outreach[id] = append(g.outreach[id], snap.Outreach[i])
		}
	}
	for i := range snap.Leases {
		g.leases[snap.Leases[i].CompanyID] = append(g.leases[snap.Leases[i].CompanyID], snap.Leases[i])
	}
	return g
}
