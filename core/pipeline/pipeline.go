// Package pipeline orchestrates the nightly recompute: one consistent
// snapshot in, every derived score out, in a single write transaction.
// Runs are guarded through the recompute log so two never interleave.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/adalundhe/nexus/core/chain"
	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/metrics"
	"github.com/adalundhe/nexus/core/model"
	"github.com/adalundhe/nexus/core/pathfind"
	"github.com/adalundhe/nexus/core/resolve"
	"github.com/adalundhe/nexus/core/scoring"
	"github.com/adalundhe/nexus/core/store"
)

// topMoverCount bounds the movers list in the summary.
const topMoverCount = 5

// Summary is handed to external reporting after every run; the engine
// produces it but never delivers it anywhere itself.
type Summary struct {
	RunID         string
	Nodes         int
	Edges         int
	Clusters      int
	TopCentrality string
	TopLeverage   string
	TopMovers     []scoring.TopMover
	Duration      time.Duration
	Status        model.RunStatus
	Error         string
	Warnings      []string
	ReviewQueued  int
}

// Runner executes recompute runs against one store.
type Runner struct {
	store *store.Store
	cfg   *config.Config
	clock clockwork.Clock
	log   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock substitutes the wall clock, fixing every decay evaluation
// in a run.
func WithClock(c clockwork.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// NewRunner creates a Runner.
func NewRunner(s *store.Store, cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{
		store: s,
		cfg:   cfg,
		clock: clockwork.NewRealClock(),
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full recompute. A second concurrent invocation
// returns store.ErrRunInProgress. Any failure after the guard is
// acquired closes the run row with status failed and persists no score
// changes.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	if err := scoring.ValidateProfiles(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	started := r.clock.Now().UTC()
	if err := r.store.BeginRun(ctx, runID, started); err != nil {
		return nil, err
	}
	r.log.Info("recompute started", "run_id", runID)

	summary, err := r.compute(ctx, runID, started)
	finished := r.clock.Now().UTC()
	duration := finished.Sub(started)

	run := &model.RecomputeRun{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: &finished,
		Duration:   duration.Seconds(),
	}
	if err != nil {
		run.Status = model.RunFailed
		run.ErrorMessage = err.Error()
		// The guard row must close even when the run was cancelled.
		if finishErr := r.store.FinishRun(context.WithoutCancel(ctx), run); finishErr != nil {
			r.log.Error("failed to close run row", "run_id", runID, "error", finishErr)
		}
		r.log.Error("recompute failed", "run_id", runID, "error", err)
		return &Summary{RunID: runID, Duration: duration, Status: model.RunFailed, Error: err.Error()}, err
	}

	run.Status = model.RunSuccess
	run.Nodes = summary.Nodes
	run.Edges = summary.Edges
	run.Clusters = summary.Clusters
	run.TopCentrality = summary.TopCentrality
	run.TopLeverage = summary.TopLeverage
	if finishErr := r.store.FinishRun(ctx, run); finishErr != nil {
		return nil, finishErr
	}

	summary.Duration = duration
	summary.Status = model.RunSuccess
	r.log.Info("recompute finished",
		"run_id", runID,
		"nodes", summary.Nodes,
		"edges", summary.Edges,
		"clusters", summary.Clusters,
		"duration", duration)
	return summary, nil
}

func (r *Runner) compute(ctx context.Context, runID string, now time.Time) (*Summary, error) {
	snap, err := r.store.ReadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{RunID: runID}

	// Resolver pre-pass: dedup signals, merge contacts, queue fuzzy
	// company matches. The resolved view feeds the rest of this run.
	companyMatches := resolve.Companies(snap.Companies, now)
	contacts, merges := resolve.Contacts(snap.Contacts)
	funding, fundingDups := resolve.FundingEvents(snap.Funding)
	hiring, hiringDups := resolve.HiringSignals(snap.Hiring)

	if err := r.store.ApplyResolution(ctx, &store.ResolutionOutcome{
		Review:        companyMatches.Review,
		ContactMerges: merges,
		FundingDups:   fundingDups,
		HiringDups:    hiringDups,
	}); err != nil {
		return nil, err
	}
	summary.ReviewQueued = len(companyMatches.Review)
	if n := len(fundingDups) + len(hiringDups); n > 0 {
		r.log.Info("discarded duplicate signals", "run_id", runID, "count", n)
	}

	companies := canonicalCompanies(snap.Companies, companyMatches.Canonical)
	remapCompanyIDs(companyMatches.Canonical, contacts, funding, hiring, snap.Outreach, snap.Leases)

	d := decay.New(r.cfg.Decay.HalfLives())
	builder := graph.NewBuilder(d, now)
	g, issues := builder.Build(companies, contacts, snap.Relations)
	for _, issue := range issues {
		summary.Warnings = append(summary.Warnings, issue.Error())
	}
	summary.Nodes = g.NodeCount()
	summary.Edges = g.EdgeCount()

	// The metrics stages are independent reads of the immutable
	// snapshot graph.
	var (
		centrality map[graph.NodeKey]float64
		leverage   map[graph.NodeKey]float64
		influence  metrics.InfluenceResult
		clusters   metrics.ClusterResult
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		centrality = metrics.Betweenness(g)
		return egCtx.Err()
	})
	eg.Go(func() error {
		leverage = metrics.Leverage(g)
		return egCtx.Err()
	})
	eg.Go(func() error {
		influence = metrics.Influence(g)
		return egCtx.Err()
	})
	eg.Go(func() error {
		clusters = metrics.Clusters(g)
		return egCtx.Err()
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if !influence.Converged {
		warning := fmt.Sprintf("influence hit the %d-iteration cap without converging", influence.Iterations)
		summary.Warnings = append(summary.Warnings, warning)
		r.log.Warn("influence did not converge", "run_id", runID, "iterations", influence.Iterations)
	}
	adjacency := metrics.AdjacencyIndex(g, clusters)
	summary.Clusters = clusters.Count
	summary.TopCentrality = topEntity(g, centrality)
	summary.TopLeverage = topEntity(g, leverage)

	finder := pathfind.NewFinder(g,
		pathfind.WithMaxHops(r.cfg.Pathfind.MaxHops),
		pathfind.WithCacheSize(r.cfg.Pathfind.CacheSize))
	scorer := scoring.New(r.cfg.Thresholds, d, now, g, finder, centrality, leverage)
	predictor := chain.New(r.cfg.Chain, d, now)

	grouped := groupByCompany(contacts, funding, hiring, snap.Outreach, snap.Leases)

	companyRows := make([]store.CompanyScoreRow, 0, len(companies))
	composites := make(map[int64]float64, len(companies))
	for i := range companies {
		c := &companies[i]
		in := scoring.CompanyInput{
			Company:  c,
			Funding:  grouped.funding[c.ID],
			Hiring:   grouped.hiring[c.ID],
			Outreach: grouped.outreach[c.ID],
			Leases:   grouped.leases[c.ID],
			Contacts: grouped.contacts[c.ID],
		}
		score := scorer.ScoreCompany(in)
		pred := predictor.Predict(chain.Input{
			Company:        c,
			Funding:        in.Funding,
			Hiring:         in.Hiring,
			Leases:         in.Leases,
			Buildings:      snap.Buildings,
			HiringVelocity: velocityRaw(score),
		})

		key := graph.CompanyKey(c.ID)
		composites[c.ID] = score.Composite
		companyRows = append(companyRows, store.CompanyScoreRow{
			CompanyID: c.ID,
			Scores: model.CompanyScores{
				Category:       score.Category,
				Centrality:     centrality[key],
				Leverage:       leverage[key],
				Influence:      influence.Scores[key],
				AdjacencyIndex: adjacency[key],
				ClusterID:      clusterOf(clusters, key),
				Opportunity:    score.Composite,
				Funding:        score.Funding,
				Hiring:         score.Hiring,
				Lease:          score.Lease,
				Relationship:   score.Relationship,
				HiringVelocity: score.Velocity,
				FundingAccel:   score.Accel,
				RelDepth:       score.Depth,
				Coverage:       score.Coverage,
				ChainLeaseProb: pred.LeaseProb,
				ChainScore:     pred.Score,
			},
		})
	}

	contactRows := make([]store.ContactScoreRow, 0, len(contacts))
	for i := range contacts {
		c := &contacts[i]
		key := graph.ContactKey(c.ID)
		contactRows = append(contactRows, store.ContactScoreRow{
			ContactID:      c.ID,
			Centrality:     centrality[key],
			Leverage:       leverage[graph.CompanyKey(c.CompanyID)],
			Influence:      influence.Scores[key],
			AdjacencyIndex: adjacency[key],
			ClusterID:      clusterOf(clusters, key),
			PriorityScore: scorer.PriorityScore(c,
				grouped.contactOutreach[c.ID], composites[c.CompanyID]),
		})
	}

	summary.TopMovers = scoring.TopMovers(companies, composites, topMoverCount)

	// Nothing partial: a cancelled run stops here with no writes.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.store.PersistScores(ctx, companyRows, contactRows); err != nil {
		return nil, err
	}
	return summary, nil
}

// canonicalCompanies drops exact-duplicate company rows from the run's
// working set, keeping the lowest id of each group.
func canonicalCompanies(companies []model.Company, canonical map[int64]int64) []model.Company {
	if len(canonical) == 0 {
		return companies
	}
	out := make([]model.Company, 0, len(companies))
	for i := range companies {
		if _, dup := canonical[companies[i].ID]; !dup {
			out = append(out, companies[i])
		}
	}
	return out
}

// remapCompanyIDs points every record at a duplicate company to its
// canonical row for the remainder of the run.
func remapCompanyIDs(
	canonical map[int64]int64,
	contacts []model.Contact,
	funding []model.FundingEvent,
	hiring []model.HiringSignal,
	outreach []model.OutreachLog,
	leases []model.Lease,
) {
	if len(canonical) == 0 {
		return
	}
	resolveID := func(id int64) int64 {
		if c, ok := canonical[id]; ok {
			return c
		}
		return id
	}
	for i := range contacts {
		contacts[i].CompanyID = resolveID(contacts[i].CompanyID)
	}
	for i := range funding {
		funding[i].CompanyID = resolveID(funding[i].CompanyID)
	}
	for i := range hiring {
		hiring[i].CompanyID = resolveID(hiring[i].CompanyID)
	}
	for i := range outreach {
		outreach[i].CompanyID = resolveID(outreach[i].CompanyID)
	}
	for i := range leases {
		leases[i].CompanyID = resolveID(leases[i].CompanyID)
	}
}

type companyGroups struct {
	contacts        map[int64][]model.Contact
	funding         map[int64][]model.FundingEvent
	hiring          map[int64][]model.HiringSignal
	outreach        map[int64][]model.OutreachLog
	leases          map[int64][]model.Lease
	contactOutreach map[int64][]model.OutreachLog
}

func groupByCompany(
	contacts []model.Contact,
	funding []model.FundingEvent,
	hiring []model.HiringSignal,
	outreach []model.OutreachLog,
	leases []model.Lease,
) companyGroups {
	g := companyGroups{
		contacts:        make(map[int64][]model.Contact),
		funding:         make(map[int64][]model.FundingEvent),
		hiring:          make(map[int64][]model.HiringSignal),
		outreach:        make(map[int64][]model.OutreachLog),
		leases:          make(map[int64][]model.Lease),
		contactOutreach: make(map[int64][]model.OutreachLog),
	}
	for i := range contacts {
		if id := contacts[i].CompanyID; id != 0 {
			g.contacts[id] = append(g.contacts[id], contacts[i])
		}
	}
	for i := range funding {
		g.funding[funding[i].CompanyID] = append(g.funding[funding[i].CompanyID], funding[i])
	}
	for i := range hiring {
		g.hiring[hiring[i].CompanyID] = append(g.hiring[hiring[i].CompanyID], hiring[i])
	}
	for i := range outreach {
		if id := outreach[i].CompanyID; id != 0 {
			g.outreach[id] = append(g.outreach[id], outreach[i])
		}
		if id := outreach[i].ContactID; id != 0 {
			g.contactOutreach[id] = append(g.contactOutreach[id], outreach[i])
		}
	}
	for i := range leases {
		g.leases[leases[i].CompanyID] = append(g.leases[leases[i].CompanyID], leases[i])
	}
	return g
}

// velocityRaw recovers the unscaled velocity sub-score for the chain
// model's expansion gate.
func velocityRaw(score scoring.CompanyScore) float64 {
	w := scoring.Profiles[score.Category]
	if w.Velocity == 0 {
		return 0
	}
	return score.Velocity / w.Velocity
}

// topEntity names the highest-scoring node, ties to the lower key.
func topEntity(g *graph.Graph, scores map[graph.NodeKey]float64) string {
	best, found := graph.NodeKey{}, false
	bestScore := 0.0
	for _, key := range g.Nodes() {
		s := scores[key]
		if !found || s > bestScore {
			best, bestScore, found = key, s, true
		}
	}
	if !found {
		return ""
	}
	return best.String()
}

func clusterOf(clusters metrics.ClusterResult, key graph.NodeKey) int64 {
	if id, ok := clusters.Assignment[key]; ok {
		return id
	}
	return 0
}
