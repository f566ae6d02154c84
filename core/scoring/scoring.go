// Package scoring classifies companies into weight-profile categories
// and computes the eight-factor opportunity score plus contact priority
// scores. All inputs arrive pre-deduplicated; a missing input zeroes its
// sub-score and never fails the company.
package scoring

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
	"github.com/adalundhe/nexus/core/pathfind"
)

// institutionalSectors classify a company regardless of size.
var institutionalSectors = map[string]bool{
	"hedge_fund":         true,
	"private_equity":     true,
	"asset_management":   true,
	"investment_banking": true,
}

// relevanceWeights and signalTypeWeights scale a hiring signal's
// contribution. Unknown values get a conservative default.
var relevanceWeights = map[string]float64{
	"high":   1.0,
	"medium": 0.5,
	"low":    0.2,
}

var signalTypeWeights = map[string]float64{
	"leadership_hire":    1.0,
	"new_office":         0.9,
	"headcount_growth":   0.6,
	"job_posting":        0.4,
	"press_announcement": 0.3,
}

const unknownSignalWeight = 0.3

// directorTitles mark a hiring signal as senior enough to double.
var directorTitles = []string{
	"chief", "ceo", "cfo", "coo", "cto", "president",
	"managing director", "director", "head of", "vp", "vice president",
	"partner", "principal",
}

// CompanyInput bundles everything the scorer reads for one company.
type CompanyInput struct {
	Company  *model.Company
	Funding  []model.FundingEvent
	Hiring   []model.HiringSignal
	Outreach []model.OutreachLog
	Leases   []model.Lease
	Contacts []model.Contact
}

// CompanyScore holds the persisted (weight-scaled) sub-scores and the
// composite. Raw carries the unscaled 0–100 values for diagnostics.
type CompanyScore struct {
	Category     model.CompanyCategory
	Funding      float64
	Hiring       float64
	Lease        float64
	Relationship float64
	Velocity     float64
	Accel        float64
	Depth        float64
	Coverage     float64
	Composite    float64
}

// Scorer computes opportunity and priority scores against one graph
// snapshot.
type Scorer struct {
	thresholds config.ThresholdsConfig
	decay      decay.Model
	now        time.Time
	g          *graph.Graph
	finder     *pathfind.Finder
	centrality map[graph.NodeKey]float64
	leverage   map[graph.NodeKey]float64
	team       []graph.NodeKey
}

// New builds a Scorer. centrality and leverage come from the metrics
// stage; team contacts are discovered from the graph's role levels.
func New(
	thresholds config.ThresholdsConfig,
	d decay.Model,
	now time.Time,
	g *graph.Graph,
	finder *pathfind.Finder,
	centrality, leverage map[graph.NodeKey]float64,
) *Scorer {
	s := &Scorer{
		thresholds: thresholds,
		decay:      d,
		now:        now,
		g:          g,
		finder:     finder,
		centrality: centrality,
		leverage:   leverage,
	}
	for _, key := range g.Nodes() {
		if n := g.Node(key); n != nil && key.Kind == model.KindContact && n.RoleLevel == model.RoleTeam {
			s.team = append(s.team, key)
		}
	}
	return s
}

// Categorize classifies a company. Ordered checks, first match wins:
// institutional sectors and size thresholds come first, then the
// high-growth status, then mature as the fallback.
func (s *Scorer) Categorize(c *model.Company) model.CompanyCategory {
	if institutionalSectors[c.Sector] {
		return model.CategoryInstitutional
	}
	if c.RevenueEstimate > s.thresholds.Revenue {
		return model.CategoryInstitutional
	}
	if c.OfficeSF > s.thresholds.OfficeSF {
		return model.CategoryInstitutional
	}
	if s.decayedCash(c) > s.thresholds.CashBonus {
		return model.CategoryInstitutional
	}
	if c.Status == model.StatusHighGrowthTarget {
		return model.CategoryHighGrowth
	}
	return model.CategoryMature
}

// decayedCash ages a cash-reserve figure by the cash half-life: a
// year-old balance sheet counts half.
func (s *Scorer) decayedCash(c *model.Company) float64 {
	if c.CashReserves <= 0 || c.CashUpdatedAt == nil {
		return 0
	}
	return c.CashReserves * s.decay.Weight(*c.CashUpdatedAt, model.SignalCash, s.now)
}

// ScoreCompany computes the full eight-factor score for one company.
func (s *Scorer) ScoreCompany(in CompanyInput) CompanyScore {
	category := s.Categorize(in.Company)
	w := Profiles[category]

	raw := [8]float64{
		s.fundingScore(in.Funding),
		s.hiringScore(in.Hiring),
		s.leaseScore(in.Leases),
		s.relationshipScore(in.Contacts),
		s.velocityScore(hiringDates(in.Hiring)),
		s.velocityScore(fundingDates(in.Funding)),
		s.depthScore(in.Contacts),
		coverageScore(in.Outreach),
	}

	out := CompanyScore{
		Category:     category,
		Funding:      raw[0] * w.Funding,
		Hiring:       raw[1] * w.Hiring,
		Lease:        raw[2] * w.Lease,
		Relationship: raw[3] * w.Relationship,
		Velocity:     raw[4] * w.Velocity,
		Accel:        raw[5] * w.Accel,
		Depth:        raw[6] * w.Depth,
		Coverage:     raw[7] * w.Coverage,
	}
	out.Composite = clamp(out.Funding+out.Hiring+out.Lease+out.Relationship+
		out.Velocity+out.Accel+out.Depth+out.Coverage, 0, 100)
	return out
}

// fundingScore sums log-scaled, decayed round amounts. Rounds at or
// above the large-round threshold contribute triple.
func (s *Scorer) fundingScore(events []model.FundingEvent) float64 {
	total := 0.0
	for i := range events {
		e := &events[i]
		factor := amountFactor(e.Amount)
		if e.Amount >= s.thresholds.LargeRound {
			factor *= 3
		}
		total += factor * s.decay.Weight(e.EventDate, model.SignalFunding, s.now) * 100
	}
	return clamp(total, 0, 100)
}

// amountFactor maps a round amount onto [0,1] on a log scale; $1B
// saturates. Unknown amounts contribute a conservative constant.
func amountFactor(amount float64) float64 {
	if amount <= 0 {
		return 0.3
	}
	return math.Min(math.Log10(amount+1)/9, 1.0)
}

func (s *Scorer) hiringScore(signals []model.HiringSignal) float64 {
	total := 0.0
	for i := range signals {
		sig := &signals[i]
		rel, ok := relevanceWeights[sig.Relevance]
		if !ok {
			rel = unknownSignalWeight
		}
		typ, ok := signalTypeWeights[sig.SignalType]
		if !ok {
			typ = unknownSignalWeight
		}
		contribution := rel * typ * s.decay.Weight(sig.SignalDate, model.SignalHiring, s.now) * 50
		if s.thresholds.DirectorBoost && directorOrAbove(sig.Details) {
			contribution *= 2
		}
		total += contribution
	}
	return clamp(total, 0, 100)
}

func directorOrAbove(details string) bool {
	d := strings.ToLower(details)
	for _, title := range directorTitles {
		if strings.Contains(d, title) {
			return true
		}
	}
	return false
}

// leaseScore peaks when an expiry lands 3–12 months out and tapers
// linearly on both sides: up from signing-distance zero inside 3
// months, down to nothing by 24 months. Large footprints double.
func (s *Scorer) leaseScore(leases []model.Lease) float64 {
	total := 0.0
	for i := range leases {
		l := &leases[i]
		daysUntil := l.LeaseExpiry.Sub(s.now).Hours() / 24
		timeFactor := leaseTimeFactor(daysUntil)
		if timeFactor == 0 {
			continue
		}
		sizeFactor := 0.3
		if l.SquareFeet > 0 {
			sizeFactor = math.Min(float64(l.SquareFeet)/100_000, 1.0)
		}
		contribution := timeFactor * sizeFactor * 50
		if l.SquareFeet > s.thresholds.LeaseSF {
			contribution *= 2
		}
		total += contribution
	}
	return clamp(total, 0, 100)
}

func leaseTimeFactor(daysUntil float64) float64 {
	const (
		windowStart = 90  // 3 months
		windowEnd   = 365 // 12 months
		horizon     = 730 // gone by 24 months
	)
	switch {
	case daysUntil <= 0:
		return 0
	case daysUntil < windowStart:
		return daysUntil / windowStart
	case daysUntil <= windowEnd:
		return 1
	case daysUntil < horizon:
		return 1 - (daysUntil-windowEnd)/(horizon-windowEnd)
	default:
		return 0
	}
}

// relationshipScore blends the company's best-connected contact with how
// directly the team can reach anyone there.
func (s *Scorer) relationshipScore(contacts []model.Contact) float64 {
	if len(contacts) == 0 {
		return 0
	}
	maxCentrality := 0.0
	for i := range contacts {
		if c := s.centrality[graph.ContactKey(contacts[i].ID)]; c > maxCentrality {
			maxCentrality = c
		}
	}
	hopScore := 0.0
	if hops, ok := s.bestTeamHops(contacts); ok {
		switch hops {
		case 0, 1:
			hopScore = 100
		case 2:
			hopScore = 70
		case 3:
			hopScore = 40
		default:
			hopScore = 20
		}
	}
	return clamp(0.5*maxCentrality*100+0.5*hopScore, 0, 100)
}

// depthScore is the direct-connection ladder: full marks one hop out,
// half at two, nothing beyond.
func (s *Scorer) depthScore(contacts []model.Contact) float64 {
	hops, ok := s.bestTeamHops(contacts)
	if !ok {
		return 0
	}
	switch {
	case hops <= 1:
		return 100
	case hops == 2:
		return 50
	default:
		return 0
	}
}

// bestTeamHops returns the fewest hops from any team contact to any of
// the given contacts. Second return is false when no route exists.
func (s *Scorer) bestTeamHops(contacts []model.Contact) (int, bool) {
	if s.finder == nil || len(s.team) == 0 {
		return 0, false
	}
	best, found := 0, false
	for _, team := range s.team {
		for i := range contacts {
			target := graph.ContactKey(contacts[i].ID)
			if !s.g.Has(target) {
				continue
			}
			p, err := s.finder.ShortestPath(team, target)
			if err != nil {
				// ErrNoPath and unknown entities both mean no route.
				continue
			}
			if !found || p.Hops() < best {
				best, found = p.Hops(), true
			}
		}
	}
	return best, found
}

// velocityScore compares the trailing-30-day event count against the
// trailing-year monthly average. Flat or declining cadence scores zero.
func (s *Scorer) velocityScore(dates []time.Time) float64 {
	const (
		recentWindow = 30
		baseWindow   = 365
	)
	recent, base := 0, 0
	for _, d := range dates {
		age := s.now.Sub(d).Hours() / 24
		if age < 0 || age > baseWindow {
			continue
		}
		base++
		if age <= recentWindow {
			recent++
		}
	}
	if base == 0 {
		return 0
	}
	monthlyAvg := float64(base) * recentWindow / baseWindow
	excess := float64(recent) - monthlyAvg
	if excess <= s.thresholds.VelocityDelta {
		return 0
	}
	return clamp(excess*20, 0, 100)
}

func hiringDates(signals []model.HiringSignal) []time.Time {
	out := make([]time.Time, len(signals))
	for i := range signals {
		out[i] = signals[i].SignalDate
	}
	return out
}

func fundingDates(events []model.FundingEvent) []time.Time {
	out := make([]time.Time, len(events))
	for i := range events {
		out[i] = events[i].EventDate
	}
	return out
}

// coverageScore rewards exclusive coverage: the fewer distinct owners
// working a company, the higher the score. No outreach means no
// coverage at all.
func coverageScore(outreach []model.OutreachLog) float64 {
	owners := make(map[string]bool)
	for i := range outreach {
		if o := strings.TrimSpace(strings.ToLower(outreach[i].Owner)); o != "" {
			owners[o] = true
		}
	}
	switch n := len(owners); {
	case n == 0:
		return 0
	case n == 1:
		return 100
	case n == 2:
		return 80
	case n == 3:
		return 50
	default:
		return math.Max(20, 100-10*float64(n))
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TopMover is one company whose composite moved most since the prior
// run.
type TopMover struct {
	CompanyID int64
	Name      string
	Previous  float64
	Current   float64
}

// Delta returns the signed score change.
func (m TopMover) Delta() float64 { return m.Current - m.Previous }

// TopMovers returns the n companies with the largest absolute composite
// change, biggest first. Ties order by company id.
func TopMovers(companies []model.Company, current map[int64]float64, n int) []TopMover {
	movers := make([]TopMover, 0, len(companies))
	for i := range companies {
		c := &companies[i]
		cur, ok := current[c.ID]
		if !ok {
			continue
		}
		movers = append(movers, TopMover{
			CompanyID: c.ID,
			Name:      c.Name,
			Previous:  c.Scores.Opportunity,
			Current:   cur,
		})
	}
	sort.Slice(movers, func(i, j int) bool {
		di, dj := math.Abs(movers[i].Delta()), math.Abs(movers[j].Delta())
		if di != dj {
			return di > dj
		}
		return movers[i].CompanyID < movers[j].CompanyID
	})
	if len(movers) > n {
		movers = movers[:n]
	}
	return movers
}
