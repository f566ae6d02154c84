// Package chain models the capital → expansion → lease sequence: a
// company that raises money starts hiring, and a company that outgrows
// its space signs a lease six to eighteen months later. The predictor is
// a calibrated heuristic, recomputed from scratch every run.
package chain

import (
	"math"
	"time"

	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/model"
)

// Stage labels where a company sits in the chain. Surfaced in query
// output, never persisted.
type Stage string

const (
	StageDormant       Stage = "dormant"
	StageCapital       Stage = "capital"
	StageExpansion     Stage = "expansion"
	StageLeaseImminent Stage = "lease_imminent"
)

// imminentWindowDays bounds the lease expiry horizon that marks the
// final chain stage.
const imminentWindowDays = 365

// Input bundles one company's chain evidence. HiringVelocity is the raw
// velocity sub-score from the opportunity scorer, already gated on the
// configured delta.
type Input struct {
	Company        *model.Company
	Funding        []model.FundingEvent
	Hiring         []model.HiringSignal
	Leases         []model.Lease
	Buildings      []model.Building
	HiringVelocity float64
}

// Prediction is the chain output for one company.
type Prediction struct {
	LeaseProb float64 // calibrated probability in [0,1]
	Score     float64 // probability × completeness, scaled to [0,100]
	Stage     Stage

	Capital   float64
	Expansion float64
	Portfolio float64
}

// Predictor evaluates the chain model against a fixed reference time.
type Predictor struct {
	cfg   config.ChainConfig
	decay decay.Model
	now   time.Time
}

// New creates a Predictor.
func New(cfg config.ChainConfig, d decay.Model, now time.Time) *Predictor {
	return &Predictor{cfg: cfg, decay: d, now: now}
}

// Predict runs the chain model for one company.
func (p *Predictor) Predict(in Input) Prediction {
	capital := p.capitalSignal(in.Funding)
	expansion := p.expansionSignal(capital, in.HiringVelocity)
	portfolio := p.portfolioMatch(in.Company, in.Leases, in.Buildings)

	prob := sigmoid(p.cfg.WeightCapital*capital +
		p.cfg.WeightExpansion*expansion +
		p.cfg.WeightPortfolio*portfolio -
		p.cfg.Bias)

	return Prediction{
		LeaseProb: prob,
		Score:     prob * p.completeness(in) * 100,
		Stage:     p.stage(capital, expansion, in.Leases),
		Capital:   capital,
		Expansion: expansion,
		Portfolio: portfolio,
	}
}

// capitalSignal is the strongest decayed qualifying round: a funding
// event at or above the capital threshold inside the lookback window.
// Rounds below the threshold or outside the window contribute nothing.
func (p *Predictor) capitalSignal(events []model.FundingEvent) float64 {
	lookback := float64(p.cfg.LookbackDays)
	best := 0.0
	for i := range events {
		e := &events[i]
		if e.Amount < p.cfg.CapitalThreshold {
			continue
		}
		age := p.now.Sub(e.EventDate).Hours() / 24
		if age < 0 || age > lookback {
			continue
		}
		if w := p.decay.Weight(e.EventDate, model.SignalFunding, p.now); w > best {
			best = w
		}
	}
	return best
}

// expansionSignal fires only downstream of capital: hiring velocity
// without a raise is churn, not the chain.
func (p *Predictor) expansionSignal(capital, hiringVelocity float64) float64 {
	if capital == 0 || hiringVelocity <= 0 {
		return 0
	}
	return math.Min(hiringVelocity/100, 1)
}

// portfolioMatch measures how well covered buildings fit the company's
// likely footprint (employees × sf-per-employee). A current lease in a
// covered building is a full match; otherwise the best size fit among
// covered buildings, scaled by how far off the footprint is.
func (p *Predictor) portfolioMatch(c *model.Company, leases []model.Lease, buildings []model.Building) float64 {
	covered := make(map[int64]*model.Building)
	for i := range buildings {
		if buildings[i].InPortfolio {
			covered[buildings[i].ID] = &buildings[i]
		}
	}
	if len(covered) == 0 {
		return 0
	}

	for i := range leases {
		if _, ok := covered[leases[i].BuildingID]; ok {
			return 1
		}
	}

	footprint := float64(c.EmployeeCount) * p.cfg.SFPerEmployee
	if footprint <= 0 {
		return 0
	}
	best := 0.0
	for _, b := range covered {
		if b.TotalSF <= 0 {
			continue
		}
		larger, smaller := float64(b.TotalSF), footprint
		if smaller > larger {
			larger, smaller = smaller, larger
		}
		if fit := smaller / larger; fit > best {
			best = fit
		}
	}
	return best
}

// completeness is the fraction of the model's four inputs actually
// present, mapped to a multiplier in [0.5, 1]: thin evidence halves the
// score, it does not zero it.
func (p *Predictor) completeness(in Input) float64 {
	present, required := 0, 4
	if len(in.Funding) > 0 {
		present++
	}
	if len(in.Hiring) > 0 {
		present++
	}
	if len(in.Leases) > 0 {
		present++
	}
	if in.Company.EmployeeCount > 0 {
		present++
	}
	return 0.5 + 0.5*float64(present)/float64(required)
}

func (p *Predictor) stage(capital, expansion float64, leases []model.Lease) Stage {
	for i := range leases {
		daysUntil := leases[i].LeaseExpiry.Sub(p.now).Hours() / 24
		if daysUntil > 0 && daysUntil <= imminentWindowDays {
			return StageLeaseImminent
		}
	}
	if expansion > 0 {
		return StageExpansion
	}
	if capital > 0 {
		return StageCapital
	}
	return StageDormant
}

// sigmoid with the argument clamped to keep exp well-conditioned.
func sigmoid(x float64) float64 {
	if x > 10 {
		x = 10
	}
	if x < -10 {
		x = -10
	}
	return 1 / (1 + math.Exp(-x))
}
