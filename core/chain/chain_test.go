package chain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adalundhe/nexus/core/config"
	"github.com/adalundhe/nexus/core/decay"
	"github.com/adalundhe/nexus/core/model"
)

var testNow = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func newPredictor() *Predictor {
	return New(config.Default().Chain, decay.New(decay.DefaultHalfLives()), testNow)
}

func TestCapitalSignal(t *testing.T) {
	p := newPredictor()

	cases := []struct {
		name   string
		events []model.FundingEvent
		zero   bool
	}{
		{"qualifying recent round", []model.FundingEvent{
			{EventDate: testNow.AddDate(0, 0, -30), Amount: 60e6},
		}, false},
		{"below threshold", []model.FundingEvent{
			{EventDate: testNow.AddDate(0, 0, -30), Amount: 10e6},
		}, true},
		{"outside lookback", []model.FundingEvent{
			{EventDate: testNow.AddDate(-2, 0, 0), Amount: 60e6},
		}, true},
		{"no events", nil, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := p.capitalSignal(tc.events)
			if tc.zero {
				assert.Zero(t, got)
			} else {
				assert.Greater(t, got, 0.0)
				assert.LessOrEqual(t, got, 1.0)
			}
		})
	}
}

func TestCapitalSignalDecaysWithAge(t *testing.T) {
	p := newPredictor()
	fresh := p.capitalSignal([]model.FundingEvent{{EventDate: testNow.AddDate(0, 0, -10), Amount: 60e6}})
	aged := p.capitalSignal([]model.FundingEvent{{EventDate: testNow.AddDate(0, 0, -300), Amount: 60e6}})
	assert.Greater(t, fresh, aged)
}

func TestExpansionRequiresCapital(t *testing.T) {
	p := newPredictor()
	assert.Zero(t, p.expansionSignal(0, 80), "hiring momentum without a raise is not the chain")
	assert.Zero(t, p.expansionSignal(0.9, 0))
	assert.InDelta(t, 0.8, p.expansionSignal(0.9, 80), 1e-9)
	assert.Equal(t, 1.0, p.expansionSignal(0.9, 150))
}

func TestPortfolioMatch(t *testing.T) {
	p := newPredictor()
	company := &model.Company{EmployeeCount: 250} // footprint 50k SF

	buildings := []model.Building{
		{ID: 1, TotalSF: 48_000, InPortfolio: true},
		{ID: 2, TotalSF: 500_000, InPortfolio: false},
	}

	// Size fit against the covered building only.
	fit := p.portfolioMatch(company, nil, buildings)
	assert.InDelta(t, 0.96, fit, 1e-9)

	// A current lease in a covered building is a full match.
	leased := p.portfolioMatch(company, []model.Lease{{BuildingID: 1}}, buildings)
	assert.Equal(t, 1.0, leased)

	// Nothing covered at all.
	assert.Zero(t, p.portfolioMatch(company, nil, []model.Building{{ID: 2, TotalSF: 50_000}}))

	// Unknown headcount and no lease: nothing to match on.
	assert.Zero(t, p.portfolioMatch(&model.Company{}, nil, buildings))
}

func TestPredictProbabilityBounds(t *testing.T) {
	p := newPredictor()

	cold := p.Predict(Input{Company: &model.Company{ID: 1}})
	assert.Equal(t, StageDormant, cold.Stage)
	assert.Greater(t, cold.LeaseProb, 0.0)
	assert.Less(t, cold.LeaseProb, 0.5, "no evidence lands below the bias midpoint")

	hot := p.Predict(Input{
		Company: &model.Company{ID: 2, EmployeeCount: 250},
		Funding: []model.FundingEvent{{EventDate: testNow.AddDate(0, 0, -20), Amount: 80e6}},
		Hiring: []model.HiringSignal{
			{SignalDate: testNow.AddDate(0, 0, -10), SignalType: "headcount_growth", Relevance: "high"},
		},
		Leases:         []model.Lease{{BuildingID: 1, LeaseExpiry: testNow.AddDate(0, 0, 200)}},
		Buildings:      []model.Building{{ID: 1, TotalSF: 50_000, InPortfolio: true}},
		HiringVelocity: 90,
	})
	assert.Greater(t, hot.LeaseProb, cold.LeaseProb)
	assert.LessOrEqual(t, hot.LeaseProb, 1.0)
	assert.GreaterOrEqual(t, hot.Score, 0.0)
	assert.LessOrEqual(t, hot.Score, 100.0)
	assert.Equal(t, StageLeaseImminent, hot.Stage)
}

func TestStageProgression(t *testing.T) {
	p := newPredictor()
	capitalOnly := Input{
		Company: &model.Company{ID: 1},
		Funding: []model.FundingEvent{{EventDate: testNow.AddDate(0, 0, -20), Amount: 80e6}},
	}
	assert.Equal(t, StageCapital, p.Predict(capitalOnly).Stage)

	expanding := capitalOnly
	expanding.HiringVelocity = 60
	assert.Equal(t, StageExpansion, p.Predict(expanding).Stage)

	imminent := expanding
	imminent.Leases = []model.Lease{{LeaseExpiry: testNow.AddDate(0, 0, 90)}}
	assert.Equal(t, StageLeaseImminent, p.Predict(imminent).Stage)

	// Expired and far-future leases do not mark imminence.
	later := expanding
	later.Leases = []model.Lease{
		{LeaseExpiry: testNow.AddDate(0, 0, -30)},
		{LeaseExpiry: testNow.AddDate(3, 0, 0)},
	}
	assert.Equal(t, StageExpansion, p.Predict(later).Stage)
}

func TestCompletenessMultiplier(t *testing.T) {
	p := newPredictor()

	empty := Input{Company: &model.Company{ID: 1}}
	assert.InDelta(t, 0.5, p.completeness(empty), 1e-9)

	full := Input{
		Company: &model.Company{ID: 1, EmployeeCount: 100},
		Funding: []model.FundingEvent{{}},
		Hiring:  []model.HiringSignal{{}},
		Leases:  []model.Lease{{}},
	}
	assert.InDelta(t, 1.0, p.completeness(full), 1e-9)

	// Thin evidence halves the score relative to the raw probability.
	pred := p.Predict(empty)
	require.Greater(t, pred.LeaseProb, 0.0)
	assert.InDelta(t, pred.LeaseProb*0.5*100, pred.Score, 1e-9)
}

func TestSigmoidClamp(t *testing.T) {
	assert.InDelta(t, 0.5, sigmoid(0), 1e-12)
	assert.Greater(t, sigmoid(1000), 0.9999)
	assert.Less(t, sigmoid(-1000), 0.0001)
}
