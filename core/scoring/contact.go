package scoring

import (
	"github.com/adalundhe/nexus/core/graph"
	"github.com/adalundhe/nexus/core/model"
)

// roleScores rank a contact's seniority for prioritization. Unknown
// levels score like rank-and-file.
var roleScores = map[model.RoleLevel]float64{
	model.RoleCSuite:          100,
	model.RoleDecisionMaker:   80,
	model.RoleInfluencer:      50,
	model.RoleExternalPartner: 40,
	model.RoleTeam:            30,
}

const defaultRoleScore = 30

// contact priority weights; sum to 1.
const (
	priorityRoleWeight       = 0.30
	priorityCompanyWeight    = 0.25
	priorityEngagementWeight = 0.20
	priorityCentralityWeight = 0.15
	priorityLeverageWeight   = 0.10
)

// outcomeWeights scale an outreach touch by how it landed.
var outcomeWeights = map[string]float64{
	"deal_started":       1.0,
	"meeting_held":       0.9,
	"meeting_booked":     0.8,
	"responded_positive": 0.7,
	"referred":           0.6,
	"pending":            0.4,
	"no_response":        0.2,
	"responded_negative": 0.1,
	"declined":           0.05,
}

const unknownOutcomeWeight = 0.3

// PriorityScore computes a contact's outreach priority from seniority,
// the employer's opportunity score, recent engagement, and the
// contact's network position. companyOpportunity is the employer's
// composite, 0 when unaffiliated.
func (s *Scorer) PriorityScore(
	c *model.Contact,
	outreach []model.OutreachLog,
	companyOpportunity float64,
) float64 {
	role, ok := roleScores[c.RoleLevel]
	if !ok {
		role = defaultRoleScore
	}

	key := graph.ContactKey(c.ID)
	centrality := clamp(s.centrality[key]*100, 0, 100)

	// Leverage is computed on the company projection, so a contact
	// inherits the employer's brokerage position.
	leverage := 0.0
	if c.CompanyID != 0 {
		leverage = clamp(s.leverage[graph.CompanyKey(c.CompanyID)]*100, 0, 100)
	}

	total := role*priorityRoleWeight +
		clamp(companyOpportunity, 0, 100)*priorityCompanyWeight +
		s.engagementScore(outreach)*priorityEngagementWeight +
		centrality*priorityCentralityWeight +
		leverage*priorityLeverageWeight
	return clamp(total, 0, 100)
}

// engagementScore sums decayed outreach touches, weighted by outcome.
func (s *Scorer) engagementScore(outreach []model.OutreachLog) float64 {
	total := 0.0
	for i := range outreach {
		o := &outreach[i]
		w, ok := outcomeWeights[o.Outcome]
		if !ok {
			w = unknownOutcomeWeight
		}
		total += w * s.decay.Weight(o.OutreachDate, model.SignalOutreach, s.now) * 50
	}
	return clamp(total, 0, 100)
}
