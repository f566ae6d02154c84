package scoring

import (
	"fmt"
	"math"

	"github.com/adalundhe/nexus/core/model"
)

// Weights is one category's sub-score weight profile. Raw sub-scores
// run 0–100; the persisted sub-score is raw × weight, so each weight is
// also that sub-score's ceiling divided by 100.
type Weights struct {
	Funding      float64
	Hiring       float64
	Lease        float64
	Relationship float64
	Velocity     float64
	Accel        float64
	Depth        float64
	Coverage     float64
}

// Sum returns the total of all eight weights.
func (w Weights) Sum() float64 {
	return w.Funding + w.Hiring + w.Lease + w.Relationship +
		w.Velocity + w.Accel + w.Depth + w.Coverage
}

// Profiles maps each company category to its weight profile. High-growth
// companies weight capital and hiring momentum; institutional ones weight
// occupancy and standing relationships; mature is the balanced default.
var Profiles = map[model.CompanyCategory]Weights{
	model.CategoryHighGrowth: {
		Funding: 0.25, Hiring: 0.25, Lease: 0.10, Relationship: 0.05,
		Velocity: 0.10, Accel: 0.10, Depth: 0.05, Coverage: 0.10,
	},
	model.CategoryInstitutional: {
		Funding: 0.10, Hiring: 0.10, Lease: 0.20, Relationship: 0.20,
		Velocity: 0.10, Accel: 0.10, Depth: 0.10, Coverage: 0.10,
	},
	model.CategoryMature: {
		Funding: 0.15, Hiring: 0.15, Lease: 0.15, Relationship: 0.15,
		Velocity: 0.10, Accel: 0.10, Depth: 0.10, Coverage: 0.10,
	},
}

// ValidateProfiles confirms every profile's weights sum to 1. Called at
// pipeline start so a bad edit to the table fails fast.
func ValidateProfiles() error {
	for category, w := range Profiles {
		if diff := math.Abs(w.Sum() - 1.0); diff > 1e-9 {
			return fmt.Errorf("scoring: %s profile weights sum to %v, want 1.0", category, w.Sum())
		}
	}
	return nil
}
