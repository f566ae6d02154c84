// Package decay converts event age into a multiplicative weight per
// signal class using per-class half-lives.
package decay

import (
	"math"
	"time"

	"github.com/adalundhe/nexus/core/model"
)

// HalfLives holds the configured half-life in days for each signal
// class. Zero or negative values fall back to defaults.
type HalfLives struct {
	Funding      float64
	Hiring       float64
	Outreach     float64
	Relationship float64
	Cash         float64
}

// DefaultHalfLives returns the standard half-life configuration.
func DefaultHalfLives() HalfLives {
	return HalfLives{
		Funding:      180,
		Hiring:       90,
		Outreach:     30,
		Relationship: 730,
		Cash:         365,
	}
}

// Model computes decay weights. It is a pure value; share freely.
type Model struct {
	halfLives HalfLives
}

// New builds a Model, substituting defaults for non-positive half-lives.
func New(hl HalfLives) Model {
	def := DefaultHalfLives()
	if hl.Funding <= 0 {
		hl.Funding = def.Funding
	}
	if hl.Hiring <= 0 {
		hl.Hiring = def.Hiring
	}
	if hl.Outreach <= 0 {
		hl.Outreach = def.Outreach
	}
	if hl.Relationship <= 0 {
		hl.Relationship = def.Relationship
	}
	if hl.Cash <= 0 {
		hl.Cash = def.Cash
	}
	return Model{halfLives: hl}
}

// HalfLife returns the half-life in days for the given class.
func (m Model) HalfLife(class model.SignalClass) float64 {
	switch class {
	case model.SignalFunding:
		return m.halfLives.Funding
	case model.SignalHiring:
		return m.halfLives.Hiring
	case model.SignalOutreach:
		return m.halfLives.Outreach
	case model.SignalRelationship:
		return m.halfLives.Relationship
	case model.SignalCash:
		return m.halfLives.Cash
	default:
		return m.halfLives.Relationship
	}
}

// Weight returns exp(-ln2 × age/halfLife) in (0, 1]. Future-dated
// events clamp to age zero.
func (m Model) Weight(eventTime time.Time, class model.SignalClass, now time.Time) float64 {
	ageDays := now.Sub(eventTime).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays * math.Ln2 / m.HalfLife(class))
}

// WeightDays is Weight for a precomputed age in days.
func (m Model) WeightDays(ageDays float64, class model.SignalClass) float64 {
	if ageDays < 0 {
		ageDays = 0
	}
	return math.Exp(-ageDays * math.Ln2 / m.HalfLife(class))
}
