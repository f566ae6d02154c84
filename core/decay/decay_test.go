package decay

import (
	"math"
	"testing"
	"time"

	"github.com/adalundhe/nexus/core/model"
)

func TestWeightHalfLife(t *testing.T) {
	m := New(DefaultHalfLives())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		class model.SignalClass
		age   time.Duration
		want  float64
	}{
		{"funding at half-life", model.SignalFunding, 180 * 24 * time.Hour, 0.5},
		{"hiring at half-life", model.SignalHiring, 90 * 24 * time.Hour, 0.5},
		{"outreach at half-life", model.SignalOutreach, 30 * 24 * time.Hour, 0.5},
		{"relationship at half-life", model.SignalRelationship, 730 * 24 * time.Hour, 0.5},
		{"fresh event", model.SignalFunding, 0, 1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Weight(now.Add(-tt.age), tt.class, now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Weight() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeightFutureClampsToZeroAge(t *testing.T) {
	m := New(DefaultHalfLives())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	got := m.Weight(now.Add(48*time.Hour), model.SignalHiring, now)
	if got != 1.0 {
		t.Errorf("future-dated weight = %v, want 1.0", got)
	}
}

func TestWeightStrictlyDecreasing(t *testing.T) {
	m := New(DefaultHalfLives())
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	classes := []model.SignalClass{
		model.SignalFunding, model.SignalHiring,
		model.SignalOutreach, model.SignalRelationship,
	}
	for _, class := range classes {
		prev := math.Inf(1)
		for days := 0; days <= 2000; days += 25 {
			w := m.Weight(now.AddDate(0, 0, -days), class, now)
			if w <= 0 || w > 1 {
				t.Fatalf("%s at %dd: weight %v outside (0,1]", class, days, w)
			}
			if w >= prev {
				t.Fatalf("%s at %dd: weight %v not strictly decreasing (prev %v)", class, days, w, prev)
			}
			prev = w
		}
	}
}

func TestNewSubstitutesDefaults(t *testing.T) {
	m := New(HalfLives{Funding: -5})
	if hl := m.HalfLife(model.SignalFunding); hl != 180 {
		t.Errorf("HalfLife(funding) = %v, want default 180", hl)
	}
}
