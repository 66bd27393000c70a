package match

import (
	"math"
	"testing"
)

func TestUtilityWeightsSumToOne(t *testing.T) {
	sum := WeightDistance + WeightSafety + WeightReadiness +
		WeightProgression + WeightSpace + WeightTactical
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("factor weights sum to %v, want 1.0", sum)
	}
}

func TestSafetyHardGate(t *testing.T) {
	f := UtilityFactors{Distance: 1, Safety: 0, Readiness: 1, Progression: 1, Space: 1, Tactical: 1}
	if got := f.weightedTotal(); got != 0 {
		t.Errorf("safety 0 must zero the candidate, got %v", got)
	}
	f.Safety = 0.5
	if f.weightedTotal() <= 0 {
		t.Error("non-zero safety must score")
	}
}

func TestTemperatureBounds(t *testing.T) {
	low := UniformAttributes(0)
	high := UniformAttributes(20)
	tl := temperature(&low)
	th := temperature(&high)
	if tl < MinTemperature || tl > MaxTemperature || th < MinTemperature || th > MaxTemperature {
		t.Fatalf("temperatures out of bounds: %v %v", tl, th)
	}
	if th <= tl {
		t.Errorf("high flair must widen the distribution: %v <= %v", th, tl)
	}
}

func TestSoftmaxPickArgmaxAtLowTemperature(t *testing.T) {
	utilities := []float64{0.1, 0.9, 0.2}
	// At the temperature floor the distribution is near-degenerate; any
	// draw except the extreme tail picks the max.
	for _, draw := range []float64{0.01, 0.25, 0.5, 0.75, 0.99} {
		if got := softmaxPick(utilities, MinTemperature, draw); got != 1 {
			t.Errorf("draw %v picked %d, want 1", draw, got)
		}
	}
}

func TestSoftmaxPickEmptyAndUniform(t *testing.T) {
	if got := softmaxPick(nil, 1, 0.5); got != -1 {
		t.Errorf("empty candidates must return -1, got %d", got)
	}
	// Uniform utilities: draw position selects proportionally.
	utilities := []float64{0.5, 0.5}
	if got := softmaxPick(utilities, 1, 0.1); got != 0 {
		t.Errorf("low draw should pick first, got %d", got)
	}
	if got := softmaxPick(utilities, 1, 0.9); got != 1 {
		t.Errorf("high draw should pick second, got %d", got)
	}
}

func TestDeriveBiasRanges(t *testing.T) {
	for _, p := range []Personality{Balanced, Leader, Maverick, Professional, Temperamental, TeamPlayer} {
		attr := UniformAttributes(10)
		b := deriveBias(&attr, p)
		for name, v := range map[string]float64{
			"confidence": b.Confidence, "bravery": b.Bravery, "greed": b.Greed,
			"teamCost": b.TeamCost, "noise": b.DecisionNoise, "tunnel": b.TunnelVision,
		} {
			if v < 0 || v > 1.2 {
				t.Errorf("personality %d: %s = %v out of range", p, name, v)
			}
		}
	}
}

func TestApplyBiasNeverNegative(t *testing.T) {
	attr := UniformAttributes(0)
	b := deriveBias(&attr, Temperamental)
	f := UtilityFactors{Safety: 1}
	cand := candidate{Kind: IntentMove}
	if u := applyBias(0.0, f, cand, b, 0.0); u < 0 {
		t.Errorf("biased utility must clamp at zero, got %v", u)
	}
}

func TestProgressionRewardsAdvance(t *testing.T) {
	snap := &TickSnapshot{HomeAttacksRight: true}
	from := snap.Players[0].Pos // zero value, own corner
	_ = from
	low := progressionOf(snap, Home, centreCoord(), centreCoord(), true)
	fwd := progressionOf(snap, Home, centreCoord(), advanceCoord(centreCoord(), true, 15), true)
	back := progressionOf(snap, Home, centreCoord(), advanceCoord(centreCoord(), true, -15), true)
	if fwd <= low {
		t.Errorf("advancing must raise progression: %v <= %v", fwd, low)
	}
	if back >= low {
		t.Errorf("retreating must lower progression: %v >= %v", back, low)
	}
}
