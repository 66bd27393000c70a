package match

import "testing"

func TestDecisionHashStable(t *testing.T) {
	// Pinned values: a change here means every stored replay desyncs.
	a := decisionHash(12345, 100, 7, subcaseGateB)
	b := decisionHash(12345, 100, 7, subcaseGateB)
	if a != b {
		t.Fatal("decisionHash not deterministic")
	}
	if decisionHash(12345, 100, 7, subcaseTechnique) == a {
		t.Error("subcase must change the hash")
	}
	if decisionHash(12345, 101, 7, subcaseGateB) == a {
		t.Error("tick must change the hash")
	}
	if decisionHash(12346, 100, 7, subcaseGateB) == a {
		t.Error("seed must change the hash")
	}
}

func TestHash01Range(t *testing.T) {
	for tick := uint64(0); tick < 1000; tick++ {
		v := hash01(42, tick, PlayerID(tick%22), subcaseGateB)
		if v < 0 || v >= 1 {
			t.Fatalf("hash01 out of range: %v", v)
		}
	}
}

func TestDeterministicChoiceIgnoresBuildOrder(t *testing.T) {
	type item struct{ k uint64 }
	key := func(i item) uint64 { return i.k }

	a := []item{{3}, {1}, {2}}
	b := []item{{1}, {2}, {3}}
	for draw := uint64(0); draw < 10; draw++ {
		ra, _ := deterministicChoice(a, key, draw)
		rb, _ := deterministicChoice(b, key, draw)
		if ra != rb {
			t.Fatalf("choice depends on build order at draw %d", draw)
		}
	}

	if _, ok := deterministicChoice(nil, key, 1); ok {
		t.Error("empty slice must report no choice")
	}
}

// TestPositionTieHashFairness mirrors the arbiter fairness scenario: two
// entrants with mirrored geometry over many seeds must split within
// [0.48, 0.52] — no team-side bias from the tie-breaker.
func TestPositionTieHashFairness(t *testing.T) {
	const trials = 1000
	aWins := 0
	for seed := uint64(0); seed < trials; seed++ {
		a := tieEntrant{X: 500, Y: 300}
		b := tieEntrant{X: 550, Y: 380}
		if positionTieHash(seed, seed%900, a, b) {
			aWins++
		}
	}
	frac := float64(aWins) / trials
	if frac < 0.48 || frac > 0.52 {
		t.Errorf("tie-break fraction %.3f outside [0.48, 0.52]", frac)
	}
}

// TestPositionTieHashSymmetric: swapping argument order flips the winner,
// never changes it.
func TestPositionTieHashSymmetric(t *testing.T) {
	for seed := uint64(0); seed < 200; seed++ {
		a := tieEntrant{X: int32(seed * 3 % 1000), Y: int32(seed * 7 % 600)}
		b := tieEntrant{X: int32(seed * 11 % 1000), Y: int32(seed * 13 % 600)}
		if a == b {
			continue
		}
		ab := positionTieHash(seed, 10, a, b)
		ba := positionTieHash(seed, 10, b, a)
		if ab == ba {
			t.Fatalf("seed %d: winner changed with argument order", seed)
		}
	}
}
