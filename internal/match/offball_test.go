package match

import (
	"testing"

	"matchday/internal/match/geom"
)

func TestOffBallCandidatesClampedToField(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 9)
	anchor := geom.Coord{X: 900, Y: 340}

	for _, phase := range []GamePhase{PhaseAttacking, PhaseDefending, PhaseTransitionWin, PhaseTransitionLoss} {
		cands := generateOffBallCandidates(snap, 8, phase, anchor, TeamInstructions{})
		if len(cands) == 0 {
			t.Fatalf("phase %d produced no candidates", phase)
		}
		if len(cands) > MaxObjectiveCandidates {
			t.Fatalf("phase %d produced %d candidates, cap is %d", phase, len(cands), MaxObjectiveCandidates)
		}
		for _, c := range cands {
			if !c.Target.InField() {
				t.Errorf("phase %d: candidate %s target %v off the field", phase, c.Intent, c.Target)
			}
		}
	}
}

func TestOffBallPhaseIntentSets(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 9)
	anchor := geom.Coord{X: 600, Y: 340}

	attacking := generateOffBallCandidates(snap, 8, PhaseAttacking, anchor, TeamInstructions{})
	for _, c := range attacking {
		switch c.Intent {
		case ObjShapeHolder, ObjLinkPlayer, ObjSpaceAttacker, ObjLurker, ObjWidthHolder:
		default:
			t.Errorf("attacking phase produced defensive intent %s", c.Intent)
		}
	}

	defending := generateOffBallCandidates(snap, 8, PhaseDefending, anchor, TeamInstructions{})
	for _, c := range defending {
		switch c.Intent {
		case ObjShapeHolder, ObjTrackBack, ObjScreen, ObjPressSupport:
		default:
			t.Errorf("defending phase produced attacking intent %s", c.Intent)
		}
	}
}

func TestClampReachable(t *testing.T) {
	from := geom.Centre()
	far := geom.Coord{X: geom.FieldLengthU, Y: 0}
	got := clampReachable(from, far, 0.5)
	if got.DistM(from) > from.DistM(far) {
		t.Fatal("clamp must never move the target farther away")
	}
	near := from.Add(geom.Coord{X: 20})
	if clampReachable(from, near, 0.5) != near {
		t.Error("reachable targets must pass through unchanged")
	}
}

func TestSelectObjectiveArgmaxAtZeroTemperature(t *testing.T) {
	cands := []offBallCandidate{
		{Intent: ObjShapeHolder}, {Intent: ObjSpaceAttacker}, {Intent: ObjLurker},
	}
	scores := []Score6{
		{Usefulness: 0.2}, {Usefulness: 0.9}, {Usefulness: 0.4},
	}
	if got := selectObjective(cands, scores, 0, 1, 1, 1); got != 1 {
		t.Errorf("argmax pick = %d, want 1", got)
	}
}

func TestResolveObjectiveCollisions(t *testing.T) {
	target := geom.Centre()
	alt := geom.Coord{X: 800, Y: 500}

	mk := func(id PlayerID, total float64) objectivePick {
		return objectivePick{
			player: id,
			cands: []offBallCandidate{
				{Target: target, Intent: ObjSpaceAttacker},
				{Target: alt, Intent: ObjShapeHolder},
			},
			scores: []Score6{{Usefulness: total}, {Usefulness: total / 2}},
			chosen: 0,
		}
	}
	picks := []objectivePick{mk(3, 0.9), mk(7, 0.5)}
	resolveObjectiveCollisions(picks)

	radiusSq := int64(ObjectiveCollisionRadiusM/geom.Unit) * int64(ObjectiveCollisionRadiusM/geom.Unit)
	a := picks[0].cands[picks[0].chosen].Target
	b := picks[1].cands[picks[1].chosen].Target
	if a.DistSqU(b) <= radiusSq {
		t.Fatalf("collision unresolved: %v vs %v", a, b)
	}
	// The higher-score player keeps the contested target.
	if picks[0].player == 3 && picks[0].chosen != 0 {
		t.Error("winner must keep its first choice")
	}
}

func TestScore6TotalCostSubtracts(t *testing.T) {
	s := Score6{Usefulness: 1, Safety: 1, Availability: 1, Progress: 1, Structure: 1}
	withCost := s
	withCost.Cost = 1
	if withCost.Total() >= s.Total() {
		t.Error("cost must subtract from the total")
	}
}
