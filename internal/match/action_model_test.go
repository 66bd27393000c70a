package match

import (
	"testing"

	"matchday/internal/match/geom"
)

func elabFixture(snap *TickSnapshot, attr *Attributes) elabContext {
	return elabContext{snap: snap, seed: 99, attr: attr, pressure: 0.3}
}

// TestGateAInvariant: every elaborated shot, pass and dribble must
// re-project to the selected CandidateKey.
func TestGateAInvariant(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 6)
	snap.Players[6].Pos = geom.Coord{X: 700, Y: 340}
	snap.Ball.Pos = snap.Players[6].Pos
	snap.Players[8].Pos = geom.Coord{X: 820, Y: 300}
	attr := UniformAttributes(14)
	ins := TeamInstructions{}

	cands := buildCandidates(snap, 6, MindsetAttackingCarrier, ins)
	if len(cands) == 0 {
		t.Fatal("carrier produced no candidates")
	}
	for _, c := range cands {
		in := PlayerIntent{
			Player: 6, Kind: c.Kind, Target: c.Target,
			TargetPos: c.TargetPos, Key: c.Key, TickCreated: snap.Tick,
		}
		ctx := elabFixture(snap, &attr)
		var ok bool
		switch c.Kind {
		case IntentShoot:
			_, ok = elaborateShot(ctx, 6, in)
		case IntentPassShort, IntentPassLong, IntentPassThrough, IntentPassCross, IntentClear:
			_, ok = elaboratePass(ctx, 6, in)
		case IntentDribbleProtect, IntentDribbleProgress, IntentDribbleBeat:
			_, ok = elaborateDribble(ctx, 6, in)
		default:
			continue
		}
		if !ok {
			t.Errorf("gate A invariant broken for %s", c.Kind)
		}
	}
}

func TestGateAInvariantTackle(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 2)
	snap.Players[14].Pos = snap.Players[2].Pos.Add(geom.Coord{X: 12})
	attr := UniformAttributes(12)
	victimAttr := UniformAttributes(12)

	cands := buildCandidates(snap, 14, MindsetPresser, TeamInstructions{})
	var tackle *candidate
	for i := range cands {
		if cands[i].Kind == IntentTackle {
			tackle = &cands[i]
			break
		}
	}
	if tackle == nil {
		t.Fatal("presser next to the carrier must offer a tackle")
	}
	in := PlayerIntent{Player: 14, Kind: IntentTackle, Target: tackle.Target,
		TargetPos: tackle.TargetPos, Key: tackle.Key}
	a, ok := elaborateTackle(elabFixture(snap, &attr), 14, in, &victimAttr)
	if !ok {
		t.Fatal("gate A invariant broken for tackle")
	}
	if a.Tackle.WinProb <= 0 || a.Tackle.WinProb >= 1 {
		t.Errorf("win prob %v out of open interval", a.Tackle.WinProb)
	}
	if a.Tackle.FoulProb < 0 || a.Tackle.FoulProb > 1 {
		t.Errorf("foul prob %v out of range", a.Tackle.FoulProb)
	}
}

func TestPassPhysicsPowerBuckets(t *testing.T) {
	// Technique tables must produce speeds inside their advertised power
	// buckets so Gate-A keys survive elaboration.
	tests := []struct {
		tech PassTechnique
		dist float64
		want PowerBucket
	}{
		{PassGround, 8, PowerSoft},
		{PassDriven, 25, PowerHard},
		{PassLofted, 35, PowerHard},
		{PassClearT, 40, PowerHard},
	}
	for _, tt := range tests {
		speed, _, _ := passPhysics(tt.tech, tt.dist)
		got := powerBucketOf(speed)
		if diffU8(uint8(got), uint8(tt.want)) > 1 {
			t.Errorf("technique %d at %.0fm: bucket %d too far from %d", tt.tech, tt.dist, got, tt.want)
		}
	}
}

func TestXGModel(t *testing.T) {
	close := calculateXG(geom.Coord{X: 1000, Y: 340}, true, 0)
	far := calculateXG(geom.Coord{X: 750, Y: 340}, true, 0)
	wide := calculateXG(geom.Coord{X: 1000, Y: 80}, true, 0)
	if close <= far {
		t.Errorf("closer shots carry more xG: %v <= %v", close, far)
	}
	if close <= wide {
		t.Errorf("central shots carry more xG: %v <= %v", close, wide)
	}
	pressured := calculateXG(geom.Coord{X: 1000, Y: 340}, true, 1)
	if pressured >= close {
		t.Error("pressure must reduce xG")
	}
	for _, v := range []float64{close, far, wide, pressured} {
		if v < 0.01 || v > 0.85 {
			t.Errorf("xG %v outside clamp", v)
		}
	}
}

// TestPenaltyConversionRate pins the penalty model: shooter penalties and
// composure 18, keeper reflexes 12 must convert at ~0.78 aggregated over
// 1000 seeded draws.
func TestPenaltyConversionRate(t *testing.T) {
	shooter := UniformAttributes(18)
	keeper := UniformAttributes(12)

	ctx, err := NewContext()
	if err != nil {
		t.Fatalf("context: %v", err)
	}
	bal := &ctx.Balance
	p := bal.PenaltyBase + bal.PenaltySkillGain*skill01(shooter.Penalties) +
		bal.PenaltyComposureGain*skill01(shooter.Composure) -
		bal.PenaltyKeeperDrag*skill01(keeper.GKReflexes)

	const runs = 1000
	converted := 0
	for seed := uint64(0); seed < runs; seed++ {
		if hash01(seed, 4800, 9, subcaseSetPiece) < p {
			converted++
		}
	}
	rate := float64(converted) / runs
	if rate < 0.75 || rate > 0.81 {
		t.Errorf("conversion rate %.3f outside 0.78±0.03", rate)
	}
}

func TestChooseTechniqueDeterministic(t *testing.T) {
	snap := snapshotFixture()
	attr := UniformAttributes(15)
	ctx := elabFixture(snap, &attr)
	a := choosePassTechnique(PassProgress, IntentPassShort, 12, ctx, 4)
	b := choosePassTechnique(PassProgress, IntentPassShort, 12, ctx, 4)
	if a != b {
		t.Fatal("technique choice must be deterministic for fixed inputs")
	}
}

func TestZoneAdjacent(t *testing.T) {
	if !zoneAdjacent(geom.TacticalZone(6), geom.TacticalZone(6)) {
		t.Error("zone is adjacent to itself")
	}
	if !zoneAdjacent(geom.TacticalZone(6), geom.TacticalZone(7)) {
		t.Error("next band is adjacent")
	}
	if zoneAdjacent(geom.TacticalZone(0), geom.TacticalZone(19)) {
		t.Error("opposite corners are not adjacent")
	}
}
