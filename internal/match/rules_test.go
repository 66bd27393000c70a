package match

import (
	"testing"

	"matchday/internal/match/geom"
)

// TestOffsideAtRelease mirrors the offside-trap scenario: a receiver half a
// metre past the second-last defender at the moment of release is offside;
// level or behind is not.
func TestOffsideAtRelease(t *testing.T) {
	build := func(receiverX int32) *TickSnapshot {
		snap := snapshotFixture()
		giveBall(snap, 5)
		snap.Players[5].Pos = geom.Coord{X: 600, Y: 340}
		snap.Ball.Pos = snap.Players[5].Pos
		// Away defence: keeper deep, back line at x=800.
		snap.Players[11].Pos = geom.Coord{X: 1030, Y: 340}
		for i := PlayerID(12); i < 22; i++ {
			snap.Players[i].Pos = geom.Coord{X: 800, Y: int32(40 * (i - 11))}
		}
		// Home striker at the line.
		snap.Players[9].Pos = geom.Coord{X: receiverX, Y: 340}
		return snap
	}

	tests := []struct {
		name      string
		receiverX int32
		want      bool
	}{
		{"half a metre past the line", 805, true},
		{"level with the line", 800, false},
		{"behind the line", 795, false},
		{"own half", 500, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := build(tt.receiverX)
			if got := offsideCurrent(snap, Home, 9); got != tt.want {
				t.Errorf("offside = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOffsideMirroredDirection(t *testing.T) {
	snap := snapshotFixture()
	snap.HomeAttacksRight = false
	giveBall(snap, 5)
	snap.Players[5].Pos = geom.Coord{X: 450, Y: 340}
	snap.Ball.Pos = snap.Players[5].Pos
	snap.Players[11].Pos = geom.Coord{X: 20, Y: 340}
	for i := PlayerID(12); i < 22; i++ {
		snap.Players[i].Pos = geom.Coord{X: 250, Y: int32(40 * (i - 11))}
	}
	snap.Players[9].Pos = geom.Coord{X: 245, Y: 340}
	if !offsideCurrent(snap, Home, 9) {
		t.Error("offside must mirror when attacking left")
	}
}

func TestSecondLastDefenderX(t *testing.T) {
	snap := snapshotFixture()
	// Away defends the right goal for an attacking-right Home.
	snap.Players[11].Pos = geom.Coord{X: 1040, Y: 340} // keeper: last
	snap.Players[12].Pos = geom.Coord{X: 820, Y: 200}  // second last
	for i := PlayerID(13); i < 22; i++ {
		snap.Players[i].Pos = geom.Coord{X: 700, Y: int32(40 * (i - 11))}
	}
	if got := snap.SecondLastDefenderX(Home); got != 820 {
		t.Errorf("second-last defender x = %d, want 820", got)
	}
}

func TestBallOutRulings(t *testing.T) {
	tests := []struct {
		name        string
		ballPos     geom.Coord
		lastTouch   TeamSide
		wantRestart RestartType
	}{
		{"touchline exit", geom.Coord{X: 500, Y: -4}, Home, RestartThrowIn},
		{"attacker over goal line", geom.Coord{X: 1055, Y: 100}, Home, RestartGoalKick},
		{"defender over own goal line", geom.Coord{X: 1055, Y: 100}, Away, RestartCorner},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := testEngine(t, DefaultPlan(5))
			e.state.Ball.Pos = tt.ballPos
			e.state.Ball.State = BallRolling
			e.rules.onBallOut(e, tt.lastTouch)
			if e.state.Ball.State != BallOutOfPlay {
				t.Fatal("ball must be out of play after the ruling")
			}
			if e.state.Ball.Restart != tt.wantRestart {
				t.Errorf("restart = %v, want %v", e.state.Ball.Restart, tt.wantRestart)
			}
		})
	}
}

func TestRuleDecisionsRecorded(t *testing.T) {
	e := testEngine(t, DefaultPlan(5))
	e.state.Ball.Pos = geom.Coord{X: 500, Y: -4}
	e.state.Ball.State = BallRolling
	e.rules.onBallOut(e, Home)

	decs := e.RuleDecisions()
	if len(decs) == 0 {
		t.Fatal("ruling must be recorded")
	}
	last := decs[len(decs)-1]
	if last.Law != "law15" || last.Ruling != "throw_in" {
		t.Errorf("unexpected decision %+v", last)
	}
	if last.Rationale == "" {
		t.Error("every decision carries a rationale")
	}
}

// TestOffsideABDivergence: the A/B dispatcher must flag ticks where the
// legacy logic (no ball-position clause) disagrees with the current one.
func TestOffsideABDivergence(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 5)
	// Receiver past the line but behind the ball: current says onside,
	// legacy says offside.
	snap.Players[5].Pos = geom.Coord{X: 900, Y: 340}
	snap.Ball.Pos = snap.Players[5].Pos
	snap.Players[11].Pos = geom.Coord{X: 1030, Y: 340}
	for i := PlayerID(12); i < 22; i++ {
		snap.Players[i].Pos = geom.Coord{X: 800, Y: int32(40 * (i - 11))}
	}
	snap.Players[9].Pos = geom.Coord{X: 850, Y: 340}

	if offsideCurrent(snap, Home, 9) {
		t.Fatal("receiver behind the ball must be onside under current logic")
	}
	if !offsideLegacy(snap, Home, 9) {
		t.Fatal("legacy logic should call this offside (fixture invalid)")
	}
}
