package match

import (
	"testing"

	"matchday/internal/match/geom"
)

func TestBallRollingSettles(t *testing.T) {
	b := Ball{State: BallRolling, Pos: geom.Centre()}
	b.Vel = geom.VelFromMetres(BallMinVelocity/2, 0)
	stepBall(&b)
	if b.State != BallSettled {
		t.Errorf("slow rolling ball must settle, state %v", b.State)
	}
	if b.Vel != (geom.Vel{}) {
		t.Error("settled ball has zero velocity")
	}
}

func TestBallKickLofted(t *testing.T) {
	b := Ball{State: BallControlled, Owner: 3, Pos: geom.Centre()}
	b.kick(FlightParams{
		Origin: b.Pos,
		Target: b.Pos.Add(geom.Coord{X: 200}),
		SpeedM: 18,
		VZ:     5,
		Curve:  CurveLofted,
	})
	if b.State != BallInFlight {
		t.Fatalf("lofted kick must fly, state %v", b.State)
	}
	if b.Owner != NoPlayer {
		t.Error("kicked ball has no owner")
	}
	if b.Vel.X <= 0 || b.Vel.Y != 0 {
		t.Errorf("flight velocity should point at the target, got %v", b.Vel)
	}
}

func TestBallKickGroundStaysDown(t *testing.T) {
	b := Ball{State: BallControlled, Owner: 3, Pos: geom.Centre()}
	b.kick(FlightParams{
		Origin: b.Pos,
		Target: b.Pos.Add(geom.Coord{X: 100}),
		SpeedM: 12,
		VZ:     0,
		Curve:  CurveFlat,
	})
	if b.State != BallRolling {
		t.Errorf("flat kick rolls, state %v", b.State)
	}
	if b.HeightU != 0 {
		t.Error("ground ball has zero height")
	}
}

func TestBallFlightLandsAndStopsBouncing(t *testing.T) {
	b := Ball{State: BallControlled, Owner: 3, Pos: geom.Centre()}
	b.kick(FlightParams{
		Origin: b.Pos,
		Target: b.Pos.Add(geom.Coord{X: 300}),
		SpeedM: 15,
		VZ:     6,
		Curve:  CurveLofted,
	})
	// A couple of seconds of substeps brings it down through bouncing to
	// rolling or settled.
	for i := 0; i < 40*SubstepsPerTick; i++ {
		stepBall(&b)
		if b.State == BallRolling || b.State == BallSettled {
			break
		}
	}
	switch b.State {
	case BallRolling, BallSettled:
	default:
		t.Errorf("flight never came down, state %v, bounces %d", b.State, b.Bounces)
	}
	if b.Bounces > MaxBounces+1 {
		t.Errorf("bounce count %d exceeded MaxBounces", b.Bounces)
	}
}

func TestBallControlInvariant(t *testing.T) {
	b := Ball{}
	b.control(7)
	owner, ok := b.ControlledBy()
	if !ok || owner != 7 {
		t.Fatal("controlled ball must report exactly its owner")
	}
	b.release()
	if _, ok := b.ControlledBy(); ok {
		t.Error("released ball must report no owner")
	}
	if b.State != BallRolling {
		t.Errorf("released ball rolls, state %v", b.State)
	}
}

func TestBallOutOfPlayFreeze(t *testing.T) {
	b := Ball{State: BallRolling, Pos: geom.Coord{X: -5, Y: 100}}
	b.Vel = geom.VelFromMetres(-3, 0)
	spot := geom.Coord{X: 0, Y: 100}
	b.outOfPlay(RestartThrowIn, Away, spot)
	if b.State != BallOutOfPlay || b.Pos != spot || b.Vel != (geom.Vel{}) {
		t.Errorf("out-of-play ball must freeze at the restart spot: %+v", b)
	}
	if stepBall(&b) {
		t.Error("out-of-play ball must not move or re-exit")
	}
}
