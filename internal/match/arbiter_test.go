package match

import (
	"testing"

	"matchday/internal/match/geom"
)

func intentFor(snap *TickSnapshot, id PlayerID, kind IntentKind, target PlayerID, utility float64) PlayerIntent {
	pos := snap.Ball.Pos
	if target != NoPlayer {
		pos = snap.Players[target].Pos
	}
	return PlayerIntent{
		Player: id, Kind: kind, Target: target, TargetPos: pos,
		Key:     CandidateKey{Kind: kind},
		Utility: utility, TickCreated: snap.Tick,
	}
}

func TestArbiterBallOwnerWins(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 3)
	snap.Players[15].Pos = snap.Ball.Pos.Add(geom.Coord{X: 5})

	intents := []PlayerIntent{
		intentFor(snap, 15, IntentIntercept, NoPlayer, 0.99),
		intentFor(snap, 3, IntentPassShort, 4, 0.10),
	}
	results := arbitrate(snap, intents, 42)

	for _, r := range results {
		switch r.Intent.Player {
		case 3:
			if r.Status != CommitAccepted {
				t.Errorf("ball owner must win the touch, got %v", r.Status)
			}
		case 15:
			if r.Status != CommitDeferred {
				t.Errorf("challenger must defer to the owner, got %v", r.Status)
			}
		}
	}
}

func TestArbiterClosestETAWinsLooseBall(t *testing.T) {
	snap := snapshotFixture()
	snap.Ball.State = BallRolling
	snap.Ball.HasOwner = false
	snap.Ball.Owner = NoPlayer
	snap.Ball.Pos = geom.Centre()
	snap.Players[2].Pos = snap.Ball.Pos.Add(geom.Coord{X: 10}) // 1 m
	snap.Players[13].Pos = snap.Ball.Pos.Add(geom.Coord{X: 25}) // 2.5 m

	intents := []PlayerIntent{
		intentFor(snap, 13, IntentIntercept, NoPlayer, 0.9),
		intentFor(snap, 2, IntentIntercept, NoPlayer, 0.1),
	}
	results := arbitrate(snap, intents, 7)

	for _, r := range results {
		switch r.Intent.Player {
		case 2:
			if r.Status != CommitAccepted {
				t.Errorf("closest player must win, got %v", r.Status)
			}
		case 13:
			if r.Status != CommitDeferred {
				t.Errorf("farther player must defer, got %v", r.Status)
			}
		}
	}
}

func TestArbiterTackleConflictKeepsHighestUtility(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 1)
	snap.Players[12].Pos = snap.Ball.Pos.Add(geom.Coord{X: 15})
	snap.Players[13].Pos = snap.Ball.Pos.Add(geom.Coord{X: -15})

	intents := []PlayerIntent{
		intentFor(snap, 12, IntentTackle, 1, 0.4),
		intentFor(snap, 13, IntentTackle, 1, 0.7),
	}
	results := arbitrate(snap, intents, 9)

	for _, r := range results {
		switch r.Intent.Player {
		case 13:
			if r.Status != CommitAccepted {
				t.Errorf("higher-utility tackler must keep the challenge, got %v", r.Status)
			}
		case 12:
			if r.Status != CommitReplaced || r.Replacement != IntentContain {
				t.Errorf("loser must be replaced with Contain, got %v/%v", r.Status, r.Replacement)
			}
		}
	}
}

// TestArbiterFiftyFiftyFairness: two equally fast players from opposing
// teams at identical distances and utilities over many seeds. The winner
// split must sit within [0.48, 0.52] — no team-side bias.
func TestArbiterFiftyFiftyFairness(t *testing.T) {
	const trials = 1000
	homeWins := 0

	for seed := uint64(0); seed < trials; seed++ {
		snap := snapshotFixture()
		snap.Ball.State = BallRolling
		snap.Ball.HasOwner = false
		snap.Ball.Pos = geom.Centre()
		// Mirror-symmetric but non-identical positions, varied per seed so
		// the hash sees fresh geometry each trial.
		off := int32(seed%7) + 4
		snap.Players[0].Pos = snap.Ball.Pos.Add(geom.Coord{X: -off, Y: int32(seed % 5)})
		snap.Players[11].Pos = snap.Ball.Pos.Add(geom.Coord{X: off, Y: -int32(seed % 5)})

		intents := []PlayerIntent{
			intentFor(snap, 0, IntentIntercept, NoPlayer, 0.5),
			intentFor(snap, 11, IntentIntercept, NoPlayer, 0.5),
		}
		results := arbitrate(snap, intents, seed)
		for _, r := range results {
			if r.Intent.Player == 0 && r.Status == CommitAccepted {
				homeWins++
			}
		}
	}

	frac := float64(homeWins) / trials
	if frac < 0.48 || frac > 0.52 {
		t.Errorf("home win fraction %.3f outside [0.48, 0.52]", frac)
	}
}

func TestArbiterOrderIndependence(t *testing.T) {
	snap := snapshotFixture()
	giveBall(snap, 1)
	snap.Players[12].Pos = snap.Ball.Pos.Add(geom.Coord{X: 15})
	snap.Players[13].Pos = snap.Ball.Pos.Add(geom.Coord{X: -15})

	a := []PlayerIntent{
		intentFor(snap, 12, IntentTackle, 1, 0.4),
		intentFor(snap, 13, IntentTackle, 1, 0.7),
		intentFor(snap, 1, IntentHoldBall, NoPlayer, 0.3),
	}
	b := []PlayerIntent{a[2], a[0], a[1]}

	ra := arbitrate(snap, a, 11)
	rb := arbitrate(snap, b, 11)

	statusOf := func(rs []CommitResult, id PlayerID) CommitStatus {
		for _, r := range rs {
			if r.Intent.Player == id {
				return r.Status
			}
		}
		t.Fatalf("player %d missing", id)
		return 0
	}
	for _, id := range []PlayerID{1, 12, 13} {
		if statusOf(ra, id) != statusOf(rb, id) {
			t.Errorf("player %d ruling depends on input order", id)
		}
	}
}
