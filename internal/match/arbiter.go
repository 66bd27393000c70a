package match

import (
	"sort"

	"matchday/internal/match/geom"
)

// Intent arbiter: Phase-2 conflict resolution. Conflicts are resolved in a
// fixed order — BallTouch, then Tackle — and every ruling is deterministic.
// Space conflicts are handled by the off-ball resolver, not here.

// ConflictType tags an arbiter ruling for the telemetry log.
type ConflictType uint8

const (
	ConflictNone ConflictType = iota
	ConflictBallTouch
	ConflictTackle
)

// arbitrate rules on the tick's intents. Input order does not matter; the
// function sorts working sets internally.
func arbitrate(snap *TickSnapshot, intents []PlayerIntent, seed uint64) []CommitResult {
	results := make([]CommitResult, 0, len(intents))
	byPlayer := make(map[PlayerID]*CommitResult, len(intents))
	for _, in := range intents {
		results = append(results, CommitResult{Intent: in, Status: CommitAccepted})
	}
	for i := range results {
		byPlayer[results[i].Intent.Player] = &results[i]
	}

	resolveBallTouch(snap, results, seed)
	resolveTackles(snap, results)
	return results
}

// ballTouchSeekers are intents that try to reach/play the ball this tick.
func seeksBallTouch(k IntentKind) bool {
	switch k {
	case IntentShoot, IntentPassShort, IntentPassLong, IntentPassThrough,
		IntentPassCross, IntentClear, IntentHoldBall, IntentDribbleProtect,
		IntentDribbleProgress, IntentDribbleBeat, IntentIntercept:
		return true
	default:
		return false
	}
}

// resolveBallTouch: when two or more players would reach the ball in the
// same tick, priority is (current owner) > (closest ETA) > (highest
// utility) > (position hash, team-bias free). Losers are deferred.
func resolveBallTouch(snap *TickSnapshot, results []CommitResult, seed uint64) {
	var seekers []*CommitResult
	for i := range results {
		r := &results[i]
		if !seeksBallTouch(r.Intent.Kind) {
			continue
		}
		// Only players who can plausibly touch this tick conflict: the
		// owner, or anyone within reach of a loose ball.
		id := r.Intent.Player
		if snap.Ball.HasOwner {
			if snap.Ball.Owner != id {
				if r.Intent.Kind == IntentIntercept {
					r.Status = CommitDeferred
				}
				continue
			}
		} else if snap.BallDistM(id) > interceptReachM(snap, id) {
			continue
		}
		seekers = append(seekers, r)
	}
	if len(seekers) <= 1 {
		return
	}

	sort.SliceStable(seekers, func(i, j int) bool {
		a, b := seekers[i], seekers[j]
		aOwner := snap.Ball.HasOwner && snap.Ball.Owner == a.Intent.Player
		bOwner := snap.Ball.HasOwner && snap.Ball.Owner == b.Intent.Player
		if aOwner != bOwner {
			return aOwner
		}
		aETA := touchETA(snap, a.Intent.Player)
		bETA := touchETA(snap, b.Intent.Player)
		if aETA != bETA {
			return aETA < bETA
		}
		if a.Intent.Utility != b.Intent.Utility {
			return a.Intent.Utility > b.Intent.Utility
		}
		pa := snap.Players[a.Intent.Player].Pos
		pb := snap.Players[b.Intent.Player].Pos
		return positionTieHash(seed, snap.Tick,
			tieEntrant{pa.X, pa.Y}, tieEntrant{pb.X, pb.Y})
	})

	for _, r := range seekers[1:] {
		r.Status = CommitDeferred
	}
}

// touchETA is the tick count for a player to reach the ball at current
// closing speed, in integer half-ticks for exact comparison.
func touchETA(snap *TickSnapshot, id PlayerID) int64 {
	d := snap.BallDistM(id)
	// 7 m/s closing proxy; comparisons only need a monotone integer key.
	return int64(d / 7.0 / DecisionDT * 2)
}

func interceptReachM(snap *TickSnapshot, id PlayerID) float64 {
	// One tick of movement plus the intercept radius.
	return 7.0*DecisionDT + InterceptRadius
}

// resolveTackles: multiple challenges on the same victim keep the highest
// tackle utility; losers are replaced with Contain.
func resolveTackles(snap *TickSnapshot, results []CommitResult) {
	byVictim := make(map[PlayerID][]*CommitResult)
	for i := range results {
		r := &results[i]
		if r.Intent.Kind == IntentTackle && r.Status == CommitAccepted {
			byVictim[r.Intent.Target] = append(byVictim[r.Intent.Target], r)
		}
	}
	for _, group := range byVictim {
		if len(group) <= 1 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].Intent.Utility != group[j].Intent.Utility {
				return group[i].Intent.Utility > group[j].Intent.Utility
			}
			return group[i].Intent.Player < group[j].Intent.Player
		})
		for _, r := range group[1:] {
			r.Status = CommitReplaced
			r.Replacement = IntentContain
		}
	}
}

// containFallback rewrites a replaced tackle into the contain movement the
// loser actually executes.
func containFallback(snap *TickSnapshot, in PlayerIntent) PlayerIntent {
	out := in
	out.Kind = IntentContain
	out.Target = NoPlayer
	out.TargetPos = containPoint(snap, in.Player.Side(), snap.Ball.Pos)
	out.Key = CandidateKey{
		Kind: IntentContain,
		Zone: geom.TacticalZoneOf(out.TargetPos, snap.AttacksRight(in.Player.Side())),
	}
	return out
}
