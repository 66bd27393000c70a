package obs

import (
	"matchday/internal/match"
	"matchday/internal/match/geom"
)

// RewardFunc scores one tick from the observing side's perspective.
type RewardFunc interface {
	// Compute folds the tick transition and its events into a reward.
	Compute(prev, curr *match.TickSnapshot, events []match.MatchEvent) float64
	// Sparse reports whether the function only fires on rare events.
	Sparse() bool
	Name() string
}

// SparseGoalReward pays +1 for a goal scored, -1 conceded. The baseline
// reward shape for policy training.
type SparseGoalReward struct {
	Side match.TeamSide
}

func (r SparseGoalReward) Compute(_, _ *match.TickSnapshot, events []match.MatchEvent) float64 {
	reward := 0.0
	for _, ev := range events {
		if ev.Type != match.EventGoal && ev.Type != match.EventOwnGoal {
			continue
		}
		// Team on the event is the benefiting side for both types.
		if ev.Team == r.Side {
			reward += 1
		} else {
			reward -= 1
		}
	}
	return reward
}

func (SparseGoalReward) Sparse() bool { return true }
func (SparseGoalReward) Name() string { return "sparse_goal" }

// CheckpointReward adds a small shaping signal for carrying the ball into
// previously unreached depth bands while in possession, on top of the
// sparse goal payout. Checkpoints reset on goals.
type CheckpointReward struct {
	Side match.TeamSide

	reached int // deepest band already rewarded, 0..9
}

const checkpointBands = 10
const checkpointBonus = 0.1

func (r *CheckpointReward) Compute(prev, curr *match.TickSnapshot, events []match.MatchEvent) float64 {
	reward := SparseGoalReward{Side: r.Side}.Compute(prev, curr, events)
	for _, ev := range events {
		if ev.Type == match.EventGoal || ev.Type == match.EventOwnGoal {
			r.reached = 0
		}
	}

	if curr.Ball.HasOwner && curr.Ball.Owner.Side() == r.Side {
		x := curr.Ball.Pos.MetresX() / geom.FieldLengthM
		if !curr.AttacksRight(r.Side) {
			x = 1 - x
		}
		band := int(x * checkpointBands)
		if band >= checkpointBands {
			band = checkpointBands - 1
		}
		if band > r.reached {
			reward += float64(band-r.reached) * checkpointBonus
			r.reached = band
		}
	}
	return reward
}

func (*CheckpointReward) Sparse() bool { return false }
func (*CheckpointReward) Name() string { return "checkpoint" }
