// Package obs builds typed observations and rewards from tick snapshots.
// Consumers of the core, never participants in the hot loop.
package obs

import (
	"matchday/internal/match"
	"matchday/internal/match/geom"
)

// VectorSize is the flat observation length.
const VectorSize = 115

// Minimap dimensions: 4 channels on a 72x96 grid.
const (
	MinimapChannels = 4
	MinimapRows     = 72
	MinimapCols     = 96
)

// SimpleVector is the 115-element flat observation in team view: the
// observing team's goal sits at x=-1 regardless of the half.
//
// Layout:
//
//	[0:44)    22 player positions (x, y), own team first
//	[44:88)   22 player velocities (x, y)
//	[88:91)   ball position (x, y, z)
//	[91:94)   ball velocity (x, y, z)
//	[94:97)   ball ownership one-hot (none, own, opponent)
//	[97:108)  active own player one-hot (11)
//	[108:115) game mode one-hot (7)
func SimpleVector(snap *match.TickSnapshot, side match.TeamSide) [VectorSize]float32 {
	var v [VectorSize]float32
	i := 0

	writePlayers := func(s match.TeamSide) {
		start, end := playerRange(s)
		for id := start; id < end; id++ {
			x, y := teamViewPos(snap, side, snap.Players[id].Pos)
			v[i] = float32(x)
			v[i+1] = float32(y)
			i += 2
		}
	}
	writePlayers(side)
	writePlayers(side.Opponent())

	writeVels := func(s match.TeamSide) {
		start, end := playerRange(s)
		for id := start; id < end; id++ {
			vx, vy := teamViewVel(snap, side, snap.Players[id].Vel)
			v[i] = float32(vx)
			v[i+1] = float32(vy)
			i += 2
		}
	}
	writeVels(side)
	writeVels(side.Opponent())

	bx, by := teamViewPos(snap, side, snap.Ball.Pos)
	v[i] = float32(bx)
	v[i+1] = float32(by)
	v[i+2] = float32(float64(snap.Ball.HeightU) * geom.Unit / 10.0)
	i += 3
	bvx, bvy := teamViewVel(snap, side, snap.Ball.Vel)
	v[i] = float32(bvx)
	v[i+1] = float32(bvy)
	v[i+2] = 0
	i += 3

	// Ownership one-hot.
	switch {
	case !snap.Ball.HasOwner:
		v[i] = 1
	case snap.Ball.Owner.Side() == side:
		v[i+1] = 1
	default:
		v[i+2] = 1
	}
	i += 3

	// Active player: the own player closest to the ball.
	active, _ := snap.ClosestTo(side, snap.Ball.Pos)
	if active != match.NoPlayer {
		v[i+active.SquadIndex()] = 1
	}
	i += match.SquadSize

	// Game mode one-hot.
	v[i+int(snap.Mode)] = 1

	return v
}

// Minimap renders the 4-channel 72x96 occupancy map in team view:
// channel 0 own team, 1 opponents, 2 ball, 3 active player.
func Minimap(snap *match.TickSnapshot, side match.TeamSide) [MinimapChannels][MinimapRows][MinimapCols]uint8 {
	var m [MinimapChannels][MinimapRows][MinimapCols]uint8

	plot := func(ch int, c geom.Coord) {
		x, y := teamViewPos(snap, side, c)
		// x in [-1,1] across length, y in [-1,1] across width.
		col := int((x + 1) / 2 * (MinimapCols - 1))
		row := int((y + 1) / 2 * (MinimapRows - 1))
		if col < 0 {
			col = 0
		}
		if col >= MinimapCols {
			col = MinimapCols - 1
		}
		if row < 0 {
			row = 0
		}
		if row >= MinimapRows {
			row = MinimapRows - 1
		}
		m[ch][row][col] = 255
	}

	start, end := playerRange(side)
	for id := start; id < end; id++ {
		plot(0, snap.Players[id].Pos)
	}
	start, end = playerRange(side.Opponent())
	for id := start; id < end; id++ {
		plot(1, snap.Players[id].Pos)
	}
	plot(2, snap.Ball.Pos)
	if active, _ := snap.ClosestTo(side, snap.Ball.Pos); active != match.NoPlayer {
		plot(3, snap.Players[active].Pos)
	}
	return m
}

// teamViewPos maps a world coordinate into [-1,1]x[-1,1] with the observing
// team's goal at x=-1.
func teamViewPos(snap *match.TickSnapshot, side match.TeamSide, c geom.Coord) (float64, float64) {
	x := c.MetresX()/geom.FieldLengthM*2 - 1
	y := c.MetresY()/geom.FieldWidthM*2 - 1
	if !snap.AttacksRight(side) {
		x, y = -x, -y
	}
	return x, y
}

func teamViewVel(snap *match.TickSnapshot, side match.TeamSide, v geom.Vel) (float64, float64) {
	vx := v.MetresX() / 10.0
	vy := v.MetresY() / 10.0
	if !snap.AttacksRight(side) {
		vx, vy = -vx, -vy
	}
	return vx, vy
}

func playerRange(side match.TeamSide) (match.PlayerID, match.PlayerID) {
	if side == match.Home {
		return 0, match.SquadSize
	}
	return match.SquadSize, 2 * match.SquadSize
}
