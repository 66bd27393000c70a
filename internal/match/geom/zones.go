package geom

// Zone identifiers are pure functions of a coordinate and attack direction.
// Two granularities exist: a coarse 6-zone grid (thirds x halves) used by the
// mindset filter, and a 20-zone tactical grid (4 lanes x 5 quarters) used in
// candidate keys.

// CoarseZone is a 6-zone grid id: thirds along x (0=defensive, 1=middle,
// 2=attacking, in the attack direction) crossed with halves along y
// (0=left, 1=right from the attacker's point of view).
type CoarseZone uint8

// TacticalZone is a 20-zone grid id: lane*5 + band, lane in 0..3 (left to
// right in the attack direction), band in 0..4 (own goal to opponent goal).
type TacticalZone uint8

// TacticalZoneCount is the number of tactical zones.
const TacticalZoneCount = 20

// teamView maps c into the attacker's frame: own goal at x=0, left wing at
// y=0. A team attacking -x sees the field rotated 180 degrees.
func teamView(c Coord, attacksRight bool) Coord {
	if attacksRight {
		return c
	}
	return Coord{FieldLengthU - c.X, FieldWidthU - c.Y}
}

// CoarseZoneOf returns the 6-zone id for c in the attacker's frame.
func CoarseZoneOf(c Coord, attacksRight bool) CoarseZone {
	v := teamView(c.ClampToField(), attacksRight)
	third := v.X * 3 / (FieldLengthU + 1)
	half := v.Y * 2 / (FieldWidthU + 1)
	return CoarseZone(third*2 + half)
}

// Third returns the attacking third index 0..2 of a coarse zone.
func (z CoarseZone) Third() int { return int(z) / 2 }

// TacticalZoneOf returns the 20-zone id for c in the attacker's frame.
func TacticalZoneOf(c Coord, attacksRight bool) TacticalZone {
	v := teamView(c.ClampToField(), attacksRight)
	lane := v.Y * 4 / (FieldWidthU + 1)
	band := v.X * 5 / (FieldLengthU + 1)
	return TacticalZone(lane*5 + band)
}

// Lane returns the lane index 0..3 (left to right in attack direction).
func (z TacticalZone) Lane() int { return int(z) / 5 }

// Band returns the depth band 0..4 (own goal to opponent goal).
func (z TacticalZone) Band() int { return int(z) % 5 }

// Flip returns the same physical zone seen from the opposite team.
func (z TacticalZone) Flip() TacticalZone {
	lane := 3 - z.Lane()
	band := 4 - z.Band()
	return TacticalZone(lane*5 + band)
}

// ZoneCentre returns the centre coordinate of a tactical zone in the
// attacker's frame converted back to world space.
func ZoneCentre(z TacticalZone, attacksRight bool) Coord {
	laneH := FieldWidthU / 4
	bandW := FieldLengthU / 5
	v := Coord{
		X: int32(z.Band())*bandW + bandW/2,
		Y: int32(z.Lane())*laneH + laneH/2,
	}
	return teamView(v, attacksRight)
}
