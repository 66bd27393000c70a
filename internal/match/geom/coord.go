// Package geom provides the fixed-point coordinate system used by the match
// engine.
//
// All positions and velocities are stored as signed integers on a 0.1 m
// lattice so that equality, hashing, and replay are bit-exact across
// platforms. Conversion to metres happens only at API boundaries.
package geom

import "math"

// Unit is the lattice resolution in metres.
const Unit = 0.1

// Field dimensions in lattice units (105.0 m x 68.0 m).
const (
	FieldLengthU int32 = 1050
	FieldWidthU  int32 = 680
)

// Field dimensions in metres.
const (
	FieldLengthM = 105.0
	FieldWidthM  = 68.0
)

// Goal geometry in metres. The goal is centred on the y axis.
const (
	GoalWidthM      = 7.32
	GoalHeightM     = 2.44
	GoalMouthMinYM  = (FieldWidthM - GoalWidthM) / 2
	GoalMouthMaxYM  = (FieldWidthM + GoalWidthM) / 2
	PenaltyDepthM   = 16.5
	PenaltyWidthM   = 40.32
	PenaltySpotM    = 11.0
	SixYardDepthM   = 5.5
	CentreCircleM   = 9.15
)

// Coord is a fixed-point 2-D point in 0.1 m units.
type Coord struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// Vel is a fixed-point 2-D velocity in 0.1 m/s units.
type Vel struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// FromMetres quantizes a metre-space point onto the lattice.
// Rounding is half-away-from-zero so the mapping is symmetric for both
// attack directions.
func FromMetres(x, y float64) Coord {
	return Coord{X: quantize(x), Y: quantize(y)}
}

// VelFromMetres quantizes a metre/second velocity onto the lattice.
func VelFromMetres(vx, vy float64) Vel {
	return Vel{X: quantize(vx), Y: quantize(vy)}
}

func quantize(m float64) int32 {
	if m >= 0 {
		return int32(math.Floor(m/Unit + 0.5))
	}
	return int32(math.Ceil(m/Unit - 0.5))
}

// MetresX returns the x component in metres.
func (c Coord) MetresX() float64 { return float64(c.X) * Unit }

// MetresY returns the y component in metres.
func (c Coord) MetresY() float64 { return float64(c.Y) * Unit }

// Metres returns both components in metres.
func (c Coord) Metres() (float64, float64) { return c.MetresX(), c.MetresY() }

// MetresX returns the x component in m/s.
func (v Vel) MetresX() float64 { return float64(v.X) * Unit }

// MetresY returns the y component in m/s.
func (v Vel) MetresY() float64 { return float64(v.Y) * Unit }

// Metres returns both components in m/s.
func (v Vel) Metres() (float64, float64) { return v.MetresX(), v.MetresY() }

// Add returns c translated by d.
func (c Coord) Add(d Coord) Coord { return Coord{c.X + d.X, c.Y + d.Y} }

// Sub returns the displacement from d to c.
func (c Coord) Sub(d Coord) Coord { return Coord{c.X - d.X, c.Y - d.Y} }

// DistM returns the Euclidean distance to d in metres.
func (c Coord) DistM(d Coord) float64 {
	dx := float64(c.X-d.X) * Unit
	dy := float64(c.Y-d.Y) * Unit
	return math.Sqrt(dx*dx + dy*dy)
}

// DistSqU returns the squared distance in lattice units. Integer math, exact.
func (c Coord) DistSqU(d Coord) int64 {
	dx := int64(c.X - d.X)
	dy := int64(c.Y - d.Y)
	return dx*dx + dy*dy
}

// SpeedM returns the velocity magnitude in m/s.
func (v Vel) SpeedM() float64 {
	vx, vy := v.Metres()
	return math.Sqrt(vx*vx + vy*vy)
}

// ClampToField clamps the coordinate to the playing surface.
func (c Coord) ClampToField() Coord {
	return Coord{
		X: clampI32(c.X, 0, FieldLengthU),
		Y: clampI32(c.Y, 0, FieldWidthU),
	}
}

// InField reports whether the coordinate lies on the playing surface
// (touchlines and goal lines inclusive).
func (c Coord) InField() bool {
	return c.X >= 0 && c.X <= FieldLengthU && c.Y >= 0 && c.Y <= FieldWidthU
}

// Lerp returns the point a fraction t of the way from c to d, quantized.
func (c Coord) Lerp(d Coord, t float64) Coord {
	x := c.MetresX() + (d.MetresX()-c.MetresX())*t
	y := c.MetresY() + (d.MetresY()-c.MetresY())*t
	return FromMetres(x, y)
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Centre returns the kickoff spot.
func Centre() Coord { return Coord{FieldLengthU / 2, FieldWidthU / 2} }

// GoalCentre returns the centre of the goal mouth. attacksRight selects
// which goal line: the goal being attacked by a team moving in +x.
func GoalCentre(attacksRight bool) Coord {
	if attacksRight {
		return Coord{FieldLengthU, FieldWidthU / 2}
	}
	return Coord{0, FieldWidthU / 2}
}

// PenaltySpot returns the penalty spot in front of the goal attacked by a
// team moving in +x (attacksRight true) or -x.
func PenaltySpot(attacksRight bool) Coord {
	x := FieldLengthU - int32(PenaltySpotM/Unit)
	if !attacksRight {
		x = int32(PenaltySpotM / Unit)
	}
	return Coord{x, FieldWidthU / 2}
}

// InPenaltyArea reports whether c is inside the penalty area in front of the
// goal attacked by a team moving toward +x (attacksRight) or -x.
func InPenaltyArea(c Coord, attacksRight bool) bool {
	depth := int32(PenaltyDepthM / Unit)
	halfWf := PenaltyWidthM / Unit / 2
	halfW := int32(halfWf)
	cy := FieldWidthU / 2
	if c.Y < cy-halfW || c.Y > cy+halfW {
		return false
	}
	if attacksRight {
		return c.X >= FieldLengthU-depth
	}
	return c.X <= depth
}
