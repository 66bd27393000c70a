package geom

import (
	"math"
	"testing"
)

// TestCoordMetresRoundTrip verifies the fixed-point law: quantizing the
// metre projection of any lattice point returns the same point.
func TestCoordMetresRoundTrip(t *testing.T) {
	coords := []Coord{
		{0, 0},
		{1050, 680},
		{525, 340},
		{-3, -7},
		{1, 1},
		{1049, 679},
	}
	for _, c := range coords {
		got := FromMetres(c.Metres())
		if got != c {
			t.Errorf("round trip %v -> %v", c, got)
		}
	}
}

func TestFromMetresRounding(t *testing.T) {
	tests := []struct {
		name string
		x, y float64
		want Coord
	}{
		{"exact", 10.0, 5.0, Coord{100, 50}},
		{"round up", 10.05, 5.0, Coord{101, 50}},
		{"round down", 10.04, 5.0, Coord{100, 50}},
		{"negative symmetric", -10.05, -5.0, Coord{-101, -50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FromMetres(tt.x, tt.y); got != tt.want {
				t.Errorf("FromMetres(%v, %v) = %v, want %v", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestDistM(t *testing.T) {
	a := Coord{0, 0}
	b := Coord{30, 40} // 3m, 4m
	if d := a.DistM(b); math.Abs(d-5.0) > 1e-9 {
		t.Errorf("DistM = %v, want 5.0", d)
	}
}

func TestClampToField(t *testing.T) {
	c := Coord{-10, 700}.ClampToField()
	if c.X != 0 || c.Y != FieldWidthU {
		t.Errorf("clamp = %v", c)
	}
	if !c.InField() {
		t.Error("clamped coordinate must be in field")
	}
}

func TestInPenaltyArea(t *testing.T) {
	spot := PenaltySpot(true)
	if !InPenaltyArea(spot, true) {
		t.Error("penalty spot must be inside its own area")
	}
	if InPenaltyArea(Centre(), true) {
		t.Error("centre spot is not a penalty area")
	}
	// Mirrored.
	spotL := PenaltySpot(false)
	if !InPenaltyArea(spotL, false) {
		t.Error("mirrored penalty spot must be inside the mirrored area")
	}
}

func TestCoarseZoneThirds(t *testing.T) {
	tests := []struct {
		name         string
		c            Coord
		attacksRight bool
		wantThird    int
	}{
		{"own box attacking right", Coord{50, 340}, true, 0},
		{"midfield", Coord{525, 340}, true, 1},
		{"final third", Coord{1000, 340}, true, 2},
		{"own box attacking left", Coord{1000, 340}, false, 0},
		{"final third attacking left", Coord{50, 340}, false, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CoarseZoneOf(tt.c, tt.attacksRight).Third(); got != tt.wantThird {
				t.Errorf("third = %d, want %d", got, tt.wantThird)
			}
		})
	}
}

func TestTacticalZoneProperties(t *testing.T) {
	// Every zone id stays in range and Flip is an involution.
	for x := int32(0); x <= FieldLengthU; x += 70 {
		for y := int32(0); y <= FieldWidthU; y += 68 {
			z := TacticalZoneOf(Coord{x, y}, true)
			if int(z) >= TacticalZoneCount {
				t.Fatalf("zone %d out of range at (%d,%d)", z, x, y)
			}
			if z.Flip().Flip() != z {
				t.Fatalf("flip not involutive for %d", z)
			}
		}
	}

	// The same physical point seen from opposite sides maps to flipped
	// zones.
	c := Coord{200, 100}
	if TacticalZoneOf(c, true) != TacticalZoneOf(c, false).Flip() {
		t.Error("team-view flip mismatch")
	}
}

func TestZoneCentreRoundTrip(t *testing.T) {
	for z := TacticalZone(0); z < TacticalZoneCount; z++ {
		c := ZoneCentre(z, true)
		if got := TacticalZoneOf(c, true); got != z {
			t.Errorf("zone centre of %d maps back to %d", z, got)
		}
	}
}
