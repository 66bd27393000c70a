package spatial

import (
	"testing"

	"matchday/internal/match/geom"
)

func TestGridInsertQuery(t *testing.T) {
	g := NewGrid(DefaultCellSizeU, 22)

	g.Insert(0, geom.Coord{X: 100, Y: 100})
	g.Insert(1, geom.Coord{X: 110, Y: 100})
	g.Insert(2, geom.Coord{X: 900, Y: 600})

	got := g.QueryRadius(geom.Coord{X: 105, Y: 100}, 40)
	found := map[uint32]bool{}
	for _, id := range got {
		found[id] = true
	}
	if !found[0] || !found[1] {
		t.Errorf("expected near entities 0 and 1 in candidates, got %v", got)
	}
	if found[2] {
		t.Errorf("distant entity 2 must not appear in candidates")
	}
}

func TestGridClearEmptiesCells(t *testing.T) {
	g := NewGrid(DefaultCellSizeU, 22)
	for i := uint32(0); i < 22; i++ {
		g.Insert(i, geom.Coord{X: int32(i * 40), Y: int32(i * 20)})
	}
	g.Clear()
	if got := g.QueryRadius(geom.Centre(), 600); len(got) != 0 {
		t.Errorf("grid not empty after Clear: %v", got)
	}
}

func TestGridDeterministicOrder(t *testing.T) {
	build := func() []uint32 {
		g := NewGrid(DefaultCellSizeU, 22)
		for i := uint32(0); i < 10; i++ {
			g.Insert(i, geom.Coord{X: int32(100 + i*5), Y: 100})
		}
		out := g.QueryRadius(geom.Coord{X: 120, Y: 100}, 60)
		cp := make([]uint32, len(out))
		copy(cp, out)
		return cp
	}
	a, b := build(), build()
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("iteration order differs at %d: %v vs %v", i, a, b)
		}
	}
}
