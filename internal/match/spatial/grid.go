// Package spatial provides a cache-efficient spatial index for neighbor
// queries over fixed-point pitch coordinates.
//
// The grid uses preallocated slices with integer indices (not pointers) to
// minimize GC pressure. Queries reuse a scratch buffer, so they stay
// allocation-free once it has grown. The match engine does not use it yet.
package spatial

import (
	"matchday/internal/match/geom"
)

// Grid provides O(1) average spatial queries via fixed-size cells.
//
// Cell size should equal the largest query radius. For the pitch the
// dominant query is pressure/separation (~8 m), so the default cell is 80
// lattice units.
type Grid struct {
	cellSizeU   int32
	cols, rows  int
	cells       [][]uint32 // cells[row*cols+col] = entity indices
	scratch     []uint32   // reusable buffer for query results
}

// DefaultCellSizeU is the default cell edge in 0.1 m units (8 m).
const DefaultCellSizeU int32 = 80

// NewGrid creates a grid covering the full pitch.
func NewGrid(cellSizeU int32, maxEntities int) *Grid {
	if cellSizeU <= 0 {
		cellSizeU = DefaultCellSizeU
	}
	cols := int((geom.FieldLengthU + cellSizeU - 1) / cellSizeU)
	rows := int((geom.FieldWidthU + cellSizeU - 1) / cellSizeU)
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	avgPerCell := maxEntities / len(cells)
	if avgPerCell < 4 {
		avgPerCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &Grid{
		cellSizeU: cellSizeU,
		cols:      cols,
		rows:      rows,
		cells:     cells,
		scratch:   make([]uint32, 0, 32),
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity at c. The entityID should be the index into the
// caller's entity slice.
func (g *Grid) Insert(entityID uint32, c geom.Coord) {
	idx := g.cellIndex(c)
	g.cells[idx] = append(g.cells[idx], entityID)
}

func (g *Grid) cellIndex(c geom.Coord) int {
	col := int(c.X / g.cellSizeU)
	row := int(c.Y / g.cellSizeU)
	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return row*g.cols + col
}

// QueryRadius returns candidate entity IDs whose cells intersect the radius.
// This is a broad phase: callers do the exact distance check. The returned
// slice is reused across calls; callers must not retain it. Iteration order
// is fixed for a fixed insertion order, keeping consumers deterministic.
func (g *Grid) QueryRadius(c geom.Coord, radiusU int32) []uint32 {
	g.scratch = g.scratch[:0]

	minCol := int((c.X - radiusU) / g.cellSizeU)
	maxCol := int((c.X + radiusU) / g.cellSizeU)
	minRow := int((c.Y - radiusU) / g.cellSizeU)
	maxRow := int((c.Y + radiusU) / g.cellSizeU)

	if minCol < 0 {
		minCol = 0
	}
	if maxCol >= g.cols {
		maxCol = g.cols - 1
	}
	if minRow < 0 {
		minRow = 0
	}
	if maxRow >= g.rows {
		maxRow = g.rows - 1
	}

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			for _, id := range g.cells[row*g.cols+col] {
				g.scratch = append(g.scratch, id)
			}
		}
	}
	return g.scratch
}
