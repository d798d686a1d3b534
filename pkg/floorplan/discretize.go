package floorplan

import (
	"fmt"
	"math"
)

// Discretize maps block and terminal geometry from outline units onto a
// numGridX × numGridY grid that exactly covers the outline. Every x/y/w/h is
// divided by the cell size and rounded half-to-even. Block sizes never drop
// below one cell, and virtual blocks are always 1×1.
//
// Entities are updated in place; the returned slices are the inputs, in the
// same order. The cell size is returned alongside.
func Discretize(blocks []*Block, terminals []*Terminal, numGridX, numGridY int, outlineW, outlineH float64) ([]*Block, []*Terminal, float64, float64, error) {
	if numGridX <= 0 || numGridY <= 0 {
		return nil, nil, 0, 0, fmt.Errorf("grid must be positive, got %dx%d", numGridX, numGridY)
	}
	if !(outlineW > 0) || !(outlineH > 0) {
		return nil, nil, 0, 0, fmt.Errorf("outline must be positive, got %vx%v", outlineW, outlineH)
	}

	cellW := outlineW / float64(numGridX)
	cellH := outlineH / float64(numGridY)

	for _, b := range blocks {
		b.GridX = ToGrid(b.X, cellW)
		b.GridY = ToGrid(b.Y, cellH)
		if b.Virtual {
			b.GridW, b.GridH = 1, 1
			continue
		}
		b.GridW = GridSpan(b.W, cellW)
		b.GridH = GridSpan(b.H, cellH)
	}
	for _, t := range terminals {
		t.GridX = ToGrid(t.X, cellW)
		t.GridY = ToGrid(t.Y, cellH)
	}
	return blocks, terminals, cellW, cellH, nil
}

// ToGrid maps a real coordinate onto cells of the given size.
func ToGrid(v, cell float64) int {
	return int(math.RoundToEven(v / cell))
}

// GridSpan maps a real block dimension onto cells, never below one cell.
func GridSpan(v, cell float64) int {
	return max(ToGrid(v, cell), 1)
}
