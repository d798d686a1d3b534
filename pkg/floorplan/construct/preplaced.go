package construct

import (
	"sort"

	"github.com/matzehuels/stackplan/pkg/circuit"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/floorplan"
)

// PlacePreplaced fixes the n largest non-virtual blocks (ties by name) at
// non-overlapping positions inside the outline and marks every record with
// its preplaced flag.
//
// Chosen blocks are packed on shelves of the numGridX × numGridY grid
// starting at the origin: left to right along a shelf, with a new shelf
// opened above the tallest block of the previous one when the next block
// would cross the right edge. Sizes are taken in cells the way
// [floorplan.Discretize] rounds them, and positions are stored as exact cell
// multiples, so the packing survives discretization unchanged.
func PlacePreplaced(records []circuit.BlockRecord, n int, outlineW, outlineH float64, numGridX, numGridY int) error {
	if n < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "num_preplaced must not be negative, got %d", n)
	}
	if numGridX < 1 || numGridY < 1 {
		return errors.New(errors.ErrCodeInvalidConfig, "grid must be positive, got %dx%d", numGridX, numGridY)
	}

	var candidates []int
	for i := range records {
		records[i].Preplaced, records[i].HasPreplaced = false, true
		if !records[i].Virtual {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) < n {
		return errors.New(errors.ErrCodeInsufficientBlocks,
			"requested %d preplaced blocks but only %d are available", n, len(candidates))
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		ra, rb := records[candidates[a]], records[candidates[b]]
		if ra.Area() != rb.Area() {
			return ra.Area() > rb.Area()
		}
		return ra.Name < rb.Name
	})

	cellW := outlineW / float64(numGridX)
	cellH := outlineH / float64(numGridY)

	var x, y, shelf int
	for _, i := range candidates[:n] {
		r := &records[i]
		w, h := floorplan.GridSpan(r.W, cellW), floorplan.GridSpan(r.H, cellH)
		if x > 0 && x+w > numGridX {
			x, y, shelf = 0, y+shelf, 0
		}
		if x+w > numGridX || y+h > numGridY {
			return errors.New(errors.ErrCodeOutlineOverflow,
				"preplaced block %s (%dx%d cells) does not fit in grid %dx%d", r.Name, w, h, numGridX, numGridY)
		}
		r.X, r.Y, r.HasXY = float64(x)*cellW, float64(y)*cellH, true
		r.Preplaced = true
		x += w
		shelf = max(shelf, h)
	}
	return nil
}

// needsPreplaced reports whether the records lack a preplaced column.
func needsPreplaced(records []circuit.BlockRecord) bool {
	return len(records) > 0 && !records[0].HasPreplaced
}
