package construct

import (
	"sort"

	"github.com/matzehuels/stackplan/pkg/circuit"
	"github.com/matzehuels/stackplan/pkg/errors"
)

// AssignLayers spreads records across numLayer layers so that per-layer
// block area is balanced. Blocks are taken in descending area order (ties by
// name) and each goes to the layer with the least area so far, lowest index
// first on ties. Records are updated in place and the resulting per-layer
// areas are returned.
func AssignLayers(records []circuit.BlockRecord, numLayer int) ([]float64, error) {
	if numLayer < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "num_layer must be at least 1, got %d", numLayer)
	}

	order := make([]int, len(records))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := records[order[a]], records[order[b]]
		if ra.Area() != rb.Area() {
			return ra.Area() > rb.Area()
		}
		return ra.Name < rb.Name
	})

	area := make([]float64, numLayer)
	for _, i := range order {
		z := lightest(area)
		records[i].Z, records[i].HasZ = z, true
		area[z] += records[i].Area()
	}
	return area, nil
}

func lightest(area []float64) int {
	best := 0
	for z := 1; z < len(area); z++ {
		if area[z] < area[best] {
			best = z
		}
	}
	return best
}

// needsLayers reports whether the records lack a layer column.
func needsLayers(records []circuit.BlockRecord) bool {
	return len(records) > 0 && !records[0].HasZ
}
