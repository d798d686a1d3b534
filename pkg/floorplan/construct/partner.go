package construct

import (
	"sort"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/floorplan"
)

// Alignment sort keys.
const (
	SortArea = "area"
	SortType = "type"
	SortName = "name"
)

// PartnerRow is one line of the partner table.
type PartnerRow struct {
	Blk0           string  `json:"blk0" bson:"blk0"`
	Blk1           string  `json:"blk1" bson:"blk1"`
	AlignmentArea  float64 `json:"alignment_area" bson:"alignment_area"`
	AlignmentGroup int     `json:"alignment_group" bson:"alignment_group"`
}

// BuildPartners pairs movable blocks for alignment and records each pair on
// fp.
//
// Movable, non-virtual blocks are ordered by sortKey. Walking that order,
// every block that is not yet paired anchors up to numAlignment of the
// following unpaired blocks, so an anchor may appear in several pairs and
// forms a star-shaped group with its partners. Each pair's alignment area is
// min(area0, area1) * rate using grid areas.
func BuildPartners(fp *floorplan.FPInfo, numAlignment int, sortKey string, rate float64) ([]floorplan.PartnerPair, error) {
	less, err := partnerOrder(sortKey)
	if err != nil {
		return nil, err
	}
	if numAlignment < 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "num_alignment must not be negative, got %d", numAlignment)
	}
	fp.AlignmentSort = sortKey

	var movable []*floorplan.Block
	for _, b := range fp.Blocks() {
		if b.Movable() && !b.Virtual {
			movable = append(movable, b)
		}
	}
	sort.SliceStable(movable, func(i, j int) bool { return less(movable[i], movable[j]) })

	paired := make(map[int]bool)
	for i, anchor := range movable {
		if numAlignment == 0 {
			break
		}
		if paired[anchor.Index] {
			continue
		}
		taken := 0
		for _, b := range movable[i+1:] {
			if taken == numAlignment {
				break
			}
			if paired[b.Index] {
				continue
			}
			area := min(anchor.Area(), b.Area()) * rate
			if err := fp.SetPartner(anchor.Index, b.Index, area); err != nil {
				return nil, err
			}
			paired[anchor.Index], paired[b.Index] = true, true
			taken++
		}
	}
	return fp.Partners(), nil
}

// PartnerTable lists the pairs recorded on fp with their alignment group,
// sorted by group then block names.
func PartnerTable(fp *floorplan.FPInfo) []PartnerRow {
	pairs := fp.Partners()
	rows := make([]PartnerRow, 0, len(pairs))
	for _, p := range pairs {
		group, _ := fp.AlignmentGroup(p.Blk0)
		rows = append(rows, PartnerRow{
			Blk0:           fp.Block(p.Blk0).Name,
			Blk1:           fp.Block(p.Blk1).Name,
			AlignmentArea:  p.Area,
			AlignmentGroup: group,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.AlignmentGroup != b.AlignmentGroup {
			return a.AlignmentGroup < b.AlignmentGroup
		}
		if a.Blk0 != b.Blk0 {
			return a.Blk0 < b.Blk0
		}
		return a.Blk1 < b.Blk1
	})
	return rows
}

func partnerOrder(key string) (func(a, b *floorplan.Block) bool, error) {
	switch key {
	case SortArea:
		return func(a, b *floorplan.Block) bool {
			if a.Area() != b.Area() {
				return a.Area() > b.Area()
			}
			return a.Name < b.Name
		}, nil
	case SortType:
		return func(a, b *floorplan.Block) bool {
			if a.Type != b.Type {
				return a.Type < b.Type
			}
			return a.Name < b.Name
		}, nil
	case SortName:
		return func(a, b *floorplan.Block) bool { return a.Name < b.Name }, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown alignment sort %q (must be one of: area, type, name)", key)
	}
}
