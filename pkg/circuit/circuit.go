// Package circuit reads floorplanning benchmarks from disk and turns them
// into the records consumed by floorplan construction.
//
// A circuit named c lives under a data root as four files:
//
//	<root>/c.blk.csv   name,w,h[,x,y,z,preplaced]
//	<root>/c.tml.csv   name,x,y
//	<root>/c.net.csv   net            (one list literal per row: "['a', 'b']")
//	<root>/c.fp.txt    name,x,y,...,z (optional prior floorplan)
//
// Blocks and terminals are returned sorted by name. The chip outline is a
// square whose area is the total block area divided by the requested area
// utilisation, and terminal coordinates are min-max scaled onto it.
package circuit

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/matzehuels/stackplan/pkg/errors"
)

// BlockRecord describes one block as read from disk and annotated during
// construction. Optional columns are tracked with Has* flags.
type BlockRecord struct {
	Name  string  `json:"name"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	RealW float64 `json:"realw"`
	RealH float64 `json:"realh"`
	Type  string  `json:"type,omitempty"`

	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
	HasXY bool    `json:"has_xy,omitempty"`

	Z    int  `json:"z,omitempty"`
	HasZ bool `json:"has_z,omitempty"`

	Preplaced    bool `json:"preplaced,omitempty"`
	HasPreplaced bool `json:"has_preplaced,omitempty"`

	Virtual bool `json:"virtual,omitempty"`
}

// Area returns the block area in outline units, halo included.
func (r BlockRecord) Area() float64 { return r.W * r.H }

// TerminalRecord is one I/O pin.
type TerminalRecord struct {
	Name string  `json:"name"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Placement is one row of a prior floorplan.
type Placement struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z int     `json:"z"`
}

// Circuit is a fully parsed benchmark.
type Circuit struct {
	Name          string           `json:"name"`
	Blocks        []BlockRecord    `json:"blocks"`
	Terminals     []TerminalRecord `json:"terminals"`
	Nets          [][]string       `json:"nets"`
	OutlineWidth  float64          `json:"outline_width"`
	OutlineHeight float64          `json:"outline_height"`
}

// LoadOptions controls how a circuit is read.
type LoadOptions struct {
	// AreaUtil is the target ratio of block area to die area, in (0, 1].
	AreaUtil float64
	// HaloWidth and HaloHeight are added to every block's size. The outline
	// is derived from the halo-free area.
	HaloWidth  float64
	HaloHeight float64
}

// Paths returns the input file paths for circuit name under root.
func Paths(root, name string) (blk, tml, net, fp string) {
	base := filepath.Join(root, name)
	return base + ".blk.csv", base + ".tml.csv", base + ".net.csv", base + ".fp.txt"
}

// Load reads blocks, terminals and nets for circuit name under root,
// computes the outline and maps terminals onto it.
func Load(root, name string, opts LoadOptions) (*Circuit, error) {
	if err := errors.ValidateCircuitName(name); err != nil {
		return nil, err
	}
	if err := errors.ValidateFraction("area_util", opts.AreaUtil); err != nil {
		return nil, err
	}
	blkPath, tmlPath, netPath, _ := Paths(root, name)

	blocks, err := readFile(blkPath, ReadBlocks)
	if err != nil {
		return nil, err
	}
	if len(blocks) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "circuit %s has no blocks", name)
	}
	terminals, err := readFile(tmlPath, ReadTerminals)
	if err != nil {
		return nil, err
	}
	nets, err := readFile(netPath, ReadNets)
	if err != nil {
		return nil, err
	}

	w, h := Outline(blocks, opts.AreaUtil)
	ApplyHalo(blocks, opts.HaloWidth, opts.HaloHeight)

	return &Circuit{
		Name:          name,
		Blocks:        blocks,
		Terminals:     MapTerminals(terminals, w, h),
		Nets:          nets,
		OutlineWidth:  w,
		OutlineHeight: h,
	}, nil
}

// LoadPlacements reads the prior floorplan for circuit name under root.
func LoadPlacements(root, name string) (map[string]Placement, error) {
	if err := errors.ValidateCircuitName(name); err != nil {
		return nil, err
	}
	_, _, _, fpPath := Paths(root, name)
	return readFile(fpPath, ReadPlacements)
}

// Outline returns the square chip outline for the given utilisation.
func Outline(blocks []BlockRecord, areaUtil float64) (float64, float64) {
	var area float64
	for _, b := range blocks {
		area += b.RealW * b.RealH
	}
	side := math.Sqrt(area / areaUtil)
	return side, side
}

// ApplyHalo grows every non-virtual block by the halo. RealW and RealH keep
// the original size.
func ApplyHalo(blocks []BlockRecord, haloW, haloH float64) {
	for i := range blocks {
		if blocks[i].Virtual {
			continue
		}
		blocks[i].W = blocks[i].RealW + haloW
		blocks[i].H = blocks[i].RealH + haloH
	}
}

// MapTerminals min-max scales terminal coordinates onto [0, w] × [0, h].
// An axis with no spread maps to 0.
func MapTerminals(terminals []TerminalRecord, w, h float64) []TerminalRecord {
	if len(terminals) == 0 {
		return terminals
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, t := range terminals {
		minX, maxX = math.Min(minX, t.X), math.Max(maxX, t.X)
		minY, maxY = math.Min(minY, t.Y), math.Max(maxY, t.Y)
	}

	out := make([]TerminalRecord, len(terminals))
	for i, t := range terminals {
		out[i] = TerminalRecord{
			Name: t.Name,
			X:    scale(t.X, minX, maxX, w),
			Y:    scale(t.Y, minY, maxY, h),
		}
	}
	return out
}

func scale(v, lo, hi, span float64) float64 {
	if hi == lo {
		return 0
	}
	return (v - lo) / (hi - lo) * span
}

func readFile[T any](path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return zero, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	v, err := parse(f)
	if err != nil {
		return zero, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return v, nil
}

func sortBlocks(blocks []BlockRecord) {
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Name < blocks[j].Name })
}

func sortTerminals(terminals []TerminalRecord) {
	sort.SliceStable(terminals, func(i, j int) bool { return terminals[i].Name < terminals[j].Name })
}
