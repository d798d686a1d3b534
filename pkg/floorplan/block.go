package floorplan

import "math"

// Block types that carry meaning for construction.
const (
	TypeVirtual = "virtual"
	TypeHard    = "hard"
)

// Partner records an alignment relationship with another block.
type Partner struct {
	Index int     // Global index of the partner block
	Area  float64 // Shared alignment area enforced between the two blocks
}

// Block is a placeable rectangle.
//
// X/Y/W/H are real (outline) units; the Grid* fields are the discretized
// values produced by [Discretize]. W and H include any halo, RealW and RealH
// do not.
//
// A preplaced block's position is immutable once the block is handed to
// [New]. A virtual block occupies a single grid cell and only anchors
// alignment or layer balance.
type Block struct {
	X, Y         float64
	W, H         float64
	RealW, RealH float64

	GridX, GridY int
	GridW, GridH int
	Z            int

	Name      string
	Type      string
	Preplaced bool
	Virtual   bool

	// Index is the global entity index, -1 until the block joins an FPInfo.
	Index  int
	Placed bool

	// Nets holds the indices of incident nets.
	Nets     []int
	Partners []Partner
}

// NewBlock creates an unindexed block at real position (x, y) on layer z.
func NewBlock(x, y float64, z int, w, h, realW, realH float64, name, typ string, preplaced, virtual bool) *Block {
	return &Block{
		X:         x,
		Y:         y,
		Z:         z,
		W:         w,
		H:         h,
		RealW:     realW,
		RealH:     realH,
		Name:      name,
		Type:      typ,
		Preplaced: preplaced,
		Virtual:   virtual,
		Index:     -1,
	}
}

// SetZ moves the block to layer z without touching its position.
func (b *Block) SetZ(z int) {
	b.Z = z
}

// SetXYZ restores a full position from a prior floorplan and marks the block placed.
func (b *Block) SetXYZ(x, y float64, z int) {
	b.X, b.Y, b.Z = x, y, z
	b.Placed = true
}

// Center returns the grid-space center of the block. The values are
// fractional when a dimension is odd.
func (b *Block) Center() (float64, float64) {
	return float64(b.GridX) + float64(b.GridW)/2, float64(b.GridY) + float64(b.GridH)/2
}

// Area returns the block area in grid cells.
func (b *Block) Area() float64 {
	return float64(b.GridW) * float64(b.GridH)
}

// RealArea returns the block area in outline units, halo excluded.
func (b *Block) RealArea() float64 {
	return b.RealW * b.RealH
}

// Movable reports whether the block takes part in placement.
func (b *Block) Movable() bool { return !b.Preplaced }

func (b *Block) addNet(net int) { b.Nets = append(b.Nets, net) }

// Terminal is a fixed I/O pin. Terminals always sit on layer 0 and are
// immutable once constructed.
type Terminal struct {
	X, Y         float64
	GridX, GridY int
	Name         string

	// Index is the global entity index, -1 until the terminal joins an FPInfo.
	Index int
	Nets  []int
}

// NewTerminal creates an unindexed terminal at real position (x, y).
func NewTerminal(x, y float64, name string) *Terminal {
	return &Terminal{X: x, Y: y, Name: name, Index: -1}
}

// Z returns the terminal layer, which is always 0.
func (t *Terminal) Z() int { return 0 }

// Position returns the grid-space position of the terminal.
func (t *Terminal) Position() (float64, float64) {
	return float64(t.GridX), float64(t.GridY)
}

func (t *Terminal) addNet(net int) { t.Nets = append(t.Nets, net) }

// round is the rounding used for all grid and bounding-box values: half to even.
func round(v float64) float64 { return math.RoundToEven(v) }
