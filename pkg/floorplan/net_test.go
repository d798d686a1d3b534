package floorplan

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gridBlock(name string, x, y, w, h int, preplaced bool) *Block {
	b := NewBlock(0, 0, 0, float64(w), float64(h), float64(w), float64(h), name, TypeHard, preplaced, false)
	b.GridX, b.GridY, b.GridW, b.GridH = x, y, w, h
	return b
}

func gridTerminal(name string, x, y int) *Terminal {
	t := NewTerminal(float64(x), float64(y), name)
	t.GridX, t.GridY = x, y
	return t
}

func newTestInfo(t *testing.T, blocks []*Block, terminals []*Terminal) *FPInfo {
	t.Helper()
	fp, err := New(blocks, terminals, 100, 100, 100, 100)
	require.NoError(t, err)
	return fp
}

func TestNetHPWLExample(t *testing.T) {
	a := gridBlock("A", 0, 0, 2, 2, false)
	b := gridBlock("B", 2, 2, 2, 2, false)
	c := gridBlock("C", 10, 10, 4, 4, false)
	term := gridTerminal("T", 0, 0)
	fp := newTestInfo(t, []*Block{a, b, c}, []*Terminal{term})

	n, err := fp.AddNetByNames([]string{"A", "B", "C", "T"}, 1, false)
	require.NoError(t, err)

	assert.Equal(t, 1, n.NumPreplacedFixedConnector)
	assert.Equal(t, 1, n.NumPlacedConnector)
	assert.Equal(t, 0.0, n.CalcHPWL(), "single anchor has no span")

	n.Update(a)
	n.Update(b)
	assert.Equal(t, 6.0, n.CalcHPWL())
	sx, sy := n.CalcStride()
	assert.Equal(t, 3.0, sx)
	assert.Equal(t, 3.0, sy)
	assert.Equal(t, 3, n.NumPlacedConnector)
}

func TestNetFixedConnectorsSharePoint(t *testing.T) {
	p := gridBlock("P", 4, 4, 2, 2, true) // center (5,5)
	term := gridTerminal("T", 5, 5)
	m := gridBlock("M", 0, 0, 2, 2, false)
	fp := newTestInfo(t, []*Block{m, p}, []*Terminal{term})

	n, err := fp.AddNetByNames([]string{"M", "P", "T"}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, 2, n.NumPreplacedFixedConnector)
	assert.Equal(t, 0.0, n.CalcHPWL())
	assert.True(t, n.Resolved())
	assert.Equal(t, 2.0, n.Weight())
}

func TestNetUnresolvedWithoutFixedConnectors(t *testing.T) {
	a := gridBlock("A", 0, 0, 2, 2, false)
	b := gridBlock("B", 6, 0, 2, 2, false)
	fp := newTestInfo(t, []*Block{a, b}, nil)

	n, err := fp.AddNetByNames([]string{"A", "B"}, 1, false)
	require.NoError(t, err)

	assert.False(t, n.Resolved())
	assert.Equal(t, 0.0, n.CalcHPWL())
	assert.True(t, math.IsInf(n.XMin, 1))
	assert.True(t, math.IsInf(n.XMax, -1))
	assert.Equal(t, 0, n.NumPlacedConnector)
	assert.Equal(t, 0.0, n.CalcHPWL())

	n.Update(a)
	assert.Equal(t, 0.0, n.CalcHPWL())
	n.Update(b)
	assert.Equal(t, 6.0, n.CalcHPWL())
}

func TestNetResetThenUpdateCountsAllConnectors(t *testing.T) {
	blocks := []*Block{
		gridBlock("P", 0, 0, 2, 2, true),
		gridBlock("A", 3, 1, 3, 3, false),
		gridBlock("B", 9, 9, 1, 5, false),
	}
	terms := []*Terminal{gridTerminal("T0", 20, 0), gridTerminal("T1", 0, 20)}
	fp := newTestInfo(t, blocks, terms)

	n, err := fp.AddNetByNames([]string{"P", "A", "B", "T0", "T1"}, 1, false)
	require.NoError(t, err)

	for round := 0; round < 2; round++ {
		n.Reset()
		for _, c := range n.Connectors() {
			if b := fp.Block(c.Index); b != nil && !b.Preplaced {
				n.Update(b)
			}
		}
		assert.Equal(t, n.Degree(), n.NumPlacedConnector)
	}
}

func TestNetUpdateRoundsAfterFold(t *testing.T) {
	a := gridBlock("A", 0, 0, 3, 3, false) // center (1.5, 1.5)
	fp := newTestInfo(t, []*Block{a}, nil)
	n, err := fp.AddNetByNames([]string{"A"}, 1, false)
	require.NoError(t, err)

	n.Update(a)
	// 1.5 rounds half to even.
	assert.Equal(t, 2.0, n.XMin)
	assert.Equal(t, 2.0, n.XMax)
	assert.Equal(t, 2.0, n.YMin)
	assert.Equal(t, 2.0, n.YMax)
}

func TestNetUpdatePanicsOnPreplaced(t *testing.T) {
	p := gridBlock("P", 0, 0, 2, 2, true)
	fp := newTestInfo(t, []*Block{p}, nil)
	n, err := fp.AddNetByNames([]string{"P"}, 1, false)
	require.NoError(t, err)

	assert.Panics(t, func() { n.Update(p) })
}

func TestNetReadFPResolvesAtConstruction(t *testing.T) {
	a := gridBlock("A", 0, 0, 2, 2, false)
	b := gridBlock("B", 8, 4, 2, 2, false)
	fp := newTestInfo(t, []*Block{a, b}, nil)

	n, err := fp.AddNetByNames([]string{"A", "B"}, 1, true)
	require.NoError(t, err)
	assert.True(t, n.ReadFP())
	assert.Equal(t, 0, n.NumPlacedConnector)
	assert.Equal(t, 12.0, n.CalcHPWL()) // (9-1) + (5-1)

	n.Update(a)
	n.Reset()
	assert.Equal(t, 12.0, n.CalcHPWL())
}

func TestNetIsCut(t *testing.T) {
	tests := []struct {
		name   string
		pins   []int
		fixed  bool
		expect bool
	}{
		{"no pins", []int{0, 0}, false, false},
		{"single layer 0", []int{3, 0}, false, false},
		{"single layer 1 without anchor", []int{0, 2}, false, false},
		{"single layer 1 with anchor", []int{0, 2}, true, true},
		{"single layer 0 with anchor", []int{2, 0}, true, false},
		{"two layers", []int{1, 1}, false, true},
		{"two upper layers", []int{0, 1, 1}, false, true},
		{"anchor only", []int{0, 0}, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &Net{}
			n.InitLayerNumPin(len(tt.pins))
			for layer, c := range tt.pins {
				for i := 0; i < c; i++ {
					n.AddLayerNumPin(layer)
				}
			}
			if tt.fixed {
				n.NumPreplacedFixedConnector = 1
			}
			assert.Equal(t, tt.expect, n.IsCut())
		})
	}
}

func TestNetLayerPins(t *testing.T) {
	a := gridBlock("A", 0, 0, 2, 2, false)
	b := gridBlock("B", 0, 0, 2, 2, false)
	p := gridBlock("P", 0, 0, 2, 2, true)
	b.SetZ(1)
	p.SetZ(1)
	fp := newTestInfo(t, []*Block{a, b, p}, nil)

	n, err := fp.AddNetByNames([]string{"A", "B", "P"}, 1, false)
	require.NoError(t, err)
	n.InitLayerNumPin(2)
	assert.True(t, n.IsInitStatus())

	n.FillLayerNumPinWithFP(fp)
	assert.Equal(t, []int{1, 1}, n.LayerNumPin())
	assert.False(t, n.IsInitStatus())
	assert.True(t, n.IsCut())
}

func TestNetAddConnector(t *testing.T) {
	n := &Net{ID: 3}
	require.NoError(t, n.AddConnector(BlockConnector(0)))
	require.NoError(t, n.AddConnector(TerminalConnector(5)))
	assert.Error(t, n.AddConnector(Connector{Kind: KindBlock, Index: -1}))
	assert.Error(t, n.AddConnector(Connector{Kind: ConnectorKind(9), Index: 1}))
	assert.Equal(t, []Connector{BlockConnector(0), TerminalConnector(5)}, n.Pins())
}

func TestNetRegistersOnConnectors(t *testing.T) {
	a := gridBlock("A", 0, 0, 1, 1, false)
	term := gridTerminal("T", 0, 0)
	fp := newTestInfo(t, []*Block{a}, []*Terminal{term})

	_, err := fp.AddNetByNames([]string{"A", "T"}, 1, false)
	require.NoError(t, err)
	_, err = fp.AddNetByNames([]string{"A"}, 1, false)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1}, a.Nets)
	assert.Equal(t, []int{0}, term.Nets)
}
