package floorplan

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrdersPreplacedFirst(t *testing.T) {
	blocks := []*Block{
		gridBlock("m0", 0, 0, 1, 1, false),
		gridBlock("p0", 0, 0, 1, 1, true),
		gridBlock("m1", 0, 0, 1, 1, false),
		gridBlock("p1", 0, 0, 1, 1, true),
	}
	fp := newTestInfo(t, blocks, []*Terminal{gridTerminal("t0", 0, 0)})

	var names []string
	for i, b := range fp.Blocks() {
		names = append(names, b.Name)
		assert.Equal(t, i, b.Index)
	}
	assert.Equal(t, []string{"p0", "p1", "m0", "m1"}, names)
	assert.Equal(t, 4, fp.Terminals()[0].Index)
	assert.Equal(t, 4, fp.BlockNum())
	assert.Equal(t, 1, fp.TerminalNum())
	assert.Equal(t, 2, fp.MovableBlockNum())
	assert.Equal(t, "t0", fp.EntityName(4))
	assert.Nil(t, fp.Block(4))
	assert.NotNil(t, fp.Terminal(4))
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New([]*Block{gridBlock("x", 0, 0, 1, 1, false)}, []*Terminal{gridTerminal("x", 0, 0)}, 1, 1, 1, 1)
	assert.True(t, errors.Is(err, ErrDuplicateName))
}

func TestAddNetUnknownName(t *testing.T) {
	fp := newTestInfo(t, []*Block{gridBlock("a", 0, 0, 1, 1, false)}, nil)
	_, err := fp.AddNetByNames([]string{"a", "ghost"}, 1, false)
	assert.True(t, errors.Is(err, ErrUnknownConnector))
	assert.Equal(t, 0, fp.NetNum())
}

func TestBuildAdjacency(t *testing.T) {
	blocks := []*Block{
		gridBlock("a", 0, 0, 1, 1, false),
		gridBlock("b", 0, 0, 1, 1, false),
		gridBlock("c", 0, 0, 1, 1, false),
	}
	fp := newTestInfo(t, blocks, []*Terminal{gridTerminal("t", 0, 0)})

	_, err := fp.AddNetByNames([]string{"a", "b", "t"}, 1, false)
	require.NoError(t, err)
	_, err = fp.AddNetByNames([]string{"b", "a"}, 3, false)
	require.NoError(t, err)
	_, err = fp.AddNetByNames([]string{"c"}, 5, false)
	require.NoError(t, err)

	require.NoError(t, fp.BuildAdjacency())
	m := fp.Adjacency()
	require.Equal(t, 4, m.Dim())

	for i := 0; i < m.Dim(); i++ {
		for j := 0; j < m.Dim(); j++ {
			assert.Equal(t, m.At(i, j), m.At(j, i), "symmetry at (%d,%d)", i, j)
			assert.GreaterOrEqual(t, m.At(i, j), 0.0)
		}
	}

	// Later nets overwrite shared pairs.
	assert.Equal(t, 3.0, m.At(0, 1))
	assert.Equal(t, 1.0, m.At(0, 3))
	assert.Equal(t, 1.0, m.At(1, 3))
	// A single-connector net leaves an empty row.
	assert.Equal(t, []float64{0, 0, 0, 0}, m.Row(2))
	assert.Empty(t, m.Neighbors(2))
	assert.Equal(t, []int{1, 3}, m.Neighbors(0))

	assert.Equal(t, []Connector{BlockConnector(0), BlockConnector(1), TerminalConnector(3)}, fp.Net(0).Pins())
	assert.Len(t, fp.Net(2).Pins(), 1)
}

func TestBuildAdjacencyEmpty(t *testing.T) {
	fp := newTestInfo(t, nil, nil)
	require.NoError(t, fp.BuildAdjacency())
	assert.Equal(t, 0, fp.Adjacency().Dim())
	assert.Nil(t, fp.Adjacency().Symmetric())
	assert.Equal(t, 0.0, fp.TotalHPWL())
	assert.Equal(t, 0, fp.NumCutNets())
}

func TestSetPartnerGroupsAreTransitive(t *testing.T) {
	var blocks []*Block
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		blocks = append(blocks, gridBlock(name, 0, 0, 2, 2, false))
	}
	fp := newTestInfo(t, blocks, nil)

	require.NoError(t, fp.SetPartner(3, 4, 1)) // d-e
	require.NoError(t, fp.SetPartner(0, 1, 2)) // a-b
	require.NoError(t, fp.SetPartner(1, 2, 2)) // b-c

	groups := fp.Name2AlignmentGroup()
	assert.Equal(t, map[string]int{"d": 0, "e": 0, "a": 1, "b": 1, "c": 1}, groups)
	assert.Equal(t, 2, fp.NumAlignmentGroups())

	_, ok := fp.AlignmentGroup(5)
	assert.False(t, ok, "unpaired block has no group")

	b := fp.BlockByName("b")
	assert.Equal(t, []Partner{{Index: 0, Area: 2}, {Index: 2, Area: 2}}, b.Partners)

	// Linking the groups merges them.
	require.NoError(t, fp.SetPartner(4, 2, 1))
	g0, _ := fp.AlignmentGroup(0)
	g3, _ := fp.AlignmentGroup(3)
	assert.Equal(t, g0, g3)
	assert.Equal(t, 1, fp.NumAlignmentGroups())
}

func TestSetPartnerRejectsInvalidIndices(t *testing.T) {
	fp := newTestInfo(t, []*Block{gridBlock("a", 0, 0, 1, 1, false)}, []*Terminal{gridTerminal("t", 0, 0)})
	assert.True(t, errors.Is(fp.SetPartner(0, 1, 1), ErrNotBlock))
	assert.Error(t, fp.SetPartner(0, 0, 1))
	assert.Empty(t, fp.Partners())
}

func TestAggregates(t *testing.T) {
	blocks := []*Block{
		gridBlock("p", 0, 0, 2, 2, true),
		gridBlock("a", 4, 0, 2, 2, false),
		gridBlock("b", 0, 0, 4, 1, false),
	}
	blocks[2].SetZ(1)
	fp := newTestInfo(t, blocks, nil)
	fp.NumLayer = 2

	n, err := fp.AddNetByNames([]string{"p", "a"}, 2, false)
	require.NoError(t, err)
	n.InitLayerNumPin(2)
	n.Update(fp.BlockByName("a"))
	n.AddLayerNumPin(0)

	m, err := fp.AddNetByNames([]string{"b", "p"}, 1, false)
	require.NoError(t, err)
	m.InitLayerNumPin(2)
	m.AddLayerNumPin(1)

	// Only n has a placed movable block; m still spans the anchor alone.
	assert.Equal(t, 2*4.0, fp.TotalHPWL())
	assert.Equal(t, 1, fp.NumCutNets())
	assert.Equal(t, []float64{8, 4}, fp.LayerArea())
	assert.InDelta(t, 12.0/(100*100), fp.Utilization(), 1e-12)

	fp.ResetNets()
	assert.Equal(t, 0.0, n.CalcHPWL())
}

func TestUtilizationSkipsVirtualAndHalo(t *testing.T) {
	a := NewBlock(0, 0, 0, 6, 6, 4, 4, "a", TypeHard, false, false)
	v := NewBlock(0, 0, 0, 1, 1, 1, 1, "v", TypeVirtual, false, true)
	fp, err := New([]*Block{a, v}, nil, 8, 8, 8, 8)
	require.NoError(t, err)
	assert.InDelta(t, 16.0/64, fp.Utilization(), 1e-12)
}
