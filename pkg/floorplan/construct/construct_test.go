package construct

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/stackplan/pkg/circuit"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/floorplan"
)

func rec(name string, w, h float64) circuit.BlockRecord {
	return circuit.BlockRecord{Name: name, W: w, H: h, RealW: w, RealH: h, Type: floorplan.TypeHard}
}

func TestAssignLayers(t *testing.T) {
	records := []circuit.BlockRecord{
		rec("e", 1, 1), rec("d", 2, 2), rec("c", 2, 2), rec("b", 3, 3), rec("a", 4, 4),
	}
	area, err := AssignLayers(records, 2)
	require.NoError(t, err)
	assert.Equal(t, []float64{17, 17}, area)

	z := map[string]int{}
	for _, r := range records {
		assert.True(t, r.HasZ)
		z[r.Name] = r.Z
	}
	assert.Equal(t, map[string]int{"a": 0, "b": 1, "c": 1, "d": 1, "e": 0}, z)
}

func TestAssignLayersBalance(t *testing.T) {
	records := []circuit.BlockRecord{
		rec("a", 5, 1), rec("b", 4, 1), rec("c", 3, 1), rec("d", 3, 1), rec("e", 2, 1), rec("f", 1, 1),
	}
	area, err := AssignLayers(records, 2)
	require.NoError(t, err)

	// Greedy stays within one block of the best split (9 vs 9).
	diff := area[0] - area[1]
	if diff < 0 {
		diff = -diff
	}
	assert.LessOrEqual(t, diff, 5.0)
}

func TestAssignLayersSingleLayer(t *testing.T) {
	records := []circuit.BlockRecord{rec("a", 1, 1), rec("b", 2, 2)}
	area, err := AssignLayers(records, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{5}, area)

	_, err = AssignLayers(records, 0)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig))
}

func TestPlacePreplaced(t *testing.T) {
	v := rec("v", 9, 9)
	v.Virtual = true
	records := []circuit.BlockRecord{rec("a", 6, 4), rec("b", 5, 5), rec("c", 3, 3), rec("d", 1, 1), v}

	require.NoError(t, PlacePreplaced(records, 3, 10, 10, 10, 10))

	byName := map[string]circuit.BlockRecord{}
	for _, r := range records {
		assert.True(t, r.HasPreplaced)
		byName[r.Name] = r
	}
	assert.True(t, byName["b"].Preplaced)
	assert.Equal(t, [2]float64{0, 0}, [2]float64{byName["b"].X, byName["b"].Y})
	assert.True(t, byName["a"].Preplaced)
	assert.Equal(t, [2]float64{0, 5}, [2]float64{byName["a"].X, byName["a"].Y})
	assert.True(t, byName["c"].Preplaced)
	assert.Equal(t, [2]float64{6, 5}, [2]float64{byName["c"].X, byName["c"].Y})
	assert.False(t, byName["d"].Preplaced)
	assert.False(t, byName["v"].Preplaced)
}

func TestPlacePreplacedErrors(t *testing.T) {
	records := []circuit.BlockRecord{rec("a", 5, 5), rec("b", 1, 1)}

	err := PlacePreplaced(records, 3, 10, 10, 10, 10)
	assert.True(t, errors.Is(err, errors.ErrCodeInsufficientBlocks), "got %v", err)

	err = PlacePreplaced(records, 1, 4, 4, 4, 4)
	assert.True(t, errors.Is(err, errors.ErrCodeOutlineOverflow), "got %v", err)

	require.NoError(t, PlacePreplaced(records, 0, 4, 4, 4, 4))

	err = PlacePreplaced(records, 1, 4, 4, 0, 4)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
	assert.False(t, records[0].Preplaced)
}

func TestPlacePreplacedDisjointOnGrid(t *testing.T) {
	// 16 units round to 2 cells, but x=32 would round to 3.
	records := []circuit.BlockRecord{rec("a", 16, 10), rec("b", 16, 10), rec("c", 16, 10), rec("d", 60, 10), rec("e", 30, 30)}
	require.NoError(t, PlacePreplaced(records, 5, 100, 100, 10, 10))

	var blocks []*floorplan.Block
	for _, r := range records {
		require.True(t, r.Preplaced, r.Name)
		blocks = append(blocks, floorplan.NewBlock(r.X, r.Y, 0, r.W, r.H, r.RealW, r.RealH, r.Name, r.Type, true, false))
	}
	_, _, _, _, err := floorplan.Discretize(blocks, nil, 10, 10, 100, 100)
	require.NoError(t, err)

	for i, a := range blocks {
		assert.GreaterOrEqual(t, a.GridX, 0, a.Name)
		assert.GreaterOrEqual(t, a.GridY, 0, a.Name)
		assert.LessOrEqual(t, a.GridX+a.GridW, 10, a.Name)
		assert.LessOrEqual(t, a.GridY+a.GridH, 10, a.Name)
		for _, b := range blocks[i+1:] {
			overlap := a.GridX < b.GridX+b.GridW && b.GridX < a.GridX+a.GridW &&
				a.GridY < b.GridY+b.GridH && b.GridY < a.GridY+a.GridH
			assert.False(t, overlap, "%s [%d,%d)x[%d,%d) overlaps %s [%d,%d)x[%d,%d)",
				a.Name, a.GridX, a.GridX+a.GridW, a.GridY, a.GridY+a.GridH,
				b.Name, b.GridX, b.GridX+b.GridW, b.GridY, b.GridY+b.GridH)
		}
	}
}

func gridBlock(name string, w, h int, preplaced bool) *floorplan.Block {
	b := floorplan.NewBlock(0, 0, 0, float64(w), float64(h), float64(w), float64(h), name, floorplan.TypeHard, preplaced, false)
	b.GridW, b.GridH = w, h
	return b
}

func partnerInfo(t *testing.T) *floorplan.FPInfo {
	t.Helper()
	v := floorplan.NewBlock(0, 0, 0, 1, 1, 1, 1, "V", floorplan.TypeVirtual, false, true)
	v.GridW, v.GridH = 1, 1
	blocks := []*floorplan.Block{
		gridBlock("D", 1, 1, false),
		gridBlock("C", 2, 2, false),
		gridBlock("P", 8, 8, true),
		gridBlock("B", 3, 3, false),
		gridBlock("A", 4, 4, false),
		v,
	}
	fp, err := floorplan.New(blocks, nil, 10, 10, 10, 10)
	require.NoError(t, err)
	return fp
}

func TestBuildPartnersOnePerAnchor(t *testing.T) {
	fp := partnerInfo(t)
	pairs, err := BuildPartners(fp, 1, SortArea, 0.5)
	require.NoError(t, err)
	require.Len(t, pairs, 2)

	rows := PartnerTable(fp)
	assert.Equal(t, []PartnerRow{
		{Blk0: "A", Blk1: "B", AlignmentArea: 4.5, AlignmentGroup: 0},
		{Blk0: "C", Blk1: "D", AlignmentArea: 0.5, AlignmentGroup: 1},
	}, rows)
	assert.Equal(t, SortArea, fp.AlignmentSort)

	_, ok := fp.AlignmentGroup(fp.BlockByName("P").Index)
	assert.False(t, ok, "preplaced blocks are never partnered")
	_, ok = fp.AlignmentGroup(fp.BlockByName("V").Index)
	assert.False(t, ok, "virtual blocks are never partnered")
}

func TestBuildPartnersSharedAnchor(t *testing.T) {
	fp := partnerInfo(t)
	_, err := BuildPartners(fp, 2, SortArea, 1)
	require.NoError(t, err)

	groups := fp.Name2AlignmentGroup()
	assert.Equal(t, map[string]int{"A": 0, "B": 0, "C": 0}, groups)
	assert.Equal(t, 1, fp.NumAlignmentGroups())
	assert.Len(t, fp.BlockByName("A").Partners, 2)

	rows := PartnerTable(fp)
	require.Len(t, rows, 2)
	assert.Equal(t, "B", rows[0].Blk1)
	assert.Equal(t, "C", rows[1].Blk1)
	assert.Equal(t, 4.0, rows[1].AlignmentArea)
}

func TestBuildPartnersSortKeys(t *testing.T) {
	fp := partnerInfo(t)
	_, err := BuildPartners(fp, 0, SortName, 1)
	require.NoError(t, err)
	assert.Empty(t, fp.Partners())

	fp = partnerInfo(t)
	_, err = BuildPartners(fp, 1, SortName, 1)
	require.NoError(t, err)
	rows := PartnerTable(fp)
	require.Len(t, rows, 2)
	assert.Equal(t, PartnerRow{Blk0: "A", Blk1: "B", AlignmentArea: 9, AlignmentGroup: 0}, rows[0])

	_, err = BuildPartners(partnerInfo(t), 1, "color", 1)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func testCircuit() *circuit.Circuit {
	return &circuit.Circuit{
		Name:   "tiny",
		Blocks: []circuit.BlockRecord{rec("a", 4, 4), rec("b", 2, 2), rec("c", 2, 2)},
		Terminals: []circuit.TerminalRecord{
			{Name: "p1", X: 0, Y: 0},
			{Name: "p2", X: 8, Y: 8},
		},
		Nets:          [][]string{{"a", "b", "p1"}, {"b", "c"}},
		OutlineWidth:  8,
		OutlineHeight: 8,
	}
}

func testConfig() Config {
	return Config{
		NumGridX: 8, NumGridY: 8,
		NumLayer:        2,
		NumPreplaced:    1,
		NumAlignment:    1,
		AlignmentRate:   1,
		AlignmentSort:   SortArea,
		AddVirtualBlock: true,
	}
}

func TestAssemble(t *testing.T) {
	c := testCircuit()
	res, err := Assemble(c, nil, testConfig())
	require.NoError(t, err)
	fp := res.FPInfo

	assert.Equal(t, 4, fp.BlockNum())
	assert.Equal(t, 3, fp.MovableBlockNum())
	assert.Equal(t, 2, fp.TerminalNum())
	assert.Equal(t, 2, fp.NetNum())
	assert.Equal(t, 2, fp.NumLayer)

	a := fp.Blocks()[0]
	assert.Equal(t, "a", a.Name)
	assert.True(t, a.Preplaced)
	assert.Equal(t, 0, a.Z)

	v := fp.BlockByName(VirtualBlockName)
	require.NotNil(t, v)
	assert.True(t, v.Virtual)
	assert.Equal(t, 1, v.GridW)
	assert.Equal(t, fp.BlockNum()-1, v.Index)

	m := fp.Adjacency()
	require.NotNil(t, m)
	assert.Equal(t, 6, m.Dim())
	b, cc := fp.BlockByName("b"), fp.BlockByName("c")
	assert.Equal(t, 1.0, m.At(b.Index, cc.Index))
	assert.Equal(t, m.At(cc.Index, b.Index), m.At(b.Index, cc.Index))
	assert.Equal(t, 0.0, m.At(a.Index, cc.Index))

	for _, n := range fp.Nets() {
		assert.Len(t, n.LayerNumPin(), 2)
		assert.Equal(t, n.Degree(), len(n.Pins()))
	}

	assert.Equal(t, []PartnerRow{{Blk0: "b", Blk1: "c", AlignmentArea: 4, AlignmentGroup: 0}}, res.Partners)

	assert.False(t, c.Blocks[0].HasZ, "input circuit must not be modified")
	assert.Len(t, c.Blocks, 3)
}

func TestAssembleErrors(t *testing.T) {
	t.Run("unknown connector", func(t *testing.T) {
		c := testCircuit()
		c.Nets = append(c.Nets, []string{"a", "ghost"})
		_, err := Assemble(c, nil, testConfig())
		assert.True(t, errors.Is(err, errors.ErrCodeUnknownConnector), "got %v", err)
	})

	t.Run("insufficient blocks", func(t *testing.T) {
		cfg := testConfig()
		cfg.NumPreplaced = 4
		_, err := Assemble(testCircuit(), nil, cfg)
		assert.True(t, errors.Is(err, errors.ErrCodeInsufficientBlocks), "got %v", err)
	})

	t.Run("preplaced without position", func(t *testing.T) {
		c := testCircuit()
		for i := range c.Blocks {
			c.Blocks[i].HasZ, c.Blocks[i].HasPreplaced = true, true
		}
		c.Blocks[0].Preplaced = true
		_, err := Assemble(c, nil, testConfig())
		assert.True(t, errors.Is(err, errors.ErrCodeMissingField), "got %v", err)
	})

	t.Run("layer out of range", func(t *testing.T) {
		c := testCircuit()
		for i := range c.Blocks {
			c.Blocks[i].HasZ = true
		}
		c.Blocks[1].Z = 5
		_, err := Assemble(c, nil, testConfig())
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput), "got %v", err)
	})

	t.Run("bad grid", func(t *testing.T) {
		cfg := testConfig()
		cfg.NumGridX = 0
		_, err := Assemble(testCircuit(), nil, cfg)
		assert.True(t, errors.Is(err, errors.ErrCodeInvalidConfig), "got %v", err)
	})
}

func TestAssembleReplay(t *testing.T) {
	placements := map[string]circuit.Placement{"b": {X: 4, Y: 4, Z: 0}}

	cfg := testConfig()
	cfg.ReadFP = true
	res, err := Assemble(testCircuit(), placements, cfg)
	require.NoError(t, err)
	b := res.FPInfo.BlockByName("b")
	assert.True(t, b.Placed)
	assert.Equal(t, 4, b.GridX)
	for _, n := range res.FPInfo.Nets() {
		assert.True(t, n.ReadFP())
		assert.False(t, n.IsInitStatus())
	}

	cfg.SetZOnly = true
	res, err = Assemble(testCircuit(), placements, cfg)
	require.NoError(t, err)
	b = res.FPInfo.BlockByName("b")
	assert.False(t, b.Placed)
	assert.Equal(t, 0, b.Z)
	for _, n := range res.FPInfo.Nets() {
		assert.False(t, n.ReadFP())
	}
}

func TestBuildFromDisk(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"tiny.blk.csv": "name,w,h\na,4,4\nb,2,2\nc,2,2\n",
		"tiny.tml.csv": "name,x,y\np1,0,0\np2,8,8\n",
		"tiny.net.csv": "net\n\"['a', 'b', 'p1']\"\n\"['b', 'c']\"\n",
		"tiny.fp.txt":  "b,1,1,2,2,1\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	cfg := testConfig()
	cfg.ReadFP = true
	cfg.SetZOnly = true
	res, err := Build(dir, "tiny", circuit.LoadOptions{AreaUtil: 0.5}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FPInfo.BlockByName("b").Z)
	assert.Equal(t, 4, res.FPInfo.BlockNum())

	_, err = Build(dir, "missing", circuit.LoadOptions{AreaUtil: 0.5}, cfg)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound), "got %v", err)
}
