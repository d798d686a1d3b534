package floorplan

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	// ErrUnknownConnector is returned when a net names an entity that does
	// not exist in the FPInfo.
	ErrUnknownConnector = errors.New("unknown connector")

	// ErrDuplicateName is returned by [New] when two entities share a name.
	// Block and terminal names live in one namespace.
	ErrDuplicateName = errors.New("duplicate entity name")

	// ErrNotBlock is returned by [FPInfo.SetPartner] when an index does not
	// refer to a block.
	ErrNotBlock = errors.New("index does not refer to a block")
)

// PartnerPair is one recorded alignment pair.
type PartnerPair struct {
	Blk0, Blk1 int
	Area       float64
}

// FPInfo is the aggregate root of a floorplan instance. It exclusively owns
// all blocks, terminals and nets plus the structures derived from them.
type FPInfo struct {
	OutlineWidth  float64
	OutlineHeight float64
	NumGridX      int
	NumGridY      int
	CellWidth     float64
	CellHeight    float64
	NumLayer      int
	AlignmentSort string

	blocks    []*Block
	terminals []*Terminal
	nets      []*Net
	byName    map[string]Connector

	adjacency *AdjacencyMatrix

	partners []PartnerPair
	groups   *alignmentGroups
}

// New takes ownership of blocks and terminals and assigns global indices.
// Preplaced blocks are moved ahead of movable ones; relative order inside
// each class is preserved.
func New(blocks []*Block, terminals []*Terminal, outlineW, outlineH float64, numGridX, numGridY int) (*FPInfo, error) {
	ordered := slices.Clone(blocks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Preplaced && !ordered[j].Preplaced
	})

	fp := &FPInfo{
		OutlineWidth:  outlineW,
		OutlineHeight: outlineH,
		NumGridX:      numGridX,
		NumGridY:      numGridY,
		NumLayer:      1,
		blocks:        ordered,
		terminals:     slices.Clone(terminals),
		byName:        make(map[string]Connector, len(blocks)+len(terminals)),
	}
	if numGridX > 0 && numGridY > 0 {
		fp.CellWidth = outlineW / float64(numGridX)
		fp.CellHeight = outlineH / float64(numGridY)
	}

	for i, b := range fp.blocks {
		if _, dup := fp.byName[b.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, b.Name)
		}
		b.Index = i
		fp.byName[b.Name] = BlockConnector(i)
	}
	for i, t := range fp.terminals {
		if _, dup := fp.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, t.Name)
		}
		t.Index = len(fp.blocks) + i
		fp.byName[t.Name] = TerminalConnector(t.Index)
	}
	return fp, nil
}

// BlockNum returns the number of blocks, virtual ones included.
func (fp *FPInfo) BlockNum() int { return len(fp.blocks) }

// TerminalNum returns the number of terminals.
func (fp *FPInfo) TerminalNum() int { return len(fp.terminals) }

// MovableBlockNum returns the number of blocks that are not preplaced.
func (fp *FPInfo) MovableBlockNum() int {
	n := 0
	for _, b := range fp.blocks {
		if !b.Preplaced {
			n++
		}
	}
	return n
}

// NetNum returns the number of nets.
func (fp *FPInfo) NetNum() int { return len(fp.nets) }

// Blocks returns all blocks, preplaced first. Callers must not modify the slice.
func (fp *FPInfo) Blocks() []*Block { return fp.blocks }

// Terminals returns all terminals. Callers must not modify the slice.
func (fp *FPInfo) Terminals() []*Terminal { return fp.terminals }

// Nets returns all nets. Callers must not modify the slice.
func (fp *FPInfo) Nets() []*Net { return fp.nets }

// Net returns the net with index i, or nil.
func (fp *FPInfo) Net(i int) *Net {
	if i < 0 || i >= len(fp.nets) {
		return nil
	}
	return fp.nets[i]
}

// Block returns the block with global index i, or nil.
func (fp *FPInfo) Block(i int) *Block {
	if i < 0 || i >= len(fp.blocks) {
		return nil
	}
	return fp.blocks[i]
}

// Terminal returns the terminal with global index i, or nil.
func (fp *FPInfo) Terminal(i int) *Terminal {
	i -= len(fp.blocks)
	if i < 0 || i >= len(fp.terminals) {
		return nil
	}
	return fp.terminals[i]
}

// Lookup resolves an entity name to its connector.
func (fp *FPInfo) Lookup(name string) (Connector, bool) {
	c, ok := fp.byName[name]
	return c, ok
}

// BlockByName returns the named block, or nil.
func (fp *FPInfo) BlockByName(name string) *Block {
	if c, ok := fp.byName[name]; ok && c.Kind == KindBlock {
		return fp.blocks[c.Index]
	}
	return nil
}

// EntityName returns the name of the entity at global index i.
func (fp *FPInfo) EntityName(i int) string {
	if b := fp.Block(i); b != nil {
		return b.Name
	}
	if t := fp.Terminal(i); t != nil {
		return t.Name
	}
	return ""
}

// AddNet constructs a net over connectors and appends it to the FPInfo.
func (fp *FPInfo) AddNet(connectors []Connector, weight float64, readFP bool) (*Net, error) {
	n, err := NewNet(fp, len(fp.nets), connectors, weight, readFP)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownConnector, err)
	}
	fp.nets = append(fp.nets, n)
	return n, nil
}

// AddNetByNames resolves connector names and calls [FPInfo.AddNet].
func (fp *FPInfo) AddNetByNames(names []string, weight float64, readFP bool) (*Net, error) {
	connectors := make([]Connector, len(names))
	for i, name := range names {
		c, ok := fp.byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in net %d", ErrUnknownConnector, name, len(fp.nets))
		}
		connectors[i] = c
	}
	return fp.AddNet(connectors, weight, readFP)
}

// BuildAdjacency fills the (blocks+terminals)² adjacency matrix from the
// nets and registers every connector on its net's auxiliary list.
//
// Every pair of connectors on a net receives the net weight. When two nets
// share a pair the later net overwrites the earlier weight.
func (fp *FPInfo) BuildAdjacency() error {
	m := NewAdjacencyMatrix(len(fp.blocks) + len(fp.terminals))
	for _, n := range fp.nets {
		cs := n.Connectors()
		for i := range cs {
			for j := i + 1; j < len(cs); j++ {
				m.Set(cs[i].Index, cs[j].Index, n.Weight())
			}
			if err := n.AddConnector(cs[i]); err != nil {
				return err
			}
		}
	}
	fp.adjacency = m
	return nil
}

// Adjacency returns the weighted adjacency matrix, or nil before
// [FPInfo.BuildAdjacency].
func (fp *FPInfo) Adjacency() *AdjacencyMatrix { return fp.adjacency }

// SetPartner records an alignment pair between two blocks. The pair is
// stored on both blocks and joins their alignment groups.
func (fp *FPInfo) SetPartner(idx0, idx1 int, area float64) error {
	b0, b1 := fp.Block(idx0), fp.Block(idx1)
	if b0 == nil || b1 == nil {
		return fmt.Errorf("%w: partner (%d, %d)", ErrNotBlock, idx0, idx1)
	}
	if idx0 == idx1 {
		return fmt.Errorf("block %q cannot partner itself", b0.Name)
	}
	b0.Partners = append(b0.Partners, Partner{Index: idx1, Area: area})
	b1.Partners = append(b1.Partners, Partner{Index: idx0, Area: area})
	fp.partners = append(fp.partners, PartnerPair{Blk0: idx0, Blk1: idx1, Area: area})
	fp.groups = nil
	return nil
}

// Partners returns the recorded alignment pairs in insertion order.
func (fp *FPInfo) Partners() []PartnerPair { return fp.partners }

// AlignmentGroup returns the group of block i. Blocks without partners have
// no group.
func (fp *FPInfo) AlignmentGroup(i int) (int, bool) {
	g, ok := fp.alignment().byBlock[i]
	return g, ok
}

// Name2AlignmentGroup maps every partnered block name to its group id.
func (fp *FPInfo) Name2AlignmentGroup() map[string]int {
	groups := fp.alignment()
	out := make(map[string]int, len(groups.byBlock))
	for idx, g := range groups.byBlock {
		out[fp.blocks[idx].Name] = g
	}
	return out
}

// NumAlignmentGroups returns the number of distinct alignment groups.
func (fp *FPInfo) NumAlignmentGroups() int { return fp.alignment().count }

func (fp *FPInfo) alignment() *alignmentGroups {
	if fp.groups == nil {
		fp.groups = groupPartners(fp.partners)
	}
	return fp.groups
}

// ResetNets calls [Net.Reset] on every net.
func (fp *FPInfo) ResetNets() {
	for _, n := range fp.nets {
		n.Reset()
	}
}

// TotalHPWL returns the weighted sum of net wirelengths.
func (fp *FPInfo) TotalHPWL() float64 {
	var total float64
	for _, n := range fp.nets {
		total += n.Weight() * n.CalcHPWL()
	}
	return total
}

// NumCutNets returns the number of nets that need a via.
func (fp *FPInfo) NumCutNets() int {
	cut := 0
	for _, n := range fp.nets {
		if n.IsCut() {
			cut++
		}
	}
	return cut
}

// Utilization returns the real, halo-free area of all non-virtual blocks
// divided by the outline area.
func (fp *FPInfo) Utilization() float64 {
	outline := fp.OutlineWidth * fp.OutlineHeight
	if outline <= 0 {
		return 0
	}
	var area float64
	for _, b := range fp.blocks {
		if !b.Virtual {
			area += b.RealArea()
		}
	}
	return area / outline
}

// LayerArea returns the total grid area of blocks on each layer.
func (fp *FPInfo) LayerArea() []float64 {
	area := make([]float64, max(fp.NumLayer, 1))
	for _, b := range fp.blocks {
		if b.Z >= 0 && b.Z < len(area) {
			area[b.Z] += b.Area()
		}
	}
	return area
}
