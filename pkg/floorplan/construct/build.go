// Package construct assembles a [floorplan.FPInfo] from circuit data.
//
// Construction runs in a fixed order and any error aborts the whole build:
//
//  1. load blocks, terminals and nets, derive the outline, map terminals
//  2. assign layers when the block data carries none
//  3. fix preplaced blocks when the block data does not flag them
//  4. optionally inject a 1×1 virtual block
//  5. replay a prior floorplan (full placement, or layers only)
//  6. discretize onto the grid and create the FPInfo
//  7. build nets, the adjacency matrix and alignment partners
package construct

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackplan/pkg/circuit"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/floorplan"
)

// VirtualBlockName is the name of the injected virtual block.
const VirtualBlockName = "virtual_block"

// NetWeight is the weight given to every net read from disk.
const NetWeight = 1.0

// Config controls construction. Zero values are not defaulted here; callers
// are expected to validate through pipeline.Options.
type Config struct {
	NumGridX      int
	NumGridY      int
	NumLayer      int
	NumPreplaced  int
	NumAlignment  int
	AlignmentRate float64
	AlignmentSort string

	AddVirtualBlock bool
	// ReadFP replays the circuit's prior floorplan onto movable blocks.
	ReadFP bool
	// SetZOnly restricts the replay to layers.
	SetZOnly bool

	Logger *log.Logger
}

// Result is a constructed floorplan plus its partner table.
type Result struct {
	FPInfo   *floorplan.FPInfo
	Partners []PartnerRow
}

// Build loads circuit name from root and assembles it.
func Build(root, name string, load circuit.LoadOptions, cfg Config) (*Result, error) {
	c, err := circuit.Load(root, name, load)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var placements map[string]circuit.Placement
	if cfg.ReadFP {
		if placements, err = circuit.LoadPlacements(root, name); err != nil {
			return nil, fmt.Errorf("load floorplan: %w", err)
		}
	}
	return Assemble(c, placements, cfg)
}

// Assemble builds an FPInfo from an already loaded circuit. c is not
// modified, so a cached circuit can be assembled repeatedly.
func Assemble(c *circuit.Circuit, placements map[string]circuit.Placement, cfg Config) (*Result, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if cfg.NumLayer < 1 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "num_layer must be at least 1, got %d", cfg.NumLayer)
	}
	records := slices.Clone(c.Blocks)

	if needsLayers(records) {
		area, err := AssignLayers(records, cfg.NumLayer)
		if err != nil {
			return nil, fmt.Errorf("assign layers: %w", err)
		}
		logger.Info("assigned layers", "layers", cfg.NumLayer, "area", area)
	}
	for _, r := range records {
		if r.Z < 0 || r.Z >= cfg.NumLayer {
			return nil, errors.New(errors.ErrCodeInvalidInput, "block %s is on layer %d, want [0, %d)", r.Name, r.Z, cfg.NumLayer)
		}
	}

	if needsPreplaced(records) {
		if err := PlacePreplaced(records, cfg.NumPreplaced, c.OutlineWidth, c.OutlineHeight, cfg.NumGridX, cfg.NumGridY); err != nil {
			return nil, fmt.Errorf("preplace: %w", err)
		}
		logger.Info("constructed preplaced modules", "count", cfg.NumPreplaced)
	}

	if cfg.AddVirtualBlock {
		records = append(records, circuit.BlockRecord{
			Name: VirtualBlockName, Type: floorplan.TypeVirtual,
			W: 1, H: 1, RealW: 1, RealH: 1,
			HasXY: true, HasZ: true, HasPreplaced: true,
			Virtual: true,
		})
		logger.Debug("added virtual block")
	}

	blocks, err := newBlocks(records, placements, cfg, logger)
	if err != nil {
		return nil, err
	}
	terminals := make([]*floorplan.Terminal, len(c.Terminals))
	for i, t := range c.Terminals {
		terminals[i] = floorplan.NewTerminal(t.X, t.Y, t.Name)
	}

	blocks, terminals, _, _, err = floorplan.Discretize(blocks, terminals, cfg.NumGridX, cfg.NumGridY, c.OutlineWidth, c.OutlineHeight)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "discretize")
	}

	fp, err := floorplan.New(blocks, terminals, c.OutlineWidth, c.OutlineHeight, cfg.NumGridX, cfg.NumGridY)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDuplicateName, err, "circuit %s", c.Name)
	}
	fp.NumLayer = cfg.NumLayer
	logger.Info("created entities", "blocks", fp.BlockNum(), "movable", fp.MovableBlockNum(), "terminals", fp.TerminalNum())

	replayNets := cfg.ReadFP && !cfg.SetZOnly
	for i, names := range c.Nets {
		n, err := fp.AddNetByNames(names, NetWeight, replayNets)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnknownConnector, err, "net %d", i)
		}
		n.InitLayerNumPin(cfg.NumLayer)
		if replayNets {
			n.FillLayerNumPinWithFP(fp)
		}
	}
	if err := fp.BuildAdjacency(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "adjacency")
	}
	logger.Info("built nets", "nets", fp.NetNum())

	if _, err := BuildPartners(fp, cfg.NumAlignment, cfg.AlignmentSort, cfg.AlignmentRate); err != nil {
		return nil, fmt.Errorf("partners: %w", err)
	}
	table := PartnerTable(fp)
	logger.Info("built alignment partners", "pairs", len(table), "groups", fp.NumAlignmentGroups())

	return &Result{FPInfo: fp, Partners: table}, nil
}

func newBlocks(records []circuit.BlockRecord, placements map[string]circuit.Placement, cfg Config, logger *log.Logger) ([]*floorplan.Block, error) {
	blocks := make([]*floorplan.Block, 0, len(records))
	perLayer := make([]int, cfg.NumLayer)

	for _, r := range records {
		if r.Preplaced {
			if !r.HasXY {
				return nil, errors.New(errors.ErrCodeMissingField, "preplaced block %s has no position", r.Name)
			}
			blocks = append(blocks, floorplan.NewBlock(r.X, r.Y, r.Z, r.W, r.H, r.RealW, r.RealH, r.Name, r.Type, true, r.Virtual))
			continue
		}

		b := floorplan.NewBlock(0, 0, r.Z, r.W, r.H, r.RealW, r.RealH, r.Name, r.Type, false, r.Virtual)
		if p, ok := placements[r.Name]; ok && cfg.ReadFP {
			if p.Z < 0 || p.Z >= cfg.NumLayer {
				return nil, errors.New(errors.ErrCodeInvalidInput, "floorplan puts block %s on layer %d, want [0, %d)", r.Name, p.Z, cfg.NumLayer)
			}
			if cfg.SetZOnly {
				b.SetZ(p.Z)
				perLayer[p.Z]++
			} else {
				b.SetXYZ(p.X, p.Y, p.Z)
			}
		}
		blocks = append(blocks, b)
	}

	if cfg.ReadFP && cfg.SetZOnly {
		logger.Info("replayed layers", "per_layer", perLayer)
	}
	return blocks, nil
}
