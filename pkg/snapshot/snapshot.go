// Package snapshot is the serialisable view of a constructed floorplan.
//
// A [Snapshot] flattens an FPInfo into plain records keyed by name so it can
// be written to disk, stored in MongoDB, returned by the API and rendered
// without rebuilding the floorplan. Snapshots are read-only copies: changes
// to one never reach the FPInfo it was taken from.
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/stackplan/pkg/floorplan"
	"github.com/matzehuels/stackplan/pkg/floorplan/construct"
)

// Block is one block in grid units.
type Block struct {
	Name      string  `json:"name" bson:"name"`
	Type      string  `json:"type" bson:"type"`
	X         int     `json:"x" bson:"x"`
	Y         int     `json:"y" bson:"y"`
	Z         int     `json:"z" bson:"z"`
	W         int     `json:"w" bson:"w"`
	H         int     `json:"h" bson:"h"`
	RealW     float64 `json:"real_w" bson:"real_w"`
	RealH     float64 `json:"real_h" bson:"real_h"`
	Preplaced bool    `json:"preplaced,omitempty" bson:"preplaced,omitempty"`
	Virtual   bool    `json:"virtual,omitempty" bson:"virtual,omitempty"`
	Placed    bool    `json:"placed,omitempty" bson:"placed,omitempty"`
	Group     *int    `json:"alignment_group,omitempty" bson:"alignment_group,omitempty"`
}

// Terminal is one I/O pin in grid units.
type Terminal struct {
	Name string `json:"name" bson:"name"`
	X    int    `json:"x" bson:"x"`
	Y    int    `json:"y" bson:"y"`
}

// Net is one net with its current wirelength state.
type Net struct {
	ID         int      `json:"id" bson:"id"`
	Connectors []string `json:"connectors" bson:"connectors"`
	Weight     float64  `json:"weight" bson:"weight"`
	HPWL       float64  `json:"hpwl" bson:"hpwl"`
	Cut        bool     `json:"cut" bson:"cut"`
	LayerPins  []int    `json:"layer_pins" bson:"layer_pins"`
}

// Stats are floorplan-wide aggregates.
type Stats struct {
	Blocks          int       `json:"blocks" bson:"blocks"`
	MovableBlocks   int       `json:"movable_blocks" bson:"movable_blocks"`
	Terminals       int       `json:"terminals" bson:"terminals"`
	Nets            int       `json:"nets" bson:"nets"`
	CutNets         int       `json:"cut_nets" bson:"cut_nets"`
	HPWL            float64   `json:"hpwl" bson:"hpwl"`
	Utilization     float64   `json:"utilization" bson:"utilization"`
	AlignmentGroups int       `json:"alignment_groups" bson:"alignment_groups"`
	LayerArea       []float64 `json:"layer_area" bson:"layer_area"`
}

// Snapshot is a complete floorplan at one point in time.
type Snapshot struct {
	ID            string    `json:"id" bson:"_id"`
	Circuit       string    `json:"circuit" bson:"circuit"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	OutlineWidth  float64   `json:"outline_width" bson:"outline_width"`
	OutlineHeight float64   `json:"outline_height" bson:"outline_height"`
	NumGridX      int       `json:"num_grid_x" bson:"num_grid_x"`
	NumGridY      int       `json:"num_grid_y" bson:"num_grid_y"`
	NumLayer      int       `json:"num_layer" bson:"num_layer"`
	AlignmentSort string    `json:"alignment_sort,omitempty" bson:"alignment_sort,omitempty"`

	Blocks    []Block                `json:"blocks" bson:"blocks"`
	Terminals []Terminal             `json:"terminals" bson:"terminals"`
	Nets      []Net                  `json:"nets" bson:"nets"`
	Partners  []construct.PartnerRow `json:"partners" bson:"partners"`
	Stats     Stats                  `json:"stats" bson:"stats"`
}

// New captures res under a fresh id.
func New(circuit string, res *construct.Result) *Snapshot {
	fp := res.FPInfo
	s := &Snapshot{
		ID:            uuid.NewString(),
		Circuit:       circuit,
		CreatedAt:     time.Now().UTC(),
		OutlineWidth:  fp.OutlineWidth,
		OutlineHeight: fp.OutlineHeight,
		NumGridX:      fp.NumGridX,
		NumGridY:      fp.NumGridY,
		NumLayer:      fp.NumLayer,
		AlignmentSort: fp.AlignmentSort,
		Blocks:        make([]Block, 0, fp.BlockNum()),
		Terminals:     make([]Terminal, 0, fp.TerminalNum()),
		Nets:          make([]Net, 0, fp.NetNum()),
		Partners:      res.Partners,
		Stats: Stats{
			Blocks:          fp.BlockNum(),
			MovableBlocks:   fp.MovableBlockNum(),
			Terminals:       fp.TerminalNum(),
			Nets:            fp.NetNum(),
			CutNets:         fp.NumCutNets(),
			HPWL:            fp.TotalHPWL(),
			Utilization:     fp.Utilization(),
			AlignmentGroups: fp.NumAlignmentGroups(),
			LayerArea:       fp.LayerArea(),
		},
	}
	if s.Partners == nil {
		s.Partners = []construct.PartnerRow{}
	}

	for _, b := range fp.Blocks() {
		sb := Block{
			Name: b.Name, Type: b.Type,
			X: b.GridX, Y: b.GridY, Z: b.Z, W: b.GridW, H: b.GridH,
			RealW: b.RealW, RealH: b.RealH,
			Preplaced: b.Preplaced, Virtual: b.Virtual, Placed: b.Placed,
		}
		if g, ok := fp.AlignmentGroup(b.Index); ok {
			sb.Group = &g
		}
		s.Blocks = append(s.Blocks, sb)
	}
	for _, t := range fp.Terminals() {
		s.Terminals = append(s.Terminals, Terminal{Name: t.Name, X: t.GridX, Y: t.GridY})
	}
	for _, n := range fp.Nets() {
		s.Nets = append(s.Nets, netView(fp, n))
	}
	return s
}

func netView(fp *floorplan.FPInfo, n *floorplan.Net) Net {
	names := make([]string, 0, n.Degree())
	for _, c := range n.Connectors() {
		names = append(names, fp.EntityName(c.Index))
	}
	pins := n.LayerNumPin()
	if pins == nil {
		pins = []int{}
	}
	return Net{
		ID:         n.ID,
		Connectors: names,
		Weight:     n.Weight(),
		HPWL:       n.CalcHPWL(),
		Cut:        len(pins) > 0 && n.IsCut(),
		LayerPins:  append([]int(nil), pins...),
	}
}

// Block returns the named block.
func (s *Snapshot) Block(name string) (Block, bool) {
	for _, b := range s.Blocks {
		if b.Name == name {
			return b, true
		}
	}
	return Block{}, false
}

// Marshal encodes s as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// Unmarshal decodes a JSON snapshot.
func Unmarshal(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.ID == "" {
		return nil, fmt.Errorf("decode snapshot: missing id")
	}
	return &s, nil
}

// Write encodes s as JSON to w.
func (s *Snapshot) Write(w io.Writer) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Read decodes a JSON snapshot from r.
func Read(r io.Reader) (*Snapshot, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}

// WriteFile writes s to path.
func (s *Snapshot) WriteFile(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// ReadFile reads a snapshot from path.
func ReadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
