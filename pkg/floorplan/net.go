package floorplan

import (
	"fmt"
	"math"
)

// Net is a weighted hyperedge over blocks and terminals.
//
// The working bounding box (XMin, XMax, YMin, YMax) always reflects exactly
// the connectors placed so far: fixed connectors (preplaced blocks and
// terminals) from construction, replayed movable blocks when the net was
// built from a prior floorplan, plus every block passed to [Net.Update]
// since the last [Net.Reset].
type Net struct {
	// ID is the index of the net inside its FPInfo.
	ID int

	weight float64
	readFP bool

	// connectors is the constructor list; pins is the auxiliary list filled
	// by AddConnector once entities are indexed.
	connectors []Connector
	pins       []Connector

	NumPreplacedFixedConnector int
	NumPlacedConnector         int

	initXMin, initXMax, initYMin, initYMax float64
	XMin, XMax, YMin, YMax                 float64

	pinLayer []int
}

// NewNet builds net id over connectors, registers it on every connector and
// seeds the bounding box from the fixed connectors. With readFP set, the
// centers of movable blocks are folded in as well because their positions
// are already known from a replayed floorplan.
func NewNet(a Arena, id int, connectors []Connector, weight float64, readFP bool) (*Net, error) {
	n := &Net{
		ID:         id,
		weight:     weight,
		readFP:     readFP,
		connectors: append([]Connector(nil), connectors...),
	}

	blocks := make([]*Block, len(connectors))
	terminals := make([]*Terminal, len(connectors))
	for i, c := range connectors {
		switch c.Kind {
		case KindBlock:
			if blocks[i] = a.Block(c.Index); blocks[i] == nil {
				return nil, fmt.Errorf("net %d: unknown %s", id, c)
			}
		case KindTerminal:
			if terminals[i] = a.Terminal(c.Index); terminals[i] == nil {
				return nil, fmt.Errorf("net %d: unknown %s", id, c)
			}
		default:
			return nil, fmt.Errorf("net %d: invalid connector kind %s", id, c.Kind)
		}
	}

	for i := range connectors {
		if b := blocks[i]; b != nil {
			b.addNet(id)
			if b.Preplaced {
				n.NumPreplacedFixedConnector++
			}
		} else {
			terminals[i].addNet(id)
			n.NumPreplacedFixedConnector++
		}
	}

	n.initXMin, n.initXMax = math.Inf(1), math.Inf(-1)
	n.initYMin, n.initYMax = math.Inf(1), math.Inf(-1)

	if n.NumPreplacedFixedConnector > 0 {
		for i := range connectors {
			if b := blocks[i]; b != nil {
				if b.Preplaced {
					n.foldInit(b.Center())
				}
			} else {
				n.foldInit(terminals[i].Position())
			}
		}
		n.roundInit()
	}

	if readFP {
		for _, b := range blocks {
			if b != nil && !b.Preplaced {
				n.foldInit(b.Center())
			}
		}
		n.roundInit()
	}

	n.Reset()
	return n, nil
}

func (n *Net) foldInit(x, y float64) {
	n.initXMin = math.Min(n.initXMin, x)
	n.initXMax = math.Max(n.initXMax, x)
	n.initYMin = math.Min(n.initYMin, y)
	n.initYMax = math.Max(n.initYMax, y)
}

func (n *Net) roundInit() {
	n.initXMin, n.initXMax = round(n.initXMin), round(n.initXMax)
	n.initYMin, n.initYMax = round(n.initYMin), round(n.initYMax)
}

// Weight returns the static net weight.
func (n *Net) Weight() float64 { return n.weight }

// Connectors returns the connectors the net was constructed with.
func (n *Net) Connectors() []Connector { return n.connectors }

// Pins returns the auxiliary connector list filled by [Net.AddConnector].
func (n *Net) Pins() []Connector { return n.pins }

// Degree returns the number of connectors on the net.
func (n *Net) Degree() int { return len(n.connectors) }

// ReadFP reports whether the net was resolved from a prior floorplan.
func (n *Net) ReadFP() bool { return n.readFP }

// Reset restores the working box to its construction-time state.
func (n *Net) Reset() {
	if n.NumPreplacedFixedConnector > 0 || n.readFP {
		n.XMin, n.XMax, n.YMin, n.YMax = n.initXMin, n.initXMax, n.initYMin, n.initYMax
		n.NumPlacedConnector = n.NumPreplacedFixedConnector
		return
	}
	n.XMin, n.XMax = math.Inf(1), math.Inf(-1)
	n.YMin, n.YMax = math.Inf(1), math.Inf(-1)
	n.NumPlacedConnector = 0
}

// Update folds a newly placed movable block into the working box.
// Passing a preplaced block is a caller bug and panics.
func (n *Net) Update(b *Block) {
	if b.Preplaced {
		panic(fmt.Sprintf("floorplan: net %d updated with preplaced block %q", n.ID, b.Name))
	}
	n.NumPlacedConnector++
	cx, cy := b.Center()
	n.XMin = round(math.Min(n.XMin, cx))
	n.XMax = round(math.Max(n.XMax, cx))
	n.YMin = round(math.Min(n.YMin, cy))
	n.YMax = round(math.Max(n.YMax, cy))
}

// Resolved reports whether at least one connector has contributed geometry.
func (n *Net) Resolved() bool {
	return !math.IsInf(n.XMin, 1)
}

// CalcHPWL returns the half-perimeter wirelength of the working box.
// An unresolved net has zero wirelength instead of failing, so callers that
// must distinguish "no geometry yet" from a zero-length net check
// [Net.Resolved] first.
func (n *Net) CalcHPWL() float64 {
	sx, sy := n.CalcStride()
	return sx + sy
}

// CalcStride returns the clamped x and y spans of the working box.
func (n *Net) CalcStride() (float64, float64) {
	return math.Max(n.XMax-n.XMin, 0), math.Max(n.YMax-n.YMin, 0)
}

// InitLayerNumPin allocates a zeroed pin counter per layer.
func (n *Net) InitLayerNumPin(numLayer int) {
	n.pinLayer = make([]int, numLayer)
}

// AddLayerNumPin counts one pin on layer.
func (n *Net) AddLayerNumPin(layer int) {
	n.pinLayer[layer]++
}

// LayerNumPin returns the per-layer pin counts.
func (n *Net) LayerNumPin() []int { return n.pinLayer }

// IsInitStatus reports whether no pin has been counted on any layer.
func (n *Net) IsInitStatus() bool {
	for _, c := range n.pinLayer {
		if c != 0 {
			return false
		}
	}
	return true
}

// FillLayerNumPinWithFP counts the layer of every movable block connector.
// It is used when the whole floorplan is known up front.
func (n *Net) FillLayerNumPinWithFP(a Arena) {
	for _, c := range n.connectors {
		if c.Kind != KindBlock {
			continue
		}
		if b := a.Block(c.Index); b != nil && !b.Preplaced {
			n.AddLayerNumPin(b.Z)
		}
	}
}

// IsCut reports whether the net needs a via: pins sit on more than one
// layer, or a fixed connector (anchored on layer 0) exists while the only
// layer holding pins is not layer 0.
func (n *Net) IsCut() bool {
	layers := 0
	for _, c := range n.pinLayer {
		if c > 0 {
			layers++
		}
		if layers > 1 {
			return true
		}
	}
	return n.NumPreplacedFixedConnector > 0 && layers == 1 && n.pinLayer[0] == 0
}

// AddConnector appends c to the auxiliary connector list. The connector must
// already carry an index assigned by its FPInfo.
func (n *Net) AddConnector(c Connector) error {
	if c.Index < 0 {
		return fmt.Errorf("net %d: connector %s has no index", n.ID, c)
	}
	if c.Kind != KindBlock && c.Kind != KindTerminal {
		return fmt.Errorf("net %d: invalid connector kind %s", n.ID, c.Kind)
	}
	n.pins = append(n.pins, c)
	return nil
}

func (n *Net) String() string {
	return fmt.Sprintf("Net(x_min=%v, x_max=%v, y_min=%v, y_max=%v, num_placed_connector=%d)",
		n.XMin, n.XMax, n.YMin, n.YMax, n.NumPlacedConnector)
}
