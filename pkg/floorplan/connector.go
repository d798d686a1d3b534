package floorplan

import "fmt"

// ConnectorKind tags what a [Connector] refers to.
type ConnectorKind uint8

const (
	KindBlock ConnectorKind = iota
	KindTerminal
)

// String implements fmt.Stringer.
func (k ConnectorKind) String() string {
	switch k {
	case KindBlock:
		return "block"
	case KindTerminal:
		return "terminal"
	default:
		return fmt.Sprintf("ConnectorKind(%d)", uint8(k))
	}
}

// Connector is a lightweight reference from a net to one of its pins.
// Index is the global entity index.
type Connector struct {
	Kind  ConnectorKind
	Index int
}

// BlockConnector returns a connector referring to the block at index i.
func BlockConnector(i int) Connector { return Connector{Kind: KindBlock, Index: i} }

// TerminalConnector returns a connector referring to the terminal at index i.
func TerminalConnector(i int) Connector { return Connector{Kind: KindTerminal, Index: i} }

func (c Connector) String() string {
	return fmt.Sprintf("%s(%d)", c.Kind, c.Index)
}

// Arena resolves connectors to entities. [FPInfo] is the canonical implementation.
type Arena interface {
	// Block returns the block with global index i, or nil.
	Block(i int) *Block
	// Terminal returns the terminal with global index i, or nil.
	Terminal(i int) *Terminal
}
