// Package floorplan holds the in-memory state of a 3D-stacked chip floorplan.
//
// The package models three entity kinds:
//
//   - [Block]: a placeable rectangle with a grid position, a layer and a
//     real (pre-discretization) size. Blocks are either preplaced (fixed
//     anchors) or movable.
//   - [Terminal]: a fixed I/O pin on layer 0.
//   - [Net]: a hyperedge over blocks and terminals that incrementally tracks
//     the bounding box of its placed connectors.
//
// All entities live in an [FPInfo] arena. Nets and entities refer to each
// other by index only: a [Connector] is a tagged {kind, index} pair and an
// entity lists the indices of its incident nets. Indices are global: blocks
// occupy 0..BlockNum-1 and terminals BlockNum..BlockNum+TerminalNum-1, the
// same numbering used by the adjacency matrix.
//
// # Net geometry
//
// A net's bounding box is computed over connector centers and always holds
// integer values (coordinates are rounded half-to-even after each fold). An
// unresolved box is (+Inf, -Inf, +Inf, -Inf), so [Net.CalcHPWL] degrades to 0
// until at least one connector contributes:
//
//	n := fp.Net(0)
//	n.Reset()
//	for _, b := range movable {
//	    place(b)
//	    n.Update(b)
//	}
//	wl := n.CalcHPWL()
//
// # Concurrency
//
// An FPInfo is single-writer. Parallel environments must each own an
// independently constructed FPInfo.
package floorplan
