// Package pkg holds the stackplan libraries.
//
// A run flows through them in this order:
//
//	circuit        read <name>.blk.csv, .tml.csv, .net.csv (and .fp.txt)
//	   ↓
//	floorplan/construct  layers, preplaced blocks, virtual block, replay,
//	   ↓                 discretization, nets and alignment partners
//	floorplan      the FPInfo arena: blocks, terminals, nets, adjacency
//	   ↓
//	snapshot       a serialisable copy of the FPInfo
//	   ↓
//	render / store DOT and SVG output, MongoDB or in-memory persistence
//
// [pipeline] ties these together with caching ([cache]) and hooks
// ([observability]); [api] serves them over HTTP. Errors carry codes from
// [errors].
package pkg
