// Package render draws floorplan snapshots with Graphviz.
//
// [ToDOT] produces an undirected DOT graph of a snapshot: blocks are boxes
// pinned at their grid centres and sized to their grid footprint, filled by
// layer; terminals are small points; each net is a hub node joined to its
// connectors; alignment partners are dashed red edges. [RenderSVG] lays the
// graph out with neato (positions are pinned, so the picture matches the
// grid) and returns SVG.
//
//	dot := render.ToDOT(snap, render.Options{Terminals: true, Partners: true})
//	svg, err := render.RenderSVG(ctx, dot)
//
// The DOT text can also be saved and processed with external Graphviz tools.
package render
