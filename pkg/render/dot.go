package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/stackplan/pkg/snapshot"
)

// Options configures the DOT graph.
type Options struct {
	// Terminals includes terminals and their net edges.
	Terminals bool
	// Partners draws alignment pairs.
	Partners bool
	// Layer restricts blocks to one layer. Negative shows every layer.
	Layer int
	// Scale is the number of points per grid cell. Defaults to 8.
	Scale float64
}

// DefaultOptions shows everything at the default scale.
func DefaultOptions() Options {
	return Options{Terminals: true, Partners: true, Layer: -1, Scale: 8}
}

var layerColors = []string{"#a6cee3", "#b2df8a", "#fdbf6f", "#cab2d6", "#fb9a99", "#ffff99"}

// LayerColor returns the fill colour used for layer z.
func LayerColor(z int) string {
	if z < 0 {
		z = -z
	}
	return layerColors[z%len(layerColors)]
}

// ToDOT converts s to Graphviz DOT.
func ToDOT(s *snapshot.Snapshot, opts Options) string {
	scale := opts.Scale
	if scale <= 0 {
		scale = 8
	}
	inch := func(cells int) float64 { return float64(cells) * scale / 72 }
	pos := func(x, y float64) string { return fmt.Sprintf("%.2f,%.2f!", x*scale, y*scale) }

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "graph %q {\n", s.Circuit)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  node [shape=box, style=filled, fixedsize=true, fontsize=8];\n")
	buf.WriteString("  edge [color=\"#00000040\"];\n")
	fmt.Fprintf(&buf, "  outline [shape=box, style=dashed, label=\"\", width=%.2f, height=%.2f, pos=%q];\n",
		inch(s.NumGridX), inch(s.NumGridY), pos(float64(s.NumGridX)/2, float64(s.NumGridY)/2))
	buf.WriteString("\n")

	shown := make(map[string]bool, len(s.Blocks)+len(s.Terminals))
	for _, b := range s.Blocks {
		if opts.Layer >= 0 && b.Z != opts.Layer {
			continue
		}
		shown[b.Name] = true
		attrs := []string{
			fmt.Sprintf("label=%q", b.Name),
			fmt.Sprintf("width=%.2f", inch(b.W)),
			fmt.Sprintf("height=%.2f", inch(b.H)),
			fmt.Sprintf("pos=%q", pos(float64(b.X)+float64(b.W)/2, float64(b.Y)+float64(b.H)/2)),
			fmt.Sprintf("fillcolor=%q", LayerColor(b.Z)),
		}
		switch {
		case b.Virtual:
			attrs = append(attrs, `style="filled,dotted"`, `label=""`)
		case b.Preplaced:
			attrs = append(attrs, "penwidth=2")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", b.Name, strings.Join(attrs, ", "))
	}
	if opts.Terminals {
		for _, t := range s.Terminals {
			shown[t.Name] = true
			fmt.Fprintf(&buf, "  %q [shape=point, width=0.05, xlabel=%q, pos=%q];\n",
				t.Name, t.Name, pos(float64(t.X), float64(t.Y)))
		}
	}

	buf.WriteString("\n")
	for _, n := range s.Nets {
		var members []string
		for _, c := range n.Connectors {
			if shown[c] {
				members = append(members, c)
			}
		}
		switch len(members) {
		case 0, 1:
			continue
		case 2:
			fmt.Fprintf(&buf, "  %q -- %q;\n", members[0], members[1])
		default:
			hub := fmt.Sprintf("net%d", n.ID)
			fmt.Fprintf(&buf, "  %q [shape=point, width=0.02, label=\"\"];\n", hub)
			for _, m := range members {
				fmt.Fprintf(&buf, "  %q -- %q;\n", hub, m)
			}
		}
	}

	if opts.Partners {
		for _, p := range s.Partners {
			if !shown[p.Blk0] || !shown[p.Blk1] {
				continue
			}
			fmt.Fprintf(&buf, "  %q -- %q [style=dashed, color=red, penwidth=1.5, label=\"g%d\", fontsize=6];\n",
				p.Blk0, p.Blk1, p.AlignmentGroup)
		}
	}

	buf.WriteString("}\n")
	return buf.String()
}
