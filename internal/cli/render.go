package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/render"
	"github.com/matzehuels/stackplan/pkg/snapshot"
)

type renderFlags struct {
	output      string
	format      string
	noTerminals bool
	noPartners  bool
	layer       int
	scale       float64
	noCache     bool
}

func (c *CLI) renderCommand() *cobra.Command {
	flags := renderFlags{format: pipeline.FormatSVG, layer: -1, scale: render.DefaultOptions().Scale}

	cmd := &cobra.Command{
		Use:   "render [snapshot]",
		Short: "Draw a floorplan snapshot as DOT or SVG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(flags.format); err != nil {
				return err
			}
			if err := errors.ValidatePositive("scale", flags.scale); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), args[0], flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.output, "output", "o", "", "output file (default: snapshot name with the format's extension)")
	f.StringVarP(&flags.format, "format", "f", flags.format, "output format: svg, dot")
	f.BoolVar(&flags.noTerminals, "no-terminals", false, "omit terminals and their nets")
	f.BoolVar(&flags.noPartners, "no-partners", false, "omit alignment pairs")
	f.IntVar(&flags.layer, "layer", flags.layer, "draw one layer only (-1 for all)")
	f.Float64Var(&flags.scale, "scale", flags.scale, "points per grid cell")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the local cache")
	return cmd
}

func (c *CLI) runRender(ctx context.Context, path string, flags renderFlags) error {
	snap, err := snapshot.ReadFile(path)
	if err != nil {
		return err
	}
	if flags.layer >= snap.NumLayer {
		return fmt.Errorf("layer %d out of range: snapshot has %d layers", flags.layer, snap.NumLayer)
	}

	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	opts := render.Options{
		Terminals: !flags.noTerminals,
		Partners:  !flags.noPartners,
		Layer:     flags.layer,
		Scale:     flags.scale,
	}

	sp := newSpinner(ctx, "Rendering "+snap.Circuit)
	sp.start()
	out, hit, err := runner.RenderWithCacheInfo(ctx, snap, flags.format, opts)
	sp.stop()
	if sp.cancelled() {
		return ctx.Err()
	}
	if err != nil {
		return err
	}

	dest := flags.output
	if dest == "" {
		dest = outputPath(path, flags.format)
	}
	if err := os.WriteFile(dest, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	status := iconFresh
	if hit {
		status = iconCached
	}
	printSuccess("Rendered %s %s", snap.Circuit, StyleDim.Render("("+status+")"))
	printFile(dest)
	return nil
}

// outputPath swaps the snapshot's extension for format's.
func outputPath(snapshotPath, format string) string {
	base := strings.TrimSuffix(snapshotPath, ".json")
	base = strings.TrimSuffix(base, ".fp")
	return base + "." + format
}
