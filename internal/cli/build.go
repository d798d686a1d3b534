package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/stackplan/pkg/pipeline"
)

// buildFlags are the command-line overrides for pipeline.Options.
type buildFlags struct {
	config       string
	output       string
	noCache      bool
	showPartners bool
	halo         []float64
}

func (c *CLI) buildCommand() *cobra.Command {
	var flags buildFlags
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "build [circuit]",
		Short: "Construct a floorplan and write its snapshot",
		Long: `Build reads <data-root>/<circuit>.{blk,tml,net}.csv, assigns layers and
preplaced blocks where the data has none, pairs blocks for alignment and
writes the discretized floorplan as a JSON snapshot.

Settings can come from a TOML run file (--config); flags override it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			merged, err := mergeBuildOptions(cmd.Flags(), flags, opts, args)
			if err != nil {
				return err
			}
			return c.runBuild(cmd.Context(), merged, flags)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&flags.config, "config", "c", "", "TOML run file")
	f.StringVarP(&flags.output, "output", "o", "", "snapshot path (default <circuit>.fp.json)")
	f.BoolVar(&flags.noCache, "no-cache", false, "disable the local cache")
	f.BoolVar(&flags.showPartners, "partners", false, "print the alignment partner table")
	f.Float64SliceVar(&flags.halo, "halo", nil, "halo width,height added to every block")

	f.StringVar(&opts.DataRoot, "data-root", pipeline.DefaultDataRoot, "directory holding the circuit files")
	f.Float64Var(&opts.AreaUtil, "area-util", pipeline.DefaultAreaUtil, "block area over die area")
	f.IntVar(&opts.NumGridX, "grid-x", pipeline.DefaultNumGrid, "grid columns")
	f.IntVar(&opts.NumGridY, "grid-y", pipeline.DefaultNumGrid, "grid rows")
	f.IntVarP(&opts.NumLayer, "layers", "l", pipeline.DefaultNumLayer, "number of layers")
	f.IntVar(&opts.NumPreplaced, "preplaced", 0, "blocks to fix when the data has no preplaced column")
	f.IntVar(&opts.NumAlignment, "alignment", 0, "partners per alignment anchor")
	f.Float64Var(&opts.AlignmentRate, "alignment-rate", pipeline.DefaultAlignmentRate, "fraction of the smaller block area to align")
	f.StringVar(&opts.AlignmentSort, "alignment-sort", pipeline.DefaultAlignmentSort, "partner order: area, type, name")
	f.BoolVar(&opts.AddVirtualBlock, "virtual-block", false, "add a 1x1 virtual block")
	f.BoolVar(&opts.ReadFP, "read-fp", false, "replay <circuit>.fp.txt")
	f.BoolVar(&opts.SetZOnly, "z-only", false, "replay layers only")
	f.BoolVar(&opts.Refresh, "refresh", false, "re-read the circuit even when cached")
	return cmd
}

// mergeBuildOptions layers changed flags over the run file, if any.
func mergeBuildOptions(fs *pflag.FlagSet, flags buildFlags, fromFlags pipeline.Options, args []string) (pipeline.Options, error) {
	opts := fromFlags
	if flags.config != "" {
		file, err := pipeline.LoadOptionsFile(flags.config)
		if err != nil {
			return pipeline.Options{}, err
		}
		override := map[string]func(){
			"data-root":      func() { file.DataRoot = fromFlags.DataRoot },
			"area-util":      func() { file.AreaUtil = fromFlags.AreaUtil },
			"grid-x":         func() { file.NumGridX = fromFlags.NumGridX },
			"grid-y":         func() { file.NumGridY = fromFlags.NumGridY },
			"layers":         func() { file.NumLayer = fromFlags.NumLayer },
			"preplaced":      func() { file.NumPreplaced = fromFlags.NumPreplaced },
			"alignment":      func() { file.NumAlignment = fromFlags.NumAlignment },
			"alignment-rate": func() { file.AlignmentRate = fromFlags.AlignmentRate },
			"alignment-sort": func() { file.AlignmentSort = fromFlags.AlignmentSort },
			"virtual-block":  func() { file.AddVirtualBlock = fromFlags.AddVirtualBlock },
			"read-fp":        func() { file.ReadFP = fromFlags.ReadFP },
			"z-only":         func() { file.SetZOnly = fromFlags.SetZOnly },
		}
		fs.Visit(func(f *pflag.Flag) {
			if set, ok := override[f.Name]; ok {
				set()
			}
		})
		file.Refresh = fromFlags.Refresh
		opts = file
	}

	if len(args) == 1 {
		opts.Circuit = args[0]
	}
	if opts.Circuit == "" {
		return pipeline.Options{}, fmt.Errorf("no circuit given: pass it as an argument or set circuit in --config")
	}
	if fs.Changed("halo") {
		if len(flags.halo) != 2 {
			return pipeline.Options{}, fmt.Errorf("--halo takes width,height, got %d values", len(flags.halo))
		}
		opts.AddHalo = true
		opts.HaloWidth, opts.HaloHeight = flags.halo[0], flags.halo[1]
	}
	return opts, nil
}

func (c *CLI) runBuild(ctx context.Context, opts pipeline.Options, flags buildFlags) error {
	runner, err := c.newRunner(flags.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		printError("Build failed for %s", opts.Circuit)
		return err
	}
	prog.done("Built " + opts.Circuit)

	out := flags.output
	if out == "" {
		out = opts.Circuit + ".fp.json"
	}
	if err := res.Snapshot.WriteFile(out); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	printSuccess("Floorplan %s", StyleNumber.Render(res.Snapshot.ID))
	printStats(res.Snapshot.Stats, len(res.Snapshot.Partners), res.CacheInfo.CircuitHit)
	printSummary(res.Snapshot)
	if flags.showPartners && len(res.Snapshot.Partners) > 0 {
		fmt.Println(partnerTable(res.Snapshot.Partners))
	}
	printFile(out)
	printNextStep("Render it", "stackplan render "+filepath.Base(out))
	return nil
}
