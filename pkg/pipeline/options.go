// Package pipeline runs floorplan construction for the CLI and the API.
//
// It owns run configuration ([Options]), its defaults and validation, and a
// [Runner] that adds caching, logging, hooks and tracing around
// construct.Assemble:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{Circuit: "ami33"})
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Snapshot.Stats.HPWL)
//
// Options can be written as TOML and loaded with [LoadOptionsFile]:
//
//	circuit = "ami33"
//	num_layer = 2
//	num_preplaced_module = 4
//	alignment_sort = "area"
package pipeline

import (
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/circuit"
	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/floorplan/construct"
)

// Defaults shared by the CLI and the API.
const (
	DefaultDataRoot      = "data"
	DefaultAreaUtil      = 0.8
	DefaultNumGrid       = 128
	DefaultNumLayer      = 2
	DefaultAlignmentRate = 1.0
	DefaultAlignmentSort = construct.SortArea
)

// Render formats.
const (
	FormatDOT = "dot"
	FormatSVG = "svg"
)

// ValidSorts is the set of alignment sort keys.
var ValidSorts = map[string]bool{
	construct.SortArea: true,
	construct.SortType: true,
	construct.SortName: true,
}

// ValidFormats is the set of render formats.
var ValidFormats = map[string]bool{
	FormatDOT: true,
	FormatSVG: true,
}

// Options configures one floorplan construction. It is decoded from TOML
// run files and from API request bodies.
type Options struct {
	Circuit  string  `toml:"circuit" json:"circuit"`
	DataRoot string  `toml:"data_root" json:"data_root,omitempty"`
	AreaUtil float64 `toml:"area_util" json:"area_util,omitempty"`

	NumGridX int `toml:"num_grid_x" json:"num_grid_x,omitempty"`
	NumGridY int `toml:"num_grid_y" json:"num_grid_y,omitempty"`
	NumLayer int `toml:"num_layer" json:"num_layer,omitempty"`

	NumPreplaced    int  `toml:"num_preplaced_module" json:"num_preplaced_module,omitempty"`
	AddVirtualBlock bool `toml:"add_virtual_block" json:"add_virtual_block,omitempty"`

	NumAlignment  int     `toml:"num_alignment" json:"num_alignment,omitempty"`
	AlignmentRate float64 `toml:"alignment_rate" json:"alignment_rate,omitempty"`
	AlignmentSort string  `toml:"alignment_sort" json:"alignment_sort,omitempty"`

	ReadFP   bool `toml:"read_fp" json:"read_fp,omitempty"`
	SetZOnly bool `toml:"set_z_only" json:"set_z_only,omitempty"`

	AddHalo    bool    `toml:"add_halo" json:"add_halo,omitempty"`
	HaloWidth  float64 `toml:"halo_width" json:"halo_width,omitempty"`
	HaloHeight float64 `toml:"halo_height" json:"halo_height,omitempty"`

	// Refresh bypasses the circuit cache.
	Refresh bool `toml:"-" json:"refresh,omitempty"`

	Logger *log.Logger `toml:"-" json:"-"`

	validated bool
}

// LoadOptionsFile decodes a TOML run file. Unknown keys are an error.
func LoadOptionsFile(path string) (Options, error) {
	var opts Options
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return Options{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return opts, nil
}

// SetDefaults fills zero fields with their defaults.
func (o *Options) SetDefaults() {
	if o.DataRoot == "" {
		o.DataRoot = DefaultDataRoot
	}
	if o.AreaUtil == 0 {
		o.AreaUtil = DefaultAreaUtil
	}
	if o.NumGridX == 0 {
		o.NumGridX = DefaultNumGrid
	}
	if o.NumGridY == 0 {
		o.NumGridY = DefaultNumGrid
	}
	if o.NumLayer == 0 {
		o.NumLayer = DefaultNumLayer
	}
	if o.AlignmentRate == 0 {
		o.AlignmentRate = DefaultAlignmentRate
	}
	if o.AlignmentSort == "" {
		o.AlignmentSort = DefaultAlignmentSort
	}
	if !o.AddHalo {
		o.HaloWidth, o.HaloHeight = 0, 0
	}
}

// Validate checks option ranges. It assumes defaults are set.
func (o *Options) Validate() error {
	if err := errors.ValidateCircuitName(o.Circuit); err != nil {
		return err
	}
	if err := errors.ValidateFraction("area_util", o.AreaUtil); err != nil {
		return err
	}
	if err := errors.ValidateFraction("alignment_rate", o.AlignmentRate); err != nil {
		return err
	}
	for _, f := range []struct {
		name string
		v    int
		min  int
	}{
		{"num_grid_x", o.NumGridX, 1},
		{"num_grid_y", o.NumGridY, 1},
		{"num_layer", o.NumLayer, 1},
		{"num_preplaced_module", o.NumPreplaced, 0},
		{"num_alignment", o.NumAlignment, 0},
	} {
		if f.v < f.min {
			return errors.New(errors.ErrCodeInvalidConfig, "%s must be at least %d, got %d", f.name, f.min, f.v)
		}
	}
	if o.HaloWidth < 0 || o.HaloHeight < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "halo must not be negative, got %gx%g", o.HaloWidth, o.HaloHeight)
	}
	if !ValidSorts[o.AlignmentSort] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid alignment_sort: %q (must be one of: area, type, name)", o.AlignmentSort)
	}
	if o.SetZOnly && !o.ReadFP {
		return errors.New(errors.ErrCodeInvalidConfig, "set_z_only requires read_fp")
	}
	return nil
}

// ValidateAndSetDefaults applies defaults then validates. Calling it again
// is a no-op.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateFormat checks that format is a render format.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: dot, svg)", format)
	}
	return nil
}

// LoadOptions returns the circuit reader settings.
func (o *Options) LoadOptions() circuit.LoadOptions {
	return circuit.LoadOptions{AreaUtil: o.AreaUtil, HaloWidth: o.HaloWidth, HaloHeight: o.HaloHeight}
}

// ConstructConfig returns the construction settings.
func (o *Options) ConstructConfig() construct.Config {
	return construct.Config{
		NumGridX:        o.NumGridX,
		NumGridY:        o.NumGridY,
		NumLayer:        o.NumLayer,
		NumPreplaced:    o.NumPreplaced,
		NumAlignment:    o.NumAlignment,
		AlignmentRate:   o.AlignmentRate,
		AlignmentSort:   o.AlignmentSort,
		AddVirtualBlock: o.AddVirtualBlock,
		ReadFP:          o.ReadFP,
		SetZOnly:        o.SetZOnly,
		Logger:          o.Logger,
	}
}

// CircuitKeyOpts returns the cache key options for the parsed circuit.
func (o *Options) CircuitKeyOpts(fingerprint string) cache.CircuitKeyOpts {
	return cache.CircuitKeyOpts{
		AreaUtil:    o.AreaUtil,
		HaloWidth:   o.HaloWidth,
		HaloHeight:  o.HaloHeight,
		Fingerprint: fingerprint,
	}
}
