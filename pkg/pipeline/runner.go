package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"go.opentelemetry.io/otel/attribute"

	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/circuit"
	"github.com/matzehuels/stackplan/pkg/floorplan/construct"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/render"
	"github.com/matzehuels/stackplan/pkg/snapshot"
)

// Cache key types reported to hooks.
const (
	keyCircuit  = "circuit"
	keyArtifact = "artifact"
)

// Result holds the output of one construction run.
type Result struct {
	Floorplan *construct.Result
	Snapshot  *snapshot.Snapshot
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats records stage timings.
type Stats struct {
	LoadTime  time.Duration
	BuildTime time.Duration
}

// CacheInfo records which stages were served from cache.
type CacheInfo struct {
	CircuitHit bool
}

// Runner runs construction with caching. It holds no per-run state, so one
// Runner can serve concurrent requests with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching and a nil keyer
// uses [cache.DefaultKeyer].
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// Close releases the cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Execute loads the circuit, assembles the floorplan and captures a
// snapshot.
func (r *Runner) Execute(ctx context.Context, opts Options) (res *Result, err error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	ctx, span := observability.StartSpan(ctx, "pipeline.execute", attribute.String("circuit", opts.Circuit))
	defer func() { observability.EndSpan(span, err) }()

	res = &Result{}

	loadStart := time.Now()
	c, hit, err := r.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	res.Stats.LoadTime = time.Since(loadStart)
	res.CacheInfo.CircuitHit = hit

	var placements map[string]circuit.Placement
	if opts.ReadFP {
		if placements, err = circuit.LoadPlacements(opts.DataRoot, opts.Circuit); err != nil {
			return nil, fmt.Errorf("load floorplan: %w", err)
		}
		r.Logger.Info("read prior floorplan", "placements", len(placements), "z_only", opts.SetZOnly)
	}

	hooks := observability.Pipeline()
	hooks.OnBuildStart(ctx, opts.Circuit)
	buildStart := time.Now()
	_, buildSpan := observability.StartSpan(ctx, "pipeline.assemble")
	built, err := construct.Assemble(c, placements, opts.ConstructConfig())
	observability.EndSpan(buildSpan, err)
	res.Stats.BuildTime = time.Since(buildStart)
	if err != nil {
		hooks.OnBuildComplete(ctx, opts.Circuit, observability.BuildStats{}, res.Stats.BuildTime, err)
		return nil, fmt.Errorf("build: %w", err)
	}
	res.Floorplan = built
	res.Snapshot = snapshot.New(opts.Circuit, built)

	st := res.Snapshot.Stats
	hooks.OnBuildComplete(ctx, opts.Circuit, observability.BuildStats{
		Blocks:    st.Blocks,
		Movable:   st.MovableBlocks,
		Terminals: st.Terminals,
		Nets:      st.Nets,
		CutNets:   st.CutNets,
		Pairs:     len(built.Partners),
		HPWL:      st.HPWL,
	}, res.Stats.BuildTime, nil)

	r.Logger.Info("constructed floorplan",
		"circuit", opts.Circuit,
		"snapshot", res.Snapshot.ID,
		"blocks", st.Blocks,
		"nets", st.Nets,
		"pairs", len(built.Partners),
		"duration", res.Stats.BuildTime)
	return res, nil
}

// LoadWithCacheInfo reads the circuit, consulting the cache first, and
// reports whether it was a cache hit. Entries are keyed on the input file
// sizes and modification times, so edited inputs are re-read.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, opts Options) (*circuit.Circuit, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	cacheHooks := observability.Cache()

	key := ""
	if fp, err := fingerprint(opts.DataRoot, opts.Circuit); err == nil {
		key = r.Keyer.CircuitKey(opts.DataRoot, opts.Circuit, opts.CircuitKeyOpts(fp))
	}

	if key != "" && !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var c circuit.Circuit
			if err := json.Unmarshal(data, &c); err == nil {
				cacheHooks.OnCacheHit(ctx, keyCircuit)
				r.Logger.Debug("circuit cache hit", "circuit", opts.Circuit)
				return &c, true, nil
			}
		} else if err != nil {
			r.Logger.Warn("circuit cache lookup failed", "err", err)
		}
		cacheHooks.OnCacheMiss(ctx, keyCircuit)
	}

	hooks.OnLoadStart(ctx, opts.Circuit)
	start := time.Now()
	_, span := observability.StartSpan(ctx, "pipeline.load", attribute.String("circuit", opts.Circuit))
	c, err := circuit.Load(opts.DataRoot, opts.Circuit, opts.LoadOptions())
	observability.EndSpan(span, err)
	if err != nil {
		hooks.OnLoadComplete(ctx, opts.Circuit, 0, time.Since(start), err)
		return nil, false, fmt.Errorf("load: %w", err)
	}
	hooks.OnLoadComplete(ctx, opts.Circuit, len(c.Blocks), time.Since(start), nil)
	r.Logger.Info("read circuit",
		"circuit", c.Name,
		"blocks", len(c.Blocks),
		"terminals", len(c.Terminals),
		"nets", len(c.Nets),
		"outline", fmt.Sprintf("%gx%g", c.OutlineWidth, c.OutlineHeight))

	if key != "" {
		if data, err := json.Marshal(c); err == nil {
			if err := r.Cache.Set(ctx, key, data, cache.TTLCircuit); err != nil {
				r.Logger.Warn("circuit cache write failed", "err", err)
			} else {
				cacheHooks.OnCacheSet(ctx, keyCircuit, len(data))
			}
		}
	}
	return c, false, nil
}

// Load is LoadWithCacheInfo without the hit flag.
func (r *Runner) Load(ctx context.Context, opts Options) (*circuit.Circuit, error) {
	c, _, err := r.LoadWithCacheInfo(ctx, opts)
	return c, err
}

// RenderWithCacheInfo renders s as DOT or SVG and reports whether the
// output came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, s *snapshot.Snapshot, format string, ropts render.Options) (out []byte, hit bool, err error) {
	if err := ValidateFormat(format); err != nil {
		return nil, false, err
	}
	hash, err := ContentHash(s)
	if err != nil {
		return nil, false, fmt.Errorf("hash snapshot: %w", err)
	}
	key := r.Keyer.ArtifactKey(hash, cache.ArtifactKeyOpts{
		Format:    format,
		Terminals: ropts.Terminals,
		Partners:  ropts.Partners,
		Layer:     ropts.Layer,
		Scale:     ropts.Scale,
	})

	cacheHooks := observability.Cache()
	if data, ok, err := r.Cache.Get(ctx, key); err == nil && ok {
		cacheHooks.OnCacheHit(ctx, keyArtifact)
		return data, true, nil
	}
	cacheHooks.OnCacheMiss(ctx, keyArtifact)

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "pipeline.render", attribute.String("format", format))
	defer func() {
		observability.EndSpan(span, err)
		observability.Pipeline().OnRenderComplete(ctx, format, time.Since(start), err)
	}()

	dot := render.ToDOT(s, ropts)
	switch format {
	case FormatDOT:
		out = []byte(dot)
	case FormatSVG:
		if out, err = render.RenderSVG(ctx, dot); err != nil {
			return nil, false, fmt.Errorf("render svg: %w", err)
		}
	}

	if err := r.Cache.Set(ctx, key, out, cache.TTLArtifact); err != nil {
		r.Logger.Warn("artifact cache write failed", "err", err)
	} else {
		cacheHooks.OnCacheSet(ctx, keyArtifact, len(out))
	}
	return out, false, nil
}

// Render is RenderWithCacheInfo without the hit flag.
func (r *Runner) Render(ctx context.Context, s *snapshot.Snapshot, format string, ropts render.Options) ([]byte, error) {
	out, _, err := r.RenderWithCacheInfo(ctx, s, format, ropts)
	return out, err
}

// ContentHash hashes the floorplan content of s, ignoring its id and
// creation time, so rebuilding the same inputs gives the same hash.
func ContentHash(s *snapshot.Snapshot) (string, error) {
	c := *s
	c.ID = ""
	c.CreatedAt = time.Time{}
	data, err := json.Marshal(&c)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// fingerprint summarises the circuit's input files by size and mtime.
func fingerprint(root, name string) (string, error) {
	blk, tml, net, _ := circuit.Paths(root, name)
	parts := make([]string, 0, 3)
	for _, p := range []string{blk, tml, net} {
		info, err := os.Stat(p)
		if err != nil {
			return "", err
		}
		parts = append(parts, fmt.Sprintf("%d-%d", info.Size(), info.ModTime().UnixNano()))
	}
	return strings.Join(parts, "/"), nil
}
