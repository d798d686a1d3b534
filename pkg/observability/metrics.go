package observability

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector exports hook events as Prometheus metrics. It implements
// [PipelineHooks], [CacheHooks] and [APIHooks].
type Collector struct {
	gatherer prometheus.Gatherer

	Builds         *prometheus.CounterVec
	BuildDurations *prometheus.HistogramVec
	StageDurations *prometheus.HistogramVec
	CacheEvents    *prometheus.CounterVec
	Requests       *prometheus.CounterVec
	RequestLatency *prometheus.HistogramVec

	LastBlocks  *prometheus.GaugeVec
	LastNets    *prometheus.GaugeVec
	LastCutNets *prometheus.GaugeVec
	LastHPWL    *prometheus.GaugeVec
}

var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// NewCollector registers the stackplan metrics on reg, defaulting to the
// global registry when nil. Registering twice on one registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &Collector{gatherer: gatherer}
	var err error

	if c.Builds, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stackplan_builds_total",
		Help: "Floorplan constructions, labeled by circuit and result.",
	}, []string{"circuit", "result"})); err != nil {
		return nil, err
	}
	if c.BuildDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackplan_build_duration_seconds",
		Help:    "Floorplan construction latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"circuit"})); err != nil {
		return nil, err
	}
	if c.StageDurations, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackplan_stage_duration_seconds",
		Help:    "Latency of the load and render stages in seconds.",
		Buckets: latencyBuckets,
	}, []string{"stage"})); err != nil {
		return nil, err
	}
	if c.CacheEvents, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stackplan_cache_events_total",
		Help: "Cache lookups and writes, labeled by key type and event.",
	}, []string{"key_type", "event"})); err != nil {
		return nil, err
	}
	if c.Requests, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stackplan_http_requests_total",
		Help: "Served HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"})); err != nil {
		return nil, err
	}
	if c.RequestLatency, err = register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackplan_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: latencyBuckets,
	}, []string{"method", "route"})); err != nil {
		return nil, err
	}

	gauges := []struct {
		dst  **prometheus.GaugeVec
		name string
		help string
	}{
		{&c.LastBlocks, "stackplan_floorplan_blocks", "Blocks in the most recent floorplan of a circuit."},
		{&c.LastNets, "stackplan_floorplan_nets", "Nets in the most recent floorplan of a circuit."},
		{&c.LastCutNets, "stackplan_floorplan_cut_nets", "Nets needing a via in the most recent floorplan of a circuit."},
		{&c.LastHPWL, "stackplan_floorplan_hpwl", "Weighted HPWL of the most recent floorplan of a circuit."},
	}
	for _, g := range gauges {
		if *g.dst, err = register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: g.name,
			Help: g.help,
		}, []string{"circuit"})); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// OnLoadStart implements [PipelineHooks].
func (c *Collector) OnLoadStart(context.Context, string) {}

// OnLoadComplete implements [PipelineHooks].
func (c *Collector) OnLoadComplete(_ context.Context, _ string, _ int, d time.Duration, _ error) {
	c.StageDurations.WithLabelValues("load").Observe(d.Seconds())
}

// OnBuildStart implements [PipelineHooks].
func (c *Collector) OnBuildStart(context.Context, string) {}

// OnBuildComplete implements [PipelineHooks].
func (c *Collector) OnBuildComplete(_ context.Context, circuit string, stats BuildStats, d time.Duration, err error) {
	if err != nil {
		c.Builds.WithLabelValues(circuit, "error").Inc()
		return
	}
	c.Builds.WithLabelValues(circuit, "ok").Inc()
	c.BuildDurations.WithLabelValues(circuit).Observe(d.Seconds())
	c.LastBlocks.WithLabelValues(circuit).Set(float64(stats.Blocks))
	c.LastNets.WithLabelValues(circuit).Set(float64(stats.Nets))
	c.LastCutNets.WithLabelValues(circuit).Set(float64(stats.CutNets))
	c.LastHPWL.WithLabelValues(circuit).Set(stats.HPWL)
}

// OnRenderComplete implements [PipelineHooks].
func (c *Collector) OnRenderComplete(_ context.Context, format string, d time.Duration, _ error) {
	c.StageDurations.WithLabelValues("render_" + format).Observe(d.Seconds())
}

// OnCacheHit implements [CacheHooks].
func (c *Collector) OnCacheHit(_ context.Context, keyType string) {
	c.CacheEvents.WithLabelValues(keyType, "hit").Inc()
}

// OnCacheMiss implements [CacheHooks].
func (c *Collector) OnCacheMiss(_ context.Context, keyType string) {
	c.CacheEvents.WithLabelValues(keyType, "miss").Inc()
}

// OnCacheSet implements [CacheHooks].
func (c *Collector) OnCacheSet(_ context.Context, keyType string, _ int) {
	c.CacheEvents.WithLabelValues(keyType, "set").Inc()
}

// OnRequest implements [APIHooks].
func (c *Collector) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	c.Requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.RequestLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// register adds col to reg, returning the already registered collector of
// the same type when one exists.
func register[T prometheus.Collector](reg prometheus.Registerer, col T) (T, error) {
	if err := reg.Register(col); err != nil {
		var zero T
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return zero, err
		}
		existing, ok := are.ExistingCollector.(T)
		if !ok {
			return zero, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return existing, nil
	}
	return col, nil
}

var (
	_ PipelineHooks = (*Collector)(nil)
	_ CacheHooks    = (*Collector)(nil)
	_ APIHooks      = (*Collector)(nil)
)
