// Package observability lets binaries attach metrics and tracing to
// stackplan without the libraries depending on a backend.
//
// Libraries emit events through the global registry; main registers a
// backend at startup:
//
//	collector, _ := observability.NewCollector(prometheus.NewRegistry())
//	observability.SetPipelineHooks(collector)
//	observability.SetCacheHooks(collector)
//	observability.SetAPIHooks(collector)
//
// Until something is registered every hook is a no-op.
package observability

import (
	"context"
	"sync"
	"time"
)

// BuildStats summarises a constructed floorplan.
type BuildStats struct {
	Blocks    int
	Movable   int
	Terminals int
	Nets      int
	CutNets   int
	Pairs     int
	HPWL      float64
}

// PipelineHooks receives floorplan construction events.
type PipelineHooks interface {
	OnLoadStart(ctx context.Context, circuit string)
	OnLoadComplete(ctx context.Context, circuit string, blocks int, duration time.Duration, err error)

	OnBuildStart(ctx context.Context, circuit string)
	OnBuildComplete(ctx context.Context, circuit string, stats BuildStats, duration time.Duration, err error)

	OnRenderComplete(ctx context.Context, format string, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. keyType is "circuit" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// APIHooks receives one event per served HTTP request. route is the
// router pattern, not the raw path.
type APIHooks interface {
	OnRequest(ctx context.Context, method, route string, status int, duration time.Duration)
}

// NoopPipelineHooks ignores all events.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                                       {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error)         {}
func (NoopPipelineHooks) OnBuildStart(context.Context, string)                                      {}
func (NoopPipelineHooks) OnBuildComplete(context.Context, string, BuildStats, time.Duration, error) {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, time.Duration, error)            {}

// NoopCacheHooks ignores all events.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopAPIHooks ignores all events.
type NoopAPIHooks struct{}

func (NoopAPIHooks) OnRequest(context.Context, string, string, int, time.Duration) {}

var (
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	apiHooks      APIHooks      = NoopAPIHooks{}
	hooksMu       sync.RWMutex
)

// SetPipelineHooks registers pipeline hooks. Nil is ignored.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetAPIHooks registers API hooks. Nil is ignored.
func SetAPIHooks(h APIHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		apiHooks = h
	}
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// API returns the registered API hooks.
func API() APIHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return apiHooks
}

// Reset restores the no-op hooks.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	apiHooks = NoopAPIHooks{}
}
