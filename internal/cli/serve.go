package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackplan/pkg/api"
	"github.com/matzehuels/stackplan/pkg/cache"
	"github.com/matzehuels/stackplan/pkg/observability"
	"github.com/matzehuels/stackplan/pkg/pipeline"
	"github.com/matzehuels/stackplan/pkg/store"
)

const redisKeyPrefix = appName + ":api:"

type serveFlags struct {
	addr      string
	dataRoot  string
	redisURL  string
	mongoURI  string
	mongoDB   string
	noMetrics bool
}

func (c *CLI) serveCommand() *cobra.Command {
	flags := serveFlags{addr: ":8080", dataRoot: pipeline.DefaultDataRoot, mongoDB: appName}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the floorplan HTTP API",
		Long: `Serve exposes floorplan construction over HTTP.

Snapshots are kept in memory unless --mongo-uri is set. Parsed circuits and
rendered artifacts are cached in Redis when --redis-url is set, otherwise in
the local cache directory. Set STACKPLAN_TRACING_ENABLED=true to export spans.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.addr, "addr", flags.addr, "listen address")
	f.StringVar(&flags.dataRoot, "data-root", flags.dataRoot, "directory holding the circuit files")
	f.StringVar(&flags.redisURL, "redis-url", "", "Redis URL for the shared cache (redis://host:6379/0)")
	f.StringVar(&flags.mongoURI, "mongo-uri", "", "MongoDB URI for snapshot storage")
	f.StringVar(&flags.mongoDB, "mongo-db", flags.mongoDB, "MongoDB database name")
	f.BoolVar(&flags.noMetrics, "no-metrics", false, "do not serve /metrics")
	return cmd
}

func (c *CLI) runServe(ctx context.Context, flags serveFlags) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), c.Logger)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, c.Logger)

	var metrics http.Handler
	if !flags.noMetrics {
		collector, err := observability.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return err
		}
		observability.SetPipelineHooks(collector)
		observability.SetCacheHooks(collector)
		observability.SetAPIHooks(collector)
		defer observability.Reset()
		metrics = collector.Handler()
	}

	cc, keyer, err := c.serveCache(ctx, flags.redisURL)
	if err != nil {
		return err
	}
	runner := pipeline.NewRunner(cc, keyer, c.Logger)
	defer runner.Close()

	st, err := c.serveStore(ctx, flags)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	srv := &http.Server{
		Addr: flags.addr,
		Handler: api.New(api.Config{
			Runner:   runner,
			Store:    st,
			DataRoot: flags.dataRoot,
			Metrics:  metrics,
			Logger:   c.Logger,
		}).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		c.Logger.Info("serving API", "addr", flags.addr, "data_root", flags.dataRoot)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// serveCache picks the Redis cache when configured. Redis keys are scoped
// so a shared instance can hold other applications' data.
func (c *CLI) serveCache(ctx context.Context, redisURL string) (cache.Cache, cache.Keyer, error) {
	if redisURL == "" {
		cc, err := newCache(false)
		return cc, nil, err
	}
	rc, err := cache.NewRedisCache(ctx, redisURL)
	if err != nil {
		return nil, nil, err
	}
	c.Logger.Info("using redis cache", "prefix", redisKeyPrefix)
	return rc, cache.NewScopedKeyer(nil, redisKeyPrefix), nil
}

func (c *CLI) serveStore(ctx context.Context, flags serveFlags) (store.Store, error) {
	if flags.mongoURI == "" {
		return store.NewMemoryStore(), nil
	}
	ms, err := store.NewMongoStore(ctx, flags.mongoURI, flags.mongoDB)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("using mongo snapshot store", "database", flags.mongoDB)
	return ms, nil
}
