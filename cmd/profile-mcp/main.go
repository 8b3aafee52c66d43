// Command profile-mcp serves portfolio profile data as MCP tools.
//
// Usage:
//
//	profile-mcp [-config file.yaml] [-env-file .env] [-transport stdio|http] [-addr :8080]
//
// Credentials come from USERNAME, PASSWORD, EMAIL and BASE_URL. See package
// config for every other setting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/profilemcp/auth"
	"github.com/jonwraymond/profilemcp/cache"
	"github.com/jonwraymond/profilemcp/config"
	"github.com/jonwraymond/profilemcp/health"
	"github.com/jonwraymond/profilemcp/mcpserver"
	"github.com/jonwraymond/profilemcp/observe"
	"github.com/jonwraymond/profilemcp/profile"
	"github.com/jonwraymond/profilemcp/resilience"
	"github.com/jonwraymond/profilemcp/secret"
	"github.com/jonwraymond/profilemcp/upstream"
)

const serviceName = "profile-mcp"

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	envFile    string
	transport  string
	addr       string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fset := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	fset.SetOutput(stderr)
	fset.StringVar(&o.configPath, "config", "", "YAML config file overlaid on the environment")
	fset.StringVar(&o.envFile, "env-file", ".env", "dotenv file loaded before reading the environment; ignored when missing")
	fset.StringVar(&o.transport, "transport", "", "stdio or http (overrides "+config.EnvTransport+")")
	fset.StringVar(&o.addr, "addr", "", "listen address for the http transport (overrides "+config.EnvHTTPAddr+")")
	if err := fset.Parse(args); err != nil {
		return options{}, err
	}
	return o, nil
}

func loadConfig(o options) (*config.Config, error) {
	if o.envFile != "" {
		if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", o.envFile, err)
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.Load(o.configPath)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	if o.transport != "" {
		cfg.Server.Transport = o.transport
	}
	if o.addr != "" {
		cfg.Server.HTTPAddr = o.addr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app holds the wired components.
type app struct {
	cfg      *config.Config
	observer observe.Observer
	logger   observe.Logger
	server   *mcpserver.Server
	health   *health.Aggregator
	caches   []*cache.MemoryCache
}

func newApp(ctx context.Context, cfg *config.Config, logOut io.Writer) (*app, error) {
	resolver, err := secret.NewResolverFromRegistry(secret.DefaultRegistry, false)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resolver.Close() }()
	if err := cfg.ResolveSecrets(ctx, resolver); err != nil {
		return nil, err
	}

	obs, err := observe.NewObserver(ctx, cfg.ObserveConfig(serviceName, version), observe.WithWriter(logOut))
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}
	a := &app{cfg: cfg, observer: obs, logger: obs.Logger()}

	if msg := cfg.BaseURLWarning(); msg != "" {
		a.logger.Warn(ctx, msg, observe.F("base_url", cfg.Upstream.BaseURL))
	}

	creds := cfg.Credentials()
	login := auth.NewPasswordTokenProvider(creds, &http.Client{Timeout: cfg.Upstream.Timeout})

	var tokens auth.TokenProvider = login
	if cfg.Cache.TokenTTL > 0 {
		store := cache.NewMemoryCache()
		a.caches = append(a.caches, store)
		tokens = auth.NewCachingTokenProvider(login, store, cfg.Cache.TokenTTL)
	}

	fetcher := upstream.NewFetcher(creds.BaseURL, tokens,
		upstream.WithTimeout(cfg.Upstream.Timeout),
		upstream.WithTelemetry(obs.Tracer(), obs.Meter()),
	)

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return nil, fmt.Errorf("creating tool metrics: %w", err)
	}
	opts := mcpserver.Options{
		Name:       serviceName,
		Version:    version,
		Middleware: mw,
		Logger:     a.logger,
	}
	if cfg.Cache.ResultTTL > 0 {
		store := cache.NewMemoryCache()
		a.caches = append(a.caches, store)
		opts.ResultCache, opts.ResultTTL = store, cfg.Cache.ResultTTL
	}
	if cfg.Server.MaxConcurrent > 0 {
		opts.Bulkhead = resilience.NewBulkhead(resilience.BulkheadConfig{MaxConcurrent: cfg.Server.MaxConcurrent})
		if err := observeBulkhead(obs.Meter(), opts.Bulkhead); err != nil {
			return nil, fmt.Errorf("creating bulkhead metrics: %w", err)
		}
	}
	a.server = mcpserver.New(profile.NewService(fetcher, creds.ContactEmail), opts)

	a.health = health.NewAggregator(0)
	a.health.Register(health.NewUpstreamAuthChecker(login, 0))
	a.health.Register(health.NewMemoryChecker(health.MemoryCheckerConfig{}))

	return a, nil
}

func (a *app) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/mcp", a.server.HTTPHandler(a.cfg.Server.APIKey))
	health.RegisterHandlers(mux, a.health)
	if a.cfg.Telemetry.MetricsExporter == "prometheus" {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	return mux
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	o, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg, stderr)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = a.observer.Shutdown(sctx)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	a.logger.Info(ctx, "starting", observe.F("transport", cfg.Server.Transport), observe.F("version", version))

	switch cfg.Server.Transport {
	case config.TransportHTTP:
		a.logger.Info(ctx, "health checks registered", observe.F("checks", a.health.Names()))
		srv := &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           a.handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	default:
		g.Go(func() error {
			defer cancel()
			return a.server.ServeStdio(ctx, stdin, stdout)
		})
	}

	for _, c := range a.caches {
		g.Go(func() error {
			purgeExpired(ctx, c, time.Minute)
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	a.logger.Info(context.WithoutCancel(ctx), "stopped")
	return nil
}

// observeBulkhead reports bulkhead occupancy and shed calls on each
// metrics collection.
func observeBulkhead(meter metric.Meter, b *resilience.Bulkhead) error {
	active, err := meter.Int64ObservableGauge("tool.bulkhead.active",
		metric.WithDescription("Tool calls currently holding a bulkhead slot"))
	if err != nil {
		return err
	}
	rejected, err := meter.Int64ObservableCounter("tool.bulkhead.rejected",
		metric.WithDescription("Tool calls shed because the bulkhead was full"))
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		m := b.Metrics()
		o.ObserveInt64(active, int64(m.Active))
		o.ObserveInt64(rejected, m.Rejected)
		return nil
	}, active, rejected)
	return err
}

// purgeExpired sweeps c every interval until ctx ends.
func purgeExpired(ctx context.Context, c *cache.MemoryCache, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Purge()
		}
	}
}
