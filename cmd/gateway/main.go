// Package main is the entry point for the school platform API gateway.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/campushub/gateway/internal/auth"
	"github.com/campushub/gateway/internal/config"
	"github.com/campushub/gateway/internal/gateway"
	"github.com/campushub/gateway/internal/health"
	"github.com/campushub/gateway/internal/middleware"
	"github.com/campushub/gateway/internal/observability"
	"github.com/campushub/gateway/internal/proxy"
	"github.com/campushub/gateway/internal/registry"
	"github.com/campushub/gateway/internal/token"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	showVersion bool
}

func main() {
	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("starting gateway",
		observability.String("version", version),
		observability.String("config", flags.configPath),
		observability.Int("services", len(cfg.Services)),
	)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize gateway", observability.Error(err))
	}

	run(app, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("GATEWAY_CONFIG_PATH", "configs/gateway.yaml"),
		"Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("gateway version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// getEnvOrDefault returns an environment value or a default.
func getEnvOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// application holds the wired components.
type application struct {
	config *config.Config
	server *gateway.Server
	tracer *observability.Tracer
}

// buildApplication wires all gateway components from configuration.
func buildApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	reg, err := registry.New(cfg.Services)
	if err != nil {
		return nil, fmt.Errorf("failed to build service registry: %w", err)
	}

	codec, err := token.NewCodec(cfg.Auth.UserTokenSecret, cfg.Auth.ServiceTokenSecret,
		token.WithDefaultServiceTokenTTL(cfg.Auth.ServiceTokenTTL.Duration),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build token codec: %w", err)
	}

	tracer, err := observability.NewTracer(observability.TracerConfig{
		ServiceName:  "api-gateway",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SamplingRate: cfg.Tracing.SamplingRate,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gate := auth.NewGate(codec,
		auth.WithGateLogger(logger),
		auth.WithGateMetrics(auth.NewMetrics(promRegistry)),
	)

	forwarder := proxy.NewForwarder(reg,
		proxy.WithForwarderLogger(logger),
		proxy.WithForwarderMetrics(proxy.NewMetrics(promRegistry)),
		proxy.WithRequestTimeout(cfg.Proxy.RequestTimeout.Duration),
		proxy.WithRootTimeout(cfg.Proxy.RootTimeout.Duration),
	)

	aggregator := health.NewAggregator(reg,
		health.WithAggregatorLogger(logger),
		health.WithAggregatorMetrics(health.NewMetrics(promRegistry)),
		health.WithProbeTimeout(cfg.Health.ProbeTimeout.Duration),
	)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = middleware.NewRateLimiter(
			cfg.RateLimit.RequestsPerSecond,
			cfg.RateLimit.Burst,
			cfg.RateLimit.PerClient,
			middleware.WithRateLimiterLogger(logger),
		)
	}

	engine := gateway.NewEngine(gateway.Deps{
		Config:       cfg,
		Logger:       logger,
		Gate:         gate,
		Codec:        codec,
		Forwarder:    forwarder,
		Health:       health.NewHandler(aggregator, version),
		HTTPMetrics:  middleware.NewHTTPMetrics(promRegistry),
		RateLimiter:  rateLimiter,
		Tracer:       tracer,
		PromGatherer: promRegistry,
		Version:      version,
	})

	server := gateway.NewServer(cfg.Server, engine, gateway.WithServerLogger(logger))

	return &application{
		config: cfg,
		server: server,
		tracer: tracer,
	}, nil
}
