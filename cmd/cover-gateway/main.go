package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"coversdk/config"
	gatewayconfig "coversdk/gateway/config"
	"coversdk/gateway/middleware"
	"coversdk/gateway/routes"
	"coversdk/observability"
	"coversdk/observability/logging"
	telemetry "coversdk/observability/otel"
	"coversdk/sdk/cover"
	"coversdk/sdk/ipfs"
	"coversdk/sdk/pricing"
)

func main() {
	var cfgPath string
	var allowInsecure bool
	flag.StringVar(&cfgPath, "config", "", "path to a YAML or TOML configuration file")
	flag.BoolVar(&allowInsecure, "allow-insecure", false, "DEV ONLY: permit a plaintext listener outside loopback")
	flag.Parse()

	if err := run(cfgPath, allowInsecure); err != nil {
		fmt.Fprintf(os.Stderr, "cover-gateway: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string, allowInsecure bool) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger, err := logging.SetupWithOptions(cfg.Gateway.Observability.ServiceName, cfg.Environment, logging.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}

	shutdownTelemetry, err := telemetry.Init(context.Background(), telemetry.Config{
		ServiceName: cfg.Gateway.Observability.ServiceName,
		Version:     cfg.SDKVersion,
		Environment: cfg.Environment,
		Endpoint:    cfg.Telemetry.Endpoint,
		Insecure:    cfg.Telemetry.Insecure,
		Headers:     telemetry.ParseHeaders(cfg.Telemetry.Headers),
		Metrics:     cfg.Telemetry.Metrics,
		Traces:      cfg.Telemetry.Traces,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("initialise telemetry: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	apiURL, err := secureEndpoint(cfg, "api", cfg.API.URL, logger)
	if err != nil {
		return err
	}
	ipfsURL, err := secureEndpoint(cfg, "ipfs", cfg.IPFS.URL, logger)
	if err != nil {
		return err
	}

	catalog, err := cfg.LoadCatalog()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	pricingClient, err := pricing.New(apiURL, pricing.WithTimeout(cfg.API.Timeout))
	if err != nil {
		return fmt.Errorf("configure pricing client: %w", err)
	}
	uploader, err := ipfs.New(ipfsURL, cfg.SDKVersion, ipfs.WithHTTPClient(&http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.IPFS.Timeout,
	}))
	if err != nil {
		return fmt.Errorf("configure ipfs client: %w", err)
	}
	orchestrator, err := cover.New(catalog, pricingClient, uploader,
		cover.WithLogger(logger),
		cover.WithMetrics(observability.Quotes()),
		cover.WithDefaultSlippage(cfg.Slippage()),
	)
	if err != nil {
		return fmt.Errorf("configure orchestrator: %w", err)
	}

	gw := cfg.Gateway
	obs := middleware.NewObservability(gw.Observability, logger)
	router, err := routes.New(routes.Config{
		Quotes:        orchestrator,
		Capacity:      pricingClient,
		Catalog:       catalog,
		SwapMetrics:   observability.Swaps(),
		Authenticator: middleware.NewAuthenticator(gw.Auth, logger),
		RateLimiter:   middleware.NewRateLimiter(middleware.LimitsFromConfig(gw.RateLimits), logger),
		RateGroups:    rateGroups(gw.RateLimits),
		Observability: obs,
		CORS:          middleware.CORSConfig{AllowedOrigins: gw.CORS.AllowedOrigins},
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("configure routes: %w", err)
	}

	handler := http.Handler(router)
	if gw.Observability.Tracing {
		handler = otelhttp.NewHandler(router, gw.Observability.ServiceName)
	}

	tlsConfig, err := buildTLSConfig(configDir(cfgPath), gw.Security)
	if err != nil {
		return fmt.Errorf("configure TLS: %w", err)
	}
	if tlsConfig == nil && !allowInsecure && !isDevEnv(cfg.Environment) && !isLoopbackAddress(gw.ListenAddress) {
		return errors.New("plaintext gateway mode is restricted to loopback listeners or dev environments; configure security.tlsCertFile/tlsKeyFile or pass --allow-insecure")
	}

	server := &http.Server{
		Addr:              gw.ListenAddress,
		Handler:           handler,
		ReadTimeout:       gw.ReadTimeout,
		ReadHeaderTimeout: gw.ReadTimeout,
		WriteTimeout:      gw.WriteTimeout,
		IdleTimeout:       gw.IdleTimeout,
		TLSConfig:         tlsConfig,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listener, err := net.Listen("tcp", gw.ListenAddress)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	serveErr := make(chan error, 1)
	go func() {
		scheme := "http"
		if tlsConfig != nil {
			scheme = "https"
			listener = tls.NewListener(listener, tlsConfig)
		}
		logger.Info("gateway listening",
			slog.String("address", scheme+"://"+listener.Addr().String()),
			slog.String("api", apiURL),
			slog.String("environment", cfg.Environment))
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", slog.Any("error", err))
	}
	logger.Info("gateway stopped")
	return nil
}

func secureEndpoint(cfg config.Config, name, raw string, logger *slog.Logger) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse %s url: %w", name, err)
	}
	secured, upgraded, err := gatewayconfig.EnforceSecureScheme(cfg.Environment, parsed, cfg.Gateway.Security.AutoUpgradeHTTP)
	if err != nil {
		return "", fmt.Errorf("%s url: %w", name, err)
	}
	if upgraded {
		logger.Warn("auto-upgraded endpoint to HTTPS", slog.String("endpoint", name))
	}
	return secured.String(), nil
}

func rateGroups(limits []gatewayconfig.RateLimitConfig) []routes.RouteGroup {
	var groups []routes.RouteGroup
	for _, limit := range limits {
		for _, path := range limit.Paths {
			groups = append(groups, routes.RouteGroup{Prefix: strings.TrimSpace(path), RateLimitKey: limit.ID})
		}
	}
	return groups
}

func configDir(cfgPath string) string {
	if strings.TrimSpace(cfgPath) == "" {
		return ""
	}
	return filepath.Dir(cfgPath)
}

func buildTLSConfig(baseDir string, sec gatewayconfig.SecurityConfig) (*tls.Config, error) {
	certPath := resolvePath(baseDir, sec.TLSCertFile)
	keyPath := resolvePath(baseDir, sec.TLSKeyFile)
	if certPath == "" && keyPath == "" {
		return nil, nil
	}
	if certPath == "" || keyPath == "" {
		return nil, fmt.Errorf("security.tlsCertFile and security.tlsKeyFile must both be provided when enabling TLS")
	}
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load TLS key pair: %w", err)
	}
	return &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}, nil
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if baseDir == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(baseDir, trimmed)
}

func isDevEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	}
	return false
}

func isLoopbackAddress(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	host = strings.TrimSpace(host)
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
