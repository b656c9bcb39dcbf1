package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"stableamm/config"
	"stableamm/core"
	"stableamm/core/events"
	"stableamm/gateway/middleware"
	"stableamm/observability"
	"stableamm/observability/eventlog"
	"stableamm/observability/logging"
	telemetry "stableamm/observability/otel"
	"stableamm/rpc"
	"stableamm/storage"
)

const serviceName = "stableammd"

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "./config.toml", "path to node configuration")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := logging.SetupWithFile(serviceName, cfg.Environment, cfg.LogFile)

	if err := run(cfg, cfgPath, logger); err != nil {
		logger.Error("stableammd stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, cfgPath string, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, telemetry.FromNodeConfig(serviceName, cfg))
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	sinks := events.Fanout{observability.Events()}
	var eventLog *eventlog.Sink
	if cfg.EventLog.Driver != "" {
		eventLog, err = eventlog.Open(cfg.EventLog.Driver, cfg.EventLog.DSN, logger)
		if err != nil {
			return err
		}
		defer eventLog.Close()
		sinks = append(sinks, eventLog)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "state"))
	if err != nil {
		return err
	}
	node, err := core.NewNode(db, core.WithLogger(logger), core.WithEmitter(sinks))
	if err != nil {
		db.Close()
		return err
	}
	defer node.Close()

	if genesisPath := resolvePath(cfgPath, cfg.GenesisFile); genesisPath != "" {
		genesis, err := config.LoadGenesis(genesisPath)
		if err != nil {
			return err
		}
		if err := node.ApplyGenesis(ctx, genesis); err != nil {
			return err
		}
		logger.Info("genesis applied", slog.String("path", genesisPath), slog.Uint64("height", node.Height()))
	} else {
		logger.Warn("no genesis configured; pool creation is disabled")
	}

	server := rpc.NewServer(node, rpc.Options{
		Authenticator: middleware.NewAuthenticator(middleware.AuthConfig{
			HMACSecret: cfg.Auth.ResolveSecret(),
			Issuer:     cfg.Auth.Issuer,
			Audience:   cfg.Auth.Audience,
			ClockSkew:  time.Duration(cfg.Auth.AllowedSkewSeconds) * time.Second,
		}, logger),
		RateLimiter: middleware.NewRateLimiter(map[string]middleware.RateLimit{
			"rpc": {RequestsPerMinute: cfg.RateLimit.RequestsPerMinute, Burst: cfg.RateLimit.Burst},
		}, logger),
		Observability: middleware.NewObservability(middleware.ObservabilityConfig{
			ServiceName: serviceName,
			LogRequests: cfg.Environment != "production",
		}, logger),
		CORS:     &middleware.CORSConfig{AllowedOrigins: []string{"*"}},
		EventLog: eventLog,
		Logger:   logger,
	})

	servers := []*http.Server{{
		Addr:         cfg.RPCAddress,
		Handler:      otelhttp.NewHandler(server.Router(), serviceName),
		ReadTimeout:  time.Duration(cfg.RPCReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.RPCWriteTimeout) * time.Second,
	}}
	if cfg.MetricsAddress != "" && cfg.MetricsAddress != cfg.RPCAddress {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		servers = append(servers, &http.Server{Addr: cfg.MetricsAddress, Handler: mux, ReadTimeout: 5 * time.Second})
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info("listening", slog.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range servers {
		if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
			logger.Warn("graceful shutdown failed", slog.String("addr", srv.Addr), slog.Any("error", shutdownErr))
		}
	}
	return err
}

// resolvePath interprets relative genesis paths against the config directory.
func resolvePath(cfgPath, path string) string {
	path = strings.TrimSpace(path)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(filepath.Dir(cfgPath), path)
}
