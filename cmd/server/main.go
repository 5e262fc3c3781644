package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oa2006040/Kashta-Planner-sub000/internal/adapter"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/api/server"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/auth"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/config"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/messaging"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/metrics"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/settlement"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage/postgres"
	"github.com/oa2006040/Kashta-Planner-sub000/internal/storage/sqlite"
	"github.com/oa2006040/Kashta-Planner-sub000/pkg/logging"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file")
	envPath      = flag.String("env", "", "Path to environment files")
	debug        = flag.Bool("debug", false, "Run gin in debug mode")
	hashAdminKey = flag.String("hash-admin-key", "", "Print the bcrypt hash of the given admin key and exit")
)

func main() {
	flag.Parse()

	if *hashAdminKey != "" {
		hash, err := auth.HashAdminKey(*hashAdminKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to hash admin key: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load(*configFile, *envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Configure(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server stopped")
}

// run serves until a shutdown signal or a server failure. Everything it
// opens is closed before it returns.
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Database.Driver, err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.Database.Driver)

	publisher, err := newPublisher(ctx, cfg.NATS)
	if err != nil {
		return fmt.Errorf("failed to initialize publisher: %w", err)
	}
	defer publisher.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	engine := settlement.NewEngine(store,
		settlement.WithClock(adapter.NewClock()),
		settlement.WithPublisher(publisher),
		settlement.WithMetrics(metrics.New(reg)),
		settlement.WithAggregateWorkers(cfg.Settlement.AggregateWorkers),
		settlement.WithReconcileMaxElapsed(cfg.Settlement.ReconcileMaxElapsed),
	)
	defer engine.Close()

	deps := server.Deps{
		Engine:   engine,
		AdminKey: auth.NewAdminKeyVerifier(cfg.Auth.AdminKeyHash),
		Metrics:  promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}),
	}
	if cfg.Auth.JWTSecret != "" {
		deps.Tokens = auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
	} else {
		slog.Warn("auth.jwt_secret not set, settlement toggles are recorded without an actor")
	}
	if !deps.AdminKey.Enabled() {
		slog.Warn("auth.admin_key_hash not set, global debt summaries are public")
	}

	srv := server.New(server.Config{
		Debug:        *debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		CORSOrigins:  cfg.Server.CORSOrigins,
	}, deps)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var serveErr error
	select {
	case sig := <-sigCh:
		slog.Info("Received shutdown signal", "signal", sig.String())
	case serveErr = <-errCh:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	return serveErr
}

// openStore opens the configured database.
func openStore(cfg config.DatabaseConfig) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.DSN(), postgres.PoolSettings{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		pg, err := postgres.New(db)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		s, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// newPublisher connects to NATS JetStream when nats.url is set. Without it,
// settlement activity is not published.
func newPublisher(ctx context.Context, cfg config.NATSConfig) (messaging.Publisher, error) {
	if cfg.URL == "" {
		slog.Info("nats.url not set, settlement activity will not be published")
		return messaging.NoopPublisher{}, nil
	}
	return messaging.NewJetStreamPublisher(ctx, messaging.Config{
		URL:            cfg.URL,
		StreamName:     cfg.StreamName,
		MaxReconnects:  cfg.MaxReconnects,
		ReconnectWait:  cfg.ReconnectWait,
		ConnectionName: cfg.ConnectionName,
	}, adapter.NewNatsJetStream())
}
