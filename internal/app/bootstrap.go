package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Miminimi234/padd/internal/capability"
	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/hold"
	"github.com/Miminimi234/padd/internal/infra"
	"github.com/Miminimi234/padd/internal/ledger"
	"github.com/Miminimi234/padd/internal/pda"
	"github.com/Miminimi234/padd/internal/risk"
	"github.com/Miminimi234/padd/internal/saga"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config   *infra.Config
	Programs domain.Programs
	Finder   *pda.Finder
	RPC      *ledger.RPCClient
	Guard    *risk.WarmupGuard
	Saga     *saga.Saga
	Registry *prometheus.Registry
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the config at path and builds the object graph.
func (b *Bootstrap) Initialize(path string) error {
	cfg, err := infra.LoadConfig(path)
	if err != nil {
		return err
	}

	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping padd...", slog.String("config", path))
	return b.InitializeWith(cfg)
}

// InitializeWith builds the object graph from an already parsed config.
func (b *Bootstrap) InitializeWith(cfg *infra.Config) error {
	b.Config = cfg

	programs, err := cfg.ModulePrograms()
	if err != nil {
		return err
	}
	b.Programs = programs
	b.Finder = pda.NewFinder(programs)

	b.RPC = ledger.NewRPCClient(cfg)
	slog.Info("✅ Ledger client ready", slog.String("url", cfg.RPC.URL))

	b.Registry = prometheus.NewRegistry()
	b.Registry.MustRegister(collectors.NewGoCollector())
	metrics, err := saga.NewMetrics(b.Registry)
	if err != nil {
		return fmt.Errorf("failed to register saga metrics: %w", err)
	}

	var nonces capability.NonceSource = capability.TimeNonces{}
	if cfg.Order.Nonce == "random" {
		nonces = capability.RandomNonces{}
	}

	s := saga.New(hold.NewReserver(b.Finder), capability.NewAuthorizer(b.Finder, nonces))
	s.Metrics = metrics
	s.HoldTTLMs = cfg.Order.HoldTTLMs
	s.CapTTLMs = cfg.Order.CapTTLMs

	b.Guard = risk.NewWarmupGuard(b.RPC, b.Finder)
	if cfg.Order.WarmupGuard {
		s.Guard = b.Guard
	}
	b.Saga = s

	slog.Info("✅ Order saga ready",
		slog.String("router", programs.Router.String()),
		slog.String("market", programs.Market.String()),
		slog.String("nonce", cfg.Order.Nonce),
		slog.Bool("warmup_guard", cfg.Order.WarmupGuard))
	return nil
}

// MetricsHandler serves the registry in Prometheus text format.
func (b *Bootstrap) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(b.Registry, promhttp.HandlerOpts{})
}
