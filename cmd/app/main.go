package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Miminimi234/padd/internal/app"
	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/execution"
	"github.com/Miminimi234/padd/internal/infra"
	"github.com/Miminimi234/padd/internal/saga"
	"github.com/Miminimi234/padd/pkg/quant"
)

type orderFlags struct {
	config   string
	user     string
	route    string
	mint     string
	side     string
	qty      string
	price    string
	oracle   string
	bandBps  uint
	leverage uint
	index    uint
	sign     bool
	dryRun   bool
	serve    bool
}

func parseFlags() orderFlags {
	var f orderFlags
	flag.StringVar(&f.config, "config", infra.ResolveConfigPath(), "path to config.yaml")
	flag.StringVar(&f.user, "user", "", "trader wallet address (base58)")
	flag.StringVar(&f.route, "route", "", "route (market) address (base58)")
	flag.StringVar(&f.mint, "mint", "", "quote mint address (base58)")
	flag.StringVar(&f.side, "side", "long", "long|short")
	flag.StringVar(&f.qty, "qty", "", "order quantity, e.g. 1.5")
	flag.StringVar(&f.price, "price", "0", "limit price; 0 for market")
	flag.StringVar(&f.oracle, "oracle", "0", "oracle price for the band check; 0 skips it")
	flag.UintVar(&f.bandBps, "band-bps", 0, "price band in basis points (defaults to config)")
	flag.UintVar(&f.leverage, "leverage", 1, "leverage multiple")
	flag.UintVar(&f.index, "index", 0, "instrument index on the route")
	flag.BoolVar(&f.sign, "sign", false, "sign drafts with the logging mock signer")
	flag.BoolVar(&f.dryRun, "dry-run", false, "replay drafts against the paper ledger")
	flag.BoolVar(&f.serve, "serve", false, "keep serving /metrics until interrupted")
	flag.Parse()
	return f
}

func (f orderFlags) params(defaultBand uint32) (domain.PlaceOrderParams, error) {
	if f.leverage > math.MaxUint32 {
		return domain.PlaceOrderParams{}, fmt.Errorf("invalid -leverage: %d exceeds %d", f.leverage, uint32(math.MaxUint32))
	}
	if f.bandBps > math.MaxUint32 {
		return domain.PlaceOrderParams{}, fmt.Errorf("invalid -band-bps: %d exceeds %d", f.bandBps, uint32(math.MaxUint32))
	}
	if f.index > math.MaxUint16 {
		return domain.PlaceOrderParams{}, fmt.Errorf("invalid -index: %d exceeds %d", f.index, math.MaxUint16)
	}
	side, err := domain.ParseSide(f.side)
	if err != nil {
		return domain.PlaceOrderParams{}, err
	}
	qty, err := quant.ParseFixed(f.qty)
	if err != nil {
		return domain.PlaceOrderParams{}, fmt.Errorf("invalid -qty: %w", err)
	}
	price, err := quant.ParseFixed(f.price)
	if err != nil {
		return domain.PlaceOrderParams{}, fmt.Errorf("invalid -price: %w", err)
	}
	oracle, err := quant.ParseFixed(f.oracle)
	if err != nil {
		return domain.PlaceOrderParams{}, fmt.Errorf("invalid -oracle: %w", err)
	}
	band := defaultBand
	if f.bandBps > 0 {
		band = uint32(f.bandBps)
	}
	return domain.PlaceOrderParams{
		InstrumentIndex: uint16(f.index),
		Side:            side,
		Quantity:        qty,
		LimitPrice:      price,
		Leverage:        uint32(f.leverage),
		OraclePrice:     oracle,
		BandBps:         band,
	}, nil
}

type output struct {
	Intent *domain.OrderIntent     `json:"intent"`
	Error  string                  `json:"error,omitempty"`
	Signed []execution.SignedDraft `json:"signed,omitempty"`
	Paper  map[string]string       `json:"paper,omitempty"`
}

func main() {
	f := parseFlags()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(f.config); err != nil {
		slog.Error("❌ Bootstrapping failed", slog.Any("error", err))
		os.Exit(1)
	}
	cfg := bootstrap.Config
	infra.PrintBanner(os.Stderr, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, bootstrap, f); err != nil {
		slog.Error("❌ Order preparation failed", slog.Any("error", err))
		os.Exit(1)
	}

	if f.serve && cfg.Metrics.Addr != "" {
		serveMetrics(ctx, bootstrap, cfg.Metrics.Addr)
	}
}

func run(ctx context.Context, b *app.Bootstrap, f orderFlags) error {
	user, err := domain.ParseAddress(f.user)
	if err != nil {
		return fmt.Errorf("invalid -user: %w", err)
	}
	route, err := domain.ParseAddress(f.route)
	if err != nil {
		return fmt.Errorf("invalid -route: %w", err)
	}
	mint, err := domain.ParseAddress(f.mint)
	if err != nil {
		return fmt.Errorf("invalid -mint: %w", err)
	}
	params, err := f.params(b.Config.Order.BandBps)
	if err != nil {
		return err
	}

	intent, placeErr := b.Saga.PlaceOrder(ctx, params, user, route, mint)
	out := output{Intent: intent}
	if placeErr != nil {
		out.Error = placeErr.Error()
		var se *saga.Error
		if errors.As(placeErr, &se) && errors.Is(placeErr, domain.ErrCompensationFailure) {
			slog.Error("🚨 Hold may stay reserved until its ttl lapses", slog.String("attempt", se.AttemptID))
		}
	}

	if placeErr == nil && f.sign {
		out.Signed, err = execution.SignAll(ctx, execution.NewMockSigner(), intent)
		if err != nil {
			return err
		}
	}

	if f.dryRun {
		out.Paper = replay(intent)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}
	return placeErr
}

// replay applies the intent's drafts to a fresh paper ledger, one second
// apart, and reports each outcome.
func replay(intent *domain.OrderIntent) map[string]string {
	paper := execution.NewPaperLedger()
	now := time.Now()
	res := make(map[string]string, len(intent.Drafts))
	for i, d := range intent.Drafts {
		key := fmt.Sprintf("%d:%s", i, d.Kind)
		if err := paper.Apply(d, now.Add(time.Duration(i)*time.Second)); err != nil {
			res[key] = err.Error()
			continue
		}
		res[key] = "ok"
	}
	return res
}

func serveMetrics(ctx context.Context, b *app.Bootstrap, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", b.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		slog.Info("📈 Metrics server started", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server failed", slog.Any("error", err))
		}
	}()

	<-ctx.Done()
	slog.Info("👋 Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}
