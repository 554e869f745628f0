package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/Miminimi234/padd/internal/app"
	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/infra"
	"github.com/Miminimi234/padd/internal/risk"
	"github.com/Miminimi234/padd/pkg/quant"
)

// Live smoke test against a configured cluster. Reads the route header,
// evaluates the warmup guard for a short order and previews margin and
// liquidation levels. Nothing is signed or submitted.
func main() {
	configPath := flag.String("config", infra.ResolveConfigPath(), "path to config.yaml")
	routeFlag := flag.String("route", "", "route (market) address")
	entryFlag := flag.String("entry", "100", "entry price for the preview")
	qtyFlag := flag.String("qty", "1", "quantity for the preview")
	leverage := flag.Uint("leverage", 5, "leverage for the short-side guard check")
	imBps := flag.Uint("im-bps", 1000, "initial margin in basis points")
	mmBps := flag.Uint("mm-bps", 500, "maintenance margin in basis points")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)
	slog.Info("🚀 Starting padd Integration Test...")

	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(*configPath); err != nil {
		slog.Error("❌ Bootstrapping failed", "error", err)
		os.Exit(1)
	}

	route, err := domain.ParseAddress(*routeFlag)
	if err != nil {
		slog.Error("❌ Invalid route", "error", err)
		os.Exit(1)
	}
	entry, err := quant.ParseFixed(*entryFlag)
	if err != nil {
		slog.Error("❌ Invalid entry price", "error", err)
		os.Exit(1)
	}
	qty, err := quant.ParseFixed(*qtyFlag)
	if err != nil {
		slog.Error("❌ Invalid quantity", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// STEP 1: route header
	state, _, err := bootstrap.Finder.RouteState(route)
	if err != nil {
		slog.Error("❌ RouteState derivation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("STEP 1: Fetching route state...", "address", state.String())
	info, err := bootstrap.RPC.GetAccountInfo(ctx, state)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		slog.Error("❌ Market not found", "route", route.String())
		os.Exit(1)
	case err != nil:
		slog.Error("❌ GetAccountInfo failed", "error", err, "breaker", bootstrap.RPC.BreakerState().String())
		os.Exit(1)
	}
	header, err := risk.DecodeRouteHeader(info.Data)
	if err != nil {
		slog.Error("❌ Route header is unreadable", "error", err)
		os.Exit(1)
	}
	slog.Info("✅ Route header",
		"slot", info.Slot,
		"warmup", header.WarmupActive(time.Now().Unix()),
		"shorts", header.ShortEnabled,
		"short_leverage_cap", header.ShortLeverageCap,
	)

	// STEP 2: warmup guard
	decision, err := bootstrap.Guard.Check(ctx, route, domain.SideAsk, uint32(*leverage))
	if err != nil {
		slog.Error("❌ Guard check failed", "error", err)
		os.Exit(1)
	}
	if decision.Allowed {
		slog.Info("✅ Short order allowed", "leverage", *leverage)
	} else {
		slog.Warn("⛔ Short order denied", "reason", decision.Reason)
	}

	// STEP 3: margin and liquidation preview
	notional, err := risk.NotionalValue(qty, entry)
	if err != nil {
		slog.Error("❌ Notional overflow", "error", err)
		os.Exit(1)
	}
	margin, err := risk.CalculateRequiredMargin(notional, uint32(*imBps))
	if err != nil {
		slog.Error("❌ Margin calculation failed", "error", err)
		os.Exit(1)
	}
	for _, side := range []domain.Side{domain.SideBid, domain.SideAsk} {
		liq, err := risk.CalculateLiquidationPrice(entry, side, uint32(*mmBps))
		if err != nil {
			slog.Error("❌ Liquidation preview failed", "side", side.String(), "error", err)
			os.Exit(1)
		}
		slog.Info("📊 Preview",
			"side", side.String(),
			"notional", notional.String(),
			"margin", margin.String(),
			"liquidation", liq.String(),
		)
	}
	slog.Info("🎉 Integration Test Passed!")
}
