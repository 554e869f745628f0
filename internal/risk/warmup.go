package risk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/pda"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	Reason  string
}

// WarmupGuard enforces the route's warmup restrictions on short orders.
type WarmupGuard struct {
	reader domain.AccountReader
	finder *pda.Finder
	now    func() time.Time
}

// NewWarmupGuard creates a guard reading route headers through reader.
func NewWarmupGuard(reader domain.AccountReader, finder *pda.Finder) *WarmupGuard {
	return &WarmupGuard{reader: reader, finder: finder, now: time.Now}
}

// WithClock replaces the guard's clock, for tests.
func (g *WarmupGuard) WithClock(now func() time.Time) *WarmupGuard {
	cp := *g
	cp.now = now
	return &cp
}

// Check issues one read of the route-state account and applies the
// warmup rules. Long orders and routes outside warmup are always allowed.
func (g *WarmupGuard) Check(ctx context.Context, route domain.Address, side domain.Side, leverage uint32) (Decision, error) {
	const op = "check warmup guards"

	state, _, err := g.finder.RouteState(route)
	if err != nil {
		return Decision{}, err
	}

	data, err := g.reader.FetchAccount(ctx, state)
	if err != nil {
		if domain.KindOf(err) == nil {
			err = domain.Wrap(domain.ErrNetwork, op, err)
		}
		return Decision{}, fmt.Errorf("route %s: %w", route, err)
	}

	header, err := DecodeRouteHeader(data)
	if err != nil {
		return Decision{}, err
	}

	if !header.WarmupActive(g.now().Unix()) || side != domain.SideAsk {
		return Decision{Allowed: true}, nil
	}

	if !header.ShortEnabled {
		slog.Debug("Warmup guard denied short", slog.String("route", route.String()))
		return Decision{Reason: "shorts disabled during warmup period"}, nil
	}
	if leverage > header.ShortLeverageCap {
		slog.Debug("Warmup guard capped short leverage",
			slog.String("route", route.String()),
			slog.Uint64("leverage", uint64(leverage)),
			slog.Uint64("cap", uint64(header.ShortLeverageCap)))
		return Decision{Reason: fmt.Sprintf("short leverage capped at %dx during warmup", header.ShortLeverageCap)}, nil
	}
	return Decision{Allowed: true}, nil
}
