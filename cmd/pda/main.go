package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/infra"
	"github.com/Miminimi234/padd/internal/pda"
)

func main() {
	configPath := flag.String("config", infra.ResolveConfigPath(), "path to config.yaml")
	userFlag := flag.String("user", "", "trader wallet address")
	routeFlag := flag.String("route", "", "route (market) address")
	mintFlag := flag.String("mint", "", "quote mint address")
	holdFlag := flag.String("hold", "", "hold id (optional)")
	index := flag.Uint("index", 0, "instrument index")
	nonce := flag.Uint64("nonce", 0, "capability nonce")
	flag.Parse()

	cfg, err := infra.LoadConfig(*configPath)
	if err != nil {
		fail(err)
	}
	programs, err := cfg.ModulePrograms()
	if err != nil {
		fail(err)
	}
	if *index > math.MaxUint16 {
		fail(fmt.Errorf("invalid -index: %d exceeds %d", *index, math.MaxUint16))
	}
	user := mustAddress("user", *userFlag)
	route := mustAddress("route", *routeFlag)
	mint := mustAddress("mint", *mintFlag)

	finder := pda.NewFinder(programs)

	fmt.Println("=== padd program-derived addresses ===")
	fmt.Printf("   router: %s\n", programs.Router)
	fmt.Printf("   market: %s\n", programs.Market)
	fmt.Println()

	show := func(label string, addr domain.Address, bump uint8, err error) {
		if err != nil {
			fmt.Printf("❌ %-16s %v\n", label, err)
			return
		}
		fmt.Printf("📍 %-16s %s (bump %d)\n", label, addr, bump)
	}

	a, b, err := finder.Registry()
	show("registry", a, b, err)
	a, b, err = finder.Vault(mint)
	show("vault", a, b, err)
	a, b, err = finder.Escrow(user, route, mint)
	show("escrow", a, b, err)
	a, b, err = finder.Portfolio(user)
	show("portfolio", a, b, err)
	a, b, err = finder.RouteState(route)
	show("route state", a, b, err)
	a, b, err = finder.RouteAuthority(route)
	show("route authority", a, b, err)
	a, b, err = finder.Position(user, route, uint16(*index))
	show("position", a, b, err)
	a, b, err = finder.Cap(user, route, mint, *nonce)
	show(fmt.Sprintf("cap #%d", *nonce), a, b, err)

	if *holdFlag != "" {
		a, b, err = finder.Hold(mustAddress("hold", *holdFlag))
		show("hold", a, b, err)
	}
}

func mustAddress(name, s string) domain.Address {
	a, err := domain.ParseAddress(s)
	if err != nil {
		fail(fmt.Errorf("invalid -%s: %w", name, err))
	}
	return a
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "❌ %v\n", err)
	os.Exit(1)
}
