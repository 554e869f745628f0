package infra

import (
	"fmt"
	"io"
	"strings"
)

// ANSI Color Codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
)

// PrintBanner displays the startup banner with a cluster-specific warning.
// Written to w (stderr in the CLIs) so JSON output on stdout stays clean.
func PrintBanner(w io.Writer, cfg *Config) {
	cluster := strings.ToUpper(cfg.Cluster)
	if cluster == "" {
		cluster = "UNKNOWN"
	}

	color := ColorGreen
	desc := "LOCAL VALIDATOR"
	switch cluster {
	case "MAINNET":
		color = ColorRed
		desc = "REAL FUNDS"
	case "DEVNET", "TESTNET":
		color = ColorYellow
		desc = "PLAY MONEY"
	case "UNKNOWN":
		color = ColorCyan
		desc = "UNSPECIFIED CLUSTER"
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#              padd order-placement client                #%s\n", color, ColorReset)
	fmt.Fprintf(w, "%s#   CLUSTER: %-44s #%s\n", color, cluster, ColorReset)
	fmt.Fprintf(w, "%s#   TYPE:    %-44s #%s\n", color, desc, ColorReset)
	fmt.Fprintf(w, "%s#   VERSION: %-44s #%s\n", color, cfg.App.Version, ColorReset)
	fmt.Fprintf(w, "%s#   ROUTER:  %-44s #%s\n", color, cfg.Programs.Router, ColorReset)
	fmt.Fprintf(w, "%s#   MARKET:  %-44s #%s\n", color, cfg.Programs.Market, ColorReset)

	if cluster == "MAINNET" {
		fmt.Fprintf(w, "%s#   WARNING: DRAFTS SIGNED HERE MOVE REAL FUNDS           #%s\n", ColorRed, ColorReset)
	}
	fmt.Fprintf(w, "%s###########################################################%s\n", color, ColorReset)
	fmt.Fprintln(w)
}
