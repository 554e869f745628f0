package pda

import (
	"encoding/binary"

	"github.com/Miminimi234/padd/internal/domain"
)

// Seed prefixes. These must match the on-chain modules byte for byte.
var (
	seedVault     = []byte("vault")
	seedEscrow    = []byte("escrow")
	seedCap       = []byte("cap")
	seedPortfolio = []byte("portfolio")
	seedRegistry  = []byte("registry")
	seedRoute     = []byte("route")
	seedAuthority = []byte("authority")
	seedHold      = []byte("hold")
	seedPosition  = []byte("position")
)

// Finder derives every protocol address from the configured module ids.
type Finder struct {
	Programs domain.Programs
	Deriver  Deriver
}

// NewFinder returns a Finder using the real curve check.
func NewFinder(programs domain.Programs) *Finder {
	return &Finder{Programs: programs}
}

// Vault: ["vault", mint] owned by the router.
func (f *Finder) Vault(mint domain.Address) (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedVault, mint[:]}, f.Programs.Router)
}

// Escrow: ["escrow", user, route, mint] owned by the router.
func (f *Finder) Escrow(user, route, mint domain.Address) (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedEscrow, user[:], route[:], mint[:]}, f.Programs.Router)
}

// Cap: ["cap", user, route, mint, nonce u64 LE] owned by the router.
func (f *Finder) Cap(user, route, mint domain.Address, nonce uint64) (domain.Address, uint8, error) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], nonce)
	return f.Deriver.Derive([][]byte{seedCap, user[:], route[:], mint[:], n[:]}, f.Programs.Router)
}

// Portfolio: ["portfolio", user] owned by the router.
func (f *Finder) Portfolio(user domain.Address) (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedPortfolio, user[:]}, f.Programs.Router)
}

// Registry: ["registry"] owned by the router.
func (f *Finder) Registry() (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedRegistry}, f.Programs.Router)
}

// RouteState: ["route", marketID] owned by the market module.
func (f *Finder) RouteState(marketID domain.Address) (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedRoute, marketID[:]}, f.Programs.Market)
}

// RouteAuthority: ["authority", route] owned by the market module.
func (f *Finder) RouteAuthority(route domain.Address) (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedAuthority, route[:]}, f.Programs.Market)
}

// Hold: ["hold", holdID] owned by the market module.
func (f *Finder) Hold(holdID domain.Address) (domain.Address, uint8, error) {
	return f.Deriver.Derive([][]byte{seedHold, holdID[:]}, f.Programs.Market)
}

// Position: ["position", trader, route, index u16 LE] owned by the market module.
func (f *Finder) Position(trader, route domain.Address, instrumentIndex uint16) (domain.Address, uint8, error) {
	var idx [2]byte
	binary.LittleEndian.PutUint16(idx[:], instrumentIndex)
	return f.Deriver.Derive([][]byte{seedPosition, trader[:], route[:], idx[:]}, f.Programs.Market)
}
