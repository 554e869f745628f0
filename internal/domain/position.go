package domain

import "github.com/Miminimi234/padd/pkg/quant"

// Position is the client's view of an open perpetual position, enough to
// preview margin and liquidation levels.
type Position struct {
	Trader          Address
	Route           Address
	InstrumentIndex uint16
	Side            Side
	Quantity        quant.Fixed
	EntryPrice      quant.Fixed
}

// IsLong checks if the position is Long.
func (p *Position) IsLong() bool {
	return p.Side == SideBid && p.Quantity > 0
}

// IsShort checks if the position is Short.
func (p *Position) IsShort() bool {
	return p.Side == SideAsk && p.Quantity > 0
}
