package execution

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Miminimi234/padd/internal/capability"
	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/hold"
	"github.com/Miminimi234/padd/internal/risk"
)

// paperHold and paperCap remember when an entry was created so ttl can be
// checked at commit time.
type paperHold struct {
	receipt   domain.HoldReceipt
	createdAt time.Time
}

type paperCap struct {
	token     domain.CapToken
	createdAt time.Time
}

// PaperLedger replays drafts against an in-memory model of the hold and
// cap rules the ledger enforces. Used for dry runs; it is not the ledger.
type PaperLedger struct {
	mu    sync.Mutex
	holds map[domain.Address]*paperHold
	caps  map[domain.Address]*paperCap
}

func NewPaperLedger() *PaperLedger {
	return &PaperLedger{
		holds: make(map[domain.Address]*paperHold),
		caps:  make(map[domain.Address]*paperCap),
	}
}

// Apply executes every instruction of draft at time at.
func (p *PaperLedger) Apply(draft domain.Draft, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, ix := range draft.Instructions {
		if err := p.apply(ix, at); err != nil {
			return fmt.Errorf("paper %s: %w", draft.Kind, err)
		}
	}
	return nil
}

func (p *PaperLedger) apply(ix domain.Instruction, at time.Time) error {
	if len(ix.Data) == 0 {
		return domain.Errorf(domain.ErrValidation, "apply", "empty payload")
	}
	if n := minAccounts[ix.Data[0]]; len(ix.Accounts) < n {
		return domain.Errorf(domain.ErrValidation, "apply", "instruction 0x%02x needs %d accounts, got %d", ix.Data[0], n, len(ix.Accounts))
	}

	switch ix.Data[0] {
	case hold.TagReserve:
		h, err := hold.DecodeReserve(ix.Data)
		if err != nil {
			return err
		}
		if _, ok := p.holds[h.HoldID]; ok {
			return domain.Errorf(domain.ErrValidation, "reserve", "hold %s already exists", h.HoldID)
		}
		h.Address = ix.Accounts[1].Address
		h.RouteID = ix.Accounts[2].Address
		h.Status = domain.HoldPending
		p.holds[h.HoldID] = &paperHold{receipt: h, createdAt: at}
		slog.Info("PAPER LEDGER: Hold Reserved", slog.String("hold", h.HoldID.String()), slog.String("qty", h.Quantity.String()))

	case capability.TagMintCap:
		nonce, amountMax, ttl, err := capability.DecodeMint(ix.Data)
		if err != nil {
			return err
		}
		addr := ix.Accounts[1].Address
		if _, ok := p.caps[addr]; ok {
			return domain.Errorf(domain.ErrValidation, "mint cap", "cap %s already exists", addr)
		}
		p.caps[addr] = &paperCap{
			token: domain.CapToken{
				Owner:     ix.Accounts[0].Address,
				Route:     ix.Accounts[3].Address,
				Mint:      ix.Accounts[4].Address,
				Nonce:     nonce,
				AmountMax: amountMax,
				TTLMs:     ttl,
				Address:   addr,
			},
			createdAt: at,
		}
		slog.Info("PAPER LEDGER: Cap Minted", slog.String("cap", addr.String()), slog.String("max", amountMax.String()))

	case hold.TagCommit:
		return p.commit(ix, at)

	case hold.TagCancelHold:
		id, _ := hold.HoldIDOf(ix.Data)
		h, ok := p.holds[id]
		if !ok {
			return domain.Errorf(domain.ErrNotFound, "cancel hold", "hold %s", id)
		}
		if h.receipt.Status != domain.HoldPending {
			return domain.Errorf(domain.ErrValidation, "cancel hold", "hold %s is %s", id, h.receipt.Status)
		}
		h.receipt.Status = domain.HoldCancelled
		slog.Info("PAPER LEDGER: Hold Cancelled", slog.String("hold", id.String()))

	default:
		return domain.Errorf(domain.ErrValidation, "apply", "unknown instruction tag 0x%02x", ix.Data[0])
	}
	return nil
}

func (p *PaperLedger) commit(ix domain.Instruction, at time.Time) error {
	const op = "commit"
	id, capNonce, err := hold.DecodeCommit(ix.Data)
	if err != nil {
		return err
	}

	h, ok := p.holds[id]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, op, "hold %s", id)
	}
	if h.receipt.Status != domain.HoldPending {
		return domain.Errorf(domain.ErrValidation, op, "hold %s is %s", id, h.receipt.Status)
	}
	if !risk.ValidateCapExpiry(expiry(h.createdAt, h.receipt.TTLMs), at.UnixMilli()) {
		h.receipt.Status = domain.HoldExpired
		return domain.Errorf(domain.ErrExpiry, op, "hold %s expired", id)
	}

	capAddr := ix.Accounts[2].Address
	c, ok := p.caps[capAddr]
	if !ok {
		return domain.Errorf(domain.ErrNotFound, op, "cap %s", capAddr)
	}
	if c.token.Nonce != capNonce {
		return domain.Errorf(domain.ErrAuthorization, op, "cap nonce %d does not match %d", capNonce, c.token.Nonce)
	}
	if err := risk.CheckCapDebit(&c.token, expiry(c.createdAt, c.token.TTLMs), at.UnixMilli(), h.receipt.Quantity); err != nil {
		return err
	}
	if err := c.token.Debit(h.receipt.Quantity); err != nil {
		return err
	}

	h.receipt.Status = domain.HoldCommitted
	slog.Info("PAPER LEDGER: Hold Committed",
		slog.String("hold", id.String()),
		slog.String("cap", capAddr.String()),
		slog.String("remaining", c.token.Remaining().String()))
	return nil
}

var minAccounts = map[byte]int{
	hold.TagReserve:       3,
	capability.TagMintCap: 5,
	hold.TagCommit:        3,
}

func expiry(created time.Time, ttlMs uint32) int64 {
	return created.UnixMilli() + int64(ttlMs)
}

// Hold returns a copy of the hold with the given id.
func (p *PaperLedger) Hold(id domain.Address) (domain.HoldReceipt, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.holds[id]
	if !ok {
		return domain.HoldReceipt{}, false
	}
	return h.receipt, true
}

// Cap returns a copy of the cap at addr.
func (p *PaperLedger) Cap(addr domain.Address) (domain.CapToken, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	c, ok := p.caps[addr]
	if !ok {
		return domain.CapToken{}, false
	}
	return c.token, true
}
