// Package hold builds the market-side drafts of an order: reserving a
// hold, committing it against a cap, and cancelling it.
package hold

import (
	"crypto/rand"
	"fmt"
	"io"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/pda"
	"github.com/Miminimi234/padd/pkg/quant"
)

// ReserveRequest is the order intent to lock. A nil CommitmentHash is
// drawn at random.
type ReserveRequest struct {
	User            domain.Address
	Route           domain.Address
	InstrumentIndex uint16
	Side            domain.Side
	Quantity        quant.Fixed
	LimitPrice      quant.Fixed
	TTLMs           uint32
	CommitmentHash  *domain.Hash
}

// Reserver assembles hold drafts. Random ids come from rand, which must
// be cryptographically secure outside tests.
type Reserver struct {
	finder *pda.Finder
	rand   io.Reader
}

func NewReserver(finder *pda.Finder) *Reserver {
	return &Reserver{finder: finder, rand: rand.Reader}
}

// WithRand returns a copy drawing ids from r.
func (r *Reserver) WithRand(src io.Reader) *Reserver {
	cp := *r
	cp.rand = src
	return &cp
}

func (req ReserveRequest) validate() error {
	const op = "reserve"
	switch {
	case req.User.IsZero():
		return domain.Errorf(domain.ErrValidation, op, "user is required")
	case req.Route.IsZero():
		return domain.Errorf(domain.ErrValidation, op, "route is required")
	case !req.Side.Valid():
		return domain.Errorf(domain.ErrValidation, op, "unknown side %s", req.Side)
	case req.Quantity == 0:
		return domain.Errorf(domain.ErrValidation, op, "quantity must be positive")
	case req.TTLMs == 0 || req.TTLMs > domain.MaxHoldTTLMs:
		return domain.Errorf(domain.ErrValidation, op, "ttl %dms outside (0, %d]", req.TTLMs, domain.MaxHoldTTLMs)
	}
	return nil
}

// Reserve draws a fresh hold id and returns the receipt the draft will
// create, in Pending status, with the draft itself.
func (r *Reserver) Reserve(req ReserveRequest) (domain.HoldReceipt, domain.Draft, error) {
	if err := req.validate(); err != nil {
		return domain.HoldReceipt{}, domain.Draft{}, err
	}

	var holdID domain.Address
	if _, err := io.ReadFull(r.rand, holdID[:]); err != nil {
		return domain.HoldReceipt{}, domain.Draft{}, fmt.Errorf("failed to draw hold id: %w", err)
	}

	var commitment domain.Hash
	if req.CommitmentHash != nil {
		commitment = *req.CommitmentHash
	} else if _, err := io.ReadFull(r.rand, commitment[:]); err != nil {
		return domain.HoldReceipt{}, domain.Draft{}, fmt.Errorf("failed to draw commitment: %w", err)
	}

	holdAddr, _, err := r.finder.Hold(holdID)
	if err != nil {
		return domain.HoldReceipt{}, domain.Draft{}, fmt.Errorf("failed to derive hold: %w", err)
	}
	routeState, _, err := r.finder.RouteState(req.Route)
	if err != nil {
		return domain.HoldReceipt{}, domain.Draft{}, fmt.Errorf("failed to derive route state: %w", err)
	}

	receipt := domain.HoldReceipt{
		HoldID:          holdID,
		Address:         holdAddr,
		RouteID:         req.Route,
		InstrumentIndex: req.InstrumentIndex,
		Side:            req.Side,
		Quantity:        req.Quantity,
		LimitPrice:      req.LimitPrice,
		TTLMs:           req.TTLMs,
		CommitmentHash:  commitment,
		Status:          domain.HoldPending,
	}

	ix := domain.Instruction{
		ProgramID: r.finder.Programs.Market,
		Accounts: []domain.AccountMeta{
			domain.Writable(req.User, true),
			domain.Writable(holdAddr, false),
			domain.Readonly(req.Route),
			domain.Readonly(routeState),
			domain.Readonly(domain.SystemProgram),
		},
		Data: encodeReserve(receipt),
	}

	return receipt, domain.Draft{
		Kind:         domain.DraftReserve,
		FeePayer:     req.User,
		Instructions: []domain.Instruction{ix},
	}, nil
}

// Commit spends cap against the hold. The cap must belong to user and
// route of the hold.
func (r *Reserver) Commit(user domain.Address, receipt domain.HoldReceipt, c domain.CapToken) (domain.Draft, error) {
	const op = "commit"
	switch {
	case receipt.HoldID.IsZero():
		return domain.Draft{}, domain.Errorf(domain.ErrValidation, op, "hold id is required")
	case c.Address.IsZero():
		return domain.Draft{}, domain.Errorf(domain.ErrValidation, op, "cap address is required")
	case c.Owner != user:
		return domain.Draft{}, domain.Errorf(domain.ErrAuthorization, op, "cap %s is owned by %s, not %s", c.Address, c.Owner, user)
	case c.Route != receipt.RouteID:
		return domain.Draft{}, domain.Errorf(domain.ErrAuthorization, op, "cap %s is scoped to route %s, hold is on %s", c.Address, c.Route, receipt.RouteID)
	}

	position, _, err := r.finder.Position(user, receipt.RouteID, receipt.InstrumentIndex)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("failed to derive position: %w", err)
	}

	ix := domain.Instruction{
		ProgramID: r.finder.Programs.Market,
		Accounts: []domain.AccountMeta{
			domain.Writable(user, true),
			domain.Writable(receipt.Address, false),
			domain.Writable(c.Address, false),
			domain.Writable(position, false),
			domain.Readonly(receipt.RouteID),
			domain.Readonly(r.finder.Programs.Router),
		},
		Data: encodeCommit(receipt.HoldID, c.Nonce),
	}
	return domain.Draft{Kind: domain.DraftCommit, FeePayer: user, Instructions: []domain.Instruction{ix}}, nil
}

// CancelHold releases the hold. It is the compensating draft of a failed
// placement.
func (r *Reserver) CancelHold(user domain.Address, receipt domain.HoldReceipt) (domain.Draft, error) {
	const op = "cancel hold"
	if user.IsZero() {
		return domain.Draft{}, domain.Errorf(domain.ErrValidation, op, "user is required")
	}
	if receipt.HoldID.IsZero() {
		return domain.Draft{}, domain.Errorf(domain.ErrValidation, op, "hold id is required")
	}

	holdAddr := receipt.Address
	if holdAddr.IsZero() {
		var err error
		if holdAddr, _, err = r.finder.Hold(receipt.HoldID); err != nil {
			return domain.Draft{}, fmt.Errorf("failed to derive hold: %w", err)
		}
	}

	ix := domain.Instruction{
		ProgramID: r.finder.Programs.Market,
		Accounts: []domain.AccountMeta{
			domain.Writable(user, true),
			domain.Writable(holdAddr, false),
			domain.Readonly(receipt.RouteID),
		},
		Data: encodeCancel(receipt.HoldID),
	}
	return domain.Draft{Kind: domain.DraftCancelHold, FeePayer: user, Instructions: []domain.Instruction{ix}}, nil
}
