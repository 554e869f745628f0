// Package capability builds drafts that mint bounded spend authorizations
// (caps) on the router.
package capability

import (
	"encoding/binary"
	"fmt"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/pda"
	"github.com/Miminimi234/padd/pkg/quant"
)

// TagMintCap is the router instruction tag for minting a cap.
const TagMintCap byte = 0x10

// MintPayloadLen is tag + nonce u64 + amountMax u64 + ttl u32.
const MintPayloadLen = 1 + 8 + 8 + 4

// MintRequest describes the cap to mint.
type MintRequest struct {
	User      domain.Address
	Route     domain.Address
	Mint      domain.Address
	AmountMax quant.Fixed
	TTLMs     uint32
}

// Authorizer assembles mint-cap drafts. It holds no mutable state.
type Authorizer struct {
	finder *pda.Finder
	nonces NonceSource
}

// NewAuthorizer uses TimeNonces when nonces is nil.
func NewAuthorizer(finder *pda.Finder, nonces NonceSource) *Authorizer {
	if nonces == nil {
		nonces = TimeNonces{}
	}
	return &Authorizer{finder: finder, nonces: nonces}
}

func (r MintRequest) validate() error {
	const op = "mint cap"
	switch {
	case r.User.IsZero():
		return domain.Errorf(domain.ErrValidation, op, "user is required")
	case r.Route.IsZero():
		return domain.Errorf(domain.ErrValidation, op, "route is required")
	case r.Mint.IsZero():
		return domain.Errorf(domain.ErrValidation, op, "mint is required")
	case r.AmountMax == 0:
		return domain.Errorf(domain.ErrValidation, op, "amount max must be positive")
	case r.TTLMs == 0 || r.TTLMs > domain.MaxCapTTLMs:
		return domain.Errorf(domain.ErrValidation, op, "ttl %dms outside (0, %d]", r.TTLMs, domain.MaxCapTTLMs)
	}
	return nil
}

// MintCap returns the cap the draft will create and the draft itself.
// The nonce drawn for the cap is both part of the cap address and carried
// in the payload.
func (a *Authorizer) MintCap(req MintRequest) (domain.CapToken, domain.Draft, error) {
	if err := req.validate(); err != nil {
		return domain.CapToken{}, domain.Draft{}, err
	}

	nonce, err := a.nonces.Next()
	if err != nil {
		return domain.CapToken{}, domain.Draft{}, fmt.Errorf("failed to draw cap nonce: %w", err)
	}

	capAddr, _, err := a.finder.Cap(req.User, req.Route, req.Mint, nonce)
	if err != nil {
		return domain.CapToken{}, domain.Draft{}, fmt.Errorf("failed to derive cap: %w", err)
	}
	escrow, _, err := a.finder.Escrow(req.User, req.Route, req.Mint)
	if err != nil {
		return domain.CapToken{}, domain.Draft{}, fmt.Errorf("failed to derive escrow: %w", err)
	}
	registry, _, err := a.finder.Registry()
	if err != nil {
		return domain.CapToken{}, domain.Draft{}, fmt.Errorf("failed to derive registry: %w", err)
	}

	token := domain.CapToken{
		Owner:     req.User,
		Route:     req.Route,
		Mint:      req.Mint,
		Nonce:     nonce,
		AmountMax: req.AmountMax,
		TTLMs:     req.TTLMs,
		Address:   capAddr,
	}

	ix := domain.Instruction{
		ProgramID: a.finder.Programs.Router,
		Accounts: []domain.AccountMeta{
			domain.Writable(req.User, true),
			domain.Writable(capAddr, false),
			domain.Writable(escrow, false),
			domain.Readonly(req.Route),
			domain.Readonly(req.Mint),
			domain.Readonly(registry),
			domain.Readonly(domain.SystemProgram),
		},
		Data: EncodeMint(nonce, req.AmountMax, req.TTLMs),
	}

	return token, domain.Draft{
		Kind:         domain.DraftMintCap,
		FeePayer:     req.User,
		Instructions: []domain.Instruction{ix},
	}, nil
}

// EncodeMint lays out the mint-cap payload, little-endian.
func EncodeMint(nonce uint64, amountMax quant.Fixed, ttlMs uint32) []byte {
	buf := make([]byte, 0, MintPayloadLen)
	buf = append(buf, TagMintCap)
	buf = binary.LittleEndian.AppendUint64(buf, nonce)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(amountMax))
	buf = binary.LittleEndian.AppendUint32(buf, ttlMs)
	return buf
}

// DecodeMint is the inverse of EncodeMint.
func DecodeMint(data []byte) (nonce uint64, amountMax quant.Fixed, ttlMs uint32, err error) {
	if len(data) != MintPayloadLen || data[0] != TagMintCap {
		return 0, 0, 0, domain.Errorf(domain.ErrValidation, "decode mint cap", "bad payload (%d bytes)", len(data))
	}
	return binary.LittleEndian.Uint64(data[1:9]),
		quant.Fixed(binary.LittleEndian.Uint64(data[9:17])),
		binary.LittleEndian.Uint32(data[17:21]),
		nil
}
