package domain

// DraftKind names the protocol operation a draft performs.
type DraftKind string

const (
	DraftReserve    DraftKind = "RESERVE"
	DraftMintCap    DraftKind = "MINT_CAP"
	DraftCommit     DraftKind = "COMMIT"
	DraftCancelHold DraftKind = "CANCEL_HOLD"
)

// AccountMeta is one account reference of an instruction.
type AccountMeta struct {
	Address    Address `json:"address"`
	IsWritable bool    `json:"is_writable"`
	IsSigner   bool    `json:"is_signer"`
}

// Writable and Readonly are shorthands used by the draft builders.
func Writable(a Address, signer bool) AccountMeta {
	return AccountMeta{Address: a, IsWritable: true, IsSigner: signer}
}

func Readonly(a Address) AccountMeta {
	return AccountMeta{Address: a}
}

// Instruction targets one module with an ordered account list and an
// opaque payload.
type Instruction struct {
	ProgramID Address       `json:"program_id"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// Draft is an unsigned operation. It carries no execution guarantee until
// a Signer signs it and the caller submits it.
type Draft struct {
	Kind         DraftKind     `json:"kind"`
	FeePayer     Address       `json:"fee_payer"`
	Instructions []Instruction `json:"instructions"`
}

// Signers returns the distinct signer addresses the draft needs, fee
// payer first.
func (d Draft) Signers() []Address {
	seen := map[Address]bool{d.FeePayer: true}
	out := []Address{d.FeePayer}
	for _, ix := range d.Instructions {
		for _, m := range ix.Accounts {
			if m.IsSigner && !seen[m.Address] {
				seen[m.Address] = true
				out = append(out, m.Address)
			}
		}
	}
	return out
}

// OrderIntent is the result of order placement: drafts in submission
// order, plus the compensating cancel-hold draft when a later step failed.
type OrderIntent struct {
	AttemptID    string       `json:"attempt_id"`
	Phase        string       `json:"phase"`
	Drafts       []Draft      `json:"drafts"`
	Compensation *Draft       `json:"compensation,omitempty"`
	Hold         *HoldReceipt `json:"hold,omitempty"`
	Cap          *CapToken    `json:"cap,omitempty"`
}

// Kinds lists the draft kinds in order.
func (o *OrderIntent) Kinds() []DraftKind {
	out := make([]DraftKind, len(o.Drafts))
	for i, d := range o.Drafts {
		out[i] = d.Kind
	}
	return out
}
