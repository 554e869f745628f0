package hold

import (
	"bytes"
	"errors"
	"testing"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/pda"
	"github.com/Miminimi234/padd/pkg/quant"
)

func fill(b byte) domain.Address {
	var a domain.Address
	copy(a[:], bytes.Repeat([]byte{b}, domain.AddressLen))
	return a
}

func testReserver(seed byte) *Reserver {
	f := pda.NewFinder(domain.Programs{
		Router: domain.MustParseAddress("RoutR1VdCpHqj89WEMJhb6TkGT9cPfr1rVjhM3e2YQr"),
		Market: domain.MustParseAddress("PaddZ6PsDLh2X6HzEoqxFDMqCVcJXDKCNEYuPzUvGPk"),
	})
	// hold id = 32 x seed, commitment = 32 x seed+1
	src := append(bytes.Repeat([]byte{seed}, 32), bytes.Repeat([]byte{seed + 1}, 32)...)
	return NewReserver(f).WithRand(bytes.NewReader(src))
}

func validRequest() ReserveRequest {
	return ReserveRequest{
		User:            fill(1),
		Route:           fill(2),
		InstrumentIndex: 7,
		Side:            domain.SideAsk,
		Quantity:        quant.Units(1),
		LimitPrice:      quant.MustParseFixed("101.5"),
		TTLMs:           domain.MaxHoldTTLMs,
	}
}

func TestReserve(t *testing.T) {
	r := testReserver(4)
	receipt, draft, err := r.Reserve(validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if receipt.HoldID != fill(4) {
		t.Errorf("hold id = %s, want fill(4)", receipt.HoldID)
	}
	wantHold := domain.MustParseAddress("CT8v8ADSpTuYDiyPM1CeVp1PdY8Cp5TXLpwC8zMmRcfQ")
	if receipt.Address != wantHold {
		t.Errorf("hold address = %s, want %s", receipt.Address, wantHold)
	}
	if receipt.CommitmentHash != domain.Hash(fill(5)) {
		t.Errorf("commitment = %s", receipt.CommitmentHash)
	}
	if receipt.Status != domain.HoldPending {
		t.Errorf("status = %s, want PENDING", receipt.Status)
	}

	if draft.Kind != domain.DraftReserve || draft.FeePayer != fill(1) {
		t.Fatalf("unexpected draft %+v", draft)
	}
	ix := draft.Instructions[0]
	if ix.ProgramID != r.finder.Programs.Market {
		t.Errorf("program = %s, want market", ix.ProgramID)
	}
	if len(ix.Data) != ReservePayloadLen || ix.Data[0] != TagReserve {
		t.Fatalf("bad payload %x", ix.Data)
	}
	if !ix.Accounts[0].IsSigner || ix.Accounts[1].Address != wantHold || !ix.Accounts[1].IsWritable {
		t.Errorf("unexpected accounts %+v", ix.Accounts)
	}

	decoded, err := DecodeReserve(ix.Data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decoded.Address, decoded.RouteID, decoded.Status = receipt.Address, receipt.RouteID, receipt.Status
	if decoded != receipt {
		t.Errorf("payload carries %+v, receipt is %+v", decoded, receipt)
	}
}

func TestReserve_CallerCommitment(t *testing.T) {
	want := domain.Hash(fill(9))
	req := validRequest()
	req.CommitmentHash = &want

	// Only 32 bytes of randomness: the commitment must not consume any.
	f := testReserver(0).finder
	r := NewReserver(f).WithRand(bytes.NewReader(bytes.Repeat([]byte{4}, 32)))

	receipt, _, err := r.Reserve(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receipt.CommitmentHash != want {
		t.Errorf("commitment = %s, want %s", receipt.CommitmentHash, want)
	}
}

func TestReserve_FreshIDs(t *testing.T) {
	r := NewReserver(testReserver(0).finder)
	a, _, err := r.Reserve(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := r.Reserve(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if a.HoldID == b.HoldID {
		t.Error("two reservations share a hold id")
	}
}

func TestReserve_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ReserveRequest)
	}{
		{"zero ttl", func(r *ReserveRequest) { r.TTLMs = 0 }},
		{"ttl over max", func(r *ReserveRequest) { r.TTLMs = domain.MaxHoldTTLMs + 1 }},
		{"zero quantity", func(r *ReserveRequest) { r.Quantity = 0 }},
		{"bad side", func(r *ReserveRequest) { r.Side = 3 }},
		{"no user", func(r *ReserveRequest) { r.User = domain.Address{} }},
		{"no route", func(r *ReserveRequest) { r.Route = domain.Address{} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if _, _, err := testReserver(4).Reserve(req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

func TestReserve_RandomFailure(t *testing.T) {
	r := testReserver(0)
	r = r.WithRand(bytes.NewReader([]byte{1, 2, 3}))
	if _, _, err := r.Reserve(validRequest()); err == nil {
		t.Fatal("expected error on short random read")
	}
}

func TestCommit(t *testing.T) {
	r := testReserver(4)
	receipt, _, err := r.Reserve(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	c := domain.CapToken{Owner: fill(1), Route: fill(2), Mint: fill(3), Nonce: 42, AmountMax: quant.Units(1), Address: fill(8)}

	draft, err := r.Commit(fill(1), receipt, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Kind != domain.DraftCommit {
		t.Errorf("kind = %s", draft.Kind)
	}
	data := draft.Instructions[0].Data
	if len(data) != CommitPayloadLen || data[0] != TagCommit {
		t.Fatalf("bad payload %x", data)
	}
	if id, _ := HoldIDOf(data); id != receipt.HoldID {
		t.Errorf("commit references hold %s, want %s", id, receipt.HoldID)
	}
	if data[33] != 42 {
		t.Errorf("cap nonce not carried: %x", data[33:])
	}

	accounts := draft.Instructions[0].Accounts
	if accounts[1].Address != receipt.Address || accounts[2].Address != c.Address {
		t.Errorf("unexpected accounts %+v", accounts)
	}
	position, _, _ := r.finder.Position(fill(1), fill(2), 7)
	if accounts[3].Address != position || !accounts[3].IsWritable {
		t.Errorf("position account = %+v, want %s", accounts[3], position)
	}
}

func TestCommit_Rejects(t *testing.T) {
	r := testReserver(4)
	receipt, _, _ := r.Reserve(validRequest())
	good := domain.CapToken{Owner: fill(1), Route: fill(2), Address: fill(8)}

	tests := []struct {
		name    string
		receipt domain.HoldReceipt
		cap     domain.CapToken
		want    error
	}{
		{"no hold", domain.HoldReceipt{}, good, domain.ErrValidation},
		{"no cap", receipt, domain.CapToken{Owner: fill(1), Route: fill(2)}, domain.ErrValidation},
		{"foreign owner", receipt, domain.CapToken{Owner: fill(6), Route: fill(2), Address: fill(8)}, domain.ErrAuthorization},
		{"foreign route", receipt, domain.CapToken{Owner: fill(1), Route: fill(6), Address: fill(8)}, domain.ErrAuthorization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Commit(fill(1), tt.receipt, tt.cap); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCancelHold(t *testing.T) {
	r := testReserver(4)
	receipt, _, _ := r.Reserve(validRequest())

	draft, err := r.CancelHold(fill(1), receipt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if draft.Kind != domain.DraftCancelHold {
		t.Errorf("kind = %s", draft.Kind)
	}
	ix := draft.Instructions[0]
	if !bytes.Equal(ix.Data, append([]byte{TagCancelHold}, receipt.HoldID[:]...)) {
		t.Errorf("payload = %x", ix.Data)
	}
	if ix.Accounts[1].Address != receipt.Address {
		t.Errorf("hold account = %s, want %s", ix.Accounts[1].Address, receipt.Address)
	}

	// Receipt without a cached address re-derives it.
	bare := domain.HoldReceipt{HoldID: receipt.HoldID, RouteID: receipt.RouteID}
	draft, err = r.CancelHold(fill(1), bare)
	if err != nil {
		t.Fatal(err)
	}
	if draft.Instructions[0].Accounts[1].Address != receipt.Address {
		t.Error("derived hold address differs from receipt")
	}

	if _, err := r.CancelHold(fill(1), domain.HoldReceipt{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("empty receipt: got %v", err)
	}
	if _, err := r.CancelHold(domain.Address{}, receipt); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("no user: got %v", err)
	}
}

func TestHoldIDOf(t *testing.T) {
	if _, ok := HoldIDOf([]byte{0x99}); ok {
		t.Error("short payload accepted")
	}
	if _, ok := HoldIDOf(append([]byte{0x99}, make([]byte, 32)...)); ok {
		t.Error("foreign tag accepted")
	}
}
