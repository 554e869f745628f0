package capability

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Miminimi234/padd/internal/domain"
	"github.com/Miminimi234/padd/internal/pda"
	"github.com/Miminimi234/padd/pkg/quant"
)

func fill(b byte) domain.Address {
	var a domain.Address
	copy(a[:], bytes.Repeat([]byte{b}, domain.AddressLen))
	return a
}

func testFinder() *pda.Finder {
	return pda.NewFinder(domain.Programs{
		Router: domain.MustParseAddress("RoutR1VdCpHqj89WEMJhb6TkGT9cPfr1rVjhM3e2YQr"),
		Market: domain.MustParseAddress("PaddZ6PsDLh2X6HzEoqxFDMqCVcJXDKCNEYuPzUvGPk"),
	})
}

func validRequest() MintRequest {
	return MintRequest{
		User:      fill(1),
		Route:     fill(2),
		Mint:      fill(3),
		AmountMax: quant.Units(1),
		TTLMs:     domain.MaxCapTTLMs,
	}
}

func TestMintCap(t *testing.T) {
	const nonce = 1_700_000_000_000
	f := testFinder()
	a := NewAuthorizer(f, FixedNonce(nonce))

	token, draft, err := a.MintCap(validRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantCap := domain.MustParseAddress("2YsFy8wpy6UCEMFmpb3YUdByJKTyndzEcHbKkwFZbEAr")
	if token.Address != wantCap {
		t.Errorf("cap address = %s, want %s", token.Address, wantCap)
	}
	if token.Nonce != nonce || token.AmountMax != quant.Units(1) || token.AmountUsed != 0 {
		t.Errorf("unexpected token %+v", token)
	}

	if draft.Kind != domain.DraftMintCap || draft.FeePayer != fill(1) {
		t.Fatalf("unexpected draft header %+v", draft)
	}
	if len(draft.Instructions) != 1 {
		t.Fatalf("expected 1 instruction, got %d", len(draft.Instructions))
	}
	ix := draft.Instructions[0]
	if ix.ProgramID != f.Programs.Router {
		t.Errorf("program = %s, want router", ix.ProgramID)
	}

	escrow, _, _ := f.Escrow(fill(1), fill(2), fill(3))
	registry, _, _ := f.Registry()
	wantAccounts := []domain.AccountMeta{
		{Address: fill(1), IsWritable: true, IsSigner: true},
		{Address: wantCap, IsWritable: true},
		{Address: escrow, IsWritable: true},
		{Address: fill(2)},
		{Address: fill(3)},
		{Address: registry},
		{Address: domain.SystemProgram},
	}
	if len(ix.Accounts) != len(wantAccounts) {
		t.Fatalf("got %d accounts, want %d", len(ix.Accounts), len(wantAccounts))
	}
	for i := range wantAccounts {
		if ix.Accounts[i] != wantAccounts[i] {
			t.Errorf("account %d = %+v, want %+v", i, ix.Accounts[i], wantAccounts[i])
		}
	}

	gotNonce, gotMax, gotTTL, err := DecodeMint(ix.Data)
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if gotNonce != nonce || gotMax != quant.Units(1) || gotTTL != domain.MaxCapTTLMs {
		t.Errorf("payload = (%d, %d, %d)", gotNonce, gotMax, gotTTL)
	}
}

func TestEncodeMint_Layout(t *testing.T) {
	got := EncodeMint(0x0102030405060708, 1_000_000, 120_000)
	want := []byte{
		TagMintCap,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
		0x40, 0x42, 0x0f, 0x00, 0x00, 0x00, 0x00, 0x00,
		0xc0, 0xd4, 0x01, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %x\nwant %x", got, want)
	}
}

func TestMintCap_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MintRequest)
	}{
		{"zero ttl", func(r *MintRequest) { r.TTLMs = 0 }},
		{"ttl over max", func(r *MintRequest) { r.TTLMs = domain.MaxCapTTLMs + 1 }},
		{"zero amount", func(r *MintRequest) { r.AmountMax = 0 }},
		{"no user", func(r *MintRequest) { r.User = domain.Address{} }},
		{"no route", func(r *MintRequest) { r.Route = domain.Address{} }},
		{"no mint", func(r *MintRequest) { r.Mint = domain.Address{} }},
	}

	a := NewAuthorizer(testFinder(), FixedNonce(1))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			if _, _, err := a.MintCap(req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("got %v, want ErrValidation", err)
			}
		})
	}
}

type failingNonces struct{}

func (failingNonces) Next() (uint64, error) { return 0, errors.New("entropy unavailable") }

func TestMintCap_NonceFailure(t *testing.T) {
	a := NewAuthorizer(testFinder(), failingNonces{})
	if _, _, err := a.MintCap(validRequest()); err == nil {
		t.Fatal("expected error from nonce source")
	}
}

func TestMintCap_DistinctNoncesDistinctCaps(t *testing.T) {
	f := testFinder()
	c1, _, err := NewAuthorizer(f, FixedNonce(1)).MintCap(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	c2, _, err := NewAuthorizer(f, FixedNonce(2)).MintCap(validRequest())
	if err != nil {
		t.Fatal(err)
	}
	if c1.Address == c2.Address {
		t.Error("different nonces produced the same cap address")
	}
}

func TestTimeNonces(t *testing.T) {
	n := TimeNonces{Now: func() time.Time { return time.UnixMilli(1_700_000_000_123) }}
	got, err := n.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got != 1_700_000_000_123 {
		t.Errorf("got %d", got)
	}

	if _, err := (TimeNonces{Now: func() time.Time { return time.UnixMilli(-1) }}).Next(); err == nil {
		t.Error("expected error for pre-epoch clock")
	}
}

func TestRandomNonces(t *testing.T) {
	src := bytes.NewReader([]byte{1, 0, 0, 0, 0, 0, 0, 0})
	got, err := RandomNonces{Rand: src}.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}

	if _, err := (RandomNonces{Rand: bytes.NewReader(nil)}).Next(); err == nil {
		t.Error("expected error on short read")
	}
}
