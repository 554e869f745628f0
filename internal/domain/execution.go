package domain

import "context"

// Signer turns a draft into a signed, submittable payload. It is supplied
// by the caller (wallet adapter, hardware key, remote signer); this module
// never holds key material.
type Signer interface {
	Sign(ctx context.Context, draft Draft) ([]byte, error)
}

// AccountReader is a single-round-trip read against the ledger.
// Implementations return an error matching ErrNotFound when the account
// does not exist and ErrNetwork on transport failure.
type AccountReader interface {
	FetchAccount(ctx context.Context, addr Address) ([]byte, error)
}
