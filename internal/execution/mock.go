package execution

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Miminimi234/padd/internal/domain"
)

// MockSigner is a safe signer that only logs drafts. Its "signature" is
// the SHA-256 of the draft's JSON form, so output is deterministic.
type MockSigner struct {
	mu     sync.Mutex
	signed []domain.Draft
}

func NewMockSigner() *MockSigner {
	return &MockSigner{}
}

func (m *MockSigner) Sign(ctx context.Context, draft domain.Draft) ([]byte, error) {
	raw, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(raw)

	slog.InfoContext(ctx, "MOCK SIGNER: Sign Draft",
		slog.String("kind", string(draft.Kind)),
		slog.String("fee_payer", draft.FeePayer.String()),
		slog.Int("instructions", len(draft.Instructions)),
	)

	m.mu.Lock()
	m.signed = append(m.signed, draft)
	m.mu.Unlock()
	return sum[:], nil
}

// Signed returns the drafts signed so far, in order.
func (m *MockSigner) Signed() []domain.Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Draft(nil), m.signed...)
}
